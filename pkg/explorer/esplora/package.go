package esplora

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spellex-network/spellex-daemon/pkg/explorer"
)

// SubmitPackage atomically submits the given topologically sorted raw
// transactions through the package relay endpoint, so that either all or
// none enter the mempool. A missing endpoint is a configuration state, not a
// crash: it is reported as ErrPackageRelayUnsupported before anything is
// sent.
func (e *esplora) SubmitPackage(txsHex []string) ([]string, error) {
	if len(e.packageRelayURL) <= 0 {
		return nil, explorer.ErrPackageRelayUnsupported
	}
	if len(txsHex) <= 0 {
		return nil, fmt.Errorf("package must not be empty")
	}

	body, _ := json.Marshal(txsHex)
	headers := map[string]string{
		"Content-Type": "application/json",
	}

	url := fmt.Sprintf("%s/txs/package", e.packageRelayURL)
	status, resp, err := e.postRequest(url, string(body), headers)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound || status == http.StatusMethodNotAllowed {
		return nil, explorer.ErrPackageRelayUnsupported
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf(resp)
	}

	var result struct {
		Txids []string `json:"txids"`
	}
	if err := json.Unmarshal([]byte(resp), &result); err != nil {
		return nil, fmt.Errorf("invalid package relay response: %v", err)
	}
	return result.Txids, nil
}
