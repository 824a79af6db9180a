package esplora

import (
	"encoding/json"

	"github.com/spellex-network/spellex-daemon/pkg/explorer"
)

type txStatus struct {
	Confirmed   bool   `json:"confirmed"`
	BlockHeight uint64 `json:"block_height"`
	BlockTime   uint64 `json:"block_time"`
}

type witnessUtxoResult struct {
	Txid   string   `json:"txid"`
	Vout   uint32   `json:"vout"`
	Value  uint64   `json:"value"`
	Status txStatus `json:"status"`
}

func parseUtxoList(body string) ([]witnessUtxoResult, error) {
	var utxoList []witnessUtxoResult
	if err := json.Unmarshal([]byte(body), &utxoList); err != nil {
		return nil, err
	}
	return utxoList, nil
}

func parseTransactionStatus(body string) (*explorer.TransactionStatus, error) {
	var status txStatus
	if err := json.Unmarshal([]byte(body), &status); err != nil {
		return nil, err
	}
	return &explorer.TransactionStatus{
		Confirmed:   status.Confirmed,
		BlockHeight: status.BlockHeight,
		BlockTime:   status.BlockTime,
	}, nil
}

// parseFeeRates maps the esplora /fee-estimates payload, a map from
// confirmation target in blocks to sat/vbyte, onto the named rates exposed
// by the explorer interface.
func parseFeeRates(body string) (*explorer.FeeRates, error) {
	var estimates map[string]float64
	if err := json.Unmarshal([]byte(body), &estimates); err != nil {
		return nil, err
	}

	rateOrDefault := func(target string, fallback float64) float64 {
		if rate, ok := estimates[target]; ok && rate > 0 {
			return rate
		}
		return fallback
	}

	fastest := rateOrDefault("1", 1)
	return &explorer.FeeRates{
		Fastest:  fastest,
		HalfHour: rateOrDefault("3", fastest),
		Hour:     rateOrDefault("6", fastest),
		Economy:  rateOrDefault("144", 1),
		Minimum:  rateOrDefault("1008", 1),
	}, nil
}
