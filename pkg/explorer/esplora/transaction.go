package esplora

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spellex-network/spellex-daemon/pkg/explorer"
)

func (e *esplora) GetTransactionHex(txid string) (string, error) {
	return e.getTransactionHex(txid)
}

func (e *esplora) IsTransactionConfirmed(txid string) (bool, error) {
	status, err := e.GetTransactionStatus(txid)
	if err != nil {
		return false, err
	}
	return status.Confirmed, nil
}

func (e *esplora) GetTransactionStatus(
	txid string,
) (*explorer.TransactionStatus, error) {
	url := fmt.Sprintf("%s/tx/%s/status", e.apiURL, txid)
	resp, err := e.getRequest(url)
	if err != nil {
		return nil, err
	}
	return parseTransactionStatus(resp)
}

func (e *esplora) BroadcastTransaction(txHex string) (string, error) {
	url := fmt.Sprintf("%s/tx", e.apiURL)
	headers := map[string]string{
		"Content-Type": "text/plain",
	}

	status, resp, err := e.postRequest(url, txHex, headers)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf(resp)
	}

	return strings.TrimSpace(resp), nil
}

func (e *esplora) getTransactionHex(txid string) (string, error) {
	url := fmt.Sprintf("%s/tx/%s/hex", e.apiURL, txid)
	resp, err := e.getRequest(url)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp), nil
}
