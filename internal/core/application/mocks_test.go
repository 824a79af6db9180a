package application

import (
	"context"

	"github.com/spellex-network/spellex-daemon/pkg/explorer"
	"github.com/spellex-network/spellex-daemon/pkg/prover"
	"github.com/spellex-network/spellex-daemon/pkg/transactionutil"
)

// mockExplorer serves canned chain data and records everything submitted to
// the network.
type mockExplorer struct {
	unspents map[string][]explorer.Utxo
	txs      map[string]string
	feeRates *explorer.FeeRates

	broadcasted []string
	packages    [][]string
}

func newMockExplorer() *mockExplorer {
	return &mockExplorer{
		unspents: map[string][]explorer.Utxo{},
		txs:      map[string]string{},
		feeRates: &explorer.FeeRates{
			Fastest:  25,
			HalfHour: 2,
			Hour:     1,
			Economy:  1,
			Minimum:  1,
		},
	}
}

func (m *mockExplorer) addTx(txHex string) error {
	tx, err := transactionutil.NewTxFromHex(txHex)
	if err != nil {
		return err
	}
	txid := tx.TxHash()
	m.txs[txid.String()] = txHex
	return nil
}

func (m *mockExplorer) GetUnspents(addr string) ([]explorer.Utxo, error) {
	return m.unspents[addr], nil
}

func (m *mockExplorer) GetUnspentsForAddresses(
	addresses []string,
) ([]explorer.Utxo, error) {
	unspents := make([]explorer.Utxo, 0)
	for _, addr := range addresses {
		unspents = append(unspents, m.unspents[addr]...)
	}
	return unspents, nil
}

func (m *mockExplorer) GetTransactionHex(txid string) (string, error) {
	txHex, ok := m.txs[txid]
	if !ok {
		return "", transactionutil.ErrNullTransaction
	}
	return txHex, nil
}

func (m *mockExplorer) IsTransactionConfirmed(string) (bool, error) {
	return false, nil
}

func (m *mockExplorer) GetTransactionStatus(
	string,
) (*explorer.TransactionStatus, error) {
	return &explorer.TransactionStatus{}, nil
}

func (m *mockExplorer) GetBlockHeight() (uint64, error) {
	return 814000, nil
}

func (m *mockExplorer) GetFeeRates() (*explorer.FeeRates, error) {
	return m.feeRates, nil
}

func (m *mockExplorer) BroadcastTransaction(txHex string) (string, error) {
	m.broadcasted = append(m.broadcasted, txHex)
	tx, err := transactionutil.NewTxFromHex(txHex)
	if err != nil {
		return "", err
	}
	txid := tx.TxHash()
	return txid.String(), nil
}

func (m *mockExplorer) SubmitPackage(txsHex []string) ([]string, error) {
	m.packages = append(m.packages, txsHex)
	txids := make([]string, 0, len(txsHex))
	for _, txHex := range txsHex {
		tx, err := transactionutil.NewTxFromHex(txHex)
		if err != nil {
			return nil, err
		}
		txid := tx.TxHash()
		txids = append(txids, txid.String())
	}
	return txids, nil
}

// mockProver returns a fixed transaction pair and records the requests it
// received.
type mockProver struct {
	refs     []transactionutil.TxRef
	err      error
	requests []prover.ProveOpts
}

func (m *mockProver) Prove(
	_ context.Context, opts prover.ProveOpts,
) ([]transactionutil.TxRef, error) {
	m.requests = append(m.requests, opts)
	if m.err != nil {
		return nil, m.err
	}
	return m.refs, nil
}
