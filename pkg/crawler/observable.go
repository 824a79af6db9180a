package crawler

import (
	"fmt"

	"github.com/spellex-network/spellex-daemon/pkg/explorer"
)

// AddressObservable watches a funding address for spendable coins.
type AddressObservable struct {
	Address string
}

func (a *AddressObservable) Observe(
	explorerSvc explorer.Service,
) (Event, error) {
	unspents, err := explorerSvc.GetUnspents(a.Address)
	if err != nil {
		return nil, err
	}
	if len(unspents) <= 0 {
		return nil, nil
	}
	return AddressEvent{
		EventType: FundingDeposit,
		Address:   a.Address,
		Utxos:     unspents,
	}, nil
}

func (a *AddressObservable) Key() string {
	return fmt.Sprintf("address:%s", a.Address)
}

// TransactionObservable watches a broadcast transaction until it confirms.
type TransactionObservable struct {
	Txid string
}

func (t *TransactionObservable) Observe(
	explorerSvc explorer.Service,
) (Event, error) {
	status, err := explorerSvc.GetTransactionStatus(t.Txid)
	if err != nil {
		return nil, err
	}

	eventType := TransactionUnConfirmed
	if status.Confirmed {
		eventType = TransactionConfirmed
	}
	return TransactionEvent{
		Txid:        t.Txid,
		EventType:   eventType,
		BlockHeight: status.BlockHeight,
		BlockTime:   status.BlockTime,
	}, nil
}

func (t *TransactionObservable) Key() string {
	return fmt.Sprintf("tx:%s", t.Txid)
}
