package crawler

import "github.com/spellex-network/spellex-daemon/pkg/explorer"

const (
	QuitSignal EventType = iota
	FundingDeposit
	TransactionConfirmed
	TransactionUnConfirmed
)

type EventType int

func (et EventType) String() string {
	switch et {
	case QuitSignal:
		return "QuitSignal"
	case FundingDeposit:
		return "FundingDeposit"
	case TransactionConfirmed:
		return "TransactionConfirmed"
	case TransactionUnConfirmed:
		return "TransactionUnConfirmed"
	default:
		return "Unknown"
	}
}

type QuitEvent struct{}

func (q QuitEvent) Type() EventType {
	return QuitSignal
}

// AddressEvent reports the spendable coins currently sitting on a watched
// funding address.
type AddressEvent struct {
	EventType EventType
	Address   string
	Utxos     []explorer.Utxo
}

func (a AddressEvent) Type() EventType {
	return a.EventType
}

// TransactionEvent reports the confirmation state of a watched transaction,
// typically a broadcast commit or spell.
type TransactionEvent struct {
	Txid        string
	EventType   EventType
	BlockHeight uint64
	BlockTime   uint64
}

func (t TransactionEvent) Type() EventType {
	return t.EventType
}
