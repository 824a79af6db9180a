package explorer

import (
	"errors"

	"github.com/btcsuite/btcd/wire"
)

var (
	// ErrInsufficientFunds is returned by coin selection when the
	// candidate list is exhausted before reaching the target amount. It
	// is an expected business outcome, not a failure of the selector.
	ErrInsufficientFunds = errors.New(
		"total utxo amount does not cover target amount plus fees",
	)
	// ErrPackageRelayUnsupported is returned when atomic package
	// submission is requested against an endpoint that does not expose
	// the package relay API.
	ErrPackageRelayUnsupported = errors.New(
		"explorer endpoint does not support package relay",
	)
)

// Utxo represents an unspent transaction output in the bitcoin chain.
type Utxo interface {
	Hash() string
	Index() uint32
	Value() uint64
	Script() []byte
	IsConfirmed() bool
	BlockHeight() uint64
	BlockTime() uint64
	SetScript(script []byte)
	Parse() (*wire.OutPoint, *wire.TxOut, error)
}

// TransactionStatus is the confirmation state of a transaction.
type TransactionStatus struct {
	Confirmed   bool
	BlockHeight uint64
	BlockTime   uint64
}

// FeeRates holds the fee estimations in sat/vbyte for the usual
// confirmation targets.
type FeeRates struct {
	Fastest  float64
	HalfHour float64
	Hour     float64
	Economy  float64
	Minimum  float64
}

// Service is the representation of an explorer that allows to fetch data
// from the blockchain and to broadcast transactions, either one by one or as
// an atomic package of dependent transactions.
type Service interface {
	// GetUnspents fetches the utxos owned by the given address.
	GetUnspents(addr string) (unspents []Utxo, err error)
	// GetUnspentsForAddresses fetches the utxos of the given list of
	// addresses with bounded concurrency.
	GetUnspentsForAddresses(addresses []string) (unspents []Utxo, err error)
	// GetTransactionHex fetches the transaction in hex format given its
	// hash.
	GetTransactionHex(txid string) (txHex string, err error)
	// IsTransactionConfirmed returns whether the tx identified by its
	// hash has been included in the blockchain.
	IsTransactionConfirmed(txid string) (confirmed bool, err error)
	// GetTransactionStatus returns the status of the tx identified by its
	// hash.
	GetTransactionStatus(txid string) (status *TransactionStatus, err error)
	// GetBlockHeight returns the current tip height of the blockchain.
	GetBlockHeight() (uint64, error)
	// GetFeeRates returns the current fee estimations. Implementations
	// must degrade to a conservative default instead of failing: a fee
	// estimation outage must never block signing.
	GetFeeRates() (*FeeRates, error)
	// BroadcastTransaction attempts to add the given tx in hex format to
	// the mempool and returns its tx hash.
	BroadcastTransaction(txHex string) (txid string, err error)
	// SubmitPackage atomically submits the given topologically sorted
	// list of raw transactions so that either all or none enter the
	// mempool. Returns ErrPackageRelayUnsupported when the backing
	// endpoint has no package relay configured.
	SubmitPackage(txsHex []string) (txids []string, err error)
}
