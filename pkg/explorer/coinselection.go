package explorer

import (
	"fmt"
	"sort"

	"github.com/spellex-network/spellex-daemon/pkg/wallet"
)

const (
	// DefaultDustFloor is the minimum value in satoshis for a utxo to be
	// considered spendable by the selector.
	DefaultDustFloor = uint64(546)

	// selectionNumOutputs is the output count assumed by the selector fee
	// estimate: the payment output plus change.
	selectionNumOutputs = 2
)

// ProtectedValues is the set of satoshi amounts that conventionally flag
// non-fungible or protocol-significant outputs (inscription postage, rare
// sat markers and the like). Spending those by accident can destroy value
// far beyond their face amount, so the selector skips them unless the caller
// explicitly opts in. This is a safety policy, not a network rule.
var ProtectedValues = map[uint64]struct{}{
	330:   {},
	333:   {},
	546:   {},
	777:   {},
	1000:  {},
	10000: {},
}

// Selection is the result of a successful coin selection.
type Selection struct {
	Utxos        []Utxo
	FeeAmount    uint64
	ChangeAmount uint64
}

// SelectUnspentsOpts is the struct given to the SelectUnspents method
type SelectUnspentsOpts struct {
	Utxos        []Utxo
	TargetAmount uint64
	SatsPerVByte float64
	// DustFloor is optional and defaults to DefaultDustFloor.
	DustFloor uint64
	// Denylist optionally excludes specific outpoints in "txid:vout"
	// format, no matter their value.
	Denylist map[string]struct{}
	// IncludeProtected opts in to spending utxos whose value belongs to
	// ProtectedValues.
	IncludeProtected bool
}

func (o SelectUnspentsOpts) validate() error {
	if len(o.Utxos) <= 0 {
		return ErrInsufficientFunds
	}
	if o.TargetAmount <= 0 {
		return fmt.Errorf("target amount must not be zero")
	}
	if o.SatsPerVByte <= 0 {
		return fmt.Errorf("fee rate must be a positive sat/vbyte value")
	}
	return nil
}

// SelectUnspents greedily accumulates utxos until the target amount plus the
// fees for a transaction of the accumulated inputs and 2 taproot outputs is
// covered. Candidates are filtered by the protected-value set, the dust
// floor and the optional denylist, then sorted confirmed-first and largest
// value first: confirmed coins make fee bumping surprises less likely, and
// fewer, bigger inputs keep the fee down. Exhausting the candidates returns
// ErrInsufficientFunds, an expected outcome callers are meant to branch on.
func SelectUnspents(opts SelectUnspentsOpts) (*Selection, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	candidates := eligibleUnspents(
		opts.Utxos, opts.dustFloor(), opts.Denylist, opts.IncludeProtected,
	)
	sortByConfirmationAndValue(candidates)

	selected := make([]Utxo, 0, len(candidates))
	total := uint64(0)
	for _, utxo := range candidates {
		selected = append(selected, utxo)
		total += utxo.Value()

		fee := wallet.EstimateFeeAmount(
			len(selected), selectionNumOutputs, opts.SatsPerVByte,
		)
		if total >= opts.TargetAmount+fee {
			return &Selection{
				Utxos:        selected,
				FeeAmount:    fee,
				ChangeAmount: total - opts.TargetAmount - fee,
			}, nil
		}
	}

	return nil, ErrInsufficientFunds
}

// SelectSingleBestOpts is the struct given to the SelectSingleBest method
type SelectSingleBestOpts struct {
	Utxos            []Utxo
	DustFloor        uint64
	Denylist         map[string]struct{}
	IncludeProtected bool
}

func (o SelectSingleBestOpts) dustFloor() uint64 {
	if o.DustFloor == 0 {
		return DefaultDustFloor
	}
	return o.DustFloor
}

// SelectSingleBest returns the highest ranked eligible utxo, for the flows
// where the protocol needs exactly one funding input. Returns nil when no
// candidate survives filtering.
func SelectSingleBest(opts SelectSingleBestOpts) Utxo {
	candidates := eligibleUnspents(
		opts.Utxos, opts.dustFloor(), opts.Denylist, opts.IncludeProtected,
	)
	if len(candidates) <= 0 {
		return nil
	}
	sortByConfirmationAndValue(candidates)
	return candidates[0]
}

func (o SelectUnspentsOpts) dustFloor() uint64 {
	if o.DustFloor == 0 {
		return DefaultDustFloor
	}
	return o.DustFloor
}

func eligibleUnspents(
	utxos []Utxo, dustFloor uint64,
	denylist map[string]struct{}, includeProtected bool,
) []Utxo {
	eligible := make([]Utxo, 0, len(utxos))
	for _, utxo := range utxos {
		if _, ok := ProtectedValues[utxo.Value()]; ok && !includeProtected {
			continue
		}
		if utxo.Value() < dustFloor {
			continue
		}
		outpoint := fmt.Sprintf("%s:%d", utxo.Hash(), utxo.Index())
		if _, ok := denylist[outpoint]; ok {
			continue
		}
		eligible = append(eligible, utxo)
	}
	return eligible
}

func sortByConfirmationAndValue(utxos []Utxo) {
	sort.SliceStable(utxos, func(i, j int) bool {
		if utxos[i].IsConfirmed() != utxos[j].IsConfirmed() {
			return utxos[i].IsConfirmed()
		}
		return utxos[i].Value() > utxos[j].Value()
	})
}
