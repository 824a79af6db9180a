// Package spell implements the classification and broadcast of the
// two-transaction commit/spell pattern: a commit transaction spends the
// funding utxo into an intermediate output that the spell transaction, which
// carries the actual state transition, must provably consume. Classification
// is order independent and broadcasting is fail closed: nothing is ever
// submitted unless the spend relationship between the two transactions has
// been verified.
package spell

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/wire"

	"github.com/spellex-network/spellex-daemon/pkg/transactionutil"
)

var (
	// ErrNullFundingOutpoint ...
	ErrNullFundingOutpoint = errors.New("funding outpoint must not be null")
	// ErrFundingNotSpent is returned when neither transaction of the pair
	// spends the funding utxo.
	ErrFundingNotSpent = errors.New(
		"neither transaction spends the funding utxo",
	)
	// ErrAmbiguousPair is returned when both transactions spend the
	// funding utxo but neither spends an output of the other: no valid
	// topological order exists.
	ErrAmbiguousPair = errors.New(
		"both transactions spend the funding utxo and neither spends " +
			"the other, no valid broadcast order exists",
	)
	// ErrSpellDoesNotSpendCommit is returned when the identified spell
	// transaction does not consume any output of the commit transaction.
	// Broadcasting such a pair could release funds without completing the
	// intended state transition, so it is always fatal.
	ErrSpellDoesNotSpendCommit = errors.New(
		"spell transaction does not spend the commit transaction output",
	)
	// ErrUnexpectedPairState is returned when an operation is invoked on
	// a pair in the wrong lifecycle state.
	ErrUnexpectedPairState = errors.New("unexpected pair state")
)

// State is the lifecycle state of a commit/spell pair.
type State int

const (
	// StateUnclassified is the initial state of a freshly parsed pair.
	StateUnclassified State = iota
	// StateClassified means commit and spell identities are determined.
	StateClassified
	// StateSpellValidated means the spell provably spends the commit.
	StateSpellValidated
	// StateBroadcasting means submission to the network has started.
	StateBroadcasting
	// StateBroadcast means both transactions have been submitted.
	StateBroadcast
	// StateFailed is terminal and carries the originating error.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnclassified:
		return "unclassified"
	case StateClassified:
		return "classified"
	case StateSpellValidated:
		return "spell_validated"
	case StateBroadcasting:
		return "broadcasting"
	case StateBroadcast:
		return "broadcast"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Pair holds a classified commit/spell transaction pair and drives it
// through its lifecycle.
type Pair struct {
	state State
	err   error

	fundingOutpoint wire.OutPoint

	commitTx  *wire.MsgTx
	spellTx   *wire.MsgTx
	commitHex string
	spellHex  string

	// truePackage is set when the spell spends the funding utxo directly
	// besides the commit output: the two transactions then conflict on
	// purpose and only an atomic package submission is sound.
	truePackage bool
}

// NewPairOpts is the struct given to the NewPair method
type NewPairOpts struct {
	// TxHexA and TxHexB are the two raw transactions, in either order.
	TxHexA string
	TxHexB string
	// FundingOutpoint is the funding utxo in "txid:vout" format.
	FundingOutpoint string
}

func (o NewPairOpts) validate() error {
	if len(o.TxHexA) <= 0 || len(o.TxHexB) <= 0 {
		return transactionutil.ErrNullTransaction
	}
	if _, err := transactionutil.NewTxFromHex(o.TxHexA); err != nil {
		return err
	}
	if _, err := transactionutil.NewTxFromHex(o.TxHexB); err != nil {
		return err
	}
	if len(o.FundingOutpoint) <= 0 {
		return ErrNullFundingOutpoint
	}
	if _, err := transactionutil.ParseOutpoint(o.FundingOutpoint); err != nil {
		return err
	}
	return nil
}

// NewPair parses the two raw transactions and classifies them against the
// funding outpoint, returning a Pair in the Classified state. The order of
// the two hexes carries no meaning.
func NewPair(opts NewPairOpts) (*Pair, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	txA, _ := transactionutil.NewTxFromHex(opts.TxHexA)
	txB, _ := transactionutil.NewTxFromHex(opts.TxHexB)
	fundingOutpoint, _ := transactionutil.ParseOutpoint(opts.FundingOutpoint)

	p := &Pair{
		state:           StateUnclassified,
		fundingOutpoint: *fundingOutpoint,
	}
	if err := p.classify(txA, opts.TxHexA, txB, opts.TxHexB); err != nil {
		p.fail(err)
		return nil, err
	}
	return p, nil
}

func (p *Pair) classify(
	txA *wire.MsgTx, hexA string, txB *wire.MsgTx, hexB string,
) error {
	aSpendsFunding := spendsOutpoint(txA, p.fundingOutpoint)
	bSpendsFunding := spendsOutpoint(txB, p.fundingOutpoint)

	switch {
	case aSpendsFunding && bSpendsFunding:
		// Both spend funding: the dependency between the two decides
		// the order, and the pair is only sound as an atomic package.
		aSpendsB := spendsAnyOutputOf(txA, txB)
		bSpendsA := spendsAnyOutputOf(txB, txA)
		switch {
		case aSpendsB && !bSpendsA:
			p.setClassified(txB, hexB, txA, hexA, true)
		case bSpendsA && !aSpendsB:
			p.setClassified(txA, hexA, txB, hexB, true)
		default:
			return ErrAmbiguousPair
		}

	case aSpendsFunding:
		p.setClassified(txA, hexA, txB, hexB, false)

	case bSpendsFunding:
		p.setClassified(txB, hexB, txA, hexA, false)

	default:
		return ErrFundingNotSpent
	}

	return nil
}

func (p *Pair) setClassified(
	commitTx *wire.MsgTx, commitHex string,
	spellTx *wire.MsgTx, spellHex string,
	truePackage bool,
) {
	p.commitTx = commitTx
	p.commitHex = commitHex
	p.spellTx = spellTx
	p.spellHex = spellHex
	p.truePackage = truePackage
	p.state = StateClassified
}

// Validate enforces the single most important safety invariant of the
// protocol: the spell transaction must provably consume an output of the
// commit transaction. A pair failing this check must never reach the
// network in any form.
func (p *Pair) Validate() error {
	if p.state != StateClassified {
		return fmt.Errorf(
			"%w: got %s, want %s",
			ErrUnexpectedPairState, p.state, StateClassified,
		)
	}

	if !spendsAnyOutputOf(p.spellTx, p.commitTx) {
		err := ErrSpellDoesNotSpendCommit
		p.fail(err)
		return err
	}

	p.state = StateSpellValidated
	return nil
}

// State returns the current lifecycle state of the pair.
func (p *Pair) State() State {
	return p.state
}

// Err returns the error that moved the pair to the Failed state, if any.
func (p *Pair) Err() error {
	return p.err
}

// CommitTxid returns the id of the commit transaction.
func (p *Pair) CommitTxid() string {
	if p.commitTx == nil {
		return ""
	}
	hash := p.commitTx.TxHash()
	return hash.String()
}

// SpellTxid returns the id of the spell transaction.
func (p *Pair) SpellTxid() string {
	if p.spellTx == nil {
		return ""
	}
	hash := p.spellTx.TxHash()
	return hash.String()
}

// CommitTxHex returns the raw commit transaction in hex format.
func (p *Pair) CommitTxHex() string {
	return p.commitHex
}

// SpellTxHex returns the raw spell transaction in hex format.
func (p *Pair) SpellTxHex() string {
	return p.spellHex
}

// IsTruePackage returns whether both transactions spend the funding utxo and
// therefore must be submitted as one atomic package.
func (p *Pair) IsTruePackage() bool {
	return p.truePackage
}

func (p *Pair) fail(err error) {
	p.state = StateFailed
	p.err = err
}

func spendsOutpoint(tx *wire.MsgTx, outpoint wire.OutPoint) bool {
	for _, in := range tx.TxIn {
		if in.PreviousOutPoint == outpoint {
			return true
		}
	}
	return false
}

func spendsAnyOutputOf(tx, prevTx *wire.MsgTx) bool {
	prevTxid := prevTx.TxHash()
	for _, in := range tx.TxIn {
		if in.PreviousOutPoint.Hash == prevTxid &&
			int(in.PreviousOutPoint.Index) < len(prevTx.TxOut) {
			return true
		}
	}
	return false
}
