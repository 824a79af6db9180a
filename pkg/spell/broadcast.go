package spell

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/spellex-network/spellex-daemon/pkg/explorer"
	"github.com/spellex-network/spellex-daemon/pkg/stats"
)

// DefaultPropagationDelay is the pause between the commit and spell
// submissions of a sequential broadcast. It is a best-effort courtesy to
// reduce orphan rejections of the spell, not a correctness requirement.
const DefaultPropagationDelay = 2 * time.Second

// PartialBroadcastError is returned when the commit transaction reached the
// network but the spell submission failed. The commit id must not get lost:
// the caller has a pending transaction on chain and needs it to recover.
type PartialBroadcastError struct {
	CommitTxid string
	Err        error
}

func (e *PartialBroadcastError) Error() string {
	return fmt.Sprintf(
		"commit transaction %s was broadcast but spell submission "+
			"failed: %v", e.CommitTxid, e.Err,
	)
}

func (e *PartialBroadcastError) Unwrap() error {
	return e.Err
}

// BroadcastOpts is the struct given to the Broadcast method
type BroadcastOpts struct {
	Explorer explorer.Service
	// PropagationDelay is optional and defaults to
	// DefaultPropagationDelay. It only applies to the sequential path.
	PropagationDelay time.Duration
}

func (o BroadcastOpts) validate() error {
	if o.Explorer == nil {
		return fmt.Errorf("explorer service must not be null")
	}
	return nil
}

// Broadcast submits the validated pair to the network. A true package, where
// the spell also spends the funding utxo, goes through the atomic package
// relay and nothing else: falling back to sequential submission there would
// knowingly create a non-atomic double spend, so a package relay failure is
// surfaced verbatim instead. Any other pair is broadcast commit first, then
// spell after a short propagation pause. A spell failure after the commit
// was accepted is reported as a PartialBroadcastError carrying the commit
// id.
func (p *Pair) Broadcast(opts BroadcastOpts) (string, string, error) {
	if err := opts.validate(); err != nil {
		return "", "", err
	}
	if p.state != StateSpellValidated {
		return "", "", fmt.Errorf(
			"%w: got %s, want %s",
			ErrUnexpectedPairState, p.state, StateSpellValidated,
		)
	}

	p.state = StateBroadcasting

	if p.truePackage {
		return p.broadcastPackage(opts.Explorer)
	}
	return p.broadcastSequential(opts.Explorer, opts.propagationDelay())
}

func (o BroadcastOpts) propagationDelay() time.Duration {
	if o.PropagationDelay == 0 {
		return DefaultPropagationDelay
	}
	return o.PropagationDelay
}

func (p *Pair) broadcastPackage(svc explorer.Service) (string, string, error) {
	log.WithFields(log.Fields{
		"commit": p.CommitTxid(),
		"spell":  p.SpellTxid(),
	}).Debug("submitting pair as atomic package")

	if _, err := svc.SubmitPackage(
		[]string{p.commitHex, p.spellHex},
	); err != nil {
		stats.PairBroadcastFailed(stats.BroadcastPathPackage)
		p.fail(err)
		return "", "", err
	}

	stats.PairBroadcastSucceeded(stats.BroadcastPathPackage)
	p.state = StateBroadcast
	return p.CommitTxid(), p.SpellTxid(), nil
}

func (p *Pair) broadcastSequential(
	svc explorer.Service, delay time.Duration,
) (string, string, error) {
	commitTxid, err := svc.BroadcastTransaction(p.commitHex)
	if err != nil {
		// Nothing reached the network, the caller can safely retry.
		stats.PairBroadcastFailed(stats.BroadcastPathSequential)
		p.fail(err)
		return "", "", err
	}

	log.WithField("commit", commitTxid).Debug(
		"commit transaction broadcast, waiting for propagation",
	)
	time.Sleep(delay)

	spellTxid, err := svc.BroadcastTransaction(p.spellHex)
	if err != nil {
		stats.PairBroadcastFailed(stats.BroadcastPathSequential)
		partialErr := &PartialBroadcastError{
			CommitTxid: commitTxid,
			Err:        err,
		}
		p.fail(partialErr)
		return commitTxid, "", partialErr
	}

	stats.PairBroadcastSucceeded(stats.BroadcastPathSequential)
	p.state = StateBroadcast
	return commitTxid, spellTxid, nil
}
