// Package prover implements the client of the external proving service. The
// service is opaque to the engine: given a spell description and the funding
// utxo it returns two raw transactions in unspecified order, possibly with a
// pre-signed input on the spell transaction. Proving can take minutes, so
// the round trip is bounded by a generous, caller-configurable timeout and
// is cancellable through the context: aborting before signing has no side
// effects.
package prover

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/spellex-network/spellex-daemon/pkg/transactionutil"
)

const (
	// DefaultProvingTimeout bounds the proving round trip. Proof
	// generation is minutes-scale work on the service side.
	DefaultProvingTimeout = 5 * time.Minute
)

var (
	// ErrNullEndpoint ...
	ErrNullEndpoint = errors.New("prover endpoint must not be null")
	// ErrNullSpell ...
	ErrNullSpell = errors.New("spell description must not be null")
	// ErrNullFundingUtxo ...
	ErrNullFundingUtxo = errors.New("funding utxo must not be null")
	// ErrInvalidProverResponse is returned when the service does not
	// return exactly two transactions.
	ErrInvalidProverResponse = errors.New(
		"prover must return exactly two transactions",
	)
)

// Service is the interface of the proving service consumed by the engine.
type Service interface {
	// Prove returns the unsigned-or-partially-signed commit/spell
	// transaction pair for the given request, in unspecified order.
	Prove(ctx context.Context, opts ProveOpts) ([]transactionutil.TxRef, error)
}

type client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClientOpts is the struct given to the NewClient method
type NewClientOpts struct {
	Endpoint string
	// Timeout is optional and defaults to DefaultProvingTimeout.
	Timeout time.Duration
}

func (o NewClientOpts) validate() error {
	if len(o.Endpoint) <= 0 {
		return ErrNullEndpoint
	}
	return nil
}

// NewClient returns a prover client as a Service interface.
func NewClient(opts NewClientOpts) (Service, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultProvingTimeout
	}

	return &client{
		endpoint:   opts.Endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// ProveOpts is the struct given to the Prove method
type ProveOpts struct {
	// Spell is the protocol-specific state-transition description,
	// passed through untouched.
	Spell json.RawMessage
	// FundingUtxo is the funding outpoint in "txid:vout" format.
	FundingUtxo string
	// PrevTxs are the raw transactions funding the spell inputs, needed
	// by the service to build the pair.
	PrevTxs []string
}

func (o ProveOpts) validate() error {
	if len(o.Spell) <= 0 {
		return ErrNullSpell
	}
	if len(o.FundingUtxo) <= 0 {
		return ErrNullFundingUtxo
	}
	if _, err := transactionutil.ParseOutpoint(o.FundingUtxo); err != nil {
		return err
	}
	return nil
}

func (c *client) Prove(
	ctx context.Context, opts ProveOpts,
) ([]transactionutil.TxRef, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"spell":        opts.Spell,
		"funding_utxo": opts.FundingUtxo,
		"prev_txs":     opts.PrevTxs,
	})

	url := fmt.Sprintf("%s/spells/prove", c.endpoint)
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, url, bytes.NewReader(payload),
	)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	log.WithField("funding_utxo", opts.FundingUtxo).Debug(
		"requesting proof from proving service",
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("proving round trip failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf(
			"proving service returned status %d: %s",
			resp.StatusCode, string(body),
		)
	}

	var refs []transactionutil.TxRef
	if err := json.Unmarshal(body, &refs); err != nil {
		return nil, fmt.Errorf("invalid prover response: %v", err)
	}
	if len(refs) != 2 {
		return nil, ErrInvalidProverResponse
	}

	return refs, nil
}
