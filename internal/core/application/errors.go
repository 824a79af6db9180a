package application

import "errors"

var (
	// ErrMissingMnemonic ...
	ErrMissingMnemonic = errors.New("mnemonic must not be null")
	// ErrMissingNetwork ...
	ErrMissingNetwork = errors.New("network must not be null")
	// ErrMissingExplorer ...
	ErrMissingExplorer = errors.New("explorer service must not be null")
	// ErrMissingProver ...
	ErrMissingProver = errors.New("prover service must not be null")
	// ErrMissingSpell ...
	ErrMissingSpell = errors.New("spell payload must not be null")
	// ErrMissingFundingUtxo ...
	ErrMissingFundingUtxo = errors.New("funding utxo must not be null")
	// ErrMissingAddress ...
	ErrMissingAddress = errors.New("address must not be null")
	// ErrInvalidTargetAmount ...
	ErrInvalidTargetAmount = errors.New("target amount must be greater than zero")
	// ErrPairNotBroadcastable ...
	ErrPairNotBroadcastable = errors.New(
		"transaction pair did not reach a broadcastable state",
	)
)
