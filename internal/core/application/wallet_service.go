package application

import (
	"context"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spellex-network/spellex-daemon/pkg/explorer"
	"github.com/spellex-network/spellex-daemon/pkg/prover"
	"github.com/spellex-network/spellex-daemon/pkg/spell"
	"github.com/spellex-network/spellex-daemon/pkg/stats"
	"github.com/spellex-network/spellex-daemon/pkg/transactionutil"
	"github.com/spellex-network/spellex-daemon/pkg/wallet"
)

// WalletService exposes the wallet operations of the daemon: address
// derivation, coin selection and the full cast flow turning a spell payload
// into a broadcast commit/spell transaction pair.
type WalletService interface {
	DeriveAddress(
		ctx context.Context, chain, index uint32,
	) (*AddressInfo, error)
	SelectUtxos(
		ctx context.Context,
		address string,
		targetAmount uint64,
		denylist map[string]struct{},
	) (*UtxoSelection, error)
	CastSpell(
		ctx context.Context, params CastSpellParams,
	) (*SpellResult, error)
	SignAndBroadcastPair(
		ctx context.Context, params SignAndBroadcastPairParams,
	) (*SpellResult, error)
}

type walletService struct {
	wallet           *wallet.Wallet
	network          *chaincfg.Params
	explorerSvc      explorer.Service
	proverSvc        prover.Service
	propagationDelay time.Duration
	dustFloor        uint64
}

// NewWalletServiceOpts is the struct given to the NewWalletService method
type NewWalletServiceOpts struct {
	Mnemonic    string
	Network     *chaincfg.Params
	ExplorerSvc explorer.Service
	ProverSvc   prover.Service
	// PropagationDelay is optional and defaults to
	// spell.DefaultPropagationDelay.
	PropagationDelay time.Duration
	// DustFloor is optional and defaults to explorer.DefaultDustFloor.
	DustFloor uint64
}

func (o NewWalletServiceOpts) validate() error {
	if len(o.Mnemonic) <= 0 {
		return ErrMissingMnemonic
	}
	if o.Network == nil {
		return ErrMissingNetwork
	}
	if o.ExplorerSvc == nil {
		return ErrMissingExplorer
	}
	if o.ProverSvc == nil {
		return ErrMissingProver
	}
	return nil
}

// NewWalletService restores the HD wallet from the given mnemonic and wires
// it to the explorer and prover services.
func NewWalletService(opts NewWalletServiceOpts) (WalletService, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	w, err := wallet.NewWalletFromMnemonic(wallet.NewWalletFromMnemonicOpts{
		Mnemonic: opts.Mnemonic,
	})
	if err != nil {
		return nil, err
	}

	return &walletService{
		wallet:           w,
		network:          opts.Network,
		explorerSvc:      opts.ExplorerSvc,
		proverSvc:        opts.ProverSvc,
		propagationDelay: opts.PropagationDelay,
		dustFloor:        opts.DustFloor,
	}, nil
}

func (s *walletService) DeriveAddress(
	_ context.Context, chain, index uint32,
) (*AddressInfo, error) {
	key, err := s.wallet.DeriveTaprootKeyPair(wallet.DeriveTaprootKeyPairOpts{
		Chain:   chain,
		Index:   index,
		Network: s.network,
	})
	if err != nil {
		return nil, err
	}
	return newAddressInfo(key), nil
}

func (s *walletService) SelectUtxos(
	_ context.Context,
	address string,
	targetAmount uint64,
	denylist map[string]struct{},
) (*UtxoSelection, error) {
	if len(address) <= 0 {
		return nil, ErrMissingAddress
	}
	if targetAmount <= 0 {
		return nil, ErrInvalidTargetAmount
	}

	unspents, err := s.explorerSvc.GetUnspents(address)
	if err != nil {
		return nil, err
	}

	feeRates, err := s.explorerSvc.GetFeeRates()
	if err != nil {
		return nil, err
	}

	selection, err := explorer.SelectUnspents(explorer.SelectUnspentsOpts{
		Utxos:        unspents,
		TargetAmount: targetAmount,
		SatsPerVByte: feeRates.HalfHour,
		DustFloor:    s.dustFloor,
		Denylist:     denylist,
	})
	if err != nil {
		if err == explorer.ErrInsufficientFunds {
			stats.CoinSelectionInsufficient()
		}
		return nil, err
	}

	stats.CoinSelectionSucceeded()
	return &UtxoSelection{
		Utxos:        selection.Utxos,
		FeeAmount:    selection.FeeAmount,
		ChangeAmount: selection.ChangeAmount,
	}, nil
}

// CastSpell runs the whole cast flow: the spell payload is proven remotely,
// the returned transactions are classified into commit and spell against the
// funding outpoint, both are signed for the inputs this wallet owns and the
// pair is broadcast. Classification or validation failures leave the chain
// untouched, nothing is ever submitted out of a validated pair.
func (s *walletService) CastSpell(
	ctx context.Context, params CastSpellParams,
) (*SpellResult, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	opID := uuid.New().String()
	logger := log.WithFields(log.Fields{
		"op_id":        opID,
		"funding_utxo": params.FundingUtxo,
	})

	key, err := s.wallet.DeriveTaprootKeyPair(wallet.DeriveTaprootKeyPairOpts{
		Chain:   params.Chain,
		Index:   params.Index,
		Network: s.network,
	})
	if err != nil {
		return nil, err
	}

	fundingOutpoint, err := transactionutil.ParseOutpoint(params.FundingUtxo)
	if err != nil {
		return nil, err
	}
	fundingTxHex, err := s.explorerSvc.GetTransactionHex(
		fundingOutpoint.Hash.String(),
	)
	if err != nil {
		return nil, err
	}

	prevTxs := append([]string{fundingTxHex}, params.PrevTxs...)
	refs, err := s.proverSvc.Prove(ctx, prover.ProveOpts{
		Spell:       params.Spell,
		FundingUtxo: params.FundingUtxo,
		PrevTxs:     prevTxs,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("spell proven, classifying transaction pair")

	return s.signAndBroadcastPair(
		opID, refs[0].Hex, refs[1].Hex,
		params.FundingUtxo, fundingTxHex, key, prevTxs,
	)
}

// SignAndBroadcastPair classifies, signs and broadcasts an already proven
// transaction pair. It is the second half of CastSpell, exposed for callers
// that obtained the pair out of band.
func (s *walletService) SignAndBroadcastPair(
	_ context.Context, params SignAndBroadcastPairParams,
) (*SpellResult, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	opID := uuid.New().String()

	key, err := s.wallet.DeriveTaprootKeyPair(wallet.DeriveTaprootKeyPairOpts{
		Chain:   params.Chain,
		Index:   params.Index,
		Network: s.network,
	})
	if err != nil {
		return nil, err
	}

	fundingOutpoint, err := transactionutil.ParseOutpoint(params.FundingUtxo)
	if err != nil {
		return nil, err
	}
	fundingTxHex, err := s.explorerSvc.GetTransactionHex(
		fundingOutpoint.Hash.String(),
	)
	if err != nil {
		return nil, err
	}

	prevTxs := append([]string{fundingTxHex}, params.PrevTxs...)
	return s.signAndBroadcastPair(
		opID, params.TxHexA, params.TxHexB,
		params.FundingUtxo, fundingTxHex, key, prevTxs,
	)
}

func (s *walletService) signAndBroadcastPair(
	opID, txHexA, txHexB, fundingUtxo, fundingTxHex string,
	key *wallet.TaprootKeyMaterial,
	prevTxs []string,
) (*SpellResult, error) {
	logger := log.WithFields(log.Fields{
		"op_id":        opID,
		"funding_utxo": fundingUtxo,
	})

	pair, err := spell.NewPair(spell.NewPairOpts{
		TxHexA:          txHexA,
		TxHexB:          txHexB,
		FundingOutpoint: fundingUtxo,
	})
	if err != nil {
		return nil, err
	}
	if err := pair.Validate(); err != nil {
		return nil, err
	}

	signedCommit, err := s.wallet.SignSingleInputTx(
		wallet.SignSingleInputTxOpts{
			TxHex:     pair.CommitTxHex(),
			PrevTxHex: fundingTxHex,
			Key:       key,
		},
	)
	if err != nil {
		return nil, err
	}
	stats.TransactionSigned()

	prevOuts, err := prevOutsFromTxs(prevTxs)
	if err != nil {
		return nil, err
	}
	signedSpell, err := s.wallet.SignSpellInputs(wallet.SignSpellInputsOpts{
		TxHex:       pair.SpellTxHex(),
		CommitTxHex: signedCommit.TxHex,
		PrevOuts:    prevOuts,
		Key:         key,
	})
	if err != nil {
		return nil, err
	}
	stats.TransactionSigned()

	signedPair, err := spell.NewPair(spell.NewPairOpts{
		TxHexA:          signedCommit.TxHex,
		TxHexB:          signedSpell.TxHex,
		FundingOutpoint: fundingUtxo,
	})
	if err != nil {
		return nil, err
	}
	if err := signedPair.Validate(); err != nil {
		return nil, err
	}
	if signedPair.State() != spell.StateSpellValidated {
		return nil, ErrPairNotBroadcastable
	}

	commitTxid, spellTxid, err := signedPair.Broadcast(spell.BroadcastOpts{
		Explorer:         s.explorerSvc,
		PropagationDelay: s.propagationDelay,
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(log.Fields{
		"commit_txid":  commitTxid,
		"spell_txid":   spellTxid,
		"true_package": signedPair.IsTruePackage(),
	}).Info("spell cast")

	return &SpellResult{
		OperationID: opID,
		CommitTxid:  commitTxid,
		SpellTxid:   spellTxid,
		TruePackage: signedPair.IsTruePackage(),
	}, nil
}

func (p CastSpellParams) validate() error {
	if len(p.Spell) <= 0 {
		return ErrMissingSpell
	}
	if len(p.FundingUtxo) <= 0 {
		return ErrMissingFundingUtxo
	}
	if _, err := transactionutil.ParseOutpoint(p.FundingUtxo); err != nil {
		return err
	}
	return nil
}

func (p SignAndBroadcastPairParams) validate() error {
	if len(p.TxHexA) <= 0 || len(p.TxHexB) <= 0 {
		return wallet.ErrNullTransaction
	}
	if len(p.FundingUtxo) <= 0 {
		return ErrMissingFundingUtxo
	}
	if _, err := transactionutil.ParseOutpoint(p.FundingUtxo); err != nil {
		return err
	}
	return nil
}

// prevOutsFromTxs indexes every output of the given raw transactions by
// outpoint, so the signer can resolve the previous output of any spell
// input, including the funding one in the packaged case.
func prevOutsFromTxs(txHexes []string) (
	map[wire.OutPoint]*wire.TxOut, error,
) {
	prevOuts := make(map[wire.OutPoint]*wire.TxOut)
	for _, txHex := range txHexes {
		tx, err := transactionutil.NewTxFromHex(txHex)
		if err != nil {
			return nil, err
		}
		txid := tx.TxHash()
		for i, out := range tx.TxOut {
			prevOuts[wire.OutPoint{Hash: txid, Index: uint32(i)}] = out
		}
	}
	return prevOuts, nil
}
