package wallet

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func txToHex(t *testing.T, tx *wire.MsgTx) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, tx.Serialize(&buf))
	return hex.EncodeToString(buf.Bytes())
}

// newFundingTx returns a transaction with a single output paying the given
// amount to the given script.
func newFundingTx(script []byte, value int64) *wire.MsgTx {
	tx := wire.NewMsgTx(2)
	tx.AddTxIn(wire.NewTxIn(
		&wire.OutPoint{Index: wire.MaxPrevOutIndex}, nil, nil,
	))
	tx.AddTxOut(wire.NewTxOut(value, script))
	return tx
}

func newSpendingTx(prevTxid chainhash.Hash, vout uint32, out *wire.TxOut) *wire.MsgTx {
	tx := wire.NewMsgTx(2)
	tx.AddTxIn(wire.NewTxIn(
		&wire.OutPoint{Hash: prevTxid, Index: vout}, nil, nil,
	))
	tx.AddTxOut(out)
	return tx
}

func TestSignSingleInputTx(t *testing.T) {
	wallet, err := newTestWallet()
	require.NoError(t, err)
	key, err := wallet.DeriveTaprootKeyPair(DeriveTaprootKeyPairOpts{
		Chain:   ExternalChain,
		Index:   0,
		Network: &chaincfg.MainNetParams,
	})
	require.NoError(t, err)

	fundingValue := int64(50000)
	fundingTx := newFundingTx(key.OutputScript, fundingValue)
	unsignedTx := newSpendingTx(
		fundingTx.TxHash(), 0, wire.NewTxOut(49000, key.OutputScript),
	)

	signedTx, err := wallet.SignSingleInputTx(SignSingleInputTxOpts{
		TxHex:     txToHex(t, unsignedTx),
		PrevTxHex: txToHex(t, fundingTx),
		Key:       key,
	})
	require.NoError(t, err)

	tx, err := txFromHex(signedTx.TxHex)
	require.NoError(t, err)
	require.Equal(t, 1, len(tx.TxIn[0].Witness))
	// 64-byte schnorr signature with SIGHASH_DEFAULT.
	assert.Equal(t, 64, len(tx.TxIn[0].Witness[0]))
	assert.Equal(t, tx.TxHash().String(), signedTx.Txid)
	// The witness does not change the txid.
	assert.Equal(t, unsignedTx.TxHash().String(), signedTx.Txid)

	prevOutFetcher := txscript.NewCannedPrevOutputFetcher(
		key.OutputScript, fundingValue,
	)
	sigHashes := txscript.NewTxSigHashes(tx, prevOutFetcher)
	vm, err := txscript.NewEngine(
		key.OutputScript, tx, 0, txscript.StandardVerifyFlags,
		nil, sigHashes, fundingValue, prevOutFetcher,
	)
	require.NoError(t, err)
	assert.Nil(t, vm.Execute())
}

func TestSignSingleInputTxWithSighashAll(t *testing.T) {
	wallet, err := newTestWallet()
	require.NoError(t, err)
	key, err := wallet.DeriveTaprootKeyPair(DeriveTaprootKeyPairOpts{
		Chain:   ExternalChain,
		Index:   0,
		Network: &chaincfg.MainNetParams,
	})
	require.NoError(t, err)

	fundingTx := newFundingTx(key.OutputScript, 50000)
	unsignedTx := newSpendingTx(
		fundingTx.TxHash(), 0, wire.NewTxOut(49000, key.OutputScript),
	)

	signedTx, err := wallet.SignSingleInputTx(SignSingleInputTxOpts{
		TxHex:       txToHex(t, unsignedTx),
		PrevTxHex:   txToHex(t, fundingTx),
		Key:         key,
		SighashType: txscript.SigHashAll,
	})
	require.NoError(t, err)

	tx, err := txFromHex(signedTx.TxHex)
	require.NoError(t, err)
	// 65 bytes, the hash type is appended to the signature.
	require.Equal(t, 65, len(tx.TxIn[0].Witness[0]))
	assert.Equal(t, byte(txscript.SigHashAll), tx.TxIn[0].Witness[0][64])
}

func TestFailingSignSingleInputTx(t *testing.T) {
	wallet, err := newTestWallet()
	require.NoError(t, err)
	key, err := wallet.DeriveTaprootKeyPair(DeriveTaprootKeyPairOpts{
		Chain:   ExternalChain,
		Index:   0,
		Network: &chaincfg.MainNetParams,
	})
	require.NoError(t, err)
	otherKey, err := wallet.DeriveTaprootKeyPair(DeriveTaprootKeyPairOpts{
		Chain:   ExternalChain,
		Index:   1,
		Network: &chaincfg.MainNetParams,
	})
	require.NoError(t, err)

	fundingTx := newFundingTx(key.OutputScript, 50000)
	unsignedTx := newSpendingTx(
		fundingTx.TxHash(), 0, wire.NewTxOut(49000, key.OutputScript),
	)
	unrelatedTx := newFundingTx(key.OutputScript, 1000)

	tests := []struct {
		name string
		opts SignSingleInputTxOpts
		err  error
	}{
		{
			name: "null tx",
			opts: SignSingleInputTxOpts{
				PrevTxHex: txToHex(t, fundingTx),
				Key:       key,
			},
			err: ErrNullTransaction,
		},
		{
			name: "null prev tx",
			opts: SignSingleInputTxOpts{
				TxHex: txToHex(t, unsignedTx),
				Key:   key,
			},
			err: ErrNullTransaction,
		},
		{
			name: "null key",
			opts: SignSingleInputTxOpts{
				TxHex:     txToHex(t, unsignedTx),
				PrevTxHex: txToHex(t, fundingTx),
			},
			err: ErrNullPrivateKey,
		},
		{
			name: "prev tx does not fund the input",
			opts: SignSingleInputTxOpts{
				TxHex:     txToHex(t, unsignedTx),
				PrevTxHex: txToHex(t, unrelatedTx),
				Key:       key,
			},
			err: ErrMissingPrevOutput,
		},
		{
			name: "funding output owned by another key",
			opts: SignSingleInputTxOpts{
				TxHex:     txToHex(t, unsignedTx),
				PrevTxHex: txToHex(t, fundingTx),
				Key:       otherKey,
			},
			err: ErrInvalidWitnessUtxo,
		},
		{
			name: "unsupported sighash type",
			opts: SignSingleInputTxOpts{
				TxHex:       txToHex(t, unsignedTx),
				PrevTxHex:   txToHex(t, fundingTx),
				Key:         key,
				SighashType: txscript.SigHashType(0x04),
			},
			err: ErrInvalidSighashType,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := wallet.SignSingleInputTx(tt.opts)
			assert.Equal(t, tt.err, err)
		})
	}
}

func TestSignSingleInputTxRefusesMultipleInputs(t *testing.T) {
	wallet, err := newTestWallet()
	require.NoError(t, err)
	key, err := wallet.DeriveTaprootKeyPair(DeriveTaprootKeyPairOpts{
		Chain:   ExternalChain,
		Index:   0,
		Network: &chaincfg.MainNetParams,
	})
	require.NoError(t, err)

	fundingTx := newFundingTx(key.OutputScript, 50000)
	tx := newSpendingTx(
		fundingTx.TxHash(), 0, wire.NewTxOut(49000, key.OutputScript),
	)
	tx.AddTxIn(wire.NewTxIn(
		&wire.OutPoint{Hash: fundingTx.TxHash(), Index: 1}, nil, nil,
	))

	_, err = wallet.SignSingleInputTx(SignSingleInputTxOpts{
		TxHex:     txToHex(t, tx),
		PrevTxHex: txToHex(t, fundingTx),
		Key:       key,
	})
	assert.Error(t, err)
}

func TestSignSpellInputs(t *testing.T) {
	wallet, err := newTestWallet()
	require.NoError(t, err)
	key, err := wallet.DeriveTaprootKeyPair(DeriveTaprootKeyPairOpts{
		Chain:   ExternalChain,
		Index:   0,
		Network: &chaincfg.MainNetParams,
	})
	require.NoError(t, err)
	proverKey, err := wallet.DeriveTaprootKeyPair(DeriveTaprootKeyPairOpts{
		Chain:   ExternalChain,
		Index:   1,
		Network: &chaincfg.MainNetParams,
	})
	require.NoError(t, err)

	commitValue := int64(48000)
	commitTx := newFundingTx(key.OutputScript, commitValue)
	commitTxid := commitTx.TxHash()

	proverPrevTx := newFundingTx(proverKey.OutputScript, 800)
	proverOutpoint := wire.OutPoint{Hash: proverPrevTx.TxHash(), Index: 0}
	proverWitness := wire.TxWitness{bytes.Repeat([]byte{0xaa}, 64)}

	spellTx := wire.NewMsgTx(2)
	spellTx.AddTxIn(wire.NewTxIn(
		&wire.OutPoint{Hash: commitTxid, Index: 0}, nil, nil,
	))
	proverIn := wire.NewTxIn(&proverOutpoint, nil, nil)
	proverIn.Witness = proverWitness
	spellTx.AddTxIn(proverIn)
	spellTx.AddTxOut(wire.NewTxOut(47000, key.OutputScript))

	signedTx, err := wallet.SignSpellInputs(SignSpellInputsOpts{
		TxHex:       txToHex(t, spellTx),
		CommitTxHex: txToHex(t, commitTx),
		PrevOuts: map[wire.OutPoint]*wire.TxOut{
			proverOutpoint: proverPrevTx.TxOut[0],
		},
		Key: key,
	})
	require.NoError(t, err)

	tx, err := txFromHex(signedTx.TxHex)
	require.NoError(t, err)
	// Our input got a fresh 64-byte key-spend witness.
	require.Equal(t, 1, len(tx.TxIn[0].Witness))
	assert.Equal(t, 64, len(tx.TxIn[0].Witness[0]))
	// The prover witness passed through byte-identical.
	require.Equal(t, 1, len(tx.TxIn[1].Witness))
	assert.Equal(t, []byte(proverWitness[0]), []byte(tx.TxIn[1].Witness[0]))

	prevOutFetcher := txscript.NewMultiPrevOutFetcher(
		map[wire.OutPoint]*wire.TxOut{
			{Hash: commitTxid, Index: 0}: commitTx.TxOut[0],
			proverOutpoint:               proverPrevTx.TxOut[0],
		},
	)
	sigHashes := txscript.NewTxSigHashes(tx, prevOutFetcher)
	vm, err := txscript.NewEngine(
		key.OutputScript, tx, 0, txscript.StandardVerifyFlags,
		nil, sigHashes, commitValue, prevOutFetcher,
	)
	require.NoError(t, err)
	assert.Nil(t, vm.Execute())
}

func TestFailingSignSpellInputs(t *testing.T) {
	wallet, err := newTestWallet()
	require.NoError(t, err)
	key, err := wallet.DeriveTaprootKeyPair(DeriveTaprootKeyPairOpts{
		Chain:   ExternalChain,
		Index:   0,
		Network: &chaincfg.MainNetParams,
	})
	require.NoError(t, err)

	commitTx := newFundingTx(key.OutputScript, 48000)
	otherTx := newFundingTx(key.OutputScript, 800)

	t.Run("spell does not spend the commit", func(t *testing.T) {
		tx := newSpendingTx(
			otherTx.TxHash(), 0, wire.NewTxOut(500, key.OutputScript),
		)
		_, err := wallet.SignSpellInputs(SignSpellInputsOpts{
			TxHex:       txToHex(t, tx),
			CommitTxHex: txToHex(t, commitTx),
			PrevOuts: map[wire.OutPoint]*wire.TxOut{
				{Hash: otherTx.TxHash(), Index: 0}: otherTx.TxOut[0],
			},
			Key: key,
		})
		assert.Equal(t, ErrMissingCommitOutpoint, err)
	})

	t.Run("missing previous output", func(t *testing.T) {
		tx := newSpendingTx(
			commitTx.TxHash(), 0, wire.NewTxOut(47000, key.OutputScript),
		)
		tx.AddTxIn(wire.NewTxIn(
			&wire.OutPoint{Hash: otherTx.TxHash(), Index: 0}, nil, nil,
		))
		_, err := wallet.SignSpellInputs(SignSpellInputsOpts{
			TxHex:       txToHex(t, tx),
			CommitTxHex: txToHex(t, commitTx),
			Key:         key,
		})
		assert.Equal(t, ErrMissingPrevOutput, err)
	})

	t.Run("commit vout out of range", func(t *testing.T) {
		tx := newSpendingTx(
			commitTx.TxHash(), 4, wire.NewTxOut(47000, key.OutputScript),
		)
		_, err := wallet.SignSpellInputs(SignSpellInputsOpts{
			TxHex:       txToHex(t, tx),
			CommitTxHex: txToHex(t, commitTx),
			Key:         key,
		})
		assert.Equal(t, ErrMissingPrevOutput, err)
	})
}
