package wallet

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// SignedTransaction is the result of a signing operation: the raw serialized
// transaction along with its id.
type SignedTransaction struct {
	TxHex string
	Txid  string
}

// SignSingleInputTxOpts is the struct given to the SignSingleInputTx method
type SignSingleInputTxOpts struct {
	// TxHex is the unsigned transaction spending exactly one known
	// funding output, ie. the commit transaction of a pair.
	TxHex string
	// PrevTxHex is the raw transaction funding the input to sign.
	PrevTxHex string
	// Key is the taproot key material owning the funding output.
	Key *TaprootKeyMaterial
	// SighashType is optional and defaults to SIGHASH_DEFAULT.
	SighashType txscript.SigHashType
}

func (o SignSingleInputTxOpts) validate() error {
	if len(o.TxHex) <= 0 {
		return ErrNullTransaction
	}
	tx, err := txFromHex(o.TxHex)
	if err != nil {
		return err
	}
	if len(tx.TxIn) != 1 {
		return fmt.Errorf(
			"single input tx must have exactly 1 input, got %d",
			len(tx.TxIn),
		)
	}
	if len(o.PrevTxHex) <= 0 {
		return ErrNullTransaction
	}
	if o.Key == nil || o.Key.TweakedPrivateKey == nil {
		return ErrNullPrivateKey
	}
	if len(o.Key.OutputScript) <= 0 {
		return ErrNullOutputScript
	}
	return checkSighashType(o.SighashType)
}

// SignSingleInputTx signs the single input of the provided transaction as a
// taproot key-path spend of the funding output and finalizes its witness.
// All outputs are preserved verbatim.
func (w *Wallet) SignSingleInputTx(opts SignSingleInputTxOpts) (
	*SignedTransaction, error,
) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := w.validate(); err != nil {
		return nil, err
	}

	tx, _ := txFromHex(opts.TxHex)
	prevTx, err := txFromHex(opts.PrevTxHex)
	if err != nil {
		return nil, err
	}

	outpoint := tx.TxIn[0].PreviousOutPoint
	if prevTx.TxHash() != outpoint.Hash ||
		int(outpoint.Index) >= len(prevTx.TxOut) {
		return nil, ErrMissingPrevOutput
	}
	prevOut := prevTx.TxOut[outpoint.Index]

	if !bytes.Equal(prevOut.PkScript, opts.Key.OutputScript) {
		return nil, ErrInvalidWitnessUtxo
	}

	prevOutFetcher := txscript.NewCannedPrevOutputFetcher(
		prevOut.PkScript, prevOut.Value,
	)
	if err := w.signTaprootKeySpend(
		tx, 0, prevOutFetcher, opts.Key, opts.SighashType,
	); err != nil {
		return nil, err
	}

	return newSignedTransaction(tx)
}

// SignSpellInputsOpts is the struct given to the SignSpellInputs method
type SignSpellInputsOpts struct {
	// TxHex is the spell transaction as returned by the prover: unsigned
	// except for any input the prover already witnessed.
	TxHex string
	// CommitTxHex is the signed commit transaction whose output the spell
	// must spend.
	CommitTxHex string
	// PrevOuts maps the previous outputs of every spell input that does
	// not spend the commit transaction. Outputs of the commit transaction
	// itself are resolved internally.
	PrevOuts map[wire.OutPoint]*wire.TxOut
	// Key is the taproot key material owning the commit output (and the
	// funding output, when the spell spends it directly).
	Key *TaprootKeyMaterial
	// SighashType is optional and defaults to SIGHASH_DEFAULT.
	SighashType txscript.SigHashType
}

func (o SignSpellInputsOpts) validate() error {
	if len(o.TxHex) <= 0 || len(o.CommitTxHex) <= 0 {
		return ErrNullTransaction
	}
	if _, err := txFromHex(o.TxHex); err != nil {
		return err
	}
	if _, err := txFromHex(o.CommitTxHex); err != nil {
		return err
	}
	if o.Key == nil || o.Key.TweakedPrivateKey == nil {
		return ErrNullPrivateKey
	}
	if len(o.Key.OutputScript) <= 0 {
		return ErrNullOutputScript
	}
	return checkSighashType(o.SighashType)
}

// SignSpellInputs signs, in place, the spell transaction inputs owned by the
// provided key, ie. the input spending the commit output and, in the packaged
// case, the one spending the funding output directly. Witnesses already
// attached by the prover pass through byte-identical: the transaction is
// parsed once and only the witness field of owned inputs is ever touched.
func (w *Wallet) SignSpellInputs(opts SignSpellInputsOpts) (
	*SignedTransaction, error,
) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := w.validate(); err != nil {
		return nil, err
	}

	tx, _ := txFromHex(opts.TxHex)
	commitTx, _ := txFromHex(opts.CommitTxHex)
	commitTxid := commitTx.TxHash()

	// Collect the previous output of every input: the BIP341 sighash
	// commits to all input amounts and scripts, the prover owned ones
	// included.
	prevOutFetcher := txscript.NewMultiPrevOutFetcher(nil)
	spendsCommit := false
	for _, in := range tx.TxIn {
		outpoint := in.PreviousOutPoint
		if outpoint.Hash == commitTxid {
			if int(outpoint.Index) >= len(commitTx.TxOut) {
				return nil, ErrMissingPrevOutput
			}
			prevOutFetcher.AddPrevOut(
				outpoint, commitTx.TxOut[outpoint.Index],
			)
			spendsCommit = true
			continue
		}
		prevOut, ok := opts.PrevOuts[outpoint]
		if !ok {
			return nil, ErrMissingPrevOutput
		}
		prevOutFetcher.AddPrevOut(outpoint, prevOut)
	}
	if !spendsCommit {
		return nil, ErrMissingCommitOutpoint
	}

	for i, in := range tx.TxIn {
		if len(in.Witness) > 0 {
			// Already witnessed by the prover, pass through.
			continue
		}
		prevOut := prevOutFetcher.FetchPrevOutput(in.PreviousOutPoint)
		if !bytes.Equal(prevOut.PkScript, opts.Key.OutputScript) {
			// Not ours to sign.
			continue
		}
		if err := w.signTaprootKeySpend(
			tx, i, prevOutFetcher, opts.Key, opts.SighashType,
		); err != nil {
			return nil, err
		}
	}

	return newSignedTransaction(tx)
}

func (w *Wallet) signTaprootKeySpend(
	tx *wire.MsgTx, inIndex int, prevOutFetcher txscript.PrevOutputFetcher,
	key *TaprootKeyMaterial, sighashType txscript.SigHashType,
) error {
	sigHashes := txscript.NewTxSigHashes(tx, prevOutFetcher)
	sigHash, err := txscript.CalcTaprootSignatureHash(
		sigHashes, sighashType, tx, inIndex, prevOutFetcher,
	)
	if err != nil {
		return ErrSighashFailure
	}

	signature, err := schnorr.Sign(key.TweakedPrivateKey, sigHash)
	if err != nil {
		return ErrSignatureFailure
	}

	outputKey, err := schnorr.ParsePubKey(key.OutputScript[2:])
	if err != nil {
		return ErrInvalidWitnessUtxo
	}
	if !signature.Verify(sigHash, outputKey) {
		return ErrSignatureFailure
	}

	sig := signature.Serialize()
	if sighashType != txscript.SigHashDefault {
		sig = append(sig, byte(sighashType))
	}
	tx.TxIn[inIndex].Witness = wire.TxWitness{sig}

	return nil
}

func checkSighashType(hashType txscript.SigHashType) error {
	switch hashType {
	case txscript.SigHashDefault, txscript.SigHashAll,
		txscript.SigHashNone, txscript.SigHashSingle,
		txscript.SigHashAll | txscript.SigHashAnyOneCanPay,
		txscript.SigHashNone | txscript.SigHashAnyOneCanPay,
		txscript.SigHashSingle | txscript.SigHashAnyOneCanPay:
		return nil
	default:
		return ErrInvalidSighashType
	}
}

func txFromHex(txHex string) (*wire.MsgTx, error) {
	buf, err := hex.DecodeString(txHex)
	if err != nil {
		return nil, err
	}
	tx := &wire.MsgTx{}
	if err := tx.Deserialize(bytes.NewReader(buf)); err != nil {
		return nil, err
	}
	return tx, nil
}

func newSignedTransaction(tx *wire.MsgTx) (*SignedTransaction, error) {
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return nil, err
	}
	txid := tx.TxHash()
	return &SignedTransaction{
		TxHex: hex.EncodeToString(buf.Bytes()),
		Txid:  txid.String(),
	}, nil
}
