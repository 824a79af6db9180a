package wallet

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	secp "github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// TaprootKeyMaterial holds everything needed to receive on and spend from a
// BIP86 key-path-only taproot output.
type TaprootKeyMaterial struct {
	Index             uint32
	Chain             uint32
	DerivationPath    string
	PrivateKey        *btcec.PrivateKey
	TweakedPrivateKey *btcec.PrivateKey
	InternalPubkey    []byte
	PublicKey         []byte
	Address           string
	OutputScript      []byte
}

// DeriveTaprootKeyPairOpts is the struct given to the DeriveTaprootKeyPair
// method
type DeriveTaprootKeyPairOpts struct {
	Chain   uint32
	Index   uint32
	Network *chaincfg.Params
}

func (o DeriveTaprootKeyPairOpts) validate() error {
	if o.Chain != ExternalChain && o.Chain != InternalChain {
		return ErrInvalidDerivationPathChain
	}
	if o.Index >= hardenedKeyStart {
		return ErrOutOfRangeDerivationPathIndex
	}
	if o.Network == nil {
		return ErrNullNetwork
	}
	return nil
}

// DeriveTaprootKeyPair derives the BIP86 key material for the given chain and
// address index. In the negligible but specified case the HD child key at the
// requested index is invalid, the next index is tried deterministically and
// the index actually used is reported in the returned material.
func (w *Wallet) DeriveTaprootKeyPair(opts DeriveTaprootKeyPairOpts) (
	*TaprootKeyMaterial, error,
) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := w.validate(); err != nil {
		return nil, err
	}

	coinType := coinTypeForNetwork(opts.Network)
	index := opts.Index
	for {
		path := Bip86DerivationPath(coinType, opts.Chain, index)
		hdNode, err := deriveChildKey(w.seed, path, opts.Network)
		if err == ErrKeyDerivationFailure {
			if index+1 >= hardenedKeyStart {
				return nil, ErrOutOfRangeDerivationPathIndex
			}
			index++
			continue
		}
		if err != nil {
			return nil, err
		}

		prvkey, err := hdNode.ECPrivKey()
		if err != nil {
			return nil, err
		}

		return newTaprootKeyMaterial(
			prvkey, opts.Chain, index, path, opts.Network,
		)
	}
}

func newTaprootKeyMaterial(
	prvkey *btcec.PrivateKey, chain, index uint32,
	path DerivationPath, net *chaincfg.Params,
) (*TaprootKeyMaterial, error) {
	pubkey := prvkey.PubKey()
	internalPubkey := schnorr.SerializePubKey(pubkey)

	tweakedPrvkey := TweakTaprootPrivateKey(prvkey)

	outputKey := txscript.ComputeTaprootKeyNoScript(pubkey)
	script, err := P2TRScript(P2TRScriptOpts{
		XOnlyPubkey: schnorr.SerializePubKey(outputKey),
	})
	if err != nil {
		return nil, err
	}
	addr, err := P2TRAddress(P2TRAddressOpts{
		XOnlyPubkey: schnorr.SerializePubKey(outputKey),
		Network:     net,
	})
	if err != nil {
		return nil, err
	}

	return &TaprootKeyMaterial{
		Index:             index,
		Chain:             chain,
		DerivationPath:    path.String(),
		PrivateKey:        prvkey,
		TweakedPrivateKey: tweakedPrvkey,
		InternalPubkey:    internalPubkey,
		PublicKey:         pubkey.SerializeCompressed(),
		Address:           addr,
		OutputScript:      script,
	}, nil
}

// TweakTaprootPrivateKey applies the BIP341 key-path-only tweak to the given
// private key: t = taggedHash("TapTweak", xOnly(P)), with the private scalar
// negated first whenever P has an odd Y coordinate, and the tweaked key being
// (d ± t) mod n. The input key is never mutated.
func TweakTaprootPrivateKey(prvkey *btcec.PrivateKey) *btcec.PrivateKey {
	// Operate on a copy of the scalar so negation never leaks back into
	// the caller's key.
	privScalar := prvkey.Key

	pubkeyBytes := prvkey.PubKey().SerializeCompressed()
	if pubkeyBytes[0] == secp.PubKeyFormatCompressedOdd {
		privScalar.Negate()
	}

	tapTweakHash := chainhash.TaggedHash(
		chainhash.TagTapTweak, pubkeyBytes[1:],
	)

	var tweakScalar btcec.ModNScalar
	tweakScalar.SetBytes((*[32]byte)(tapTweakHash))

	return btcec.PrivKeyFromScalar(privScalar.Add(&tweakScalar))
}

// P2TRScriptOpts is the struct given to the P2TRScript method
type P2TRScriptOpts struct {
	XOnlyPubkey []byte
}

func (o P2TRScriptOpts) validate() error {
	if len(o.XOnlyPubkey) != schnorr.PubKeyBytesLen {
		return ErrNullPubkey
	}
	return nil
}

// P2TRScript returns the witness-v1 output script (OP_1 PUSH32 <xonly>) for
// the given x-only output key.
func P2TRScript(opts P2TRScriptOpts) ([]byte, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_1).
		AddData(opts.XOnlyPubkey).
		Script()
}

// P2TRAddressOpts is the struct given to the P2TRAddress method
type P2TRAddressOpts struct {
	XOnlyPubkey []byte
	Network     *chaincfg.Params
}

func (o P2TRAddressOpts) validate() error {
	if len(o.XOnlyPubkey) != schnorr.PubKeyBytesLen {
		return ErrNullPubkey
	}
	if o.Network == nil {
		return ErrNullNetwork
	}
	return nil
}

// P2TRAddress returns the bech32m encoded address for the given x-only output
// key, using the network's human readable prefix.
func P2TRAddress(opts P2TRAddressOpts) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}

	addr, err := btcutil.NewAddressTaproot(opts.XOnlyPubkey, opts.Network)
	if err != nil {
		return "", err
	}
	return addr.EncodeAddress(), nil
}

// EncodeWIFOpts is the struct given to the EncodeWIF method
type EncodeWIFOpts struct {
	PrivateKey *btcec.PrivateKey
	Network    *chaincfg.Params
}

func (o EncodeWIFOpts) validate() error {
	if o.PrivateKey == nil {
		return ErrNullPrivateKey
	}
	if o.Network == nil {
		return ErrNullNetwork
	}
	return nil
}

// EncodeWIF returns the base58check wallet import format of the private key
// with the compression flag set.
func EncodeWIF(opts EncodeWIFOpts) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}

	wif, err := btcutil.NewWIF(opts.PrivateKey, opts.Network, true)
	if err != nil {
		return "", err
	}
	return wif.String(), nil
}
