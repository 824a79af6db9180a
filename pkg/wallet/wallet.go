package wallet

import (
	"errors"
)

var (
	// ErrNullNetwork ...
	ErrNullNetwork = errors.New("network params are null")
	// ErrNullMnemonic ...
	ErrNullMnemonic = errors.New("mnemonic is null")
	// ErrNullSeed ...
	ErrNullSeed = errors.New("seed is null")
	// ErrNullMasterKey ...
	ErrNullMasterKey = errors.New("master key is null")
	// ErrNullPrivateKey ...
	ErrNullPrivateKey = errors.New("private key must not be null")
	// ErrNullPubkey ...
	ErrNullPubkey = errors.New("public key must not be null")
	// ErrNullOutputScript ...
	ErrNullOutputScript = errors.New("output script must not be null")
	// ErrNullDerivationPath ...
	ErrNullDerivationPath = errors.New("derivation path must not be null")
	// ErrNullTransaction ...
	ErrNullTransaction = errors.New("transaction must not be null")
	// ErrNullWitnessUtxo ...
	ErrNullWitnessUtxo = errors.New("input witness utxo must not be null")

	// ErrInvalidMnemonic ...
	ErrInvalidMnemonic = errors.New("mnemonic is invalid")
	// ErrInvalidEntropySize ...
	ErrInvalidEntropySize = errors.New(
		"entropy size must be a multiple of 32 in the range [128,256]",
	)
	// ErrInvalidDerivationPath ...
	ErrInvalidDerivationPath = errors.New("invalid derivation path")
	// ErrInvalidDerivationPathLength ...
	ErrInvalidDerivationPathLength = errors.New(
		"derivation path must be an absolute BIP86 path in the form " +
			"\"m/86'/{0|1}'/0'/{0|1}/{index}\"",
	)
	// ErrInvalidDerivationPathPurpose ...
	ErrInvalidDerivationPathPurpose = errors.New(
		"derivation path's purpose (first elem) must be 86'",
	)
	// ErrInvalidDerivationPathCoinType ...
	ErrInvalidDerivationPathCoinType = errors.New(
		"derivation path's coin type (second elem) must be 0' or 1'",
	)
	// ErrInvalidDerivationPathAccount ...
	ErrInvalidDerivationPathAccount = errors.New(
		"derivation path's account (third elem) must be 0'",
	)
	// ErrInvalidDerivationPathChain ...
	ErrInvalidDerivationPathChain = errors.New(
		"derivation path's chain (fourth elem) must be 0 or 1",
	)
	// ErrOutOfRangeDerivationPathIndex ...
	ErrOutOfRangeDerivationPathIndex = errors.New(
		"derivation path's address index is out of the 31-bit range",
	)
	// ErrInvalidSighashType ...
	ErrInvalidSighashType = errors.New("sighash type is not supported for taproot inputs")

	// ErrKeyDerivationFailure is returned in the astronomically unlikely
	// case the derived child key is invalid per BIP32.
	ErrKeyDerivationFailure = errors.New("derived child key is invalid")
	// ErrMissingPrevOutput ...
	ErrMissingPrevOutput = errors.New(
		"previous transaction does not contain the referenced output",
	)
	// ErrMissingCommitOutpoint ...
	ErrMissingCommitOutpoint = errors.New(
		"transaction does not spend the commit transaction output",
	)
	// ErrInvalidWitnessUtxo ...
	ErrInvalidWitnessUtxo = errors.New(
		"witness utxo script does not match the derived taproot output key",
	)
	// ErrSighashFailure ...
	ErrSighashFailure = errors.New("failed to compute taproot sighash")
	// ErrSignatureFailure ...
	ErrSignatureFailure = errors.New("failed to produce schnorr signature")
)

// Wallet data structure allows to create a new wallet from seed/mnemonic and
// derive the BIP86 taproot key pairs used to receive funds and sign the
// commit/spell transaction pairs.
type Wallet struct {
	mnemonic string
	seed     []byte
}

// NewWalletOpts is the struct given to the NewWallet method
type NewWalletOpts struct {
	EntropySize int
}

func (o NewWalletOpts) validate() error {
	if o.EntropySize == 0 {
		return nil
	}
	if o.EntropySize < 128 || o.EntropySize > 256 || o.EntropySize%32 != 0 {
		return ErrInvalidEntropySize
	}
	return nil
}

// NewWallet creates a new wallet with a freshly generated mnemonic. The
// default entropy size of 128 bits yields a 12-word mnemonic.
func NewWallet(opts NewWalletOpts) (*Wallet, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.EntropySize == 0 {
		opts.EntropySize = 128
	}

	mnemonic, err := generateMnemonic(opts.EntropySize)
	if err != nil {
		return nil, err
	}

	return &Wallet{
		mnemonic: mnemonic,
		seed:     generateSeedFromMnemonic(mnemonic),
	}, nil
}

// NewWalletFromMnemonicOpts is the struct given to the NewWalletFromMnemonic
// method
type NewWalletFromMnemonicOpts struct {
	Mnemonic string
}

func (o NewWalletFromMnemonicOpts) validate() error {
	if len(o.Mnemonic) <= 0 {
		return ErrNullMnemonic
	}
	if !isMnemonicValid(o.Mnemonic) {
		return ErrInvalidMnemonic
	}
	return nil
}

// NewWalletFromMnemonic restores a wallet from the provided mnemonic. The
// mnemonic checksum is verified before deriving anything from it.
func NewWalletFromMnemonic(opts NewWalletFromMnemonicOpts) (*Wallet, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	return &Wallet{
		mnemonic: opts.Mnemonic,
		seed:     generateSeedFromMnemonic(opts.Mnemonic),
	}, nil
}

// Mnemonic returns the wallet mnemonic
func (w *Wallet) Mnemonic() (string, error) {
	if err := w.validate(); err != nil {
		return "", err
	}
	return w.mnemonic, nil
}

func (w *Wallet) validate() error {
	if len(w.mnemonic) <= 0 {
		return ErrNullMnemonic
	}
	if !isMnemonicValid(w.mnemonic) {
		return ErrInvalidMnemonic
	}
	if len(w.seed) <= 0 {
		return ErrNullSeed
	}
	return nil
}
