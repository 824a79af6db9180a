package wallet

import (
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/tyler-smith/go-bip39"
)

func generateMnemonic(entropySize int) (string, error) {
	entropy, err := bip39.NewEntropy(entropySize)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

func generateSeedFromMnemonic(mnemonic string) []byte {
	return bip39.NewSeed(mnemonic, "")
}

func isMnemonicValid(mnemonic string) bool {
	return bip39.IsMnemonicValid(mnemonic)
}

// coinTypeForNetwork maps the network to the BIP44 registered coin type: 0
// for mainnet, 1 for any test network.
func coinTypeForNetwork(net *chaincfg.Params) uint32 {
	if net.Name == chaincfg.MainNetParams.Name {
		return 0
	}
	return 1
}

func deriveChildKey(
	seed []byte, path DerivationPath, net *chaincfg.Params,
) (*hdkeychain.ExtendedKey, error) {
	hdNode, err := hdkeychain.NewMaster(seed, net)
	if err != nil {
		return nil, err
	}
	for _, step := range path {
		hdNode, err = hdNode.Derive(step)
		if err != nil {
			// hdkeychain returns ErrInvalidChild for the ~2^-128
			// case of an out of range child key. Surfacing a
			// dedicated error lets callers deterministically fall
			// back to the next index.
			if err == hdkeychain.ErrInvalidChild {
				return nil, ErrKeyDerivationFailure
			}
			return nil, err
		}
	}
	return hdNode, nil
}
