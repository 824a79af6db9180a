package wallet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// DerivationPath is the internal representation of a hierarchical
// deterministic wallet path.
type DerivationPath []uint32

const (
	// hardenedKeyStart is the BIP32 hardened derivation offset.
	hardenedKeyStart = hdkeychain.HardenedKeyStart

	// Bip86Purpose is the BIP86 purpose index (86').
	Bip86Purpose = hdkeychain.HardenedKeyStart + 86

	// ExternalChain is the branch for receive addresses.
	ExternalChain = uint32(0)
	// InternalChain is the branch for change addresses.
	InternalChain = uint32(1)
)

// ParseDerivationPath converts a derivation path string to the internal
// binary representation. Only absolute BIP86 single-key taproot paths in the
// form m/86'/{0|1}'/0'/{0|1}/{index} are accepted: anything else is refused
// so keys can never silently be derived outside the taproot subtree.
func ParseDerivationPath(strPath string) (DerivationPath, error) {
	if len(strPath) <= 0 {
		return nil, ErrNullDerivationPath
	}

	elems := strings.Split(strPath, "/")
	if containsEmptyString(elems) {
		return nil, ErrInvalidDerivationPath
	}
	if strings.TrimSpace(elems[0]) != "m" {
		return nil, ErrInvalidDerivationPath
	}
	elems = elems[1:]
	if len(elems) != 5 {
		return nil, ErrInvalidDerivationPathLength
	}

	path := make(DerivationPath, 0, len(elems))
	for _, elem := range elems {
		elem = strings.TrimSpace(elem)
		var value uint32

		if strings.HasSuffix(elem, "'") {
			value = hdkeychain.HardenedKeyStart
			elem = strings.TrimSpace(strings.TrimSuffix(elem, "'"))
		}

		idx, err := strconv.ParseUint(elem, 10, 32)
		if err != nil {
			return nil, ErrInvalidDerivationPath
		}
		if idx >= hdkeychain.HardenedKeyStart {
			return nil, ErrOutOfRangeDerivationPathIndex
		}
		value += uint32(idx)

		path = append(path, value)
	}

	if err := checkDerivationPath(path); err != nil {
		return nil, err
	}

	return path, nil
}

// String converts a binary derivation path to its canonical representation
func (path DerivationPath) String() string {
	if len(path) <= 0 {
		return ""
	}

	result := "m"
	for _, component := range path {
		var hardened bool
		if component >= hdkeychain.HardenedKeyStart {
			component -= hdkeychain.HardenedKeyStart
			hardened = true
		}
		result = fmt.Sprintf("%s/%d", result, component)
		if hardened {
			result += "'"
		}
	}
	return result
}

// Bip86DerivationPath returns the BIP86 path for the given coin type, chain
// and address index.
func Bip86DerivationPath(coinType, chain, index uint32) DerivationPath {
	return DerivationPath{
		Bip86Purpose,
		hdkeychain.HardenedKeyStart + coinType,
		hdkeychain.HardenedKeyStart,
		chain,
		index,
	}
}

func checkDerivationPath(path DerivationPath) error {
	if len(path) != 5 {
		return ErrInvalidDerivationPathLength
	}
	if path[0] != Bip86Purpose {
		return ErrInvalidDerivationPathPurpose
	}
	coinType := path[1]
	if coinType != hdkeychain.HardenedKeyStart &&
		coinType != hdkeychain.HardenedKeyStart+1 {
		return ErrInvalidDerivationPathCoinType
	}
	if path[2] != hdkeychain.HardenedKeyStart {
		return ErrInvalidDerivationPathAccount
	}
	if path[3] != ExternalChain && path[3] != InternalChain {
		return ErrInvalidDerivationPathChain
	}
	if path[4] >= hdkeychain.HardenedKeyStart {
		return ErrOutOfRangeDerivationPathIndex
	}
	return nil
}

func containsEmptyString(composedPath []string) bool {
	for _, s := range composedPath {
		if s == "" {
			return true
		}
	}
	return false
}
