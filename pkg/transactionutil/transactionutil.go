// Package transactionutil gathers helpers to decode, encode and inspect raw
// bitcoin transactions. Parsing is deliberately permissive: output scripts
// produced by the proving service can look opaque to a generic parser and
// must round-trip byte-exactly, never be rejected or normalized.
package transactionutil

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

var (
	// ErrNullTransaction ...
	ErrNullTransaction = errors.New("transaction must not be null")
	// ErrInvalidTransactionHex ...
	ErrInvalidTransactionHex = errors.New("transaction must be in hex format")
	// ErrOutputNotFound ...
	ErrOutputNotFound = errors.New("transaction output index out of range")
)

// NewTxFromHex decodes a raw transaction in hex format.
func NewTxFromHex(txHex string) (*wire.MsgTx, error) {
	buf, err := hex.DecodeString(txHex)
	if err != nil {
		return nil, ErrInvalidTransactionHex
	}
	return NewTxFromBytes(buf)
}

// NewTxFromBytes decodes a raw serialized transaction.
func NewTxFromBytes(txBytes []byte) (*wire.MsgTx, error) {
	if len(txBytes) <= 0 {
		return nil, ErrNullTransaction
	}
	tx := &wire.MsgTx{}
	if err := tx.Deserialize(bytes.NewReader(txBytes)); err != nil {
		return nil, fmt.Errorf("invalid transaction format: %v", err)
	}
	return tx, nil
}

// TxToHex returns the full serialization of the transaction, witness
// included, in hex format.
func TxToHex(tx *wire.MsgTx) (string, error) {
	if tx == nil {
		return "", ErrNullTransaction
	}
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf.Bytes()), nil
}

// GetOutput returns the script and amount of the transaction output at the
// given index.
func GetOutput(tx *wire.MsgTx, vout uint32) (*wire.TxOut, error) {
	if tx == nil {
		return nil, ErrNullTransaction
	}
	if int(vout) >= len(tx.TxOut) {
		return nil, ErrOutputNotFound
	}
	return tx.TxOut[vout], nil
}

// ComputeTxid returns the id of the given raw transaction, ie. the double
// SHA256 of its non-witness serialization in byte-reversed display order.
func ComputeTxid(txBytes []byte) (string, error) {
	tx, err := NewTxFromBytes(txBytes)
	if err != nil {
		return "", err
	}
	txid := tx.TxHash()
	return txid.String(), nil
}

// ParseOutpoint parses an outpoint in "txid:vout" format.
func ParseOutpoint(outpoint string) (*wire.OutPoint, error) {
	parts := strings.Split(outpoint, ":")
	if len(parts) != 2 {
		return nil, fmt.Errorf(
			"outpoint must be in txid:vout format, got '%s'", outpoint,
		)
	}
	hash, err := chainhash.NewHashFromStr(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid outpoint txid: %v", err)
	}
	vout, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid outpoint index: %v", err)
	}
	return wire.NewOutPoint(hash, uint32(vout)), nil
}

// TxRef references a raw transaction handed over by the proving service,
// either as a bare hex string or tagged with the chain it belongs to. The
// two shapes are unwrapped here, at the boundary, so the rest of the engine
// only ever deals with raw hex.
type TxRef struct {
	// Chain is the optional chain tag, empty for bare refs.
	Chain string
	// Hex is the raw transaction in hex format.
	Hex string
}

// UnmarshalJSON accepts both a plain hex string and a tagged
// {"chain": ..., "hex": ...} object.
func (r *TxRef) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		r.Chain = ""
		r.Hex = raw
		return nil
	}

	var tagged struct {
		Chain string `json:"chain"`
		Hex   string `json:"hex"`
	}
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("invalid tx reference: %v", err)
	}
	if len(tagged.Hex) <= 0 {
		return ErrNullTransaction
	}
	r.Chain = tagged.Chain
	r.Hex = tagged.Hex
	return nil
}

// Tx decodes the referenced transaction.
func (r TxRef) Tx() (*wire.MsgTx, error) {
	return NewTxFromHex(r.Hex)
}

// Txid returns the id of the referenced transaction.
func (r TxRef) Txid() (string, error) {
	tx, err := r.Tx()
	if err != nil {
		return "", err
	}
	hash := tx.TxHash()
	return hash.String(), nil
}
