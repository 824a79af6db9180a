package explorer

import (
	"errors"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

type witnessUtxo struct {
	UHash        string
	UIndex       uint32
	UValue       uint64
	UScript      []byte
	UConfirmed   bool
	UBlockHeight uint64
	UBlockTime   uint64
}

// NewWitnessUtxo returns an explorer Utxo from its components.
func NewWitnessUtxo(
	hash string, index uint32, value uint64, script []byte,
	confirmed bool, blockHeight, blockTime uint64,
) Utxo {
	return &witnessUtxo{
		UHash:        hash,
		UIndex:       index,
		UValue:       value,
		UScript:      script,
		UConfirmed:   confirmed,
		UBlockHeight: blockHeight,
		UBlockTime:   blockTime,
	}
}

func (wu *witnessUtxo) Hash() string {
	return wu.UHash
}

func (wu *witnessUtxo) Index() uint32 {
	return wu.UIndex
}

func (wu *witnessUtxo) Value() uint64 {
	return wu.UValue
}

func (wu *witnessUtxo) Script() []byte {
	return wu.UScript
}

func (wu *witnessUtxo) IsConfirmed() bool {
	return wu.UConfirmed
}

func (wu *witnessUtxo) BlockHeight() uint64 {
	return wu.UBlockHeight
}

func (wu *witnessUtxo) BlockTime() uint64 {
	return wu.UBlockTime
}

func (wu *witnessUtxo) SetScript(script []byte) {
	wu.UScript = script
}

// Parse returns the outpoint of the utxo along with the witness utxo needed
// to spend it. The script must have been populated beforehand.
func (wu *witnessUtxo) Parse() (*wire.OutPoint, *wire.TxOut, error) {
	hash, err := chainhash.NewHashFromStr(wu.UHash)
	if err != nil {
		return nil, nil, err
	}
	if len(wu.UScript) <= 0 {
		return nil, nil, errors.New("utxo script must not be null")
	}
	outpoint := wire.NewOutPoint(hash, wu.UIndex)
	prevOut := wire.NewTxOut(int64(wu.UValue), wu.UScript)
	return outpoint, prevOut, nil
}
