package wallet

import "math"

const (
	// txBaseVsize accounts for version, segwit marker and flag, input and
	// output counts and locktime, in virtual bytes.
	txBaseVsize = 10.5
	// txInVsize is the virtual size of a taproot key-path input: outpoint,
	// empty script sig, sequence and the discounted 64-byte signature
	// witness.
	txInVsize = 57.5
	// txOutVsize is the virtual size of a taproot output: value plus the
	// 34-byte witness-v1 script.
	txOutVsize = 43
)

// EstimateTxVsize estimates the virtual size of a transaction composed
// entirely of taproot key-path inputs and taproot outputs.
func EstimateTxVsize(numInputs, numOutputs int) uint64 {
	vsize := txBaseVsize +
		float64(numInputs)*txInVsize +
		float64(numOutputs)*txOutVsize
	return uint64(math.Ceil(vsize))
}

// EstimateFeeAmount returns the fee in satoshis to pay for a transaction of
// numInputs taproot inputs and numOutputs taproot outputs at the given rate
// expressed in sat/vbyte.
func EstimateFeeAmount(numInputs, numOutputs int, satsPerVByte float64) uint64 {
	vsize := EstimateTxVsize(numInputs, numOutputs)
	return uint64(math.Ceil(float64(vsize) * satsPerVByte))
}
