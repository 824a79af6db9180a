package application

import (
	"encoding/hex"
	"encoding/json"

	"github.com/spellex-network/spellex-daemon/pkg/explorer"
	"github.com/spellex-network/spellex-daemon/pkg/wallet"
)

// AddressInfo groups the derivation details of a taproot address returned to
// callers. Private material never leaves the service.
type AddressInfo struct {
	Address        string
	DerivationPath string
	Chain          uint32
	Index          uint32
	InternalPubkey string
	OutputScript   string
}

func newAddressInfo(key *wallet.TaprootKeyMaterial) *AddressInfo {
	return &AddressInfo{
		Address:        key.Address,
		DerivationPath: key.DerivationPath,
		Chain:          key.Chain,
		Index:          key.Index,
		InternalPubkey: hex.EncodeToString(key.InternalPubkey),
		OutputScript:   hex.EncodeToString(key.OutputScript),
	}
}

// UtxoSelection is the outcome of a coin selection round.
type UtxoSelection struct {
	Utxos        []explorer.Utxo
	FeeAmount    uint64
	ChangeAmount uint64
}

// CastSpellParams is the struct given to the CastSpell method.
type CastSpellParams struct {
	// Spell is the opaque state-transition payload forwarded to the
	// proving service.
	Spell json.RawMessage
	// FundingUtxo is the funding outpoint in "txid:vout" format. It must
	// be owned by the key at Chain/Index.
	FundingUtxo string
	// Chain and Index locate the key owning the funding output.
	Chain uint32
	Index uint32
	// PrevTxs are the raw transactions funding any extra spell input the
	// prover attaches. The funding transaction is fetched internally and
	// does not need to be listed.
	PrevTxs []string
}

// SignAndBroadcastPairParams is the struct given to the
// SignAndBroadcastPair method.
type SignAndBroadcastPairParams struct {
	// TxHexA and TxHexB are the two proven raw transactions, in either
	// order.
	TxHexA string
	TxHexB string
	// FundingUtxo is the funding outpoint in "txid:vout" format.
	FundingUtxo string
	// Chain and Index locate the key owning the funding output.
	Chain uint32
	Index uint32
	// PrevTxs are the raw transactions funding any extra spell input.
	PrevTxs []string
}

// SpellResult reports the identifiers of a successfully broadcast pair.
type SpellResult struct {
	OperationID string
	CommitTxid  string
	SpellTxid   string
	TruePackage bool
}
