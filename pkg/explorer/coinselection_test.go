package explorer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUtxo(value uint64, confirmed bool, seed int) Utxo {
	return NewWitnessUtxo(
		fmt.Sprintf("%064x", seed+1), 0, value, []byte{0x51, 0x20},
		confirmed, 100, 1600000000,
	)
}

func TestSelectUnspents(t *testing.T) {
	utxos := []Utxo{
		newTestUtxo(50000, true, 1),
		newTestUtxo(40000, true, 2),
		newTestUtxo(2, true, 3),
	}

	selection, err := SelectUnspents(SelectUnspentsOpts{
		Utxos:        utxos,
		TargetAmount: 40000,
		SatsPerVByte: 2,
	})
	require.NoError(t, err)

	// A single 50000 sat input covers 40000 plus the fee of a 1-in 2-out
	// taproot transaction at 2 sat/vbyte.
	require.Equal(t, 1, len(selection.Utxos))
	assert.Equal(t, uint64(50000), selection.Utxos[0].Value())
	assert.Equal(t, uint64(308), selection.FeeAmount)
	assert.Equal(t, uint64(9692), selection.ChangeAmount)

	// The covering inequality always holds.
	total := uint64(0)
	for _, u := range selection.Utxos {
		total += u.Value()
	}
	assert.Equal(t, total, 40000+selection.FeeAmount+selection.ChangeAmount)
}

func TestSelectUnspentsAccumulatesInputs(t *testing.T) {
	utxos := []Utxo{
		newTestUtxo(30000, true, 1),
		newTestUtxo(20000, true, 2),
		newTestUtxo(10000, false, 3),
	}

	selection, err := SelectUnspents(SelectUnspentsOpts{
		Utxos:        utxos,
		TargetAmount: 45000,
		SatsPerVByte: 1,
	})
	require.NoError(t, err)

	// Two confirmed inputs are needed, largest first.
	require.Equal(t, 2, len(selection.Utxos))
	assert.Equal(t, uint64(30000), selection.Utxos[0].Value())
	assert.Equal(t, uint64(20000), selection.Utxos[1].Value())
	// 2-in 2-out taproot tx at 1 sat/vbyte.
	assert.Equal(t, uint64(212), selection.FeeAmount)
	assert.Equal(t, uint64(50000)-45000-212, selection.ChangeAmount)
}

func TestSelectUnspentsPrefersConfirmed(t *testing.T) {
	utxos := []Utxo{
		newTestUtxo(80000, false, 1),
		newTestUtxo(50000, true, 2),
	}

	selection, err := SelectUnspents(SelectUnspentsOpts{
		Utxos:        utxos,
		TargetAmount: 40000,
		SatsPerVByte: 1,
	})
	require.NoError(t, err)
	require.Equal(t, 1, len(selection.Utxos))
	assert.Equal(t, true, selection.Utxos[0].IsConfirmed())
	assert.Equal(t, uint64(50000), selection.Utxos[0].Value())
}

func TestSelectUnspentsSkipsProtectedValues(t *testing.T) {
	utxos := []Utxo{
		newTestUtxo(546, true, 1),
		newTestUtxo(10000, true, 2),
		newTestUtxo(777, true, 3),
		newTestUtxo(60000, true, 4),
	}

	selection, err := SelectUnspents(SelectUnspentsOpts{
		Utxos:        utxos,
		TargetAmount: 50000,
		SatsPerVByte: 1,
	})
	require.NoError(t, err)
	for _, u := range selection.Utxos {
		_, protected := ProtectedValues[u.Value()]
		assert.Equal(t, false, protected)
	}

	// Opting in makes them spendable again.
	selection, err = SelectUnspents(SelectUnspentsOpts{
		Utxos:            []Utxo{newTestUtxo(10000, true, 2)},
		TargetAmount:     5000,
		SatsPerVByte:     1,
		IncludeProtected: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, len(selection.Utxos))
}

func TestSelectUnspentsSkipsDustAndDenylist(t *testing.T) {
	denied := newTestUtxo(70000, true, 1)
	utxos := []Utxo{
		denied,
		newTestUtxo(100, true, 2),
		newTestUtxo(60000, true, 3),
	}
	denylist := map[string]struct{}{
		fmt.Sprintf("%s:%d", denied.Hash(), denied.Index()): {},
	}

	selection, err := SelectUnspents(SelectUnspentsOpts{
		Utxos:        utxos,
		TargetAmount: 50000,
		SatsPerVByte: 1,
		Denylist:     denylist,
	})
	require.NoError(t, err)
	require.Equal(t, 1, len(selection.Utxos))
	assert.Equal(t, uint64(60000), selection.Utxos[0].Value())
}

func TestSelectUnspentsInsufficientFunds(t *testing.T) {
	tests := []struct {
		name  string
		utxos []Utxo
	}{
		{
			name:  "no utxos",
			utxos: nil,
		},
		{
			name: "target not covered",
			utxos: []Utxo{
				newTestUtxo(1000, true, 1),
			},
		},
		{
			name: "covered only without fees",
			utxos: []Utxo{
				newTestUtxo(40100, true, 1),
			},
		},
		{
			name: "all candidates filtered out",
			utxos: []Utxo{
				newTestUtxo(546, true, 1),
				newTestUtxo(100, true, 2),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SelectUnspents(SelectUnspentsOpts{
				Utxos:        tt.utxos,
				TargetAmount: 40000,
				SatsPerVByte: 2,
			})
			assert.Equal(t, ErrInsufficientFunds, err)
		})
	}
}

func TestSelectSingleBest(t *testing.T) {
	utxos := []Utxo{
		newTestUtxo(546, true, 1),
		newTestUtxo(20000, false, 2),
		newTestUtxo(10000, true, 3),
	}

	best := SelectSingleBest(SelectSingleBestOpts{Utxos: utxos})
	require.NotNil(t, best)
	// Confirmed wins over the bigger unconfirmed candidate, protected 546
	// never qualifies.
	assert.Equal(t, uint64(10000), best.Value())

	assert.Nil(t, SelectSingleBest(SelectSingleBestOpts{
		Utxos: []Utxo{newTestUtxo(330, true, 1)},
	}))
}
