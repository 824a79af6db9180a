package esplora

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spellex-network/spellex-daemon/pkg/explorer"
)

func newTestTxHex(t *testing.T, script []byte, value int64) (string, string) {
	t.Helper()
	tx := wire.NewMsgTx(2)
	tx.AddTxIn(wire.NewTxIn(
		&wire.OutPoint{Index: wire.MaxPrevOutIndex}, nil, nil,
	))
	tx.AddTxOut(wire.NewTxOut(value, script))

	var buf bytes.Buffer
	require.NoError(t, tx.Serialize(&buf))
	txid := tx.TxHash()
	return hex.EncodeToString(buf.Bytes()), txid.String()
}

func newTestService(t *testing.T, handler http.Handler) explorer.Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := NewService(NewServiceOpts{
		APIURL:            srv.URL,
		PackageRelayURL:   srv.URL,
		RequestsPerSecond: 1000,
	})
	require.NoError(t, err)
	return svc
}

func tipHeightHandler(mux *http.ServeMux) {
	mux.HandleFunc("/blocks/tip/height", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "814000")
	})
}

func TestNewServiceHealthCheck(t *testing.T) {
	mux := http.NewServeMux()
	tipHeightHandler(mux)
	svc := newTestService(t, mux)

	height, err := svc.GetBlockHeight()
	require.NoError(t, err)
	assert.Equal(t, uint64(814000), height)
}

func TestFailingNewService(t *testing.T) {
	_, err := NewService(NewServiceOpts{})
	assert.Error(t, err)

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	_, err = NewService(NewServiceOpts{
		APIURL:            srv.URL,
		RequestsPerSecond: 1000,
	})
	assert.Error(t, err)
}

func TestGetUnspents(t *testing.T) {
	script := []byte{0x51, 0x20}
	script = append(script, bytes.Repeat([]byte{0x03}, 32)...)
	txHex, txid := newTestTxHex(t, script, 21000)

	mux := http.NewServeMux()
	tipHeightHandler(mux)
	mux.HandleFunc("/address/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `[{
			"txid": "%s", "vout": 0, "value": 21000,
			"status": {"confirmed": true, "block_height": 813000, "block_time": 1700000000}
		}]`, txid)
	})
	mux.HandleFunc("/tx/"+txid+"/hex", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, txHex)
	})
	svc := newTestService(t, mux)

	unspents, err := svc.GetUnspents("tb1ptest")
	require.NoError(t, err)
	require.Equal(t, 1, len(unspents))

	utxo := unspents[0]
	assert.Equal(t, txid, utxo.Hash())
	assert.Equal(t, uint32(0), utxo.Index())
	assert.Equal(t, uint64(21000), utxo.Value())
	assert.Equal(t, true, utxo.IsConfirmed())
	assert.Equal(t, uint64(813000), utxo.BlockHeight())
	// The script is resolved from the funding transaction.
	assert.Equal(t, script, utxo.Script())

	outpoint, prevOut, err := utxo.Parse()
	require.NoError(t, err)
	assert.Equal(t, txid, outpoint.Hash.String())
	assert.Equal(t, int64(21000), prevOut.Value)
}

func TestGetUnspentsForAddresses(t *testing.T) {
	script := []byte{0x51, 0x20}
	script = append(script, bytes.Repeat([]byte{0x04}, 32)...)
	txHex, txid := newTestTxHex(t, script, 1500)

	mux := http.NewServeMux()
	tipHeightHandler(mux)
	mux.HandleFunc("/address/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `[{
			"txid": "%s", "vout": 0, "value": 1500,
			"status": {"confirmed": false}
		}]`, txid)
	})
	mux.HandleFunc("/tx/"+txid+"/hex", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, txHex)
	})
	svc := newTestService(t, mux)

	unspents, err := svc.GetUnspentsForAddresses(
		[]string{"tb1pfirst", "tb1psecond", "tb1pthird"},
	)
	require.NoError(t, err)
	assert.Equal(t, 3, len(unspents))
}

func TestGetTransactionStatus(t *testing.T) {
	mux := http.NewServeMux()
	tipHeightHandler(mux)
	mux.HandleFunc("/tx/aa/status", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"confirmed": true, "block_height": 813999, "block_time": 1700000001}`)
	})
	mux.HandleFunc("/tx/bb/status", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"confirmed": false}`)
	})
	svc := newTestService(t, mux)

	status, err := svc.GetTransactionStatus("aa")
	require.NoError(t, err)
	assert.Equal(t, true, status.Confirmed)
	assert.Equal(t, uint64(813999), status.BlockHeight)

	confirmed, err := svc.IsTransactionConfirmed("bb")
	require.NoError(t, err)
	assert.Equal(t, false, confirmed)
}

func TestBroadcastTransaction(t *testing.T) {
	mux := http.NewServeMux()
	tipHeightHandler(mux)
	mux.HandleFunc("/tx", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		fmt.Fprint(w, "cafebabe\n")
	})
	svc := newTestService(t, mux)

	txid, err := svc.BroadcastTransaction("0200")
	require.NoError(t, err)
	assert.Equal(t, "cafebabe", txid)
}

func TestFailingBroadcastTransaction(t *testing.T) {
	mux := http.NewServeMux()
	tipHeightHandler(mux)
	mux.HandleFunc("/tx", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `sendrawtransaction RPC error: bad-txns-inputs-missingorspent`)
	})
	svc := newTestService(t, mux)

	_, err := svc.BroadcastTransaction("0200")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad-txns-inputs-missingorspent")
}

func TestGetFeeRatesCaching(t *testing.T) {
	var calls int32
	mux := http.NewServeMux()
	tipHeightHandler(mux)
	mux.HandleFunc("/fee-estimates", func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, `{"1": 40.1, "3": 20.5, "6": 10.2, "144": 2.0, "1008": 1.0}`)
	})
	svc := newTestService(t, mux)

	rates, err := svc.GetFeeRates()
	require.NoError(t, err)
	assert.Equal(t, 40.1, rates.Fastest)
	assert.Equal(t, 20.5, rates.HalfHour)
	assert.Equal(t, 10.2, rates.Hour)
	assert.Equal(t, 2.0, rates.Economy)
	assert.Equal(t, 1.0, rates.Minimum)

	// Second call within the TTL is served from the cache.
	_, err = svc.GetFeeRates()
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetFeeRatesFallback(t *testing.T) {
	var calls int32
	mux := http.NewServeMux()
	tipHeightHandler(mux)
	mux.HandleFunc("/fee-estimates", func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	svc := newTestService(t, mux)

	rates, err := svc.GetFeeRates()
	require.NoError(t, err)
	assert.Equal(t, DefaultFallbackFeeRate, rates.Fastest)
	assert.Equal(t, DefaultFallbackFeeRate, rates.HalfHour)

	// The fallback is not cached, the endpoint is retried.
	_, err = svc.GetFeeRates()
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSubmitPackage(t *testing.T) {
	mux := http.NewServeMux()
	tipHeightHandler(mux)
	mux.HandleFunc("/txs/package", func(w http.ResponseWriter, r *http.Request) {
		var txs []string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&txs))
		require.Equal(t, 2, len(txs))
		fmt.Fprint(w, `{"txids": ["commitid", "spellid"]}`)
	})
	svc := newTestService(t, mux)

	txids, err := svc.SubmitPackage([]string{"0200aa", "0200bb"})
	require.NoError(t, err)
	assert.Equal(t, []string{"commitid", "spellid"}, txids)
}

func TestSubmitPackageUnsupported(t *testing.T) {
	mux := http.NewServeMux()
	tipHeightHandler(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	t.Run("no package relay endpoint configured", func(t *testing.T) {
		svc, err := NewService(NewServiceOpts{
			APIURL:            srv.URL,
			RequestsPerSecond: 1000,
		})
		require.NoError(t, err)

		_, err = svc.SubmitPackage([]string{"0200aa", "0200bb"})
		assert.Equal(t, explorer.ErrPackageRelayUnsupported, err)
	})

	t.Run("endpoint without the package relay API", func(t *testing.T) {
		svc, err := NewService(NewServiceOpts{
			APIURL:            srv.URL,
			PackageRelayURL:   srv.URL,
			RequestsPerSecond: 1000,
		})
		require.NoError(t, err)

		_, err = svc.SubmitPackage([]string{"0200aa", "0200bb"})
		assert.Equal(t, explorer.ErrPackageRelayUnsupported, err)
	})
}

func TestParseFeeRates(t *testing.T) {
	rates, err := parseFeeRates(`{"1": 30}`)
	require.NoError(t, err)
	// Missing targets fall back to the fastest known rate or the floor.
	assert.Equal(t, 30.0, rates.Fastest)
	assert.Equal(t, 30.0, rates.HalfHour)
	assert.Equal(t, 30.0, rates.Hour)
	assert.Equal(t, 1.0, rates.Economy)
	assert.Equal(t, 1.0, rates.Minimum)

	_, err = parseFeeRates("not json")
	assert.Error(t, err)

	flooredRates, err := parseFeeRates(`{}`)
	require.NoError(t, err)
	assert.Equal(t, 1.0, flooredRates.Fastest)
}
