// Package stats exposes the prometheus metrics of the engine along with a
// lightweight periodic memory usage logger.
package stats

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const (
	// BroadcastPathSequential labels a commit-then-spell broadcast.
	BroadcastPathSequential = "sequential"
	// BroadcastPathPackage labels an atomic package submission.
	BroadcastPathPackage = "package"

	resultOK     = "ok"
	resultFailed = "failed"
)

var (
	pairBroadcastsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spellex_pair_broadcasts_total",
			Help: "Number of commit/spell pair broadcasts by path and result.",
		},
		[]string{"path", "result"},
	)
	coinSelectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spellex_coin_selections_total",
			Help: "Number of coin selections by result.",
		},
		[]string{"result"},
	)
	signedTransactionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "spellex_signed_transactions_total",
			Help: "Number of transactions signed by the wallet.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		pairBroadcastsTotal,
		coinSelectionsTotal,
		signedTransactionsTotal,
	)
}

// PairBroadcastSucceeded records a successful pair broadcast on the given
// path.
func PairBroadcastSucceeded(path string) {
	pairBroadcastsTotal.WithLabelValues(path, resultOK).Inc()
}

// PairBroadcastFailed records a failed pair broadcast on the given path.
func PairBroadcastFailed(path string) {
	pairBroadcastsTotal.WithLabelValues(path, resultFailed).Inc()
}

// CoinSelectionSucceeded records a coin selection that covered its target.
func CoinSelectionSucceeded() {
	coinSelectionsTotal.WithLabelValues(resultOK).Inc()
}

// CoinSelectionInsufficient records a coin selection that ran out of
// candidates.
func CoinSelectionInsufficient() {
	coinSelectionsTotal.WithLabelValues(resultFailed).Inc()
}

// TransactionSigned records a signing operation.
func TransactionSigned() {
	signedTransactionsTotal.Inc()
}

const gigabyte = 1 << 30

// EnableMemoryStatistics enables a goroutine that periodically prints memory
// usage of the process.
func EnableMemoryStatistics(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				PrintMemoryStatistics()
				PrintNumOfRoutines()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// PrintMemoryStatistics prints memory statistics using the go runtime
// library.
func PrintMemoryStatistics() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	log.Infof(
		"Total allocated: %.3fGB, Heap allocated: %.3fGB, "+
			"Allocated objects count: %v, Freed objects count: %v",
		float64(memStats.TotalAlloc)/gigabyte,
		float64(memStats.HeapAlloc)/gigabyte,
		memStats.Mallocs,
		memStats.Frees,
	)
}

// PrintNumOfRoutines prints number of go routines currently running
func PrintNumOfRoutines() {
	log.Infof("Num of go routines: %v", runtime.NumGoroutine())
}
