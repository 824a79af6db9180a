package circuitbreaker

import "github.com/sony/gobreaker"

var (
	// MaxNumOfFailingRequests is the minimum number of requests observed
	// before the breaker is allowed to trip.
	MaxNumOfFailingRequests = 10
	// FailingRatio is the failing request ratio at which the breaker
	// trips.
	FailingRatio = 0.6
)

// NewCircuitBreaker returns a *gobreaker.CircuitBreaker guarding the calls
// to the chain explorer endpoints. It trips once the overall number of
// requests has reached MaxNumOfFailingRequests and the failing ratio has met
// FailingRatio, so a flapping endpoint stops being hammered while a spell
// broadcast is in flight.
func NewCircuitBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "explorer",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return int(counts.Requests) > MaxNumOfFailingRequests &&
				ratio >= FailingRatio
		},
	})
}
