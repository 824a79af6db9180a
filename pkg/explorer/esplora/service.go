package esplora

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/ratelimit"

	"github.com/spellex-network/spellex-daemon/pkg/circuitbreaker"
	"github.com/spellex-network/spellex-daemon/pkg/explorer"
	"github.com/spellex-network/spellex-daemon/pkg/httputil"
)

const (
	// defaultRequestTimeout bounds every call to the esplora endpoint.
	defaultRequestTimeout = 30 * time.Second
	// defaultRequestsPerSecond keeps sequential calls to the same
	// endpoint at least ~150ms apart to respect public instance rate
	// limits.
	defaultRequestsPerSecond = 7
	// defaultFeeCacheTTL is how long a fetched fee estimation is reused
	// before hitting the endpoint again. Staleness tolerance is the whole
	// point of the cache.
	defaultFeeCacheTTL = time.Minute
	// DefaultFallbackFeeRate is the conservative sat/vbyte rate returned
	// when the endpoint cannot provide estimations. Fee estimation outage
	// must never block signing.
	DefaultFallbackFeeRate = float64(10)
)

// feeRateCache holds the last fetched fee estimations with their expiry. It
// is owned by the service instance, there is no process-wide state, and a
// concurrent refresh simply overwrites idempotently.
type feeRateCache struct {
	mtx sync.Mutex

	rates  *explorer.FeeRates
	expiry time.Time
}

type esplora struct {
	apiURL          string
	packageRelayURL string
	client          *httputil.Client
	limiter         ratelimit.Limiter
	cb              *gobreaker.CircuitBreaker
	feeCache        *feeRateCache
	feeCacheTTL     time.Duration
	fallbackFeeRate float64
}

// NewServiceOpts is the struct given to the NewService method
type NewServiceOpts struct {
	APIURL string
	// PackageRelayURL is optional: when empty, SubmitPackage reports
	// ErrPackageRelayUnsupported instead of attempting any broadcast.
	PackageRelayURL string
	// RequestTimeout is optional and defaults to 30s.
	RequestTimeout time.Duration
	// RequestsPerSecond is optional and defaults to a conservative rate
	// suited for public esplora instances.
	RequestsPerSecond int
	// FallbackFeeRate is optional and defaults to DefaultFallbackFeeRate.
	FallbackFeeRate float64
	// FeeCacheTTL is optional and defaults to one minute.
	FeeCacheTTL time.Duration
}

func (o NewServiceOpts) validate() error {
	if len(o.APIURL) <= 0 {
		return fmt.Errorf("api url must not be null")
	}
	return nil
}

// NewService returns a new esplora service as an explorer.Service interface
func NewService(opts NewServiceOpts) (explorer.Service, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	timeout := opts.RequestTimeout
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}
	rps := opts.RequestsPerSecond
	if rps == 0 {
		rps = defaultRequestsPerSecond
	}
	fallbackFeeRate := opts.FallbackFeeRate
	if fallbackFeeRate == 0 {
		fallbackFeeRate = DefaultFallbackFeeRate
	}
	feeCacheTTL := opts.FeeCacheTTL
	if feeCacheTTL == 0 {
		feeCacheTTL = defaultFeeCacheTTL
	}

	service := &esplora{
		apiURL:          opts.APIURL,
		packageRelayURL: opts.PackageRelayURL,
		client:          httputil.NewClient(timeout),
		limiter:         ratelimit.New(rps),
		cb:              circuitbreaker.NewCircuitBreaker(),
		feeCache:        &feeRateCache{},
		feeCacheTTL:     feeCacheTTL,
		fallbackFeeRate: fallbackFeeRate,
	}

	if err := service.healthCheck(); err != nil {
		return nil, fmt.Errorf("health check: %v", err)
	}

	return service, nil
}

func (e *esplora) healthCheck() error {
	_, err := e.GetBlockHeight()
	return err
}

// getRequest runs a rate limited GET through the circuit breaker.
func (e *esplora) getRequest(url string) (string, error) {
	e.limiter.Take()

	resp, err := e.cb.Execute(func() (interface{}, error) {
		status, body, err := e.client.NewHTTPRequest("GET", url, "", nil)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf(body)
		}
		return body, nil
	})
	if err != nil {
		return "", err
	}
	return resp.(string), nil
}

// postRequest runs a rate limited POST through the circuit breaker.
func (e *esplora) postRequest(
	url, body string, header map[string]string,
) (int, string, error) {
	e.limiter.Take()

	type response struct {
		status int
		body   string
	}
	resp, err := e.cb.Execute(func() (interface{}, error) {
		status, respBody, err := e.client.NewHTTPRequest(
			"POST", url, body, header,
		)
		if err != nil {
			return nil, err
		}
		return response{status, respBody}, nil
	})
	if err != nil {
		return 0, "", err
	}
	r := resp.(response)
	return r.status, r.body, nil
}
