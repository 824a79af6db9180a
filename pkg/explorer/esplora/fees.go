package esplora

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/spellex-network/spellex-daemon/pkg/explorer"
)

// GetFeeRates returns the current fee estimations, served from the instance
// cache while fresh. When the endpoint cannot provide estimations the
// configured fallback rate is returned for every target instead of an error.
func (e *esplora) GetFeeRates() (*explorer.FeeRates, error) {
	e.feeCache.mtx.Lock()
	defer e.feeCache.mtx.Unlock()

	now := time.Now()
	if e.feeCache.rates != nil && now.Before(e.feeCache.expiry) {
		return e.feeCache.rates, nil
	}

	rates, err := e.fetchFeeRates()
	if err != nil {
		// The fallback is intentionally not cached so the endpoint is
		// retried on the next call.
		log.WithError(err).Warn(
			"failed to fetch fee estimations, using fallback rate",
		)
		return &explorer.FeeRates{
			Fastest:  e.fallbackFeeRate,
			HalfHour: e.fallbackFeeRate,
			Hour:     e.fallbackFeeRate,
			Economy:  e.fallbackFeeRate,
			Minimum:  1,
		}, nil
	}

	e.feeCache.rates = rates
	e.feeCache.expiry = now.Add(e.feeCacheTTL)
	return rates, nil
}

func (e *esplora) fetchFeeRates() (*explorer.FeeRates, error) {
	url := fmt.Sprintf("%s/fee-estimates", e.apiURL)
	resp, err := e.getRequest(url)
	if err != nil {
		return nil, err
	}
	return parseFeeRates(resp)
}
