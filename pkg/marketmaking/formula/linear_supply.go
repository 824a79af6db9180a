// Package formula defines the formulas implementing the PricingFormula
// interface.
package formula

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidOptsType ...
	ErrInvalidOptsType = errors.New("opts must be of type LinearSupplyOpts")
	// ErrAmountTooLow ...
	ErrAmountTooLow = errors.New("provided amount is too low")
	// ErrSupplyTooLow ...
	ErrSupplyTooLow = errors.New("market supply is too low")
)

var hundred = decimal.NewFromInt(100)

// LinearSupplyOpts defines the parameters needed to price outcome shares
// from the circulating supplies of the two outcomes.
type LinearSupplyOpts struct {
	YesSupply uint64
	NoSupply  uint64
}

// LinearSupply quotes an outcome share as the complementary supply ratio
// scaled to 100: yes = noSupply / (yesSupply + noSupply) * 100. It is a
// deliberately naive placeholder model, not a market-clearing price: swap it
// out through the PricingStrategy once a real model is needed.
type LinearSupply struct{}

// SpotPrice returns the price of one yes share in the 0-100 range.
func (LinearSupply) SpotPrice(_opts interface{}) (decimal.Decimal, error) {
	opts, ok := _opts.(LinearSupplyOpts)
	if !ok {
		return decimal.Zero, ErrInvalidOptsType
	}
	total := opts.YesSupply + opts.NoSupply
	if total == 0 {
		return decimal.Zero, ErrSupplyTooLow
	}

	return decimal.NewFromInt(int64(opts.NoSupply)).
		Div(decimal.NewFromInt(int64(total))).
		Mul(hundred).
		Round(0), nil
}

// OutGivenIn returns the amount of shares bought with the given amount of
// satoshis at the current spot price.
func (f LinearSupply) OutGivenIn(
	_opts interface{}, amountIn uint64,
) (uint64, error) {
	if amountIn == 0 {
		return 0, ErrAmountTooLow
	}
	price, err := f.SpotPrice(_opts)
	if err != nil {
		return 0, err
	}
	if price.IsZero() {
		return 0, ErrSupplyTooLow
	}

	return decimal.NewFromInt(int64(amountIn)).
		Div(price).
		Floor().
		BigInt().Uint64(), nil
}

// InGivenOut returns the amount of satoshis needed to buy the given amount
// of shares at the current spot price.
func (f LinearSupply) InGivenOut(
	_opts interface{}, amountOut uint64,
) (uint64, error) {
	if amountOut == 0 {
		return 0, ErrAmountTooLow
	}
	price, err := f.SpotPrice(_opts)
	if err != nil {
		return 0, err
	}

	return decimal.NewFromInt(int64(amountOut)).
		Mul(price).
		Ceil().
		BigInt().Uint64(), nil
}
