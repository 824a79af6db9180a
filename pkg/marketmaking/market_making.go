// Package marketmaking defines the pluggable pricing strategy used to quote
// the outcome shares of a market. Pricing is intentionally swappable: the
// engine never hardwires a formula, it only consumes this interface.
package marketmaking

import "github.com/shopspring/decimal"

// PricingFormula defines the interface a pricing model must implement to
// quote outcome shares against the current market supplies.
type PricingFormula interface {
	// SpotPrice returns the price of one outcome share, in the 0-100
	// range, given the formula-specific opts.
	SpotPrice(opts interface{}) (decimal.Decimal, error)
	// OutGivenIn returns the amount of shares given out for the provided
	// amount in.
	OutGivenIn(opts interface{}, amountIn uint64) (uint64, error)
	// InGivenOut returns the amount to put in to receive the provided
	// amount of shares.
	InGivenOut(opts interface{}, amountOut uint64) (uint64, error)
}

// PricingStrategy pairs a named pricing model with its formula.
type PricingStrategy struct {
	name        string
	description string
	formula     PricingFormula
}

// NewStrategyFromFormula returns the strategy struct wrapping the given
// formula.
func NewStrategyFromFormula(
	name, description string, formula PricingFormula,
) *PricingStrategy {
	return &PricingStrategy{
		name:        name,
		description: description,
		formula:     formula,
	}
}

// IsZero checks if the given strategy is the zero value
func (ps PricingStrategy) IsZero() bool {
	return ps == PricingStrategy{}
}

// Name returns the short name of the pricing strategy
func (ps *PricingStrategy) Name() string {
	return ps.name
}

// Description returns the long description of the pricing strategy
func (ps *PricingStrategy) Description() string {
	return ps.description
}

// Formula returns the pricing formula of the strategy
func (ps *PricingStrategy) Formula() PricingFormula {
	return ps.formula
}
