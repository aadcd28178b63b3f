// Package money models prices as integer minor units so totals never drift.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Cents is an amount expressed in minor currency units.
type Cents int64

var hundred = decimal.NewFromInt(100)

// FromDecimal converts a major-unit decimal into cents, rounding half away from zero.
func FromDecimal(d decimal.Decimal) Cents {
	return Cents(d.Mul(hundred).Round(0).IntPart())
}

// FromFloat converts a float price such as 599.99 into cents.
func FromFloat(f float64) Cents {
	return FromDecimal(decimal.NewFromFloat(f))
}

// ParseString parses a major-unit price string ("599.99").
func ParseString(raw string) (Cents, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	return FromDecimal(d), nil
}

// Decimal returns the amount in major units.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// String formats the amount with two decimals.
func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

// Mul multiplies the amount by a quantity.
func (c Cents) Mul(qty int) Cents {
	return c * Cents(qty)
}

// ApplyPercentDiscount returns the amount reduced by pct percent.
// pct outside [0,100] is clamped.
func (c Cents) ApplyPercentDiscount(pct float64) Cents {
	if pct <= 0 {
		return c
	}
	if pct >= 100 {
		return 0
	}
	factor := hundred.Sub(decimal.NewFromFloat(pct)).Div(hundred)
	return Cents(decimal.NewFromInt(int64(c)).Mul(factor).Round(0).IntPart())
}

// Sum adds up the provided amounts.
func Sum(amounts ...Cents) Cents {
	var total Cents
	for _, a := range amounts {
		total += a
	}
	return total
}
