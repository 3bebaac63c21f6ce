// Package decimal holds Money, the boundary type for dollar amounts entering
// and leaving the projection engine. Inside the engine amounts are float64
// billions of real dollars.
package decimal

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	billion  = decimal.NewFromInt(1_000_000_000)
	thousand = decimal.NewFromInt(1000)
)

// Money represents an amount in billions of real dollars.
type Money struct {
	decimal.Decimal
}

// NewMoney creates a Money from a float64 count of billions.
func NewMoney(billions float64) Money {
	return Money{decimal.NewFromFloat(billions)}
}

// NewMoneyFromDecimal creates a Money from billions held in a decimal.
func NewMoneyFromDecimal(d decimal.Decimal) Money {
	return Money{d}
}

// FromDollars converts a raw dollar amount to Money.
func FromDollars(dollars decimal.Decimal) Money {
	return Money{dollars.Div(billion)}
}

// ParseAmount reads a catalog amount. A trailing "T" means trillions, "B"
// billions, and no suffix means billions; a leading "$" and "_" or ","
// separators are ignored.
func ParseAmount(s string) (Money, error) {
	raw := strings.TrimSpace(s)
	clean := strings.NewReplacer("$", "", ",", "", "_", "").Replace(raw)
	scale := decimal.NewFromInt(1)
	switch {
	case strings.HasSuffix(clean, "T"), strings.HasSuffix(clean, "t"):
		scale = thousand
		clean = clean[:len(clean)-1]
	case strings.HasSuffix(clean, "B"), strings.HasSuffix(clean, "b"):
		clean = clean[:len(clean)-1]
	}
	d, err := decimal.NewFromString(strings.TrimSpace(clean))
	if err != nil {
		return Money{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return Money{d.Mul(scale)}, nil
}

// Billions returns the amount as the engine's internal float64 unit.
func (m Money) Billions() float64 {
	return m.Decimal.InexactFloat64()
}

// Dollars returns the amount in dollars.
func (m Money) Dollars() decimal.Decimal {
	return m.Decimal.Mul(billion)
}

// Add adds another Money amount
func (m Money) Add(other Money) Money {
	return Money{m.Decimal.Add(other.Decimal)}
}

// Sub subtracts another Money amount
func (m Money) Sub(other Money) Money {
	return Money{m.Decimal.Sub(other.Decimal)}
}

// IsNegative checks if the amount is negative
func (m Money) IsNegative() bool {
	return m.Decimal.IsNegative()
}

// String returns the amount in billions with one decimal.
func (m Money) String() string {
	return m.Decimal.StringFixed(1)
}

// Format renders the amount for tables: "$1.23T" at or above a trillion,
// "$850.0B" otherwise.
func (m Money) Format() string {
	abs := m.Decimal.Abs()
	sign := ""
	if m.Decimal.IsNegative() {
		sign = "-"
	}
	if abs.GreaterThanOrEqual(thousand) {
		return sign + "$" + abs.Div(thousand).StringFixed(2) + "T"
	}
	return sign + "$" + abs.StringFixed(1) + "B"
}
