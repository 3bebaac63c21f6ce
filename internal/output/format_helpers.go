package output

import (
	"fmt"
	"math"

	money "github.com/rpgo/fiscal-projection/pkg/decimal"
	"github.com/shopspring/decimal"
)

// FormatBillions renders an amount in billions as "$1.23T" or "$850.0B".
func FormatBillions(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return money.NewMoney(v).Format()
}

// FormatShare renders a fraction (e.g. a share of GDP) as a percentage with one decimal.
func FormatShare(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return decimal.NewFromFloat(v).Mul(decimalHundred).StringFixed(1) + "%"
}

// FormatPercentage formats a decimal as a percentage with 2 decimals.
func FormatPercentage(amount decimal.Decimal) string { return amount.StringFixed(2) + "%" }

// FormatYear renders a fractional mean year with one decimal.
func FormatYear(v float64) string { return fmt.Sprintf("%.1f", v) }

var decimalHundred = decimal.NewFromInt(100)
