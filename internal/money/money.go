// Package money handles display rounding of currency amounts.
package money

import (
	"math"

	"github.com/shopspring/decimal"
)

// Places is the number of decimals amounts are shown with.
const Places = 2

// Decimal converts v to a decimal rounded to two places.
// Non-finite values become zero.
func Decimal(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v).Round(Places)
}

// Round rounds v to two decimals, half away from zero.
func Round(v float64) float64 {
	return Decimal(v).InexactFloat64()
}

// Format renders v as "$1234.50" ("-$5.00" for negatives).
func Format(v float64) string {
	d := Decimal(v)
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(Places)
	}
	return "$" + d.StringFixed(Places)
}

// Percent renders a rate as "16%" or "7.5%".
func Percent(v float64) string {
	return Decimal(v).String() + "%"
}
