// Package quote implements the working-quotation engine: line items,
// discount/tax/deposit configuration, derived totals, and a bounded linear
// undo/redo history of full-state snapshots.
package quote

import (
	"strings"

	"github.com/stablebuilds/quoter/internal/money"
)

// LineItem is one priced row of a quotation.
type LineItem struct {
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// Amount returns quantity × unit price at full precision.
func (li LineItem) Amount() float64 {
	return li.Quantity * li.UnitPrice
}

// DiscountMode selects how DiscountValue is interpreted.
type DiscountMode string

const (
	DiscountFixed      DiscountMode = "fixed"
	DiscountPercentage DiscountMode = "percentage"
)

// ParseDiscountMode maps user input to a mode. Anything that is not a
// percentage spelling is treated as a fixed amount.
func ParseDiscountMode(s string) DiscountMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "percentage", "percent", "pct", "%", "porcentaje":
		return DiscountPercentage
	default:
		return DiscountFixed
	}
}

// Totals are the values derived from items and configuration.
type Totals struct {
	Subtotal    float64 `json:"subtotal"`
	Discount    float64 `json:"discount"`
	TaxableBase float64 `json:"taxable_base"`
	TaxAmount   float64 `json:"tax_amount"`
	Total       float64 `json:"total"`
	Deposit     float64 `json:"deposit"`
	AmountDue   float64 `json:"amount_due"`
}

// Rounded returns a copy with every amount rounded to two decimals for display.
func (t Totals) Rounded() Totals {
	return Totals{
		Subtotal:    money.Round(t.Subtotal),
		Discount:    money.Round(t.Discount),
		TaxableBase: money.Round(t.TaxableBase),
		TaxAmount:   money.Round(t.TaxAmount),
		Total:       money.Round(t.Total),
		Deposit:     money.Round(t.Deposit),
		AmountDue:   money.Round(t.AmountDue),
	}
}

// Snapshot is a point-in-time copy of the full working state.
type Snapshot struct {
	Items          []LineItem   `json:"items"`
	TaxRatePercent float64      `json:"tax_rate_percent"`
	DiscountMode   DiscountMode `json:"discount_mode"`
	DiscountValue  float64      `json:"discount_value"`
	Deposit        float64      `json:"deposit"`
	Totals         Totals       `json:"totals"`
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Items = cloneItems(s.Items)
	return out
}

func cloneItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}

// ValidationResult lists every rule the current state breaks.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Session is the persisted form of an engine: its history and cursor.
// History[Cursor] is the current state.
type Session struct {
	History []Snapshot `json:"history"`
	Cursor  int        `json:"cursor"`
}
