package quote

import (
	"math"
	"strings"

	"github.com/spf13/cast"
)

// ConfigInput is a partial configuration update. Nil fields keep their
// current value. Numeric fields accept numbers or numeric strings; anything
// else becomes 0.
type ConfigInput struct {
	TaxRatePercent any `json:"tax_rate_percent,omitempty"`
	DiscountMode   any `json:"discount_mode,omitempty"`
	DiscountValue  any `json:"discount_value,omitempty"`
	Deposit        any `json:"deposit,omitempty"`
}

func (in ConfigInput) empty() bool {
	return in.TaxRatePercent == nil && in.DiscountMode == nil &&
		in.DiscountValue == nil && in.Deposit == nil
}

// ParseItem builds a LineItem from loosely typed input.
func ParseItem(name any, quantity any, unitPrice any) LineItem {
	return LineItem{
		Name:      strings.TrimSpace(cast.ToString(name)),
		Quantity:  toNumber(quantity),
		UnitPrice: toNumber(unitPrice),
	}
}

// toNumber coerces v to a finite float, defaulting to 0.
func toNumber(v any) float64 {
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0
	}
	return finite(f)
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func sanitizeItem(li LineItem) LineItem {
	li.Name = strings.TrimSpace(li.Name)
	li.Quantity = finite(li.Quantity)
	li.UnitPrice = finite(li.UnitPrice)
	return li
}
