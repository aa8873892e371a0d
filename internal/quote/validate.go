package quote

import "fmt"

// Validate reports every rule the current state breaks. It never changes
// state; callers decide whether an invalid quotation may be saved.
func (e *Engine) Validate() ValidationResult {
	errs := []string{}

	if len(e.items) == 0 {
		errs = append(errs, "at least one line item is required")
	}
	for i, li := range e.items {
		label := li.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
			errs = append(errs, fmt.Sprintf("item #%d must have a name", i+1))
		}
		if li.Quantity <= 0 {
			errs = append(errs, fmt.Sprintf("quantity of item %q must be greater than 0", label))
		}
		if li.UnitPrice < 0 {
			errs = append(errs, fmt.Sprintf("price of item %q cannot be negative", label))
		}
	}

	if e.taxRate < 0 || e.taxRate > 100 {
		errs = append(errs, "tax rate must be between 0 and 100")
	}

	t := e.totals
	if t.Discount < 0 {
		errs = append(errs, "discount cannot be negative")
	}
	if t.Discount > t.Subtotal {
		errs = append(errs, "discount cannot exceed the subtotal")
	}
	if e.deposit < 0 {
		errs = append(errs, "deposit cannot be negative")
	}
	if e.deposit > t.Total {
		errs = append(errs, "deposit cannot exceed the total")
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}
