// Package quotation persists saved quotations keyed by folio.
package quotation

import (
	"fmt"
	"strings"
	"time"

	"github.com/stablebuilds/quoter/internal/errors"
	"github.com/stablebuilds/quoter/internal/quote"
)

// Status is the lifecycle state of a saved quotation.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusApproved Status = "approved"
)

// ParseStatus accepts "draft" or "approved" in any case.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusDraft:
		return StatusDraft, nil
	case StatusApproved:
		return StatusApproved, nil
	default:
		return "", errors.NewInvalidRequest(fmt.Sprintf("status must be one of: %s, %s", StatusDraft, StatusApproved))
	}
}

// Party is the client as it appeared on the quotation when it was saved.
type Party struct {
	Name    string `json:"name"`
	Type    string `json:"type,omitempty"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

// Record is a persisted quotation.
type Record struct {
	Folio          string             `json:"id"`
	ClientID       string             `json:"client_id,omitempty"`
	Client         Party              `json:"client"`
	Date           string             `json:"date"`
	Items          []quote.LineItem   `json:"items"`
	Totals         quote.Totals       `json:"totals"`
	DiscountMode   quote.DiscountMode `json:"discount_mode"`
	DiscountValue  float64            `json:"discount_value"`
	TaxRatePercent float64            `json:"tax_rate_percent"`
	Deposit        float64            `json:"deposit"`
	PaymentMethod  string             `json:"payment_method"`
	Notes          string             `json:"notes,omitempty"`
	Status         Status             `json:"status"`
	CreatedAt      int64              `json:"created_at"`
	UpdatedAt      int64              `json:"updated_at"`
}

// Snapshot returns the engine state stored in the record.
func (r Record) Snapshot() quote.Snapshot {
	items := make([]quote.LineItem, len(r.Items))
	copy(items, r.Items)
	return quote.Snapshot{
		Items:          items,
		TaxRatePercent: r.TaxRatePercent,
		DiscountMode:   r.DiscountMode,
		DiscountValue:  r.DiscountValue,
		Deposit:        r.Deposit,
		Totals:         r.Totals,
	}
}

// ApplySnapshot copies engine state into the record.
func (r *Record) ApplySnapshot(s quote.Snapshot) {
	r.Items = make([]quote.LineItem, len(s.Items))
	copy(r.Items, s.Items)
	r.TaxRatePercent = s.TaxRatePercent
	r.DiscountMode = s.DiscountMode
	r.DiscountValue = s.DiscountValue
	r.Deposit = s.Deposit
	r.Totals = s.Totals
}

// Summary is the list view of a record.
type Summary struct {
	Folio      string  `json:"id"`
	ClientName string  `json:"client_name"`
	Date       string  `json:"date"`
	Total      float64 `json:"total"`
	Status     Status  `json:"status"`
	UpdatedAt  int64   `json:"updated_at"`
}

// Summarize builds the list view, with the total rounded for display.
func (r Record) Summarize() Summary {
	return Summary{
		Folio:      r.Folio,
		ClientName: r.Client.Name,
		Date:       r.Date,
		Total:      r.Totals.Rounded().Total,
		Status:     r.Status,
		UpdatedAt:  r.UpdatedAt,
	}
}

// DateLayout is the format of Record.Date.
const DateLayout = time.DateOnly
