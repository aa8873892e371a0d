package ops

import (
	"context"
	"strings"

	"github.com/stablebuilds/quoter/internal/errors"
	"github.com/stablebuilds/quoter/internal/quotation"
)

// ListQuotationsInput contains parameters for the ListQuotations operation.
type ListQuotationsInput struct {
	Status string // optional filter: draft or approved
	Limit  int    // default: 20, max: 100
	Offset int    // default: 0
}

// ListQuotationsOutput contains the result of the ListQuotations operation.
type ListQuotationsOutput struct {
	Items      []quotation.Summary `json:"items"`
	Pagination Pagination          `json:"pagination"`
}

// ListQuotations returns quotation summaries in insertion order.
func ListQuotations(ctx context.Context, svc *Services, input ListQuotationsInput) (*ListQuotationsOutput, error) {
	var status quotation.Status
	if input.Status != "" {
		var err error
		if status, err = quotation.ParseStatus(input.Status); err != nil {
			return nil, err
		}
	}

	records, err := svc.Quotations.List(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]quotation.Summary, 0, len(records))
	for _, r := range records {
		if status != "" && r.Status != status {
			continue
		}
		summaries = append(summaries, r.Summarize())
	}

	start, end, p := page(len(summaries), input.Limit, input.Offset)
	return &ListQuotationsOutput{
		Items:      summaries[start:end],
		Pagination: p,
	}, nil
}

// GetQuotationInput contains parameters for the GetQuotation operation.
type GetQuotationInput struct {
	Folio string // required
}

// GetQuotation returns one stored quotation.
func GetQuotation(ctx context.Context, svc *Services, input GetQuotationInput) (*quotation.Record, error) {
	folio := strings.TrimSpace(input.Folio)
	if folio == "" {
		return nil, errors.NewInvalidRequest("folio is required")
	}
	rec, err := svc.Quotations.Get(ctx, folio)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// DeleteQuotationInput contains parameters for the DeleteQuotation operation.
type DeleteQuotationInput struct {
	Folio string // required
}

// DeleteQuotationOutput contains the result of the DeleteQuotation operation.
type DeleteQuotationOutput struct {
	Deleted bool   `json:"deleted"`
	Folio   string `json:"folio"`
}

// DeleteQuotation removes a stored quotation. Deleting an unknown folio
// reports Deleted=false.
func DeleteQuotation(ctx context.Context, svc *Services, input DeleteQuotationInput) (*DeleteQuotationOutput, error) {
	folio := strings.TrimSpace(input.Folio)
	if folio == "" {
		return nil, errors.NewInvalidRequest("folio is required")
	}
	ok, err := svc.Quotations.Remove(ctx, folio)
	if err != nil {
		return nil, err
	}
	return &DeleteQuotationOutput{Deleted: ok, Folio: folio}, nil
}

// NextFolioOutput contains the result of the NextFolio operation.
type NextFolioOutput struct {
	Folio string `json:"folio"`
}

// NextFolio returns the folio the next new quotation would receive.
func NextFolio(ctx context.Context, svc *Services) (*NextFolioOutput, error) {
	f, err := svc.Quotations.NextFolio(ctx)
	if err != nil {
		return nil, err
	}
	return &NextFolioOutput{Folio: f}, nil
}
