package ops

import (
	"context"

	"github.com/stablebuilds/quoter/internal/errors"
	"github.com/stablebuilds/quoter/internal/quotation"
	"github.com/stablebuilds/quoter/internal/quote"
)

// ItemInput is a line item as received from a caller. Values are coerced
// with quote.ParseItem; anything non-numeric becomes 0.
type ItemInput struct {
	Name      any `json:"name"`
	Quantity  any `json:"quantity"`
	UnitPrice any `json:"unit_price"`
}

func (in ItemInput) parse() quote.LineItem {
	return quote.ParseItem(in.Name, in.Quantity, in.UnitPrice)
}

// DraftStepOutput is returned by operations that may leave the draft unchanged.
type DraftStepOutput struct {
	Draft   *DraftView `json:"draft"`
	Changed bool       `json:"changed"`
}

// DraftNew starts a new working quotation, discarding the current one.
func DraftNew(ctx context.Context, svc *Services) (*DraftView, error) {
	return svc.Workbench.New(ctx)
}

// DraftShow returns the working quotation.
func DraftShow(ctx context.Context, svc *Services) (*DraftView, error) {
	return svc.Workbench.Current(ctx)
}

// DraftAddItem appends a line item.
func DraftAddItem(ctx context.Context, svc *Services, input ItemInput) (*DraftView, error) {
	view, _, err := svc.Workbench.Mutate(ctx, func(e *quote.Engine) bool {
		e.AddItem(input.parse())
		return true
	})
	return view, err
}

// DraftRemoveItemInput contains parameters for the DraftRemoveItem operation.
type DraftRemoveItemInput struct {
	Index int // zero-based
}

// DraftRemoveItem removes the item at Index. An out-of-range index leaves
// the draft and its history untouched.
func DraftRemoveItem(ctx context.Context, svc *Services, input DraftRemoveItemInput) (*DraftStepOutput, error) {
	view, changed, err := svc.Workbench.Mutate(ctx, func(e *quote.Engine) bool {
		if input.Index < 0 || input.Index >= len(e.Items()) {
			return false
		}
		e.RemoveItem(input.Index)
		return true
	})
	if err != nil {
		return nil, err
	}
	return &DraftStepOutput{Draft: view, Changed: changed}, nil
}

// DraftSetItemsInput contains parameters for the DraftSetItems operation.
type DraftSetItemsInput struct {
	Items []ItemInput
}

// DraftSetItems replaces every line item.
func DraftSetItems(ctx context.Context, svc *Services, input DraftSetItemsInput) (*DraftView, error) {
	items := make([]quote.LineItem, len(input.Items))
	for i, in := range input.Items {
		items[i] = in.parse()
	}
	view, _, err := svc.Workbench.Mutate(ctx, func(e *quote.Engine) bool {
		e.SetItems(items)
		return true
	})
	return view, err
}

// DraftConfigureInput is a partial configuration update. Nil fields keep
// their current value.
type DraftConfigureInput struct {
	TaxRatePercent any
	DiscountMode   any
	DiscountValue  any
	Deposit        any
}

// DraftConfigure updates tax rate, discount and deposit.
func DraftConfigure(ctx context.Context, svc *Services, input DraftConfigureInput) (*DraftStepOutput, error) {
	cfg := quote.ConfigInput{
		TaxRatePercent: input.TaxRatePercent,
		DiscountMode:   input.DiscountMode,
		DiscountValue:  input.DiscountValue,
		Deposit:        input.Deposit,
	}
	changed := cfg.TaxRatePercent != nil || cfg.DiscountMode != nil || cfg.DiscountValue != nil || cfg.Deposit != nil
	view, _, err := svc.Workbench.Mutate(ctx, func(e *quote.Engine) bool {
		e.SetConfiguration(cfg)
		return changed
	})
	if err != nil {
		return nil, err
	}
	return &DraftStepOutput{Draft: view, Changed: changed}, nil
}

// DraftUndo steps back one history entry.
func DraftUndo(ctx context.Context, svc *Services) (*DraftStepOutput, error) {
	view, changed, err := svc.Workbench.Mutate(ctx, func(e *quote.Engine) bool {
		return e.Undo()
	})
	if err != nil {
		return nil, err
	}
	return &DraftStepOutput{Draft: view, Changed: changed}, nil
}

// DraftRedo steps forward one history entry.
func DraftRedo(ctx context.Context, svc *Services) (*DraftStepOutput, error) {
	view, changed, err := svc.Workbench.Mutate(ctx, func(e *quote.Engine) bool {
		return e.Redo()
	})
	if err != nil {
		return nil, err
	}
	return &DraftStepOutput{Draft: view, Changed: changed}, nil
}

// DraftValidate checks the working quotation without changing it.
func DraftValidate(ctx context.Context, svc *Services) (*quote.ValidationResult, error) {
	view, err := svc.Workbench.Current(ctx)
	if err != nil {
		return nil, err
	}
	res := view.Validation
	return &res, nil
}

// DraftSetMeta updates client, date, payment method or notes.
func DraftSetMeta(ctx context.Context, svc *Services, input MetaInput) (*DraftView, error) {
	return svc.Workbench.SetMeta(ctx, input)
}

// DraftSaveInput contains parameters for the DraftSave operation.
type DraftSaveInput struct {
	Status string // draft (default) or approved
	Force  bool   // save an invalid quotation as approved
}

// DraftSaveOutput contains the result of the DraftSave operation.
type DraftSaveOutput struct {
	Quotation quotation.Record `json:"quotation"`
	Next      *DraftView       `json:"next"`
}

// DraftSave stores the working quotation and starts the next one.
func DraftSave(ctx context.Context, svc *Services, input DraftSaveInput) (*DraftSaveOutput, error) {
	status := quotation.StatusDraft
	if input.Status != "" {
		var err error
		status, err = quotation.ParseStatus(input.Status)
		if err != nil {
			return nil, err
		}
	}
	rec, next, err := svc.Workbench.Save(ctx, status, input.Force)
	if err != nil {
		return nil, err
	}
	return &DraftSaveOutput{Quotation: rec, Next: next}, nil
}

// DraftLoadInput contains parameters for the DraftLoad operation.
type DraftLoadInput struct {
	Folio string // required
}

// DraftLoad makes a stored quotation the working one.
func DraftLoad(ctx context.Context, svc *Services, input DraftLoadInput) (*DraftView, error) {
	if input.Folio == "" {
		return nil, errors.NewInvalidRequest("folio is required")
	}
	return svc.Workbench.Load(ctx, input.Folio)
}

// DraftDiscardOutput contains the result of the DraftDiscard operation.
type DraftDiscardOutput struct {
	Discarded bool `json:"discarded"`
}

// DraftDiscard drops the working quotation.
func DraftDiscard(ctx context.Context, svc *Services) (*DraftDiscardOutput, error) {
	ok, err := svc.Workbench.Discard(ctx)
	if err != nil {
		return nil, err
	}
	return &DraftDiscardOutput{Discarded: ok}, nil
}
