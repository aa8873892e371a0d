package ops

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stablebuilds/quoter/internal/errors"
	"github.com/stablebuilds/quoter/internal/quotation"
)

func strPtr(s string) *string { return &s }

// TestDraftWorkflow walks a quotation from an empty draft to an approved
// record and checks the next draft picks up the following folio.
func TestDraftWorkflow(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t)

	d, err := DraftNew(ctx, svc)
	require.NoError(t, err)
	require.Equal(t, "COT-202501-001", d.Folio)
	require.Equal(t, "2025-01-15", d.Date)
	require.Equal(t, "Transferencia", d.PaymentMethod)
	require.Equal(t, 16.0, d.TaxRatePercent)
	require.False(t, d.CanUndo)

	_, err = DraftAddItem(ctx, svc, ItemInput{Name: "Cement", Quantity: 2, UnitPrice: 100})
	require.NoError(t, err)
	_, err = DraftAddItem(ctx, svc, ItemInput{Name: "Sand", Quantity: "1", UnitPrice: "50"})
	require.NoError(t, err)

	step, err := DraftConfigure(ctx, svc, DraftConfigureInput{DiscountMode: "fixed", DiscountValue: 10})
	require.NoError(t, err)
	require.True(t, step.Changed)

	tot := step.Draft.Totals
	assert.Equal(t, 250.0, tot.Subtotal)
	assert.Equal(t, 240.0, tot.TaxableBase)
	assert.Equal(t, 38.4, tot.TaxAmount)
	assert.Equal(t, 278.4, tot.Total)
	assert.True(t, step.Draft.Validation.Valid)

	saved, err := DraftSave(ctx, svc, DraftSaveInput{Status: "approved"})
	require.NoError(t, err)
	require.Equal(t, "COT-202501-001", saved.Quotation.Folio)
	require.Equal(t, quotation.StatusApproved, saved.Quotation.Status)
	require.Len(t, saved.Quotation.Items, 2)
	require.Equal(t, "COT-202501-002", saved.Next.Folio)
	require.Empty(t, saved.Next.Items)

	list, err := ListQuotations(ctx, svc, ListQuotationsInput{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	require.Equal(t, 278.4, list.Items[0].Total)
}

func TestDraft_HistorySurvivesReopen(t *testing.T) {
	ctx := context.Background()
	svc, backend := newTestServices(t)

	_, err := DraftAddItem(ctx, svc, ItemInput{Name: "A", Quantity: 1, UnitPrice: 10})
	require.NoError(t, err)
	_, err = DraftAddItem(ctx, svc, ItemInput{Name: "B", Quantity: 1, UnitPrice: 20})
	require.NoError(t, err)

	// A second process over the same storage sees the same history.
	other := NewServices(backend, svc.Config, WithClock(fixedClock))

	step, err := DraftUndo(ctx, other)
	require.NoError(t, err)
	require.True(t, step.Changed)
	require.Len(t, step.Draft.Items, 1)
	require.True(t, step.Draft.CanRedo)

	step, err = DraftRedo(ctx, svc)
	require.NoError(t, err)
	require.True(t, step.Changed)
	require.Len(t, step.Draft.Items, 2)
	require.Equal(t, 30.0, step.Draft.Totals.Subtotal)

	step, err = DraftRedo(ctx, svc)
	require.NoError(t, err)
	require.False(t, step.Changed)
}

func TestDraftRemoveItem_OutOfRange(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t)

	_, err := DraftAddItem(ctx, svc, ItemInput{Name: "A", Quantity: 1, UnitPrice: 10})
	require.NoError(t, err)

	step, err := DraftRemoveItem(ctx, svc, DraftRemoveItemInput{Index: 5})
	require.NoError(t, err)
	require.False(t, step.Changed)
	require.Len(t, step.Draft.Items, 1)

	step, err = DraftRemoveItem(ctx, svc, DraftRemoveItemInput{Index: 0})
	require.NoError(t, err)
	require.True(t, step.Changed)
	require.Empty(t, step.Draft.Items)

	// Undo brings the removed item back.
	undo, err := DraftUndo(ctx, svc)
	require.NoError(t, err)
	require.Len(t, undo.Draft.Items, 1)
}

func TestDraftConfigure_EmptyInputNotRecorded(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t)

	step, err := DraftConfigure(ctx, svc, DraftConfigureInput{})
	require.NoError(t, err)
	require.False(t, step.Changed)
	require.False(t, step.Draft.CanUndo)
}

func TestDraftSetItems(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t)

	d, err := DraftSetItems(ctx, svc, DraftSetItemsInput{Items: []ItemInput{
		{Name: "Block", Quantity: 10, UnitPrice: 12.5},
		{Name: "Rebar", Quantity: "abc", UnitPrice: 80},
	}})
	require.NoError(t, err)
	require.Len(t, d.Items, 2)
	require.Equal(t, 0.0, d.Items[1].Quantity)
	require.Equal(t, 125.0, d.Totals.Subtotal)
	require.False(t, d.Validation.Valid)
}

func TestDraftSave_ApprovalRequiresValid(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t)

	_, err := DraftSave(ctx, svc, DraftSaveInput{Status: "approved"})
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrValidationFailed))

	qErr, _ := errors.As(err)
	require.Contains(t, qErr.Details["errors"], "at least one line item is required")

	// Nothing stored, draft kept.
	list, err := ListQuotations(ctx, svc, ListQuotationsInput{})
	require.NoError(t, err)
	require.Empty(t, list.Items)

	forced, err := DraftSave(ctx, svc, DraftSaveInput{Status: "approved", Force: true})
	require.NoError(t, err)
	require.Equal(t, quotation.StatusApproved, forced.Quotation.Status)

	// Drafts always save.
	draft, err := DraftSave(ctx, svc, DraftSaveInput{})
	require.NoError(t, err)
	require.Equal(t, quotation.StatusDraft, draft.Quotation.Status)
	require.Equal(t, "COT-202501-002", draft.Quotation.Folio)
}

func TestDraftSave_BadStatus(t *testing.T) {
	svc, _ := newTestServices(t)
	_, err := DraftSave(context.Background(), svc, DraftSaveInput{Status: "sent"})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestDraftSetMeta(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t)

	c, err := SaveClient(ctx, svc, SaveClientInput{Name: "Acme Builders", Email: "ops@acme.mx"})
	require.NoError(t, err)

	d, err := DraftSetMeta(ctx, svc, MetaInput{
		ClientID:      &c.ID,
		Date:          strPtr("2025-02-01"),
		PaymentMethod: strPtr(" Efectivo "),
		Notes:         strPtr("Delivery **included**"),
	})
	require.NoError(t, err)
	require.Equal(t, c.ID, d.ClientID)
	require.Equal(t, "Acme Builders", d.Client.Name)
	require.Equal(t, "2025-02-01", d.Date)
	require.Equal(t, "Efectivo", d.PaymentMethod)

	_, err = DraftSetMeta(ctx, svc, MetaInput{Date: strPtr("01/02/2025")})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = DraftSetMeta(ctx, svc, MetaInput{ClientID: strPtr("missing")})
	require.True(t, errors.Is(err, errors.ErrNotFound))

	d, err = DraftSetMeta(ctx, svc, MetaInput{ClientID: strPtr("")})
	require.NoError(t, err)
	require.Empty(t, d.ClientID)
	require.Empty(t, d.Client.Name)
}

func TestDraftLoad(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t)

	_, err := DraftAddItem(ctx, svc, ItemInput{Name: "A", Quantity: 3, UnitPrice: 10})
	require.NoError(t, err)
	_, err = DraftSetMeta(ctx, svc, MetaInput{Notes: strPtr("first")})
	require.NoError(t, err)
	saved, err := DraftSave(ctx, svc, DraftSaveInput{})
	require.NoError(t, err)

	d, err := DraftLoad(ctx, svc, DraftLoadInput{Folio: saved.Quotation.Folio})
	require.NoError(t, err)
	require.Equal(t, saved.Quotation.Folio, d.Folio)
	require.Equal(t, "first", d.Notes)
	require.Len(t, d.Items, 1)
	require.Equal(t, 30.0, d.Totals.Subtotal)
	require.False(t, d.CanUndo, "a loaded quotation starts a fresh history")

	// Saving again replaces the stored record instead of adding one.
	_, err = DraftAddItem(ctx, svc, ItemInput{Name: "B", Quantity: 1, UnitPrice: 5})
	require.NoError(t, err)
	_, err = DraftSave(ctx, svc, DraftSaveInput{})
	require.NoError(t, err)

	list, err := ListQuotations(ctx, svc, ListQuotationsInput{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	// 35 subtotal plus the default 16% tax.
	require.InDelta(t, 40.6, list.Items[0].Total, 0.001)

	_, err = DraftLoad(ctx, svc, DraftLoadInput{Folio: "COT-209901-001"})
	require.True(t, errors.Is(err, errors.ErrNotFound))
	_, err = DraftLoad(ctx, svc, DraftLoadInput{})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestDraftDiscard(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t)

	out, err := DraftDiscard(ctx, svc)
	require.NoError(t, err)
	require.False(t, out.Discarded)

	_, err = DraftAddItem(ctx, svc, ItemInput{Name: "A", Quantity: 1, UnitPrice: 1})
	require.NoError(t, err)

	out, err = DraftDiscard(ctx, svc)
	require.NoError(t, err)
	require.True(t, out.Discarded)

	d, err := DraftShow(ctx, svc)
	require.NoError(t, err)
	require.Empty(t, d.Items)
}

func TestDraftValidate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t)

	res, err := DraftValidate(ctx, svc)
	require.NoError(t, err)
	require.False(t, res.Valid)
	require.Equal(t, []string{"at least one line item is required"}, res.Errors)
}

func TestDraft_StorageFailureKeepsPreviousState(t *testing.T) {
	ctx := context.Background()
	svc, backend := newTestServices(t)

	_, err := DraftAddItem(ctx, svc, ItemInput{Name: "A", Quantity: 1, UnitPrice: 10})
	require.NoError(t, err)

	backend.FailPuts = fmt.Errorf("disk full")
	_, err = DraftAddItem(ctx, svc, ItemInput{Name: "B", Quantity: 1, UnitPrice: 10})
	require.True(t, errors.Is(err, errors.ErrStorage))
	backend.FailPuts = nil

	d, err := DraftShow(ctx, svc)
	require.NoError(t, err)
	require.Len(t, d.Items, 1)
}
