package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/stablebuilds/quoter/internal/business"
	"github.com/stablebuilds/quoter/internal/errors"
	"github.com/stablebuilds/quoter/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	svc *ops.Services
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(svc *ops.Services) *Handlers {
	return &Handlers{svc: svc}
}

// Request types for each tool

// ItemRequest is one line item. Numbers may arrive as JSON numbers or strings.
type ItemRequest struct {
	Name      any `json:"name"`
	Quantity  any `json:"quantity"`
	UnitPrice any `json:"unit_price"`
}

func (r ItemRequest) input() ops.ItemInput {
	return ops.ItemInput{Name: r.Name, Quantity: r.Quantity, UnitPrice: r.UnitPrice}
}

// RemoveItemRequest represents the arguments for draft_remove_item.
type RemoveItemRequest struct {
	Index *int `json:"index"`
}

// SetItemsRequest represents the arguments for draft_set_items.
type SetItemsRequest struct {
	Items []ItemRequest `json:"items"`
}

// ConfigureRequest represents the arguments for draft_configure.
type ConfigureRequest struct {
	TaxRatePercent any `json:"tax_rate_percent,omitempty"`
	DiscountMode   any `json:"discount_mode,omitempty"`
	DiscountValue  any `json:"discount_value,omitempty"`
	Deposit        any `json:"deposit,omitempty"`
}

// SetMetaRequest represents the arguments for draft_set_meta.
type SetMetaRequest struct {
	ClientID      *string `json:"client_id,omitempty"`
	Date          *string `json:"date,omitempty"`
	PaymentMethod *string `json:"payment_method,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

// SaveRequest represents the arguments for draft_save.
type SaveRequest struct {
	Status string `json:"status,omitempty"`
	Force  bool   `json:"force,omitempty"`
}

// FolioRequest addresses one saved quotation.
type FolioRequest struct {
	Folio string `json:"folio"`
}

// QuotationListRequest represents the arguments for quotation_list.
type QuotationListRequest struct {
	Status string `json:"status,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// RenderRequest represents the arguments for quotation_render.
type RenderRequest struct {
	Folio string `json:"folio"`
	Path  string `json:"path,omitempty"`
}

// ClientListRequest represents the arguments for client_list.
type ClientListRequest struct {
	Query  string `json:"query,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// ClientSaveRequest represents the arguments for client_save.
type ClientSaveRequest struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Type    string `json:"type,omitempty"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

// ClientDeleteRequest represents the arguments for client_delete.
type ClientDeleteRequest struct {
	ID string `json:"id"`
}

// PathRequest carries a file path for import and export.
type PathRequest struct {
	Path string `json:"path,omitempty"`
}

// Handler implementations

// HandleDraftNew handles the draft_new tool call.
func (h *Handlers) HandleDraftNew(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return respond(ops.DraftNew(ctx, h.svc))
}

// HandleDraftShow handles the draft_show tool call.
func (h *Handlers) HandleDraftShow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return respond(ops.DraftShow(ctx, h.svc))
}

// HandleDraftAddItem handles the draft_add_item tool call.
func (h *Handlers) HandleDraftAddItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ItemRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	return respond(ops.DraftAddItem(ctx, h.svc, input.input()))
}

// HandleDraftRemoveItem handles the draft_remove_item tool call.
func (h *Handlers) HandleDraftRemoveItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RemoveItemRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if input.Index == nil {
		return errorResult(errors.NewInvalidRequest("index is required")), nil
	}
	return respond(ops.DraftRemoveItem(ctx, h.svc, ops.DraftRemoveItemInput{Index: *input.Index}))
}

// HandleDraftSetItems handles the draft_set_items tool call.
func (h *Handlers) HandleDraftSetItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SetItemsRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	items := make([]ops.ItemInput, len(input.Items))
	for i, it := range input.Items {
		items[i] = it.input()
	}
	return respond(ops.DraftSetItems(ctx, h.svc, ops.DraftSetItemsInput{Items: items}))
}

// HandleDraftConfigure handles the draft_configure tool call.
func (h *Handlers) HandleDraftConfigure(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ConfigureRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	return respond(ops.DraftConfigure(ctx, h.svc, ops.DraftConfigureInput{
		TaxRatePercent: input.TaxRatePercent,
		DiscountMode:   input.DiscountMode,
		DiscountValue:  input.DiscountValue,
		Deposit:        input.Deposit,
	}))
}

// HandleDraftSetMeta handles the draft_set_meta tool call.
func (h *Handlers) HandleDraftSetMeta(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SetMetaRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	return respond(ops.DraftSetMeta(ctx, h.svc, ops.MetaInput{
		ClientID:      input.ClientID,
		Date:          input.Date,
		PaymentMethod: input.PaymentMethod,
		Notes:         input.Notes,
	}))
}

// HandleDraftUndo handles the draft_undo tool call.
func (h *Handlers) HandleDraftUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return respond(ops.DraftUndo(ctx, h.svc))
}

// HandleDraftRedo handles the draft_redo tool call.
func (h *Handlers) HandleDraftRedo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return respond(ops.DraftRedo(ctx, h.svc))
}

// HandleDraftValidate handles the draft_validate tool call.
func (h *Handlers) HandleDraftValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return respond(ops.DraftValidate(ctx, h.svc))
}

// HandleDraftSave handles the draft_save tool call.
func (h *Handlers) HandleDraftSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SaveRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	return respond(ops.DraftSave(ctx, h.svc, ops.DraftSaveInput{Status: input.Status, Force: input.Force}))
}

// HandleDraftLoad handles the draft_load tool call.
func (h *Handlers) HandleDraftLoad(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FolioRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	return respond(ops.DraftLoad(ctx, h.svc, ops.DraftLoadInput{Folio: input.Folio}))
}

// HandleQuotationList handles the quotation_list tool call.
func (h *Handlers) HandleQuotationList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[QuotationListRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	return respond(ops.ListQuotations(ctx, h.svc, ops.ListQuotationsInput{
		Status: input.Status,
		Limit:  input.Limit,
		Offset: input.Offset,
	}))
}

// HandleQuotationGet handles the quotation_get tool call.
func (h *Handlers) HandleQuotationGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FolioRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	return respond(ops.GetQuotation(ctx, h.svc, ops.GetQuotationInput{Folio: input.Folio}))
}

// HandleQuotationDelete handles the quotation_delete tool call.
func (h *Handlers) HandleQuotationDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FolioRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	return respond(ops.DeleteQuotation(ctx, h.svc, ops.DeleteQuotationInput{Folio: input.Folio}))
}

// HandleQuotationNextFolio handles the quotation_next_folio tool call.
func (h *Handlers) HandleQuotationNextFolio(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return respond(ops.NextFolio(ctx, h.svc))
}

// HandleQuotationRender handles the quotation_render tool call.
func (h *Handlers) HandleQuotationRender(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RenderRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	return respond(ops.RenderQuotation(ctx, h.svc, ops.RenderQuotationInput{Folio: input.Folio, Path: input.Path}))
}

// HandleClientList handles the client_list tool call.
func (h *Handlers) HandleClientList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ClientListRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	return respond(ops.ListClients(ctx, h.svc, ops.ListClientsInput{
		Query:  input.Query,
		Limit:  input.Limit,
		Offset: input.Offset,
	}))
}

// HandleClientSave handles the client_save tool call.
func (h *Handlers) HandleClientSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ClientSaveRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	return respond(ops.SaveClient(ctx, h.svc, ops.SaveClientInput{
		ID:      input.ID,
		Name:    input.Name,
		Type:    input.Type,
		Address: input.Address,
		Phone:   input.Phone,
		Email:   input.Email,
	}))
}

// HandleClientDelete handles the client_delete tool call.
func (h *Handlers) HandleClientDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ClientDeleteRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	return respond(ops.DeleteClient(ctx, h.svc, ops.DeleteClientInput{ID: input.ID}))
}

// HandleClientImport handles the client_import tool call.
func (h *Handlers) HandleClientImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PathRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	return respond(ops.ImportClients(ctx, h.svc, ops.ImportClientsInput{Path: input.Path}))
}

// HandleClientExport handles the client_export tool call.
func (h *Handlers) HandleClientExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PathRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	return respond(ops.ExportClients(ctx, h.svc, ops.ExportClientsInput{Path: input.Path}))
}

// HandleBusinessGet handles the business_get tool call.
func (h *Handlers) HandleBusinessGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return respond(ops.GetBusiness(ctx, h.svc))
}

// HandleBusinessSave handles the business_save tool call.
func (h *Handlers) HandleBusinessSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	patch, err := decode[business.Patch](req)
	if err != nil {
		return errorResult(err), nil
	}
	return respond(ops.UpdateBusiness(ctx, h.svc, patch))
}

// Result helpers

// respond turns an operation's return values into a tool result.
func respond[T any](out T, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if qErr, ok := errors.As(err); ok {
		msg := qErr.Message
		// Keep wrapper context added on the way up.
		if outer := err.Error(); outer != qErr.Error() {
			msg = strings.TrimSuffix(outer, qErr.Error()) + qErr.Message
		}
		errorObj := map[string]any{
			"code":    qErr.Code,
			"message": msg,
			"status":  qErr.Status,
		}
		// Details of internal errors may carry file paths or SQL errors.
		if qErr.Code != errors.ErrInternal && qErr.Details != nil {
			errorObj["details"] = qErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
