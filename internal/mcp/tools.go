package mcp

import "github.com/mark3labs/mcp-go/mcp"

var itemSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"name":       map[string]any{"type": "string"},
		"quantity":   map[string]any{"type": "number"},
		"unit_price": map[string]any{"type": "number"},
	},
	"required": []string{"name", "quantity", "unit_price"},
}

// Working quotation

var draftNewToolDef = mcp.NewTool("draft_new",
	mcp.WithDescription("Start a new working quotation with the next folio and today's date. Discards the current one."),
)

var draftShowToolDef = mcp.NewTool("draft_show",
	mcp.WithDescription("Show the working quotation: metadata, items, configuration, totals and validation."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var draftAddItemToolDef = mcp.NewTool("draft_add_item",
	mcp.WithDescription("Append a line item to the working quotation."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Item description")),
	mcp.WithNumber("quantity", mcp.Required(), mcp.Description("Quantity, must be greater than 0")),
	mcp.WithNumber("unit_price", mcp.Required(), mcp.Description("Unit price, must not be negative")),
)

var draftRemoveItemToolDef = mcp.NewTool("draft_remove_item",
	mcp.WithDescription("Remove the line item at a zero-based index. An out-of-range index changes nothing."),
	mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based item index")),
)

var draftSetItemsToolDef = mcp.NewTool("draft_set_items",
	mcp.WithDescription("Replace every line item of the working quotation."),
	mcp.WithArray("items", mcp.Required(), mcp.Description("Line items"), mcp.Items(itemSchema)),
)

var draftConfigureToolDef = mcp.NewTool("draft_configure",
	mcp.WithDescription("Update tax rate, discount and deposit. Omitted fields keep their value."),
	mcp.WithNumber("tax_rate_percent", mcp.Description("Tax rate, 0-100")),
	mcp.WithString("discount_mode", mcp.Enum("fixed", "percentage"), mcp.Description("How discount_value is applied")),
	mcp.WithNumber("discount_value", mcp.Description("Fixed amount or percentage of the subtotal")),
	mcp.WithNumber("deposit", mcp.Description("Amount already paid")),
)

var draftSetMetaToolDef = mcp.NewTool("draft_set_meta",
	mcp.WithDescription("Set the client, date, payment method or notes of the working quotation."),
	mcp.WithString("client_id", mcp.Description("Client ID; empty string detaches the client")),
	mcp.WithString("date", mcp.Description("Quotation date, YYYY-MM-DD")),
	mcp.WithString("payment_method", mcp.Description("Payment method")),
	mcp.WithString("notes", mcp.Description("Notes (Markdown)")),
)

var draftUndoToolDef = mcp.NewTool("draft_undo",
	mcp.WithDescription("Undo the last change to the working quotation."),
)

var draftRedoToolDef = mcp.NewTool("draft_redo",
	mcp.WithDescription("Redo the last undone change to the working quotation."),
)

var draftValidateToolDef = mcp.NewTool("draft_validate",
	mcp.WithDescription("List every rule the working quotation breaks."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var draftSaveToolDef = mcp.NewTool("draft_save",
	mcp.WithDescription("Save the working quotation under its folio and start the next one. Approving requires a valid quotation unless force is set."),
	mcp.WithString("status", mcp.Enum("draft", "approved"), mcp.Description("Status to save with (default: draft)")),
	mcp.WithBoolean("force", mcp.Description("Approve even if validation fails")),
)

var draftLoadToolDef = mcp.NewTool("draft_load",
	mcp.WithDescription("Make a saved quotation the working one."),
	mcp.WithString("folio", mcp.Required(), mcp.Description("Quotation folio, e.g. COT-202501-001")),
)

// Saved quotations

var quotationListToolDef = mcp.NewTool("quotation_list",
	mcp.WithDescription("List saved quotations in the order they were first saved."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("status", mcp.Enum("draft", "approved"), mcp.Description("Filter by status")),
	mcp.WithNumber("limit", mcp.Description("Max results (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Results to skip")),
)

var quotationGetToolDef = mcp.NewTool("quotation_get",
	mcp.WithDescription("Get a saved quotation by folio."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("folio", mcp.Required(), mcp.Description("Quotation folio")),
)

var quotationDeleteToolDef = mcp.NewTool("quotation_delete",
	mcp.WithDescription("Delete a saved quotation."),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithString("folio", mcp.Required(), mcp.Description("Quotation folio")),
)

var quotationNextFolioToolDef = mcp.NewTool("quotation_next_folio",
	mcp.WithDescription("Show the folio the next new quotation would get."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var quotationRenderToolDef = mcp.NewTool("quotation_render",
	mcp.WithDescription("Render a saved quotation to a PDF file."),
	mcp.WithString("folio", mcp.Required(), mcp.Description("Quotation folio")),
	mcp.WithString("path", mcp.Description("Output .pdf path (default: ~/.quoter/exports/<document name>)")),
)

// Clients

var clientListToolDef = mcp.NewTool("client_list",
	mcp.WithDescription("List clients sorted by name, optionally filtered by name or email."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("query", mcp.Description("Case-insensitive name or email fragment")),
	mcp.WithNumber("limit", mcp.Description("Max results (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Results to skip")),
)

var clientSaveToolDef = mcp.NewTool("client_save",
	mcp.WithDescription("Create a client, or merge into the existing one with the same id, email, or name and phone."),
	mcp.WithString("id", mcp.Description("Existing client ID")),
	mcp.WithString("name", mcp.Required(), mcp.Description("Client name, at least 2 characters")),
	mcp.WithString("type", mcp.Description("Client type, e.g. company or individual")),
	mcp.WithString("address", mcp.Description("Address")),
	mcp.WithString("phone", mcp.Description("Phone, at least 8 digits")),
	mcp.WithString("email", mcp.Description("Email")),
)

var clientDeleteToolDef = mcp.NewTool("client_delete",
	mcp.WithDescription("Delete a client. Saved quotations keep their copy of the client's details."),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithString("id", mcp.Required(), mcp.Description("Client ID")),
)

var clientImportToolDef = mcp.NewTool("client_import",
	mcp.WithDescription("Import clients from a CSV file. Rows are saved independently; failures are listed by line."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Path to a .csv file")),
)

var clientExportToolDef = mcp.NewTool("client_export",
	mcp.WithDescription("Export every client to a CSV file."),
	mcp.WithString("path", mcp.Description("Output .csv path (default: ~/.quoter/exports/clients-<timestamp>.csv)")),
)

// Business profile

var businessGetToolDef = mcp.NewTool("business_get",
	mcp.WithDescription("Get the business identity printed on quotations."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var businessSaveToolDef = mcp.NewTool("business_save",
	mcp.WithDescription("Update the business identity. Omitted fields keep their value."),
	mcp.WithString("name", mcp.Description("Business name")),
	mcp.WithString("address", mcp.Description("Address")),
	mcp.WithString("phone", mcp.Description("Phone")),
	mcp.WithString("email", mcp.Description("Email")),
	mcp.WithString("web", mcp.Description("Website")),
	mcp.WithString("logo", mcp.Description("PNG or JPEG as a data URL or base64; empty string removes it")),
)
