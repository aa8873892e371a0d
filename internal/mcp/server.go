package mcp

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/stablebuilds/quoter/internal/logger"
	"github.com/stablebuilds/quoter/internal/ops"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"draft", "quotation", "client", "business"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"draft_new": {
		def:     draftNewToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDraftNew },
	},
	"draft_show": {
		def:     draftShowToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDraftShow },
	},
	"draft_add_item": {
		def:     draftAddItemToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDraftAddItem },
	},
	"draft_remove_item": {
		def:     draftRemoveItemToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDraftRemoveItem },
	},
	"draft_set_items": {
		def:     draftSetItemsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDraftSetItems },
	},
	"draft_configure": {
		def:     draftConfigureToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDraftConfigure },
	},
	"draft_set_meta": {
		def:     draftSetMetaToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDraftSetMeta },
	},
	"draft_undo": {
		def:     draftUndoToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDraftUndo },
	},
	"draft_redo": {
		def:     draftRedoToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDraftRedo },
	},
	"draft_validate": {
		def:     draftValidateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDraftValidate },
	},
	"draft_save": {
		def:     draftSaveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDraftSave },
	},
	"draft_load": {
		def:     draftLoadToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDraftLoad },
	},
	"quotation_list": {
		def:     quotationListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleQuotationList },
	},
	"quotation_get": {
		def:     quotationGetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleQuotationGet },
	},
	"quotation_delete": {
		def:     quotationDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleQuotationDelete },
	},
	"quotation_next_folio": {
		def:     quotationNextFolioToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleQuotationNextFolio },
	},
	"quotation_render": {
		def:     quotationRenderToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleQuotationRender },
	},
	"client_list": {
		def:     clientListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleClientList },
	},
	"client_save": {
		def:     clientSaveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleClientSave },
	},
	"client_delete": {
		def:     clientDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleClientDelete },
	},
	"client_import": {
		def:     clientImportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleClientImport },
	},
	"client_export": {
		def:     clientExportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleClientExport },
	},
	"business_get": {
		def:     businessGetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleBusinessGet },
	},
	"business_save": {
		def:     businessSaveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleBusinessSave },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns a list of unknown type names from the given list.
func ValidateDisabledTypes(names []string) []string {
	known := make(map[string]bool, len(KnownTypes))
	for _, t := range KnownTypes {
		known[t] = true
	}

	unknown := make([]string, 0)
	for _, name := range names {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type name from a tool name.
// Tool names follow the pattern "type_action" (e.g., "client_save" → "client").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}

	// Build set of types for O(1) lookup
	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	// Collect tools belonging to disabled types
	tools := make([]string, 0)
	for name := range toolRegistry {
		typ := GetTypeForTool(name)
		if typeSet[typ] {
			tools = append(tools, name)
		}
	}
	return tools
}

// NewServer creates a new MCP server with the quotation tools registered.
// Tools listed in cfg.DisabledTools or belonging to cfg.DisabledTypes
// are excluded from registration.
func NewServer(svc *ops.Services, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"quoter",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(svc)
	disabled := disabledTools(svc.Config.DisabledTools, svc.Config.DisabledTypes)

	// Register tools (skip disabled)
	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, withRefresh(svc, entry.handler(h)))
	}

	return s
}

// disabledTools expands disabled types into tool names and adds the
// individually disabled tools. Unknown names are logged and ignored.
func disabledTools(tools, types []string) map[string]bool {
	if unknown := ValidateDisabledTypes(types); len(unknown) > 0 {
		logger.Log.Warn().Strs("types", unknown).Msg("config: unknown disabled_types ignored")
	}
	if unknown := ValidateDisabledTools(tools); len(unknown) > 0 {
		logger.Log.Warn().Strs("tools", unknown).Msg("config: unknown disabled_tools ignored")
	}

	disabled := make(map[string]bool)
	for _, name := range ExpandTypesToTools(types) {
		disabled[name] = true
	}
	for _, name := range tools {
		disabled[name] = true
	}
	return disabled
}

// withRefresh drops store caches before each call so the server sees
// changes made through the CLI while it runs.
func withRefresh(svc *ops.Services, next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		svc.Refresh()
		return next(ctx, req)
	}
}

// Run starts the MCP server using stdio transport.
func Run(svc *ops.Services, version string) error {
	s := NewServer(svc, version)
	return server.ServeStdio(s)
}
