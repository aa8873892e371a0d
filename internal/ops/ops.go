// Package ops implements the operations behind the CLI, MCP and web surfaces.
// Each operation takes an XxxInput and returns an XxxOutput.
package ops

import (
	"time"

	"github.com/stablebuilds/quoter/internal/business"
	"github.com/stablebuilds/quoter/internal/client"
	"github.com/stablebuilds/quoter/internal/config"
	"github.com/stablebuilds/quoter/internal/document"
	"github.com/stablebuilds/quoter/internal/document/gofpdf"
	"github.com/stablebuilds/quoter/internal/quotation"
	"github.com/stablebuilds/quoter/internal/store"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// page clamps limit/offset and returns the bounds of the requested window.
func page(total, limit, offset int) (start, end int, p Pagination) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset = max(offset, 0)
	start = min(offset, total)
	end = min(start+limit, total)
	return start, end, Pagination{
		Limit:   limit,
		Offset:  offset,
		HasMore: end < total,
		Total:   total,
	}
}

// Services holds the stores every operation works against.
type Services struct {
	Config     *config.Config
	Quotations *quotation.Store
	Clients    *client.Registry
	Business   *business.Store
	Workbench  *Workbench
	Renderer   document.Generator

	now func() time.Time
}

// Option configures Services.
type Option func(*Services)

// WithClock overrides time.Now for every store.
func WithClock(now func() time.Time) Option {
	return func(s *Services) { s.now = now }
}

// WithRenderer replaces the PDF generator.
func WithRenderer(g document.Generator) Option {
	return func(s *Services) { s.Renderer = g }
}

// NewServices wires the stores over one backend.
func NewServices(backend store.Backend, cfg *config.Config, opts ...Option) *Services {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := &Services{
		Config:   cfg,
		Renderer: gofpdf.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.Quotations = quotation.NewStore(backend,
		quotation.WithPrefix(cfg.FolioPrefix),
		quotation.WithClock(s.now))
	s.Clients = client.NewRegistry(backend, client.WithClock(s.now))
	s.Business = business.NewStore(backend)
	s.Workbench = NewWorkbench(backend, s.Quotations, s.Clients, cfg, s.now)
	return s
}

// Refresh drops the cached quotation and client lists. Long-running
// surfaces call it per request so CLI writes from other processes show up.
func (s *Services) Refresh() {
	s.Quotations.Refresh()
	s.Clients.Refresh()
}
