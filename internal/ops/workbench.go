package ops

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/stablebuilds/quoter/internal/client"
	"github.com/stablebuilds/quoter/internal/config"
	"github.com/stablebuilds/quoter/internal/errors"
	"github.com/stablebuilds/quoter/internal/logger"
	"github.com/stablebuilds/quoter/internal/quotation"
	"github.com/stablebuilds/quoter/internal/quote"
	"github.com/stablebuilds/quoter/internal/store"
)

// DraftKey is the storage key of the working quotation.
const DraftKey = "draft"

// ClientDirectory resolves client references for the working quotation.
type ClientDirectory interface {
	Get(ctx context.Context, id string) (client.Record, error)
}

// Draft is the persisted working quotation: its metadata plus the engine
// history, so undo and redo survive between processes.
type Draft struct {
	Folio         string          `json:"folio"`
	ClientID      string          `json:"client_id,omitempty"`
	Client        quotation.Party `json:"client"`
	Date          string          `json:"date"`
	PaymentMethod string          `json:"payment_method"`
	Notes         string          `json:"notes,omitempty"`
	Session       quote.Session   `json:"session"`
}

// DraftView is the working quotation as shown to callers.
type DraftView struct {
	Folio          string                 `json:"folio"`
	ClientID       string                 `json:"client_id,omitempty"`
	Client         quotation.Party        `json:"client"`
	Date           string                 `json:"date"`
	PaymentMethod  string                 `json:"payment_method"`
	Notes          string                 `json:"notes,omitempty"`
	Items          []quote.LineItem       `json:"items"`
	TaxRatePercent float64                `json:"tax_rate_percent"`
	DiscountMode   quote.DiscountMode     `json:"discount_mode"`
	DiscountValue  float64                `json:"discount_value"`
	Deposit        float64                `json:"deposit"`
	Totals         quote.Totals           `json:"totals"`
	CanUndo        bool                   `json:"can_undo"`
	CanRedo        bool                   `json:"can_redo"`
	Validation     quote.ValidationResult `json:"validation"`
}

// Workbench owns the lifecycle of the single working quotation: created
// fresh or from a stored record, mutated through the engine, saved, then
// replaced by a new one. Every call loads, applies and persists under one lock.
type Workbench struct {
	mu         sync.Mutex
	doc        *store.Document[Draft]
	quotations *quotation.Store
	clients    ClientDirectory
	cfg        *config.Config
	now        func() time.Time
}

// NewWorkbench binds the working quotation to backend.
func NewWorkbench(backend store.Backend, quotations *quotation.Store, clients ClientDirectory, cfg *config.Config, now func() time.Time) *Workbench {
	if now == nil {
		now = time.Now
	}
	return &Workbench{
		doc:        store.NewDocument[Draft](backend, DraftKey),
		quotations: quotations,
		clients:    clients,
		cfg:        cfg,
		now:        now,
	}
}

func (w *Workbench) engineOptions() []quote.Option {
	return []quote.Option{
		quote.WithHistoryLimit(w.cfg.HistoryLimit),
		quote.WithDefaults(w.cfg.TaxRate(), 0, 0),
	}
}

// New discards the working quotation and starts an empty one with the next
// folio and today's date.
func (w *Workbench) New(ctx context.Context) (*DraftView, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	d, e, err := w.fresh(ctx)
	if err != nil {
		return nil, err
	}
	if err := w.persist(ctx, d, e); err != nil {
		return nil, err
	}
	return view(d, e), nil
}

// Current returns the working quotation, starting one if none exists.
func (w *Workbench) Current(ctx context.Context) (*DraftView, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	d, e, created, err := w.load(ctx)
	if err != nil {
		return nil, err
	}
	if created {
		if err := w.persist(ctx, d, e); err != nil {
			return nil, err
		}
	}
	return view(d, e), nil
}

// Mutate applies fn to the engine and persists the result. fn reports
// whether anything changed; unchanged drafts are not rewritten.
func (w *Workbench) Mutate(ctx context.Context, fn func(e *quote.Engine) bool) (*DraftView, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	d, e, created, err := w.load(ctx)
	if err != nil {
		return nil, false, err
	}
	changed := fn(e)
	if changed || created {
		if err := w.persist(ctx, d, e); err != nil {
			return nil, false, err
		}
	}
	return view(d, e), changed, nil
}

// Snapshot returns the working quotation's folio and engine state.
func (w *Workbench) Snapshot(ctx context.Context) (string, quote.Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	d, e, created, err := w.load(ctx)
	if err != nil {
		return "", quote.Snapshot{}, err
	}
	if created {
		if err := w.persist(ctx, d, e); err != nil {
			return "", quote.Snapshot{}, err
		}
	}
	return d.Folio, e.ExportSnapshot(), nil
}

// MetaInput updates quotation metadata. Nil fields are left alone; an empty
// ClientID detaches the client.
type MetaInput struct {
	ClientID      *string
	Date          *string
	PaymentMethod *string
	Notes         *string
}

// SetMeta updates the client, date, payment method or notes.
func (w *Workbench) SetMeta(ctx context.Context, in MetaInput) (*DraftView, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	d, e, _, err := w.load(ctx)
	if err != nil {
		return nil, err
	}

	if in.ClientID != nil {
		id := strings.TrimSpace(*in.ClientID)
		if id == "" {
			d.ClientID = ""
			d.Client = quotation.Party{}
		} else {
			c, err := w.clients.Get(ctx, id)
			if err != nil {
				return nil, err
			}
			d.ClientID = c.ID
			d.Client = partyOf(c)
		}
	}
	if in.Date != nil {
		date := strings.TrimSpace(*in.Date)
		if _, err := time.Parse(quotation.DateLayout, date); err != nil {
			return nil, errors.NewInvalidRequest("date must be YYYY-MM-DD")
		}
		d.Date = date
	}
	if in.PaymentMethod != nil {
		d.PaymentMethod = strings.TrimSpace(*in.PaymentMethod)
	}
	if in.Notes != nil {
		d.Notes = strings.TrimSpace(*in.Notes)
	}

	if err := w.persist(ctx, d, e); err != nil {
		return nil, err
	}
	return view(d, e), nil
}

// Save stores the working quotation under its folio and starts a new one.
// Drafts always save; approving requires a valid quotation unless force is set.
func (w *Workbench) Save(ctx context.Context, status quotation.Status, force bool) (quotation.Record, *DraftView, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	d, e, _, err := w.load(ctx)
	if err != nil {
		return quotation.Record{}, nil, err
	}

	if status == quotation.StatusApproved && !force {
		if res := e.Validate(); !res.Valid {
			return quotation.Record{}, nil, errors.NewValidationFailed(res.Errors)
		}
	}

	rec := quotation.Record{
		Folio:         d.Folio,
		ClientID:      d.ClientID,
		Client:        d.Client,
		Date:          d.Date,
		PaymentMethod: d.PaymentMethod,
		Notes:         d.Notes,
		Status:        status,
	}
	rec.ApplySnapshot(e.ExportSnapshot())

	saved, err := w.quotations.Upsert(ctx, rec)
	if err != nil {
		return quotation.Record{}, nil, err
	}
	logger.Log.Info().Str("folio", saved.Folio).Str("status", string(saved.Status)).Msg("quotation saved")

	next, ne, err := w.fresh(ctx)
	if err != nil {
		return saved, nil, err
	}
	if err := w.persist(ctx, next, ne); err != nil {
		return saved, nil, err
	}
	return saved, view(next, ne), nil
}

// Load makes a stored quotation the working one, with a fresh history.
func (w *Workbench) Load(ctx context.Context, folio string) (*DraftView, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	rec, err := w.quotations.Get(ctx, folio)
	if err != nil {
		return nil, err
	}
	e := quote.FromSnapshot(rec.Snapshot(), w.engineOptions()...)
	d := Draft{
		Folio:         rec.Folio,
		ClientID:      rec.ClientID,
		Client:        rec.Client,
		Date:          rec.Date,
		PaymentMethod: rec.PaymentMethod,
		Notes:         rec.Notes,
	}
	if err := w.persist(ctx, d, e); err != nil {
		return nil, err
	}
	return view(d, e), nil
}

// Discard drops the working quotation. Returns false if there was none.
func (w *Workbench) Discard(ctx context.Context) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.doc.Delete(ctx)
}

func (w *Workbench) fresh(ctx context.Context) (Draft, *quote.Engine, error) {
	folio, err := w.quotations.NextFolio(ctx)
	if err != nil {
		return Draft{}, nil, err
	}
	d := Draft{
		Folio:         folio,
		Date:          w.now().Format(quotation.DateLayout),
		PaymentMethod: w.cfg.DefaultPaymentMethod,
	}
	return d, quote.New(w.engineOptions()...), nil
}

// load returns the stored draft, or a fresh one when none exists.
func (w *Workbench) load(ctx context.Context) (Draft, *quote.Engine, bool, error) {
	d, found, err := w.doc.Get(ctx, Draft{})
	if err != nil {
		return Draft{}, nil, false, err
	}
	if !found {
		d, e, err := w.fresh(ctx)
		return d, e, true, err
	}
	return d, quote.Resume(d.Session, w.engineOptions()...), false, nil
}

func (w *Workbench) persist(ctx context.Context, d Draft, e *quote.Engine) error {
	d.Session = e.Session()
	return w.doc.Put(ctx, d)
}

func view(d Draft, e *quote.Engine) *DraftView {
	mode, value := e.Discount()
	return &DraftView{
		Folio:          d.Folio,
		ClientID:       d.ClientID,
		Client:         d.Client,
		Date:           d.Date,
		PaymentMethod:  d.PaymentMethod,
		Notes:          d.Notes,
		Items:          e.Items(),
		TaxRatePercent: e.TaxRatePercent(),
		DiscountMode:   mode,
		DiscountValue:  value,
		Deposit:        e.Deposit(),
		Totals:         e.Totals().Rounded(),
		CanUndo:        e.CanUndo(),
		CanRedo:        e.CanRedo(),
		Validation:     e.Validate(),
	}
}

func partyOf(c client.Record) quotation.Party {
	return quotation.Party{
		Name:    c.Name,
		Type:    c.Type,
		Address: c.Address,
		Phone:   c.Phone,
		Email:   c.Email,
	}
}
