package quotation

import (
	"context"
	"strings"
	"time"

	"github.com/stablebuilds/quoter/internal/errors"
	"github.com/stablebuilds/quoter/internal/folio"
	"github.com/stablebuilds/quoter/internal/quote"
	"github.com/stablebuilds/quoter/internal/store"
)

// CollectionName is the storage key of the quotation list.
const CollectionName = "quotations"

// Store keeps quotation records in insertion order.
type Store struct {
	records   *store.Collection[Record]
	sequencer folio.Sequencer
	now       func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets the folio prefix used by NextFolio.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.sequencer.Prefix = prefix }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore binds a quotation store to backend.
func NewStore(backend store.Backend, opts ...Option) *Store {
	s := &Store{
		records: store.NewCollection(backend, CollectionName, func(r Record) string { return r.Folio }),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh drops cached records so the next read sees writes made by other
// processes.
func (s *Store) Refresh() {
	s.records.Refresh()
}

// Upsert replaces the record with the same folio, or appends it.
// CreatedAt is kept from the existing record; UpdatedAt is set to now.
func (s *Store) Upsert(ctx context.Context, r Record) (Record, error) {
	r.Folio = strings.TrimSpace(r.Folio)
	if r.Folio == "" {
		return Record{}, errors.NewInvalidRequest("folio is required")
	}
	if r.Status == "" {
		r.Status = StatusDraft
	}
	if r.Items == nil {
		r.Items = []quote.LineItem{}
	}
	now := s.now().Unix()
	r.UpdatedAt = now

	err := s.records.Update(ctx, func(records []Record) ([]Record, error) {
		for i := range records {
			if records[i].Folio == r.Folio {
				r.CreatedAt = records[i].CreatedAt
				records[i] = r
				return records, nil
			}
		}
		r.CreatedAt = now
		return append(records, r), nil
	})
	if err != nil {
		return Record{}, err
	}
	return r, nil
}

// List returns every record in insertion order.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	return s.records.All(ctx)
}

// Get returns the record for folio or a NOT_FOUND error.
func (s *Store) Get(ctx context.Context, folioID string) (Record, error) {
	r, found, err := s.records.FindByID(ctx, folioID)
	if err != nil {
		return Record{}, err
	}
	if !found {
		return Record{}, errors.NewNotFound("quotation", folioID)
	}
	return r, nil
}

// Remove deletes the record for folio. Returns false if none existed.
func (s *Store) Remove(ctx context.Context, folioID string) (bool, error) {
	return s.records.Delete(ctx, folioID)
}

// Folios returns every stored folio.
func (s *Store) Folios(ctx context.Context) ([]string, error) {
	records, err := s.records.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Folio
	}
	return out, nil
}

// NextFolio returns the next free folio for the current month.
func (s *Store) NextFolio(ctx context.Context) (string, error) {
	folios, err := s.Folios(ctx)
	if err != nil {
		return "", err
	}
	return s.sequencer.Next(folios, s.now()), nil
}

// Now returns the store's clock reading.
func (s *Store) Now() time.Time {
	return s.now()
}
