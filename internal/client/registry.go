package client

import (
	"context"
	"crypto/rand"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"

	"github.com/stablebuilds/quoter/internal/errors"
	"github.com/stablebuilds/quoter/internal/logger"
	"github.com/stablebuilds/quoter/internal/store"
)

// CollectionName is the storage key of the client list.
const CollectionName = "clients"

// Registry owns the client records.
type Registry struct {
	records  *store.Collection[Record]
	validate *validator.Validate
	now      func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// NewRegistry binds the client registry to backend.
func NewRegistry(backend store.Backend, opts ...Option) *Registry {
	r := &Registry{
		records:  store.NewCollection(backend, CollectionName, func(c Record) string { return c.ID }),
		validate: defaultValidator,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FindAll returns every client sorted by name, case-insensitively.
func (r *Registry) FindAll(ctx context.Context) ([]Record, error) {
	all, err := r.records.All(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool {
		return strings.ToLower(all[i].Name) < strings.ToLower(all[j].Name)
	})
	return all, nil
}

// Search returns clients whose name or email contains term, ignoring case.
// An empty term matches everything.
func (r *Registry) Search(ctx context.Context, term string) ([]Record, error) {
	all, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return all, nil
	}
	out := []Record{}
	for _, c := range all {
		if strings.Contains(strings.ToLower(c.Name), needle) ||
			strings.Contains(strings.ToLower(c.Email), needle) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Get returns the client with id or a NOT_FOUND error.
func (r *Registry) Get(ctx context.Context, id string) (Record, error) {
	c, found, err := r.records.FindByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if !found {
		return Record{}, errors.NewNotFound("client", id)
	}
	return c, nil
}

// Save resolves in against the existing clients and either merges into the
// match or inserts a new record. The resulting record must pass Validate;
// otherwise nothing is written and a VALIDATION_FAILED error is returned.
func (r *Registry) Save(ctx context.Context, in Record) (Record, error) {
	in = in.trimmed()
	now := r.now().UTC()
	var saved Record

	err := r.records.Update(ctx, func(records []Record) ([]Record, error) {
		idx := -1
		for i := range records {
			if records[i].matches(in) {
				idx = i
				break
			}
		}

		if idx >= 0 {
			saved = records[idx].merge(in)
			saved.UpdatedAt = now
		} else {
			saved = in
			if saved.ID == "" {
				saved.ID = newID(now)
			}
			if saved.CreatedAt.IsZero() {
				saved.CreatedAt = now
			}
			saved.UpdatedAt = now
		}

		if msgs := validate(r.validate, saved); len(msgs) > 0 {
			return nil, errors.NewValidationFailed(msgs)
		}

		if idx >= 0 {
			records[idx] = saved
			return records, nil
		}
		return append(records, saved), nil
	})
	if err != nil {
		return Record{}, err
	}

	logger.Log.Debug().Str("client_id", saved.ID).Msg("client saved")
	return saved, nil
}

// Remove deletes the client with id. Returns false if none existed.
func (r *Registry) Remove(ctx context.Context, id string) (bool, error) {
	return r.records.Delete(ctx, id)
}

// Refresh drops cached records.
func (r *Registry) Refresh() {
	r.records.Refresh()
}

func newID(now time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(now), entropy).String()
}
