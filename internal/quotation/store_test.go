package quotation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stablebuilds/quoter/internal/db"
	"github.com/stablebuilds/quoter/internal/errors"
	"github.com/stablebuilds/quoter/internal/quote"
	"github.com/stablebuilds/quoter/internal/store"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestStore(t *testing.T) (*Store, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2025, time.January, 10, 9, 0, 0, 0, time.UTC)}
	return NewStore(store.NewMemoryBackend(), WithClock(c.now)), c
}

func TestStore_UpsertAppendsAndReplaces(t *testing.T) {
	ctx := context.Background()
	s, c := newTestStore(t)

	first, err := s.Upsert(ctx, Record{Folio: "COT-202501-001", Client: Party{Name: "Ana"}})
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, first.Status)
	assert.Equal(t, c.t.Unix(), first.CreatedAt)

	_, err = s.Upsert(ctx, Record{Folio: "COT-202501-002"})
	require.NoError(t, err)

	c.t = c.t.Add(time.Hour)
	updated, err := s.Upsert(ctx, Record{Folio: "COT-202501-001", Client: Party{Name: "Ana María"}, Status: StatusApproved})
	require.NoError(t, err)
	assert.Equal(t, first.CreatedAt, updated.CreatedAt)
	assert.Equal(t, c.t.Unix(), updated.UpdatedAt)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "COT-202501-001", list[0].Folio, "replace keeps position")
	assert.Equal(t, "Ana María", list[0].Client.Name)
	assert.Equal(t, StatusApproved, list[0].Status)
}

func TestStore_UpsertRequiresFolio(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Upsert(context.Background(), Record{Folio: "  "})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestStore_GetAndRemove(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_, err := s.Upsert(ctx, Record{Folio: "COT-202501-001"})
	require.NoError(t, err)

	got, err := s.Get(ctx, "COT-202501-001")
	require.NoError(t, err)
	assert.Equal(t, "COT-202501-001", got.Folio)

	removed, err := s.Remove(ctx, "COT-202501-001")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.Remove(ctx, "COT-202501-001")
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = s.Get(ctx, "COT-202501-001")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestStore_NextFolio(t *testing.T) {
	ctx := context.Background()
	s, c := newTestStore(t)

	next, err := s.NextFolio(ctx)
	require.NoError(t, err)
	assert.Equal(t, "COT-202501-001", next)

	for _, f := range []string{"COT-202501-001", "COT-202501-002", "COT-202502-001"} {
		_, err := s.Upsert(ctx, Record{Folio: f})
		require.NoError(t, err)
	}
	next, err = s.NextFolio(ctx)
	require.NoError(t, err)
	assert.Equal(t, "COT-202501-003", next)

	// Deleting the highest does not refill from below it
	_, err = s.Remove(ctx, "COT-202501-001")
	require.NoError(t, err)
	next, err = s.NextFolio(ctx)
	require.NoError(t, err)
	assert.Equal(t, "COT-202501-003", next)

	c.t = time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	next, err = s.NextFolio(ctx)
	require.NoError(t, err)
	assert.Equal(t, "COT-202503-001", next)
}

func TestStore_SnapshotRoundTripThroughEngine(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	e := quote.New(quote.WithDefaults(16, 10, 0))
	e.SetItems([]quote.LineItem{{Name: "Cement", Quantity: 2, UnitPrice: 100}, {Name: "Sand", Quantity: 1, UnitPrice: 50}})

	r := Record{Folio: "COT-202501-001"}
	r.ApplySnapshot(e.ExportSnapshot())
	_, err := s.Upsert(ctx, r)
	require.NoError(t, err)

	got, err := s.Get(ctx, "COT-202501-001")
	require.NoError(t, err)
	loaded := quote.New()
	totals := loaded.ImportSnapshot(got.Snapshot())
	assert.InDelta(t, 278.4, totals.Total, 1e-9)
	assert.InDelta(t, 278.4, got.Summarize().Total, 1e-9)
}

func TestStore_PersistsInSQLite(t *testing.T) {
	ctx := context.Background()
	database, err := db.Init(t.TempDir())
	require.NoError(t, err)
	defer database.Close()

	s := NewStore(store.NewSQLiteBackend(database), WithPrefix("EST"))
	_, err = s.Upsert(ctx, Record{Folio: "EST-202501-004"})
	require.NoError(t, err)

	reopened := NewStore(store.NewSQLiteBackend(database), WithPrefix("EST"),
		WithClock(func() time.Time { return time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC) }))
	next, err := reopened.NextFolio(ctx)
	require.NoError(t, err)
	assert.Equal(t, "EST-202501-005", next)
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus(" Approved ")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, st)

	_, err = ParseStatus("sent")
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}
