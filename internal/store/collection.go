package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/stablebuilds/quoter/internal/errors"
	"github.com/stablebuilds/quoter/internal/logger"
)

// Collection is a named, ordered list of records persisted as one JSON array.
//
// Reads go through a cache of the last persisted payload; every read decodes a
// fresh copy so callers never share memory with the cache. Read-modify-write
// sequences hold the collection lock and persist the whole list in a single
// Put. A failed Put leaves the cache as it was.
type Collection[T any] struct {
	mu      sync.Mutex
	backend Backend
	name    string
	idOf    func(T) string

	cached []byte
	loaded bool
}

// NewCollection binds a collection name to a backend. idOf returns the
// identity used by FindByID, Save and Delete.
func NewCollection[T any](backend Backend, name string, idOf func(T) string) *Collection[T] {
	return &Collection[T]{backend: backend, name: name, idOf: idOf}
}

// All returns every record in insertion order.
func (c *Collection[T]) All(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadLocked(ctx)
}

// FindByID returns the record whose id matches exactly.
func (c *Collection[T]) FindByID(ctx context.Context, id string) (T, bool, error) {
	var zero T
	records, err := c.All(ctx)
	if err != nil {
		return zero, false, err
	}
	for _, r := range records {
		if c.idOf(r) == id {
			return r, true, nil
		}
	}
	return zero, false, nil
}

// Save replaces the record with the same id in place, or appends it.
func (c *Collection[T]) Save(ctx context.Context, record T) error {
	id := c.idOf(record)
	return c.Update(ctx, func(records []T) ([]T, error) {
		for i := range records {
			if c.idOf(records[i]) == id {
				records[i] = record
				return records, nil
			}
		}
		return append(records, record), nil
	})
}

// Delete removes the record with the given id. Returns false if none matched;
// nothing is written in that case.
func (c *Collection[T]) Delete(ctx context.Context, id string) (bool, error) {
	removed := false
	err := c.Update(ctx, func(records []T) ([]T, error) {
		kept := records[:0]
		for _, r := range records {
			if c.idOf(r) == id {
				removed = true
				continue
			}
			kept = append(kept, r)
		}
		if !removed {
			return nil, errUnchanged
		}
		return kept, nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// Update loads the collection, applies fn and persists the result.
// Returning errUnchanged from fn skips the write.
func (c *Collection[T]) Update(ctx context.Context, fn func([]T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.loadLocked(ctx)
	if err != nil {
		return err
	}
	next, err := fn(records)
	if err == errUnchanged {
		return nil
	}
	if err != nil {
		return err
	}
	return c.writeLocked(ctx, next)
}

// Refresh drops the cache so the next read goes to the backend.
func (c *Collection[T]) Refresh() {
	c.mu.Lock()
	c.cached = nil
	c.loaded = false
	c.mu.Unlock()
}

func (c *Collection[T]) loadLocked(ctx context.Context) ([]T, error) {
	if !c.loaded {
		payload, found, err := c.backend.Get(ctx, c.name)
		if err != nil {
			logger.Log.Error().Err(err).Str("collection", c.name).Msg("read failed")
			return nil, storageErr(c.name, err)
		}
		if !found {
			payload = nil
		}
		c.cached = payload
		c.loaded = true
	}

	records := []T{}
	if len(c.cached) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(c.cached, &records); err != nil {
		logger.Log.Error().Err(err).Str("collection", c.name).Msg("decode failed")
		return nil, errors.NewStorage(c.name, err)
	}
	return records, nil
}

func (c *Collection[T]) writeLocked(ctx context.Context, records []T) error {
	if records == nil {
		records = []T{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		logger.Log.Error().Err(err).Str("collection", c.name).Msg("encode failed")
		return errors.NewStorage(c.name, err)
	}
	if err := c.backend.Put(ctx, c.name, payload); err != nil {
		logger.Log.Error().Err(err).Str("collection", c.name).Msg("write failed")
		return storageErr(c.name, err)
	}
	c.cached = payload
	c.loaded = true
	logger.Log.Debug().Str("collection", c.name).Int("records", len(records)).Msg("persisted")
	return nil
}

// storageErr keeps an existing STORAGE error as-is and wraps anything else.
func storageErr(name string, err error) error {
	if errors.Is(err, errors.ErrStorage) {
		return err
	}
	return errors.NewStorage(name, err)
}
