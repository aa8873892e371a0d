package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"

	"github.com/stablebuilds/quoter/internal/errors"
	"github.com/stablebuilds/quoter/internal/logger"
)

var errUnchanged = stderrors.New("unchanged")

// Document is a single JSON object stored under one key.
type Document[T any] struct {
	mu      sync.Mutex
	backend Backend
	key     string
}

// NewDocument binds key to a backend.
func NewDocument[T any](backend Backend, key string) *Document[T] {
	return &Document[T]{backend: backend, key: key}
}

// Get returns the stored value, or def when nothing is stored.
func (d *Document[T]) Get(ctx context.Context, def T) (T, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	payload, found, err := d.backend.Get(ctx, d.key)
	if err != nil {
		logger.Log.Error().Err(err).Str("collection", d.key).Msg("read failed")
		return def, false, storageErr(d.key, err)
	}
	if !found || len(payload) == 0 {
		return def, false, nil
	}
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		logger.Log.Error().Err(err).Str("collection", d.key).Msg("decode failed")
		return def, false, errors.NewStorage(d.key, err)
	}
	return v, true, nil
}

// Put overwrites the stored value.
func (d *Document[T]) Put(ctx context.Context, v T) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	payload, err := json.Marshal(v)
	if err != nil {
		logger.Log.Error().Err(err).Str("collection", d.key).Msg("encode failed")
		return errors.NewStorage(d.key, err)
	}
	if err := d.backend.Put(ctx, d.key, payload); err != nil {
		logger.Log.Error().Err(err).Str("collection", d.key).Msg("write failed")
		return storageErr(d.key, err)
	}
	return nil
}

// Delete removes the stored value. Returns false if nothing was stored.
func (d *Document[T]) Delete(ctx context.Context) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ok, err := d.backend.Delete(ctx, d.key)
	if err != nil {
		logger.Log.Error().Err(err).Str("collection", d.key).Msg("delete failed")
		return false, storageErr(d.key, err)
	}
	return ok, nil
}
