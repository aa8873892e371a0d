// Package store maps named collections to ordered lists of records kept in a
// durable key-value backend.
package store

import (
	"context"
	"database/sql"
	"sync"

	"github.com/stablebuilds/quoter/internal/db"
)

// Backend is the key-value storage a Collection persists into.
// Put overwrites the whole value for key in one step.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) (bool, error)
}

// SQLiteBackend stores each key as a row of the collections table.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend wraps an initialized database (see db.Init).
func NewSQLiteBackend(database *sql.DB) *SQLiteBackend {
	return &SQLiteBackend{db: database}
}

func (b *SQLiteBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return db.GetCollection(ctx, b.db, key)
}

func (b *SQLiteBackend) Put(ctx context.Context, key string, value []byte) error {
	return db.PutCollection(ctx, b.db, key, value)
}

func (b *SQLiteBackend) Delete(ctx context.Context, key string) (bool, error) {
	return db.DeleteCollection(ctx, b.db, key)
}

// MemoryBackend keeps values in process memory. Intended for tests.
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string][]byte

	// FailPuts makes every Put return an error, for exercising write failures.
	FailPuts error
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string][]byte)}
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	v, ok := m.values[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *MemoryBackend) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPuts != nil {
		return m.FailPuts
	}
	v := make([]byte, len(value))
	copy(v, value)
	m.values[key] = v
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.values[key]
	delete(m.values, key)
	return ok, nil
}
