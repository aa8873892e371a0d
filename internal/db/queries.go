package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/stablebuilds/quoter/internal/errors"
)

// GetCollection returns the stored payload for name.
// The boolean is false when the collection has never been written.
func GetCollection(ctx context.Context, db *sql.DB, name string) ([]byte, bool, error) {
	var payload string
	err := db.QueryRowContext(ctx, `SELECT payload FROM collections WHERE name = ?`, name).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.NewStorage(name, err)
	}
	return []byte(payload), true, nil
}

// PutCollection overwrites the whole payload for name in a single statement.
func PutCollection(ctx context.Context, db *sql.DB, name string, payload []byte) error {
	query := `
		INSERT INTO collections (name, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`
	if _, err := db.ExecContext(ctx, query, name, string(payload), time.Now().Unix()); err != nil {
		return errors.NewStorage(name, err)
	}
	return nil
}

// DeleteCollection removes the named collection. Returns false if it did not exist.
func DeleteCollection(ctx context.Context, db *sql.DB, name string) (bool, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, name)
	if err != nil {
		return false, errors.NewStorage(name, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, errors.NewStorage(name, err)
	}
	return rows > 0, nil
}
