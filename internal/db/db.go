// Package db owns the SQLite file that backs every record collection.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/stablebuilds/quoter/internal/config"
	_ "modernc.org/sqlite"
)

// FileName is the database file created inside the base directory.
const FileName = "quoter.db"

// migrations are applied in order; migrations[i] moves user_version from i to i+1.
var migrations = []string{
	// Each collection is one row holding its whole JSON document.
	`CREATE TABLE IF NOT EXISTS collections (
	   name       TEXT PRIMARY KEY,
	   payload    TEXT NOT NULL,
	   updated_at INTEGER NOT NULL
	 )`,
}

// SchemaVersion is the user_version after all migrations ran.
var SchemaVersion = len(migrations)

// Init opens baseDir/quoter.db, creating baseDir and baseDir/exports first.
// Tests pass t.TempDir() instead of ~/.quoter.
func Init(baseDir string) (*sql.DB, error) {
	for _, dir := range []string{baseDir, filepath.Join(baseDir, "exports")} {
		if err := ensurePrivateDir(dir); err != nil {
			return nil, err
		}
	}

	dbPath := filepath.Join(baseDir, FileName)
	// Pragmas in the DSN apply to every pooled connection.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := checkJournalMode(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0600)
	return db, nil
}

func ensurePrivateDir(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	_ = os.Chmod(dir, 0700)
	return nil
}

// ConfigurePool applies the pool limits set in config.json.
// Zero values keep the database/sql defaults.
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate runs every migration past the stored user_version, each in its own
// transaction together with the version bump.
func migrate(db *sql.DB) error {
	version, err := UserVersion(db)
	if err != nil {
		return err
	}
	for v := version; v < len(migrations); v++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
		if _, err := tx.Exec(migrations[v]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", v+1, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version=%d", v+1)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d: failed to set user_version: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
	}
	return nil
}

func checkJournalMode(db *sql.DB) error {
	var mode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&mode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if mode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", mode)
	}
	return nil
}

// UserVersion returns the schema version stored in the database file.
func UserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}
