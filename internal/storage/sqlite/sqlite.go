// Package sqlite stores snapshots in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
	_ "modernc.org/sqlite"

	"github.com/xenking/storefront/internal/persist"
)

const (
	schemaSQL = `CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`

	getSQL    = `SELECT value FROM kv WHERE key = ?`
	putSQL    = `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	deleteSQL = `DELETE FROM kv WHERE key = ?`
)

var (
	_ persist.Slot   = (*Slot)(nil)
	_ persist.Pinger = (*Slot)(nil)
)

// Slot is a persist.Slot backed by a single SQLite table.
type Slot struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(ctx context.Context, path string) (*Slot, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "create dir %s", dir)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	// A single writer avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "init schema")
	}
	return &Slot{db: db}, nil
}

// Close closes the database.
func (s *Slot) Close() error {
	return s.db.Close()
}

// Get returns the value stored under key.
func (s *Slot) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	if err := s.db.QueryRowContext(ctx, getSQL, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persist.ErrSlotEmpty
		}
		return nil, errors.Wrapf(err, "get %q", key)
	}
	return value, nil
}

// Put upserts value under key.
func (s *Slot) Put(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, putSQL, key, value); err != nil {
		return errors.Wrapf(err, "put %q", key)
	}
	return nil
}

// Delete removes key.
func (s *Slot) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, deleteSQL, key); err != nil {
		return errors.Wrapf(err, "delete %q", key)
	}
	return nil
}

// Ping checks the database connection.
func (s *Slot) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
