package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/persist"
)

const (
	getSnapshotSQL = `SELECT value FROM cart_snapshots WHERE key = $1`

	putSnapshotSQL = `INSERT INTO cart_snapshots (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

	deleteSnapshotSQL = `DELETE FROM cart_snapshots WHERE key = $1`
)

var (
	_ persist.Slot   = (*Slot)(nil)
	_ persist.Pinger = (*Slot)(nil)
)

// Slot implements persist.Slot on the cart_snapshots table. Values are
// stored as JSONB, so only valid JSON documents can be written.
type Slot struct {
	pool *pgxpool.Pool
}

// NewSlot returns a Slot that uses the given pool.
func NewSlot(pool *pgxpool.Pool) *Slot {
	return &Slot{pool: pool}
}

// Get returns the snapshot stored under key.
func (s *Slot) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	if err := s.pool.QueryRow(ctx, getSnapshotSQL, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, persist.ErrSlotEmpty
		}
		return nil, errors.Wrapf(err, "get snapshot %q", key)
	}
	return value, nil
}

// Put upserts the snapshot stored under key.
func (s *Slot) Put(ctx context.Context, key string, value []byte) error {
	if _, err := s.pool.Exec(ctx, putSnapshotSQL, key, value); err != nil {
		return errors.Wrapf(err, "put snapshot %q", key)
	}
	return nil
}

// Delete removes the snapshot stored under key.
func (s *Slot) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, deleteSnapshotSQL, key); err != nil {
		return errors.Wrapf(err, "delete snapshot %q", key)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Slot) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
