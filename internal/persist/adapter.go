// Package persist serializes the cart store to a durable key-value slot.
package persist

import (
	"context"
	"slices"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/cart"
)

// DefaultKey is the slot key the cart snapshot is stored under.
const DefaultKey = "cart"

// Adapter saves and restores cart snapshots through a Slot.
type Adapter struct {
	slot Slot
	key  string
	lg   *zap.Logger
}

// NewAdapter returns an Adapter writing to slot under key. An empty key
// selects DefaultKey.
func NewAdapter(slot Slot, key string, lg *zap.Logger) *Adapter {
	if key == "" {
		key = DefaultKey
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Adapter{slot: slot, key: key, lg: lg}
}

// Key returns the slot key used by the adapter.
func (a *Adapter) Key() string {
	return a.key
}

// Save overwrites the slot with the current cart contents. Entries are
// written oldest first so that Load reproduces display order.
func (a *Adapter) Save(ctx context.Context, c *cart.Store) error {
	if err := a.slot.Put(ctx, a.key, Encode(c.Snapshot())); err != nil {
		return errors.Wrapf(err, "save snapshot %q", a.key)
	}
	return nil
}

// Load reads the slot and returns the stored cart. Missing, unreadable or
// malformed snapshots yield an empty cart; the failure is logged and never
// returned. Records with a non-positive quantity are dropped.
func (a *Adapter) Load(ctx context.Context) *cart.Store {
	c, _ := a.LoadNormalized(ctx)
	return c
}

// LoadNormalized is Load that also reports whether the stored records
// differ from the cart's own snapshot, because records were dropped,
// clamped or merged. A malformed snapshot is left in place and reported
// as unchanged.
func (a *Adapter) LoadNormalized(ctx context.Context) (c *cart.Store, changed bool) {
	entries, err := a.Read(ctx)
	if err != nil {
		var malformed *MalformedStorageError
		if errors.As(err, &malformed) {
			a.lg.Warn("Discarding malformed cart snapshot",
				zap.String("key", a.key),
				zap.Error(err),
			)
		} else {
			a.lg.Error("Read cart snapshot", zap.String("key", a.key), zap.Error(err))
		}
		return cart.New(), false
	}
	c = cart.FromEntries(entries)
	return c, !slices.Equal(entries, c.Snapshot())
}

// Read returns the raw snapshot records, unfiltered. A missing snapshot
// yields no records and no error. Decode failures are reported as
// *MalformedStorageError.
func (a *Adapter) Read(ctx context.Context) ([]cart.Entry, error) {
	data, err := a.slot.Get(ctx, a.key)
	if err != nil {
		if errors.Is(err, ErrSlotEmpty) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "read snapshot %q", a.key)
	}

	entries, err := Decode(data)
	if err != nil {
		return nil, &MalformedStorageError{Key: a.key, Err: err}
	}
	return entries, nil
}

// Clear removes the snapshot.
func (a *Adapter) Clear(ctx context.Context) error {
	if err := a.slot.Delete(ctx, a.key); err != nil {
		return errors.Wrapf(err, "clear snapshot %q", a.key)
	}
	return nil
}
