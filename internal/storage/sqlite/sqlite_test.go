package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/cart"
	"github.com/xenking/storefront/internal/persist"
)

func TestSlot(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "cart.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Ping(ctx))

	_, err = s.Get(ctx, "cart")
	require.ErrorIs(t, err, persist.ErrSlotEmpty)

	require.NoError(t, s.Put(ctx, "cart", []byte(`[]`)))
	require.NoError(t, s.Put(ctx, "cart", []byte(`[{"id":"1","quantity":1}]`)))

	got, err := s.Get(ctx, "cart")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"1","quantity":1}]`, string(got))

	require.NoError(t, s.Delete(ctx, "cart"))
	_, err = s.Get(ctx, "cart")
	require.ErrorIs(t, err, persist.ErrSlotEmpty)
}

func TestSlot_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cart.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)

	c := cart.New()
	c.SetQuantity("4", 3)
	require.NoError(t, persist.NewAdapter(s, "", nil).Save(ctx, c))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	loaded := persist.NewAdapter(s, "", nil).Load(ctx)
	assert.Equal(t, 3, loaded.Get("4"))
}
