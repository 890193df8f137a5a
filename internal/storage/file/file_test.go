package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/persist"
)

func TestSlot(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "state")

	s, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, s.Ping(ctx))

	_, err = s.Get(ctx, "cart")
	require.ErrorIs(t, err, persist.ErrSlotEmpty)

	require.NoError(t, s.Put(ctx, "cart", []byte(`[1]`)))
	require.NoError(t, s.Put(ctx, "cart", []byte(`[2]`)))

	got, err := s.Get(ctx, "cart")
	require.NoError(t, err)
	assert.Equal(t, `[2]`, string(got))

	require.NoError(t, s.Delete(ctx, "cart"))
	require.NoError(t, s.Delete(ctx, "cart"), "deleting twice is fine")

	_, err = s.Get(ctx, "cart")
	require.ErrorIs(t, err, persist.ErrSlotEmpty)
}

func TestSlot_NoTempFilesLeft(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "a/b", []byte(`[]`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a%2Fb.json", entries[0].Name())
}
