// Package file stores snapshots as files in a directory, one file per key.
package file

import (
	"context"
	"net/url"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/persist"
)

var (
	_ persist.Slot   = (*Slot)(nil)
	_ persist.Pinger = (*Slot)(nil)
)

// Slot is a directory-backed persist.Slot. Writes go to a temporary file
// that is renamed over the target, so readers never observe a partial
// snapshot.
type Slot struct {
	dir string
}

// New returns a Slot rooted at dir, creating the directory if needed.
func New(dir string) (*Slot, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create dir %s", dir)
	}
	return &Slot{dir: dir}, nil
}

func (s *Slot) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+".json")
}

// Get reads the file stored for key.
func (s *Slot) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, persist.ErrSlotEmpty
		}
		return nil, errors.Wrapf(err, "read %s", key)
	}
	return data, nil
}

// Put atomically replaces the file stored for key.
func (s *Slot) Put(_ context.Context, key string, value []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".snapshot-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return errors.Wrapf(err, "replace %s", key)
	}
	return nil
}

// Delete removes the file stored for key.
func (s *Slot) Delete(_ context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "delete %s", key)
	}
	return nil
}

// Ping checks that the directory is still accessible.
func (s *Slot) Ping(_ context.Context) error {
	if _, err := os.Stat(s.dir); err != nil {
		return errors.Wrap(err, "stat dir")
	}
	return nil
}
