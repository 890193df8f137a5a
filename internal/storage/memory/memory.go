// Package memory provides an in-process slot used by tests and ephemeral
// server deployments.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/xenking/storefront/internal/persist"
)

var _ persist.Slot = (*Slot)(nil)

// Slot is a map-backed persist.Slot safe for concurrent use.
type Slot struct {
	mu     sync.RWMutex
	values map[string][]byte
	puts   int
}

// New returns an empty Slot.
func New() *Slot {
	return &Slot{values: make(map[string][]byte)}
}

// Get returns a copy of the value under key.
func (s *Slot) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return nil, persist.ErrSlotEmpty
	}
	return slices.Clone(v), nil
}

// Put stores a copy of value under key.
func (s *Slot) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = slices.Clone(value)
	s.puts++
	return nil
}

// Delete removes key.
func (s *Slot) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

// Puts returns how many writes the slot has accepted.
func (s *Slot) Puts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.puts
}
