package view

import (
	"slices"
	"sync"
)

// Model is a point-in-time copy of everything a surface displays.
type Model struct {
	Grid    []Card
	Panel   []Line
	Counter Counter
}

// Snapshotter is a surface that can copy out what it displays.
type Snapshotter interface {
	Snapshot() Model
}

// State is an in-memory Surface. It is safe for concurrent use.
type State struct {
	mu    sync.RWMutex
	model Model
}

var (
	_ Surface     = (*State)(nil)
	_ Snapshotter = (*State)(nil)
)

// NewState returns an empty State.
func NewState() *State {
	return &State{}
}

// Snapshot returns a copy of the current model.
func (s *State) Snapshot() Model {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Model{
		Grid:    slices.Clone(s.model.Grid),
		Panel:   slices.Clone(s.model.Panel),
		Counter: s.model.Counter,
	}
}

func (s *State) ReplaceGrid(cards []Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model.Grid = slices.Clone(cards)
}

// UpdateCard updates the matching grid card or panel line. A panel line
// updated from a card becomes available. Cards that are not displayed are
// ignored.
func (s *State) UpdateCard(region Region, card Card) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := card.Product.ID
	switch region {
	case RegionGrid:
		for i := range s.model.Grid {
			if s.model.Grid[i].Product.ID == id {
				s.model.Grid[i].Quantity = card.Quantity
				s.model.Grid[i].Total = card.Total
			}
		}
	case RegionCart:
		for i := range s.model.Panel {
			if s.model.Panel[i].ProductID == id {
				s.model.Panel[i].Product = card.Product
				s.model.Panel[i].Available = true
				s.model.Panel[i].Quantity = card.Quantity
				s.model.Panel[i].Total = card.Total
			}
		}
	}
}

func (s *State) ReplaceCartPanel(lines []Line) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model.Panel = slices.Clone(lines)
}

func (s *State) RemoveLine(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model.Panel = slices.DeleteFunc(s.model.Panel, func(l Line) bool {
		return l.ProductID == productID
	})
}

func (s *State) SetCounter(total int, visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model.Counter = Counter{Total: total, Visible: visible}
}
