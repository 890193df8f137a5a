// Package cart implements the in-memory cart store: a mapping from product
// id to quantity that is the single source of truth for cart state.
//
// The store performs no I/O and no locking. Callers serialize access and
// are responsible for persisting and re-rendering after every mutation.
package cart

import "slices"

// MaxQuantity is the largest quantity a single entry may hold.
const MaxQuantity = 10

// Entry is a single cart line.
type Entry struct {
	ProductID string `json:"id"`
	Quantity  int    `json:"quantity"`
}

// Store maps product ids to quantities and remembers insertion order.
//
// Every stored quantity is within [1, MaxQuantity]. A mutation that drives
// a quantity to zero removes the entry.
type Store struct {
	qty   map[string]int
	order []string // oldest first
}

// New returns an empty Store.
func New() *Store {
	return &Store{qty: make(map[string]int)}
}

// FromEntries builds a Store from entries listed oldest first. Entries with
// a non-positive quantity or an empty id are skipped, quantities above
// MaxQuantity are clamped and repeated ids are merged.
func FromEntries(entries []Entry) *Store {
	s := New()
	for _, e := range entries {
		if e.ProductID == "" || e.Quantity <= 0 {
			continue
		}
		s.Add(e.ProductID, e.Quantity)
	}
	return s
}

// Clamp limits qty to [0, MaxQuantity].
func Clamp(qty int) int {
	return min(max(qty, 0), MaxQuantity)
}

// Shift returns Clamp(qty + delta) for a qty already within
// [0, MaxQuantity]. Deltas of any size saturate instead of overflowing.
func Shift(qty, delta int) int {
	qty = Clamp(qty)
	switch {
	case delta >= MaxQuantity-qty:
		return MaxQuantity
	case delta <= -qty:
		return 0
	default:
		return qty + delta
	}
}

// Get returns the quantity stored for id, or 0 when absent.
func (s *Store) Get(id string) int {
	return s.qty[id]
}

// Has reports whether id is in the cart.
func (s *Store) Has(id string) bool {
	_, ok := s.qty[id]
	return ok
}

// Len returns the number of distinct products in the cart.
func (s *Store) Len() int {
	return len(s.qty)
}

// TotalItems returns the sum of all quantities.
func (s *Store) TotalItems() int {
	total := 0
	for _, q := range s.qty {
		total += q
	}
	return total
}

// SetQuantity clamps qty to [0, MaxQuantity] and stores it. Zero removes the
// entry. Overwriting an existing entry keeps its position. It returns the
// value actually stored.
func (s *Store) SetQuantity(id string, qty int) int {
	qty = Clamp(qty)
	if qty == 0 {
		s.Remove(id)
		return 0
	}
	if _, ok := s.qty[id]; !ok {
		s.order = append(s.order, id)
	}
	s.qty[id] = qty
	return qty
}

// Add merges qty into the existing quantity for id, inserting it when
// absent. The result is clamped. It returns the value actually stored.
func (s *Store) Add(id string, qty int) int {
	return s.SetQuantity(id, Shift(s.qty[id], qty))
}

// Increment raises the quantity for id by one, up to MaxQuantity. An absent
// id is inserted with quantity 1.
func (s *Store) Increment(id string) int {
	return s.SetQuantity(id, Shift(s.qty[id], 1))
}

// Decrement lowers the quantity for id by one. When the quantity would drop
// below 1 the entry is removed and removed is true. Decrementing an absent
// id is a no-op.
func (s *Store) Decrement(id string) (qty int, removed bool) {
	cur, ok := s.qty[id]
	if !ok {
		return 0, false
	}
	qty = s.SetQuantity(id, cur-1)
	return qty, qty == 0
}

// Remove deletes id from the cart. It reports whether the id was present.
func (s *Store) Remove(id string) bool {
	if _, ok := s.qty[id]; !ok {
		return false
	}
	delete(s.qty, id)
	if i := slices.Index(s.order, id); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
	return true
}

// Entries returns the cart lines, most recently added first.
func (s *Store) Entries() []Entry {
	out := make([]Entry, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		id := s.order[i]
		out = append(out, Entry{ProductID: id, Quantity: s.qty[id]})
	}
	return out
}

// Snapshot returns the cart lines oldest first, the order FromEntries
// expects to reproduce this store.
func (s *Store) Snapshot() []Entry {
	out := make([]Entry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, Entry{ProductID: id, Quantity: s.qty[id]})
	}
	return out
}

// IDs returns product ids oldest first.
func (s *Store) IDs() []string {
	return slices.Clone(s.order)
}

// Clone returns a deep copy of the store.
func (s *Store) Clone() *Store {
	c := &Store{
		qty:   make(map[string]int, len(s.qty)),
		order: slices.Clone(s.order),
	}
	for id, q := range s.qty {
		c.qty[id] = q
	}
	return c
}

// Equal reports whether both stores hold the same entries in the same order.
func (s *Store) Equal(o *Store) bool {
	return slices.Equal(s.Snapshot(), o.Snapshot())
}
