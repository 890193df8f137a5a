package view

import (
	"github.com/xenking/storefront/internal/cart"
	"github.com/xenking/storefront/internal/product"
)

// Synchronizer derives surface contents from the cart store.
type Synchronizer struct {
	surface Surface
}

// NewSynchronizer returns a Synchronizer rendering to s.
func NewSynchronizer(s Surface) *Synchronizer {
	return &Synchronizer{surface: s}
}

// RenderCartPanel rebuilds the cart panel from c, most recent entry first.
// Entries lookup cannot resolve are rendered as unavailable lines.
func (s *Synchronizer) RenderCartPanel(c *cart.Store, lookup product.Lookup) {
	entries := c.Entries()
	lines := make([]Line, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, newLine(e, lookup))
	}
	s.surface.ReplaceCartPanel(lines)
}

// RenderCounter shows the total item count, hidden for an empty cart.
func (s *Synchronizer) RenderCounter(c *cart.Store) {
	total := c.TotalItems()
	s.surface.SetCounter(total, total > 0)
}

// SyncQuantityDisplay updates a single card's quantity and line total.
func (s *Synchronizer) SyncQuantityDisplay(region Region, p product.Product, quantity int) {
	s.surface.UpdateCard(region, NewCard(p, quantity))
}

// RenderGrid replaces the grid with products, each showing the quantity
// selected on it. Products without a selector show quantity 1.
func (s *Synchronizer) RenderGrid(products []product.Product, selectors map[string]int) {
	cards := make([]Card, 0, len(products))
	for _, p := range products {
		qty, ok := selectors[p.ID]
		if !ok {
			qty = 1
		}
		cards = append(cards, NewCard(p, qty))
	}
	s.surface.ReplaceGrid(cards)
}

// RemoveLine drops one line from the cart panel.
func (s *Synchronizer) RemoveLine(productID string) {
	s.surface.RemoveLine(productID)
}

// Refresh re-renders the cart panel and the counter.
func (s *Synchronizer) Refresh(c *cart.Store, lookup product.Lookup) {
	s.RenderCartPanel(c, lookup)
	s.RenderCounter(c)
}

func newLine(e cart.Entry, lookup product.Lookup) Line {
	l := Line{ProductID: e.ProductID, Quantity: e.Quantity}
	if lookup == nil {
		return l
	}
	p, ok := lookup(e.ProductID)
	if !ok {
		return l
	}
	l.Product = p
	l.Available = true
	l.Total = LineTotal(p.Price, e.Quantity)
	return l
}
