// Package view keeps the product grid, the cart panel and the cart counter
// consistent with the cart store.
//
// Rendering goes through a Surface, so the same synchronization logic drives
// the HTTP view model and the terminal output.
package view

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/product"
)

// Region identifies where a card is displayed.
type Region int

const (
	// RegionGrid is the product grid.
	RegionGrid Region = iota
	// RegionCart is the cart panel.
	RegionCart
)

func (r Region) String() string {
	switch r {
	case RegionGrid:
		return "grid"
	case RegionCart:
		return "cart"
	default:
		return "unknown"
	}
}

// Card is a product grid element: a product with the quantity currently
// selected on it.
type Card struct {
	Product  product.Product
	Quantity int
	Total    decimal.Decimal
}

// NewCard returns a card for p showing quantity.
func NewCard(p product.Product, quantity int) Card {
	return Card{Product: p, Quantity: quantity, Total: LineTotal(p.Price, quantity)}
}

// Line is a cart panel element. Available is false when the product could
// not be fetched; such a line carries only the id and quantity.
type Line struct {
	ProductID string
	Product   product.Product
	Available bool
	Quantity  int
	Total     decimal.Decimal
}

// Counter is the cart badge.
type Counter struct {
	Total   int
	Visible bool
}

// Surface is a render target.
type Surface interface {
	// ReplaceGrid replaces all grid cards.
	ReplaceGrid(cards []Card)
	// UpdateCard updates the quantity and total of one card in region.
	UpdateCard(region Region, card Card)
	// ReplaceCartPanel replaces all cart panel lines.
	ReplaceCartPanel(lines []Line)
	// RemoveLine removes a single cart panel line.
	RemoveLine(productID string)
	// SetCounter updates the cart badge.
	SetCounter(total int, visible bool)
}

// LineTotal returns price * quantity rounded to cents.
func LineTotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

// FormatTotal renders an amount the way the storefront displays it, e.g.
// "12.5 $".
func FormatTotal(total decimal.Decimal) string {
	return total.Round(2).String() + " $"
}
