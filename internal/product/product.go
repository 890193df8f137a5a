package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase.
type Product struct {
	ID          string
	Title       string
	Price       decimal.Decimal
	Category    string
	Image       string
	Description string
	Rating      Rating
}

// Rating is the upstream review summary. Zero when the source has none.
type Rating struct {
	Rate  decimal.Decimal
	Count int
}

// Catalog defines read operations against a product source.
type Catalog interface {
	FetchProduct(ctx context.Context, id string) (*Product, error)
	FetchCategory(ctx context.Context, category string) ([]Product, error)
	FetchAll(ctx context.Context) ([]Product, error)
	FetchCategories(ctx context.Context) ([]string, error)
}

// Lookup resolves a product by id without I/O. It reports false when the
// product has not been seen.
type Lookup func(id string) (Product, bool)

// Dedup returns products with duplicate ids removed, keeping the first
// occurrence of each id.
func Dedup(products []Product) []Product {
	seen := make(map[string]struct{}, len(products))
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}
