package catalog

import (
	"context"
	"sync"

	"github.com/xenking/storefront/internal/product"
)

var _ product.Catalog = (*Cache)(nil)

// Cache is a read-through product cache over another catalog. Every product
// returned by any fetch is remembered, so later single-product lookups are
// served locally. Failures, including product.ErrNotFound, are not cached.
type Cache struct {
	next product.Catalog

	mu       sync.RWMutex
	products map[string]product.Product
}

// NewCache wraps next.
func NewCache(next product.Catalog) *Cache {
	return &Cache{
		next:     next,
		products: make(map[string]product.Product),
	}
}

// Lookup returns a cached product without I/O.
func (c *Cache) Lookup(id string) (product.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.products[id]
	return p, ok
}

// Remember stores products in the cache.
func (c *Cache) Remember(products ...product.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range products {
		c.products[p.ID] = p
	}
}

// Len returns the number of cached products.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

// FetchProduct serves id from the cache, falling back to the wrapped
// catalog.
func (c *Cache) FetchProduct(ctx context.Context, id string) (*product.Product, error) {
	if p, ok := c.Lookup(id); ok {
		return &p, nil
	}
	p, err := c.next.FetchProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Remember(*p)
	return p, nil
}

// FetchCategory always asks the wrapped catalog and remembers the result.
func (c *Cache) FetchCategory(ctx context.Context, category string) ([]product.Product, error) {
	products, err := c.next.FetchCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	c.Remember(products...)
	return products, nil
}

// FetchAll always asks the wrapped catalog and remembers the result.
func (c *Cache) FetchAll(ctx context.Context) ([]product.Product, error) {
	products, err := c.next.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	c.Remember(products...)
	return products, nil
}

// FetchCategories passes through to the wrapped catalog.
func (c *Cache) FetchCategories(ctx context.Context) ([]string, error) {
	return c.next.FetchCategories(ctx)
}
