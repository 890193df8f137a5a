package mirror

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/catalog"
	"github.com/xenking/storefront/internal/product"
)

func testProducts() []product.Product {
	return []product.Product{
		{ID: "1", Title: "Backpack", Price: decimal.RequireFromString("109.95"), Category: "bags"},
		{ID: "2", Title: "T-Shirt", Price: decimal.RequireFromString("22.3"), Category: "clothing"},
		{ID: "3", Title: "Jacket", Price: decimal.RequireFromString("55.99"), Category: "clothing"},
		{ID: "4", Title: "Ring", Price: decimal.RequireFromString("9.99"), Category: "jewelery"},
	}
}

func ids(products []product.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

type recordingSink struct {
	got []product.Product
	err error
}

func (s *recordingSink) Upsert(_ context.Context, products []product.Product) error {
	s.got = append(s.got, products...)
	return s.err
}

// failingCatalog fails category listings.
type failingCatalog struct {
	*catalog.Dump
}

func (failingCatalog) FetchCategory(context.Context, string) ([]product.Product, error) {
	return nil, &catalog.NetworkError{Op: "category", URL: "http://x", StatusCode: 503}
}

func TestCollect(t *testing.T) {
	categories, products, err := Collect(context.Background(), catalog.NewDump(testProducts()), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"bags", "clothing", "jewelery"}, categories)
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(products))
}

func TestRun(t *testing.T) {
	out := filepath.Join(t.TempDir(), "catalog.json.gz")
	sink := &recordingSink{}

	stats, err := Run(context.Background(), zap.NewNop(), catalog.NewDump(testProducts()), Options{
		Sink: sink,
		Out:  out,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Categories)
	assert.Equal(t, 4, stats.Products)
	assert.Len(t, sink.got, 4)

	dump, err := catalog.LoadDump(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(dump.Products()))
	assert.True(t, dump.Products()[2].Price.Equal(decimal.RequireFromString("55.99")))
}

func TestRun_Errors(t *testing.T) {
	ctx := context.Background()
	lg := zap.NewNop()

	_, err := Run(ctx, lg, catalog.NewDump(testProducts()), Options{})
	require.Error(t, err)

	_, err = Run(ctx, lg, failingCatalog{catalog.NewDump(testProducts())}, Options{Sink: &recordingSink{}})
	var netErr *catalog.NetworkError
	require.ErrorAs(t, err, &netErr)

	sinkErr := errors.New("connection refused")
	_, err = Run(ctx, lg, catalog.NewDump(testProducts()), Options{Sink: &recordingSink{err: sinkErr}})
	require.ErrorIs(t, err, sinkErr)
}
