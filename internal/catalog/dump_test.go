package catalog

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/product"
)

func TestDump_FileRoundTrip(t *testing.T) {
	products := []product.Product{
		{
			ID:          "1",
			Title:       "Fjallraven Backpack",
			Price:       decimal.RequireFromString("109.95"),
			Category:    "men's clothing",
			Image:       "https://img/1.jpg",
			Description: "Your \"perfect\" pack",
			Rating:      product.Rating{Rate: decimal.RequireFromString("3.9"), Count: 120},
		},
		{ID: "5", Title: "Bracelet", Price: decimal.NewFromInt(695), Category: "jewelery"},
	}

	for _, name := range []string{"catalog.json", "catalog.json.gz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, WriteDumpFile(path, products))

			d, err := LoadDump(path)
			require.NoError(t, err)

			got := d.Products()
			require.Len(t, got, 2)
			assert.Equal(t, products[0].Title, got[0].Title)
			assert.Equal(t, products[0].Description, got[0].Description)
			assert.True(t, products[0].Price.Equal(got[0].Price))
			assert.True(t, products[0].Rating.Rate.Equal(got[0].Rating.Rate))
			assert.Equal(t, 120, got[0].Rating.Count)
			assert.True(t, products[1].Price.Equal(got[1].Price))
		})
	}
}

func TestDump_Catalog(t *testing.T) {
	ctx := context.Background()
	d := NewDump(testProducts())

	p, err := d.FetchProduct(ctx, "5")
	require.NoError(t, err)
	assert.Equal(t, "jewelery", p.Category)

	_, err = d.FetchProduct(ctx, "404")
	require.ErrorIs(t, err, product.ErrNotFound)

	men, err := d.FetchCategory(ctx, "men's clothing")
	require.NoError(t, err)
	assert.Len(t, men, 2)

	none, err := d.FetchCategory(ctx, "toys")
	require.NoError(t, err)
	assert.Empty(t, none)

	categories, err := d.FetchCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"men's clothing", "jewelery", "electronics"}, categories)
}

func TestReadDump_UpstreamFormat(t *testing.T) {
	d, err := ReadDump(strings.NewReader(`[` + backpackJSON + `,` + ringJSON + `]`))
	require.NoError(t, err)
	assert.Len(t, d.Products(), 2)
}

func TestReadDump_Invalid(t *testing.T) {
	_, err := ReadDump(strings.NewReader(`[{"id":`))
	require.Error(t, err)
}
