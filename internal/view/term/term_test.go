package term

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/product"
	"github.com/xenking/storefront/internal/view"
)

func TestSurface_Flush(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf)

	backpack := product.Product{ID: "1", Title: "Fjallraven Backpack", Price: decimal.RequireFromString("109.95")}
	s.ReplaceGrid([]view.Card{view.NewCard(backpack, 2)})
	s.ReplaceCartPanel([]view.Line{
		{ProductID: "7", Quantity: 1},
		{ProductID: "1", Product: backpack, Available: true, Quantity: 3, Total: view.LineTotal(backpack.Price, 3)},
	})
	s.SetCounter(4, true)

	require.NoError(t, s.Flush())
	out := buf.String()

	// A buffer is not a terminal, so output carries no color codes.
	assert.Contains(t, out, "Products")
	assert.Contains(t, out, "Fjallraven Backpack")
	assert.Contains(t, out, "219.9 $")
	assert.Contains(t, out, "329.85 $")
	assert.Contains(t, out, "unavailable")
	assert.Contains(t, out, "4")
}

func TestSurface_EmptyCart(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf)
	s.SetCounter(0, false)

	require.NoError(t, s.Flush())
	assert.Contains(t, buf.String(), "empty")
	assert.NotContains(t, buf.String(), "Products")
}

func TestSurface_Suggestions(t *testing.T) {
	s := New(&bytes.Buffer{})

	assert.Contains(t, s.Suggestions(nil), "no suggestions")
	out := s.Suggestions([]string{"Backpack", "Bracelet"})
	assert.Contains(t, out, "Backpack")
	assert.Contains(t, out, "Bracelet")
}
