package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/catalog"
	"github.com/xenking/storefront/internal/persist"
	"github.com/xenking/storefront/internal/product"
	"github.com/xenking/storefront/internal/storage/memory"
	"github.com/xenking/storefront/internal/storefront"
	"github.com/xenking/storefront/internal/view"
)

func testProducts() []product.Product {
	return []product.Product{
		{ID: "1", Title: "Fjallraven Backpack", Price: decimal.RequireFromString("109.95"), Category: "bags"},
		{ID: "2", Title: "Slim Fit T-Shirt", Price: decimal.RequireFromString("22.3"), Category: "clothing"},
		{ID: "3", Title: "Cotton Jacket", Price: decimal.RequireFromString("55.99"), Category: "clothing"},
	}
}

type fixture struct {
	srv     *httptest.Server
	app     *storefront.App
	state   *view.State
	adapter *persist.Adapter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	state := view.NewState()
	adapter := persist.NewAdapter(memory.New(), "cart", nil)
	app, err := storefront.New(storefront.Options{
		Catalog: catalog.NewDump(testProducts()),
		Adapter: adapter,
		Surface: state,
	})
	require.NoError(t, err)
	app.Start(context.Background())

	srv := httptest.NewServer(NewHandler(app, state).Routes())
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, app: app, state: state, adapter: adapter}
}

func (f *fixture) do(t *testing.T, method, path, body string) (int, string) {
	t.Helper()

	req, err := http.NewRequest(method, f.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.srv.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var sb strings.Builder
	_, err = sb.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, sb.String()
}

func TestHandler_CartFlow(t *testing.T) {
	f := newFixture(t)

	code, body := f.do(t, http.MethodPost, "/api/cart/items", `{"productId": 1, "quantity": 2}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.Contains(t, body, `"total":"219.9 $"`)
	assert.Contains(t, body, `"counter":{"total":2,"visible":true}`)

	code, body = f.do(t, http.MethodPost, "/api/cart/items", `{"productId": "2"}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.Contains(t, body, `"counter":{"total":3,"visible":true}`)

	code, body = f.do(t, http.MethodPatch, "/api/cart/items/1", `{"delta": -1}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.Contains(t, body, `"total":"109.95 $"`)

	code, _ = f.do(t, http.MethodDelete, "/api/cart/items/2", "")
	require.Equal(t, http.StatusOK, code)

	entries, err := f.adapter.Read(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "1", entries[0].ProductID)
	assert.Equal(t, 1, entries[0].Quantity)

	// Decrementing the last unit removes the line and hides the counter.
	code, body = f.do(t, http.MethodPatch, "/api/cart/items/1", `{"delta": -1}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.Contains(t, body, `"cart":[]`)
	assert.Contains(t, body, `"counter":{"total":0,"visible":false}`)
}

func TestHandler_SearchAndGrid(t *testing.T) {
	f := newFixture(t)

	code, body := f.do(t, http.MethodGet, "/api/search?q=jacket", "")
	require.Equal(t, http.StatusOK, code, body)
	assert.Contains(t, body, `"title":"Cotton Jacket"`)
	assert.Contains(t, body, `"title":"Slim Fit T-Shirt"`, "category neighbour")
	assert.Contains(t, body, `"matches":1`)

	code, body = f.do(t, http.MethodPatch, "/api/grid/3", `{"delta": 2}`)
	require.Equal(t, http.StatusOK, code, body)
	sel, ok := f.app.Selector("3")
	require.True(t, ok)
	assert.Equal(t, 3, sel)

	code, body = f.do(t, http.MethodPost, "/api/grid/3/commit", "")
	require.Equal(t, http.StatusOK, code, body)
	assert.Contains(t, body, `"counter":{"total":3,"visible":true}`)
	sel, _ = f.app.Selector("3")
	assert.Equal(t, 1, sel)

	code, body = f.do(t, http.MethodPatch, "/api/grid/1", `{"delta": 1}`)
	assert.Equal(t, http.StatusNotFound, code)
	assert.JSONEq(t, `{"code":404,"message":"product not on grid"}`, body)

	code, body = f.do(t, http.MethodGet, "/api/suggestions?q=ja", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"suggestions":["Cotton Jacket"]}`, body)

	code, body = f.do(t, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `["bags","clothing"]`, body)
}

func TestHandler_BadRequests(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"malformed json", http.MethodPost, "/api/cart/items", `{"productId":`, http.StatusBadRequest},
		{"not an object", http.MethodPost, "/api/cart/items", `[1]`, http.StatusBadRequest},
		{"zero quantity", http.MethodPost, "/api/cart/items", `{"productId":"1","quantity":0}`, http.StatusUnprocessableEntity},
		{"fractional quantity", http.MethodPost, "/api/cart/items", `{"productId":"1","quantity":1.5}`, http.StatusUnprocessableEntity},
		{"string quantity", http.MethodPost, "/api/cart/items", `{"productId":"1","quantity":"2"}`, http.StatusUnprocessableEntity},
		{"missing id", http.MethodPost, "/api/cart/items", `{"quantity":2}`, http.StatusUnprocessableEntity},
		{"unknown product", http.MethodPost, "/api/cart/items", `{"productId":"99"}`, http.StatusNotFound},
		{"missing delta", http.MethodPatch, "/api/cart/items/1", `{}`, http.StatusUnprocessableEntity},
		{"not in cart", http.MethodPatch, "/api/cart/items/1", `{"delta":1}`, http.StatusNotFound},
		{"unknown route", http.MethodGet, "/api/orders", "", http.StatusNotFound},
		{"wrong method", http.MethodPut, "/api/cart/items", `{}`, http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := f.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, code, body)
			assert.Contains(t, body, `"message"`)
		})
	}

	assert.Empty(t, f.app.Entries(), "rejected requests leave the cart alone")
}

// stubStorefront answers every intent with res and err.
type stubStorefront struct {
	res storefront.Result
	err error
}

func (s stubStorefront) Dispatch(context.Context, storefront.Intent) (storefront.Result, error) {
	return s.res, s.err
}

func (s stubStorefront) Categories() []string { return nil }

func TestHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", errors.Wrap(product.ErrNotFound, "fetch"), http.StatusNotFound},
		{"upstream", &catalog.NetworkError{Op: "product", URL: "http://x/products/1", StatusCode: 503}, http.StatusBadGateway},
		{"other", errors.New("slot unavailable"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(stubStorefront{err: tt.err}, view.NewState()).Routes()
			req := httptest.NewRequest(http.MethodDelete, "/api/cart/items/1", nil)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestHandler_View(t *testing.T) {
	f := newFixture(t)

	code, body := f.do(t, http.MethodGet, "/api/view", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"grid":[],"cart":[],"counter":{"total":0,"visible":false}}`, body)
}

func TestHandler_AnswersWithDispatchedView(t *testing.T) {
	dispatched := view.Model{Counter: view.Counter{Total: 3, Visible: true}}
	current := view.NewState()
	current.SetCounter(7, true)

	h := NewHandler(stubStorefront{res: storefront.Result{View: &dispatched}}, current).Routes()
	req := httptest.NewRequest(http.MethodDelete, "/api/cart/items/1", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"grid":[],"cart":[],"counter":{"total":3,"visible":true}}`, w.Body.String())
}
