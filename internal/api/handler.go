// Package api exposes the storefront over HTTP: intents come in as REST
// calls and every cart or grid change answers with the refreshed view.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/catalog"
	"github.com/xenking/storefront/internal/product"
	"github.com/xenking/storefront/internal/storefront"
	"github.com/xenking/storefront/internal/view"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

// Storefront dispatches intents.
type Storefront interface {
	Dispatch(ctx context.Context, in storefront.Intent) (storefront.Result, error)
	Categories() []string
}

// ViewSource returns the current view model.
type ViewSource interface {
	Snapshot() view.Model
}

// Handler serves the storefront API.
type Handler struct {
	app  Storefront
	view ViewSource
}

// NewHandler returns a Handler dispatching to app and rendering v.
func NewHandler(app Storefront, v ViewSource) *Handler {
	return &Handler{app: app, view: v}
}

// Routes returns the API router. All routes live under /api.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpmiddleware.WriteError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httpmiddleware.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/view", h.getView)
		r.Get("/search", h.search)
		r.Get("/suggestions", h.suggestions)
		r.Get("/categories", h.categories)

		r.Post("/cart/items", h.addToCart)
		r.Patch("/cart/items/{id}", h.adjustCart)
		r.Delete("/cart/items/{id}", h.removeFromCart)

		r.Patch("/grid/{id}", h.adjustGrid)
		r.Post("/grid/{id}/commit", h.commitCard)
	})
	return r
}

func (h *Handler) getView(w http.ResponseWriter, _ *http.Request) {
	writeView(w, h.view.Snapshot(), nil)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	res, err := h.app.Dispatch(r.Context(), storefront.Search{Query: r.URL.Query().Get("q")})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeView(w, h.viewOf(res), func(e *jx.Encoder) {
		e.Field("matches", func(e *jx.Encoder) { e.Int(res.Matches) })
	})
}

func (h *Handler) suggestions(w http.ResponseWriter, r *http.Request) {
	res, err := h.app.Dispatch(r.Context(), storefront.Suggest{Query: r.URL.Query().Get("q")})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("suggestions", func(e *jx.Encoder) { encodeStrings(e, res.Suggestions) })
		})
	})
}

func (h *Handler) categories(w http.ResponseWriter, _ *http.Request) {
	categories := h.app.Categories()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeStrings(e, categories)
	})
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAddItem(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.dispatch(w, r, storefront.AddToCart{ProductID: req.ProductID, Quantity: req.Quantity})
}

func (h *Handler) adjustCart(w http.ResponseWriter, r *http.Request) {
	delta, err := decodeDelta(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.dispatch(w, r, storefront.AdjustQuantity{
		ProductID: chi.URLParam(r, "id"),
		Delta:     delta,
		Origin:    storefront.OriginCart,
	})
}

func (h *Handler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, storefront.RemoveFromCart{ProductID: chi.URLParam(r, "id")})
}

func (h *Handler) adjustGrid(w http.ResponseWriter, r *http.Request) {
	delta, err := decodeDelta(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.dispatch(w, r, storefront.AdjustQuantity{
		ProductID: chi.URLParam(r, "id"),
		Delta:     delta,
		Origin:    storefront.OriginGrid,
	})
}

func (h *Handler) commitCard(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, storefront.CommitCard{ProductID: chi.URLParam(r, "id")})
}

// dispatch runs in and answers with the refreshed view.
func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request, in storefront.Intent) {
	res, err := h.app.Dispatch(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeView(w, h.viewOf(res), nil)
}

// viewOf returns the view captured by Dispatch, falling back to the
// current one.
func (h *Handler) viewOf(res storefront.Result) view.Model {
	if res.View != nil {
		return *res.View
	}
	return h.view.Snapshot()
}

// fail maps err to a status code and writes the error body.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		reqErr *requestError
		netErr *catalog.NetworkError
	)
	switch {
	case errors.As(err, &reqErr):
		httpmiddleware.WriteError(w, reqErr.status, reqErr.msg)
	case errors.Is(err, product.ErrNotFound):
		httpmiddleware.WriteError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, storefront.ErrNotInCart):
		httpmiddleware.WriteError(w, http.StatusNotFound, "product not in cart")
	case errors.Is(err, storefront.ErrNotOnGrid):
		httpmiddleware.WriteError(w, http.StatusNotFound, "product not on grid")
	case errors.As(err, &netErr):
		httpmiddleware.WriteError(w, http.StatusBadGateway, "catalog unavailable")
	default:
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		httpmiddleware.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
