package api

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/catalog"
	"github.com/xenking/storefront/internal/view"
)

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	encode(e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeView writes the view model. extra may add top-level fields.
func writeView(w http.ResponseWriter, m view.Model, extra func(e *jx.Encoder)) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("grid", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, c := range m.Grid {
						encodeCard(e, c)
					}
				})
			})
			e.Field("cart", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, l := range m.Panel {
						encodeLine(e, l)
					}
				})
			})
			e.Field("counter", func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("total", func(e *jx.Encoder) { e.Int(m.Counter.Total) })
					e.Field("visible", func(e *jx.Encoder) { e.Bool(m.Counter.Visible) })
				})
			})
			if extra != nil {
				extra(e)
			}
		})
	})
}

func encodeCard(e *jx.Encoder, c view.Card) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("product", func(e *jx.Encoder) { catalog.EncodeProduct(e, c.Product) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(c.Quantity) })
		e.Field("total", func(e *jx.Encoder) { e.Str(view.FormatTotal(c.Total)) })
	})
}

func encodeLine(e *jx.Encoder, l view.Line) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("productId", func(e *jx.Encoder) { e.Str(l.ProductID) })
		e.Field("available", func(e *jx.Encoder) { e.Bool(l.Available) })
		if l.Available {
			e.Field("product", func(e *jx.Encoder) { catalog.EncodeProduct(e, l.Product) })
			e.Field("total", func(e *jx.Encoder) { e.Str(view.FormatTotal(l.Total)) })
		}
		e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
	})
}

func encodeStrings(e *jx.Encoder, values []string) {
	e.Arr(func(e *jx.Encoder) {
		for _, v := range values {
			e.Str(v)
		}
	})
}
