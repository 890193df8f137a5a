// Package catalog talks to the upstream product catalog and provides the
// caching, offline and search layers built on top of it.
package catalog

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/storefront/internal/product"
)

// DefaultBaseURL is the public catalog the storefront was built against.
const DefaultBaseURL = "https://fakestoreapi.com"

// maxBodySize bounds how much of an upstream response is read.
const maxBodySize = 8 << 20

var _ product.Catalog = (*Client)(nil)

// ClientOptions configures a Client.
type ClientOptions struct {
	// BaseURL of the catalog API. Defaults to DefaultBaseURL.
	BaseURL string
	// Timeout bounds a single request. Zero means no timeout beyond the
	// caller's context.
	Timeout time.Duration
	// HTTPClient overrides the instrumented default client.
	HTTPClient *http.Client

	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Client fetches products from a fakestoreapi-compatible catalog.
type Client struct {
	base   string
	http   *http.Client
	tracer trace.Tracer
}

// NewClient returns a Client for the configured catalog.
func NewClient(opts ClientOptions) (*Client, error) {
	base := opts.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("base url %q must be absolute", base)
	}

	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	mp := opts.MeterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Timeout: opts.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithTracerProvider(tp),
				otelhttp.WithMeterProvider(mp),
			),
		}
	}

	return &Client{
		base:   strings.TrimRight(u.String(), "/"),
		http:   hc,
		tracer: tp.Tracer("storefront/catalog"),
	}, nil
}

// FetchProduct returns one product. It fails with product.ErrNotFound when
// the upstream has no such product and with *NetworkError on transport
// failure.
func (c *Client) FetchProduct(ctx context.Context, id string) (_ *product.Product, rerr error) {
	ctx, span := c.tracer.Start(ctx, "catalog.FetchProduct",
		trace.WithAttributes(attribute.String("product.id", id)),
	)
	defer endSpan(span, &rerr)

	if id == "" {
		return nil, product.ErrNotFound
	}

	op := "fetch product"
	body, err := c.get(ctx, op, "/products/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	if isEmptyBody(body) {
		return nil, product.ErrNotFound
	}

	p, err := decodeProduct(jx.DecodeBytes(body))
	if err != nil {
		return nil, c.decodeError(op, "/products/"+id, err)
	}
	if p.ID == "" {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

// FetchCategory returns the products in category, or an empty list.
func (c *Client) FetchCategory(ctx context.Context, category string) (_ []product.Product, rerr error) {
	ctx, span := c.tracer.Start(ctx, "catalog.FetchCategory",
		trace.WithAttributes(attribute.String("product.category", category)),
	)
	defer endSpan(span, &rerr)

	return c.fetchProducts(ctx, "fetch category", "/products/category/"+url.PathEscape(category))
}

// FetchAll returns the full catalog.
func (c *Client) FetchAll(ctx context.Context) (_ []product.Product, rerr error) {
	ctx, span := c.tracer.Start(ctx, "catalog.FetchAll")
	defer endSpan(span, &rerr)

	return c.fetchProducts(ctx, "fetch all", "/products")
}

// FetchCategories returns the category names.
func (c *Client) FetchCategories(ctx context.Context) (_ []string, rerr error) {
	ctx, span := c.tracer.Start(ctx, "catalog.FetchCategories")
	defer endSpan(span, &rerr)

	const op, path = "fetch categories", "/products/categories"
	body, err := c.get(ctx, op, path)
	if err != nil {
		return nil, err
	}
	if isEmptyBody(body) {
		return []string{}, nil
	}
	out, err := decodeStrings(jx.DecodeBytes(body))
	if err != nil {
		return nil, c.decodeError(op, path, err)
	}
	return out, nil
}

// fetchProducts fetches a product listing. Listings never fail with
// product.ErrNotFound: a 404 is an empty listing.
func (c *Client) fetchProducts(ctx context.Context, op, path string) ([]product.Product, error) {
	body, err := c.get(ctx, op, path)
	if errors.Is(err, product.ErrNotFound) {
		return []product.Product{}, nil
	}
	if err != nil {
		return nil, err
	}
	if isEmptyBody(body) {
		return []product.Product{}, nil
	}
	products, err := decodeProducts(jx.DecodeBytes(body))
	if err != nil {
		return nil, c.decodeError(op, path, err)
	}
	return products, nil
}

// get performs a GET request and returns the response body. A 404 answer
// maps to product.ErrNotFound; any other non-2xx answer and any transport
// failure map to *NetworkError.
func (c *Client) get(ctx context.Context, op, path string) ([]byte, error) {
	u := c.base + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, URL: u, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, product.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NetworkError{Op: op, URL: u, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &NetworkError{Op: op, URL: u, Err: errors.Wrap(err, "read body")}
	}
	return body, nil
}

func (c *Client) decodeError(op, path string, err error) error {
	return &NetworkError{Op: op, URL: c.base + path, Err: errors.Wrap(err, "decode")}
}

func endSpan(span trace.Span, err *error) {
	if *err != nil && !errors.Is(*err, product.ErrNotFound) {
		span.RecordError(*err)
		span.SetStatus(codes.Error, (*err).Error())
	}
	span.End()
}
