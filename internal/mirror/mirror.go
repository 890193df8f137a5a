// Package mirror copies a product catalog into a local store so the
// storefront can run against it without the upstream API.
package mirror

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront/internal/catalog"
	"github.com/xenking/storefront/internal/product"
)

// DefaultConcurrency bounds parallel category listings.
const DefaultConcurrency = 4

// Sink receives mirrored products.
type Sink interface {
	Upsert(ctx context.Context, products []product.Product) error
}

// Options configures Run.
type Options struct {
	// Sink, when set, receives every product.
	Sink Sink
	// Out, when set, is the path of a dump file to write. Paths ending in
	// ".gz" are gzipped.
	Out string
	// Concurrency bounds parallel category listings.
	Concurrency int
}

// Stats summarizes a mirror run.
type Stats struct {
	Categories int
	Products   int
	Duration   time.Duration
}

// Run collects src and writes it to the configured destinations.
func Run(ctx context.Context, lg *zap.Logger, src product.Catalog, opts Options) (Stats, error) {
	if opts.Sink == nil && opts.Out == "" {
		return Stats{}, errors.New("no destination: set a sink or an output path")
	}
	start := time.Now()

	categories, products, err := Collect(ctx, src, opts.Concurrency)
	if err != nil {
		return Stats{}, errors.Wrap(err, "collect")
	}
	lg.Info("Catalog collected",
		zap.Int("categories", len(categories)),
		zap.Int("products", len(products)),
	)

	if opts.Sink != nil {
		if err := opts.Sink.Upsert(ctx, products); err != nil {
			return Stats{}, errors.Wrap(err, "upsert products")
		}
		lg.Info("Products upserted", zap.Int("count", len(products)))
	}
	if opts.Out != "" {
		if err := catalog.WriteDumpFile(opts.Out, products); err != nil {
			return Stats{}, err
		}
		lg.Info("Dump written", zap.String("path", opts.Out))
	}

	return Stats{
		Categories: len(categories),
		Products:   len(products),
		Duration:   time.Since(start),
	}, nil
}

// Collect lists every category of src concurrently and returns the
// categories and their products, deduplicated, in category order. Products
// outside any listed category are picked up from the full listing.
func Collect(ctx context.Context, src product.Catalog, concurrency int) ([]string, []product.Product, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	categories, err := src.FetchCategories(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "fetch categories")
	}

	lists := make([][]product.Product, len(categories)+1)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, c := range categories {
		g.Go(func() error {
			products, err := src.FetchCategory(gctx, c)
			if err != nil {
				return errors.Wrapf(err, "fetch category %q", c)
			}
			lists[i] = products
			return nil
		})
	}
	g.Go(func() error {
		all, err := src.FetchAll(gctx)
		if err != nil {
			return errors.Wrap(err, "fetch all")
		}
		lists[len(categories)] = all
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var out []product.Product
	for _, l := range lists {
		out = append(out, l...)
	}
	return categories, product.Dedup(out), nil
}
