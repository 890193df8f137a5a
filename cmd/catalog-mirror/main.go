// Command catalog-mirror copies the upstream catalog (or a dump of it) into
// PostgreSQL and optionally writes a dump file.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/catalog"
	"github.com/xenking/storefront/internal/mirror"
	"github.com/xenking/storefront/internal/product"
	"github.com/xenking/storefront/internal/storage/postgres"
)

type options struct {
	databaseURL string
	source      string
	dump        string
	out         string
	timeout     time.Duration
	concurrency int
}

func main() {
	var opts options
	flag.StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&opts.source, "source", catalog.DefaultBaseURL, "upstream catalog base URL")
	flag.StringVar(&opts.dump, "dump", "", "read products from this dump instead of the upstream")
	flag.StringVar(&opts.out, "out", "", "write a dump to this path (.gz to compress)")
	flag.DurationVar(&opts.timeout, "timeout", 30*time.Second, "per-request upstream timeout")
	flag.IntVar(&opts.concurrency, "concurrency", mirror.DefaultConcurrency, "parallel category requests")
	flag.Parse()

	if opts.databaseURL == "" {
		opts.databaseURL = os.Getenv("DATABASE_URL")
	}

	lg, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, opts); err != nil {
		lg.Error("Mirror failed", zap.Error(err))
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, lg *zap.Logger, opts options) error {
	if opts.databaseURL == "" && opts.out == "" {
		return errors.New("nothing to do: set --database-url, DATABASE_URL or --out")
	}

	var src product.Catalog
	if opts.dump != "" {
		d, err := catalog.LoadDump(opts.dump)
		if err != nil {
			return err
		}
		src = d
	} else {
		c, err := catalog.NewClient(catalog.ClientOptions{BaseURL: opts.source, Timeout: opts.timeout})
		if err != nil {
			return err
		}
		src = c
	}

	mopts := mirror.Options{Out: opts.out, Concurrency: opts.concurrency}
	if opts.databaseURL != "" {
		lg.Info("Connecting to database")
		pool, err := postgres.NewPool(ctx, opts.databaseURL)
		if err != nil {
			return errors.Wrap(err, "connect to database")
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return err
		}
		mopts.Sink = postgres.NewProductRepository(pool)
	}

	stats, err := mirror.Run(ctx, lg, src, mopts)
	if err != nil {
		return err
	}
	lg.Info("Mirror completed",
		zap.Int("categories", stats.Categories),
		zap.Int("products", stats.Products),
		zap.Duration("took", stats.Duration),
	)
	return nil
}
