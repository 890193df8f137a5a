package app

import (
	"context"
	"slices"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/catalog"
	"github.com/xenking/storefront/internal/persist"
	"github.com/xenking/storefront/internal/product"
	"github.com/xenking/storefront/internal/storage/file"
	"github.com/xenking/storefront/internal/storage/memory"
	"github.com/xenking/storefront/internal/storage/postgres"
	"github.com/xenking/storefront/internal/storage/redis"
	"github.com/xenking/storefront/internal/storage/sqlite"
)

// Resources are the slot and catalog selected by a Config.
type Resources struct {
	Slot    persist.Slot
	Catalog product.Catalog
	// CatalogURL is the upstream base URL, empty for offline sources.
	CatalogURL string

	pools   map[string]*pgxpool.Pool
	closers []func() error
}

// Open connects the configured slot and catalog. Close releases them.
func Open(ctx context.Context, lg *zap.Logger, cfg *Config, tp trace.TracerProvider, mp metric.MeterProvider) (_ *Resources, rerr error) {
	r := &Resources{pools: make(map[string]*pgxpool.Pool)}
	defer func() {
		if rerr != nil {
			rerr = multierr.Append(rerr, r.Close())
		}
	}()

	slot, err := r.openSlot(ctx, cfg.Storage)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s slot", cfg.Storage.Driver)
	}
	r.Slot = slot

	cat, err := r.openCatalog(ctx, cfg.Catalog, tp, mp)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s catalog", cfg.Catalog.Source)
	}
	r.Catalog = cat

	lg.Info("Resources opened",
		zap.String("storage", cfg.Storage.Driver),
		zap.String("catalog", cfg.Catalog.Source),
	)
	return r, nil
}

// Close releases connections in reverse order of opening.
func (r *Resources) Close() error {
	var err error
	for _, c := range slices.Backward(r.closers) {
		err = multierr.Append(err, c())
	}
	r.closers = nil
	return err
}

func (r *Resources) openSlot(ctx context.Context, cfg StorageConfig) (persist.Slot, error) {
	switch cfg.Driver {
	case DriverMemory:
		return memory.New(), nil
	case DriverFile:
		return file.New(cfg.Dir)
	case DriverSQLite:
		s, err := sqlite.Open(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, s.Close)
		return s, nil
	case DriverPostgres:
		pool, err := r.pool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return postgres.NewSlot(pool), nil
	case DriverRedis:
		s := redis.New(redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		r.closers = append(r.closers, s.Close)
		return s, nil
	default:
		return nil, errors.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func (r *Resources) openCatalog(ctx context.Context, cfg CatalogConfig, tp trace.TracerProvider, mp metric.MeterProvider) (product.Catalog, error) {
	switch cfg.Source {
	case SourceUpstream:
		c, err := catalog.NewClient(catalog.ClientOptions{
			BaseURL:        cfg.URL,
			Timeout:        cfg.Timeout,
			TracerProvider: tp,
			MeterProvider:  mp,
		})
		if err != nil {
			return nil, err
		}
		r.CatalogURL = cfg.URL
		return c, nil
	case SourceDump:
		return catalog.LoadDump(cfg.Dump)
	case SourcePostgres:
		pool, err := r.pool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return postgres.NewProductRepository(pool), nil
	default:
		return nil, errors.Errorf("unknown catalog source %q", cfg.Source)
	}
}

// pool returns a migrated pool for url, shared between slot and catalog.
func (r *Resources) pool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	if p, ok := r.pools[url]; ok {
		return p, nil
	}
	pool, err := postgres.NewPool(ctx, url)
	if err != nil {
		return nil, err
	}
	r.closers = append(r.closers, func() error {
		pool.Close()
		return nil
	})
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return nil, err
	}
	r.pools[url] = pool
	return pool, nil
}
