package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/api"
	"github.com/xenking/storefront/internal/catalog"
	"github.com/xenking/storefront/internal/persist"
	"github.com/xenking/storefront/internal/product"
	"github.com/xenking/storefront/internal/storage/memory"
	"github.com/xenking/storefront/internal/storefront"
	"github.com/xenking/storefront/internal/view"
)

type noopTelemetry struct{}

func (noopTelemetry) TracerProvider() trace.TracerProvider { return tracenoop.NewTracerProvider() }
func (noopTelemetry) MeterProvider() metric.MeterProvider  { return metricnoop.NewMeterProvider() }

func testConfig() *Config {
	return &Config{
		Addr:             defaultAddr,
		Key:              "cart",
		FetchConcurrency: 4,
		Catalog:          CatalogConfig{Source: SourceDump},
		Storage:          StorageConfig{Driver: DriverMemory},
		RateLimit:        RateLimitConfig{Max: 100, Window: time.Minute},
		CORS:             CORSConfig{Origins: []string{"*"}},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mod     func(c *Config)
		wantErr string
	}{
		{"dump", func(c *Config) { c.Catalog.Dump = "catalog.json.gz" }, ""},
		{"dump without path", func(*Config) {}, "dump catalog"},
		{"unknown driver", func(c *Config) {
			c.Catalog.Dump = "x"
			c.Storage.Driver = "etcd"
		}, `unknown storage driver "etcd"`},
		{"postgres without url", func(c *Config) {
			c.Catalog.Dump = "x"
			c.Storage.Driver = DriverPostgres
		}, "database URL"},
		{"unknown source", func(c *Config) { c.Catalog.Source = "s3" }, `unknown catalog source "s3"`},
		{"upstream", func(c *Config) { c.Catalog.Source = SourceUpstream }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mod(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_PlatformDefaults(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://db/storefront")

	cfg := testConfig()
	cfg.applyPlatformDefaults()
	assert.Equal(t, "0.0.0.0:9090", cfg.Addr)
	assert.Equal(t, "postgres://db/storefront", cfg.Storage.DatabaseURL)
	assert.Equal(t, "postgres://db/storefront", cfg.Catalog.DatabaseURL)

	cfg = testConfig()
	cfg.Addr = "127.0.0.1:7000"
	cfg.applyPlatformDefaults()
	assert.Equal(t, "127.0.0.1:7000", cfg.Addr, "explicit address wins")
}

func TestOpen_DumpAndFile(t *testing.T) {
	dir := t.TempDir()
	dump := filepath.Join(dir, "catalog.json.gz")
	require.NoError(t, catalog.WriteDumpFile(dump, []product.Product{
		{ID: "1", Title: "Backpack", Price: decimal.RequireFromString("109.95"), Category: "bags"},
	}))

	cfg := testConfig()
	cfg.Catalog.Dump = dump
	cfg.Storage = StorageConfig{Driver: DriverFile, Dir: dir}

	ctx := context.Background()
	res, err := Open(ctx, zap.NewNop(), cfg, tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, res.Close()) })

	assert.Empty(t, res.CatalogURL)
	p, err := res.Catalog.FetchProduct(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Backpack", p.Title)

	require.NoError(t, res.Slot.Put(ctx, "cart", []byte(`[]`)))
	got, err := res.Slot.Get(ctx, "cart")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))
}

func TestOpen_MissingDump(t *testing.T) {
	cfg := testConfig()
	cfg.Catalog.Dump = filepath.Join(t.TempDir(), "missing.json")

	_, err := Open(context.Background(), zap.NewNop(), cfg, tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open dump catalog")
}

func TestNewHandler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := testConfig()
	res := &Resources{Slot: memory.New(), Catalog: catalog.NewDump([]product.Product{
		{ID: "1", Title: "Backpack", Price: decimal.RequireFromString("109.95"), Category: "bags"},
	})}

	state := view.NewState()
	sf, err := storefront.New(storefront.Options{
		Catalog: res.Catalog,
		Adapter: persist.NewAdapter(res.Slot, cfg.Key, nil),
		Surface: state,
	})
	require.NoError(t, err)
	sf.Start(ctx)

	healthSvc := newHealth(res)
	healthSvc.SetReady(true)
	h := newHandler(ctx, cfg, noopTelemetry{}, healthSvc, api.NewHandler(sf, state))

	for _, path := range []string{"/livez", "/readyz", "/api/view", "/api/categories"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"), path)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/cart/items", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	healthSvc.SetReady(false)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
