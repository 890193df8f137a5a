// Package app wires the storefront HTTP server from configuration.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/api"
	"github.com/xenking/storefront/internal/persist"
	"github.com/xenking/storefront/internal/storefront"
	"github.com/xenking/storefront/internal/view"
	"github.com/xenking/storefront/pkg/health"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

const serviceName = "storefront-api"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	res, err := Open(ctx, lg, cfg, m.TracerProvider(), m.MeterProvider())
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Close(); err != nil {
			lg.Error("Close resources", zap.Error(err))
		}
	}()

	// Storefront core over a shared view model.
	state := view.NewState()
	sf, err := storefront.New(storefront.Options{
		Catalog:          res.Catalog,
		Adapter:          persist.NewAdapter(res.Slot, cfg.Key, lg.Named("persist")),
		Surface:          state,
		Logger:           lg.Named("storefront"),
		FetchConcurrency: cfg.FetchConcurrency,
		MeterProvider:    m.MeterProvider(),
	})
	if err != nil {
		return errors.Wrap(err, "create storefront")
	}
	sf.Start(ctx)

	healthSvc := newHealth(res)
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, m, healthSvc, api.NewHandler(sf, state)),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

func newHealth(res *Resources) *health.Health {
	h := health.New()
	if p, ok := res.Slot.(health.Pinger); ok {
		h.AddReadinessCheck("slot", 5*time.Second, health.PingCheck(p))
	}
	if res.CatalogURL != "" {
		h.AddReadinessCheck("catalog", 5*time.Second,
			health.HTTPCheck(http.DefaultClient, res.CatalogURL+"/products/categories"))
	}
	h.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	h.AddLivenessCheck("gc", time.Second, health.GCMaxPauseCheck(time.Second))
	return h
}

// newHandler mounts the health endpoints next to the API and wraps both in
// the middleware chain.
func newHandler(
	ctx context.Context,
	cfg *Config,
	t httpmiddleware.Telemetry,
	healthSvc *health.Health,
	h *api.Handler,
) http.Handler {
	routes := h.Routes()
	routeFinder := httpmiddleware.MakeRouteFinder(routes)

	mux := chi.NewRouter()
	mux.Get("/livez", healthSvc.LiveEndpoint)
	mux.Get("/readyz", healthSvc.ReadyEndpoint)
	mux.Mount("/", routes)

	return httpmiddleware.Wrap(mux,
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", httpmiddleware.RequestIDHeader},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
		}),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(zctx.From(ctx)),
		httpmiddleware.Instrument(serviceName, routeFinder, t),
		httpmiddleware.LogRequests(routeFinder),
		httpmiddleware.Labeler(routeFinder),
	)
}
