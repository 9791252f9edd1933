package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/orderdesk/internal/service"
	"github.com/xenking/orderdesk/pkg/health"
	"github.com/xenking/orderdesk/pkg/httpmiddleware"
)

// Run wires the core, applies seed files, starts the snapshot watchers and
// serves the probes until ctx is done. It is the single wiring point for the
// process.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr), zap.Strings("seed", cfg.SeedFiles))
	ctx = zctx.Base(ctx, lg)

	tel, err := service.NewTelemetry(m.TracerProvider(), m.MeterProvider())
	if err != nil {
		return errors.Wrap(err, "create telemetry")
	}
	core := NewCore(tel)

	if err := core.Seed(ctx, cfg.SeedFiles); err != nil {
		return errors.Wrap(err, "seed")
	}

	healthSvc := health.New()
	core.RegisterChecks(healthSvc, cfg.Health)
	healthSvc.Start(ctx, cfg.Health.Interval)
	defer healthSvc.Stop()

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           probeHandler(lg, healthSvc, m.TracerProvider(), m.MeterProvider()),
	}

	g, ctx := errgroup.WithContext(ctx)
	if cfg.WatchSnapshots {
		g.Go(func() error {
			watchOrders(ctx, lg.Named("orders"), core.Orders.GetAllOrders(ctx))
			return nil
		})
		g.Go(func() error {
			watchProducts(ctx, lg.Named("products"), core.Products.GetAllProducts(ctx))
			return nil
		})
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	g.Go(func() error {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})
	g.Go(func() error {
		healthSvc.SetReady(true)
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})

	return g.Wait()
}

// probeHandler serves /livez and /readyz with request ids, panic recovery and
// tracing.
func probeHandler(lg *zap.Logger, h *health.Health, tp trace.TracerProvider, mp metric.MeterProvider) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /livez", h.Handler(health.Liveness))
	mux.Handle("GET /readyz", h.Handler(health.Readiness))

	return otelhttp.NewHandler(
		httpmiddleware.Wrap(mux,
			httpmiddleware.RequestID(lg),
			httpmiddleware.Recovery(),
		),
		"orderdesk.probes",
		otelhttp.WithTracerProvider(tp),
		otelhttp.WithMeterProvider(mp),
	)
}
