package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/hazard-query/internal/core/config"
	"github.com/mohammed-shakir/hazard-query/internal/core/health"
	middleware "github.com/mohammed-shakir/hazard-query/internal/core/middleware"
	"github.com/mohammed-shakir/hazard-query/internal/core/router"
)

type Deps struct {
	Query router.Querier
	// Ready is pinged by /readyz; nil entries are skipped.
	Ready map[string]health.Pinger
	// Metrics is mounted on cfg.MetricsPath when metrics are enabled.
	Metrics http.Handler
}

// NewRouter wires the query routes, probes and metrics behind the common
// middleware stack.
func NewRouter(cfg config.Config, logger *slog.Logger, d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(2*time.Second, d.Ready))
	if cfg.MetricsEnabled && d.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, d.Metrics)
	}
	r.Get("/query", router.HandleQuery(logger, d.Query, "/query"))
	r.Get("/", router.HandleQuery(logger, d.Query, "/"))
	return r
}

// Run serves h on cfg.Addr until ctx is cancelled, then drains for up to 10s.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, h http.Handler) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
