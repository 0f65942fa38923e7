// Package app assembles the query service from configuration. The HTTP
// server, the lambda handler and the probe all start from here.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mohammed-shakir/hazard-query/internal/advisory"
	"github.com/mohammed-shakir/hazard-query/internal/aggregate/geojsonagg"
	"github.com/mohammed-shakir/hazard-query/internal/core/config"
	"github.com/mohammed-shakir/hazard-query/internal/core/executor"
	"github.com/mohammed-shakir/hazard-query/internal/core/health"
	"github.com/mohammed-shakir/hazard-query/internal/core/httpclient"
	"github.com/mohammed-shakir/hazard-query/internal/feedcache"
	_ "github.com/mohammed-shakir/hazard-query/internal/feedcache/memstore"
	_ "github.com/mohammed-shakir/hazard-query/internal/feedcache/redisstore"
)

type App struct {
	Service    *advisory.Service
	Aggregator *advisory.Aggregator
	Upstream   *executor.Executor
	Cache      feedcache.Store
}

// Build wires executor, optional feed cache, aggregator and service. now may
// be nil for the wall clock.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger, now func() time.Time) (*App, error) {
	client := httpclient.NewOutbound(cfg.Upstream.Timeout, cfg.Upstream.UserAgent)
	up, err := executor.New(logger, client, cfg.Upstream.BaseURL, cfg.Upstream.MaxBody)
	if err != nil {
		return nil, fmt.Errorf("init executor: %w", err)
	}

	store, err := feedcache.Open(ctx, cfg.Cache, logger)
	if err != nil {
		return nil, err
	}
	fetch := feedcache.Wrap(logger, up, store, cfg.Cache)

	agg := advisory.NewAggregator(logger, fetch, geojsonagg.New(true),
		advisory.DefaultPlan(cfg.Upstream.AirmetLevel, cfg.Upstream.AirmetFore),
		advisory.WithClock(now))

	logger.Info("query service ready",
		"upstream", cfg.Upstream.BaseURL,
		"cache_driver", cfg.Cache.Driver,
		"cache_ttl", cfg.Cache.TTL)

	return &App{
		Service:    advisory.NewService(logger, agg),
		Aggregator: agg,
		Upstream:   up,
		Cache:      store,
	}, nil
}

// ReadinessDeps are the dependencies /readyz pings.
func (a *App) ReadinessDeps() map[string]health.Pinger {
	if _, ok := a.Cache.(feedcache.Nop); ok {
		return nil
	}
	return map[string]health.Pinger{"feed_cache": a.Cache}
}

func (a *App) Close() error {
	return a.Cache.Close()
}
