package advisory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mohammed-shakir/hazard-query/internal/aggregate"
	"github.com/mohammed-shakir/hazard-query/internal/core/executor"
	"github.com/mohammed-shakir/hazard-query/internal/core/model"
	"github.com/mohammed-shakir/hazard-query/internal/core/observability"
	"github.com/mohammed-shakir/hazard-query/internal/logger"
)

type Aggregator struct {
	logger *slog.Logger
	fetch  executor.Interface
	merger aggregate.FeatureMerger
	plan   Plan
	now    func() time.Time
}

type Option func(*Aggregator)

// WithClock replaces time.Now for bucket computation.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

func NewAggregator(logger *slog.Logger, fetch executor.Interface, merger aggregate.FeatureMerger, plan Plan, opts ...Option) *Aggregator {
	a := &Aggregator{
		logger: logger,
		fetch:  fetch,
		merger: merger,
		plan:   plan,
		now:    time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Requests resolves the plan against the clock's current buckets.
func (a *Aggregator) Requests() []model.FeedRequest {
	return a.plan.Resolve(ComputeBuckets(a.now()))
}

// FetchAll fetches every feed concurrently and merges the results in plan
// order. The first failing feed cancels the others and no partial result is
// returned.
func (a *Aggregator) FetchAll(ctx context.Context) ([]json.RawMessage, aggregate.Diagnostics, error) {
	reqs := a.Requests()
	parts := make([][]byte, len(reqs))

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for i, fr := range reqs {
		g.Go(func() error {
			b, err := a.fetch.FetchFeed(logger.WithFeed(gctx, fr.Feed), fr)
			if err != nil {
				return fmt.Errorf("fetch feed %q: %w", fr.Feed, err)
			}
			parts[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, aggregate.Diagnostics{}, err
	}

	feats, diag, err := a.merger.MergeFeatures(parts)
	if err != nil {
		return nil, diag, fmt.Errorf("merge feeds: %w", err)
	}
	observability.AddFeatures("merged", diag.TotalIn)
	observability.AddFeatures("deduplicated", diag.DedupByID)

	a.logger.InfoContext(ctx, "advisories aggregated",
		"feeds", len(reqs),
		"features_in", diag.TotalIn,
		"features_out", diag.TotalOut,
		"dedup_by_id", diag.DedupByID,
		"without_id", diag.WithoutID,
		"duration", time.Since(start))
	return feats, diag, nil
}
