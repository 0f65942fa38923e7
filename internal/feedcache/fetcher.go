package feedcache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mohammed-shakir/hazard-query/internal/core/config"
	"github.com/mohammed-shakir/hazard-query/internal/core/executor"
	"github.com/mohammed-shakir/hazard-query/internal/core/model"
	"github.com/mohammed-shakir/hazard-query/internal/core/observability"
	"github.com/mohammed-shakir/hazard-query/internal/feedcache/keys"
)

// Fetcher serves feed bodies from a Store and fills it from the wrapped
// executor on a miss. Cache failures are logged and never fail the fetch.
type Fetcher struct {
	logger    *slog.Logger
	next      executor.Interface
	store     Store
	ttl       time.Duration
	opTimeout time.Duration
}

var _ executor.Interface = (*Fetcher)(nil)

// Wrap returns next unchanged when the store is nil or a Nop.
func Wrap(logger *slog.Logger, next executor.Interface, store Store, cfg config.CacheCfg) executor.Interface {
	switch store.(type) {
	case nil, Nop:
		return next
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 250 * time.Millisecond
	}
	return &Fetcher{
		logger:    logger,
		next:      next,
		store:     store,
		ttl:       cfg.TTL,
		opTimeout: cfg.OpTimeout,
	}
}

func (f *Fetcher) FetchFeed(ctx context.Context, fr model.FeedRequest) ([]byte, error) {
	key := keys.FeedKey(fr)

	if b, err := f.get(ctx, key); err == nil {
		observability.IncFeedCacheHit()
		f.logger.DebugContext(ctx, "feed cache hit", "key", key, "bytes", len(b))
		return b, nil
	} else if !errors.Is(err, ErrMiss) {
		f.logger.WarnContext(ctx, "feed cache read failed", "key", key, "err", err)
	}
	observability.IncFeedCacheMiss()

	b, err := f.next.FetchFeed(ctx, fr)
	if err != nil {
		return nil, err
	}
	if err := f.set(ctx, key, b); err != nil {
		f.logger.WarnContext(ctx, "feed cache write failed", "key", key, "err", err)
	}
	return b, nil
}

func (f *Fetcher) get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.opTimeout)
	defer cancel()
	return f.store.Get(ctx, key)
}

func (f *Fetcher) set(ctx context.Context, key string, val []byte) error {
	// the write outlives a cancelled request so a completed fetch is not wasted
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.opTimeout)
	defer cancel()
	return f.store.Set(ctx, key, val, f.ttl)
}
