// Package feedcache caches raw upstream feed bodies. A feed request is a pure
// function of its path and parameters (the date bucket included), so the body
// can be reused until the bucket moves on or the TTL expires.
package feedcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/mohammed-shakir/hazard-query/internal/core/config"
)

var ErrMiss = errors.New("feed cache miss")

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close() error
}

type Factory func(ctx context.Context, cfg config.CacheCfg) (Store, error)

var reg = map[string]Factory{}

func Register(name string, f Factory) {
	reg[name] = f
}

// Drivers lists the registered driver names.
func Drivers() []string {
	out := make([]string, 0, len(reg))
	for k := range reg {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func init() {
	Register("none", func(context.Context, config.CacheCfg) (Store, error) { return Nop{}, nil })
}

// Open builds the configured driver. Unknown drivers fall back to "none".
func Open(ctx context.Context, cfg config.CacheCfg, logger *slog.Logger) (Store, error) {
	f, ok := reg[cfg.Driver]
	if !ok {
		logger.Warn("unknown cache driver; caching disabled", "driver", cfg.Driver, "known", Drivers())
		return Nop{}, nil
	}
	s, err := f(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s cache: %w", cfg.Driver, err)
	}
	return s, nil
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, error) { return nil, ErrMiss }

func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (Nop) Ping(context.Context) error { return nil }

func (Nop) Close() error { return nil }
