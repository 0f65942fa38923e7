// Package memstore is the in-process feed cache driver.
package memstore

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mohammed-shakir/hazard-query/internal/core/config"
	"github.com/mohammed-shakir/hazard-query/internal/feedcache"
)

func init() {
	feedcache.Register("memory", func(_ context.Context, cfg config.CacheCfg) (feedcache.Store, error) {
		return New(cfg.Size, cfg.TTL)
	})
}

// Store is a bounded LRU whose entries expire after the TTL given to New.
// The per-call TTL on Set is ignored.
type Store struct {
	lru *expirable.LRU[string, []byte]
}

var _ feedcache.Store = (*Store)(nil)

func New(size int, ttl time.Duration) (*Store, error) {
	if size <= 0 {
		return nil, errors.New("memory cache size must be positive")
	}
	if ttl <= 0 {
		return nil, errors.New("memory cache ttl must be positive")
	}
	return &Store{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}, nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := s.lru.Get(key)
	if !ok {
		return nil, feedcache.ErrMiss
	}
	return append([]byte(nil), v...), nil
}

func (s *Store) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	s.lru.Add(key, append([]byte(nil), val...))
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error {
	s.lru.Purge()
	return nil
}

func (s *Store) Len() int {
	return s.lru.Len()
}
