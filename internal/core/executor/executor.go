// Package executor performs the upstream advisory feed requests.
package executor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mohammed-shakir/hazard-query/internal/core/model"
	"github.com/mohammed-shakir/hazard-query/internal/core/observability"
	"github.com/mohammed-shakir/hazard-query/internal/logger"
)

type Interface interface {
	FetchFeed(ctx context.Context, req model.FeedRequest) ([]byte, error)
}

type Executor struct {
	logger   *slog.Logger
	client   *http.Client
	baseURL  *url.URL
	maxBody  int64
	startNow func() time.Time // for tests
}

var _ Interface = (*Executor)(nil)

func New(logger *slog.Logger, client *http.Client, base string, maxBody int64) (*Executor, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse upstream url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported upstream scheme %q", u.Scheme)
	}
	if client == nil {
		client = http.DefaultClient
	}
	if maxBody <= 0 {
		maxBody = 32 << 20
	}
	return &Executor{
		logger:   logger,
		client:   client,
		baseURL:  u,
		maxBody:  maxBody,
		startNow: time.Now,
	}, nil
}

// URL resolves a feed request against the upstream base.
func (e *Executor) URL(req model.FeedRequest) *url.URL {
	u := *e.baseURL
	u.Path = e.baseURL.Path + "/" + strings.TrimLeft(req.Path, "/")
	u.RawPath = ""
	u.RawQuery = req.Params.Encode()
	return &u
}

func (e *Executor) FetchFeed(ctx context.Context, fr model.FeedRequest) ([]byte, error) {
	u := e.URL(fr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := e.startNow()
	resp, err := e.client.Do(req)
	if err != nil {
		observability.ObserveUpstreamFetch(fr.Feed, err)
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		err := fmt.Errorf("upstream status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		observability.ObserveUpstreamFetch(fr.Feed, err)
		return nil, err
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBody+1))
	if err == nil && int64(len(b)) > e.maxBody {
		err = fmt.Errorf("body exceeds %d bytes", e.maxBody)
	}
	dur := time.Since(start)
	observability.ObserveUpstreamLatency(fr.Feed, dur.Seconds())
	observability.ObserveUpstreamFetch(fr.Feed, err)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	e.logger.DebugContext(logger.WithFeed(ctx, fr.Feed), "feed fetched",
		"url", u.String(),
		"status", resp.StatusCode,
		"bytes", len(b),
		"duration", dur)
	return b, nil
}
