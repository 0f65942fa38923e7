package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mohammed-shakir/hazard-query/internal/advisory"
	"github.com/mohammed-shakir/hazard-query/internal/aggregate/geojsonagg"
	"github.com/mohammed-shakir/hazard-query/internal/core/config"
	"github.com/mohammed-shakir/hazard-query/internal/core/executor"
	"github.com/mohammed-shakir/hazard-query/internal/core/httpclient"
)

func testRedis(ctx context.Context, addr string) error {
	fmt.Println("Redis test")
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 2 * time.Second,
	})
	defer func() { _ = client.Close() }()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	if err := client.Set(ctx, "hazard:probe", "ok", 30*time.Second).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	val, err := client.Get(ctx, "hazard:probe").Result()
	if err != nil {
		return fmt.Errorf("redis get: %w", err)
	}
	fmt.Println("redis GET hazard:probe:", val)
	return nil
}

// fetches one feed of the current plan and reports its feature count
func testUpstream(ctx context.Context, cfg config.Config, feed string) error {
	fmt.Println("Upstream test")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	exec, err := executor.New(logger, httpclient.NewOutbound(cfg.Upstream.Timeout, cfg.Upstream.UserAgent),
		cfg.Upstream.BaseURL, cfg.Upstream.MaxBody)
	if err != nil {
		return err
	}

	plan := advisory.DefaultPlan(cfg.Upstream.AirmetLevel, cfg.Upstream.AirmetFore)
	for _, fr := range plan.Resolve(advisory.ComputeBuckets(time.Now())) {
		if fr.Feed != feed {
			continue
		}
		fmt.Println("GET", exec.URL(fr).String())
		body, err := exec.FetchFeed(ctx, fr)
		if err != nil {
			return err
		}
		feats, diag, err := geojsonagg.New(true).MergeFeatures([][]byte{body})
		if err != nil {
			return fmt.Errorf("decode %s: %w", feed, err)
		}
		fmt.Printf("%s: %d bytes, %d features (%d without id)\n", feed, len(body), len(feats), diag.WithoutID)
		return nil
	}
	return fmt.Errorf("unknown feed %q", feed)
}

func testService(ctx context.Context, base, lat, lon string) error {
	fmt.Println("Service test")
	u, err := url.Parse(strings.TrimRight(base, "/") + "/query")
	if err != nil {
		return fmt.Errorf("bad service URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	u.RawQuery = url.Values{"lat": {lat}, "lon": {lon}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("http get query: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// only a prefix; responses can be large
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("query status %d: %s", resp.StatusCode, string(body))
	}
	fmt.Println("query sample:")
	fmt.Println(string(body))
	return nil
}

func main() {
	feed := flag.String("feed", "sigmet", "feed to fetch from the upstream")
	service := flag.String("service", "", "base URL of a running hazard-query server")
	lat := flag.String("lat", "39.86", "query latitude")
	lon := flag.String("lon", "-104.67", "query longitude")
	flag.Parse()

	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var errs []error
	if cfg.Cache.Driver == "redis" {
		if err := testRedis(ctx, cfg.Cache.RedisAddr); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if err := testUpstream(ctx, cfg, *feed); err != nil {
		errs = append(errs, fmt.Errorf("upstream: %w", err))
	}
	if *service != "" {
		if err := testService(ctx, *service, *lat, *lon); err != nil {
			errs = append(errs, fmt.Errorf("service: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		fmt.Fprintln(os.Stderr, "probe failed:", err)
		os.Exit(1)
	}
	fmt.Println("All checks passed")
}
