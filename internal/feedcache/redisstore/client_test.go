package redisstore

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/mohammed-shakir/hazard-query/internal/core/config"
	"github.com/mohammed-shakir/hazard-query/internal/core/observability"
	"github.com/mohammed-shakir/hazard-query/internal/feedcache"
	"github.com/mohammed-shakir/hazard-query/internal/metrics"
)

// creates new client connected to miniredis for testing
func newMini(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)

	rc, err := New(ctx, mr.Addr(), WithPoolSize(4))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = rc.Close() })
	return rc, mr
}

func TestSetGet_HappyPathAndMiss(t *testing.T) {
	rc, _ := newMini(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := rc.Set(ctx, "k1", []byte(`{"type":"FeatureCollection"}`), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := rc.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `{"type":"FeatureCollection"}` {
		t.Fatalf("Get=%q", got)
	}
	if _, err := rc.Get(ctx, "missing"); !errors.Is(err, feedcache.ErrMiss) {
		t.Fatalf("err=%v want ErrMiss", err)
	}
}

func TestTTLExpiry(t *testing.T) {
	rc, mr := newMini(t)
	ctx := context.Background()

	if err := rc.Set(ctx, "ttl-key", []byte("v"), 2*time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	mr.FastForward(3 * time.Second)

	if _, err := rc.Get(ctx, "ttl-key"); !errors.Is(err, feedcache.ErrMiss) {
		t.Fatalf("err=%v want ErrMiss after expiry", err)
	}
}

func TestContextCanceled_IsError(t *testing.T) {
	rc, _ := newMini(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := rc.Set(ctx, "k", []byte("v"), time.Second); err == nil {
		t.Fatalf("expected error on Set with canceled context")
	}
	if _, err := rc.Get(ctx, "k"); err == nil || errors.Is(err, feedcache.ErrMiss) {
		t.Fatalf("expected non-miss error on Get with canceled context, got %v", err)
	}
}

func TestPing_FailsWhenServerGone(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	rc, err := New(ctx, mr.Addr())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = rc.Close() }()

	mr.Close()
	if err := rc.Ping(ctx); err == nil {
		t.Fatal("expected ping error after server shutdown")
	}
}

func TestNew_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if _, err := New(ctx, "127.0.0.1:1"); err == nil {
		t.Fatal("expected error for unreachable redis")
	}
	if _, err := New(ctx, ""); err == nil {
		t.Fatal("expected error for empty address")
	}
}

func TestRegisteredDriver(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	st, err := feedcache.Open(context.Background(), config.CacheCfg{
		Driver:    "redis",
		RedisAddr: mr.Addr(),
		OpTimeout: 250 * time.Millisecond,
	}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = st.Close() }()
	if _, ok := st.(*Client); !ok {
		t.Fatalf("driver=%T want *redisstore.Client", st)
	}
}

func TestMetrics_Incremented(t *testing.T) {
	p := metrics.Init(config.BuildCfg{})
	observability.Init(p.Registerer())

	rc, _ := newMini(t)
	ctx := context.Background()

	_ = rc.Set(ctx, "m1", []byte("x"), time.Minute)
	_, _ = rc.Get(ctx, "m1")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	p.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `cache_op_total{op="set",result="ok"}`) ||
		!strings.Contains(body, `cache_op_total{op="get",result="ok"}`) {
		t.Fatalf("missing cache_op_total metrics; got:\n%s", body)
	}
	if !strings.Contains(body, `cache_operation_duration_seconds_bucket{op="ping"`) {
		t.Fatalf("missing cache_operation_duration_seconds histogram; got:\n%s", body)
	}
}
