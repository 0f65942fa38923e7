package advisory

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mohammed-shakir/hazard-query/internal/aggregate/geojsonagg"
	"github.com/mohammed-shakir/hazard-query/internal/core/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeFeeds serves fixed bodies per feed name and records every request.
type fakeFeeds struct {
	mu     sync.Mutex
	bodies map[string]string
	fail   map[string]error
	block  map[string]bool
	seen   []model.FeedRequest
	cancel int
}

func (f *fakeFeeds) FetchFeed(ctx context.Context, fr model.FeedRequest) ([]byte, error) {
	f.mu.Lock()
	f.seen = append(f.seen, fr)
	err := f.fail[fr.Feed]
	block := f.block[fr.Feed]
	body, ok := f.bodies[fr.Feed]
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if block {
		select {
		case <-ctx.Done():
			f.mu.Lock()
			f.cancel++
			f.mu.Unlock()
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
			return nil, errors.New("not cancelled")
		}
	}
	if !ok {
		body = `{"type":"FeatureCollection","features":[]}`
	}
	return []byte(body), nil
}

func (f *fakeFeeds) requests() []model.FeedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.FeedRequest(nil), f.seen...)
}

func collection(features ...string) string {
	return `{"type":"FeatureCollection","features":[` + strings.Join(features, ",") + `]}`
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestAggregator(feeds *fakeFeeds, now time.Time) *Aggregator {
	return NewAggregator(discardLogger(), feeds, geojsonagg.New(true), DefaultPlan("sfc", -1), WithClock(fixedClock(now)))
}

func TestAggregator_FetchAll_IssuesEveryFeed(t *testing.T) {
	feeds := &fakeFeeds{}
	agg := newTestAggregator(feeds, utc(2024, time.March, 7, 5, 0))

	if _, _, err := agg.FetchAll(context.Background()); err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	got := map[string]string{}
	for _, r := range feeds.requests() {
		got[r.Feed] = r.Params.Get("date")
	}
	want := map[string]string{
		"sigmet":         "202403070600",
		"sigmet_outlook": "202403070800",
		"airmet_0":       "202403070300",
		"airmet_1":       "202403070600",
		"airmet_2":       "202403070900",
		"airmet_3":       "202403071200",
		"cwa":            "",
	}
	if len(got) != len(want) {
		t.Fatalf("feeds fetched=%v want %d feeds", got, len(want))
	}
	for feed, date := range want {
		if d, ok := got[feed]; !ok || d != date {
			t.Fatalf("feed %s date=%q (fetched=%v) want %q", feed, d, ok, date)
		}
	}
}

func TestAggregator_FetchAll_PlanOrderIsDedupPrecedence(t *testing.T) {
	feeds := &fakeFeeds{bodies: map[string]string{
		"sigmet":   collection(`{"type":"Feature","id":"X","geometry":null,"properties":{"src":"sigmet"}}`),
		"airmet_1": collection(`{"type":"Feature","id":"Y","geometry":null,"properties":{"src":"airmet_1"}}`),
		"airmet_3": collection(`{"type":"Feature","id":"Y","geometry":null,"properties":{"src":"airmet_3"}}`),
		"cwa":      collection(`{"type":"Feature","id":"X","geometry":null,"properties":{"src":"cwa"}}`),
	}}
	agg := newTestAggregator(feeds, utc(2024, time.March, 7, 5, 0))

	feats, diag, err := agg.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(feats) != 2 || diag.DedupByID != 2 || diag.TotalIn != 4 {
		t.Fatalf("features=%d diag=%+v want 2 features, 2 dropped of 4", len(feats), diag)
	}
	for i, want := range []string{"sigmet", "airmet_1"} {
		var f struct {
			Properties struct {
				Src string `json:"src"`
			} `json:"properties"`
		}
		if err := json.Unmarshal(feats[i], &f); err != nil {
			t.Fatalf("feature %d: %v", i, err)
		}
		if f.Properties.Src != want {
			t.Fatalf("feature %d src=%q want %q", i, f.Properties.Src, want)
		}
	}
}

func TestAggregator_FetchAll_FailFast(t *testing.T) {
	feeds := &fakeFeeds{
		fail:  map[string]error{"airmet_2": errors.New("upstream status 500: boom")},
		block: map[string]bool{"sigmet": true, "cwa": true},
	}
	agg := newTestAggregator(feeds, utc(2024, time.March, 7, 5, 0))

	feats, _, err := agg.FetchAll(context.Background())
	if err == nil {
		t.Fatal("expected error when one feed fails")
	}
	if feats != nil {
		t.Fatalf("expected no partial result, got %d features", len(feats))
	}
	if !strings.Contains(err.Error(), `"airmet_2"`) || !strings.Contains(err.Error(), "status 500") {
		t.Fatalf("error should name the failing feed: %v", err)
	}
	feeds.mu.Lock()
	cancelled := feeds.cancel
	feeds.mu.Unlock()
	if cancelled != 2 {
		t.Fatalf("cancelled=%d want 2 in-flight feeds cancelled", cancelled)
	}
}

func TestAggregator_FetchAll_MalformedFeedIsError(t *testing.T) {
	feeds := &fakeFeeds{bodies: map[string]string{"sigmet_outlook": `<html>maintenance</html>`}}
	agg := newTestAggregator(feeds, utc(2024, time.March, 7, 5, 0))

	_, _, err := agg.FetchAll(context.Background())
	if err == nil || !strings.Contains(err.Error(), "merge feeds: part 1") {
		t.Fatalf("err=%v want merge error naming part 1", err)
	}
}

func TestAggregator_FetchAll_IdempotentWithinBucket(t *testing.T) {
	feeds := &fakeFeeds{bodies: map[string]string{
		"sigmet": collection(`{"type":"Feature","id":1,"geometry":null}`, `{"type":"Feature","geometry":null}`),
		"cwa":    collection(`{"type":"Feature","id":1,"geometry":null}`, `{"type":"Feature","id":"1","geometry":null}`),
	}}

	first, _, err := newTestAggregator(feeds, utc(2024, time.March, 7, 5, 1)).FetchAll(context.Background())
	if err != nil {
		t.Fatalf("first FetchAll: %v", err)
	}
	reqsFirst := feeds.requests()
	feeds.seen = nil

	second, _, err := newTestAggregator(feeds, utc(2024, time.March, 7, 5, 59)).FetchAll(context.Background())
	if err != nil {
		t.Fatalf("second FetchAll: %v", err)
	}

	a, _ := geojsonagg.Marshal(first)
	b, _ := geojsonagg.Marshal(second)
	if string(a) != string(b) {
		t.Fatalf("merged output differs within a bucket:\n%s\n%s", a, b)
	}
	dates := func(rs []model.FeedRequest) map[string]string {
		m := map[string]string{}
		for _, r := range rs {
			m[r.Feed] = r.String()
		}
		return m
	}
	da, db := dates(reqsFirst), dates(feeds.requests())
	for feed, q := range da {
		if db[feed] != q {
			t.Fatalf("feed %s request changed within bucket: %q vs %q", feed, q, db[feed])
		}
	}
}
