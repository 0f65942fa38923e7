// Package observability holds the Prometheus collectors recorded by the request path.
package observability

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	upstreamLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_latency_seconds",
			Help:    "Latency of upstream feed calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"feed"},
	)

	upstreamFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_fetch_total",
			Help: "Upstream feed fetches by outcome.",
		},
		[]string{"feed", "outcome"},
	)

	advisoryFeaturesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisory_features_total",
			Help: "Advisory features seen per pipeline stage (merged, deduplicated, matched).",
		},
		[]string{"stage"},
	)

	geometryMalformedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "geometry_malformed_total",
			Help: "Features skipped because their geometry could not be tested.",
		},
	)

	feedCacheResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_cache_results_total",
			Help: "Feed snapshot cache lookups by outcome.",
		},
		[]string{"outcome"},
	)

	cacheOpTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_op_total",
			Help: "Cache backend operations by result.",
		},
		[]string{"op", "result"},
	)

	cacheOpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cache_operation_duration_seconds",
			Help:    "Cache backend operation latency in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"op"},
	)
)

var registerOnce sync.Once

// Init registers the collectors once; a nil registerer means the default one.
func Init(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		reg.MustRegister(
			httpRequestsTotal,
			httpRequestDurationSeconds,
			upstreamLatencySeconds,
			upstreamFetchTotal,
			advisoryFeaturesTotal,
			geometryMalformedTotal,
			feedCacheResults,
			cacheOpTotal,
			cacheOpDurationSeconds,
		)
	})
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveUpstreamLatency(feed string, durationSeconds float64) {
	upstreamLatencySeconds.WithLabelValues(feed).Observe(durationSeconds)
}

func ObserveUpstreamFetch(feed string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	upstreamFetchTotal.WithLabelValues(feed, outcome).Inc()
}

func AddFeatures(stage string, n int) {
	if n <= 0 {
		return
	}
	advisoryFeaturesTotal.WithLabelValues(stage).Add(float64(n))
}

func IncMalformedGeometry() {
	geometryMalformedTotal.Inc()
}

func IncFeedCacheHit() {
	feedCacheResults.WithLabelValues("hit").Inc()
}

func IncFeedCacheMiss() {
	feedCacheResults.WithLabelValues("miss").Inc()
}

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	cacheOpTotal.WithLabelValues(op, result).Inc()
	cacheOpDurationSeconds.WithLabelValues(op).Observe(durationSeconds)
}
