// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hirocks_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// RedisCommandLatency records Redis round trips by command.
	RedisCommandLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hirocks_redis_command_latency_seconds",
		Help:    "Redis command latency in seconds",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
	}, []string{"command"})

	// DatabaseQueryLatency records database query latency by operation.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hirocks_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// CacheRequests counts query cache lookups by key family and result
	// (hit, miss, stale_write_skipped).
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hirocks_cache_requests_total",
		Help: "Query cache lookups by key family and result",
	}, []string{"family", "result"})

	// CacheInvalidations counts generation bumps by key family.
	CacheInvalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hirocks_cache_invalidations_total",
		Help: "Query cache invalidations by key family",
	}, []string{"family"})

	// ImageUploads counts post image uploads by result.
	ImageUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hirocks_image_uploads_total",
		Help: "Post image uploads by result",
	}, []string{"result"})

	// LikeToggles counts like toggles by resulting state.
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hirocks_like_toggles_total",
		Help: "Like toggles by resulting state",
	}, []string{"state"})
)

// ObserveQuery records the latency of a database query.
func ObserveQuery(operation string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
