// Package metrics provides Prometheus metrics for the catalog.
package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "catalog"

var (
	// CycleDuration measures collection cycle duration.
	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "collection_cycle_duration_seconds",
			Help:      "Duration of collection cycles in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		},
	)

	// ChannelsRefreshed counts channel refreshes by outcome.
	ChannelsRefreshed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_refresh_total",
			Help:      "Total number of channel refreshes",
		},
		[]string{"outcome"},
	)

	// PostsUpserted counts post upserts by status.
	PostsUpserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "posts_upserted_total",
			Help:      "Total number of post upserts",
		},
		[]string{"status"},
	)

	// DigestsPublished counts digest deliveries by notifier and status.
	DigestsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "digests_published_total",
			Help:      "Total number of digest deliveries",
		},
		[]string{"notifier", "status"},
	)

	// HTTPRequests counts API requests.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"route", "method", "code"},
	)

	// HTTPDuration measures API request duration.
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
)

// Refresh outcomes.
const (
	OutcomeUpdated  = "updated"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
	OutcomeNotFound = "not_found"
)

// RecordCycle records a finished collection cycle.
func RecordCycle(duration time.Duration) {
	CycleDuration.Observe(duration.Seconds())
}

// RecordRefresh records the outcome of one channel refresh.
func RecordRefresh(outcome string) {
	ChannelsRefreshed.WithLabelValues(outcome).Inc()
}

// RecordPostUpsert records one post upsert.
func RecordPostUpsert(ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	PostsUpserted.WithLabelValues(status).Inc()
}

// RecordDigest records one digest delivery attempt.
func RecordDigest(notifier string, ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	DigestsPublished.WithLabelValues(notifier, status).Inc()
}

// Handler exposes the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
