package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Change-event consumption latency per routing key.
	MQConsumeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mq_consume_latency_ms",
			Help:    "MQ message consumption latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"routing_key", "queue"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"operation", "collection"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "path", "status"},
	)

	// Cache refetches vs invalidations, per collection. A burst of inserts
	// is expected to bump invalidate without a matching refetch.
	CacheRefetchCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_refetch_count",
			Help: "Total number of cache refetches",
		},
		[]string{"collection", "reason"}, // reason: single_insert, debounce
	)

	CacheInvalidateCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_invalidate_count",
			Help: "Total number of cache invalidations",
		},
		[]string{"collection", "reason"}, // reason: insert_burst, mutation_settled, rollback
	)

	DecisionCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "decision_count",
			Help: "Total number of decisions by lifecycle transition",
		},
		[]string{"type", "outcome"}, // outcome: created, deduped, approved, rejected, snoozed
	)

	ChangeEventPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "change_event_published_count",
			Help: "Total number of change events published by the outbox dispatcher",
		},
		[]string{"routing_key", "status"}, // status: sent, failed
	)
)

func RecordMQConsumeLatency(routingKey, queue string, duration time.Duration) {
	MQConsumeLatency.WithLabelValues(routingKey, queue).Observe(float64(duration.Milliseconds()))
}

func RecordDBQueryDuration(operation, collection string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, collection).Observe(duration.Seconds())
}

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func IncrementCacheRefetch(collection, reason string) {
	CacheRefetchCount.WithLabelValues(collection, reason).Inc()
}

func IncrementCacheInvalidate(collection, reason string) {
	CacheInvalidateCount.WithLabelValues(collection, reason).Inc()
}

func IncrementDecision(decisionType, outcome string) {
	DecisionCount.WithLabelValues(decisionType, outcome).Inc()
}

func IncrementChangeEventPublished(routingKey, status string) {
	ChangeEventPublished.WithLabelValues(routingKey, status).Inc()
}
