package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MediaRejected counts uploads dropped at the ingestion boundary by reason.
	MediaRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postdeck_media_rejected_total",
		Help: "Total number of uploads rejected by the media filter",
	}, []string{"reason"})

	// MediaAccepted counts uploads that entered a draft, by kind.
	MediaAccepted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postdeck_media_accepted_total",
		Help: "Total number of uploads accepted into drafts",
	}, []string{"kind"})

	// PreviewHandlesActive is the number of live preview handles.
	PreviewHandlesActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "postdeck_preview_handles_active",
		Help: "Number of live preview resource handles",
	})

	// SessionsActive is the number of live composition sessions.
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "postdeck_sessions_active",
		Help: "Number of live composition sessions",
	})

	// SessionsEnded counts ended sessions by reason.
	SessionsEnded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postdeck_sessions_ended_total",
		Help: "Total number of ended composition sessions",
	}, []string{"reason"})

	// PostsSubmitted counts sink submissions by mode and resulting status.
	PostsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postdeck_posts_submitted_total",
		Help: "Total number of drafts handed to the publish sink",
	}, []string{"mode", "status"})

	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postdeck_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "postdeck_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// WebSocketConnections is the gauge of open draft change streams.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "postdeck_websocket_connections",
		Help: "Number of open WebSocket draft streams",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postdeck_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
