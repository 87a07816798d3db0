package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Capture metrics
	EventsCaptured = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhookd_events_captured_total",
			Help: "Total number of webhook events captured",
		},
		[]string{"source", "status"},
	)

	EventBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webhookd_event_bytes_total",
			Help: "Total bytes of webhook payload data captured",
		},
	)

	// Queue metrics
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "webhookd_queue_depth",
			Help: "Current number of envelopes awaiting processing",
		},
	)

	EnvelopesInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "webhookd_envelopes_in_flight",
			Help: "Number of envelopes currently being handled",
		},
	)

	// Processing metrics
	HandlerDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "webhookd_handler_duration_seconds",
			Help:    "Duration of downstream handler invocations in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	EventsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webhookd_events_completed_total",
			Help: "Total number of envelopes processed to completion",
		},
	)

	EventsRetried = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webhookd_events_retried_total",
			Help: "Total number of retry attempts scheduled",
		},
	)

	EventsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webhookd_events_failed_total",
			Help: "Total number of envelopes that exhausted their retry budget",
		},
	)

	// Recovery and maintenance metrics
	EnvelopesRecovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webhookd_envelopes_recovered_total",
			Help: "Total number of unfinished envelopes re-queued at startup",
		},
	)

	MonitorKicks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webhookd_monitor_drain_kicks_total",
			Help: "Total number of drain passes force-started by the health monitor",
		},
	)

	EnvelopesCleaned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webhookd_envelopes_cleaned_total",
			Help: "Total number of completed envelopes removed by cleanup",
		},
	)

	// Rate limiting metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhookd_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"source"},
	)
)
