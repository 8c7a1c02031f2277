// Package metrics registers the Prometheus instruments the service exports.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GenerationAttempts counts provider calls by provider and outcome
	// (success, provider_error, parse_error).
	GenerationAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "webforge",
		Name:      "generation_attempts_total",
		Help:      "Provider generation attempts by provider and outcome.",
	}, []string{"provider", "outcome"})

	// GenerationDuration observes wall-clock time of whole pipeline runs.
	GenerationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "webforge",
		Name:      "generation_duration_seconds",
		Help:      "End-to-end generation pipeline duration.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	}, []string{"mode"})

	// EventsPublished counts events accepted into the broadcaster history.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "webforge",
		Name:      "events_published_total",
		Help:      "Events published to the stream broadcaster by type.",
	}, []string{"type"})

	// DroppedDeliveries counts per-subscriber deliveries skipped because the
	// subscriber's buffer was full.
	DroppedDeliveries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "webforge",
		Name:      "stream_dropped_deliveries_total",
		Help:      "Event deliveries dropped due to full subscriber buffers.",
	})

	// ActiveStreams tracks currently registered stream subscribers.
	ActiveStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "webforge",
		Name:      "stream_active_subscribers",
		Help:      "Currently registered SSE subscribers.",
	})
)

// Outcome labels for GenerationAttempts.
const (
	OutcomeSuccess       = "success"
	OutcomeProviderError = "provider_error"
	OutcomeParseError    = "parse_error"
)
