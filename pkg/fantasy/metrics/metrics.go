// Package metrics provides Prometheus metrics for the prediction client.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ClientMetrics collects and exposes prediction-client Prometheus metrics.
type ClientMetrics struct {
	registry *prometheus.Registry

	// API metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Session metrics
	SessionsByMode   *prometheus.GaugeVec
	SubmissionsTotal *prometheus.CounterVec
	AdvisorWarnings  *prometheus.CounterVec

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	// Poll loop metrics
	PollRuns       *prometheus.CounterVec
	TrackedMatches *prometheus.GaugeVec

	// Streaming metrics
	StreamClients *prometheus.GaugeVec
	EventsTotal   *prometheus.CounterVec
}

// NewClientMetrics creates a new client metrics collector.
func NewClientMetrics() *ClientMetrics {
	registry := prometheus.NewRegistry()

	cm := &ClientMetrics{
		registry: registry,

		// API metrics
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crickpick_api_requests_total",
				Help: "Total number of API requests",
			},
			[]string{"operation", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crickpick_api_request_duration_seconds",
				Help:    "API request latency",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
			},
			[]string{"operation"},
		),

		// Session metrics
		SessionsByMode: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "crickpick_sessions_by_mode",
				Help: "Number of live sessions per mode",
			},
			[]string{"mode"},
		),
		SubmissionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crickpick_submissions_total",
				Help: "Total number of prediction submissions",
			},
			[]string{"operation", "result"},
		),
		AdvisorWarnings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crickpick_advisor_warnings_total",
				Help: "Total number of plausibility warnings raised",
			},
			[]string{},
		),

		// Cache metrics
		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crickpick_cache_hits_total",
				Help: "Total number of reference-data cache hits",
			},
			[]string{"cache"},
		),
		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crickpick_cache_misses_total",
				Help: "Total number of reference-data cache misses",
			},
			[]string{"cache"},
		),

		// Poll loop metrics
		PollRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crickpick_poll_runs_total",
				Help: "Total number of match poll runs",
			},
			[]string{"status"},
		),
		TrackedMatches: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "crickpick_tracked_matches",
				Help: "Number of matches being tracked",
			},
			[]string{"match_status"},
		),

		// Streaming metrics
		StreamClients: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "crickpick_stream_clients",
				Help: "Current number of connected stream clients",
			},
			[]string{},
		),
		EventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crickpick_stream_events_total",
				Help: "Total number of events broadcast",
			},
			[]string{"type"},
		),
	}

	// Register all metrics
	cm.registerAll()

	return cm
}

func (cm *ClientMetrics) registerAll() {
	cm.registry.MustRegister(
		cm.RequestsTotal,
		cm.RequestDuration,
		cm.SessionsByMode,
		cm.SubmissionsTotal,
		cm.AdvisorWarnings,
		cm.CacheHits,
		cm.CacheMisses,
		cm.PollRuns,
		cm.TrackedMatches,
		cm.StreamClients,
		cm.EventsTotal,
	)
}

// Registry returns the prometheus registry.
func (cm *ClientMetrics) Registry() *prometheus.Registry {
	return cm.registry
}

// RecordRequest records one API call.
func (cm *ClientMetrics) RecordRequest(operation, status string, durationSec float64) {
	cm.RequestsTotal.WithLabelValues(operation, status).Inc()
	if durationSec > 0 {
		cm.RequestDuration.WithLabelValues(operation).Observe(durationSec)
	}
}

// RecordSubmission records a create or update submission attempt.
func (cm *ClientMetrics) RecordSubmission(operation, result string) {
	cm.SubmissionsTotal.WithLabelValues(operation, result).Inc()
}

// RecordWarning records a raised plausibility warning.
func (cm *ClientMetrics) RecordWarning() {
	cm.AdvisorWarnings.WithLabelValues().Inc()
}

// SetSessionMode moves a session between mode gauges.
func (cm *ClientMetrics) SetSessionMode(from, to string) {
	if from != "" {
		cm.SessionsByMode.WithLabelValues(from).Dec()
	}
	cm.SessionsByMode.WithLabelValues(to).Inc()
}

// RecordCacheHit records one cache hit.
func (cm *ClientMetrics) RecordCacheHit(cache string) {
	cm.CacheHits.WithLabelValues(cache).Inc()
}

// RecordCacheMiss records one cache miss.
func (cm *ClientMetrics) RecordCacheMiss(cache string) {
	cm.CacheMisses.WithLabelValues(cache).Inc()
}

// RecordPoll records one poll loop run.
func (cm *ClientMetrics) RecordPoll(status string) {
	cm.PollRuns.WithLabelValues(status).Inc()
}

// UpdateTrackedMatches sets the tracked-match count for one status.
func (cm *ClientMetrics) UpdateTrackedMatches(matchStatus string, count int) {
	cm.TrackedMatches.WithLabelValues(matchStatus).Set(float64(count))
}

// UpdateStreamClients sets the connected stream client count.
func (cm *ClientMetrics) UpdateStreamClients(count int) {
	cm.StreamClients.WithLabelValues().Set(float64(count))
}

// RecordEvent records one broadcast event.
func (cm *ClientMetrics) RecordEvent(eventType string) {
	cm.EventsTotal.WithLabelValues(eventType).Inc()
}

// Global instance for convenience
var defaultMetrics *ClientMetrics
var once sync.Once

// Default returns the default global metrics instance.
func Default() *ClientMetrics {
	once.Do(func() {
		defaultMetrics = NewClientMetrics()
	})
	return defaultMetrics
}
