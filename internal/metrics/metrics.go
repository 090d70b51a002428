// Package metrics provides Prometheus metrics export for the ordering
// service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter exports service metrics in Prometheus format.
type Exporter struct {
	registry *prometheus.Registry

	// Chat turn metrics
	chatLatency  *prometheus.HistogramVec
	chatRequests *prometheus.CounterVec
	oracleRounds prometheus.Histogram

	// Capability metrics
	capabilityCalls   *prometheus.CounterVec
	capabilityLatency *prometheus.HistogramVec
	capabilityErrors  *prometheus.CounterVec

	// Order metrics
	ordersConfirmed prometheus.Counter

	// Cache metrics
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	// LLM token metrics
	llmTokens  *prometheus.CounterVec
	llmLatency *prometheus.HistogramVec
}

// Config configures the exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default exporter configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}
}

// NewExporter creates a new Prometheus metrics exporter.
func NewExporter(cfg Config) *Exporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &Exporter{registry: registry}

	e.chatLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mesero",
			Subsystem: "agent",
			Name:      "chat_latency_seconds",
			Help:      "Chat turn latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"restaurant"},
	)

	e.chatRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mesero",
			Subsystem: "agent",
			Name:      "chat_requests_total",
			Help:      "Total number of chat turns",
		},
		[]string{"restaurant", "status"},
	)

	e.oracleRounds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "mesero",
			Subsystem: "agent",
			Name:      "oracle_rounds",
			Help:      "Number of LLM rounds per chat turn",
			Buckets:   []float64{1, 2, 3, 4, 5, 6},
		},
	)

	e.capabilityCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mesero",
			Subsystem: "agent",
			Name:      "capability_calls_total",
			Help:      "Total number of capability invocations",
		},
		[]string{"capability", "status"},
	)

	e.capabilityLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mesero",
			Subsystem: "agent",
			Name:      "capability_latency_seconds",
			Help:      "Capability invocation latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"capability"},
	)

	e.capabilityErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mesero",
			Subsystem: "agent",
			Name:      "capability_errors_total",
			Help:      "Total number of capability errors",
		},
		[]string{"capability", "error_type"},
	)

	e.ordersConfirmed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mesero",
			Subsystem: "orders",
			Name:      "confirmed_total",
			Help:      "Total number of confirmed order line items",
		},
	)

	e.cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mesero",
			Subsystem: "store",
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	e.cacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mesero",
			Subsystem: "store",
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	e.llmTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mesero",
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Total LLM tokens consumed",
		},
		[]string{"model", "token_type"},
	)

	e.llmLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mesero",
			Subsystem: "llm",
			Name:      "latency_seconds",
			Help:      "LLM request latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"model", "provider"},
	)

	registry.MustRegister(
		e.chatLatency,
		e.chatRequests,
		e.oracleRounds,
		e.capabilityCalls,
		e.capabilityLatency,
		e.capabilityErrors,
		e.ordersConfirmed,
		e.cacheHits,
		e.cacheMisses,
		e.llmTokens,
		e.llmLatency,
	)

	return e
}

// RecordChatTurn records a completed chat turn.
func (e *Exporter) RecordChatTurn(restaurant string, latency time.Duration, rounds int, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	e.chatRequests.WithLabelValues(restaurant, status).Inc()
	e.chatLatency.WithLabelValues(restaurant).Observe(latency.Seconds())
	e.oracleRounds.Observe(float64(rounds))
}

// RecordCapabilityCall records a capability invocation.
func (e *Exporter) RecordCapabilityCall(capability string, latency time.Duration, success bool, errorType string) {
	status := "success"
	if !success {
		status = "error"
		if errorType != "" {
			e.capabilityErrors.WithLabelValues(capability, errorType).Inc()
		}
	}
	e.capabilityCalls.WithLabelValues(capability, status).Inc()
	e.capabilityLatency.WithLabelValues(capability).Observe(latency.Seconds())
}

// RecordOrderConfirmed records a confirmed order line item.
func (e *Exporter) RecordOrderConfirmed() {
	e.ordersConfirmed.Inc()
}

// RecordCacheHit records a cache hit.
func (e *Exporter) RecordCacheHit(cacheType string) {
	e.cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss.
func (e *Exporter) RecordCacheMiss(cacheType string) {
	e.cacheMisses.WithLabelValues(cacheType).Inc()
}

// RecordLLMUsage records token usage and latency for one LLM call.
func (e *Exporter) RecordLLMUsage(model, provider string, promptTokens, completionTokens int, latency time.Duration) {
	e.llmTokens.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	e.llmTokens.WithLabelValues(model, "completion").Add(float64(completionTokens))
	e.llmLatency.WithLabelValues(model, provider).Observe(latency.Seconds())
}

// Handler returns the HTTP handler for the metrics endpoint.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying Prometheus registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}
