// Package metrics exposes Prometheus collectors for the analysis pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "foodscan"

// Outcome labels for foodscan_analysis_requests_total.
const (
	OutcomeSuccess             = "success"
	OutcomeBadRequest          = "bad_request"
	OutcomeUnauthenticated     = "unauthenticated"
	OutcomeRateLimited         = "rate_limited"
	OutcomeUpstreamUnavailable = "upstream_unavailable"
	OutcomeMalformedOutput     = "malformed_output"
	OutcomeInternal            = "internal"
)

// Analysis holds the pipeline collectors. A nil *Analysis is valid and records nothing.
type Analysis struct {
	registry      *prometheus.Registry
	requests      *prometheus.CounterVec
	modelLatency  *prometheus.HistogramVec
	usageFailures prometheus.Counter
}

// New registers the collectors on a dedicated registry together with the Go
// runtime and process collectors.
func New() *Analysis {
	reg := prometheus.NewRegistry()
	m := &Analysis{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_requests_total",
			Help:      "Analysis requests by terminal outcome.",
		}, []string{"outcome"}),
		modelLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_request_duration_seconds",
			Help:      "Latency of vision model calls.",
			Buckets:   []float64{0.5, 1, 2, 4, 8, 15, 30, 60},
		}, []string{"provider", "result"}),
		usageFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usage_log_failures_total",
			Help:      "Successful analyses whose usage event could not be written.",
		}),
	}
	reg.MustRegister(
		m.requests,
		m.modelLatency,
		m.usageFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Analysis) ObserveOutcome(outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
}

func (m *Analysis) ObserveModel(provider string, took time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.modelLatency.WithLabelValues(provider, result).Observe(took.Seconds())
}

func (m *Analysis) UsageLogFailed() {
	if m == nil {
		return
	}
	m.usageFailures.Inc()
}

// Registry returns the registry the collectors are registered on.
func (m *Analysis) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Analysis) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
