package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for search and image loading.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Search requests by outcome: "success", "transport_error"
	SearchRequests *prometheus.CounterVec

	// Search request latency by outcome
	SearchLatency *prometheus.HistogramVec

	// Completions dropped because a newer search was issued
	StaleResponses prometheus.Counter

	// Image lookups by tier: "memory", "store", "network", "error"
	ImageLoads *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates metrics registered on a private registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		SearchRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "snapgrid_search_requests_total",
				Help: "Total number of photo search requests by outcome",
			},
			[]string{"outcome"},
		),

		SearchLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "snapgrid_search_request_duration_seconds",
				Help: "Photo search request latency in seconds",
				Buckets: []float64{
					0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0,
				},
			},
			[]string{"outcome"},
		),

		StaleResponses: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "snapgrid_stale_responses_total",
				Help: "Search completions discarded because a newer search was issued",
			},
		),

		ImageLoads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "snapgrid_image_loads_total",
				Help: "Image loads by the tier that served them",
			},
			[]string{"tier"},
		),

		registry: reg,
	}
}

// RecordSearch records a completed search request
func (m *Metrics) RecordSearch(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.SearchRequests.WithLabelValues(outcome).Inc()
	m.SearchLatency.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// RecordStale records a discarded out-of-order completion
func (m *Metrics) RecordStale() {
	if m == nil {
		return
	}
	m.StaleResponses.Inc()
}

// RecordImageLoad records which tier served an image
func (m *Metrics) RecordImageLoad(tier string) {
	if m == nil {
		return
	}
	m.ImageLoads.WithLabelValues(tier).Inc()
}

// Gatherer exposes the registry for tests and custom exporters
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Handler returns the /metrics HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
