package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// GatewayMetrics tracks calls to the completion API.
//
// Metrics:
//   - chatrelay_gateway_requests_total: completion calls by model
//   - chatrelay_gateway_errors_total: failed calls by error kind
//   - chatrelay_gateway_latency_seconds: call latency by model
//   - chatrelay_gateway_in_flight: calls currently outstanding
//   - chatrelay_provider_health: 1=healthy, 0=unhealthy
type GatewayMetrics struct {
	requests *prometheus.CounterVec
	errors   *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inFlight prometheus.Gauge
	health   *prometheus.GaugeVec
}

// NewGatewayMetrics creates and registers gateway metrics.
func NewGatewayMetrics(namespace string, registry *prometheus.Registry) *GatewayMetrics {
	gm := &GatewayMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gateway_requests_total",
				Help:      "Total number of completion calls",
			},
			[]string{"model"},
		),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gateway_errors_total",
				Help:      "Total number of failed completion calls by error kind",
			},
			[]string{"kind"},
		),

		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "gateway_latency_seconds",
				Help:      "Completion call latency in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"model"},
		),

		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "gateway_in_flight",
				Help:      "Number of completion calls currently outstanding",
			},
		),

		health: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "provider_health",
				Help:      "Provider health status (1=healthy, 0=unhealthy)",
			},
			[]string{"provider"},
		),
	}

	registry.MustRegister(
		gm.requests,
		gm.errors,
		gm.latency,
		gm.inFlight,
		gm.health,
	)

	return gm
}

// RecordCompletion records one completion call.
func (gm *GatewayMetrics) RecordCompletion(model, kind string, latency time.Duration) {
	gm.requests.WithLabelValues(model).Inc()
	gm.latency.WithLabelValues(model).Observe(latency.Seconds())
	if kind != "" {
		gm.errors.WithLabelValues(kind).Inc()
	}
}

// UpdateHealth sets the provider health gauge.
func (gm *GatewayMetrics) UpdateHealth(provider string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	gm.health.WithLabelValues(provider).Set(value)
}
