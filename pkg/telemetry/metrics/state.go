package metrics

import "github.com/prometheus/client_golang/prometheus"

// StateMetrics tracks in-memory conversation state and admission control.
//
// Metrics:
//   - chatrelay_ratelimit_decisions_total: admission decisions (allowed, rejected)
//   - chatrelay_conversations: conversations held in memory
//   - chatrelay_ratelimit_windows: live rate limit windows
type StateMetrics struct {
	decisions     *prometheus.CounterVec
	conversations prometheus.Gauge
	rateWindows   prometheus.Gauge
}

// NewStateMetrics creates and registers state metrics.
func NewStateMetrics(namespace string, registry *prometheus.Registry) *StateMetrics {
	sm := &StateMetrics{
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ratelimit_decisions_total",
				Help:      "Total number of rate limit decisions",
			},
			[]string{"decision"},
		),

		conversations: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "conversations",
				Help:      "Number of conversations held in memory",
			},
		),

		rateWindows: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ratelimit_windows",
				Help:      "Number of live rate limit windows",
			},
		),
	}

	registry.MustRegister(
		sm.decisions,
		sm.conversations,
		sm.rateWindows,
	)

	return sm
}

// RecordAdmission records one admission decision.
func (sm *StateMetrics) RecordAdmission(allowed bool) {
	decision := "rejected"
	if allowed {
		decision = "allowed"
	}
	sm.decisions.WithLabelValues(decision).Inc()
}
