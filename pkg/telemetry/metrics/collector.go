package metrics

import (
	"time"

	"mercator-hq/chatrelay/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns every Prometheus metric the relay exports. All Record and
// Update methods are no-ops when metrics are disabled or the collector is
// nil, so components can hold an optional *Collector without checks.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	messageMetrics *MessageMetrics
	gatewayMetrics *GatewayMetrics
	stateMetrics   *StateMetrics
}

// NewCollector creates a collector registering into registry. A nil
// registry gets a fresh private one.
//
// Example:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}

	return &Collector{
		config:         cfg,
		registry:       registry,
		messageMetrics: NewMessageMetrics(cfg.Namespace, registry),
		gatewayMetrics: NewGatewayMetrics(cfg.Namespace, registry),
		stateMetrics:   NewStateMetrics(cfg.Namespace, registry),
	}
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordMessage records one handled inbound message.
//
// Parameters:
//   - outcome: "replied", "failed", "rejected_validation",
//     "rejected_admission" or "ignored"
//   - duration: time from receipt to outcome
func (c *Collector) RecordMessage(outcome string, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.messageMetrics.RecordMessage(outcome, duration)
}

// RecordCommand records one handled bot command such as "clear".
func (c *Collector) RecordCommand(command string) {
	if !c.enabled() {
		return
	}
	c.messageMetrics.RecordCommand(command)
}

// RecordDeliveryError records a failed outbound send.
func (c *Collector) RecordDeliveryError() {
	if !c.enabled() {
		return
	}
	c.messageMetrics.RecordDeliveryError()
}

// RecordAdmission records one rate limiter decision.
func (c *Collector) RecordAdmission(allowed bool) {
	if !c.enabled() {
		return
	}
	c.stateMetrics.RecordAdmission(allowed)
}

// RecordCompletion records one completion call. kind is empty on success
// and the gateway error kind otherwise.
func (c *Collector) RecordCompletion(model, kind string, latency time.Duration) {
	if !c.enabled() {
		return
	}
	c.gatewayMetrics.RecordCompletion(model, kind, latency)
}

// AddInFlight adjusts the number of in-flight completion calls.
func (c *Collector) AddInFlight(delta float64) {
	if !c.enabled() {
		return
	}
	c.gatewayMetrics.inFlight.Add(delta)
}

// UpdateProviderHealth sets the provider health gauge (1=healthy, 0=unhealthy).
func (c *Collector) UpdateProviderHealth(provider string, healthy bool) {
	if !c.enabled() {
		return
	}
	c.gatewayMetrics.UpdateHealth(provider, healthy)
}

// UpdateConversations sets the number of conversations held in memory.
func (c *Collector) UpdateConversations(n int) {
	if !c.enabled() {
		return
	}
	c.stateMetrics.conversations.Set(float64(n))
}

// UpdateRateWindows sets the number of live rate limit windows.
func (c *Collector) UpdateRateWindows(n int) {
	if !c.enabled() {
		return
	}
	c.stateMetrics.rateWindows.Set(float64(n))
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
