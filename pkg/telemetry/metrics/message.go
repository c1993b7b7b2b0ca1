package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MessageMetrics tracks inbound message handling.
//
// Metrics:
//   - chatrelay_messages_total: handled messages by outcome
//   - chatrelay_message_duration_seconds: receipt-to-outcome latency
//   - chatrelay_commands_total: handled commands by name
//   - chatrelay_delivery_errors_total: failed outbound sends
type MessageMetrics struct {
	messagesTotal   *prometheus.CounterVec
	messageDuration *prometheus.HistogramVec
	commandsTotal   *prometheus.CounterVec
	deliveryErrors  prometheus.Counter
}

// NewMessageMetrics creates and registers message metrics.
func NewMessageMetrics(namespace string, registry *prometheus.Registry) *MessageMetrics {
	mm := &MessageMetrics{
		messagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_total",
				Help:      "Total number of inbound messages handled, by outcome",
			},
			[]string{"outcome"},
		),

		messageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "message_duration_seconds",
				Help:      "Time from message receipt to outcome in seconds",
				// Completion latencies run from sub-second to a minute.
				Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"outcome"},
		),

		commandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "Total number of bot commands handled",
			},
			[]string{"command"},
		),

		deliveryErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "delivery_errors_total",
				Help:      "Total number of replies that failed to send",
			},
		),
	}

	registry.MustRegister(
		mm.messagesTotal,
		mm.messageDuration,
		mm.commandsTotal,
		mm.deliveryErrors,
	)

	return mm
}

// RecordMessage records one handled message.
func (mm *MessageMetrics) RecordMessage(outcome string, duration time.Duration) {
	mm.messagesTotal.WithLabelValues(outcome).Inc()
	mm.messageDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordCommand records one handled command.
func (mm *MessageMetrics) RecordCommand(command string) {
	mm.commandsTotal.WithLabelValues(command).Inc()
}

// RecordDeliveryError records a failed send.
func (mm *MessageMetrics) RecordDeliveryError() {
	mm.deliveryErrors.Inc()
}
