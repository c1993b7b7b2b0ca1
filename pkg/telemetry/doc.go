// Package telemetry groups the relay's observability packages.
//
//   - logging: slog construction with credential redaction and request IDs
//   - metrics: Prometheus collector on a private registry
//   - health: liveness and readiness probes
//   - tracing: OpenTelemetry spans per message, off by default
//
// The bot runner serves metrics and probes on a side HTTP listener
// (telemetry.metrics.address), separate from the Telegram long-poll loop.
package telemetry
