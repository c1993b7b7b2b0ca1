// Package tracing provides OpenTelemetry tracing for the relay.
//
// A Tracer is created from config.TracingConfig. When tracing is disabled
// it hands out no-op spans, so call sites never branch on configuration;
// a nil *Tracer behaves the same way.
//
// # Span Hierarchy
//
// One trace covers one inbound message:
//
//	message.process        (server, one per Telegram message)
//	└── relay.handle       (validation, admission, history)
//	    └── gateway.complete  (the outbound completion call)
//
// The provider HTTP request carries the W3C traceparent header of the
// gateway span, so a collector that also receives spans from the
// completion API can join both sides.
//
// # Configuration
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    sampler: ratio        # always, never, ratio
//	    sample_ratio: 0.1
//	    endpoint: localhost:4317
//	    insecure: true
//
// Spans are exported over OTLP/gRPC in batches. Call Shutdown before exit
// to flush them.
package tracing
