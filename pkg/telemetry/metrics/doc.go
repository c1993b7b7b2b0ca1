// Package metrics exports the relay's Prometheus metrics.
//
// A Collector registers every metric on a private registry and is passed
// to the components that record into it:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordMessage("replied", 1200*time.Millisecond)
//	collector.RecordCompletion("deepseek-chat", "", 1100*time.Millisecond)
//	collector.RecordAdmission(false)
//
// Label values are drawn from small fixed sets (outcomes, error kinds,
// command names, the configured model) so cardinality stays bounded.
// Conversation identifiers are never used as labels.
package metrics
