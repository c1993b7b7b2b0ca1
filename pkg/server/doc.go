// Package server runs the bot.
//
// Run long-polls the messaging transport and dispatches each text message
// to its own goroutine, bounded by telegram.max_concurrent. Commands
// (/start, /help, /clear, /status) are answered directly; everything else
// goes through relay.Service.Handle and the rendered outcome is sent back
// as a reply to the original message. Send failures are logged and counted,
// never retried.
//
// A side HTTP listener on telemetry.metrics.address serves Prometheus
// metrics, /health, /ready and /version.
//
// On shutdown Run stops polling, waits for in-flight messages up to
// DefaultShutdownTimeout, then cancels what remains. History already
// committed by a cancelled message is kept.
package server
