// Package health serves liveness and readiness probes for the relay.
//
// The bot runner registers named checks (provider health, poller progress)
// and mounts the handlers on the telemetry HTTP server:
//
//	checker := health.New(2 * time.Second)
//	checker.Register("provider", func(ctx context.Context) error { ... })
//	health.Mount(mux, checker, version, commit, buildTime)
//
// /health answers 200 while the process runs. /ready answers 200 only when
// every check passes and 503 otherwise, with per-check results in the body.
package health
