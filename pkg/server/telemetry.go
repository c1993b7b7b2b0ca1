package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"mercator-hq/chatrelay/pkg/telemetry/health"
)

// Handler returns the telemetry mux: metrics (when enabled), /health,
// /ready and /version.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	if s.config.Telemetry.Metrics.Enabled && s.deps.Metrics != nil {
		mux.Handle(s.config.Telemetry.Metrics.Path, s.deps.Metrics.Handler())
	}
	b := s.deps.Build
	health.Mount(mux, s.checker, b.Version, b.Commit, b.BuildTime)
	return mux
}

// pollStaleAfter is how long without a successful poll before the poller
// is reported not ready.
func (s *Server) pollStaleAfter() time.Duration {
	d := 2*s.config.Telegram.PollTimeout + s.config.Telegram.PollBackoff
	if d < time.Minute {
		d = time.Minute
	}
	return d
}

func (s *Server) registerChecks() {
	s.checker.Register("poller", func(ctx context.Context) error {
		last := s.lastPoll.Load()
		if last == 0 {
			return fmt.Errorf("no successful poll yet")
		}
		if age := time.Since(time.Unix(0, last)); age > s.pollStaleAfter() {
			return fmt.Errorf("no successful poll in %s", age.Round(time.Second))
		}
		return nil
	})

	if s.deps.Gateway != nil {
		s.checker.Register("provider", func(ctx context.Context) error {
			if !s.deps.Gateway.Healthy() {
				return fmt.Errorf("provider %q failing consecutive requests", s.deps.Gateway.Name())
			}
			return nil
		})
	}
}

// refreshGauges updates state gauges until ctx is done.
func (s *Server) refreshGauges(ctx context.Context) {
	ticker := time.NewTicker(gaugeInterval)
	defer ticker.Stop()

	for {
		s.updateGauges()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) updateGauges() {
	m := s.deps.Metrics
	if s.deps.History != nil {
		m.UpdateConversations(s.deps.History.Conversations())
	}
	if s.deps.Limiter != nil {
		m.UpdateRateWindows(s.deps.Limiter.Len())
	}
	if s.deps.Gateway != nil {
		m.UpdateProviderHealth(s.deps.Gateway.Name(), s.deps.Gateway.Healthy())
	}
}
