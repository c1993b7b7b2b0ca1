package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"mercator-hq/chatrelay/pkg/config"
	"mercator-hq/chatrelay/pkg/gateway"
	"mercator-hq/chatrelay/pkg/history"
	"mercator-hq/chatrelay/pkg/limits/ratelimit"
	"mercator-hq/chatrelay/pkg/relay"
	"mercator-hq/chatrelay/pkg/telegram"
	"mercator-hq/chatrelay/pkg/telemetry/health"
	"mercator-hq/chatrelay/pkg/telemetry/metrics"
	"mercator-hq/chatrelay/pkg/telemetry/tracing"
)

// DefaultShutdownTimeout bounds how long Run waits for in-flight messages
// after its context is cancelled.
const DefaultShutdownTimeout = 15 * time.Second

// gaugeInterval is how often state gauges are refreshed.
const gaugeInterval = 15 * time.Second

// Transport is the messaging side of the relay. *telegram.Client is the
// production implementation.
type Transport interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegram.Update, error)
	SendMessage(ctx context.Context, chatID int64, text string, replyTo int64) error
	SendChatAction(ctx context.Context, chatID int64, action string) error
}

// BuildInfo is served on /version.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// Deps are the collaborators a Server drives.
type Deps struct {
	Transport Transport
	Relay     *relay.Service
	History   *history.Store
	Limiter   *ratelimit.Limiter
	Gateway   *gateway.Gateway
	Metrics   *metrics.Collector
	Tracer    *tracing.Tracer
	Logger    *slog.Logger
	Build     BuildInfo
}

// Server runs the bot: it long-polls the transport, handles each message in
// its own goroutine up to a worker ceiling, and serves metrics and health
// probes on a side HTTP listener.
type Server struct {
	config *config.Config
	deps   Deps
	logger *slog.Logger

	workers  *semaphore.Weighted
	inflight sync.WaitGroup
	checker  *health.Checker

	// lastPoll is the unix-nano time of the last successful getUpdates.
	lastPoll atomic.Int64

	shutdownTimeout time.Duration

	mu         sync.RWMutex
	isRunning  bool
	listenAddr string
}

// New creates a Server. Deps.Transport and Deps.Relay are required.
func New(cfg *config.Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	maxConcurrent := cfg.Telegram.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = config.DefaultTelegramMaxConcurrent
	}

	s := &Server{
		config:          cfg,
		deps:            deps,
		logger:          logger.With("component", "server"),
		workers:         semaphore.NewWeighted(int64(maxConcurrent)),
		checker:         health.New(0),
		shutdownTimeout: DefaultShutdownTimeout,
	}
	s.registerChecks()
	deps.Relay.OnAdmit(s.showTyping)
	return s
}

// Run polls for messages until ctx is cancelled, then waits for in-flight
// messages (up to the shutdown timeout) and stops the telemetry listener.
// It returns an error only if the telemetry listener fails.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
	}()

	// Message tasks outlive ctx so shutdown can drain them; cancelWork
	// abandons whatever is left after the shutdown timeout.
	workCtx, cancelWork := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelWork()

	g, gctx := errgroup.WithContext(ctx)

	var httpServer *http.Server
	if s.config.Telemetry.Metrics.Address != "" {
		ln, err := net.Listen("tcp", s.config.Telemetry.Metrics.Address)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", s.config.Telemetry.Metrics.Address, err)
		}
		s.mu.Lock()
		s.listenAddr = ln.Addr().String()
		s.mu.Unlock()

		httpServer = &http.Server{
			Handler:           s.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			s.logger.Info("telemetry listener started", "address", ln.Addr().String())
			if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("telemetry server error: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		s.pollLoop(gctx, workCtx)
		return nil
	})

	g.Go(func() error {
		s.refreshGauges(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.drain(cancelWork)
		if httpServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during telemetry shutdown", "error", err)
			}
		}
		return nil
	})

	s.logger.Info("bot started",
		"max_concurrent", s.config.Telegram.MaxConcurrent,
		"poll_timeout", s.config.Telegram.PollTimeout,
	)
	err := g.Wait()
	s.logger.Info("bot stopped")
	return err
}

// drain waits for in-flight messages, cancelling them after the shutdown
// timeout.
func (s *Server) drain(cancelWork context.CancelFunc) {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return
	case <-time.After(s.shutdownTimeout):
		s.logger.Warn("shutdown timeout reached, abandoning in-flight messages", "timeout", s.shutdownTimeout)
		cancelWork()
		<-done
	}
}

// IsRunning returns true while Run is active.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// ListenAddr returns the bound telemetry address, or "" before Run binds it.
func (s *Server) ListenAddr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listenAddr
}
