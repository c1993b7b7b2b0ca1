package relay

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"

	"mercator-hq/chatrelay/pkg/config"
	"mercator-hq/chatrelay/pkg/conversation"
	"mercator-hq/chatrelay/pkg/gateway"
	"mercator-hq/chatrelay/pkg/history"
	"mercator-hq/chatrelay/pkg/limits/ratelimit"
	"mercator-hq/chatrelay/pkg/telemetry/metrics"
	"mercator-hq/chatrelay/pkg/telemetry/tracing"
)

// Completer produces a reply for an ordered history. *gateway.Gateway is
// the production implementation.
type Completer interface {
	Complete(ctx context.Context, history []conversation.Message, opts gateway.Options) (string, error)
}

// Config holds the conversation policy knobs.
type Config struct {
	MaxInputChars int
	CommandPrefix string
	FallbackReply string
	Options       gateway.Options

	// Tracer records a relay.handle span per message. Nil disables tracing.
	Tracer *tracing.Tracer
}

// ConfigFromConfig extracts the relay policy from the application config.
func ConfigFromConfig(cfg *config.Config) Config {
	return Config{
		MaxInputChars: cfg.Conversation.MaxInputChars,
		CommandPrefix: cfg.Conversation.CommandPrefix,
		FallbackReply: cfg.Conversation.FallbackReply,
		Options:       gateway.OptionsFromConfig(&cfg.Provider),
	}
}

// Status summarizes one conversation for the status command.
type Status struct {
	// Messages is the number of stored non-directive messages.
	Messages int

	// MaxMessages is the non-directive capacity (2 * max turns).
	MaxMessages int

	// Remaining is the number of requests still admitted in the current
	// window.
	Remaining int

	MaxRequests int
	Window      time.Duration
}

// AdmitHook runs once a message has passed validation and admission, just
// before its completion is requested.
type AdmitHook func(ctx context.Context, key conversation.Key)

// Service orchestrates one inbound message through validation, admission,
// history and completion.
type Service struct {
	history *history.Store
	limiter *ratelimit.Limiter
	gateway Completer
	config  Config
	onAdmit AdmitHook

	logger  *slog.Logger
	metrics *metrics.Collector
}

// NewService wires a Service. logger and collector may be nil.
func NewService(store *history.Store, limiter *ratelimit.Limiter, completer Completer, cfg Config, logger *slog.Logger, collector *metrics.Collector) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CommandPrefix == "" {
		cfg.CommandPrefix = config.DefaultCommandPrefix
	}
	if cfg.FallbackReply == "" {
		cfg.FallbackReply = config.DefaultFallbackReply
	}
	return &Service{
		history: store,
		limiter: limiter,
		gateway: completer,
		config:  cfg,
		logger:  logger.With("component", "relay"),
		metrics: collector,
	}
}

// OnAdmit registers hook to run for every admitted message. It must be
// called before the first Handle.
func (s *Service) OnAdmit(hook AdmitHook) {
	s.onAdmit = hook
}

// Handle runs one message through the request state machine and returns
// its outcome. It never panics on gateway failure and never rolls back a
// committed history mutation.
func (s *Service) Handle(ctx context.Context, key conversation.Key, text string) Outcome {
	start := time.Now()

	ctx, span := s.config.Tracer.Start(ctx, "relay.handle")
	defer span.End()

	out := s.handle(ctx, key, text)

	span.SetAttributes(attribute.String(tracing.AttrOutcome, out.Label()))
	if out.ErrorKind != "" {
		span.SetAttributes(attribute.String(tracing.AttrErrorKind, string(out.ErrorKind)))
	}
	if out.Kind == OutcomeFailed {
		tracing.SetStatus(span, fmt.Errorf("%s: %s", out.GatewayKind, out.Detail))
	}

	s.metrics.RecordMessage(out.Label(), time.Since(start))
	if out.Kind != OutcomeIgnored {
		s.logger.DebugContext(ctx, "message handled",
			"outcome", out.Label(),
			"duration", time.Since(start),
		)
	}
	return out
}

func (s *Service) handle(ctx context.Context, key conversation.Key, text string) Outcome {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || strings.HasPrefix(trimmed, s.config.CommandPrefix) {
		return Outcome{Kind: OutcomeIgnored}
	}

	if n := utf8.RuneCountInString(text); n > s.config.MaxInputChars {
		return Outcome{
			Kind:      OutcomeRejected,
			ErrorKind: KindValidation,
			Detail:    fmt.Sprintf("message is %d characters long, the limit is %d", n, s.config.MaxInputChars),
		}
	}

	check := s.limiter.Check(key)
	s.metrics.RecordAdmission(check.Allowed)
	if !check.Allowed {
		s.logger.InfoContext(ctx, "message rate limited", "retry_after", check.RetryAfter)
		return Outcome{
			Kind:       OutcomeRejected,
			ErrorKind:  KindAdmission,
			Detail:     fmt.Sprintf("more than %d messages in %s", check.Limit, s.limiter.Config().Window),
			RetryAfter: check.RetryAfter,
		}
	}

	if s.onAdmit != nil {
		s.onAdmit(ctx, key)
	}

	// The snapshot is taken inside the append's critical section; the
	// remote call below runs with no lock held.
	msgs := s.history.AppendUser(key, text)
	if last := msgs[len(msgs)-1]; last.Role != conversation.RoleUser || last.Content != text {
		// Trimming evicted the turn itself (max turns 0); still send it.
		msgs = append(msgs, conversation.User(text))
	}

	// The gateway logs its own failures.
	reply, err := s.gateway.Complete(ctx, msgs, s.config.Options)
	if err != nil {
		gwErr := gateway.Classify(err)
		return Outcome{
			Kind:        OutcomeFailed,
			ErrorKind:   KindGateway,
			GatewayKind: gwErr.Kind,
			Detail:      gwErr.Detail,
		}
	}

	if reply == "" {
		reply = s.config.FallbackReply
	}
	s.history.AppendAssistant(key, reply)

	return Outcome{Kind: OutcomeReplied, Reply: reply}
}

// Clear drops the conversation's history and returns how many messages
// were removed. It bypasses admission and the gateway.
func (s *Service) Clear(ctx context.Context, key conversation.Key) int {
	n := s.history.Clear(key)
	s.logger.InfoContext(ctx, "history cleared", "messages", n)
	return n
}

// Status reports stored history size and remaining admissions without
// consuming one.
func (s *Service) Status(key conversation.Key) Status {
	cfg := s.limiter.Config()
	return Status{
		Messages:    s.history.Size(key),
		MaxMessages: s.history.MaxLen() - 1,
		Remaining:   s.limiter.Remaining(key),
		MaxRequests: cfg.MaxRequests,
		Window:      cfg.Window,
	}
}
