package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"mercator-hq/chatrelay/pkg/config"
	"mercator-hq/chatrelay/pkg/conversation"
	"mercator-hq/chatrelay/pkg/providers"
	"mercator-hq/chatrelay/pkg/telemetry/metrics"
	"mercator-hq/chatrelay/pkg/telemetry/tracing"
)

// Options fixes the model parameters for one call.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// OptionsFromConfig builds call options from the provider config. The
// timeout is the sum of the connect, write and read phases.
func OptionsFromConfig(cfg *config.ProviderConfig) Options {
	return Options{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxCompletionTokens,
		Timeout:     cfg.RequestTimeout(),
	}
}

// Config bounds outbound concurrency.
type Config struct {
	// MaxConcurrent is the number of completions allowed in flight at once.
	// Zero or negative means unbounded.
	MaxConcurrent int

	// PoolTimeout is how long a call waits for a free slot before failing
	// with KindTimeout.
	PoolTimeout time.Duration

	// Tracer records a gateway.complete span per call. Nil disables tracing.
	Tracer *tracing.Tracer
}

// Gateway is the synchronous adapter to the completion API. It makes exactly
// one provider attempt per call and shares one provider, and therefore one
// connection pool, across all conversations.
type Gateway struct {
	provider    providers.Provider
	slots       *semaphore.Weighted
	poolTimeout time.Duration
	logger      *slog.Logger
	metrics     *metrics.Collector
	tracer      *tracing.Tracer
}

// New creates a gateway over provider. logger and collector may be nil.
func New(provider providers.Provider, cfg Config, logger *slog.Logger, collector *metrics.Collector) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}

	g := &Gateway{
		provider:    provider,
		poolTimeout: cfg.PoolTimeout,
		logger:      logger.With("component", "gateway", "provider", provider.GetName()),
		metrics:     collector,
		tracer:      cfg.Tracer,
	}
	if cfg.MaxConcurrent > 0 {
		g.slots = semaphore.NewWeighted(int64(cfg.MaxConcurrent))
	}
	return g
}

// Complete sends history, in order and unmodified, to the provider and
// returns the reply text with surrounding whitespace removed. A blank reply
// is returned as an empty string with a nil error; substituting a fallback
// is the caller's job. Every failure is a *Error.
func (g *Gateway) Complete(ctx context.Context, history []conversation.Message, opts Options) (string, error) {
	start := time.Now()

	ctx, span := g.tracer.Start(ctx, "gateway.complete", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	tracing.SetProviderAttributes(span, g.provider.GetName(), opts.Model)
	span.SetAttributes(attribute.Int(tracing.AttrHistoryLength, len(history)))

	reply, err := g.complete(ctx, history, opts)

	kind := ""
	if err != nil {
		kind = string(err.Kind)
		span.SetAttributes(attribute.String(tracing.AttrGatewayKind, kind))
		tracing.SetStatus(span, err)
		g.logger.WarnContext(ctx, "completion failed",
			"kind", err.Kind,
			"detail", err.Detail,
			"error", err.Err,
			"duration", time.Since(start),
		)
	} else {
		span.SetAttributes(attribute.Int(tracing.AttrReplyChars, len(reply)))
		tracing.SetStatus(span, nil)
		g.logger.DebugContext(ctx, "completion succeeded",
			"reply_chars", len(reply),
			"duration", time.Since(start),
		)
	}
	g.metrics.RecordCompletion(opts.Model, kind, time.Since(start))
	g.metrics.UpdateProviderHealth(g.provider.GetName(), g.provider.IsHealthy())

	if err != nil {
		return "", err
	}
	return reply, nil
}

func (g *Gateway) complete(ctx context.Context, history []conversation.Message, opts Options) (string, *Error) {
	if len(history) == 0 {
		return "", &Error{Kind: KindTransport, Detail: "nothing to send", Err: errors.New("empty history")}
	}

	if err := g.acquire(ctx); err != nil {
		return "", err
	}
	defer g.release()

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req := &providers.CompletionRequest{
		Model:       opts.Model,
		Messages:    toProviderMessages(history),
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}

	g.metrics.AddInFlight(1)
	resp, err := g.provider.SendCompletion(ctx, req)
	g.metrics.AddInFlight(-1)

	if err != nil {
		return "", Classify(err)
	}
	if resp == nil {
		return "", &Error{Kind: KindMalformedResponse, Detail: "the provider returned no response", Err: errors.New("nil response")}
	}

	if resp.FinishReason == providers.FinishReasonLength {
		g.logger.InfoContext(ctx, "reply truncated at token cap", "max_tokens", opts.MaxTokens)
	}

	return strings.TrimSpace(resp.Content), nil
}

// acquire waits for an outbound slot for at most the pool timeout.
func (g *Gateway) acquire(ctx context.Context) *Error {
	if g.slots == nil {
		return nil
	}
	if g.slots.TryAcquire(1) {
		return nil
	}

	waitCtx := ctx
	if g.poolTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, g.poolTimeout)
		defer cancel()
	}

	if err := g.slots.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return Classify(&providers.ProviderError{
				Provider: g.provider.GetName(),
				Message:  "request cancelled",
				Cause:    ctx.Err(),
			})
		}
		return &Error{
			Kind:   KindTimeout,
			Detail: fmt.Sprintf("no free connection within %s", g.poolTimeout),
			Err:    err,
		}
	}
	return nil
}

func (g *Gateway) release() {
	if g.slots != nil {
		g.slots.Release(1)
	}
}

// Name returns the provider name.
func (g *Gateway) Name() string {
	return g.provider.GetName()
}

// Healthy reports the provider's passive health.
func (g *Gateway) Healthy() bool {
	return g.provider.IsHealthy()
}

// Close releases the provider's pooled connections.
func (g *Gateway) Close() error {
	return g.provider.Close()
}

func toProviderMessages(history []conversation.Message) []providers.Message {
	out := make([]providers.Message, len(history))
	for i, m := range history {
		out[i] = providers.Message{Role: string(m.Role), Content: m.Content}
	}
	return out
}
