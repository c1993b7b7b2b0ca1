package logging

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Context keys for request-scoped log fields.
type contextKey string

const (
	// RequestIDKey is the context key for request IDs.
	RequestIDKey contextKey = "request_id"

	// ChatIDKey is the context key for the chat identifier.
	ChatIDKey contextKey = "chat_id"

	// UserIDKey is the context key for the user identifier.
	UserIDKey contextKey = "user_id"
)

// traceIDKey is the log field for the active span's trace ID.
const traceIDKey = "trace_id"

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithConversation adds the chat and user identifiers to the context.
func WithConversation(ctx context.Context, chatID, userID int64) context.Context {
	ctx = context.WithValue(ctx, ChatIDKey, chatID)
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetConversation retrieves the chat and user identifiers from the context.
// ok is false if WithConversation was never called.
func GetConversation(ctx context.Context) (chatID, userID int64, ok bool) {
	chatID, ok = ctx.Value(ChatIDKey).(int64)
	if !ok {
		return 0, 0, false
	}
	userID, _ = ctx.Value(UserIDKey).(int64)
	return chatID, userID, true
}

// contextAttrs extracts request-scoped fields from ctx.
func contextAttrs(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}

	var attrs []slog.Attr
	if requestID := GetRequestID(ctx); requestID != "" {
		attrs = append(attrs, slog.String(string(RequestIDKey), requestID))
	}
	if chatID, userID, ok := GetConversation(ctx); ok {
		attrs = append(attrs,
			slog.Int64(string(ChatIDKey), chatID),
			slog.Int64(string(UserIDKey), userID),
		)
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs, slog.String(traceIDKey, sc.TraceID().String()))
	}
	return attrs
}

// contextHandler adds context fields to each record before delegating.
type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs := contextAttrs(ctx); len(attrs) > 0 {
		r = r.Clone()
		r.AddAttrs(attrs...)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}
