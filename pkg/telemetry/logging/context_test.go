package logging

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestContextKeys(t *testing.T) {
	ctx := context.Background()

	if got := GetRequestID(ctx); got != "" {
		t.Errorf("GetRequestID() on empty context = %q", got)
	}
	if _, _, ok := GetConversation(ctx); ok {
		t.Error("GetConversation() on empty context reported ok")
	}

	ctx = WithRequestID(ctx, "req-123")
	if got := GetRequestID(ctx); got != "req-123" {
		t.Errorf("GetRequestID() = %q, want %q", got, "req-123")
	}

	ctx = WithConversation(ctx, 10, 20)
	chatID, userID, ok := GetConversation(ctx)
	if !ok || chatID != 10 || userID != 20 {
		t.Errorf("GetConversation() = (%d, %d, %v), want (10, 20, true)", chatID, userID, ok)
	}
}

func TestContextAttrs(t *testing.T) {
	if attrs := contextAttrs(context.Background()); len(attrs) != 0 {
		t.Errorf("expected no attrs, got %v", attrs)
	}

	ctx := WithConversation(WithRequestID(context.Background(), "r"), 1, 2)
	attrs := contextAttrs(ctx)
	if len(attrs) != 3 {
		t.Fatalf("expected 3 attrs, got %d", len(attrs))
	}
	if attrs[0].Key != "request_id" || attrs[1].Key != "chat_id" || attrs[2].Key != "user_id" {
		t.Errorf("unexpected attr keys: %v", attrs)
	}
}

func TestContextAttrs_TraceID(t *testing.T) {
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x4b, 0xf9, 0x2f, 0x35, 0x77, 0xb3, 0x4d, 0xa6, 0xa3, 0xce, 0x92, 0x9d, 0x0e, 0x0e, 0x47, 0x36},
		SpanID:     trace.SpanID{0x00, 0xf0, 0x67, 0xaa, 0x0b, 0xa9, 0x02, 0xb7},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(WithRequestID(context.Background(), "r"), sc)

	attrs := contextAttrs(ctx)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attrs, got %v", attrs)
	}
	if attrs[1].Key != "trace_id" || attrs[1].Value.String() != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("unexpected trace attr: %v", attrs[1])
	}
}
