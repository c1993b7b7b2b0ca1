package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys. Relay-specific keys use the "chatrelay." namespace.
const (
	AttrRequestID = "chatrelay.request_id"
	AttrChatID    = "chatrelay.chat_id"
	AttrUserID    = "chatrelay.user_id"
	AttrCommand   = "chatrelay.command"

	AttrOutcome   = "chatrelay.outcome"
	AttrErrorKind = "chatrelay.error_kind"

	AttrProvider      = "chatrelay.provider"
	AttrModel         = "chatrelay.model"
	AttrGatewayKind   = "chatrelay.gateway.kind"
	AttrHistoryLength = "chatrelay.history.length"
	AttrReplyChars    = "chatrelay.reply.chars"
)

// SetConversationAttributes identifies the conversation a span belongs to.
func SetConversationAttributes(span trace.Span, requestID string, chatID, userID int64) {
	span.SetAttributes(
		attribute.String(AttrRequestID, requestID),
		attribute.Int64(AttrChatID, chatID),
		attribute.Int64(AttrUserID, userID),
	)
}

// SetProviderAttributes sets the provider and model on a span.
func SetProviderAttributes(span trace.Span, provider, model string) {
	span.SetAttributes(
		attribute.String(AttrProvider, provider),
		attribute.String(AttrModel, model),
	)
}
