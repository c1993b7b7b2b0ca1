package server

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/chatrelay/pkg/conversation"
	"mercator-hq/chatrelay/pkg/telegram"
	"mercator-hq/chatrelay/pkg/telemetry/logging"
	"mercator-hq/chatrelay/pkg/telemetry/tracing"
)

// pollLoop fetches updates until ctx is done. Each text message is handed
// to its own goroutine under workCtx once a worker slot is free; a full
// worker pool stalls polling rather than queueing without bound.
func (s *Server) pollLoop(ctx, workCtx context.Context) {
	var offset int64

	for ctx.Err() == nil {
		updates, err := s.deps.Transport.GetUpdates(ctx, offset, s.config.Telegram.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			wait := s.config.Telegram.PollBackoff
			var apiErr *telegram.APIError
			if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
				wait = apiErr.RetryAfter
			}
			s.logger.Warn("polling failed", "error", err, "retry_in", wait)
			if !sleep(ctx, wait) {
				return
			}
			continue
		}
		s.lastPoll.Store(time.Now().UnixNano())

		for _, update := range updates {
			offset = update.UpdateID + 1

			msg, ok := update.Inbound()
			if !ok {
				continue
			}
			if err := s.workers.Acquire(ctx, 1); err != nil {
				return
			}
			s.inflight.Add(1)
			go func() {
				defer s.inflight.Done()
				defer s.workers.Release(1)
				s.process(workCtx, msg)
			}()
		}
	}
}

// process handles one inbound message. A panic is logged and contained to
// this message.
func (s *Server) process(ctx context.Context, msg telegram.InboundMessage) {
	requestID := uuid.NewString()

	ctx, span := s.deps.Tracer.Start(ctx, "message.process", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()
	tracing.SetConversationAttributes(span, requestID, msg.ChatID, msg.UserID)
	if msg.IsCommand {
		span.SetAttributes(attribute.String(tracing.AttrCommand, msg.Command()))
	}

	ctx = logging.WithRequestID(ctx, requestID)
	ctx = logging.WithConversation(ctx, msg.ChatID, msg.UserID)

	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "panic while handling message",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
		}
	}()

	key := conversation.NewKey(msg.ChatID, msg.UserID)

	if msg.IsCommand {
		s.handleCommand(ctx, key, msg)
		return
	}

	out := s.deps.Relay.Handle(ctx, key, msg.Text)
	if out.Delivers() {
		s.send(ctx, msg, out.Text())
	}
}

// showTyping is the relay's admit hook, so rejected messages never show the
// indicator.
func (s *Server) showTyping(ctx context.Context, key conversation.Key) {
	if err := s.deps.Transport.SendChatAction(ctx, key.ChatID, telegram.ChatActionTyping); err != nil {
		s.logger.DebugContext(ctx, "typing action failed", "error", err)
	}
}

// send delivers text as a reply to msg. Failures are logged and counted,
// never retried.
func (s *Server) send(ctx context.Context, msg telegram.InboundMessage, text string) {
	if err := s.deps.Transport.SendMessage(ctx, msg.ChatID, text, msg.MessageID); err != nil {
		s.deps.Metrics.RecordDeliveryError()
		s.logger.WarnContext(ctx, "failed to deliver reply", "error", err)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
