package server

import (
	"context"
	"fmt"

	"mercator-hq/chatrelay/pkg/conversation"
	"mercator-hq/chatrelay/pkg/telegram"
)

const greeting = "Hi! I'm ready to chat. Send me any message and I'll answer.\n\n" +
	"/clear - forget our conversation\n" +
	"/status - show stored history and remaining requests"

// handleCommand answers the bot commands. Unknown commands are ignored.
// Commands bypass the rate limiter and the gateway.
func (s *Server) handleCommand(ctx context.Context, key conversation.Key, msg telegram.InboundMessage) {
	command := msg.Command()

	var reply string
	switch command {
	case "start", "help":
		reply = greeting

	case "clear":
		n := s.deps.Relay.Clear(ctx, key)
		if n == 0 {
			reply = "Nothing to clear."
		} else {
			reply = fmt.Sprintf("History cleared (%d messages removed).", n)
		}

	case "status":
		st := s.deps.Relay.Status(key)
		reply = fmt.Sprintf("Stored messages: %d of %d\nRequests left: %d of %d per %s",
			st.Messages, st.MaxMessages, st.Remaining, st.MaxRequests, st.Window)

	default:
		s.logger.DebugContext(ctx, "ignoring unknown command", "command", command)
		return
	}

	s.deps.Metrics.RecordCommand(command)
	s.send(ctx, msg, reply)
}
