// Package logging builds the process logger on log/slog.
//
// New returns a *slog.Logger whose handler scrubs the bot token, the API
// key and anything shaped like them from every record, and appends
// request-scoped fields carried on the context:
//
//	logger, err := logging.New(logging.FromConfig(cfg, os.Stderr))
//	ctx = logging.WithRequestID(ctx, uuid.NewString())
//	ctx = logging.WithConversation(ctx, chatID, userID)
//	logger.InfoContext(ctx, "message handled") // request_id, chat_id, user_id attached
//
// Attributes whose key names a credential ("token", "api_key", ...) are
// replaced with "***" regardless of value.
package logging
