// Package history keeps bounded, per-conversation message logs in memory.
//
// Each log is seeded with a system directive that is pinned at index 0.
// Appends trim the log back to at most 1 + 2*maxTurns messages by evicting
// the oldest non-directive turns in chronological order.
//
//	store := history.NewStore(cfg.Conversation.SystemPrompt, cfg.Conversation.MaxTurns)
//	msgs := store.AppendUser(key, "Hello")  // [system, user]
//	store.AppendAssistant(key, "Hi there") // [system, user, assistant]
//	n := store.Clear(key)                  // n == 2
//
// State is volatile: nothing survives a process restart.
package history
