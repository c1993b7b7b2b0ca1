package history

import (
	"sync"

	"mercator-hq/chatrelay/pkg/conversation"
)

// Store holds one bounded message log per conversation.
//
// Every log starts with the system directive captured when the log was
// created. The directive occupies index 0 and is never evicted; trimming
// removes the oldest messages from index 1 onward until the log holds at
// most 1 + 2*maxTurns messages.
//
// # Thread Safety
//
// The registry map is guarded by a RWMutex that is held only to look up or
// create an entry. Each log has its own mutex, so appends to different
// conversations never contend. Every exported operation is atomic with
// respect to other operations on the same key.
type Store struct {
	directive string
	maxLen    int

	mu   sync.RWMutex
	logs map[conversation.Key]*log
}

// log is the mutable state for one conversation.
type log struct {
	mu       sync.Mutex
	messages []conversation.Message

	// removed is set by Clear after the entry leaves the registry. Writers
	// that raced with Clear observe it and retry against a fresh entry.
	removed bool
}

// NewStore creates a history store. directive seeds every new log and
// maxTurns bounds the number of user/assistant pairs kept. A negative
// maxTurns is treated as zero.
func NewStore(directive string, maxTurns int) *Store {
	if maxTurns < 0 {
		maxTurns = 0
	}
	return &Store{
		directive: directive,
		maxLen:    1 + 2*maxTurns,
		logs:      make(map[conversation.Key]*log),
	}
}

// MaxLen returns the maximum number of messages a log holds after trimming,
// directive included.
func (s *Store) MaxLen() int {
	return s.maxLen
}

// Get returns a copy of the conversation's log, creating it with the
// directive if it does not exist. The first element always has the system
// role.
func (s *Store) Get(key conversation.Key) []conversation.Message {
	var out []conversation.Message
	s.withLog(key, func(l *log) {
		out = l.snapshot()
	})
	return out
}

// AppendUser appends a user turn, trims, and returns a copy of the
// resulting log.
func (s *Store) AppendUser(key conversation.Key, text string) []conversation.Message {
	return s.append(key, conversation.User(text))
}

// AppendAssistant appends an assistant turn, trims, and returns a copy of
// the resulting log.
func (s *Store) AppendAssistant(key conversation.Key, text string) []conversation.Message {
	return s.append(key, conversation.Assistant(text))
}

func (s *Store) append(key conversation.Key, msg conversation.Message) []conversation.Message {
	var out []conversation.Message
	s.withLog(key, func(l *log) {
		l.messages = append(l.messages, msg)
		l.trim(s.maxLen)
		out = l.snapshot()
	})
	return out
}

// Trim evicts the oldest non-directive messages until the log length
// invariant holds. It is a no-op for logs already within bounds.
func (s *Store) Trim(key conversation.Key) {
	s.withLog(key, func(l *log) {
		l.trim(s.maxLen)
	})
}

// Clear removes the conversation's log entirely and returns how many
// non-directive messages it held. It returns 0 if no log existed. The next
// access recreates the log with only the directive.
func (s *Store) Clear(key conversation.Key) int {
	s.mu.Lock()
	l, ok := s.logs[key]
	if ok {
		delete(s.logs, key)
	}
	s.mu.Unlock()

	if !ok {
		return 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.messages) - 1
	l.messages = nil
	l.removed = true
	return n
}

// Size returns the number of non-directive messages in the conversation's
// log. It does not create a log.
func (s *Store) Size(key conversation.Key) int {
	s.mu.RLock()
	l, ok := s.logs[key]
	s.mu.RUnlock()

	if !ok {
		return 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.removed {
		return 0
	}
	return len(l.messages) - 1
}

// Conversations returns the number of logs currently held.
func (s *Store) Conversations() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.logs)
}

// withLog runs fn with the conversation's log locked, creating the log if
// needed.
func (s *Store) withLog(key conversation.Key, fn func(l *log)) {
	for {
		l := s.entry(key)

		l.mu.Lock()
		if l.removed {
			// Cleared between lookup and lock; the registry now holds a
			// fresh entry or none at all.
			l.mu.Unlock()
			continue
		}
		fn(l)
		l.mu.Unlock()
		return
	}
}

// entry returns the log for key, creating exactly one seeded log per key
// under concurrent first access.
func (s *Store) entry(key conversation.Key) *log {
	s.mu.RLock()
	l, ok := s.logs[key]
	s.mu.RUnlock()
	if ok {
		return l
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if l, ok := s.logs[key]; ok {
		return l
	}

	l = &log{
		messages: []conversation.Message{conversation.System(s.directive)},
	}
	s.logs[key] = l
	return l
}

// trim removes messages starting at index 1 until len <= maxLen.
// Caller must hold l.mu.
func (l *log) trim(maxLen int) {
	excess := len(l.messages) - maxLen
	if excess <= 0 {
		return
	}

	// Shift the kept tail down over the evicted head, leaving index 0.
	n := copy(l.messages[1:], l.messages[1+excess:])
	for i := 1 + n; i < len(l.messages); i++ {
		l.messages[i] = conversation.Message{}
	}
	l.messages = l.messages[:1+n]
}

// snapshot returns a copy of the messages. Caller must hold l.mu.
func (l *log) snapshot() []conversation.Message {
	out := make([]conversation.Message, len(l.messages))
	copy(out, l.messages)
	return out
}
