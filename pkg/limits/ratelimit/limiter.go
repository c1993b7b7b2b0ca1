package ratelimit

import (
	"sync"
	"time"

	"mercator-hq/chatrelay/pkg/conversation"
)

// Limiter holds one SlidingWindow per conversation.
//
// The registry lock is held only to find or create a window; the admission
// decision itself runs under the window's own lock, so unrelated
// conversations never contend.
type Limiter struct {
	config Config
	now    func() time.Time

	mu      sync.RWMutex
	windows map[conversation.Key]*SlidingWindow
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// NewLimiter creates a limiter with the given configuration.
//
// Example:
//
//	limiter := ratelimit.NewLimiter(ratelimit.Config{
//	    Window:      20 * time.Second,
//	    MaxRequests: 6,
//	})
//	if !limiter.Allow(key) {
//	    // tell the user to slow down
//	}
func NewLimiter(config Config, opts ...Option) *Limiter {
	l := &Limiter{
		config:  config,
		now:     time.Now,
		windows: make(map[conversation.Key]*SlidingWindow),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow reports whether a request for key is admitted, recording it if so.
func (l *Limiter) Allow(key conversation.Key) bool {
	return l.Check(key).Allowed
}

// Check is Allow with the full decision.
func (l *Limiter) Check(key conversation.Key) CheckResult {
	for {
		if res, ok := l.window(key).tryAllow(l.now()); ok {
			return res
		}
	}
}

// Remaining returns how many requests key may still make in the current
// window without recording anything.
func (l *Limiter) Remaining(key conversation.Key) int {
	l.mu.RLock()
	sw, ok := l.windows[key]
	l.mu.RUnlock()

	if !ok {
		return l.config.MaxRequests
	}

	remaining := l.config.MaxRequests - sw.Count(l.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Config returns the limiter configuration.
func (l *Limiter) Config() Config {
	return l.config
}

// Len returns the number of tracked windows.
func (l *Limiter) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.windows)
}

// Sweep drops windows with no requests left inside them and returns how
// many were removed. A dropped window behaves exactly like a fresh one.
func (l *Limiter) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, sw := range l.windows {
		if sw.retireIfIdle(now) {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}

func (l *Limiter) window(key conversation.Key) *SlidingWindow {
	l.mu.RLock()
	sw, ok := l.windows[key]
	l.mu.RUnlock()
	if ok {
		return sw
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if sw, ok := l.windows[key]; ok {
		return sw
	}
	sw = NewSlidingWindow(l.config.Window, l.config.MaxRequests)
	l.windows[key] = sw
	return sw
}
