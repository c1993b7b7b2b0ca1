package ratelimit

import (
	"sync"
	"time"
)

// SlidingWindow is an exact sliding-window log for a single conversation.
//
// It keeps the timestamp of every admitted request still inside the window.
// A request is admitted when fewer than limit timestamps remain after
// pruning; rejected requests are not recorded.
//
// # Thread Safety
//
// Prune, check and record happen under one mutex, so concurrent callers
// can never admit more than limit requests per window.
type SlidingWindow struct {
	window time.Duration
	limit  int

	mu     sync.Mutex
	stamps []time.Time

	// retired is set when a Limiter sweeps the window out of its registry.
	retired bool
}

// NewSlidingWindow creates a window admitting limit requests per window.
func NewSlidingWindow(window time.Duration, limit int) *SlidingWindow {
	return &SlidingWindow{
		window: window,
		limit:  limit,
		stamps: make([]time.Time, 0, limit),
	}
}

// Allow prunes expired timestamps and records now if there is room.
func (sw *SlidingWindow) Allow(now time.Time) CheckResult {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	return sw.allowLocked(now)
}

// tryAllow is Allow for windows owned by a Limiter. It returns false
// without deciding if the window was retired by a concurrent sweep.
func (sw *SlidingWindow) tryAllow(now time.Time) (CheckResult, bool) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.retired {
		return CheckResult{}, false
	}
	return sw.allowLocked(now), true
}

// retireIfIdle marks the window retired when nothing is left inside it.
func (sw *SlidingWindow) retireIfIdle(now time.Time) bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.pruneLocked(now)
	if len(sw.stamps) > 0 {
		return false
	}
	sw.retired = true
	return true
}

func (sw *SlidingWindow) allowLocked(now time.Time) CheckResult {
	sw.pruneLocked(now)

	if len(sw.stamps) >= sw.limit {
		retry := time.Duration(0)
		if len(sw.stamps) > 0 {
			retry = sw.stamps[0].Add(sw.window).Sub(now)
		}
		return CheckResult{
			Allowed:    false,
			Limit:      sw.limit,
			Remaining:  0,
			RetryAfter: retry,
		}
	}

	sw.stamps = append(sw.stamps, now)
	return CheckResult{
		Allowed:   true,
		Limit:     sw.limit,
		Remaining: sw.limit - len(sw.stamps),
	}
}

// Count returns the number of recorded requests inside the window at now.
func (sw *SlidingWindow) Count(now time.Time) int {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.pruneLocked(now)
	return len(sw.stamps)
}

// Idle reports whether every recorded request has left the window.
func (sw *SlidingWindow) Idle(now time.Time) bool {
	return sw.Count(now) == 0
}

// pruneLocked drops timestamps at least one window old.
// Caller must hold sw.mu.
func (sw *SlidingWindow) pruneLocked(now time.Time) {
	cutoff := now.Add(-sw.window)

	i := 0
	for i < len(sw.stamps) && !sw.stamps[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return
	}

	n := copy(sw.stamps, sw.stamps[i:])
	sw.stamps = sw.stamps[:n]
}
