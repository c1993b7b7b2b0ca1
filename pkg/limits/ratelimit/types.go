package ratelimit

import (
	"fmt"
	"time"
)

// Config configures per-conversation admission control.
type Config struct {
	// Window is the trailing period over which admitted requests are counted.
	Window time.Duration

	// MaxRequests is the number of requests admitted per Window.
	MaxRequests int

	// SweepSchedule is a cron expression for dropping idle windows.
	// Empty sweeps once per Window.
	SweepSchedule string
}

// Schedule returns the effective sweep schedule. It is empty only when
// neither SweepSchedule nor Window is set.
func (c Config) Schedule() string {
	if c.SweepSchedule != "" {
		return c.SweepSchedule
	}
	if c.Window > 0 {
		return fmt.Sprintf("@every %s", c.Window)
	}
	return ""
}

// CheckResult contains the result of an admission check.
type CheckResult struct {
	// Allowed indicates if the request is permitted.
	Allowed bool

	// Limit is the configured maximum per window.
	Limit int

	// Remaining is how many requests remain in the window after this check.
	Remaining int

	// RetryAfter is how long until the oldest recorded request leaves the
	// window. Zero when Allowed is true.
	RetryAfter time.Duration
}
