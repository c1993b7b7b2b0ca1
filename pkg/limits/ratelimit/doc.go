// Package ratelimit provides per-conversation admission control.
//
// # Sliding Window Log
//
// Each conversation owns a SlidingWindow holding the timestamps of its
// admitted requests. Allow prunes timestamps that have left the window,
// admits the request if fewer than MaxRequests remain, and records it.
// Rejected requests leave no trace.
//
//	limiter := ratelimit.NewLimiter(ratelimit.Config{
//	    Window:      20 * time.Second,
//	    MaxRequests: 6,
//	})
//	limiter.Allow(key) // true six times within 20s, then false
//
// # Sweeping
//
// Windows are created on first use and kept for the life of the process.
// A Sweeper removes windows that have gone idle on a cron schedule:
//
//	sweeper := ratelimit.NewSweeper(limiter, logger)
//	if err := sweeper.Start(ctx); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// The registry lock only guards lookup and creation. Decisions for one key
// are serialized by that key's window lock; different keys never contend.
package ratelimit
