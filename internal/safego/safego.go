// Package safego launches background goroutines with panic recovery.
package safego

import "log/slog"

// Go runs fn in a new goroutine, recovering and logging any panic instead of
// taking the process down. All fire-and-forget goroutines (the expiry sweeper,
// retention cleaner, metrics collectors) go through this so a panic in one job
// cannot silently kill it or crash the server.
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("recovered panic in background goroutine", "panic", r)
			}
		}()
		fn()
	}()
}
