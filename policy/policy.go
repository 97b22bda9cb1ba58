// Package policy decides when a key set should be fetched.
//
// The decision functions do no I/O and never read the clock: callers pass
// now, which keeps every decision deterministic under test.
package policy

import (
	"sync"
	"time"
)

const (
	// DefaultAutoRefreshInterval is how long a snapshot stays fresh.
	DefaultAutoRefreshInterval = time.Hour

	// DefaultRetryRateLimit is the minimum spacing between reactive fetches.
	DefaultRetryRateLimit = 5 * time.Minute
)

// IsProactiveRefreshDue reports whether a snapshot fetched at lastFetchedAt
// is stale at now. A zero lastFetchedAt means nothing was fetched yet.
func IsProactiveRefreshDue(lastFetchedAt, now time.Time, interval time.Duration) bool {
	if lastFetchedAt.IsZero() {
		return true
	}
	return now.Sub(lastFetchedAt) >= interval
}

// IsReactiveRetryAllowed reports whether a failure-triggered fetch may run
// at now. A zero lastRetryAt means no reactive fetch happened yet, and a
// zero rateLimit never limits, even for a now earlier than lastRetryAt.
func IsReactiveRetryAllowed(lastRetryAt, now time.Time, rateLimit time.Duration) bool {
	if lastRetryAt.IsZero() || rateLimit <= 0 {
		return true
	}
	return now.Sub(lastRetryAt) >= rateLimit
}

// RetryGate rate-limits reactive fetches across concurrent callers.
type RetryGate struct {
	mu          sync.Mutex
	lastRetryAt time.Time
}

// TryAcquire consumes the reactive retry slot if IsReactiveRetryAllowed
// permits it at now. The check and the update happen under one lock, so
// only one of several concurrent callers wins a window.
func (g *RetryGate) TryAcquire(now time.Time, rateLimit time.Duration) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !IsReactiveRetryAllowed(g.lastRetryAt, now, rateLimit) {
		return false
	}
	// Callers read their clock before taking the lock, so now may trail
	// the recorded instant. The window never moves backwards.
	if now.After(g.lastRetryAt) {
		g.lastRetryAt = now
	}
	return true
}

// LastRetryAt returns when the slot was last consumed, or zero.
func (g *RetryGate) LastRetryAt() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastRetryAt
}
