// Package ratelimit provides a sliding-window rate limiter for venue calls.
//
// The limiter records the timestamp of each admitted call and blocks a new
// caller while the trailing window still holds the configured number of
// calls. Expired timestamps are pruned on every acquisition attempt, so the
// limit applies to the trailing window rather than to fixed buckets.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultLimit is the number of calls admitted per window.
	DefaultLimit = 5

	// DefaultWindow is the trailing window length.
	DefaultWindow = time.Second
)

// SlidingWindow limits callers to at most limit calls per trailing window.
// It is safe for concurrent use.
type SlidingWindow struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	calls  []time.Time
	now    func() time.Time
}

// New creates a limiter admitting limit calls per window. Non-positive
// arguments fall back to the defaults.
func New(limit int, window time.Duration) *SlidingWindow {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &SlidingWindow{
		limit:  limit,
		window: window,
		calls:  make([]time.Time, 0, limit),
		now:    time.Now,
	}
}

// Acquire blocks until fewer than limit calls have been recorded in the
// trailing window, then records a new call timestamp. It returns early with
// the context error if ctx is cancelled while waiting.
func (l *SlidingWindow) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		l.prune(now)

		if len(l.calls) < l.limit {
			l.calls = append(l.calls, now)
			l.mu.Unlock()
			return nil
		}

		// Oldest recorded call bounds the earliest admission time.
		wait := l.calls[0].Add(l.window).Sub(now)
		l.mu.Unlock()

		if wait <= 0 {
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// prune drops timestamps that have left the trailing window.
// Callers must hold l.mu.
func (l *SlidingWindow) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	kept := 0
	for kept < len(l.calls) && !l.calls[kept].After(cutoff) {
		kept++
	}
	if kept > 0 {
		l.calls = append(l.calls[:0], l.calls[kept:]...)
	}
}

// Pending returns the number of calls currently recorded in the window.
func (l *SlidingWindow) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return len(l.calls)
}

// Registry hands out one limiter per venue name.
type Registry struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	limiters map[string]*SlidingWindow
}

// NewRegistry creates a registry whose limiters use the given settings.
func NewRegistry(limit int, window time.Duration) *Registry {
	return &Registry{
		limit:    limit,
		window:   window,
		limiters: make(map[string]*SlidingWindow),
	}
}

// For returns the limiter for a venue, creating it on first use.
func (r *Registry) For(venue string) *SlidingWindow {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.limiters[venue]
	if !ok {
		l = New(r.limit, r.window)
		r.limiters[venue] = l
	}
	return l
}
