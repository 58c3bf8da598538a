// Package ratelimit provides a per-key sliding-window limiter used to
// throttle write operations (minting, listing) per session.
package ratelimit

import (
	"sync"
	"time"
)

type Limiter struct {
	mu      sync.Mutex
	history map[string][]time.Time
}

func NewLimiter() *Limiter {
	return &Limiter{
		history: map[string][]time.Time{},
	}
}

type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Allow records an attempt under key and reports whether it fits inside
// the window. A limit of zero or less disables limiting for the call.
func (l *Limiter) Allow(key string, limit int, window time.Duration, now time.Time) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limit <= 0 {
		return Result{Allowed: true}
	}

	cutoff := now.Add(-window)
	recent := l.history[key][:0]
	for _, ts := range l.history[key] {
		if !ts.Before(cutoff) {
			recent = append(recent, ts)
		}
	}

	result := Result{
		Allowed: len(recent) < limit,
		Limit:   limit,
	}
	if result.Allowed {
		recent = append(recent, now)
		result.Remaining = limit - len(recent)
	}
	result.ResetAt = recent[0].Add(window)
	l.history[key] = recent
	return result
}

// Forget drops all recorded attempts for key, e.g. when its session
// ends.
func (l *Limiter) Forget(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.history, key)
}
