// Package ratelimit implements a fixed-window request limiter keyed by
// client identifier. Counters are in-memory and best-effort: they reset on
// window expiry and are lost on process restart.
package ratelimit

import (
	"sync"
	"time"
)

// Decision is the outcome of a limiter check. Remaining and ResetAt are
// always populated so denied clients can back off intelligently.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

type window struct {
	count   int
	resetAt time.Time
}

// Limiter allows up to Max requests per client per fixed window.
type Limiter struct {
	max    int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	clients map[string]*window
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New creates a limiter with the given quota and window.
func New(max int, windowSize time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		max:     max,
		window:  windowSize,
		now:     time.Now,
		clients: make(map[string]*window),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow records a request for the client and reports whether it is within
// quota.
func (l *Limiter) Allow(clientID string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.clients[clientID]
	if !ok || now.After(w.resetAt) || now.Equal(w.resetAt) {
		w = &window{count: 0, resetAt: now.Add(l.window)}
		l.clients[clientID] = w
	}

	if w.count >= l.max {
		return Decision{Allowed: false, Remaining: 0, ResetAt: w.resetAt}
	}
	w.count++
	return Decision{Allowed: true, Remaining: l.max - w.count, ResetAt: w.resetAt}
}
