package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Default quota for the upstream market API: 100 requests per second.
const (
	DefaultMaxRequests = 100
	DefaultWindow      = time.Second
)

// maxWaitCycles bounds how many sleep/retry passes a single Acquire may
// make under sustained contention.
const maxWaitCycles = 10000

// ErrContended is returned when an Acquire exhausts its wait cycles.
var ErrContended = errors.New("ratelimit: acquire retry limit exceeded")

// Limiter admits at most maxRequests calls per rolling window. It keeps the
// timestamps of admitted requests and prunes entries older than the window
// on every attempt, so the quota slides rather than resetting on a boundary.
type Limiter struct {
	mu          sync.Mutex
	maxRequests int
	window      time.Duration
	admitted    []time.Time
}

// NewLimiter creates a sliding-window limiter.
// maxRequests: admissions allowed inside any window-length interval.
// window: length of the rolling interval.
func NewLimiter(maxRequests int, window time.Duration) *Limiter {
	return &Limiter{
		maxRequests: maxRequests,
		window:      window,
		admitted:    make([]time.Time, 0, maxRequests),
	}
}

// NewDefaultLimiter creates a limiter with the upstream API quota.
func NewDefaultLimiter() *Limiter {
	return NewLimiter(DefaultMaxRequests, DefaultWindow)
}

// TryAcquire admits the caller immediately if the current window has
// capacity. It never blocks.
func (l *Limiter) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.prune(now)

	if len(l.admitted) < l.maxRequests {
		l.admitted = append(l.admitted, now)
		return true
	}

	return false
}

// Acquire blocks the calling goroutine until the window has capacity or ctx
// is done. Waiting is an explicit bounded loop, not recursion: each pass
// sleeps until the oldest admission ages out, then re-checks capacity under
// the lock, so sleepers racing awake cannot push the window above the quota.
func (l *Limiter) Acquire(ctx context.Context) error {
	for cycle := 0; cycle < maxWaitCycles; cycle++ {
		l.mu.Lock()
		now := time.Now()
		l.prune(now)

		if len(l.admitted) < l.maxRequests {
			l.admitted = append(l.admitted, now)
			l.mu.Unlock()
			return nil
		}

		wait := l.admitted[0].Add(l.window).Sub(now)
		l.mu.Unlock()

		if wait < time.Millisecond {
			wait = time.Millisecond
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return ErrContended
}

// Available returns how many admissions the current window still has room
// for.
func (l *Limiter) Available() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(time.Now())
	return l.maxRequests - len(l.admitted)
}

// WindowCount returns how many admissions sit in the current window.
func (l *Limiter) WindowCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(time.Now())
	return len(l.admitted)
}

// prune drops admissions that have aged out of the window. Callers hold mu.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)

	i := 0
	for i < len(l.admitted) && !l.admitted[i].After(cutoff) {
		i++
	}

	if i > 0 {
		l.admitted = append(l.admitted[:0], l.admitted[i:]...)
	}
}
