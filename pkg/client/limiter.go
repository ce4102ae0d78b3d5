package client

import (
	"context"
	"sync"
	"time"
)

// Limiter is the local admission gate keeping a UI from emitting request
// bursts. Same sliding-window spirit as the server gate, except overflow
// callers are queued FIFO instead of rejected: Acquire suspends until a
// slot frees.
//
// Two constraints gate a slot: at most capacity acquisitions inside any
// trailing window, and at most capacity permits held at once. Release
// must be called exactly once per successful Acquire when the request
// completes (success or failure); a missing Release permanently occupies
// one of the permits. Caller obligation, not enforced here.
type Limiter struct {
	mu       sync.Mutex
	window   time.Duration
	capacity int
	held     int
	stamps   []time.Time // acquisition times within the window
	waiters  []chan struct{}
	now      func() time.Time
}

// NewLimiter creates a Limiter admitting capacity requests per window.
func NewLimiter(window time.Duration, capacity int) *Limiter {
	return &Limiter{
		window:   window,
		capacity: capacity,
		now:      time.Now,
	}
}

// Acquire blocks until a slot is free or ctx is done. Waiters are served
// in FIFO order.
func (l *Limiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	if len(l.waiters) == 0 && l.tryAcquireLocked() {
		l.mu.Unlock()
		return nil
	}

	ready := make(chan struct{}, 1)
	l.waiters = append(l.waiters, ready)
	l.mu.Unlock()

	for {
		wait := l.untilNextExpiry()
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			l.abandon(ready)
			return ctx.Err()
		case <-ready:
			timer.Stop()
			return nil
		case <-timer.C:
			l.mu.Lock()
			l.dispatchLocked()
			l.mu.Unlock()
		}
	}
}

// Release frees the permit taken by a successful Acquire.
func (l *Limiter) Release() {
	l.mu.Lock()
	if l.held > 0 {
		l.held--
	}
	l.dispatchLocked()
	l.mu.Unlock()
}

// tryAcquireLocked grants a slot when both the concurrency and the
// window constraints allow it.
func (l *Limiter) tryAcquireLocked() bool {
	l.pruneLocked()
	if l.held >= l.capacity || len(l.stamps) >= l.capacity {
		return false
	}
	l.held++
	l.stamps = append(l.stamps, l.now())
	return true
}

// dispatchLocked hands slots to queued waiters, head first.
func (l *Limiter) dispatchLocked() {
	for len(l.waiters) > 0 && l.tryAcquireLocked() {
		ready := l.waiters[0]
		l.waiters = l.waiters[1:]
		ready <- struct{}{}
	}
}

func (l *Limiter) pruneLocked() {
	now := l.now()
	cut := 0
	for cut < len(l.stamps) && now.Sub(l.stamps[cut]) >= l.window {
		cut++
	}
	if cut > 0 {
		l.stamps = append(l.stamps[:0:0], l.stamps[cut:]...)
	}
}

// untilNextExpiry returns how long until the oldest window stamp falls
// out, so a queued waiter re-checks at the earliest useful moment.
func (l *Limiter) untilNextExpiry() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.stamps) == 0 {
		return 50 * time.Millisecond
	}
	wait := l.window - l.now().Sub(l.stamps[0])
	if wait < time.Millisecond {
		wait = time.Millisecond
	}
	return wait
}

// abandon removes a cancelled waiter; if a grant raced in, pass it on.
func (l *Limiter) abandon(ready chan struct{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, w := range l.waiters {
		if w == ready {
			l.waiters = append(l.waiters[:i], l.waiters[i+1:]...)
			return
		}
	}
	// Not queued anymore: a grant was already delivered. Give it back.
	select {
	case <-ready:
		if l.held > 0 {
			l.held--
		}
		l.dispatchLocked()
	default:
	}
}
