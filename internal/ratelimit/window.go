// Package ratelimit implements the server-side sliding-window admission
// gate. The Store is an explicit, injectable object (constructed once in
// cmd and handed to the API layer) so tests supply an isolated instance
// instead of relying on process-wide state.
package ratelimit

import (
	"sync"
	"time"
)

// AnonymousClientID is the shared identity used when a caller supplies no
// client identifier. Degraded on purpose: all anonymous callers share one
// window.
const AnonymousClientID = "anonymous"

// defaultCompactThreshold is the tracked-key count past which Admit sweeps
// all keys and drops those whose window is empty.
const defaultCompactThreshold = 1000

// Store tracks request timestamps per client within a trailing window.
// Safe for concurrent use; map access is quick and never blocks on I/O.
type Store struct {
	mu        sync.Mutex
	window    time.Duration
	capacity  int
	compactAt int
	clients   map[string][]time.Time
	now       func() time.Time
}

// New creates a Store admitting at most capacity requests per client in
// any trailing window.
func New(window time.Duration, capacity int) *Store {
	return &Store{
		window:    window,
		capacity:  capacity,
		compactAt: defaultCompactThreshold,
		clients:   make(map[string][]time.Time),
		now:       time.Now,
	}
}

// Admit prunes the client's expired timestamps and admits the request if
// fewer than capacity remain, recording the admission time. An empty
// clientID maps to AnonymousClientID.
func (s *Store) Admit(clientID string) bool {
	if clientID == "" {
		clientID = AnonymousClientID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	stamps := prune(s.clients[clientID], now, s.window)
	if len(stamps) >= s.capacity {
		s.clients[clientID] = stamps
		return false
	}

	s.clients[clientID] = append(stamps, now)

	if len(s.clients) > s.compactAt {
		s.compactLocked(now)
	}
	return true
}

// Tracked returns the number of client keys currently held. Used by
// monitoring and tests.
func (s *Store) Tracked() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// compactLocked sweeps every key and drops those whose window is empty.
func (s *Store) compactLocked(now time.Time) {
	for id, stamps := range s.clients {
		stamps = prune(stamps, now, s.window)
		if len(stamps) == 0 {
			delete(s.clients, id)
			continue
		}
		s.clients[id] = stamps
	}
}

// prune drops timestamps older than the window. Timestamps are appended
// in order, so the first survivor marks the cut.
func prune(stamps []time.Time, now time.Time, window time.Duration) []time.Time {
	cut := 0
	for cut < len(stamps) && now.Sub(stamps[cut]) >= window {
		cut++
	}
	if cut == 0 {
		return stamps
	}
	return append(stamps[:0:0], stamps[cut:]...)
}
