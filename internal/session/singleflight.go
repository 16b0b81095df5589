package session

import (
	"errors"
	"sync"
)

// ErrSubmitPending is returned when an actor already has an identification
// in flight. The second submit is rejected outright, never queued:
// duplicate submissions would create duplicate audit events.
var ErrSubmitPending = errors.New("session: identification already in flight")

// SubmitGuard enforces one in-flight identification per actor.
type SubmitGuard struct {
	mu      sync.Mutex
	pending map[uint64]bool
}

func NewSubmitGuard() *SubmitGuard {
	return &SubmitGuard{pending: make(map[uint64]bool)}
}

// Begin reserves the actor's submission slot. It returns a release func to
// be called (usually deferred) when the submission resolves, or
// ErrSubmitPending when a previous submission has not resolved yet.
func (s *SubmitGuard) Begin(actorID uint64) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending[actorID] {
		return nil, ErrSubmitPending
	}
	s.pending[actorID] = true
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.pending, actorID)
	}, nil
}

// Pending reports whether the actor has an unresolved submission.
func (s *SubmitGuard) Pending(actorID uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending[actorID]
}
