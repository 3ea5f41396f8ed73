package models

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrSessionClosed = errors.New("session closed")

// Session is the client-held state of one dashboard conversation. The ID is
// sent with every ask and clear request so the backend can correlate turns.
//
// Transcript mutations go through the methods below. Ask and clear calls are
// serialized through AcquireTurn so the transcript keeps request order.
type Session struct {
	ID        string
	Company   CompanyKey
	CreatedAt time.Time

	slot chan struct{}

	mu         sync.RWMutex
	transcript []Turn
	generation uint64
	closed     bool
}

func NewSession(company CompanyKey) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Company:   company,
		CreatedAt: time.Now(),
		slot:      make(chan struct{}, 1),
	}
}

// AcquireTurn blocks until no other request is outstanding on the session.
// Waiters are served in arrival order. The returned func releases the slot.
func (s *Session) AcquireTurn(ctx context.Context) (func(), error) {
	select {
	case s.slot <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-s.slot }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Begin appends a user turn and returns the generation it was recorded under.
func (s *Session) Begin(t UserTurn) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrSessionClosed
	}
	s.transcript = append(s.transcript, t)
	return s.generation, nil
}

// Complete appends a bot turn only if the session is still on generation gen.
// A false return means the session was closed or rotated while the request
// was in flight and the answer must be dropped.
func (s *Session) Complete(gen uint64, t BotTurn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.generation != gen {
		return false
	}
	s.transcript = append(s.transcript, t)
	return true
}

// Reset empties the transcript. The session ID is kept.
func (s *Session) Reset() {
	s.mu.Lock()
	s.transcript = nil
	s.mu.Unlock()
}

// Close invalidates the session; in-flight answers are discarded.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.generation++
	s.mu.Unlock()
}

func (s *Session) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Transcript returns a copy of the turns in chronological order.
func (s *Session) Transcript() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Turn, len(s.transcript))
	copy(out, s.transcript)
	return out
}

func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.transcript)
}

// Queries counts the user turns in the transcript.
func (s *Session) Queries() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, t := range s.transcript {
		if t.Role() == RoleUser {
			n++
		}
	}
	return n
}
