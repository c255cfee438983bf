// Package handoff serves the pages a phone opens to continue an AR session
// started on the desktop viewer.
package handoff

import (
	"errors"
	"sync"
	"time"

	"github.com/Faultbox/beanbag/internal/ar"
	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for unknown session ids.
var ErrSessionNotFound = errors.New("handoff: session not found")

// Session is one AR request shared with other devices.
type Session struct {
	ID      string
	Request ar.SessionRequest
	Created time.Time
}

// Store keeps sessions in memory. Only the most recent sessions are kept.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	order    []string
	limit    int
	now      func() time.Time
}

// NewStore creates a store holding at most limit sessions.
func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = 32
	}
	return &Store{
		sessions: make(map[string]*Session),
		limit:    limit,
		now:      time.Now,
	}
}

// Add registers req and returns its session.
func (s *Store) Add(req ar.SessionRequest) *Session {
	sess := &Session{
		ID:      uuid.NewString(),
		Request: req,
		Created: s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	s.order = append(s.order, sess.ID)
	for len(s.order) > s.limit {
		delete(s.sessions, s.order[0])
		s.order = s.order[1:]
	}
	return sess
}

// Get returns the session with the given id.
func (s *Store) Get(id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrSessionNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Latest returns the most recent session, if any.
func (s *Store) Latest() (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.order) == 0 {
		return nil, false
	}
	return s.sessions[s.order[len(s.order)-1]], true
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
