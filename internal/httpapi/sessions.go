package httpapi

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/smegmarip/stash-portrait-plugin/internal/portrait"
)

// ErrSessionNotFound is returned for unknown or deleted session IDs
var ErrSessionNotFound = errors.New("session not found")

// Sessions holds the UI state of every connected operator
type Sessions struct {
	mu       sync.RWMutex
	sessions map[string]*portrait.Session
}

// NewSessions creates an empty session registry
func NewSessions() *Sessions {
	return &Sessions{sessions: make(map[string]*portrait.Session)}
}

// Create registers a new session with default controls
func (s *Sessions) Create() *portrait.Session {
	session := portrait.NewSession(uuid.NewString())

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
	return session
}

// Get looks up a session
func (s *Sessions) Get(id string) (*portrait.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return session, nil
}

// Delete drops a session. Unknown IDs are an error.
func (s *Sessions) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(s.sessions, id)
	return nil
}

// Len returns the number of live sessions
func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
