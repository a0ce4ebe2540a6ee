package memory

import (
	"sync"

	"blindtest-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionStore, keyed by
// user id. Each user has at most one live quiz.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Swap(userID string, session *app.Session) *app.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.sessions[userID]
	s.sessions[userID] = session
	return old
}

func (s *SessionStore) Get(userID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[userID]
	return session, ok
}

func (s *SessionStore) Remove(userID string) *app.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	session := s.sessions[userID]
	delete(s.sessions, userID)
	return session
}
