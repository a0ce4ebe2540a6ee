package memory

import (
	"sync"

	"blindtest-service/internal/domain"
)

// VerifierStore holds PKCE code verifiers between the authorize redirect and
// the callback, keyed by the opaque state parameter. Entries are one-shot.
type VerifierStore struct {
	mu        sync.Mutex
	verifiers map[string]string
}

func NewVerifierStore() *VerifierStore {
	return &VerifierStore{verifiers: make(map[string]string)}
}

func (s *VerifierStore) Put(state, verifier string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verifiers[state] = verifier
}

// Take returns and removes the verifier for state.
func (s *VerifierStore) Take(state string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	verifier, ok := s.verifiers[state]
	delete(s.verifiers, state)
	return verifier, ok
}

// TokenStore keeps each authenticated user's credentials.
type TokenStore struct {
	mu    sync.RWMutex
	creds map[string]domain.Credentials
}

func NewTokenStore() *TokenStore {
	return &TokenStore{creds: make(map[string]domain.Credentials)}
}

func (s *TokenStore) Put(userID string, creds domain.Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[userID] = creds
}

func (s *TokenStore) Credentials(userID string) (domain.Credentials, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	creds, ok := s.creds[userID]
	return creds, ok
}

func (s *TokenStore) Delete(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.creds, userID)
}
