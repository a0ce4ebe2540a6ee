package memory

import (
	"context"
	"sync"
)

// HighScoreStore keeps each user's best score in memory. Best answers zero
// for unknown users; Record only replaces a strictly greater score.
type HighScoreStore struct {
	mu   sync.RWMutex
	best map[string]int
}

func NewHighScoreStore() *HighScoreStore {
	return &HighScoreStore{best: make(map[string]int)}
}

func (s *HighScoreStore) Best(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.best[userID], nil
}

func (s *HighScoreStore) Record(_ context.Context, userID string, score int) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.best[userID]
	if score > current {
		s.best[userID] = score
		return score, true, nil
	}
	return current, false, nil
}
