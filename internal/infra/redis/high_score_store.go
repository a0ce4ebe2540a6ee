package redis

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// HighScoreStore persists each user's best score under
// blindtest:highscore:{userID}. High scores never expire.
//
// Record is read-compare-write without a transaction: access is effectively
// single-writer per user and last-write-wins is acceptable here.
type HighScoreStore struct {
	client *redis.Client
}

func NewHighScoreStore(client *redis.Client) *HighScoreStore {
	return &HighScoreStore{client: client}
}

func (s *HighScoreStore) Best(ctx context.Context, userID string) (int, error) {
	raw, err := s.client.Get(ctx, s.key(userID)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	best, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	return best, nil
}

func (s *HighScoreStore) Record(ctx context.Context, userID string, score int) (int, bool, error) {
	current, err := s.Best(ctx, userID)
	if err != nil {
		return 0, false, err
	}
	if score <= current {
		return current, false, nil
	}
	if err := s.client.Set(ctx, s.key(userID), strconv.Itoa(score), 0).Err(); err != nil {
		return 0, false, err
	}
	return score, true, nil
}

func (s *HighScoreStore) key(userID string) string {
	return "blindtest:highscore:" + userID
}
