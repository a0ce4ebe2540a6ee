package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// HighScoreStore persists best scores in the high_scores table.
type HighScoreStore struct {
	pool *pgxpool.Pool
}

func NewHighScoreStore(pool *pgxpool.Pool) *HighScoreStore {
	return &HighScoreStore{pool: pool}
}

func (s *HighScoreStore) Best(ctx context.Context, userID string) (int, error) {
	var best int
	err := s.pool.QueryRow(ctx, `SELECT best_score FROM high_scores WHERE user_id=$1`, userID).Scan(&best)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load high score: %w", err)
	}
	return best, nil
}

// Record upserts the score with a monotonic guard; the WHERE clause makes a
// lower or equal score a no-op.
func (s *HighScoreStore) Record(ctx context.Context, userID string, score int) (int, bool, error) {
	var best int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO high_scores (user_id, best_score, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE
		SET best_score = EXCLUDED.best_score, updated_at = now()
		WHERE high_scores.best_score < EXCLUDED.best_score
		RETURNING best_score`, userID, score).Scan(&best)
	if errors.Is(err, pgx.ErrNoRows) {
		// Guard rejected the write; report the stored best.
		best, err = s.Best(ctx, userID)
		if err != nil {
			return 0, false, err
		}
		return best, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("record high score: %w", err)
	}
	return best, true, nil
}
