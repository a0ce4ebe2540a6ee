package app

import (
	"math/rand"

	"blindtest-service/internal/domain"
)

// Shuffle returns a uniformly random permutation of in using Fisher-Yates.
// The input slice is never mutated; callers reuse it across questions.
func Shuffle[T any](rnd *rand.Rand, in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	for i := len(out) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// PickDistinct returns up to k distinct tracks drawn uniformly from pool,
// excluding the track with excludeID. When the pool holds fewer than k
// eligible tracks the result is shorter; callers guard via the
// minSongsToPlay / numAnswerOptions relationship.
func PickDistinct(rnd *rand.Rand, pool []domain.Track, excludeID string, k int) []domain.Track {
	eligible := make([]domain.Track, 0, len(pool))
	for _, t := range pool {
		if t.ID != excludeID {
			eligible = append(eligible, t)
		}
	}
	shuffled := Shuffle(rnd, eligible)
	if k > len(shuffled) {
		k = len(shuffled)
	}
	return shuffled[:k]
}
