package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"blindtest-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// LibraryFetcher retrieves a user's full saved-track list from the external
// library API. Tracks are returned unfiltered; the cache applies admission
// rules.
type LibraryFetcher interface {
	FetchLibrary(ctx context.Context, userID string) ([]domain.Track, int, error)
}

// CachePolicy holds the admission and freshness rules for library snapshots.
type CachePolicy struct {
	TTL            time.Duration
	MinDurationMS  int
	MinSongsToPlay int
}

// LibraryCache keeps one snapshot per user with a TTL to avoid redundant
// fetches. Concurrent loads for the same user collapse via singleflight.
type LibraryCache struct {
	fetcher LibraryFetcher
	policy  CachePolicy
	clock   func() time.Time
	sf      singleflight.Group

	mu    sync.RWMutex
	cache map[string]domain.LibrarySnapshot
}

func NewLibraryCache(fetcher LibraryFetcher, policy CachePolicy) *LibraryCache {
	return &LibraryCache{
		fetcher: fetcher,
		policy:  policy,
		clock:   time.Now,
		cache:   make(map[string]domain.LibrarySnapshot),
	}
}

// NewLibraryCacheWithClock is test-only for deterministic freshness checks.
func NewLibraryCacheWithClock(fetcher LibraryFetcher, policy CachePolicy, clock func() time.Time) *LibraryCache {
	c := NewLibraryCache(fetcher, policy)
	c.clock = clock
	return c
}

// Load returns a non-expired snapshot without network access when one
// exists and forceRefresh is false; otherwise it fetches, filters, and
// stores a new snapshot.
func (c *LibraryCache) Load(ctx context.Context, userID string, forceRefresh bool) (domain.LibrarySnapshot, error) {
	if !forceRefresh {
		c.mu.RLock()
		if snap, ok := c.cache[userID]; ok && snap.Fresh(c.clock(), c.policy.TTL) {
			c.mu.RUnlock()
			return snap, nil
		}
		c.mu.RUnlock()
	}

	result, err, _ := c.sf.Do(userID, func() (interface{}, error) {
		if !forceRefresh {
			c.mu.RLock()
			if snap, ok := c.cache[userID]; ok && snap.Fresh(c.clock(), c.policy.TTL) {
				c.mu.RUnlock()
				return snap, nil
			}
			c.mu.RUnlock()
		}

		snap, err := FetchSnapshot(ctx, c.fetcher, userID, c.policy, c.clock())
		if err != nil {
			return domain.LibrarySnapshot{}, err
		}

		c.mu.Lock()
		c.cache[userID] = snap
		c.mu.Unlock()
		return snap, nil
	})
	if err != nil {
		return domain.LibrarySnapshot{}, err
	}
	return result.(domain.LibrarySnapshot), nil
}

// FetchSnapshot runs one full fetch and applies the admission policy. Shared
// by the in-memory and Redis caches.
func FetchSnapshot(ctx context.Context, fetcher LibraryFetcher, userID string, policy CachePolicy, now time.Time) (domain.LibrarySnapshot, error) {
	tracks, total, err := fetcher.FetchLibrary(ctx, userID)
	if err != nil {
		return domain.LibrarySnapshot{}, fmt.Errorf("%w: %v", domain.ErrLibraryUnavailable, err)
	}

	qualifying := make([]domain.Track, 0, len(tracks))
	for _, t := range tracks {
		if t.Qualifies(policy.MinDurationMS) {
			qualifying = append(qualifying, t)
		}
	}
	if len(qualifying) < policy.MinSongsToPlay {
		return domain.LibrarySnapshot{}, domain.ErrInsufficientLibrary
	}

	return domain.LibrarySnapshot{
		UserID:    userID,
		Tracks:    qualifying,
		Total:     total,
		FetchedAt: now,
	}, nil
}

// StaticLibraryFetcher serves a fixed track list (useful for tests/demos).
type StaticLibraryFetcher struct {
	tracks map[string][]domain.Track
}

func NewStaticLibraryFetcher(tracks map[string][]domain.Track) *StaticLibraryFetcher {
	return &StaticLibraryFetcher{tracks: tracks}
}

func (f *StaticLibraryFetcher) FetchLibrary(_ context.Context, userID string) ([]domain.Track, int, error) {
	tracks, ok := f.tracks[userID]
	if !ok {
		return nil, 0, domain.ErrNotAuthenticated
	}
	return tracks, len(tracks), nil
}
