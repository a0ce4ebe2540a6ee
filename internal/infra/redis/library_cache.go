package redis

import (
	"context"
	"encoding/json"
	"time"

	"blindtest-service/internal/domain"
	"blindtest-service/internal/infra/memory"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// LibraryCache stores one snapshot per user as JSON under
// blindtest:library:{userID}, expiring with the cache TTL. Snapshots survive
// process restarts; the in-process singleflight still collapses concurrent
// loads for the same user.
type LibraryCache struct {
	client  *redis.Client
	fetcher memory.LibraryFetcher
	policy  memory.CachePolicy
	clock   func() time.Time
	sf      singleflight.Group
}

func NewLibraryCache(client *redis.Client, fetcher memory.LibraryFetcher, policy memory.CachePolicy) *LibraryCache {
	return &LibraryCache{
		client:  client,
		fetcher: fetcher,
		policy:  policy,
		clock:   time.Now,
	}
}

func (c *LibraryCache) Load(ctx context.Context, userID string, forceRefresh bool) (domain.LibrarySnapshot, error) {
	key := c.key(userID)

	if !forceRefresh {
		if snap, ok := c.read(ctx, key); ok && snap.Fresh(c.clock(), c.policy.TTL) {
			return snap, nil
		}
	}

	result, err, _ := c.sf.Do(userID, func() (interface{}, error) {
		if !forceRefresh {
			// Re-check in case another goroutine refreshed the key.
			if snap, ok := c.read(ctx, key); ok && snap.Fresh(c.clock(), c.policy.TTL) {
				return snap, nil
			}
		}

		snap, err := memory.FetchSnapshot(ctx, c.fetcher, userID, c.policy, c.clock())
		if err != nil {
			return domain.LibrarySnapshot{}, err
		}

		if raw, err := json.Marshal(snap); err == nil {
			// Best-effort persistence: a write failure only costs a refetch.
			_ = c.client.Set(ctx, key, raw, c.policy.TTL).Err()
		}
		return snap, nil
	})
	if err != nil {
		return domain.LibrarySnapshot{}, err
	}
	return result.(domain.LibrarySnapshot), nil
}

func (c *LibraryCache) read(ctx context.Context, key string) (domain.LibrarySnapshot, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.LibrarySnapshot{}, false
	}
	var snap domain.LibrarySnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return domain.LibrarySnapshot{}, false
	}
	return snap, true
}

func (c *LibraryCache) key(userID string) string {
	return "blindtest:library:" + userID
}
