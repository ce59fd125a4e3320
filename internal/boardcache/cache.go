// Package boardcache provides a Redis read-through cache for board
// configurations and board reference lists. Board definitions change rarely
// relative to how often the board model resolves them, and a single refresh
// fans out across every team owning an area path, so caching the per-team
// board fetches removes most of the REST round trips.
package boardcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/plankdev/plank/pkg/tracking"
)

// Source is the upstream the cache falls back to on a miss. Satisfied by
// *tracking.Client.
type Source interface {
	GetBoard(ctx context.Context, project, team, boardID string) (*tracking.Board, error)
	GetBoardReferences(ctx context.Context, project, team string) ([]tracking.BoardReference, error)
}

// Cache is a read-through cache over a Source. Entries are stored as JSON
// with a fixed TTL; a miss fetches from the source and populates the cache
// before returning. Cache write failures are not fatal - the fetched value is
// still returned.
type Cache struct {
	rdb    *redis.Client
	source Source
	ttl    time.Duration
}

// New creates a cache backed by the given Redis options and upstream source.
// TTL must be positive.
func New(redisOpts *redis.Options, source Source, ttl time.Duration) (*Cache, error) {
	if source == nil {
		return nil, fmt.Errorf("source cannot be nil")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("ttl must be positive, got %v", ttl)
	}
	return &Cache{
		rdb:    redis.NewClient(redisOpts),
		source: source,
		ttl:    ttl,
	}, nil
}

// Close closes the Redis connection. Implements io.Closer.
func (c *Cache) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity. Useful for health checks.
func (c *Cache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// GetBoard returns a board's full configuration, from cache when present.
func (c *Cache) GetBoard(ctx context.Context, project, team, boardID string) (*tracking.Board, error) {
	key := BoardKey(project, team, boardID)

	var board tracking.Board
	hit, err := c.read(ctx, key, &board)
	if err != nil {
		return nil, err
	}
	if hit {
		return &board, nil
	}

	fetched, err := c.source.GetBoard(ctx, project, team, boardID)
	if err != nil {
		return nil, err
	}
	c.write(ctx, key, fetched)
	return fetched, nil
}

// GetBoardReferences returns a team's board listing, from cache when present.
func (c *Cache) GetBoardReferences(ctx context.Context, project, team string) ([]tracking.BoardReference, error) {
	key := BoardRefsKey(project, team)

	var refs []tracking.BoardReference
	hit, err := c.read(ctx, key, &refs)
	if err != nil {
		return nil, err
	}
	if hit {
		return refs, nil
	}

	fetched, err := c.source.GetBoardReferences(ctx, project, team)
	if err != nil {
		return nil, err
	}
	c.write(ctx, key, fetched)
	return fetched, nil
}

// Invalidate drops every cached entry for a project/team pair. Meant for
// callers that just changed board settings and need the next read to be
// fresh.
func (c *Cache) Invalidate(ctx context.Context, project, team string) error {
	pattern := fmt.Sprintf("plank:%s:%s:*", project, team)
	iter := c.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete cache key %q: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}
	return nil
}

// read loads and decodes a cached entry. Returns (false, nil) on a miss.
func (c *Cache) read(ctx context.Context, key string, out any) (bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache key %q: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		// A corrupt entry behaves like a miss; the write below replaces it.
		return false, nil
	}
	return true, nil
}

// write stores an entry with the configured TTL. Failures are swallowed: the
// cache is an optimization, not a system of record.
func (c *Cache) write(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, key, data, c.ttl)
}
