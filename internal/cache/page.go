package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// PageCache stores fully rendered HTML pages for a fixed window. Entries are
// never refreshed by writes; they expire or are removed by ClearPages.
type PageCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewPageCache returns a cache writing to rdb. A nil client disables caching.
func NewPageCache(rdb *redis.Client, ttl time.Duration) *PageCache {
	return &PageCache{rdb: rdb, ttl: ttl}
}

// Enabled reports whether pages are actually cached.
func (p *PageCache) Enabled() bool {
	return p != nil && p.rdb != nil && p.ttl > 0
}

// Get returns the cached body for key.
func (p *PageCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if !p.Enabled() {
		return nil, false, nil
	}
	b, err := p.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Set stores body under key for the cache window.
func (p *PageCache) Set(ctx context.Context, key string, body []byte) error {
	if !p.Enabled() {
		return nil
	}
	return p.rdb.Set(ctx, key, body, p.ttl).Err()
}

// Clear drops every cached page.
func (p *PageCache) Clear(ctx context.Context) (int, error) {
	if p == nil || p.rdb == nil {
		return 0, nil
	}
	return ClearPages(ctx, p.rdb)
}

// ClearPages deletes every key under PageKeyPrefix and returns how many were removed.
func ClearPages(ctx context.Context, rdb *redis.Client) (int, error) {
	if rdb == nil {
		return 0, nil
	}
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := rdb.Scan(ctx, cursor, PageKeyPrefix+"*", 200).Result()
		if err != nil {
			return removed, fmt.Errorf("scan cached pages: %w", err)
		}
		if len(keys) > 0 {
			n, err := rdb.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("delete cached pages: %w", err)
			}
			removed += int(n)
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}
