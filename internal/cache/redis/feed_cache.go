package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/digital-prophets/prophetd/internal/domain"
)

// feedKey is the single cache slot for the assembled feed bundle.
const feedKey = "feed:bundle"

// FeedCache implements domain.FeedCache as one JSON blob with a TTL. The
// whole bundle expires together so the UI never sees a half-fresh feed.
type FeedCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewFeedCache creates a FeedCache with the given TTL.
func NewFeedCache(c *Client, ttl time.Duration) *FeedCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &FeedCache{rdb: c.Underlying(), ttl: ttl}
}

// Get returns the cached bundle or domain.ErrNotFound when the entry is
// absent or expired.
func (fc *FeedCache) Get(ctx context.Context) (domain.FeedBundle, error) {
	data, err := fc.rdb.Get(ctx, feedKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return domain.FeedBundle{}, domain.ErrNotFound
		}
		return domain.FeedBundle{}, fmt.Errorf("redis: get feed bundle: %w", err)
	}

	var bundle domain.FeedBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return domain.FeedBundle{}, fmt.Errorf("redis: decode feed bundle: %w", err)
	}
	return bundle, nil
}

// Set stores the bundle with the configured TTL.
func (fc *FeedCache) Set(ctx context.Context, bundle domain.FeedBundle) error {
	data, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("redis: encode feed bundle: %w", err)
	}
	if err := fc.rdb.Set(ctx, feedKey, data, fc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set feed bundle: %w", err)
	}
	return nil
}

// Invalidate drops the cached bundle.
func (fc *FeedCache) Invalidate(ctx context.Context) error {
	if err := fc.rdb.Del(ctx, feedKey).Err(); err != nil {
		return fmt.Errorf("redis: invalidate feed bundle: %w", err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.FeedCache = (*FeedCache)(nil)
