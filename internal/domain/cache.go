package domain

import (
	"context"
	"time"
)

// FeedCache holds the most recent feed bundle for a short TTL so repeated
// page loads do not hammer the upstream sources.
type FeedCache interface {
	// Get returns the cached bundle or ErrNotFound when the entry is absent
	// or expired.
	Get(ctx context.Context) (FeedBundle, error)
	Set(ctx context.Context, bundle FeedBundle) error
	Invalidate(ctx context.Context) error
}

// RateLimiter applies a sliding-window request limit per key.
type RateLimiter interface {
	// Allow reports whether a request under key is permitted and, if so,
	// counts it against the window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// SignalBus is a lightweight publish/subscribe fabric used to push market,
// bet, and settlement events to the WebSocket hub.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error

	// Subscribe returns a channel of raw payloads. The subscription ends and
	// the channel closes when ctx is cancelled.
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// BlobWriter stores archive objects in cold storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
}
