package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/digital-prophets/prophetd/internal/domain"
)

// FeedSource fetches a fresh feed bundle from the upstream providers.
type FeedSource interface {
	Fetch(ctx context.Context) (domain.FeedBundle, error)
}

// Feed serves the esports feed with a short cache in front of the upstream
// sources. A failed refresh degrades to an empty bundle rather than an
// error; the UI always receives a structurally complete payload.
type Feed struct {
	source FeedSource
	cache  domain.FeedCache
	logger *slog.Logger
}

// NewFeed creates a Feed service. cache may be nil, which disables caching.
func NewFeed(source FeedSource, cache domain.FeedCache, logger *slog.Logger) *Feed {
	return &Feed{
		source: source,
		cache:  cache,
		logger: logger.With(slog.String("component", "feed")),
	}
}

// Get returns the current feed bundle: cached when fresh, fetched otherwise.
func (f *Feed) Get(ctx context.Context) (domain.FeedBundle, error) {
	if f.cache != nil {
		bundle, err := f.cache.Get(ctx)
		if err == nil {
			return bundle, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			f.logger.WarnContext(ctx, "feed cache read failed",
				slog.String("error", err.Error()),
			)
		}
	}

	return f.Refresh(ctx)
}

// Refresh bypasses the cache, fetches from upstream, and repopulates the
// cache. Upstream failure yields an empty bundle, never an error.
func (f *Feed) Refresh(ctx context.Context) (domain.FeedBundle, error) {
	bundle, err := f.source.Fetch(ctx)
	if err != nil {
		f.logger.WarnContext(ctx, "feed fetch failed, serving empty bundle",
			slog.String("error", err.Error()),
		)
		return domain.EmptyFeedBundle(), nil
	}

	if f.cache != nil {
		if cacheErr := f.cache.Set(ctx, bundle); cacheErr != nil {
			f.logger.WarnContext(ctx, "feed cache write failed",
				slog.String("error", cacheErr.Error()),
			)
		}
	}

	return bundle, nil
}

// Invalidate drops the cached bundle so the next Get refetches.
func (f *Feed) Invalidate(ctx context.Context) error {
	if f.cache == nil {
		return nil
	}
	return f.cache.Invalidate(ctx)
}
