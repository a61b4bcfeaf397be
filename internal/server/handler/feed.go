package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/digital-prophets/prophetd/internal/domain"
)

// FeedService defines the feed methods the feed handler requires.
type FeedService interface {
	Get(ctx context.Context) (domain.FeedBundle, error)
	Refresh(ctx context.Context) (domain.FeedBundle, error)
}

// FeedHandler serves the esports news and match feed.
type FeedHandler struct {
	feed   FeedService
	logger *slog.Logger
}

// NewFeedHandler creates a FeedHandler with the given service and logger.
func NewFeedHandler(feed FeedService, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{
		feed:   feed,
		logger: logger,
	}
}

// Get returns the cached feed bundle, fetching upstream on a cache miss.
// GET /api/feed
func (h *FeedHandler) Get(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.feed.Get(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: get feed failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load feed")
		return
	}

	writeJSON(w, http.StatusOK, bundle)
}

// Refresh bypasses the cache and refetches the feed from upstream.
// POST /api/feed/refresh
func (h *FeedHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.feed.Refresh(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: refresh feed failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to refresh feed")
		return
	}

	writeJSON(w, http.StatusOK, bundle)
}
