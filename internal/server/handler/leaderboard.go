package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/digital-prophets/prophetd/internal/domain"
)

// LeaderboardService defines the ranking query the leaderboard handler
// requires.
type LeaderboardService interface {
	Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}

// LeaderboardHandler serves the settled-bet ranking endpoint.
type LeaderboardHandler struct {
	ledger LeaderboardService
	logger *slog.Logger
}

// NewLeaderboardHandler creates a LeaderboardHandler.
func NewLeaderboardHandler(ledger LeaderboardService, logger *slog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		ledger: ledger,
		logger: logger,
	}
}

// List returns the top users by net settled result.
// GET /api/leaderboard?limit=20
func (h *LeaderboardHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > 100 {
		limit = 100
	}

	entries, err := h.ledger.Leaderboard(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: leaderboard failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to build leaderboard")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"leaderboard": entries,
	})
}
