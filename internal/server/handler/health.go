package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// MarketCounter reports how many markets exist, used as a cheap liveness
// probe of the store.
type MarketCounter interface {
	Count(ctx context.Context) (int64, error)
}

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	markets   MarketCounter
	startedAt time.Time
	logger    *slog.Logger
}

// NewHealthHandler creates a HealthHandler with the provided logger.
func NewHealthHandler(markets MarketCounter, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		markets:   markets,
		startedAt: time.Now().UTC(),
		logger:    logger,
	}
}

// HealthCheck responds with server status, uptime, and the market count. A
// failing store degrades the status but the endpoint still answers 200.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":         "ok",
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
	}

	if h.markets != nil {
		count, err := h.markets.Count(r.Context())
		if err != nil {
			h.logger.WarnContext(r.Context(), "handler: health store check failed",
				slog.String("error", err.Error()),
			)
			resp["status"] = "degraded"
		} else {
			resp["markets"] = count
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
