package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/digital-prophets/prophetd/internal/domain"
	"github.com/digital-prophets/prophetd/internal/service"
)

// PredictionService defines the registry methods the prediction handler
// requires. It is declared locally so the handler package does not depend on
// the concrete service implementation.
type PredictionService interface {
	CreateMarket(ctx context.Context, in service.CreateMarketInput) (domain.Market, error)
	GetMarket(ctx context.Context, id string) (domain.Market, error)
	ListMarkets(ctx context.Context, status *domain.MarketStatus, opts domain.ListOpts) ([]domain.Market, error)
	Count(ctx context.Context) (int64, error)
}

// ResolutionService defines the settlement methods the prediction handler
// requires.
type ResolutionService interface {
	ResolveMarket(ctx context.Context, marketID string, outcome bool) (domain.ResolutionReport, error)
	CancelMarket(ctx context.Context, marketID string) (domain.ResolutionReport, error)
}

// PredictionHandler serves prediction-market HTTP endpoints.
type PredictionHandler struct {
	markets    PredictionService
	settlement ResolutionService
	logger     *slog.Logger
}

// NewPredictionHandler creates a PredictionHandler with the given services.
func NewPredictionHandler(markets PredictionService, settlement ResolutionService, logger *slog.Logger) *PredictionHandler {
	return &PredictionHandler{
		markets:    markets,
		settlement: settlement,
		logger:     logger,
	}
}

// listPredictionsResponse wraps the list endpoint output with metadata.
type listPredictionsResponse struct {
	Predictions []domain.Market `json:"predictions"`
	Total       int64           `json:"total"`
	Limit       int             `json:"limit"`
	Offset      int             `json:"offset"`
}

// Create opens a new market seeded from the creator's initial stake.
// POST /api/predictions
func (h *PredictionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CreateMarketInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	market, err := h.markets.CreateMarket(r.Context(), in)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: create prediction failed",
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, "failed to create prediction")
		return
	}

	writeJSON(w, http.StatusCreated, market)
}

// List returns markets, optionally filtered by status, with pagination.
// GET /api/predictions?status=active&limit=50&offset=0
func (h *PredictionHandler) List(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)

	var status *domain.MarketStatus
	if v := r.URL.Query().Get("status"); v != "" {
		s := domain.MarketStatus(v)
		switch s {
		case domain.MarketStatusActive, domain.MarketStatusResolved, domain.MarketStatusCancelled:
			status = &s
		default:
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", v))
			return
		}
	}

	markets, err := h.markets.ListMarkets(r.Context(), status, opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list predictions failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list predictions")
		return
	}

	total, err := h.markets.Count(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: count predictions failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to count predictions")
		return
	}

	writeJSON(w, http.StatusOK, listPredictionsResponse{
		Predictions: markets,
		Total:       total,
		Limit:       opts.Limit,
		Offset:      opts.Offset,
	})
}

// Get returns a single market by its ID.
// GET /api/predictions/{id}
func (h *PredictionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing prediction id")
		return
	}

	market, err := h.markets.GetMarket(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "failed to get prediction")
		return
	}

	writeJSON(w, http.StatusOK, market)
}

// resolveRequest carries the declared outcome for a resolution.
type resolveRequest struct {
	Outcome bool `json:"outcome"`
}

// Resolve settles a market to the declared outcome and pays out all bets.
// POST /api/predictions/{id}/resolve
func (h *PredictionHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing prediction id")
		return
	}

	var req resolveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	report, err := h.settlement.ResolveMarket(r.Context(), id, req.Outcome)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: resolve prediction failed",
			slog.String("market_id", id),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, "failed to resolve prediction")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// Cancel voids a market and refunds every pending bet its principal.
// POST /api/predictions/{id}/cancel
func (h *PredictionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing prediction id")
		return
	}

	report, err := h.settlement.CancelMarket(r.Context(), id)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: cancel prediction failed",
			slog.String("market_id", id),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, "failed to cancel prediction")
		return
	}

	writeJSON(w, http.StatusOK, report)
}
