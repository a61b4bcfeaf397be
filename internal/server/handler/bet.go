package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/digital-prophets/prophetd/internal/domain"
	"github.com/digital-prophets/prophetd/internal/service"
)

// BetService defines the ledger methods the bet handler requires.
type BetService interface {
	PlaceBet(ctx context.Context, in service.PlaceBetInput) (domain.Bet, domain.Market, error)
	GetBet(ctx context.Context, id string) (domain.Bet, error)
	ListBetsForUser(ctx context.Context, userID string, opts domain.ListOpts) ([]domain.Bet, error)
	ListBetsForMarket(ctx context.Context, marketID string, opts domain.ListOpts) ([]domain.Bet, error)
}

// BetHandler serves bet-related HTTP endpoints.
type BetHandler struct {
	bets   BetService
	logger *slog.Logger
}

// NewBetHandler creates a BetHandler with the given service and logger.
func NewBetHandler(bets BetService, logger *slog.Logger) *BetHandler {
	return &BetHandler{
		bets:   bets,
		logger: logger,
	}
}

// placeBetResponse returns the created bet together with the repriced market
// so clients can update odds without a second round trip.
type placeBetResponse struct {
	Bet    domain.Bet    `json:"bet"`
	Market domain.Market `json:"market"`
}

// Place records a bet on one side of an active market.
// POST /api/bets
func (h *BetHandler) Place(w http.ResponseWriter, r *http.Request) {
	var in service.PlaceBetInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	bet, market, err := h.bets.PlaceBet(r.Context(), in)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: place bet failed",
			slog.String("market_id", in.MarketID),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, "failed to place bet")
		return
	}

	writeJSON(w, http.StatusCreated, placeBetResponse{
		Bet:    bet,
		Market: market,
	})
}

// Get returns a single bet by its ID.
// GET /api/bets/id/{id}
func (h *BetHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing bet id")
		return
	}

	bet, err := h.bets.GetBet(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "failed to get bet")
		return
	}

	writeJSON(w, http.StatusOK, bet)
}

// listBetsResponse wraps bet list output with pagination metadata.
type listBetsResponse struct {
	Bets   []domain.Bet `json:"bets"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

// ListForUser returns a user's bets, most recent first.
// GET /api/bets/{userId}
func (h *BetHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	userID := pathParam(r, "userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing user id")
		return
	}
	opts := parseListOpts(r)

	bets, err := h.bets.ListBetsForUser(r.Context(), userID, opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list user bets failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list bets")
		return
	}

	writeJSON(w, http.StatusOK, listBetsResponse{
		Bets:   bets,
		Limit:  opts.Limit,
		Offset: opts.Offset,
	})
}

// ListForMarket returns all bets on one market, most recent first.
// GET /api/predictions/{id}/bets
func (h *BetHandler) ListForMarket(w http.ResponseWriter, r *http.Request) {
	marketID := pathParam(r, "id")
	if marketID == "" {
		writeError(w, http.StatusBadRequest, "missing prediction id")
		return
	}
	opts := parseListOpts(r)

	bets, err := h.bets.ListBetsForMarket(r.Context(), marketID, opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list market bets failed",
			slog.String("market_id", marketID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list bets")
		return
	}

	writeJSON(w, http.StatusOK, listBetsResponse{
		Bets:   bets,
		Limit:  opts.Limit,
		Offset: opts.Offset,
	})
}
