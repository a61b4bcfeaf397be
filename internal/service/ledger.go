package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/digital-prophets/prophetd/internal/domain"
)

// Ledger records bets and answers bet queries. Placement is atomic with the
// stake landing on the market; the store guarantees that.
type Ledger struct {
	bets     domain.BetStore
	bus      domain.SignalBus
	minStake float64
	logger   *slog.Logger
}

// NewLedger creates a Ledger. bus may be nil.
func NewLedger(bets domain.BetStore, bus domain.SignalBus, minStake float64, logger *slog.Logger) *Ledger {
	return &Ledger{
		bets:     bets,
		bus:      bus,
		minStake: minStake,
		logger:   logger.With(slog.String("component", "ledger")),
	}
}

// PlaceBetInput carries the caller-supplied fields for a new bet.
type PlaceBetInput struct {
	UserID   string  `json:"userId"`
	MarketID string  `json:"predictionId"`
	Amount   float64 `json:"amount"`
	Side     bool    `json:"side"`
}

func (in PlaceBetInput) validate(minStake float64) error {
	if strings.TrimSpace(in.UserID) == "" {
		return fmt.Errorf("%w: userId must not be empty", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(in.MarketID) == "" {
		return fmt.Errorf("%w: predictionId must not be empty", domain.ErrInvalidInput)
	}
	if in.Amount < minStake {
		return fmt.Errorf("%w: amount must be at least %g", domain.ErrInvalidInput, minStake)
	}
	return nil
}

// PlaceBet validates the input and records the bet together with its stake.
// It returns the created bet and the repriced market.
func (l *Ledger) PlaceBet(ctx context.Context, in PlaceBetInput) (domain.Bet, domain.Market, error) {
	if err := in.validate(l.minStake); err != nil {
		return domain.Bet{}, domain.Market{}, err
	}

	bet := domain.Bet{
		ID:       uuid.NewString(),
		UserID:   in.UserID,
		MarketID: in.MarketID,
		Amount:   in.Amount,
		Side:     in.Side,
		Status:   domain.BetStatusPending,
		PlacedAt: time.Now().UTC(),
	}

	m, err := l.bets.Place(ctx, bet)
	if err != nil {
		return domain.Bet{}, domain.Market{}, fmt.Errorf("ledger: place bet on %q: %w", in.MarketID, err)
	}

	l.logger.InfoContext(ctx, "bet placed",
		slog.String("bet_id", bet.ID),
		slog.String("market_id", bet.MarketID),
		slog.String("user_id", bet.UserID),
		slog.Float64("amount", bet.Amount),
		slog.Bool("side", bet.Side),
		slog.Int("probability", m.Probability),
	)

	publishEvent(ctx, l.bus, l.logger, ChannelBets, "bet_placed", bet)
	publishEvent(ctx, l.bus, l.logger, ChannelMarkets, "market_repriced", m)

	return bet, m, nil
}

// GetBet retrieves a single bet by ID.
func (l *Ledger) GetBet(ctx context.Context, id string) (domain.Bet, error) {
	b, err := l.bets.GetByID(ctx, id)
	if err != nil {
		return domain.Bet{}, fmt.Errorf("ledger: get bet %q: %w", id, err)
	}
	return b, nil
}

// ListBetsForUser returns a user's bets, most recent first.
func (l *Ledger) ListBetsForUser(ctx context.Context, userID string, opts domain.ListOpts) ([]domain.Bet, error) {
	bets, err := l.bets.ListByUser(ctx, userID, opts)
	if err != nil {
		return nil, fmt.Errorf("ledger: list bets for user %q: %w", userID, err)
	}
	if bets == nil {
		bets = []domain.Bet{}
	}
	return bets, nil
}

// ListBetsForMarket returns a market's bets, most recent first.
func (l *Ledger) ListBetsForMarket(ctx context.Context, marketID string, opts domain.ListOpts) ([]domain.Bet, error) {
	bets, err := l.bets.ListByMarket(ctx, marketID, opts)
	if err != nil {
		return nil, fmt.Errorf("ledger: list bets for market %q: %w", marketID, err)
	}
	if bets == nil {
		bets = []domain.Bet{}
	}
	return bets, nil
}

// Leaderboard returns the best settled records, best net first.
func (l *Ledger) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	entries, err := l.bets.Leaderboard(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: leaderboard: %w", err)
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	return entries, nil
}
