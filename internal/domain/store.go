package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination for list queries.
type ListOpts struct {
	Limit  int
	Offset int
}

// MarketStore persists markets. Implementations must serialize AddStake
// against Settle/Cancel for the same market: no stake may land after
// resolution has begun.
type MarketStore interface {
	Create(ctx context.Context, market Market) error
	GetByID(ctx context.Context, id string) (Market, error)

	// List returns markets most-recent-first, optionally filtered by status.
	List(ctx context.Context, status *MarketStatus, opts ListOpts) ([]Market, error)

	// AddStake atomically verifies the market is active, increments one side
	// total by amount, reprices the market, and returns the updated row.
	// Fails with ErrNotFound, ErrMarketClosed, or ErrInvalidInput.
	AddStake(ctx context.Context, id string, side bool, amount float64) (Market, error)

	// ListResolvedBetween returns markets whose terminal transition happened
	// in [from, to), used by the cold-storage archiver.
	ListResolvedBetween(ctx context.Context, from, to time.Time) ([]Market, error)

	Count(ctx context.Context) (int64, error)
}

// BetStore persists bets.
type BetStore interface {
	// Place inserts the bet and records its stake on the market as a single
	// atomic unit, returning the repriced market. Fails with ErrNotFound,
	// ErrMarketClosed, or ErrInvalidInput; on failure no bet exists and no
	// stake has moved.
	Place(ctx context.Context, bet Bet) (Market, error)

	GetByID(ctx context.Context, id string) (Bet, error)
	ListByUser(ctx context.Context, userID string, opts ListOpts) ([]Bet, error)
	ListByMarket(ctx context.Context, marketID string, opts ListOpts) ([]Bet, error)

	// Leaderboard aggregates settled bets per user, best net result first.
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}

// SettlementStore performs the terminal market transitions. Both operations
// are all-or-nothing over the market and every bet referencing it; a failure
// leaves the market active and all bets pending.
type SettlementStore interface {
	// Settle resolves the market to outcome and settles all pending bets:
	// winners receive amount times the winning side's final odds, losers
	// receive zero. Fails with ErrNotFound or ErrAlreadyResolved.
	Settle(ctx context.Context, marketID string, outcome bool) (ResolutionReport, error)

	// Cancel voids the market and refunds every pending bet its principal.
	// Fails with ErrNotFound or ErrAlreadyResolved.
	Cancel(ctx context.Context, marketID string) (ResolutionReport, error)
}
