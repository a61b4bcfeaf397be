package domain

import "time"

// BetStatus is the settlement state of a bet. A bet starts pending and is
// moved exactly once to won or lost by the settlement engine.
type BetStatus string

const (
	BetStatusPending BetStatus = "pending"
	BetStatusWon     BetStatus = "won"
	BetStatusLost    BetStatus = "lost"
)

// Bet is one user's stake on one side of one market. Amount, Side and
// PlacedAt are fixed at creation; only Status and Payout change, together,
// at settlement.
type Bet struct {
	ID       string  `json:"id"`
	UserID   string  `json:"userId"`
	MarketID string  `json:"marketId"`
	Amount   float64 `json:"amount"`

	// Side is true for YES, false for NO.
	Side bool `json:"side"`

	Status    BetStatus  `json:"status"`
	Payout    *float64   `json:"payout,omitempty"`
	PlacedAt  time.Time  `json:"placedAt"`
	SettledAt *time.Time `json:"settledAt,omitempty"`
}

// ResolutionReport summarises one settlement run over a market.
type ResolutionReport struct {
	MarketID      string    `json:"marketId"`
	Outcome       bool      `json:"outcome"`
	Cancelled     bool      `json:"cancelled,omitempty"`
	WinningStake  float64   `json:"winningStake"`
	LosingStake   float64   `json:"losingStake"`
	TotalPaidOut  float64   `json:"totalPaidOut"`
	BetsProcessed int       `json:"betsProcessed"`
	ResolvedAt    time.Time `json:"resolvedAt"`
}

// LeaderboardEntry aggregates a user's settled betting record.
type LeaderboardEntry struct {
	UserID       string  `json:"userId"`
	BetsWon      int     `json:"betsWon"`
	BetsLost     int     `json:"betsLost"`
	TotalStaked  float64 `json:"totalStaked"`
	TotalPaidOut float64 `json:"totalPaidOut"`
	Net          float64 `json:"net"`
}
