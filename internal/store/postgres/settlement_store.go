package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/digital-prophets/prophetd/internal/domain"
	"github.com/digital-prophets/prophetd/internal/pricing"
)

// SettlementStore implements domain.SettlementStore using PostgreSQL. Both
// transitions run in a single transaction holding the market row lock, so a
// failure rolls everything back with the market still active.
type SettlementStore struct {
	pool    *pgxpool.Pool
	pricing pricing.Params
}

// NewSettlementStore creates a SettlementStore backed by the given pool.
func NewSettlementStore(pool *pgxpool.Pool, params pricing.Params) *SettlementStore {
	return &SettlementStore{pool: pool, pricing: params}
}

// lockActiveMarket locks the market row and verifies it is still active.
func lockActiveMarket(ctx context.Context, tx pgx.Tx, marketID string) (domain.Market, error) {
	row := tx.QueryRow(ctx,
		`SELECT `+marketCols+` FROM markets WHERE id = $1 FOR UPDATE`, marketID)
	m, err := scanMarket(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Market{}, domain.ErrNotFound
		}
		return domain.Market{}, fmt.Errorf("postgres: lock market %s: %w", marketID, err)
	}
	if m.Status != domain.MarketStatusActive {
		return domain.Market{}, domain.ErrAlreadyResolved
	}
	return m, nil
}

// Settle resolves the market to outcome and settles every pending bet at the
// winning side's final odds.
func (s *SettlementStore) Settle(ctx context.Context, marketID string, outcome bool) (domain.ResolutionReport, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.ResolutionReport{}, fmt.Errorf("postgres: begin settle: %w", err)
	}
	defer tx.Rollback(ctx)

	m, err := lockActiveMarket(ctx, tx, marketID)
	if err != nil {
		return domain.ResolutionReport{}, err
	}

	now := time.Now().UTC()

	// Final odds of the winning side at the frozen pre-resolution price.
	winOdds := s.pricing.SideOdds(m.Probability, outcome)

	report := domain.ResolutionReport{
		MarketID:   marketID,
		Outcome:    outcome,
		ResolvedAt: now,
	}

	// Winners: payout = amount * final winning-side odds.
	err = tx.QueryRow(ctx, `
		WITH won AS (
			UPDATE bets
			SET status = 'won', payout = amount * $3, settled_at = $4
			WHERE market_id = $1 AND status = 'pending' AND side = $2
			RETURNING amount, payout
		)
		SELECT COUNT(*), COALESCE(SUM(amount), 0), COALESCE(SUM(payout), 0) FROM won`,
		marketID, outcome, winOdds, now,
	).Scan(&report.BetsProcessed, &report.WinningStake, &report.TotalPaidOut)
	if err != nil {
		return domain.ResolutionReport{}, fmt.Errorf("postgres: settle winners on %s: %w", marketID, err)
	}

	// Losers: payout is zero.
	var lostCount int
	err = tx.QueryRow(ctx, `
		WITH lost AS (
			UPDATE bets
			SET status = 'lost', payout = 0, settled_at = $3
			WHERE market_id = $1 AND status = 'pending' AND side = $2
			RETURNING amount
		)
		SELECT COUNT(*), COALESCE(SUM(amount), 0) FROM lost`,
		marketID, !outcome, now,
	).Scan(&lostCount, &report.LosingStake)
	if err != nil {
		return domain.ResolutionReport{}, fmt.Errorf("postgres: settle losers on %s: %w", marketID, err)
	}
	report.BetsProcessed += lostCount

	_, err = tx.Exec(ctx, `
		UPDATE markets
		SET status = 'resolved', result = $2, resolved_at = $3, updated_at = $3
		WHERE id = $1`,
		marketID, outcome, now,
	)
	if err != nil {
		return domain.ResolutionReport{}, fmt.Errorf("postgres: mark market %s resolved: %w", marketID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.ResolutionReport{}, fmt.Errorf("postgres: commit settle: %w", err)
	}
	return report, nil
}

// Cancel voids the market and refunds every pending bet its principal.
func (s *SettlementStore) Cancel(ctx context.Context, marketID string) (domain.ResolutionReport, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.ResolutionReport{}, fmt.Errorf("postgres: begin cancel: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := lockActiveMarket(ctx, tx, marketID); err != nil {
		return domain.ResolutionReport{}, err
	}

	now := time.Now().UTC()
	report := domain.ResolutionReport{
		MarketID:   marketID,
		Cancelled:  true,
		ResolvedAt: now,
	}

	// Refund principal: each pending bet ends lost with payout = amount.
	err = tx.QueryRow(ctx, `
		WITH refunded AS (
			UPDATE bets
			SET status = 'lost', payout = amount, settled_at = $2
			WHERE market_id = $1 AND status = 'pending'
			RETURNING amount
		)
		SELECT COUNT(*), COALESCE(SUM(amount), 0) FROM refunded`,
		marketID, now,
	).Scan(&report.BetsProcessed, &report.TotalPaidOut)
	if err != nil {
		return domain.ResolutionReport{}, fmt.Errorf("postgres: refund bets on %s: %w", marketID, err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE markets
		SET status = 'cancelled', resolved_at = $2, updated_at = $2
		WHERE id = $1`,
		marketID, now,
	)
	if err != nil {
		return domain.ResolutionReport{}, fmt.Errorf("postgres: mark market %s cancelled: %w", marketID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.ResolutionReport{}, fmt.Errorf("postgres: commit cancel: %w", err)
	}
	return report, nil
}

var _ domain.SettlementStore = (*SettlementStore)(nil)
