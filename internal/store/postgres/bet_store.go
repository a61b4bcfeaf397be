package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/digital-prophets/prophetd/internal/domain"
	"github.com/digital-prophets/prophetd/internal/pricing"
)

const betCols = `id, user_id, market_id, amount, side, status, payout, placed_at, settled_at`

// BetStore implements domain.BetStore using PostgreSQL.
type BetStore struct {
	pool    *pgxpool.Pool
	pricing pricing.Params
}

// NewBetStore creates a BetStore backed by the given connection pool.
func NewBetStore(pool *pgxpool.Pool, params pricing.Params) *BetStore {
	return &BetStore{pool: pool, pricing: params}
}

// Place inserts the bet and records its stake on the market in one
// transaction. The market row lock taken by the stake update also orders
// this placement against any concurrent settlement.
func (s *BetStore) Place(ctx context.Context, bet domain.Bet) (domain.Market, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.Market{}, fmt.Errorf("postgres: begin place bet: %w", err)
	}
	defer tx.Rollback(ctx)

	m, err := addStakeTx(ctx, tx, s.pricing, bet.MarketID, bet.Side, bet.Amount)
	if err != nil {
		return domain.Market{}, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO bets (id, user_id, market_id, amount, side, status, payout, placed_at, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		bet.ID, bet.UserID, bet.MarketID, bet.Amount, bet.Side,
		string(bet.Status), bet.Payout, bet.PlacedAt, bet.SettledAt,
	)
	if err != nil {
		return domain.Market{}, fmt.Errorf("postgres: insert bet %s: %w", bet.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Market{}, fmt.Errorf("postgres: commit place bet: %w", err)
	}
	return m, nil
}

// scanBet scans a single bet row into a domain.Bet.
func scanBet(row pgx.Row) (domain.Bet, error) {
	var b domain.Bet
	var status string
	err := row.Scan(
		&b.ID, &b.UserID, &b.MarketID, &b.Amount, &b.Side,
		&status, &b.Payout, &b.PlacedAt, &b.SettledAt,
	)
	if err != nil {
		return domain.Bet{}, err
	}
	b.Status = domain.BetStatus(status)
	return b, nil
}

// GetByID retrieves a bet by its primary key.
func (s *BetStore) GetByID(ctx context.Context, id string) (domain.Bet, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+betCols+` FROM bets WHERE id = $1`, id)
	b, err := scanBet(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Bet{}, domain.ErrNotFound
		}
		return domain.Bet{}, fmt.Errorf("postgres: get bet %s: %w", id, err)
	}
	return b, nil
}

// ListByUser returns a user's bets, most recent first.
func (s *BetStore) ListByUser(ctx context.Context, userID string, opts domain.ListOpts) ([]domain.Bet, error) {
	return s.listBets(ctx, "user_id", userID, opts)
}

// ListByMarket returns a market's bets, most recent first.
func (s *BetStore) ListByMarket(ctx context.Context, marketID string, opts domain.ListOpts) ([]domain.Bet, error) {
	return s.listBets(ctx, "market_id", marketID, opts)
}

func (s *BetStore) listBets(ctx context.Context, column, value string, opts domain.ListOpts) ([]domain.Bet, error) {
	query := `SELECT ` + betCols + ` FROM bets WHERE ` + column + ` = $1 ORDER BY placed_at DESC`
	args := []any{value}
	argIdx := 2

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list bets by %s: %w", column, err)
	}
	defer rows.Close()

	var bets []domain.Bet
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan bet: %w", err)
		}
		bets = append(bets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list bets rows: %w", err)
	}
	return bets, nil
}

// Leaderboard aggregates settled bets per user, best net result first.
func (s *BetStore) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT
			user_id,
			COUNT(*) FILTER (WHERE status = 'won')  AS bets_won,
			COUNT(*) FILTER (WHERE status = 'lost') AS bets_lost,
			COALESCE(SUM(amount), 0)                AS total_staked,
			COALESCE(SUM(payout), 0)                AS total_paid_out,
			COALESCE(SUM(payout), 0) - COALESCE(SUM(amount), 0) AS net
		FROM bets
		WHERE status <> 'pending'
		GROUP BY user_id
		ORDER BY net DESC, user_id
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(
			&e.UserID, &e.BetsWon, &e.BetsLost,
			&e.TotalStaked, &e.TotalPaidOut, &e.Net,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: leaderboard rows: %w", err)
	}
	return entries, nil
}

var _ domain.BetStore = (*BetStore)(nil)
