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

const marketCols = `id, title, description, category, created_by, status,
	supporting_stake, opposing_stake, probability, odds, result,
	created_at, target_date, resolved_at, updated_at`

// MarketStore implements domain.MarketStore using PostgreSQL.
type MarketStore struct {
	pool    *pgxpool.Pool
	pricing pricing.Params
}

// NewMarketStore creates a MarketStore backed by the given connection pool.
func NewMarketStore(pool *pgxpool.Pool, params pricing.Params) *MarketStore {
	return &MarketStore{pool: pool, pricing: params}
}

// Create inserts a new market row.
func (s *MarketStore) Create(ctx context.Context, m domain.Market) error {
	const query = `
		INSERT INTO markets (
			id, title, description, category, created_by, status,
			supporting_stake, opposing_stake, probability, odds, result,
			created_at, target_date, resolved_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13, $14, $15
		)`

	_, err := s.pool.Exec(ctx, query,
		m.ID, m.Title, m.Description, m.Category, m.CreatedBy, string(m.Status),
		m.SupportingStake, m.OpposingStake, m.Probability, m.Odds, m.Result,
		m.CreatedAt, m.TargetDate, m.ResolvedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create market %s: %w", m.ID, err)
	}
	return nil
}

// scanMarket scans a single market row into a domain.Market.
func scanMarket(row pgx.Row) (domain.Market, error) {
	var m domain.Market
	var status string
	err := row.Scan(
		&m.ID, &m.Title, &m.Description, &m.Category, &m.CreatedBy, &status,
		&m.SupportingStake, &m.OpposingStake, &m.Probability, &m.Odds, &m.Result,
		&m.CreatedAt, &m.TargetDate, &m.ResolvedAt, &m.UpdatedAt,
	)
	if err != nil {
		return domain.Market{}, err
	}
	m.Status = domain.MarketStatus(status)
	return m, nil
}

// GetByID retrieves a market by its primary key.
func (s *MarketStore) GetByID(ctx context.Context, id string) (domain.Market, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+marketCols+` FROM markets WHERE id = $1`, id)
	m, err := scanMarket(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Market{}, domain.ErrNotFound
		}
		return domain.Market{}, fmt.Errorf("postgres: get market %s: %w", id, err)
	}
	return m, nil
}

// List returns markets most-recent-first, optionally filtered by status.
func (s *MarketStore) List(ctx context.Context, status *domain.MarketStatus, opts domain.ListOpts) ([]domain.Market, error) {
	query := `SELECT ` + marketCols + ` FROM markets`
	args := []any{}
	argIdx := 1

	if status != nil {
		query += fmt.Sprintf(" WHERE status = $%d", argIdx)
		args = append(args, string(*status))
		argIdx++
	}

	query += " ORDER BY created_at DESC"

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
		return nil, fmt.Errorf("postgres: list markets: %w", err)
	}
	defer rows.Close()

	var markets []domain.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan market: %w", err)
		}
		markets = append(markets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list markets rows: %w", err)
	}
	return markets, nil
}

// AddStake locks the market row, verifies it is active, adds amount to one
// side, reprices, and returns the updated market. The row lock serializes
// concurrent stakes and settlement on the same market.
func (s *MarketStore) AddStake(ctx context.Context, id string, side bool, amount float64) (domain.Market, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.Market{}, fmt.Errorf("postgres: begin add stake: %w", err)
	}
	defer tx.Rollback(ctx)

	m, err := addStakeTx(ctx, tx, s.pricing, id, side, amount)
	if err != nil {
		return domain.Market{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Market{}, fmt.Errorf("postgres: commit add stake: %w", err)
	}
	return m, nil
}

// addStakeTx performs the stake inside an open transaction so BetStore.Place
// can reuse it with the bet insert in the same unit.
func addStakeTx(ctx context.Context, tx pgx.Tx, params pricing.Params, id string, side bool, amount float64) (domain.Market, error) {
	if amount <= 0 {
		return domain.Market{}, fmt.Errorf("postgres: add stake: %w", domain.ErrInvalidInput)
	}

	row := tx.QueryRow(ctx,
		`SELECT `+marketCols+` FROM markets WHERE id = $1 FOR UPDATE`, id)
	m, err := scanMarket(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Market{}, domain.ErrNotFound
		}
		return domain.Market{}, fmt.Errorf("postgres: lock market %s: %w", id, err)
	}

	if m.Status != domain.MarketStatusActive {
		return domain.Market{}, domain.ErrMarketClosed
	}

	if side {
		m.SupportingStake += amount
	} else {
		m.OpposingStake += amount
	}
	m.Probability = params.Probability(m.SupportingStake, m.OpposingStake, m.Probability)
	m.Odds = params.SideOdds(m.Probability, true)
	m.UpdatedAt = time.Now().UTC()

	_, err = tx.Exec(ctx, `
		UPDATE markets SET
			supporting_stake = $2,
			opposing_stake   = $3,
			probability      = $4,
			odds             = $5,
			updated_at       = $6
		WHERE id = $1`,
		m.ID, m.SupportingStake, m.OpposingStake, m.Probability, m.Odds, m.UpdatedAt,
	)
	if err != nil {
		return domain.Market{}, fmt.Errorf("postgres: update market %s: %w", id, err)
	}

	return m, nil
}

// ListResolvedBetween returns markets whose terminal transition happened in
// [from, to).
func (s *MarketStore) ListResolvedBetween(ctx context.Context, from, to time.Time) ([]domain.Market, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+marketCols+` FROM markets
		WHERE resolved_at IS NOT NULL AND resolved_at >= $1 AND resolved_at < $2
		ORDER BY resolved_at`, from, to)
	if err != nil {
		return nil, fmt.Errorf("postgres: list resolved markets: %w", err)
	}
	defer rows.Close()

	var markets []domain.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan resolved market: %w", err)
		}
		markets = append(markets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list resolved markets rows: %w", err)
	}
	return markets, nil
}

// Count returns the total number of markets in the database.
func (s *MarketStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM markets").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("postgres: count markets: %w", err)
	}
	return count, nil
}

var _ domain.MarketStore = (*MarketStore)(nil)
