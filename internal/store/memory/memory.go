// Package memory implements the domain store interfaces with in-process
// maps guarded by a single lock. It backs tests and the storeless dev mode;
// the postgres package is the production implementation.
package memory

import (
	"context"
	"sort"
	"time"

	"github.com/digital-prophets/prophetd/internal/domain"
	"github.com/digital-prophets/prophetd/internal/pricing"
)

// Store holds markets and bets in memory. One lock serializes every
// mutation, which also gives the per-market ordering guarantee between
// stake recording and settlement for free.
type Store struct {
	mu      chan struct{} // buffered-1 channel used as a mutex honouring ctx
	pricing pricing.Params
	markets map[string]domain.Market
	bets    map[string]domain.Bet
	order   []string // market IDs in insertion order
}

// New creates an empty Store priced with params.
func New(params pricing.Params) *Store {
	s := &Store{
		mu:      make(chan struct{}, 1),
		pricing: params,
		markets: make(map[string]domain.Market),
		bets:    make(map[string]domain.Bet),
	}
	s.mu <- struct{}{}
	return s
}

// Bets returns the bet-store view over the same underlying state.
func (s *Store) Bets() *BetStore {
	return &BetStore{s: s}
}

func (s *Store) lock(ctx context.Context) error {
	select {
	case <-s.mu:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) unlock() { s.mu <- struct{}{} }

// --- domain.MarketStore ---

func (s *Store) Create(ctx context.Context, market domain.Market) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.unlock()

	s.markets[market.ID] = market
	s.order = append(s.order, market.ID)
	return nil
}

func (s *Store) GetByID(ctx context.Context, id string) (domain.Market, error) {
	if err := s.lock(ctx); err != nil {
		return domain.Market{}, err
	}
	defer s.unlock()

	m, ok := s.markets[id]
	if !ok {
		return domain.Market{}, domain.ErrNotFound
	}
	return m, nil
}

func (s *Store) List(ctx context.Context, status *domain.MarketStatus, opts domain.ListOpts) ([]domain.Market, error) {
	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.unlock()

	var markets []domain.Market
	// Most recent first: walk insertion order backwards.
	for i := len(s.order) - 1; i >= 0; i-- {
		m := s.markets[s.order[i]]
		if status != nil && m.Status != *status {
			continue
		}
		markets = append(markets, m)
	}

	return paginate(markets, opts), nil
}

func (s *Store) AddStake(ctx context.Context, id string, side bool, amount float64) (domain.Market, error) {
	if err := s.lock(ctx); err != nil {
		return domain.Market{}, err
	}
	defer s.unlock()

	return s.addStakeLocked(id, side, amount)
}

func (s *Store) addStakeLocked(id string, side bool, amount float64) (domain.Market, error) {
	m, ok := s.markets[id]
	if !ok {
		return domain.Market{}, domain.ErrNotFound
	}
	if m.Status != domain.MarketStatusActive {
		return domain.Market{}, domain.ErrMarketClosed
	}
	if amount <= 0 {
		return domain.Market{}, domain.ErrInvalidInput
	}

	if side {
		m.SupportingStake += amount
	} else {
		m.OpposingStake += amount
	}
	m.Probability = s.pricing.Probability(m.SupportingStake, m.OpposingStake, m.Probability)
	m.Odds = s.pricing.SideOdds(m.Probability, true)
	m.UpdatedAt = time.Now().UTC()

	s.markets[id] = m
	return m, nil
}

func (s *Store) ListResolvedBetween(ctx context.Context, from, to time.Time) ([]domain.Market, error) {
	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.unlock()

	var markets []domain.Market
	for _, id := range s.order {
		m := s.markets[id]
		if m.Status == domain.MarketStatusActive || m.ResolvedAt == nil {
			continue
		}
		if m.ResolvedAt.Before(from) || !m.ResolvedAt.Before(to) {
			continue
		}
		markets = append(markets, m)
	}
	return markets, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	if err := s.lock(ctx); err != nil {
		return 0, err
	}
	defer s.unlock()
	return int64(len(s.markets)), nil
}

// --- domain.SettlementStore ---

func (s *Store) Settle(ctx context.Context, marketID string, outcome bool) (domain.ResolutionReport, error) {
	if err := s.lock(ctx); err != nil {
		return domain.ResolutionReport{}, err
	}
	defer s.unlock()

	m, ok := s.markets[marketID]
	if !ok {
		return domain.ResolutionReport{}, domain.ErrNotFound
	}
	if m.Status != domain.MarketStatusActive {
		return domain.ResolutionReport{}, domain.ErrAlreadyResolved
	}

	now := time.Now().UTC()

	// Final priced odds of the winning side, fixed before the market flips.
	winOdds := s.pricing.SideOdds(m.Probability, outcome)

	report := domain.ResolutionReport{
		MarketID:   marketID,
		Outcome:    outcome,
		ResolvedAt: now,
	}

	for id, b := range s.bets {
		if b.MarketID != marketID || b.Status != domain.BetStatusPending {
			continue
		}
		settled := now
		b.SettledAt = &settled
		if b.Side == outcome {
			payout := b.Amount * winOdds
			b.Status = domain.BetStatusWon
			b.Payout = &payout
			report.WinningStake += b.Amount
			report.TotalPaidOut += payout
		} else {
			zero := 0.0
			b.Status = domain.BetStatusLost
			b.Payout = &zero
			report.LosingStake += b.Amount
		}
		report.BetsProcessed++
		s.bets[id] = b
	}

	result := outcome
	m.Status = domain.MarketStatusResolved
	m.Result = &result
	m.ResolvedAt = &now
	m.UpdatedAt = now
	s.markets[marketID] = m

	return report, nil
}

func (s *Store) Cancel(ctx context.Context, marketID string) (domain.ResolutionReport, error) {
	if err := s.lock(ctx); err != nil {
		return domain.ResolutionReport{}, err
	}
	defer s.unlock()

	m, ok := s.markets[marketID]
	if !ok {
		return domain.ResolutionReport{}, domain.ErrNotFound
	}
	if m.Status != domain.MarketStatusActive {
		return domain.ResolutionReport{}, domain.ErrAlreadyResolved
	}

	now := time.Now().UTC()
	report := domain.ResolutionReport{
		MarketID:   marketID,
		Cancelled:  true,
		ResolvedAt: now,
	}

	// Refund principal: bets end lost with payout equal to their stake,
	// so nobody wins or loses on a voided proposition.
	for id, b := range s.bets {
		if b.MarketID != marketID || b.Status != domain.BetStatusPending {
			continue
		}
		refund := b.Amount
		settled := now
		b.Status = domain.BetStatusLost
		b.Payout = &refund
		b.SettledAt = &settled
		report.TotalPaidOut += refund
		report.BetsProcessed++
		s.bets[id] = b
	}

	m.Status = domain.MarketStatusCancelled
	m.ResolvedAt = &now
	m.UpdatedAt = now
	s.markets[marketID] = m

	return report, nil
}

// BetStore is the bet-store view over a Store.
type BetStore struct {
	s *Store
}

// Place inserts the bet and records its stake in one critical section.
func (bs *BetStore) Place(ctx context.Context, bet domain.Bet) (domain.Market, error) {
	s := bs.s
	if err := s.lock(ctx); err != nil {
		return domain.Market{}, err
	}
	defer s.unlock()

	// Stake first: it carries the status and amount checks, and nothing has
	// been written yet if it refuses.
	m, err := s.addStakeLocked(bet.MarketID, bet.Side, bet.Amount)
	if err != nil {
		return domain.Market{}, err
	}

	s.bets[bet.ID] = bet
	return m, nil
}

func (bs *BetStore) GetByID(ctx context.Context, id string) (domain.Bet, error) {
	s := bs.s
	if err := s.lock(ctx); err != nil {
		return domain.Bet{}, err
	}
	defer s.unlock()

	b, ok := s.bets[id]
	if !ok {
		return domain.Bet{}, domain.ErrNotFound
	}
	return b, nil
}

func (bs *BetStore) ListByUser(ctx context.Context, userID string, opts domain.ListOpts) ([]domain.Bet, error) {
	return bs.listBets(ctx, func(b domain.Bet) bool { return b.UserID == userID }, opts)
}

func (bs *BetStore) ListByMarket(ctx context.Context, marketID string, opts domain.ListOpts) ([]domain.Bet, error) {
	return bs.listBets(ctx, func(b domain.Bet) bool { return b.MarketID == marketID }, opts)
}

func (bs *BetStore) listBets(ctx context.Context, keep func(domain.Bet) bool, opts domain.ListOpts) ([]domain.Bet, error) {
	s := bs.s
	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.unlock()

	var bets []domain.Bet
	for _, b := range s.bets {
		if keep(b) {
			bets = append(bets, b)
		}
	}
	sort.Slice(bets, func(i, j int) bool {
		return bets[i].PlacedAt.After(bets[j].PlacedAt)
	})

	return paginateBets(bets, opts), nil
}

func (bs *BetStore) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	s := bs.s
	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.unlock()

	byUser := make(map[string]*domain.LeaderboardEntry)
	for _, b := range s.bets {
		if b.Status == domain.BetStatusPending {
			continue
		}
		e, ok := byUser[b.UserID]
		if !ok {
			e = &domain.LeaderboardEntry{UserID: b.UserID}
			byUser[b.UserID] = e
		}
		e.TotalStaked += b.Amount
		if b.Payout != nil {
			e.TotalPaidOut += *b.Payout
		}
		if b.Status == domain.BetStatusWon {
			e.BetsWon++
		} else {
			e.BetsLost++
		}
	}

	entries := make([]domain.LeaderboardEntry, 0, len(byUser))
	for _, e := range byUser {
		e.Net = e.TotalPaidOut - e.TotalStaked
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Net != entries[j].Net {
			return entries[i].Net > entries[j].Net
		}
		return entries[i].UserID < entries[j].UserID
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func paginate(markets []domain.Market, opts domain.ListOpts) []domain.Market {
	if opts.Offset > 0 {
		if opts.Offset >= len(markets) {
			return nil
		}
		markets = markets[opts.Offset:]
	}
	if opts.Limit > 0 && len(markets) > opts.Limit {
		markets = markets[:opts.Limit]
	}
	return markets
}

func paginateBets(bets []domain.Bet, opts domain.ListOpts) []domain.Bet {
	if opts.Offset > 0 {
		if opts.Offset >= len(bets) {
			return nil
		}
		bets = bets[opts.Offset:]
	}
	if opts.Limit > 0 && len(bets) > opts.Limit {
		bets = bets[:opts.Limit]
	}
	return bets
}

// Compile-time interface checks.
var (
	_ domain.MarketStore     = (*Store)(nil)
	_ domain.BetStore        = (*BetStore)(nil)
	_ domain.SettlementStore = (*Store)(nil)
)
