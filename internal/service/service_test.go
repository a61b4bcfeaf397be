package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digital-prophets/prophetd/internal/domain"
	"github.com/digital-prophets/prophetd/internal/pricing"
	"github.com/digital-prophets/prophetd/internal/store/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	store      *memory.Store
	registry   *Registry
	ledger     *Ledger
	settlement *Settlement
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New(pricing.Defaults())
	logger := testLogger()
	return &fixture{
		store:      store,
		registry:   NewRegistry(store, nil, pricing.Defaults(), 1.0, logger),
		ledger:     NewLedger(store.Bets(), nil, 1.0, logger),
		settlement: NewSettlement(store, nil, nil, logger),
	}
}

func (f *fixture) createMarket(t *testing.T, initialStake float64) domain.Market {
	t.Helper()
	m, err := f.registry.CreateMarket(context.Background(), CreateMarketInput{
		Title:        "T1 wins Worlds",
		Description:  "Resolves YES if T1 lifts the trophy",
		Category:     "lol",
		CreatedBy:    "alice",
		InitialStake: initialStake,
		TargetDate:   time.Now().Add(30 * 24 * time.Hour),
	})
	require.NoError(t, err)
	return m
}

func TestCreateMarketSeedsBothSides(t *testing.T) {
	f := newFixture(t)
	m := f.createMarket(t, 100)

	assert.Equal(t, domain.MarketStatusActive, m.Status)
	assert.Equal(t, 60.0, m.SupportingStake)
	assert.Equal(t, 40.0, m.OpposingStake)
	assert.Equal(t, 100.0, m.TotalStaked())
	assert.Equal(t, 50, m.Probability)
	assert.Equal(t, 1.5, m.Odds)
	assert.Nil(t, m.Result)
	assert.NotEmpty(t, m.ID)
}

func TestCreateMarketOddSeedConservesStake(t *testing.T) {
	f := newFixture(t)
	m := f.createMarket(t, 101)

	// Floor split: the YES side takes the floor, NO takes the remainder.
	assert.Equal(t, 60.0, m.SupportingStake)
	assert.Equal(t, 41.0, m.OpposingStake)
	assert.Equal(t, 101.0, m.TotalStaked())
}

func TestCreateMarketValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.registry.CreateMarket(ctx, CreateMarketInput{
		Title: "", CreatedBy: "alice", InitialStake: 100,
		TargetDate: time.Now().Add(time.Hour),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.registry.CreateMarket(ctx, CreateMarketInput{
		Title: "x", CreatedBy: "alice", InitialStake: 0.5,
		TargetDate: time.Now().Add(time.Hour),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.registry.CreateMarket(ctx, CreateMarketInput{
		Title: "x", CreatedBy: "", InitialStake: 100,
		TargetDate: time.Now().Add(time.Hour),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPlaceBetRepricesMarket(t *testing.T) {
	f := newFixture(t)
	m := f.createMarket(t, 100)
	ctx := context.Background()

	bet, updated, err := f.ledger.PlaceBet(ctx, PlaceBetInput{
		UserID: "bob", MarketID: m.ID, Amount: 50, Side: true,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.BetStatusPending, bet.Status)
	assert.Equal(t, 110.0, updated.SupportingStake)
	assert.Equal(t, 40.0, updated.OpposingStake)
	// round(100 * 110/150) = 73
	assert.Equal(t, 73, updated.Probability)
	assert.InDelta(t, 100.0/73.0, updated.Odds, 1e-9)
}

func TestPlaceBetConservesTotalStake(t *testing.T) {
	f := newFixture(t)
	m := f.createMarket(t, 100)
	ctx := context.Background()

	stakes := []struct {
		amount float64
		side   bool
	}{{25, true}, {10, false}, {40, true}, {5, false}}

	total := m.TotalStaked()
	for _, s := range stakes {
		_, updated, err := f.ledger.PlaceBet(ctx, PlaceBetInput{
			UserID: "bob", MarketID: m.ID, Amount: s.amount, Side: s.side,
		})
		require.NoError(t, err)
		total += s.amount
		assert.Equal(t, total, updated.TotalStaked())
	}
}

func TestPlaceBetValidation(t *testing.T) {
	f := newFixture(t)
	m := f.createMarket(t, 100)
	ctx := context.Background()

	_, _, err := f.ledger.PlaceBet(ctx, PlaceBetInput{UserID: "", MarketID: m.ID, Amount: 10})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, _, err = f.ledger.PlaceBet(ctx, PlaceBetInput{UserID: "bob", MarketID: m.ID, Amount: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, _, err = f.ledger.PlaceBet(ctx, PlaceBetInput{UserID: "bob", MarketID: "missing", Amount: 10})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolveMarketPaysWinnersAtFinalOdds(t *testing.T) {
	f := newFixture(t)
	m := f.createMarket(t, 100)
	ctx := context.Background()

	winner, _, err := f.ledger.PlaceBet(ctx, PlaceBetInput{
		UserID: "bob", MarketID: m.ID, Amount: 50, Side: true,
	})
	require.NoError(t, err)

	loser, _, err := f.ledger.PlaceBet(ctx, PlaceBetInput{
		UserID: "carol", MarketID: m.ID, Amount: 30, Side: false,
	})
	require.NoError(t, err)

	// YES 110 vs NO 70 after both bets: probability round(100*110/180) = 61.
	report, err := f.settlement.ResolveMarket(ctx, m.ID, true)
	require.NoError(t, err)

	assert.True(t, report.Outcome)
	assert.Equal(t, 2, report.BetsProcessed)
	assert.Equal(t, 50.0, report.WinningStake)
	assert.Equal(t, 30.0, report.LosingStake)
	assert.InDelta(t, 50*(100.0/61.0), report.TotalPaidOut, 1e-9)

	won, err := f.ledger.GetBet(ctx, winner.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BetStatusWon, won.Status)
	require.NotNil(t, won.Payout)
	assert.InDelta(t, 50*(100.0/61.0), *won.Payout, 1e-9)

	lost, err := f.ledger.GetBet(ctx, loser.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BetStatusLost, lost.Status)
	require.NotNil(t, lost.Payout)
	assert.Equal(t, 0.0, *lost.Payout)
}

func TestResolveMarketPayoutAtSixtyPercent(t *testing.T) {
	f := newFixture(t)
	store := f.store
	ctx := context.Background()

	// Seed the market directly so probability lands exactly at 60.
	now := time.Now().UTC()
	require.NoError(t, store.Create(ctx, domain.Market{
		ID: "m1", Title: "fixed", CreatedBy: "alice",
		Status:          domain.MarketStatusActive,
		SupportingStake: 60, OpposingStake: 40,
		Probability: 60, Odds: 100.0 / 60.0,
		CreatedAt: now, TargetDate: now.Add(time.Hour), UpdatedAt: now,
	}))

	bet := domain.Bet{
		ID: "b1", UserID: "bob", MarketID: "m1", Amount: 100,
		Side: true, Status: domain.BetStatusPending, PlacedAt: now,
	}
	_, err := store.Bets().Place(ctx, bet)
	require.NoError(t, err)

	// Placing the bet repriced to round(100*160/200) = 80.
	report, err := f.settlement.ResolveMarket(ctx, "m1", true)
	require.NoError(t, err)
	assert.InDelta(t, 100*(100.0/80.0), report.TotalPaidOut, 1e-9)
}

func TestResolveMarketIsTerminal(t *testing.T) {
	f := newFixture(t)
	m := f.createMarket(t, 100)
	ctx := context.Background()

	_, err := f.settlement.ResolveMarket(ctx, m.ID, true)
	require.NoError(t, err)

	_, err = f.settlement.ResolveMarket(ctx, m.ID, false)
	assert.ErrorIs(t, err, domain.ErrAlreadyResolved)

	_, err = f.settlement.CancelMarket(ctx, m.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyResolved)

	// Resolved markets accept no further stakes.
	_, _, err = f.ledger.PlaceBet(ctx, PlaceBetInput{
		UserID: "bob", MarketID: m.ID, Amount: 10, Side: true,
	})
	assert.ErrorIs(t, err, domain.ErrMarketClosed)
}

func TestCancelMarketRefundsPrincipal(t *testing.T) {
	f := newFixture(t)
	m := f.createMarket(t, 100)
	ctx := context.Background()

	bet, _, err := f.ledger.PlaceBet(ctx, PlaceBetInput{
		UserID: "bob", MarketID: m.ID, Amount: 42, Side: false,
	})
	require.NoError(t, err)

	report, err := f.settlement.CancelMarket(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, report.Cancelled)
	assert.Equal(t, 1, report.BetsProcessed)
	assert.Equal(t, 42.0, report.TotalPaidOut)

	refunded, err := f.ledger.GetBet(ctx, bet.ID)
	require.NoError(t, err)
	require.NotNil(t, refunded.Payout)
	assert.Equal(t, 42.0, *refunded.Payout)

	got, err := f.registry.GetMarket(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MarketStatusCancelled, got.Status)
	assert.Nil(t, got.Result)
}

func TestListMarketsFiltersByStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	open := f.createMarket(t, 100)
	resolved := f.createMarket(t, 100)
	_, err := f.settlement.ResolveMarket(ctx, resolved.ID, true)
	require.NoError(t, err)

	active := domain.MarketStatusActive
	markets, err := f.registry.ListMarkets(ctx, &active, domain.ListOpts{})
	require.NoError(t, err)
	require.Len(t, markets, 1)
	assert.Equal(t, open.ID, markets[0].ID)

	all, err := f.registry.ListMarkets(ctx, nil, domain.ListOpts{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestLeaderboardRanksByNet(t *testing.T) {
	f := newFixture(t)
	m := f.createMarket(t, 100)
	ctx := context.Background()

	_, _, err := f.ledger.PlaceBet(ctx, PlaceBetInput{UserID: "bob", MarketID: m.ID, Amount: 50, Side: true})
	require.NoError(t, err)
	_, _, err = f.ledger.PlaceBet(ctx, PlaceBetInput{UserID: "carol", MarketID: m.ID, Amount: 50, Side: false})
	require.NoError(t, err)

	_, err = f.settlement.ResolveMarket(ctx, m.ID, true)
	require.NoError(t, err)

	entries, err := f.ledger.Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "bob", entries[0].UserID)
	assert.Equal(t, 1, entries[0].BetsWon)
	assert.Positive(t, entries[0].Net)
	assert.Equal(t, "carol", entries[1].UserID)
	assert.Equal(t, -50.0, entries[1].Net)
}

// fakeSource counts fetches and can be toggled to fail.
type fakeSource struct {
	bundle domain.FeedBundle
	fail   bool
	calls  int
}

func (s *fakeSource) Fetch(ctx context.Context) (domain.FeedBundle, error) {
	s.calls++
	if s.fail {
		return domain.FeedBundle{}, domain.ErrExternalService
	}
	return s.bundle, nil
}

// mapFeedCache is a trivial in-test FeedCache.
type mapFeedCache struct {
	bundle *domain.FeedBundle
}

func (c *mapFeedCache) Get(ctx context.Context) (domain.FeedBundle, error) {
	if c.bundle == nil {
		return domain.FeedBundle{}, domain.ErrNotFound
	}
	return *c.bundle, nil
}

func (c *mapFeedCache) Set(ctx context.Context, b domain.FeedBundle) error {
	c.bundle = &b
	return nil
}

func (c *mapFeedCache) Invalidate(ctx context.Context) error {
	c.bundle = nil
	return nil
}

func TestFeedServesFromCache(t *testing.T) {
	src := &fakeSource{bundle: domain.FeedBundle{
		News:      []domain.NewsItem{{ID: "n1", Title: "patch 14.9"}},
		FetchedAt: time.Now().UTC(),
	}}
	cache := &mapFeedCache{}
	feed := NewFeed(src, cache, testLogger())
	ctx := context.Background()

	first, err := feed.Get(ctx)
	require.NoError(t, err)
	require.Len(t, first.News, 1)
	assert.Equal(t, 1, src.calls)

	// Second read comes from cache, not upstream.
	_, err = feed.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)

	require.NoError(t, feed.Invalidate(ctx))
	_, err = feed.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestFeedDegradesToEmptyBundle(t *testing.T) {
	src := &fakeSource{fail: true}
	feed := NewFeed(src, nil, testLogger())

	bundle, err := feed.Get(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, bundle.News)
	assert.Empty(t, bundle.News)
	assert.NotNil(t, bundle.Matches.Upcoming)
	assert.NotNil(t, bundle.Matches.Live)
	assert.NotNil(t, bundle.Matches.Finished)
}
