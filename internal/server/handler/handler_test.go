package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digital-prophets/prophetd/internal/domain"
	"github.com/digital-prophets/prophetd/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRegistry struct {
	markets map[string]domain.Market
	created []service.CreateMarketInput
}

func (f *fakeRegistry) CreateMarket(ctx context.Context, in service.CreateMarketInput) (domain.Market, error) {
	if in.Title == "" {
		return domain.Market{}, fmt.Errorf("%w: title must not be empty", domain.ErrInvalidInput)
	}
	f.created = append(f.created, in)
	m := domain.Market{
		ID:          "m1",
		Title:       in.Title,
		Status:      domain.MarketStatusActive,
		Probability: 50,
		Odds:        1.5,
	}
	return m, nil
}

func (f *fakeRegistry) GetMarket(ctx context.Context, id string) (domain.Market, error) {
	m, ok := f.markets[id]
	if !ok {
		return domain.Market{}, fmt.Errorf("%w: market %s", domain.ErrNotFound, id)
	}
	return m, nil
}

func (f *fakeRegistry) ListMarkets(ctx context.Context, status *domain.MarketStatus, opts domain.ListOpts) ([]domain.Market, error) {
	out := make([]domain.Market, 0, len(f.markets))
	for _, m := range f.markets {
		if status != nil && m.Status != *status {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeRegistry) Count(ctx context.Context) (int64, error) {
	return int64(len(f.markets)), nil
}

type fakeSettlement struct {
	resolved  map[string]bool
	cancelled map[string]bool
}

func (f *fakeSettlement) ResolveMarket(ctx context.Context, marketID string, outcome bool) (domain.ResolutionReport, error) {
	if f.resolved[marketID] {
		return domain.ResolutionReport{}, fmt.Errorf("%w: market %s", domain.ErrAlreadyResolved, marketID)
	}
	if f.resolved == nil {
		f.resolved = map[string]bool{}
	}
	f.resolved[marketID] = true
	return domain.ResolutionReport{
		MarketID:      marketID,
		Outcome:       outcome,
		BetsProcessed: 2,
		ResolvedAt:    time.Now().UTC(),
	}, nil
}

func (f *fakeSettlement) CancelMarket(ctx context.Context, marketID string) (domain.ResolutionReport, error) {
	if f.cancelled == nil {
		f.cancelled = map[string]bool{}
	}
	f.cancelled[marketID] = true
	return domain.ResolutionReport{MarketID: marketID, Cancelled: true}, nil
}

func newPredictionMux(reg *fakeRegistry, settle *fakeSettlement) *http.ServeMux {
	h := NewPredictionHandler(reg, settle, testLogger())
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/predictions", h.Create)
	mux.HandleFunc("GET /api/predictions", h.List)
	mux.HandleFunc("GET /api/predictions/{id}", h.Get)
	mux.HandleFunc("POST /api/predictions/{id}/resolve", h.Resolve)
	mux.HandleFunc("POST /api/predictions/{id}/cancel", h.Cancel)
	return mux
}

func TestCreatePrediction(t *testing.T) {
	reg := &fakeRegistry{markets: map[string]domain.Market{}}
	mux := newPredictionMux(reg, &fakeSettlement{})

	body := `{"title":"Faker wins worlds","createdBy":"u1","initialStake":100,"targetDate":"2026-11-01T00:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/api/predictions", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var m domain.Market
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Equal(t, "m1", m.ID)
	assert.Equal(t, 50, m.Probability)

	require.Len(t, reg.created, 1)
	assert.Equal(t, 100.0, reg.created[0].InitialStake)
}

func TestCreatePredictionInvalidInput(t *testing.T) {
	mux := newPredictionMux(&fakeRegistry{}, &fakeSettlement{})

	req := httptest.NewRequest(http.MethodPost, "/api/predictions", bytes.NewBufferString(`{"createdBy":"u1"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPredictionNotFound(t *testing.T) {
	mux := newPredictionMux(&fakeRegistry{markets: map[string]domain.Market{}}, &fakeSettlement{})

	req := httptest.NewRequest(http.MethodGet, "/api/predictions/nope", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListPredictionsRejectsUnknownStatus(t *testing.T) {
	mux := newPredictionMux(&fakeRegistry{}, &fakeSettlement{})

	req := httptest.NewRequest(http.MethodGet, "/api/predictions?status=bogus", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListPredictionsFiltersByStatus(t *testing.T) {
	reg := &fakeRegistry{markets: map[string]domain.Market{
		"a": {ID: "a", Status: domain.MarketStatusActive},
		"b": {ID: "b", Status: domain.MarketStatusResolved},
	}}
	mux := newPredictionMux(reg, &fakeSettlement{})

	req := httptest.NewRequest(http.MethodGet, "/api/predictions?status=resolved", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp listPredictionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Predictions, 1)
	assert.Equal(t, "b", resp.Predictions[0].ID)
	assert.Equal(t, int64(2), resp.Total)
}

func TestResolvePrediction(t *testing.T) {
	settle := &fakeSettlement{}
	mux := newPredictionMux(&fakeRegistry{}, settle)

	req := httptest.NewRequest(http.MethodPost, "/api/predictions/m1/resolve", bytes.NewBufferString(`{"outcome":true}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var report domain.ResolutionReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "m1", report.MarketID)
	assert.True(t, report.Outcome)
	assert.True(t, settle.resolved["m1"])
}

func TestResolvePredictionTwiceConflicts(t *testing.T) {
	settle := &fakeSettlement{resolved: map[string]bool{"m1": true}}
	mux := newPredictionMux(&fakeRegistry{}, settle)

	req := httptest.NewRequest(http.MethodPost, "/api/predictions/m1/resolve", bytes.NewBufferString(`{"outcome":false}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCancelPrediction(t *testing.T) {
	settle := &fakeSettlement{}
	mux := newPredictionMux(&fakeRegistry{}, settle)

	req := httptest.NewRequest(http.MethodPost, "/api/predictions/m1/cancel", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, settle.cancelled["m1"])
}

type fakeLedger struct {
	bets     map[string][]domain.Bet // keyed by user
	entries  []domain.LeaderboardEntry
	placeErr error
}

func (f *fakeLedger) PlaceBet(ctx context.Context, in service.PlaceBetInput) (domain.Bet, domain.Market, error) {
	if f.placeErr != nil {
		return domain.Bet{}, domain.Market{}, f.placeErr
	}
	bet := domain.Bet{
		ID:       "b1",
		UserID:   in.UserID,
		MarketID: in.MarketID,
		Amount:   in.Amount,
		Side:     in.Side,
		Status:   domain.BetStatusPending,
	}
	market := domain.Market{ID: in.MarketID, Probability: 73, Odds: 100.0 / 73.0}
	return bet, market, nil
}

func (f *fakeLedger) GetBet(ctx context.Context, id string) (domain.Bet, error) {
	for _, bets := range f.bets {
		for _, b := range bets {
			if b.ID == id {
				return b, nil
			}
		}
	}
	return domain.Bet{}, fmt.Errorf("%w: bet %s", domain.ErrNotFound, id)
}

func (f *fakeLedger) ListBetsForUser(ctx context.Context, userID string, opts domain.ListOpts) ([]domain.Bet, error) {
	return f.bets[userID], nil
}

func (f *fakeLedger) ListBetsForMarket(ctx context.Context, marketID string, opts domain.ListOpts) ([]domain.Bet, error) {
	var out []domain.Bet
	for _, bets := range f.bets {
		for _, b := range bets {
			if b.MarketID == marketID {
				out = append(out, b)
			}
		}
	}
	return out, nil
}

func (f *fakeLedger) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	return f.entries, nil
}

func newBetMux(ledger *fakeLedger) *http.ServeMux {
	h := NewBetHandler(ledger, testLogger())
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/bets", h.Place)
	mux.HandleFunc("GET /api/bets/id/{id}", h.Get)
	mux.HandleFunc("GET /api/bets/{userId}", h.ListForUser)
	mux.HandleFunc("GET /api/predictions/{id}/bets", h.ListForMarket)
	return mux
}

func TestPlaceBetReturnsRepricedMarket(t *testing.T) {
	mux := newBetMux(&fakeLedger{})

	body := `{"userId":"u1","predictionId":"m1","amount":50,"side":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/bets", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp placeBetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "b1", resp.Bet.ID)
	assert.Equal(t, 73, resp.Market.Probability)
}

func TestPlaceBetOnClosedMarketConflicts(t *testing.T) {
	ledger := &fakeLedger{placeErr: fmt.Errorf("%w: market m1", domain.ErrMarketClosed)}
	mux := newBetMux(ledger)

	body := `{"userId":"u1","predictionId":"m1","amount":50,"side":false}`
	req := httptest.NewRequest(http.MethodPost, "/api/bets", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListBetsForUser(t *testing.T) {
	ledger := &fakeLedger{bets: map[string][]domain.Bet{
		"u1": {{ID: "b1", UserID: "u1", MarketID: "m1", Amount: 10}},
	}}
	mux := newBetMux(ledger)

	req := httptest.NewRequest(http.MethodGet, "/api/bets/u1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp listBetsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Bets, 1)
	assert.Equal(t, "b1", resp.Bets[0].ID)
}

func TestGetBetByID(t *testing.T) {
	ledger := &fakeLedger{bets: map[string][]domain.Bet{
		"u1": {{ID: "b1", UserID: "u1", MarketID: "m1", Amount: 10}},
	}}
	mux := newBetMux(ledger)

	req := httptest.NewRequest(http.MethodGet, "/api/bets/id/b1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var bet domain.Bet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bet))
	assert.Equal(t, "u1", bet.UserID)
}

func TestLeaderboard(t *testing.T) {
	ledger := &fakeLedger{entries: []domain.LeaderboardEntry{
		{UserID: "u1", Net: 120},
		{UserID: "u2", Net: -30},
	}}
	h := NewLeaderboardHandler(ledger, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/leaderboard?limit=10", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Leaderboard []domain.LeaderboardEntry `json:"leaderboard"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Leaderboard, 2)
	assert.Equal(t, "u1", resp.Leaderboard[0].UserID)
}

func TestLeaderboardRejectsBadLimit(t *testing.T) {
	h := NewLeaderboardHandler(&fakeLedger{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/leaderboard?limit=-1", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type fakeWallet struct {
	public    map[string]domain.AccountSnapshot
	testnet   map[string]domain.AccountSnapshot
	connected *domain.AccountSnapshot
	fallbacks []bool
}

func (f *fakeWallet) Lookup(ctx context.Context, address string, testnetFallback bool) (domain.AccountSnapshot, error) {
	f.fallbacks = append(f.fallbacks, testnetFallback)
	if snap, ok := f.public[address]; ok {
		return snap, nil
	}
	if testnetFallback {
		if snap, ok := f.testnet[address]; ok {
			return snap, nil
		}
	}
	return domain.AccountSnapshot{}, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, address)
}

func (f *fakeWallet) Connect(ctx context.Context, address string) (domain.AccountSnapshot, error) {
	snap, err := f.Lookup(ctx, address, true)
	if err != nil {
		return domain.AccountSnapshot{}, err
	}
	f.connected = &snap
	return snap, nil
}

func (f *fakeWallet) Refresh(ctx context.Context) (domain.AccountSnapshot, error) {
	if f.connected == nil {
		return domain.AccountSnapshot{}, fmt.Errorf("%w: no account connected", domain.ErrNotFound)
	}
	return *f.connected, nil
}

func (f *fakeWallet) Snapshot() (domain.AccountSnapshot, bool) {
	if f.connected == nil {
		return domain.AccountSnapshot{}, false
	}
	return *f.connected, true
}

func (f *fakeWallet) Disconnect() {
	f.connected = nil
}

func TestWalletBalance(t *testing.T) {
	wallet := &fakeWallet{public: map[string]domain.AccountSnapshot{
		"GABC": {Address: "GABC", Network: "public", Balance: 150, LastRefreshed: time.Now().UTC()},
	}}
	h := NewWalletHandler(wallet, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/wallet/balance", bytes.NewBufferString(`{"publicKey":"GABC"}`))
	rec := httptest.NewRecorder()
	h.Balance(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp balanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 150.0, resp.Balance)
	assert.Equal(t, "GABC", resp.PublicKey)
	assert.Equal(t, "public", resp.Network)
	assert.NotEmpty(t, resp.Timestamp)
	assert.Equal(t, []bool{false}, wallet.fallbacks)
}

func TestWalletBalanceTestnetFlagKeepsPublicFirst(t *testing.T) {
	// A mainnet-funded account must resolve on public even when the caller
	// sets the testnet flag; the flag only widens the search.
	wallet := &fakeWallet{public: map[string]domain.AccountSnapshot{
		"GABC": {Address: "GABC", Network: "public", Balance: 250},
	}}
	h := NewWalletHandler(wallet, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/wallet/balance", bytes.NewBufferString(`{"publicKey":"GABC","isTestnet":true}`))
	rec := httptest.NewRecorder()
	h.Balance(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp balanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 250.0, resp.Balance)
	assert.Equal(t, "public", resp.Network)
	assert.Equal(t, []bool{true}, wallet.fallbacks)
}

func TestWalletBalanceTestnetFallback(t *testing.T) {
	wallet := &fakeWallet{testnet: map[string]domain.AccountSnapshot{
		"GDEF": {Address: "GDEF", Network: "testnet", Balance: 42},
	}}
	h := NewWalletHandler(wallet, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/wallet/balance", bytes.NewBufferString(`{"publicKey":"GDEF","isTestnet":true}`))
	rec := httptest.NewRecorder()
	h.Balance(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp balanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 42.0, resp.Balance)
	assert.Equal(t, "testnet", resp.Network)
}

func TestWalletBalanceUnknownAccountStillCarriesBalance(t *testing.T) {
	h := NewWalletHandler(&fakeWallet{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/wallet/balance", bytes.NewBufferString(`{"publicKey":"GXYZ"}`))
	rec := httptest.NewRecorder()
	h.Balance(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp balanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Zero(t, resp.Balance)
	assert.NotEmpty(t, resp.Error)
	assert.Contains(t, rec.Body.String(), `"balance":0`)
}

func TestWalletConnectAndDisconnect(t *testing.T) {
	wallet := &fakeWallet{testnet: map[string]domain.AccountSnapshot{
		"GABC": {Address: "GABC", Network: "testnet", Balance: 42},
	}}
	h := NewWalletHandler(wallet, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/wallet/connect", bytes.NewBufferString(`{"publicKey":"GABC"}`))
	rec := httptest.NewRecorder()
	h.Connect(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, wallet.connected)

	rec = httptest.NewRecorder()
	h.Disconnect(rec, httptest.NewRequest(http.MethodPost, "/api/wallet/disconnect", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, wallet.connected)
}

type fakeSigner struct {
	hash     string
	err      error
	networks []string
	payloads []string
}

func (f *fakeSigner) PublicKey() string { return "GPUB" }

func (f *fakeSigner) SignAndSubmit(ctx context.Context, network, envelopeXDR string) (string, error) {
	f.networks = append(f.networks, network)
	f.payloads = append(f.payloads, envelopeXDR)
	if f.err != nil {
		return "", f.err
	}
	return f.hash, nil
}

func TestTransactionSubmit(t *testing.T) {
	signer := &fakeSigner{hash: "deadbeef"}
	h := NewTransactionHandler(signer, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/transactions", bytes.NewBufferString(`{"envelope":"AAAA"}`))
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp submitTxResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "deadbeef", resp.Hash)
	assert.Equal(t, "GPUB", resp.PublicKey)
	assert.Equal(t, "public", resp.Network)
	assert.Equal(t, []string{"public"}, signer.networks)
	assert.Equal(t, []string{"AAAA"}, signer.payloads)
}

func TestTransactionSubmitValidation(t *testing.T) {
	h := NewTransactionHandler(&fakeSigner{hash: "deadbeef"}, testLogger())

	rec := httptest.NewRecorder()
	h.Submit(rec, httptest.NewRequest(http.MethodPost, "/api/transactions", bytes.NewBufferString(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.Submit(rec, httptest.NewRequest(http.MethodPost, "/api/transactions", bytes.NewBufferString(`{"envelope":"AAAA","network":"mainnet"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransactionSubmitUpstreamFailure(t *testing.T) {
	signer := &fakeSigner{err: fmt.Errorf("horizon: submit: %w", domain.ErrExternalService)}
	h := NewTransactionHandler(signer, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/transactions", bytes.NewBufferString(`{"envelope":"AAAA","network":"testnet"}`))
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, []string{"testnet"}, signer.networks)
}

type fakeFeed struct {
	bundle    domain.FeedBundle
	refreshed int
}

func (f *fakeFeed) Get(ctx context.Context) (domain.FeedBundle, error) {
	return f.bundle, nil
}

func (f *fakeFeed) Refresh(ctx context.Context) (domain.FeedBundle, error) {
	f.refreshed++
	return f.bundle, nil
}

func TestFeedGet(t *testing.T) {
	feed := &fakeFeed{bundle: domain.FeedBundle{
		News: []domain.NewsItem{{Title: "roster shuffle"}},
	}}
	h := NewFeedHandler(feed, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var bundle domain.FeedBundle
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bundle))
	require.Len(t, bundle.News, 1)
	assert.Equal(t, "roster shuffle", bundle.News[0].Title)
}

func TestFeedRefresh(t *testing.T) {
	feed := &fakeFeed{}
	h := NewFeedHandler(feed, testLogger())

	rec := httptest.NewRecorder()
	h.Refresh(rec, httptest.NewRequest(http.MethodPost, "/api/feed/refresh", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, feed.refreshed)
}

type fakeCounter struct {
	count int64
	err   error
}

func (f *fakeCounter) Count(ctx context.Context) (int64, error) {
	return f.count, f.err
}

func TestHealthCheck(t *testing.T) {
	h := NewHealthHandler(&fakeCounter{count: 3}, testLogger())

	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, float64(3), resp["markets"])
}

func TestHealthCheckDegradedWhenStoreFails(t *testing.T) {
	h := NewHealthHandler(&fakeCounter{err: fmt.Errorf("down")}, testLogger())

	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp["status"])
}
