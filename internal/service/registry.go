// Package service implements the business logic on top of the domain stores:
// the market registry, the bet ledger, the settlement engine, and the feed.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/digital-prophets/prophetd/internal/domain"
	"github.com/digital-prophets/prophetd/internal/pricing"
)

// Event bus channels consumed by the WebSocket hub.
const (
	ChannelMarkets     = "markets"
	ChannelBets        = "bets"
	ChannelSettlements = "settlements"
)

// Registry manages the market lifecycle up to (but not including) settlement.
type Registry struct {
	markets  domain.MarketStore
	bus      domain.SignalBus
	pricing  pricing.Params
	minStake float64
	logger   *slog.Logger
}

// NewRegistry creates a Registry with all required dependencies. bus may be
// nil, in which case no events are published.
func NewRegistry(
	markets domain.MarketStore,
	bus domain.SignalBus,
	params pricing.Params,
	minStake float64,
	logger *slog.Logger,
) *Registry {
	return &Registry{
		markets:  markets,
		bus:      bus,
		pricing:  params,
		minStake: minStake,
		logger:   logger.With(slog.String("component", "registry")),
	}
}

// CreateMarketInput carries the caller-supplied fields for a new market.
type CreateMarketInput struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	CreatedBy    string    `json:"createdBy"`
	InitialStake float64   `json:"initialStake"`
	TargetDate   time.Time `json:"targetDate"`
}

func (in CreateMarketInput) validate(minStake float64) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title must not be empty", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(in.CreatedBy) == "" {
		return fmt.Errorf("%w: createdBy must not be empty", domain.ErrInvalidInput)
	}
	if in.InitialStake < minStake {
		return fmt.Errorf("%w: initial stake must be at least %g", domain.ErrInvalidInput, minStake)
	}
	if in.TargetDate.IsZero() {
		return fmt.Errorf("%w: targetDate must be set", domain.ErrInvalidInput)
	}
	return nil
}

// CreateMarket validates the input, seeds both sides from the initial stake,
// persists the market, and announces it on the markets channel. The new
// market always opens at even probability regardless of the seed split.
func (r *Registry) CreateMarket(ctx context.Context, in CreateMarketInput) (domain.Market, error) {
	if err := in.validate(r.minStake); err != nil {
		return domain.Market{}, err
	}

	supporting, opposing := pricing.SplitSeed(in.InitialStake, r.pricing.SeedSplit)
	now := time.Now().UTC()

	m := domain.Market{
		ID:              uuid.NewString(),
		Title:           strings.TrimSpace(in.Title),
		Description:     strings.TrimSpace(in.Description),
		Category:        strings.TrimSpace(in.Category),
		CreatedBy:       in.CreatedBy,
		Status:          domain.MarketStatusActive,
		SupportingStake: supporting,
		OpposingStake:   opposing,
		Probability:     pricing.SeedProbability,
		Odds:            pricing.SeedOdds,
		CreatedAt:       now,
		TargetDate:      in.TargetDate.UTC(),
		UpdatedAt:       now,
	}

	if err := r.markets.Create(ctx, m); err != nil {
		return domain.Market{}, fmt.Errorf("registry: create market: %w", err)
	}

	r.logger.InfoContext(ctx, "market created",
		slog.String("market_id", m.ID),
		slog.String("title", m.Title),
		slog.Float64("initial_stake", in.InitialStake),
	)

	r.publish(ctx, ChannelMarkets, "market_created", m)
	return m, nil
}

// GetMarket retrieves a market by ID.
func (r *Registry) GetMarket(ctx context.Context, id string) (domain.Market, error) {
	m, err := r.markets.GetByID(ctx, id)
	if err != nil {
		return domain.Market{}, fmt.Errorf("registry: get market %q: %w", id, err)
	}
	return m, nil
}

// ListMarkets returns markets most-recent-first, optionally filtered by
// status.
func (r *Registry) ListMarkets(ctx context.Context, status *domain.MarketStatus, opts domain.ListOpts) ([]domain.Market, error) {
	markets, err := r.markets.List(ctx, status, opts)
	if err != nil {
		return nil, fmt.Errorf("registry: list markets: %w", err)
	}
	if markets == nil {
		markets = []domain.Market{}
	}
	return markets, nil
}

// RecordStake adds amount to one side of an active market and reprices it.
// Ledger bets go through Ledger.PlaceBet instead; this path exists for
// stake adjustments that carry no bet, e.g. house seeding.
func (r *Registry) RecordStake(ctx context.Context, id string, side bool, amount float64) (domain.Market, error) {
	if amount < r.minStake {
		return domain.Market{}, fmt.Errorf("%w: stake must be at least %g", domain.ErrInvalidInput, r.minStake)
	}

	m, err := r.markets.AddStake(ctx, id, side, amount)
	if err != nil {
		return domain.Market{}, fmt.Errorf("registry: record stake on %q: %w", id, err)
	}

	r.publish(ctx, ChannelMarkets, "market_repriced", m)
	return m, nil
}

// Count returns the total number of markets.
func (r *Registry) Count(ctx context.Context) (int64, error) {
	count, err := r.markets.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("registry: count: %w", err)
	}
	return count, nil
}

func (r *Registry) publish(ctx context.Context, channel, event string, payload any) {
	publishEvent(ctx, r.bus, r.logger, channel, event, payload)
}

// busEvent is the envelope published on the signal bus.
type busEvent struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// publishEvent marshals and publishes an event envelope. Bus failures are
// logged and swallowed; event delivery is best-effort.
func publishEvent(ctx context.Context, bus domain.SignalBus, logger *slog.Logger, channel, event string, payload any) {
	if bus == nil {
		return
	}
	raw, err := json.Marshal(busEvent{Event: event, Payload: payload})
	if err != nil {
		logger.WarnContext(ctx, "event marshal failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := bus.Publish(ctx, channel, raw); err != nil {
		logger.WarnContext(ctx, "event publish failed",
			slog.String("channel", channel),
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}
