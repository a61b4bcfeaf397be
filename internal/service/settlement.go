package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/digital-prophets/prophetd/internal/domain"
	"github.com/digital-prophets/prophetd/internal/notify"
)

// Settlement drives the two terminal market transitions. The store does the
// atomic work; this layer adds eventing and operator notification.
type Settlement struct {
	settlements domain.SettlementStore
	bus         domain.SignalBus
	notifier    *notify.Notifier
	logger      *slog.Logger
}

// NewSettlement creates a Settlement engine. bus and notifier may be nil.
func NewSettlement(
	settlements domain.SettlementStore,
	bus domain.SignalBus,
	notifier *notify.Notifier,
	logger *slog.Logger,
) *Settlement {
	return &Settlement{
		settlements: settlements,
		bus:         bus,
		notifier:    notifier,
		logger:      logger.With(slog.String("component", "settlement")),
	}
}

// ResolveMarket settles the market to outcome. Every pending bet on the
// winning side is paid its amount times the final winning-side odds; losing
// bets pay out zero. The transition is all-or-nothing and happens at most
// once per market.
func (s *Settlement) ResolveMarket(ctx context.Context, marketID string, outcome bool) (domain.ResolutionReport, error) {
	report, err := s.settlements.Settle(ctx, marketID, outcome)
	if err != nil {
		return domain.ResolutionReport{}, fmt.Errorf("settlement: resolve %q: %w", marketID, err)
	}

	s.logger.InfoContext(ctx, "market resolved",
		slog.String("market_id", marketID),
		slog.Bool("outcome", outcome),
		slog.Int("bets_processed", report.BetsProcessed),
		slog.Float64("total_paid_out", report.TotalPaidOut),
	)

	publishEvent(ctx, s.bus, s.logger, ChannelSettlements, "market_resolved", report)

	if s.notifier != nil {
		side := "NO"
		if outcome {
			side = "YES"
		}
		msg := fmt.Sprintf("Market %s resolved %s: %d bets settled, %.2f paid out",
			marketID, side, report.BetsProcessed, report.TotalPaidOut)
		if nerr := s.notifier.Notify(ctx, "market_resolved", "Market resolved", msg); nerr != nil {
			s.logger.WarnContext(ctx, "resolution notification failed",
				slog.String("market_id", marketID),
				slog.String("error", nerr.Error()),
			)
		}
	}

	return report, nil
}

// CancelMarket voids the market and refunds every pending bet its principal.
func (s *Settlement) CancelMarket(ctx context.Context, marketID string) (domain.ResolutionReport, error) {
	report, err := s.settlements.Cancel(ctx, marketID)
	if err != nil {
		return domain.ResolutionReport{}, fmt.Errorf("settlement: cancel %q: %w", marketID, err)
	}

	s.logger.InfoContext(ctx, "market cancelled",
		slog.String("market_id", marketID),
		slog.Int("bets_processed", report.BetsProcessed),
		slog.Float64("refunded", report.TotalPaidOut),
	)

	publishEvent(ctx, s.bus, s.logger, ChannelSettlements, "market_cancelled", report)

	if s.notifier != nil {
		msg := fmt.Sprintf("Market %s cancelled: %d bets refunded, %.2f returned",
			marketID, report.BetsProcessed, report.TotalPaidOut)
		if nerr := s.notifier.Notify(ctx, "market_cancelled", "Market cancelled", msg); nerr != nil {
			s.logger.WarnContext(ctx, "cancellation notification failed",
				slog.String("market_id", marketID),
				slog.String("error", nerr.Error()),
			)
		}
	}

	return report, nil
}
