package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/digital-prophets/prophetd/internal/domain"
)

// ResolvedMarketSource provides the settled markets eligible for archival.
type ResolvedMarketSource interface {
	ListResolvedBetween(ctx context.Context, from, to time.Time) ([]domain.Market, error)
}

// MarketBetSource provides the bets attached to an archived market.
type MarketBetSource interface {
	ListByMarket(ctx context.Context, marketID string, opts domain.ListOpts) ([]domain.Bet, error)
}

// archivedMarket is one JSONL line in the archive: the settled market with
// its full bet history inlined.
type archivedMarket struct {
	Market domain.Market `json:"market"`
	Bets   []domain.Bet  `json:"bets"`
}

// Archiver writes the previous day's settled markets to cold storage as one
// JSONL object per day. Re-running a day overwrites the same key, so the
// job is safe to repeat.
type Archiver struct {
	writer  domain.BlobWriter
	markets ResolvedMarketSource
	bets    MarketBetSource
	prefix  string
	logger  *slog.Logger
}

// NewArchiver creates an Archiver storing objects under prefix.
func NewArchiver(
	writer domain.BlobWriter,
	markets ResolvedMarketSource,
	bets MarketBetSource,
	prefix string,
	logger *slog.Logger,
) *Archiver {
	if prefix == "" {
		prefix = "archive/markets"
	}
	return &Archiver{
		writer:  writer,
		markets: markets,
		bets:    bets,
		prefix:  prefix,
		logger:  logger.With(slog.String("component", "archiver")),
	}
}

// ArchiveDay archives every market settled on the given calendar day (UTC)
// and returns the number of markets written. Days with nothing settled
// produce no object.
func (a *Archiver) ArchiveDay(ctx context.Context, day time.Time) (int, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	markets, err := a.markets.ListResolvedBetween(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive query: %w", err)
	}
	if len(markets) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for _, m := range markets {
		bets, err := a.bets.ListByMarket(ctx, m.ID, domain.ListOpts{})
		if err != nil {
			return 0, fmt.Errorf("s3blob: archive bets for %s: %w", m.ID, err)
		}
		if err := enc.Encode(archivedMarket{Market: m, Bets: bets}); err != nil {
			return 0, fmt.Errorf("s3blob: archive encode %s: %w", m.ID, err)
		}
	}

	path := fmt.Sprintf("%s/%s.jsonl", a.prefix, from.Format("2006-01-02"))
	if err := a.writer.Put(ctx, path, buf.Bytes(), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive upload: %w", err)
	}

	a.logger.InfoContext(ctx, "archived settled markets",
		slog.String("path", path),
		slog.Int("count", len(markets)),
	)
	return len(markets), nil
}

// RunLoop archives yesterday on start and then once per interval until the
// context is cancelled.
func (a *Archiver) RunLoop(ctx context.Context, interval time.Duration) error {
	run := func() {
		yesterday := time.Now().UTC().Add(-24 * time.Hour)
		if _, err := a.ArchiveDay(ctx, yesterday); err != nil {
			a.logger.ErrorContext(ctx, "archive run failed",
				slog.String("error", err.Error()),
			)
		}
	}

	run()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("archiver loop stopped")
			return ctx.Err()
		case <-ticker.C:
			run()
		}
	}
}
