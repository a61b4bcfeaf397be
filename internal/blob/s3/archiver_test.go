package s3blob

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digital-prophets/prophetd/internal/domain"
	"github.com/digital-prophets/prophetd/internal/pricing"
	"github.com/digital-prophets/prophetd/internal/store/memory"
)

type captureWriter struct {
	path        string
	data        []byte
	contentType string
	puts        int
}

func (w *captureWriter) Put(ctx context.Context, path string, data []byte, contentType string) error {
	w.path = path
	w.data = data
	w.contentType = contentType
	w.puts++
	return nil
}

func TestArchiveDayWritesJSONL(t *testing.T) {
	store := memory.New(pricing.Defaults())
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Create(ctx, domain.Market{
		ID: "m1", Title: "archived", CreatedBy: "alice",
		Status:          domain.MarketStatusActive,
		SupportingStake: 60, OpposingStake: 40,
		Probability: 60, Odds: 100.0 / 60.0,
		CreatedAt: now, TargetDate: now, UpdatedAt: now,
	}))
	_, err := store.Bets().Place(ctx, domain.Bet{
		ID: "b1", UserID: "bob", MarketID: "m1", Amount: 10,
		Side: true, Status: domain.BetStatusPending, PlacedAt: now,
	})
	require.NoError(t, err)
	_, err = store.Settle(ctx, "m1", true)
	require.NoError(t, err)

	w := &captureWriter{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a := NewArchiver(w, store, store.Bets(), "archive/markets", logger)

	count, err := a.ArchiveDay(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, "archive/markets/"+now.Format("2006-01-02")+".jsonl", w.path)
	assert.Equal(t, "application/x-ndjson", w.contentType)

	line := strings.TrimSpace(string(w.data))
	assert.Contains(t, line, `"m1"`)
	assert.Contains(t, line, `"b1"`)
	assert.NotContains(t, line, "\n")
}

func TestArchiveDaySkipsEmptyDays(t *testing.T) {
	store := memory.New(pricing.Defaults())
	w := &captureWriter{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a := NewArchiver(w, store, store.Bets(), "", logger)

	count, err := a.ArchiveDay(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, w.puts)
}
