package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/digital-prophets/prophetd/internal/scraper"
	"github.com/digital-prophets/prophetd/internal/server"
	"github.com/digital-prophets/prophetd/internal/server/handler"
	"github.com/digital-prophets/prophetd/internal/server/ws"
	"github.com/digital-prophets/prophetd/internal/service"
)

// services bundles the domain services shared by the modes.
type services struct {
	registry   *service.Registry
	ledger     *service.Ledger
	settlement *service.Settlement
	feed       *service.Feed
}

// buildServices constructs the market, ledger, settlement, and feed services
// on top of the wired dependencies.
func (a *App) buildServices(deps *Dependencies) *services {
	source := scraper.New(
		a.cfg.Feed.NewsURL,
		a.cfg.Feed.MatchesURL,
		a.cfg.Feed.FetchTimeout.Duration,
		a.logger,
	)

	return &services{
		registry: service.NewRegistry(
			deps.MarketStore, deps.SignalBus, deps.Pricing, a.cfg.Market.MinStake, a.logger,
		),
		ledger: service.NewLedger(
			deps.BetStore, deps.SignalBus, a.cfg.Market.MinStake, a.logger,
		),
		settlement: service.NewSettlement(
			deps.SettlementStore, deps.SignalBus, deps.Notifier, a.logger,
		),
		feed: service.NewFeed(source, deps.FeedCache, a.logger),
	}
}

// ServeMode runs the HTTP + WebSocket API server.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	g, ctx := errgroup.WithContext(ctx)
	svcs := a.buildServices(deps)
	a.startHTTPServer(ctx, g, deps, svcs)

	defer deps.Reconciler.StopPolling()
	return g.Wait()
}

// ScrapeMode runs the background workers only: the feed poller keeping the
// cache warm, and the settled-market archiver when enabled.
func (a *App) ScrapeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scrape mode")

	g, ctx := errgroup.WithContext(ctx)
	svcs := a.buildServices(deps)
	a.startWorkers(ctx, g, deps, svcs)

	return g.Wait()
}

// FullMode runs the API server and the background workers together.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)
	svcs := a.buildServices(deps)
	a.startHTTPServer(ctx, g, deps, svcs)
	a.startWorkers(ctx, g, deps, svcs)

	defer deps.Reconciler.StopPolling()
	return g.Wait()
}

// startHTTPServer adds the API server and WebSocket hub goroutines to the
// errgroup. The server shuts down gracefully when the context is cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, svcs *services) {
	var hub *ws.Hub
	if deps.SignalBus != nil {
		hub = ws.NewHub(deps.SignalBus, a.logger)
		g.Go(func() error {
			return hub.Run(ctx)
		})
	} else {
		a.logger.WarnContext(ctx, "redis disabled, websocket hub not started")
	}

	handlers := server.Handlers{
		Health:      handler.NewHealthHandler(svcs.registry, a.logger),
		Predictions: handler.NewPredictionHandler(svcs.registry, svcs.settlement, a.logger),
		Bets:        handler.NewBetHandler(svcs.ledger, a.logger),
		Leaderboard: handler.NewLeaderboardHandler(svcs.ledger, a.logger),
		Wallet:      handler.NewWalletHandler(deps.Reconciler, a.logger),
		Feed:        handler.NewFeedHandler(svcs.feed, a.logger),
	}
	if deps.Signer != nil {
		handlers.Transactions = handler.NewTransactionHandler(deps.Signer, a.logger)
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  a.cfg.Server.RateWindow.Duration,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	})
}

// startWorkers adds the feed poller and archiver goroutines to the errgroup.
func (a *App) startWorkers(ctx context.Context, g *errgroup.Group, deps *Dependencies, svcs *services) {
	if interval := a.cfg.Feed.PollInterval.Duration; interval > 0 {
		g.Go(func() error {
			return a.runFeedPoller(ctx, svcs.feed, interval)
		})
	}

	if deps.Archiver != nil {
		interval := a.cfg.Archive.Interval.Duration
		g.Go(func() error {
			return deps.Archiver.RunLoop(ctx, interval)
		})
	}
}

// runFeedPoller refetches the feed on a fixed cadence so API reads stay
// cache-warm. Upstream failures are absorbed by the feed service.
func (a *App) runFeedPoller(ctx context.Context, feed *service.Feed, interval time.Duration) error {
	a.logger.InfoContext(ctx, "feed poller started",
		slog.Duration("interval", interval),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := feed.Refresh(ctx); err != nil {
				return fmt.Errorf("app: feed refresh: %w", err)
			}
		}
	}
}
