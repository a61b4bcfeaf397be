package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/digital-prophets/prophetd/internal/blob/s3"
	"github.com/digital-prophets/prophetd/internal/cache/redis"
	"github.com/digital-prophets/prophetd/internal/config"
	"github.com/digital-prophets/prophetd/internal/domain"
	"github.com/digital-prophets/prophetd/internal/notify"
	"github.com/digital-prophets/prophetd/internal/platform/horizon"
	"github.com/digital-prophets/prophetd/internal/pricing"
	"github.com/digital-prophets/prophetd/internal/signing"
	"github.com/digital-prophets/prophetd/internal/store/memory"
	"github.com/digital-prophets/prophetd/internal/store/postgres"
	"github.com/digital-prophets/prophetd/internal/wallet"
)

// Dependencies bundles every domain-level dependency that the application
// modes need. It is constructed by Wire and torn down by the returned cleanup
// function.
type Dependencies struct {
	// Stores
	MarketStore     domain.MarketStore
	BetStore        domain.BetStore
	SettlementStore domain.SettlementStore

	// Caches (nil when Redis is disabled)
	FeedCache   domain.FeedCache
	RateLimiter domain.RateLimiter
	SignalBus   domain.SignalBus

	// Blob storage (nil when S3 is disabled)
	BlobWriter domain.BlobWriter
	Archiver   *s3blob.Archiver

	// External accounts
	Horizon    *horizon.Client
	Reconciler *wallet.Reconciler

	// Signing (nil when no key material is configured)
	Signer *signing.Signer

	// Notifications
	Notifier *notify.Notifier

	// Pricing parameters shared by the stores and services.
	Pricing pricing.Params
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	params := pricing.Params{MaxOdds: cfg.Market.MaxOdds, SeedSplit: cfg.Market.SeedSplit}
	deps := &Dependencies{Pricing: params}

	// --- Persistence ---
	switch cfg.Database.Driver {
	case "memory":
		store := memory.New(params)
		deps.MarketStore = store
		deps.BetStore = store.Bets()
		deps.SettlementStore = store

	default: // validated to "postgres"
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Database.DSN,
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			Database: cfg.Database.Database,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			SSLMode:  cfg.Database.SSLMode,
			MaxConns: cfg.Database.PoolMaxConns,
			MinConns: cfg.Database.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Database.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.MarketStore = postgres.NewMarketStore(pool, params)
		deps.BetStore = postgres.NewBetStore(pool, params)
		deps.SettlementStore = postgres.NewSettlementStore(pool, params)
	}

	// --- Redis ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.FeedCache = redis.NewFeedCache(redisClient, cfg.Feed.CacheTTL.Duration)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)
	}

	// --- S3 blob storage ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		if cfg.Archive.Enabled {
			deps.Archiver = s3blob.NewArchiver(
				deps.BlobWriter,
				deps.MarketStore,
				deps.BetStore,
				cfg.Archive.Prefix,
				logger,
			)
		}
	}

	// --- Stellar Horizon + wallet reconciler ---
	deps.Horizon = horizon.NewClient(map[string]string{
		wallet.NetworkPublic:  cfg.Horizon.PublicURL,
		wallet.NetworkTestnet: cfg.Horizon.TestnetURL,
	}, cfg.Horizon.Timeout.Duration)

	deps.Reconciler = wallet.NewReconciler(
		deps.Horizon,
		cfg.Wallet.RefreshInterval.Duration,
		cfg.Horizon.TestnetFallback,
		logger,
	)

	// --- Transaction signer (optional) ---
	if cfg.Wallet.SecretSeed != "" || cfg.Wallet.EncryptedKeyPath != "" {
		seed, err := signing.LoadSeed(signing.SeedConfig{
			RawSeed:           cfg.Wallet.SecretSeed,
			EncryptedSeedPath: cfg.Wallet.EncryptedKeyPath,
			SeedPassword:      cfg.Wallet.KeyPassword,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: load signing seed: %w", err)
		}
		signer, err := signing.NewSigner(seed, deps.Horizon, logger)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: signer: %w", err)
		}
		deps.Signer = signer
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
