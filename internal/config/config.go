// Package config defines the top-level configuration for the prophetd
// service and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by PROPHET_* environment variables.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
	Horizon  HorizonConfig  `toml:"horizon"`
	Wallet   WalletConfig   `toml:"wallet"`
	Feed     FeedConfig     `toml:"feed"`
	Market   MarketConfig   `toml:"market"`
	S3       S3Config       `toml:"s3"`
	Archive  ArchiveConfig  `toml:"archive"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	APIKey      string   `toml:"api_key"`
	CORSOrigins []string `toml:"cors_origins"`
	RateLimit   int      `toml:"rate_limit"`
	RateWindow  duration `toml:"rate_window"`
}

// DatabaseConfig holds the PostgreSQL connection parameters. When Driver is
// "memory" the service runs storeless with an in-process store.
type DatabaseConfig struct {
	Driver        string `toml:"driver"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// HorizonConfig holds the Stellar Horizon endpoints. Balance lookups try the
// public network first and fall back to testnet when testnet fallback is on.
type HorizonConfig struct {
	PublicURL       string   `toml:"public_url"`
	TestnetURL      string   `toml:"testnet_url"`
	TestnetFallback bool     `toml:"testnet_fallback"`
	Timeout         duration `toml:"timeout"`
}

// WalletConfig holds signing-key material for transaction submission and the
// balance refresh cadence for connected accounts.
type WalletConfig struct {
	EncryptedKeyPath string   `toml:"encrypted_key_path"`
	KeyPassword      string   `toml:"key_password"`
	SecretSeed       string   `toml:"secret_seed"`
	RefreshInterval  duration `toml:"refresh_interval"`
}

// FeedConfig holds the esports feed sources and cache behaviour.
type FeedConfig struct {
	NewsURL      string   `toml:"news_url"`
	MatchesURL   string   `toml:"matches_url"`
	CacheTTL     duration `toml:"cache_ttl"`
	FetchTimeout duration `toml:"fetch_timeout"`
	PollInterval duration `toml:"poll_interval"`
}

// MarketConfig holds pricing parameters for the prediction markets.
type MarketConfig struct {
	MaxOdds   float64 `toml:"max_odds"`
	SeedSplit float64 `toml:"seed_split"`
	MinStake  float64 `toml:"min_stake"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ArchiveConfig holds the settled-market archive schedule.
type ArchiveConfig struct {
	Enabled  bool     `toml:"enabled"`
	Interval duration `toml:"interval"`
	Prefix   string   `toml:"prefix"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:   120,
			RateWindow:  duration{time.Minute},
		},
		Database: DatabaseConfig{
			Driver:        "postgres",
			Host:          "localhost",
			Port:          5432,
			Database:      "prophetd",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:    true,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		Horizon: HorizonConfig{
			PublicURL:       "https://horizon.stellar.org",
			TestnetURL:      "https://horizon-testnet.stellar.org",
			TestnetFallback: true,
			Timeout:         duration{10 * time.Second},
		},
		Wallet: WalletConfig{
			RefreshInterval: duration{30 * time.Second},
		},
		Feed: FeedConfig{
			NewsURL:      "https://api.digitalprophets.gg/v1/news",
			MatchesURL:   "https://api.digitalprophets.gg/v1/matches",
			CacheTTL:     duration{5 * time.Minute},
			FetchTimeout: duration{10 * time.Second},
			PollInterval: duration{30 * time.Second},
		},
		Market: MarketConfig{
			MaxOdds:   100.0,
			SeedSplit: 0.6,
			MinStake:  1.0,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "prophetd-data",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Archive: ArchiveConfig{
			Enabled:  false,
			Interval: duration{24 * time.Hour},
			Prefix:   "archive/markets",
		},
		Notify: NotifyConfig{
			Events: []string{"market_created", "market_resolved", "market_cancelled", "error"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"serve":  true,
	"scrape": true,
	"full":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: serve, scrape, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, "server: rate_limit must be >= 0")
	}

	// Database
	switch strings.ToLower(c.Database.Driver) {
	case "postgres":
		if strings.TrimSpace(c.Database.DSN) == "" {
			if c.Database.Host == "" {
				errs = append(errs, "database: host must not be empty (or set database.dsn)")
			}
			if c.Database.Port <= 0 || c.Database.Port > 65535 {
				errs = append(errs, fmt.Sprintf("database: port must be 1-65535, got %d", c.Database.Port))
			}
			if c.Database.Database == "" {
				errs = append(errs, "database: database must not be empty")
			}
		}
		if c.Database.PoolMaxConns < 1 {
			errs = append(errs, "database: pool_max_conns must be >= 1")
		}
		if c.Database.PoolMinConns < 0 {
			errs = append(errs, "database: pool_min_conns must be >= 0")
		}
		if c.Database.PoolMinConns > c.Database.PoolMaxConns {
			errs = append(errs, "database: pool_min_conns must not exceed pool_max_conns")
		}
	case "memory":
		// Nothing to check; the in-process store has no parameters.
	default:
		errs = append(errs, fmt.Sprintf("database: unknown driver %q (valid: postgres, memory)", c.Database.Driver))
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// Horizon
	if c.Horizon.PublicURL == "" {
		errs = append(errs, "horizon: public_url must not be empty")
	}
	if c.Horizon.TestnetFallback && c.Horizon.TestnetURL == "" {
		errs = append(errs, "horizon: testnet_url must not be empty when testnet_fallback is on")
	}
	if c.Horizon.Timeout.Duration <= 0 {
		errs = append(errs, "horizon: timeout must be positive")
	}

	// Wallet — encrypted key needs a password to unlock it.
	if c.Wallet.EncryptedKeyPath != "" && c.Wallet.KeyPassword == "" {
		errs = append(errs, "wallet: key_password is required when encrypted_key_path is set")
	}

	// Feed
	if c.Feed.CacheTTL.Duration <= 0 {
		errs = append(errs, "feed: cache_ttl must be positive")
	}
	if c.Feed.FetchTimeout.Duration <= 0 {
		errs = append(errs, "feed: fetch_timeout must be positive")
	}

	// Market
	if c.Market.MaxOdds <= 1 {
		errs = append(errs, "market: max_odds must be > 1")
	}
	if c.Market.SeedSplit <= 0 || c.Market.SeedSplit >= 1 {
		errs = append(errs, fmt.Sprintf("market: seed_split must be in (0, 1), got %g", c.Market.SeedSplit))
	}
	if c.Market.MinStake <= 0 {
		errs = append(errs, "market: min_stake must be > 0")
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
	}
	if c.Archive.Enabled && !c.S3.Enabled {
		errs = append(errs, "archive: s3 must be enabled when the archive is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
