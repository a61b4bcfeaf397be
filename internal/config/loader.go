package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies PROPHET_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known PROPHET_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Server ──
	setInt(&cfg.Server.Port, "PROPHET_SERVER_PORT")
	setStr(&cfg.Server.APIKey, "PROPHET_SERVER_API_KEY")
	setStringSlice(&cfg.Server.CORSOrigins, "PROPHET_SERVER_CORS_ORIGINS")
	setInt(&cfg.Server.RateLimit, "PROPHET_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "PROPHET_SERVER_RATE_WINDOW")

	// ── Database ──
	setStr(&cfg.Database.Driver, "PROPHET_DATABASE_DRIVER")
	setStr(&cfg.Database.DSN, "PROPHET_DATABASE_DSN")
	setStr(&cfg.Database.DSN, "PROPHET_DATABASE_URL") // compatibility alias
	setStr(&cfg.Database.Host, "PROPHET_DATABASE_HOST")
	setInt(&cfg.Database.Port, "PROPHET_DATABASE_PORT")
	setStr(&cfg.Database.Database, "PROPHET_DATABASE_NAME")
	setStr(&cfg.Database.User, "PROPHET_DATABASE_USER")
	setStr(&cfg.Database.Password, "PROPHET_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "PROPHET_DATABASE_SSL_MODE")
	setInt(&cfg.Database.PoolMaxConns, "PROPHET_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "PROPHET_DATABASE_POOL_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "PROPHET_DATABASE_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "PROPHET_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "PROPHET_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "PROPHET_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "PROPHET_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "PROPHET_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "PROPHET_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "PROPHET_REDIS_TLS_ENABLED")

	// ── Horizon ──
	setStr(&cfg.Horizon.PublicURL, "PROPHET_HORIZON_PUBLIC_URL")
	setStr(&cfg.Horizon.TestnetURL, "PROPHET_HORIZON_TESTNET_URL")
	setBool(&cfg.Horizon.TestnetFallback, "PROPHET_HORIZON_TESTNET_FALLBACK")
	setDuration(&cfg.Horizon.Timeout, "PROPHET_HORIZON_TIMEOUT")

	// ── Wallet ──
	setStr(&cfg.Wallet.EncryptedKeyPath, "PROPHET_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "PROPHET_WALLET_KEY_PASSWORD")
	setStr(&cfg.Wallet.SecretSeed, "PROPHET_WALLET_SECRET_SEED")
	setDuration(&cfg.Wallet.RefreshInterval, "PROPHET_WALLET_REFRESH_INTERVAL")

	// ── Feed ──
	setStr(&cfg.Feed.NewsURL, "PROPHET_FEED_NEWS_URL")
	setStr(&cfg.Feed.MatchesURL, "PROPHET_FEED_MATCHES_URL")
	setDuration(&cfg.Feed.CacheTTL, "PROPHET_FEED_CACHE_TTL")
	setDuration(&cfg.Feed.FetchTimeout, "PROPHET_FEED_FETCH_TIMEOUT")
	setDuration(&cfg.Feed.PollInterval, "PROPHET_FEED_POLL_INTERVAL")

	// ── Market ──
	setFloat64(&cfg.Market.MaxOdds, "PROPHET_MARKET_MAX_ODDS")
	setFloat64(&cfg.Market.SeedSplit, "PROPHET_MARKET_SEED_SPLIT")
	setFloat64(&cfg.Market.MinStake, "PROPHET_MARKET_MIN_STAKE")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "PROPHET_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "PROPHET_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "PROPHET_S3_REGION")
	setStr(&cfg.S3.Bucket, "PROPHET_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "PROPHET_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "PROPHET_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "PROPHET_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "PROPHET_S3_FORCE_PATH_STYLE")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "PROPHET_ARCHIVE_ENABLED")
	setDuration(&cfg.Archive.Interval, "PROPHET_ARCHIVE_INTERVAL")
	setStr(&cfg.Archive.Prefix, "PROPHET_ARCHIVE_PREFIX")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "PROPHET_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "PROPHET_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "PROPHET_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "PROPHET_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "PROPHET_MODE")
	setStr(&cfg.LogLevel, "PROPHET_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
