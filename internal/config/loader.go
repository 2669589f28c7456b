package config

import (
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies HEDGEBOT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known HEDGEBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Wallet ──
	setStr(&cfg.Wallet.PrivateKey, "HEDGEBOT_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.EncryptedKeyPath, "HEDGEBOT_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "HEDGEBOT_WALLET_KEY_PASSWORD")

	// ── Polymarket ──
	setStr(&cfg.Polymarket.GammaHost, "HEDGEBOT_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Polymarket.ClobHost, "HEDGEBOT_POLYMARKET_CLOB_HOST")
	setInt(&cfg.Polymarket.ChainID, "HEDGEBOT_POLYMARKET_CHAIN_ID")
	setInt(&cfg.Polymarket.MarketLimit, "HEDGEBOT_POLYMARKET_MARKET_LIMIT")

	// ── Cloudbet ──
	setStr(&cfg.Cloudbet.APIKey, "HEDGEBOT_CLOUDBET_API_KEY")
	setStr(&cfg.Cloudbet.OddsHost, "HEDGEBOT_CLOUDBET_ODDS_HOST")
	setStr(&cfg.Cloudbet.TradingHost, "HEDGEBOT_CLOUDBET_TRADING_HOST")
	setStr(&cfg.Cloudbet.Currency, "HEDGEBOT_CLOUDBET_CURRENCY")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "HEDGEBOT_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "HEDGEBOT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "HEDGEBOT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "HEDGEBOT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "HEDGEBOT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "HEDGEBOT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "HEDGEBOT_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "HEDGEBOT_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "HEDGEBOT_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "HEDGEBOT_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "HEDGEBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "HEDGEBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "HEDGEBOT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "HEDGEBOT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "HEDGEBOT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "HEDGEBOT_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "HEDGEBOT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "HEDGEBOT_S3_REGION")
	setStr(&cfg.S3.Bucket, "HEDGEBOT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "HEDGEBOT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "HEDGEBOT_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "HEDGEBOT_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "HEDGEBOT_S3_FORCE_PATH_STYLE")

	// ── Bankroll ──
	setFloat64(&cfg.Bankroll.Amount, "HEDGEBOT_BANKROLL_AMOUNT")
	setFloat64(&cfg.Bankroll.KellyFraction, "HEDGEBOT_BANKROLL_KELLY_FRACTION")

	// ── Arbitrage ──
	setFloat64(&cfg.Arbitrage.MinProfitThreshold, "HEDGEBOT_ARBITRAGE_MIN_PROFIT_THRESHOLD")
	setFloat64(&cfg.Arbitrage.MinValueEdge, "HEDGEBOT_ARBITRAGE_MIN_VALUE_EDGE")
	setFloat64(&cfg.Arbitrage.SimilarityThreshold, "HEDGEBOT_ARBITRAGE_SIMILARITY_THRESHOLD")
	setDuration(&cfg.Arbitrage.TimeWindow, "HEDGEBOT_ARBITRAGE_TIME_WINDOW")
	setDuration(&cfg.Arbitrage.PollingInterval, "HEDGEBOT_ARBITRAGE_POLLING_INTERVAL")
	setDuration(&cfg.Arbitrage.AlertCooldown, "HEDGEBOT_ARBITRAGE_ALERT_COOLDOWN")
	setDuration(&cfg.Arbitrage.SnapshotTTL, "HEDGEBOT_ARBITRAGE_SNAPSHOT_TTL")

	// ── Autobet ──
	setBool(&cfg.Autobet.Enabled, "HEDGEBOT_AUTOBET_ENABLED")
	setBool(&cfg.Autobet.RealExecution, "HEDGEBOT_AUTOBET_REAL_EXECUTION")
	setFloat64(&cfg.Autobet.MinProfitThreshold, "HEDGEBOT_AUTOBET_MIN_PROFIT_THRESHOLD")
	setInt(&cfg.Autobet.MaxBetsPerDay, "HEDGEBOT_AUTOBET_MAX_BETS_PER_DAY")
	setFloat64(&cfg.Autobet.MaxStakeFraction, "HEDGEBOT_AUTOBET_MAX_STAKE_FRACTION")
	setFloat64(&cfg.Autobet.DailyLossLimit, "HEDGEBOT_AUTOBET_DAILY_LOSS_LIMIT")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "HEDGEBOT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "HEDGEBOT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "HEDGEBOT_NOTIFY_DISCORD_WEBHOOK_URL")
	setBool(&cfg.Notify.QuietHoursEnabled, "HEDGEBOT_NOTIFY_QUIET_HOURS_ENABLED")
	setInt(&cfg.Notify.QuietStartHour, "HEDGEBOT_NOTIFY_QUIET_START_HOUR")
	setInt(&cfg.Notify.QuietEndHour, "HEDGEBOT_NOTIFY_QUIET_END_HOUR")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "HEDGEBOT_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "HEDGEBOT_SERVER_PORT")

	// ── Top-level ──
	setStr(&cfg.Mode, "HEDGEBOT_MODE")
	setStr(&cfg.LogLevel, "HEDGEBOT_LOG_LEVEL")
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
