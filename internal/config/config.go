// Package config defines the top-level configuration for the hedge bot
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by HEDGEBOT_* environment
// variables.
type Config struct {
	Wallet     WalletConfig     `toml:"wallet"`
	Polymarket PolymarketConfig `toml:"polymarket"`
	Cloudbet   CloudbetConfig   `toml:"cloudbet"`
	Postgres   PostgresConfig   `toml:"postgres"`
	Redis      RedisConfig      `toml:"redis"`
	S3         S3Config         `toml:"s3"`
	Bankroll   BankrollConfig   `toml:"bankroll"`
	Arbitrage  ArbitrageConfig  `toml:"arbitrage"`
	Autobet    AutobetConfig    `toml:"autobet"`
	Notify     NotifyConfig     `toml:"notify"`
	Server     ServerConfig     `toml:"server"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// WalletConfig holds the Polygon wallet used to sign exchange orders. The
// key is supplied directly, or as an encrypted keyfile plus password.
type WalletConfig struct {
	PrivateKey       string `toml:"private_key"`
	EncryptedKeyPath string `toml:"encrypted_key_path"`
	KeyPassword      string `toml:"key_password"`
}

// PolymarketConfig holds exchange API endpoints and fetch parameters.
type PolymarketConfig struct {
	GammaHost     string   `toml:"gamma_host"`
	ClobHost      string   `toml:"clob_host"`
	ChainID       int      `toml:"chain_id"`
	Timeout       duration `toml:"timeout"`
	RetryAttempts int      `toml:"retry_attempts"`
	RetryDelay    duration `toml:"retry_delay"`
	MarketLimit   int      `toml:"market_limit"`
}

// CloudbetConfig holds sportsbook API credentials and endpoints.
type CloudbetConfig struct {
	APIKey        string   `toml:"api_key"`
	OddsHost      string   `toml:"odds_host"`
	TradingHost   string   `toml:"trading_host"`
	Currency      string   `toml:"currency"`
	Timeout       duration `toml:"timeout"`
	RetryAttempts int      `toml:"retry_attempts"`
	RetryDelay    duration `toml:"retry_delay"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
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
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for the snapshot
// archive. Disabled when Bucket is empty.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
	ArchiveCron    string `toml:"archive_cron"`
	ArchiveLimit   int    `toml:"archive_limit"`
}

// BankrollConfig holds the capital available per opportunity.
type BankrollConfig struct {
	Amount        float64 `toml:"amount"`
	KellyFraction float64 `toml:"kelly_fraction"`
}

// ArbitrageConfig holds detection and matching parameters.
type ArbitrageConfig struct {
	MinProfitThreshold  float64  `toml:"min_profit_threshold"`
	MinValueEdge        float64  `toml:"min_value_edge"`
	SimilarityThreshold float64  `toml:"similarity_threshold"`
	TimeWindow          duration `toml:"time_window"`
	PollingInterval     duration `toml:"polling_interval"`
	AlertCooldown       duration `toml:"alert_cooldown"`
	SnapshotTTL         duration `toml:"snapshot_ttl"`
}

// AutobetConfig holds risk limits and execution switches.
type AutobetConfig struct {
	Enabled            bool    `toml:"enabled"`
	RealExecution      bool    `toml:"real_execution"`
	MinProfitThreshold float64 `toml:"min_profit_threshold"`
	MaxBetsPerDay      int     `toml:"max_bets_per_day"`
	MaxStakeFraction   float64 `toml:"max_stake_fraction"`
	DailyLossLimit     float64 `toml:"daily_loss_limit"`
}

// NotifyConfig holds notification channel credentials and quiet hours.
type NotifyConfig struct {
	TelegramToken     string `toml:"telegram_token"`
	TelegramChatID    string `toml:"telegram_chat_id"`
	DiscordWebhookURL string `toml:"discord_webhook_url"`
	QuietHoursEnabled bool   `toml:"quiet_hours_enabled"`
	QuietStartHour    int    `toml:"quiet_start_hour"`
	QuietEndHour      int    `toml:"quiet_end_hour"`
}

// ServerConfig holds the status HTTP server parameters.
type ServerConfig struct {
	Enabled bool `toml:"enabled"`
	Port    int  `toml:"port"`
}

// duration wraps time.Duration so TOML values can be written as "30s".
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Defaults returns a Config populated with sane defaults for everything
// that is not a secret.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			GammaHost:     "https://gamma-api.polymarket.com",
			ClobHost:      "https://clob.polymarket.com",
			ChainID:       137,
			Timeout:       duration{10 * time.Second},
			RetryAttempts: 3,
			RetryDelay:    duration{2 * time.Second},
			MarketLimit:   200,
		},
		Cloudbet: CloudbetConfig{
			OddsHost:      "https://sports-api.cloudbet.com/pub",
			TradingHost:   "https://sports-api.cloudbet.com",
			Currency:      "USDT",
			Timeout:       duration{10 * time.Second},
			RetryAttempts: 3,
			RetryDelay:    duration{2 * time.Second},
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "hedgebot",
			User:          "hedgebot",
			SSLMode:       "disable",
			PoolMaxConns:  4,
			PoolMinConns:  1,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 8,
		},
		S3: S3Config{
			Region:       "us-east-1",
			UseSSL:       true,
			ArchiveCron:  "0 3 * * *",
			ArchiveLimit: 1000,
		},
		Bankroll: BankrollConfig{
			Amount:        1000,
			KellyFraction: 0.5,
		},
		Arbitrage: ArbitrageConfig{
			MinProfitThreshold:  0.5,
			MinValueEdge:        0.05,
			SimilarityThreshold: 65,
			TimeWindow:          duration{7 * 24 * time.Hour},
			PollingInterval:     duration{60 * time.Second},
			AlertCooldown:       duration{30 * time.Minute},
			SnapshotTTL:         duration{10 * time.Minute},
		},
		Autobet: AutobetConfig{
			MinProfitThreshold: 1.0,
			MaxBetsPerDay:      20,
			MaxStakeFraction:   0.25,
		},
		Notify: NotifyConfig{
			QuietStartHour: 23,
			QuietEndHour:   7,
		},
		Server: ServerConfig{
			Port: 8080,
		},
		Mode:     "scan",
		LogLevel: "info",
	}
}

// Validate checks the configuration for inconsistencies that would only
// surface at runtime otherwise.
func (c *Config) Validate() error {
	var problems []string

	switch c.Mode {
	case "scan", "once", "stats":
	default:
		problems = append(problems, fmt.Sprintf("mode %q is not one of scan, once, stats", c.Mode))
	}

	if c.Bankroll.Amount <= 0 {
		problems = append(problems, "bankroll.amount must be positive")
	}
	if c.Bankroll.KellyFraction < 0 || c.Bankroll.KellyFraction > 1 {
		problems = append(problems, "bankroll.kelly_fraction must be within [0,1]")
	}

	if c.Arbitrage.SimilarityThreshold < 0 || c.Arbitrage.SimilarityThreshold > 100 {
		problems = append(problems, "arbitrage.similarity_threshold must be within [0,100]")
	}
	if c.Arbitrage.PollingInterval.Duration <= 0 {
		problems = append(problems, "arbitrage.polling_interval must be positive")
	}

	if c.Autobet.MaxStakeFraction < 0 || c.Autobet.MaxStakeFraction > 1 {
		problems = append(problems, "autobet.max_stake_fraction must be within [0,1]")
	}
	if c.Autobet.MinProfitThreshold < 0 {
		problems = append(problems, "autobet.min_profit_threshold must not be negative")
	}
	if c.Autobet.MaxBetsPerDay < 0 {
		problems = append(problems, "autobet.max_bets_per_day must not be negative")
	}
	if c.Autobet.DailyLossLimit < 0 {
		problems = append(problems, "autobet.daily_loss_limit must not be negative")
	}
	if c.Autobet.Enabled && c.Autobet.RealExecution {
		if c.Wallet.PrivateKey == "" && c.Wallet.EncryptedKeyPath == "" {
			problems = append(problems, "autobet.real_execution requires a wallet key")
		}
		if c.Cloudbet.APIKey == "" {
			problems = append(problems, "autobet.real_execution requires cloudbet.api_key")
		}
	}

	if c.Notify.QuietHoursEnabled {
		if c.Notify.QuietStartHour < 0 || c.Notify.QuietStartHour > 23 {
			problems = append(problems, "notify.quiet_start_hour must be within [0,23]")
		}
		if c.Notify.QuietEndHour < 0 || c.Notify.QuietEndHour > 23 {
			problems = append(problems, "notify.quiet_end_hour must be within [0,23]")
		}
	}

	if c.Server.Enabled && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		problems = append(problems, "server.port must be a valid TCP port")
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("log_level %q is not one of debug, info, warn, error", c.LogLevel))
	}

	if len(problems) > 0 {
		return fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}
