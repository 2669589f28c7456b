package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	s3blob "github.com/alanyoungcy/hedgebot/internal/blob/s3"
	"github.com/alanyoungcy/hedgebot/internal/cache/redis"
	"github.com/alanyoungcy/hedgebot/internal/config"
	"github.com/alanyoungcy/hedgebot/internal/crypto"
	"github.com/alanyoungcy/hedgebot/internal/domain"
	"github.com/alanyoungcy/hedgebot/internal/notify"
	"github.com/alanyoungcy/hedgebot/internal/platform/cloudbet"
	"github.com/alanyoungcy/hedgebot/internal/platform/polymarket"
	"github.com/alanyoungcy/hedgebot/internal/store/postgres"
)

// Dependencies bundles every concrete dependency the application modes need.
// It is constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Store     *postgres.OpportunityStore
	Cooldown  *redis.CooldownCache
	Snapshots *redis.SnapshotCache

	// BlobArchiver is nil when S3 is not configured.
	BlobArchiver *s3blob.Archiver

	Notifier *notify.Notifier

	Exchange   *polymarket.GammaClient
	Sportsbook *cloudbet.FeedClient

	// Executors are nil unless autobet real execution is enabled.
	ExchangeExec   domain.ExchangeExecutor
	SportsbookExec domain.SportsbookExecutor
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}
	deps.Store = postgres.NewOpportunityStore(pgClient, logger)

	// --- Redis ---
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

	deps.Cooldown = redis.NewCooldownCache(redisClient)
	deps.Snapshots = redis.NewSnapshotCache(redisClient)

	// --- S3 blob storage (optional; bucket unset disables archival) ---
	if cfg.S3.Bucket != "" {
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
		closers = append(closers, func() { _ = s3Client.Close() })

		writer := s3blob.NewWriter(s3Client, "application/json")
		deps.BlobArchiver = s3blob.NewArchiver(writer, deps.Store, domain.ClockFunc(time.Now), logger)
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
	quiet := notify.QuietHours{}
	if cfg.Notify.QuietHoursEnabled {
		quiet = notify.QuietHours{
			StartHour: cfg.Notify.QuietStartHour,
			EndHour:   cfg.Notify.QuietEndHour,
		}
	}
	deps.Notifier = notify.NewNotifier(senders, quiet, domain.ClockFunc(time.Now), logger)

	// --- Venue feeds ---
	deps.Exchange = polymarket.NewGammaClient(polymarket.GammaConfig{
		BaseURL:       cfg.Polymarket.GammaHost,
		Timeout:       cfg.Polymarket.Timeout.Duration,
		RetryAttempts: cfg.Polymarket.RetryAttempts,
		RetryDelay:    cfg.Polymarket.RetryDelay.Duration,
		MarketLimit:   cfg.Polymarket.MarketLimit,
	}, logger)
	closers = append(closers, func() { _ = deps.Exchange.Close() })

	deps.Sportsbook = cloudbet.NewFeedClient(cloudbet.FeedConfig{
		BaseURL:       cfg.Cloudbet.OddsHost,
		APIKey:        cfg.Cloudbet.APIKey,
		Timeout:       cfg.Cloudbet.Timeout.Duration,
		RetryAttempts: cfg.Cloudbet.RetryAttempts,
		RetryDelay:    cfg.Cloudbet.RetryDelay.Duration,
	}, logger)
	closers = append(closers, func() { _ = deps.Sportsbook.Close() })

	// --- Execution clients (real autobet only) ---
	if cfg.Autobet.Enabled && cfg.Autobet.RealExecution {
		key, err := crypto.LoadKey(crypto.KeyConfig{
			RawPrivateKey:    cfg.Wallet.PrivateKey,
			EncryptedKeyPath: cfg.Wallet.EncryptedKeyPath,
			KeyPassword:      cfg.Wallet.KeyPassword,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: wallet key: %w", err)
		}
		signer, err := crypto.NewSigner(key, cfg.Polymarket.ChainID)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: signer: %w", err)
		}
		deps.ExchangeExec = polymarket.NewClobClient(cfg.Polymarket.ClobHost, signer, nil, logger)

		trading := cloudbet.NewTradingClient(cloudbet.TradingConfig{
			BaseURL:  cfg.Cloudbet.TradingHost,
			APIKey:   cfg.Cloudbet.APIKey,
			Currency: cfg.Cloudbet.Currency,
			Timeout:  cfg.Cloudbet.Timeout.Duration,
		}, logger)
		closers = append(closers, func() { _ = trading.Close() })
		deps.SportsbookExec = trading
	}

	return deps, cleanup, nil
}
