package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/hedgebot/internal/autobet"
	"github.com/alanyoungcy/hedgebot/internal/domain"
	"github.com/alanyoungcy/hedgebot/internal/engine"
	"github.com/alanyoungcy/hedgebot/internal/match"
	"github.com/alanyoungcy/hedgebot/internal/normalize"
	"github.com/alanyoungcy/hedgebot/internal/pipeline"
	"github.com/alanyoungcy/hedgebot/internal/server"
	"github.com/alanyoungcy/hedgebot/internal/store/postgres"
)

// buildCycle assembles the scan pipeline from wired dependencies.
func (a *App) buildCycle(deps *Dependencies) *pipeline.Cycle {
	normalizer := normalize.New(a.logger)
	matcher := match.NewMatcher(
		a.cfg.Arbitrage.SimilarityThreshold,
		a.cfg.Arbitrage.TimeWindow.Duration,
		a.logger,
	)
	detector := engine.New(
		a.cfg.Arbitrage.MinValueEdge,
		a.cfg.Arbitrage.MinProfitThreshold,
		domain.ClockFunc(time.Now),
		a.logger,
	)
	sizer := engine.NewSizer(a.cfg.Bankroll.Amount, a.cfg.Bankroll.KellyFraction, a.logger)

	var autobetEngine *autobet.Engine
	if a.cfg.Autobet.Enabled {
		autobetEngine = autobet.NewEngine(
			autobet.Config{
				Enabled:            true,
				RealExecution:      a.cfg.Autobet.RealExecution,
				MinProfitThreshold: a.cfg.Autobet.MinProfitThreshold,
				MaxBetsPerDay:      a.cfg.Autobet.MaxBetsPerDay,
				DailyLossLimit:     a.cfg.Autobet.DailyLossLimit,
				Bankroll:           a.cfg.Bankroll.Amount,
				MaxStakeFraction:   a.cfg.Autobet.MaxStakeFraction,
			},
			deps.Store,
			deps.ExchangeExec,
			deps.SportsbookExec,
			deps.Notifier,
			autobet.NewRiskState(domain.ClockFunc(time.Now)),
			a.logger,
		)
	}

	var archiver pipeline.SnapshotArchiver
	if deps.BlobArchiver != nil {
		archiver = deps.BlobArchiver
	}

	return pipeline.NewCycle(
		pipeline.CycleConfig{
			AlertCooldown: a.cfg.Arbitrage.AlertCooldown.Duration,
			SnapshotTTL:   a.cfg.Arbitrage.SnapshotTTL.Duration,
		},
		deps.Exchange,
		deps.Sportsbook,
		normalizer,
		matcher,
		detector,
		sizer,
		deps.Store,
		postgres.OpportunityHash,
		deps.Cooldown,
		deps.Snapshots,
		archiver,
		deps.Notifier,
		autobetEngine,
		a.logger,
	)
}

// ScanMode runs the polling scan loop, the history archiver when blob
// storage is configured, and the status HTTP server when enabled.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scan mode",
		slog.Duration("polling_interval", a.cfg.Arbitrage.PollingInterval.Duration),
		slog.Bool("autobet", a.cfg.Autobet.Enabled),
		slog.Bool("real_execution", a.cfg.Autobet.RealExecution),
	)

	g, ctx := errgroup.WithContext(ctx)

	var historyArchiver *pipeline.HistoryArchiver
	if deps.BlobArchiver != nil {
		historyArchiver = pipeline.NewHistoryArchiver(
			deps.BlobArchiver,
			a.cfg.S3.ArchiveLimit,
			a.cfg.S3.ArchiveCron,
			a.logger,
		)
	}

	orch := pipeline.NewOrchestrator(
		a.buildCycle(deps),
		historyArchiver,
		a.cfg.Arbitrage.PollingInterval.Duration,
		a.logger,
	)
	g.Go(func() error {
		err := orch.Run(ctx)
		if ctx.Err() != nil {
			return nil // clean shutdown
		}
		return err
	})

	if a.cfg.Server.Enabled {
		srv := server.New(server.Config{
			Port:           a.cfg.Server.Port,
			Mode:           a.cfg.Mode,
			AutobetEnabled: a.cfg.Autobet.Enabled,
			RealExecution:  a.cfg.Autobet.RealExecution,
		}, deps.Store, a.logger)
		g.Go(func() error {
			return srv.Run(ctx)
		})
	}

	return g.Wait()
}

// OnceMode runs a single scan cycle and exits.
func (a *App) OnceMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting single-cycle mode")

	stats, err := a.buildCycle(deps).RunOnce(ctx)
	if err != nil {
		return fmt.Errorf("once mode: %w", err)
	}

	a.logger.InfoContext(ctx, "cycle complete",
		slog.Int("matched", stats.Matched),
		slog.Int("opportunities", stats.Opportunities),
		slog.Int("new_records", stats.NewRecords),
		slog.Int("alerts_sent", stats.AlertsSent),
		slog.Int("bets_placed", stats.BetsPlaced),
	)
	return nil
}

// StatsMode prints aggregate statistics from the opportunity ledger and
// exits.
func (a *App) StatsMode(ctx context.Context, deps *Dependencies) error {
	windows := []struct {
		label string
		since time.Duration
	}{
		{"24h", 24 * time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{"all", 0},
	}

	now := time.Now().UTC()
	for _, w := range windows {
		since := time.Time{}
		if w.since > 0 {
			since = now.Add(-w.since)
		}
		stats, err := deps.Store.Stats(ctx, since)
		if err != nil {
			return fmt.Errorf("stats mode: window %s: %w", w.label, err)
		}
		a.logger.InfoContext(ctx, "opportunity stats",
			slog.String("window", w.label),
			slog.Int64("total", stats.Total),
			slog.Int64("bets_placed", stats.BetsPlaced),
			slog.Float64("avg_profit", stats.AvgProfit),
			slog.Float64("best_profit", stats.BestProfit),
			slog.Float64("total_pnl", stats.TotalPnL),
		)
	}
	return nil
}
