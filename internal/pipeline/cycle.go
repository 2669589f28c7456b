package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/hedgebot/internal/autobet"
	"github.com/alanyoungcy/hedgebot/internal/domain"
	"github.com/alanyoungcy/hedgebot/internal/engine"
	"github.com/alanyoungcy/hedgebot/internal/match"
	"github.com/alanyoungcy/hedgebot/internal/normalize"
)

const (
	snapshotKeyExchange   = "polymarket"
	snapshotKeySportsbook = "cloudbet"
)

// SnapshotArchiver persists raw venue payloads for later inspection. Nil
// disables archival.
type SnapshotArchiver interface {
	ArchiveSnapshot(ctx context.Context, venue domain.Venue, payload []byte) error
}

// CycleStats summarizes one full scan cycle.
type CycleStats struct {
	ExchangeMarkets  int
	SportsbookEvents int
	Matched          int
	Opportunities    int
	NewRecords       int
	AlertsSent       int
	BetsPlaced       int
	Elapsed          time.Duration
}

// CycleConfig holds the per-cycle tunables.
type CycleConfig struct {
	// AlertCooldown suppresses repeat alerts for the same opportunity hash.
	AlertCooldown time.Duration
	// SnapshotTTL bounds how stale a cached venue snapshot may be before a
	// failed fetch leaves the cycle without data for that venue.
	SnapshotTTL time.Duration
}

// Cycle runs one full pass of the scan pipeline: fetch both venues, match
// events, detect and size opportunities, persist them through the dedup
// gate, alert, and hand approved arbitrages to the autobet engine.
type Cycle struct {
	cfg        CycleConfig
	exchange   domain.ExchangeSource
	sportsbook domain.SportsbookSource
	normalizer *normalize.Normalizer
	matcher    *match.Matcher
	detector   *engine.Engine
	sizer      *engine.Sizer
	store      domain.OpportunityStore
	hasher     func(domain.OpportunityKey) string
	cooldown   domain.CooldownCache
	snapshots  domain.SnapshotCache
	archiver   SnapshotArchiver
	notifier   domain.Notifier
	autobet    *autobet.Engine
	logger     *slog.Logger
}

// NewCycle wires a Cycle. cooldown, snapshots, archiver, notifier and
// autobet may be nil; the corresponding step is skipped.
func NewCycle(
	cfg CycleConfig,
	exchange domain.ExchangeSource,
	sportsbook domain.SportsbookSource,
	normalizer *normalize.Normalizer,
	matcher *match.Matcher,
	detector *engine.Engine,
	sizer *engine.Sizer,
	store domain.OpportunityStore,
	hasher func(domain.OpportunityKey) string,
	cooldown domain.CooldownCache,
	snapshots domain.SnapshotCache,
	archiver SnapshotArchiver,
	notifier domain.Notifier,
	autobetEngine *autobet.Engine,
	logger *slog.Logger,
) *Cycle {
	return &Cycle{
		cfg:        cfg,
		exchange:   exchange,
		sportsbook: sportsbook,
		normalizer: normalizer,
		matcher:    matcher,
		detector:   detector,
		sizer:      sizer,
		store:      store,
		hasher:     hasher,
		cooldown:   cooldown,
		snapshots:  snapshots,
		archiver:   archiver,
		notifier:   notifier,
		autobet:    autobetEngine,
		logger:     logger.With(slog.String("component", "cycle")),
	}
}

// RunOnce executes a single scan cycle. It returns an error only when both
// venues yield no data at all; partial failures fall back to cached
// snapshots and are otherwise logged and tolerated.
func (c *Cycle) RunOnce(ctx context.Context) (CycleStats, error) {
	start := time.Now()
	var stats CycleStats

	rawMarkets, rawOutcomes, err := c.fetchBoth(ctx)
	if err != nil {
		return stats, err
	}
	stats.ExchangeMarkets = len(rawMarkets)

	markets := c.normalizer.ExchangeMarkets(rawMarkets)
	events := c.normalizer.SportEvents(rawOutcomes)
	stats.SportsbookEvents = len(events)

	matched := c.matcher.Match(markets, events)
	stats.Matched = len(matched)

	opps := c.detector.Detect(matched)
	stats.Opportunities = len(opps)

	for _, opp := range opps {
		sized := c.sizer.Apply(opp)

		id, inserted, placedDup, err := c.store.InsertOrGet(ctx, sized)
		if err != nil {
			c.logger.Error("persisting opportunity failed",
				slog.String("market", sized.Key().MarketName),
				slog.String("error", err.Error()),
			)
			continue
		}
		if placedDup {
			c.logger.Debug("skipping already-placed opportunity",
				slog.String("market", sized.Key().MarketName),
			)
			continue
		}
		if inserted {
			stats.NewRecords++
		}

		if c.alert(ctx, sized, id) {
			stats.AlertsSent++
		}

		if c.autobet != nil {
			result, err := c.autobet.Process(ctx, sized, id)
			if err != nil {
				c.logger.Error("autobet processing failed",
					slog.String("market", sized.Key().MarketName),
					slog.String("error", err.Error()),
				)
			}
			switch result {
			case autobet.ResultSimulated, autobet.ResultRecorded, autobet.ResultUnhedged:
				stats.BetsPlaced++
			}
		}
	}

	stats.Elapsed = time.Since(start)
	c.logger.Info("cycle finished",
		slog.Int("exchange_markets", stats.ExchangeMarkets),
		slog.Int("sportsbook_events", stats.SportsbookEvents),
		slog.Int("matched", stats.Matched),
		slog.Int("opportunities", stats.Opportunities),
		slog.Int("new_records", stats.NewRecords),
		slog.Int("alerts_sent", stats.AlertsSent),
		slog.Int("bets_placed", stats.BetsPlaced),
		slog.Duration("elapsed", stats.Elapsed),
	)
	return stats, nil
}

// fetchBoth pulls both venues concurrently. A failed venue falls back to
// its cached snapshot; only both venues coming up empty fails the cycle.
func (c *Cycle) fetchBoth(ctx context.Context) ([]domain.RawExchangeMarket, []domain.RawSportOutcome, error) {
	var (
		rawMarkets  []domain.RawExchangeMarket
		rawOutcomes []domain.RawSportOutcome
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		markets, err := c.exchange.FetchMarkets(gctx)
		if err != nil {
			c.logger.Warn("exchange fetch failed, trying cached snapshot",
				slog.String("error", err.Error()),
			)
			rawMarkets = snapshotFallback[domain.RawExchangeMarket](gctx, c.snapshots, snapshotKeyExchange, c.logger)
			return nil
		}
		rawMarkets = markets
		c.storeSnapshot(gctx, domain.VenuePolymarket, snapshotKeyExchange, markets)
		return nil
	})
	g.Go(func() error {
		outcomes, err := c.sportsbook.FetchOutcomes(gctx)
		if err != nil {
			c.logger.Warn("sportsbook fetch failed, trying cached snapshot",
				slog.String("error", err.Error()),
			)
			rawOutcomes = snapshotFallback[domain.RawSportOutcome](gctx, c.snapshots, snapshotKeySportsbook, c.logger)
			return nil
		}
		rawOutcomes = outcomes
		c.storeSnapshot(gctx, domain.VenueCloudbet, snapshotKeySportsbook, outcomes)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	if len(rawMarkets) == 0 && len(rawOutcomes) == 0 {
		return nil, nil, fmt.Errorf("pipeline: no data from either venue")
	}
	return rawMarkets, rawOutcomes, nil
}

// storeSnapshot caches and archives a fetched payload. Failures here never
// fail the cycle.
func (c *Cycle) storeSnapshot(ctx context.Context, venue domain.Venue, key string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error("snapshot marshal failed", slog.String("venue", string(venue)), slog.String("error", err.Error()))
		return
	}
	if c.snapshots != nil {
		if err := c.snapshots.Put(ctx, key, data, c.cfg.SnapshotTTL); err != nil {
			c.logger.Warn("snapshot cache write failed",
				slog.String("venue", string(venue)),
				slog.String("error", err.Error()),
			)
		}
	}
	if c.archiver != nil {
		if err := c.archiver.ArchiveSnapshot(ctx, venue, data); err != nil {
			c.logger.Warn("snapshot archive failed",
				slog.String("venue", string(venue)),
				slog.String("error", err.Error()),
			)
		}
	}
}

// snapshotFallback loads the last cached payload for a venue. A miss or a
// decode failure yields nil, meaning no data for the venue this cycle.
func snapshotFallback[T any](ctx context.Context, cache domain.SnapshotCache, key string, logger *slog.Logger) []T {
	if cache == nil {
		return nil
	}
	data, err := cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("snapshot cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return nil
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		logger.Warn("snapshot decode failed", slog.String("key", key), slog.String("error", err.Error()))
		return nil
	}
	logger.Info("using cached snapshot", slog.String("key", key), slog.Int("records", len(out)))
	return out
}

// alert sends the opportunity notification unless the per-hash cooldown is
// still armed, and marks the row on success. Returns true when an alert
// went out.
func (c *Cycle) alert(ctx context.Context, opp domain.Opportunity, recordID int64) bool {
	if c.notifier == nil {
		return false
	}

	if c.cooldown != nil && c.cfg.AlertCooldown > 0 {
		hash := c.hasher(opp.Key())
		acquired, err := c.cooldown.Acquire(ctx, hash, c.cfg.AlertCooldown)
		if err != nil {
			// Cooldown errors degrade to alerting; losing alerts is worse
			// than an occasional repeat.
			c.logger.Warn("alert cooldown check failed", slog.String("error", err.Error()))
		} else if !acquired {
			c.logger.Debug("alert suppressed by cooldown",
				slog.String("market", opp.Key().MarketName),
			)
			return false
		}
	}

	subject, body := FormatAlert(opp)
	if err := c.notifier.Notify(ctx, subject, body); err != nil {
		c.logger.Warn("alert delivery failed",
			slog.String("market", opp.Key().MarketName),
			slog.String("error", err.Error()),
		)
		return false
	}
	if err := c.store.MarkAlertSent(ctx, recordID); err != nil {
		c.logger.Warn("marking alert sent failed",
			slog.Int64("record_id", recordID),
			slog.String("error", err.Error()),
		)
	}
	return true
}
