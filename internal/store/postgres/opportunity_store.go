package postgres

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

// maxOddsDrift is the relative odds movement beyond which a previously
// placed opportunity counts as a fresh one.
const maxOddsDrift = 0.05

// querier is the subset of pgxpool.Pool the store uses. Tests substitute
// a mock implementation.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// OpportunityStore persists detected opportunities and enforces the
// dedup contract: a placed record with odds within 5% on both sides
// blocks re-entry, an unplaced record is always eligible for retry.
type OpportunityStore struct {
	db     querier
	logger *slog.Logger
}

var _ domain.OpportunityStore = (*OpportunityStore)(nil)

// NewOpportunityStore creates a store backed by the given client.
func NewOpportunityStore(client *Client, logger *slog.Logger) *OpportunityStore {
	return &OpportunityStore{
		db:     client.Pool(),
		logger: logger.With(slog.String("component", "opportunity_store")),
	}
}

// OpportunityHash derives the exact-duplicate identity for an opportunity:
// market name, both venues, and both odds rounded to 1e-6.
func OpportunityHash(key domain.OpportunityKey) string {
	raw := fmt.Sprintf("%s|%s|%s|%.6f|%.6f",
		key.MarketName, key.VenueA, key.VenueB, key.OddsA, key.OddsB)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func withinDrift(current, stored float64) bool {
	if stored == 0 {
		return false
	}
	return math.Abs(current-stored)/stored <= maxOddsDrift
}

// IsDuplicate reports whether a placed record exists for the same market
// and venue pair with both odds within 5% of the given key.
func (s *OpportunityStore) IsDuplicate(ctx context.Context, key domain.OpportunityKey) (bool, error) {
	_, found, err := s.findPlacedMatch(ctx, key)
	return found, err
}

func (s *OpportunityStore) findPlacedMatch(ctx context.Context, key domain.OpportunityKey) (int64, bool, error) {
	const query = `
		SELECT id, odds_a, odds_b
		FROM arbitrage_events
		WHERE market_name = $1 AND venue_a = $2 AND venue_b = $3 AND bet_placed = TRUE
		ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, query, key.MarketName, string(key.VenueA), string(key.VenueB))
	if err != nil {
		return 0, false, fmt.Errorf("postgres: query placed opportunities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id           int64
			oddsA, oddsB float64
		)
		if err := rows.Scan(&id, &oddsA, &oddsB); err != nil {
			return 0, false, fmt.Errorf("postgres: scan placed opportunity: %w", err)
		}
		if withinDrift(key.OddsA, oddsA) && withinDrift(key.OddsB, oddsB) {
			return id, true, nil
		}
	}
	if err := rows.Err(); err != nil {
		return 0, false, fmt.Errorf("postgres: iterate placed opportunities: %w", err)
	}
	return 0, false, nil
}

// InsertOrGet stores a new opportunity or resolves it against prior
// records. It returns the existing row id for an unplaced exact
// duplicate (retry-friendly), reports placedDup for records already
// acted on, and otherwise inserts a fresh row.
func (s *OpportunityStore) InsertOrGet(ctx context.Context, opp domain.Opportunity) (int64, bool, bool, error) {
	key := opp.Key()
	hash := OpportunityHash(key)

	var (
		id     int64
		placed bool
	)
	err := s.db.QueryRow(ctx,
		"SELECT id, bet_placed FROM arbitrage_events WHERE opportunity_hash = $1",
		hash,
	).Scan(&id, &placed)
	switch {
	case err == nil:
		if placed {
			return id, false, true, nil
		}
		return id, false, false, nil
	case !errors.Is(err, pgx.ErrNoRows):
		return 0, false, false, fmt.Errorf("postgres: lookup opportunity hash: %w", err)
	}

	if matchID, found, err := s.findPlacedMatch(ctx, key); err != nil {
		return 0, false, false, err
	} else if found {
		return matchID, false, true, nil
	}

	rec := recordFields(opp)
	const insert = `
		INSERT INTO arbitrage_events (
			detected_at, kind, market_name, event_name,
			venue_a, venue_b, odds_a, odds_b, profit_percentage, sport,
			bet_amount_a, bet_amount_b, total_capital, guaranteed_profit,
			opportunity_hash
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`
	err = s.db.QueryRow(ctx, insert,
		rec.detectedAt, string(opp.Kind()), key.MarketName, rec.eventName,
		string(key.VenueA), string(key.VenueB), key.OddsA, key.OddsB, rec.profitPct, rec.sport,
		rec.betAmountA, rec.betAmountB, rec.totalCapital, rec.guaranteedProfit,
		hash,
	).Scan(&id)
	if err != nil {
		return 0, false, false, fmt.Errorf("postgres: insert opportunity: %w", err)
	}

	s.logger.Debug("opportunity stored",
		slog.Int64("id", id),
		slog.String("market", key.MarketName),
		slog.Float64("profit_pct", rec.profitPct))
	return id, true, false, nil
}

type insertFields struct {
	detectedAt       time.Time
	eventName        string
	profitPct        float64
	sport            string
	betAmountA       *float64
	betAmountB       *float64
	totalCapital     *float64
	guaranteedProfit *float64
}

func recordFields(opp domain.Opportunity) insertFields {
	switch o := opp.(type) {
	case domain.Arbitrage:
		f := insertFields{
			detectedAt: o.DetectedAt,
			eventName:  o.EventName,
			profitPct:  o.ProfitPct,
			sport:      o.Sport,
		}
		if o.Stakes != nil {
			f.betAmountA = &o.Stakes.StakeA
			f.betAmountB = &o.Stakes.StakeB
			f.totalCapital = &o.Stakes.TotalCapital
			f.guaranteedProfit = &o.Stakes.GuaranteedProfit
		}
		return f
	case domain.ValueEdge:
		f := insertFields{
			detectedAt: o.DetectedAt,
			eventName:  o.EventName,
			profitPct:  o.EdgePct,
			sport:      o.Sport,
		}
		if o.Stake > 0 {
			f.betAmountA = &o.Stake
		}
		return f
	default:
		return insertFields{detectedAt: time.Now()}
	}
}

// MarkBetPlaced records that both hedge legs (or the simulated
// equivalent) went through for the given row. Idempotent.
func (s *OpportunityStore) MarkBetPlaced(ctx context.Context, id int64, realizedPnL float64) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE arbitrage_events SET bet_placed = TRUE, realized_pnl = $2 WHERE id = $1",
		id, realizedPnL,
	)
	if err != nil {
		return fmt.Errorf("postgres: mark bet placed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkAlertSent flags the row as already alerted. Idempotent.
func (s *OpportunityStore) MarkAlertSent(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE arbitrage_events SET alert_sent = TRUE WHERE id = $1",
		id,
	)
	if err != nil {
		return fmt.Errorf("postgres: mark alert sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Stats aggregates stored opportunities detected at or after since.
func (s *OpportunityStore) Stats(ctx context.Context, since time.Time) (domain.StoreStats, error) {
	const query = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE bet_placed),
			COALESCE(AVG(profit_percentage), 0),
			COALESCE(MAX(profit_percentage), 0),
			COALESCE(SUM(realized_pnl), 0),
			MIN(detected_at),
			MAX(detected_at)
		FROM arbitrage_events
		WHERE detected_at >= $1`

	var stats domain.StoreStats
	err := s.db.QueryRow(ctx, query, since).Scan(
		&stats.Total,
		&stats.BetsPlaced,
		&stats.AvgProfit,
		&stats.BestProfit,
		&stats.TotalPnL,
		&stats.FirstSeenAt,
		&stats.LastSeenAt,
	)
	if err != nil {
		return domain.StoreStats{}, fmt.Errorf("postgres: opportunity stats: %w", err)
	}
	return stats, nil
}

// Recent returns the most recently detected records, newest first.
func (s *OpportunityStore) Recent(ctx context.Context, limit int) ([]domain.OpportunityRecord, error) {
	const query = `
		SELECT id, opportunity_hash, kind, market_name, event_name,
			venue_a, venue_b, odds_a, odds_b, profit_percentage, sport,
			bet_placed, alert_sent, realized_pnl, detected_at
		FROM arbitrage_events
		ORDER BY detected_at DESC
		LIMIT $1`

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: query recent opportunities: %w", err)
	}
	defer rows.Close()

	var records []domain.OpportunityRecord
	for rows.Next() {
		var (
			rec            domain.OpportunityRecord
			venueA, venueB string
			kind           string
		)
		if err := rows.Scan(
			&rec.ID, &rec.Hash, &kind, &rec.MarketName, &rec.EventName,
			&venueA, &venueB, &rec.OddsA, &rec.OddsB, &rec.ProfitPct, &rec.Sport,
			&rec.BetPlaced, &rec.AlertSent, &rec.RealizedPnL, &rec.DetectedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan opportunity record: %w", err)
		}
		rec.Kind = domain.OpportunityKind(kind)
		rec.VenueA = domain.Venue(venueA)
		rec.VenueB = domain.Venue(venueB)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate opportunity records: %w", err)
	}
	return records, nil
}

// Close releases the underlying pool. Shared with the Client, so only
// call once at shutdown.
func (s *OpportunityStore) Close() {
	s.db.Close()
}
