package domain

import (
	"context"
	"time"
)

// OpportunityRecord is the persisted form of a detected opportunity.
type OpportunityRecord struct {
	ID          int64
	Hash        string
	Kind        OpportunityKind
	MarketName  string
	EventName   string
	VenueA      Venue
	VenueB      Venue
	OddsA       float64
	OddsB       float64
	ProfitPct   float64
	Sport       string
	BetPlaced   bool
	AlertSent   bool
	RealizedPnL *float64
	DetectedAt  time.Time
}

// StoreStats summarizes the opportunity table for reporting.
type StoreStats struct {
	Total       int64
	BetsPlaced  int64
	AvgProfit   float64
	BestProfit  float64
	TotalPnL    float64
	FirstSeenAt *time.Time
	LastSeenAt  *time.Time
}

// OpportunityStore persists opportunities and enforces the dedup contract.
//
// A row counts as a true duplicate only once a bet has been placed against
// it and its odds are within 5% on both sides. An unplaced row is
// retry-friendly: InsertOrGet returns its id with inserted=false so the
// caller may attempt execution again. Odds drift beyond 5% on either side
// makes a new opportunity.
type OpportunityStore interface {
	// IsDuplicate reports whether a prior placed record exists for the same
	// market and venues with odds within 5% on both sides.
	IsDuplicate(ctx context.Context, key OpportunityKey) (bool, error)

	// InsertOrGet writes the opportunity if it is new, or returns the
	// existing retryable row. placedDup is true when a placed record
	// already covers this key; callers must treat that as a no-op.
	InsertOrGet(ctx context.Context, opp Opportunity) (id int64, inserted bool, placedDup bool, err error)

	// MarkBetPlaced is an idempotent update recording both legs settled and
	// the realized profit.
	MarkBetPlaced(ctx context.Context, id int64, realizedPnL float64) error

	// MarkAlertSent flags the row once notifications have gone out.
	MarkAlertSent(ctx context.Context, id int64) error

	// Stats aggregates the table since the given time. Zero time means all.
	Stats(ctx context.Context, since time.Time) (StoreStats, error)

	Close()
}
