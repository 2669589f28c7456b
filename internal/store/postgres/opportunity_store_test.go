package postgres

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleArbitrage() domain.Arbitrage {
	start := time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)
	return domain.Arbitrage{
		ID:           "op-1",
		MarketName:   "Lakers vs Warriors",
		EventName:    "Los Angeles Lakers vs Golden State Warriors",
		Team:         "Lakers",
		OppositeTeam: "Warriors",
		OddsA:        2.41,
		OddsB:        2.05,
		TotalProb:    0.9027,
		ProfitPct:    10.77,
		Sport:        "basketball",
		StartTime:    &start,
		Stakes: &domain.StakePlan{
			StakeA:           459.64,
			StakeB:           540.36,
			TotalCapital:     1000,
			GuaranteedProfit: 107.7,
		},
		DetectedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func mockedStore(t *testing.T) (*OpportunityStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &OpportunityStore{db: mock, logger: testLogger()}, mock
}

func TestOpportunityHashIdentity(t *testing.T) {
	key := domain.OpportunityKey{
		MarketName: "Lakers vs Warriors",
		VenueA:     domain.VenuePolymarket,
		VenueB:     domain.VenueCloudbet,
		OddsA:      2.41,
		OddsB:      2.05,
	}

	h1 := OpportunityHash(key)
	h2 := OpportunityHash(key)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)

	// Sub-1e-6 odds movement rounds to the same identity.
	nudged := key
	nudged.OddsA += 0.0000004
	assert.Equal(t, h1, OpportunityHash(nudged))

	moved := key
	moved.OddsA = 2.42
	assert.NotEqual(t, h1, OpportunityHash(moved))
}

func TestWithinDrift(t *testing.T) {
	assert.True(t, withinDrift(2.05, 2.05))
	assert.True(t, withinDrift(2.10, 2.05))
	assert.False(t, withinDrift(2.41, 2.05))
	assert.False(t, withinDrift(1.80, 2.05))
	assert.False(t, withinDrift(2.0, 0))
}

// Opportunities travel through the pipeline as interface-held values, not
// pointers, so the record mapping must match on the value variants.
func TestRecordFieldsArbitrageValue(t *testing.T) {
	arb := sampleArbitrage()
	var opp domain.Opportunity = arb

	f := recordFields(opp)

	assert.Equal(t, arb.DetectedAt, f.detectedAt)
	assert.Equal(t, arb.EventName, f.eventName)
	assert.Equal(t, 10.77, f.profitPct)
	assert.Equal(t, "basketball", f.sport)
	require.NotNil(t, f.betAmountA)
	require.NotNil(t, f.betAmountB)
	require.NotNil(t, f.totalCapital)
	require.NotNil(t, f.guaranteedProfit)
	assert.Equal(t, 459.64, *f.betAmountA)
	assert.Equal(t, 540.36, *f.betAmountB)
	assert.Equal(t, 1000.0, *f.totalCapital)
	assert.Equal(t, 107.7, *f.guaranteedProfit)
}

func TestRecordFieldsValueEdgeValue(t *testing.T) {
	var opp domain.Opportunity = domain.ValueEdge{
		MarketName: "Celtics vs Heat",
		EventName:  "Boston Celtics vs Miami Heat",
		Team:       "Celtics",
		EdgePct:    7.5,
		OddsA:      2.20,
		OddsB:      1.95,
		Sport:      "basketball",
		Stake:      25,
		DetectedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}

	f := recordFields(opp)

	assert.Equal(t, "Boston Celtics vs Miami Heat", f.eventName)
	assert.Equal(t, 7.5, f.profitPct)
	assert.Equal(t, "basketball", f.sport)
	require.NotNil(t, f.betAmountA)
	assert.Equal(t, 25.0, *f.betAmountA)
	assert.Nil(t, f.betAmountB)
	assert.Nil(t, f.totalCapital)
}

func TestInsertOrGetInsertsNewRow(t *testing.T) {
	store, mock := mockedStore(t)
	arb := sampleArbitrage()
	hash := OpportunityHash(arb.Key())

	mock.ExpectQuery("SELECT id, bet_placed FROM arbitrage_events").
		WithArgs(hash).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("SELECT id, odds_a, odds_b").
		WithArgs(arb.MarketName, "polymarket", "cloudbet").
		WillReturnRows(pgxmock.NewRows([]string{"id", "odds_a", "odds_b"}))
	mock.ExpectQuery("INSERT INTO arbitrage_events").
		WithArgs(
			arb.DetectedAt, "arbitrage", arb.MarketName, arb.EventName,
			"polymarket", "cloudbet", 2.41, 2.05, 10.77, "basketball",
			&arb.Stakes.StakeA, &arb.Stakes.StakeB,
			&arb.Stakes.TotalCapital, &arb.Stakes.GuaranteedProfit,
			hash,
		).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

	id, inserted, placedDup, err := store.InsertOrGet(context.Background(), arb)

	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.True(t, inserted)
	assert.False(t, placedDup)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertOrGetReturnsRetryableDuplicate(t *testing.T) {
	store, mock := mockedStore(t)
	arb := sampleArbitrage()
	hash := OpportunityHash(arb.Key())

	mock.ExpectQuery("SELECT id, bet_placed FROM arbitrage_events").
		WithArgs(hash).
		WillReturnRows(pgxmock.NewRows([]string{"id", "bet_placed"}).AddRow(int64(7), false))

	id, inserted, placedDup, err := store.InsertOrGet(context.Background(), arb)

	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.False(t, inserted)
	assert.False(t, placedDup)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertOrGetSkipsPlacedExactDuplicate(t *testing.T) {
	store, mock := mockedStore(t)
	arb := sampleArbitrage()
	hash := OpportunityHash(arb.Key())

	mock.ExpectQuery("SELECT id, bet_placed FROM arbitrage_events").
		WithArgs(hash).
		WillReturnRows(pgxmock.NewRows([]string{"id", "bet_placed"}).AddRow(int64(7), true))

	id, inserted, placedDup, err := store.InsertOrGet(context.Background(), arb)

	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.False(t, inserted)
	assert.True(t, placedDup)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertOrGetBlocksPlacedRecordWithinDrift(t *testing.T) {
	store, mock := mockedStore(t)
	arb := sampleArbitrage()
	hash := OpportunityHash(arb.Key())

	mock.ExpectQuery("SELECT id, bet_placed FROM arbitrage_events").
		WithArgs(hash).
		WillReturnError(pgx.ErrNoRows)
	// Placed record with both odds inside the 5% band covers this key.
	mock.ExpectQuery("SELECT id, odds_a, odds_b").
		WithArgs(arb.MarketName, "polymarket", "cloudbet").
		WillReturnRows(pgxmock.NewRows([]string{"id", "odds_a", "odds_b"}).
			AddRow(int64(9), 2.40, 2.08))

	id, inserted, placedDup, err := store.InsertOrGet(context.Background(), arb)

	require.NoError(t, err)
	assert.Equal(t, int64(9), id)
	assert.False(t, inserted)
	assert.True(t, placedDup)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertOrGetDriftedOddsMakeNewRow(t *testing.T) {
	store, mock := mockedStore(t)
	arb := sampleArbitrage()
	hash := OpportunityHash(arb.Key())

	mock.ExpectQuery("SELECT id, bet_placed FROM arbitrage_events").
		WithArgs(hash).
		WillReturnError(pgx.ErrNoRows)
	// The prior placed record drifted beyond 5% on the exchange leg.
	mock.ExpectQuery("SELECT id, odds_a, odds_b").
		WithArgs(arb.MarketName, "polymarket", "cloudbet").
		WillReturnRows(pgxmock.NewRows([]string{"id", "odds_a", "odds_b"}).
			AddRow(int64(9), 2.10, 2.05))
	mock.ExpectQuery("INSERT INTO arbitrage_events").
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(43)))

	id, inserted, placedDup, err := store.InsertOrGet(context.Background(), arb)

	require.NoError(t, err)
	assert.Equal(t, int64(43), id)
	assert.True(t, inserted)
	assert.False(t, placedDup)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkBetPlacedUnknownID(t *testing.T) {
	store, mock := mockedStore(t)

	mock.ExpectExec("UPDATE arbitrage_events SET bet_placed").
		WithArgs(int64(99), 4.2).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.MarkBetPlaced(context.Background(), 99, 4.2)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
