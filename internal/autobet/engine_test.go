package autobet

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

type fakeStore struct {
	marked   []int64
	pnls     []float64
	markErr  error
	isDupErr error
}

func (f *fakeStore) IsDuplicate(context.Context, domain.OpportunityKey) (bool, error) {
	return false, f.isDupErr
}

func (f *fakeStore) InsertOrGet(context.Context, domain.Opportunity) (int64, bool, bool, error) {
	return 1, true, false, nil
}

func (f *fakeStore) MarkBetPlaced(_ context.Context, id int64, pnl float64) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.marked = append(f.marked, id)
	f.pnls = append(f.pnls, pnl)
	return nil
}

func (f *fakeStore) MarkAlertSent(context.Context, int64) error { return nil }

func (f *fakeStore) Stats(context.Context, time.Time) (domain.StoreStats, error) {
	return domain.StoreStats{}, nil
}

func (f *fakeStore) Close() {}

type fakeExchange struct {
	calls int
	err   error
	token string
	price float64
	size  float64
}

func (f *fakeExchange) PlaceOrder(_ context.Context, tokenID string, _ domain.OrderSide, price, size float64) (domain.BetResult, error) {
	f.calls++
	f.token, f.price, f.size = tokenID, price, size
	if f.err != nil {
		return domain.BetResult{}, f.err
	}
	return domain.BetResult{OrderID: "ex-1", Venue: domain.VenuePolymarket}, nil
}

type fakeSportsbook struct {
	calls int
	err   error
	stake float64
	odds  float64
}

func (f *fakeSportsbook) PlaceBet(_ context.Context, _, _, _ string, stake, odds float64) (domain.BetResult, error) {
	f.calls++
	f.stake, f.odds = stake, odds
	if f.err != nil {
		return domain.BetResult{}, f.err
	}
	return domain.BetResult{OrderID: "sb-1", Venue: domain.VenueCloudbet}, nil
}

type fakeNotifier struct {
	criticals []string
}

func (f *fakeNotifier) Notify(context.Context, string, string) error { return nil }

func (f *fakeNotifier) Critical(_ context.Context, subject, _ string) error {
	f.criticals = append(f.criticals, subject)
	return nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func enabledConfig() Config {
	return Config{
		Enabled:            true,
		RealExecution:      true,
		MinProfitThreshold: 1.0,
		MaxBetsPerDay:      5,
		DailyLossLimit:     100,
		Bankroll:           1000,
		MaxStakeFraction:   1.0,
	}
}

func testArb() domain.Arbitrage {
	return domain.Arbitrage{
		ID:                    "opp-1",
		MarketName:            "Will the Lakers beat the Warriors?",
		Team:                  "Lakers",
		OppositeTeam:          "Warriors",
		OddsA:                 2.41,
		OddsB:                 2.05,
		ProfitPct:             10.77,
		ExchangeTokenID:       "tok-yes",
		SportsbookEventID:     "ev-9",
		SportsbookMarketURL:   "basketball.moneyline",
		SportsbookSelectionID: "sel-2",
		Stakes: &domain.StakePlan{
			StakeA:           459.64,
			StakeB:           540.36,
			TotalCapital:     1000,
			GuaranteedProfit: 107.74,
		},
	}
}

func newTestEngine(cfg Config) (*Engine, *fakeStore, *fakeExchange, *fakeSportsbook, *fakeNotifier) {
	store := &fakeStore{}
	ex := &fakeExchange{}
	sb := &fakeSportsbook{}
	nt := &fakeNotifier{}
	risk := NewRiskState(domain.ClockFunc(func() time.Time {
		return time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	}))
	return NewEngine(cfg, store, ex, sb, nt, risk, discard()), store, ex, sb, nt
}

func TestProcessRejectedWhenDisabled(t *testing.T) {
	cfg := enabledConfig()
	cfg.Enabled = false
	e, store, ex, sb, _ := newTestEngine(cfg)

	res, err := e.Process(context.Background(), testArb(), 1)
	require.NoError(t, err)
	assert.Equal(t, ResultRejected, res)
	assert.Zero(t, ex.calls)
	assert.Zero(t, sb.calls)
	assert.Empty(t, store.marked)
}

func TestProcessRejectedBelowProfitThreshold(t *testing.T) {
	cfg := enabledConfig()
	cfg.MinProfitThreshold = 50
	e, store, _, sb, _ := newTestEngine(cfg)

	res, err := e.Process(context.Background(), testArb(), 1)
	require.NoError(t, err)
	assert.Equal(t, ResultRejected, res)
	assert.Zero(t, sb.calls)
	assert.Empty(t, store.marked)
}

func TestProcessNeverExecutesValueEdges(t *testing.T) {
	cfg := enabledConfig()
	cfg.MinProfitThreshold = 0
	e, store, ex, sb, _ := newTestEngine(cfg)

	ve := domain.ValueEdge{Team: "Lakers", EdgePct: 12, BetterVenue: domain.VenueCloudbet}
	res, err := e.Process(context.Background(), ve, 1)
	require.NoError(t, err)
	assert.Equal(t, ResultRejected, res)
	assert.Zero(t, ex.calls)
	assert.Zero(t, sb.calls)
	assert.Empty(t, store.marked)
}

func TestProcessBetsPerDayCap(t *testing.T) {
	cfg := enabledConfig()
	cfg.MaxBetsPerDay = 1
	cfg.RealExecution = false
	e, store, _, _, _ := newTestEngine(cfg)

	res, err := e.Process(context.Background(), testArb(), 1)
	require.NoError(t, err)
	assert.Equal(t, ResultSimulated, res)

	res, err = e.Process(context.Background(), testArb(), 2)
	require.NoError(t, err)
	assert.Equal(t, ResultRejected, res)
	assert.Equal(t, []int64{1}, store.marked)
}

func TestProcessZeroCapsDisabled(t *testing.T) {
	cfg := enabledConfig()
	cfg.MaxBetsPerDay = 0
	cfg.DailyLossLimit = 0
	cfg.RealExecution = false
	e, store, _, _, _ := newTestEngine(cfg)

	for i := int64(1); i <= 3; i++ {
		res, err := e.Process(context.Background(), testArb(), i)
		require.NoError(t, err)
		assert.Equal(t, ResultSimulated, res)
	}
	assert.Len(t, store.marked, 3)
}

func TestProcessSimulationSkipsExecutors(t *testing.T) {
	cfg := enabledConfig()
	cfg.RealExecution = false
	e, store, ex, sb, _ := newTestEngine(cfg)

	res, err := e.Process(context.Background(), testArb(), 7)
	require.NoError(t, err)
	assert.Equal(t, ResultSimulated, res)
	assert.Zero(t, ex.calls)
	assert.Zero(t, sb.calls)
	require.Equal(t, []int64{7}, store.marked)
	assert.InDelta(t, 107.74, store.pnls[0], 1e-9)
}

func TestProcessSportsbookLegFailureAborts(t *testing.T) {
	e, store, ex, sb, nt := newTestEngine(enabledConfig())
	sb.err = errors.New("rejected by book")

	res, err := e.Process(context.Background(), testArb(), 1)
	require.NoError(t, err)
	assert.Equal(t, ResultAborted, res)
	assert.Equal(t, 1, sb.calls)
	// The exchange leg must never be attempted after a book failure.
	assert.Zero(t, ex.calls)
	assert.Empty(t, store.marked)
	assert.Empty(t, nt.criticals)
}

func TestProcessMissingIdentifiersAborts(t *testing.T) {
	e, store, ex, sb, _ := newTestEngine(enabledConfig())

	arb := testArb()
	arb.SportsbookSelectionID = ""
	res, err := e.Process(context.Background(), arb, 1)
	require.NoError(t, err)
	assert.Equal(t, ResultAborted, res)
	assert.Zero(t, sb.calls)
	assert.Zero(t, ex.calls)
	assert.Empty(t, store.marked)
}

func TestProcessExchangeLegFailureIsUnhedged(t *testing.T) {
	e, store, ex, sb, nt := newTestEngine(enabledConfig())
	ex.err = errors.New("order rejected")

	res, err := e.Process(context.Background(), testArb(), 4)
	require.NoError(t, err)
	assert.Equal(t, ResultUnhedged, res)
	assert.Equal(t, 1, sb.calls)
	assert.Equal(t, 1, ex.calls)
	// Capital is committed on the book side, so the row is still marked.
	assert.Equal(t, []int64{4}, store.marked)
	require.Len(t, nt.criticals, 1)
	assert.Equal(t, "UNHEDGED EXPOSURE", nt.criticals[0])
}

func TestProcessBothLegsRecorded(t *testing.T) {
	e, store, ex, sb, nt := newTestEngine(enabledConfig())

	res, err := e.Process(context.Background(), testArb(), 9)
	require.NoError(t, err)
	assert.Equal(t, ResultRecorded, res)
	assert.Equal(t, 1, sb.calls)
	assert.Equal(t, 1, ex.calls)
	assert.Equal(t, []int64{9}, store.marked)
	assert.Empty(t, nt.criticals)

	// The exchange leg is priced as an implied probability.
	assert.InDelta(t, 1.0/2.41, ex.price, 1e-9)
	assert.InDelta(t, 459.64, ex.size, 1e-9)
	assert.InDelta(t, 540.36, sb.stake, 1e-9)
	assert.InDelta(t, 2.05, sb.odds, 1e-9)
}

func TestProcessCapsStakesBeforeExecution(t *testing.T) {
	cfg := enabledConfig()
	cfg.MaxStakeFraction = 0.1 // cap at 100 of a 1000 bankroll
	e, store, ex, sb, _ := newTestEngine(cfg)

	res, err := e.Process(context.Background(), testArb(), 1)
	require.NoError(t, err)
	assert.Equal(t, ResultRecorded, res)

	assert.InDelta(t, 54.036, sb.stake, 1e-6)
	assert.InDelta(t, 45.964, ex.size, 1e-6)
	require.Len(t, store.pnls, 1)
	assert.InDelta(t, 10.774, store.pnls[0], 1e-6)
}

func TestRiskStateDateRollover(t *testing.T) {
	now := time.Date(2026, 4, 1, 23, 0, 0, 0, time.UTC)
	risk := NewRiskState(domain.ClockFunc(func() time.Time { return now }))

	risk.RecordBet(-25)
	risk.RecordBet(50)
	assert.Equal(t, 2, risk.BetsToday())
	assert.Equal(t, -25.0, risk.LossToday())

	now = now.Add(2 * time.Hour) // crosses midnight
	assert.Equal(t, 0, risk.BetsToday())
	assert.Equal(t, 0.0, risk.LossToday())
}
