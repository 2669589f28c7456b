package engine

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock() domain.Clock {
	return domain.ClockFunc(func() time.Time {
		return time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	})
}

func testEngine() *Engine {
	return New(0, 0, fixedClock(), testLogger())
}

// yes/no exchange market paired with a two-way moneyline book event.
func matchedEvent(oddsYes, oddsNo, oddsTeam1, oddsTeam2 float64) domain.MatchedEvent {
	return domain.MatchedEvent{
		MarketName: "Will the Lakers beat the Warriors?",
		EventName:  "Lakers v Warriors",
		MarketA: domain.Market{
			Venue:    domain.VenuePolymarket,
			MarketID: "mkt-1",
			Title:    "Will the Lakers beat the Warriors?",
			Outcomes: map[string]float64{"Yes": oddsYes, "No": oddsNo},
			Metadata: map[string]string{
				domain.MetaTokenIDPrefix + "Yes": "tok-yes",
				domain.MetaTokenIDPrefix + "No":  "tok-no",
			},
		},
		TeamsA:    domain.TeamPair{Team1: "Lakers", Team2: "Warriors"},
		TeamsB:    domain.TeamPair{Team1: "Lakers", Team2: "Warriors"},
		Sport:     "basketball",
		OutcomesA: map[string]float64{"Yes": oddsYes, "No": oddsNo},
		OutcomesB: map[string]domain.SportSelection{
			"Lakers":   {Odds: oddsTeam1, EventID: "ev-9", MarketURL: "basketball.moneyline", SelectionID: "sel-1"},
			"Warriors": {Odds: oddsTeam2, EventID: "ev-9", MarketURL: "basketball.moneyline", SelectionID: "sel-2"},
		},
	}
}

func TestDetectArbitrage(t *testing.T) {
	e := testEngine()

	// Exchange backs the Lakers at 2.41, book backs the Warriors at 2.05:
	// 1/2.41 + 1/2.05 = 0.9027 < 1.
	got := e.Detect([]domain.MatchedEvent{matchedEvent(2.41, 1.80, 1.90, 2.05)})
	require.Len(t, got, 1)

	arb, ok := got[0].(domain.Arbitrage)
	require.True(t, ok)
	assert.Equal(t, "Lakers", arb.Team)
	assert.Equal(t, "Warriors", arb.OppositeTeam)
	assert.InDelta(t, 2.41, arb.OddsA, 1e-9)
	assert.InDelta(t, 2.05, arb.OddsB, 1e-9)
	assert.InDelta(t, 0.902742637, arb.TotalProb, 1e-6)
	assert.InDelta(t, 10.7735426, arb.ProfitPct, 1e-4)
	assert.Equal(t, "tok-yes", arb.ExchangeTokenID)
	assert.Equal(t, "sel-2", arb.SportsbookSelectionID)
	assert.Equal(t, "ev-9", arb.SportsbookEventID)
	assert.Equal(t, domain.KindArbitrage, arb.Kind())
}

func TestDetectEmitsSingleArbitragePerEvent(t *testing.T) {
	e := testEngine()

	// Both pairings would arb; only the lower-sum one is emitted.
	got := e.Detect([]domain.MatchedEvent{matchedEvent(2.50, 2.50, 2.50, 2.50)})
	require.Len(t, got, 1)
	arb, ok := got[0].(domain.Arbitrage)
	require.True(t, ok)
	// Exact tie prefers the team1 pairing.
	assert.Equal(t, "Lakers", arb.Team)
}

func TestDetectNoArbitrageBelowThreshold(t *testing.T) {
	e := New(0.05, 5.0, fixedClock(), testLogger())

	// Profitable at ~10.77% with a 5% floor passes; raise the floor and it
	// must not be emitted as arbitrage.
	got := New(0.05, 20.0, fixedClock(), testLogger()).
		Detect([]domain.MatchedEvent{matchedEvent(2.41, 1.80, 1.90, 2.05)})
	for _, opp := range got {
		_, isArb := opp.(domain.Arbitrage)
		assert.False(t, isArb)
	}

	got = e.Detect([]domain.MatchedEvent{matchedEvent(2.41, 1.80, 1.90, 2.05)})
	require.Len(t, got, 1)
	_, isArb := got[0].(domain.Arbitrage)
	assert.True(t, isArb)
}

func TestDetectValueEdgeOnlyWithoutArbitrage(t *testing.T) {
	e := testEngine()

	// Exchange prices the Lakers at 50%, the book at 60% (odds 1.6667):
	// a 10% gap with no pairing summing below 1.
	got := e.Detect([]domain.MatchedEvent{matchedEvent(2.0, 2.0, 1.6667, 1.80)})

	var edges []domain.ValueEdge
	for _, opp := range got {
		ve, ok := opp.(domain.ValueEdge)
		require.True(t, ok)
		edges = append(edges, ve)
	}
	require.NotEmpty(t, edges)
	var lakers *domain.ValueEdge
	for i := range edges {
		if edges[i].Team == "Lakers" {
			lakers = &edges[i]
		}
	}
	require.NotNil(t, lakers)
	assert.InDelta(t, -10.0, lakers.EdgePct, 1e-2)
	// The exchange has the lower implied probability, so it is the better
	// price to act on.
	assert.Equal(t, domain.VenuePolymarket, lakers.BetterVenue)
}

func TestDetectSkipsInvalidOdds(t *testing.T) {
	e := testEngine()

	// Odds at or below 1.0 resolve to no probability; the event is skipped.
	got := e.Detect([]domain.MatchedEvent{matchedEvent(0.95, 1.80, 1.90, 2.05)})
	assert.Empty(t, got)
}

func TestOddsToProbability(t *testing.T) {
	assert.Equal(t, 0.0, OddsToProbability(1.0))
	assert.Equal(t, 0.0, OddsToProbability(0.5))
	assert.InDelta(t, 0.5, OddsToProbability(2.0), 1e-9)
	assert.InDelta(t, 0.414937759, OddsToProbability(2.41), 1e-9)
}

func TestProbabilityToOdds(t *testing.T) {
	assert.Equal(t, 0.0, ProbabilityToOdds(0))
	assert.Equal(t, 0.0, ProbabilityToOdds(1))
	assert.InDelta(t, 2.0, ProbabilityToOdds(0.5), 1e-9)
}
