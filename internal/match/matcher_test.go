package match

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

func testMatcher() *Matcher {
	return NewMatcher(0, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func exchangeMarket(title string, start *time.Time) domain.Market {
	return domain.Market{
		Venue:     domain.VenuePolymarket,
		MarketID:  "mkt-" + title,
		Title:     title,
		Outcomes:  map[string]float64{"Yes": 2.22, "No": 1.72},
		StartTime: start,
	}
}

func sportEvent(name, sportKey string, start *time.Time) domain.SportEvent {
	return domain.SportEvent{
		Name:     name,
		SportKey: sportKey,
		Outcomes: map[string]domain.SportSelection{
			"Team A": {Odds: 2.41},
			"Team B": {Odds: 1.65},
		},
		StartTime: start,
	}
}

func TestMatchPairsSameGame(t *testing.T) {
	m := testMatcher()

	markets := []domain.Market{exchangeMarket("Lakers vs Warriors", nil)}
	events := []domain.SportEvent{
		sportEvent("Los Angeles Lakers v Golden State Warriors", "basketball", nil),
		sportEvent("Boston Celtics v Miami Heat", "basketball", nil),
	}

	got := m.Match(markets, events)
	require.Len(t, got, 1)
	assert.Equal(t, "Lakers vs Warriors", got[0].MarketName)
	assert.Equal(t, "Los Angeles Lakers v Golden State Warriors", got[0].EventName)
	assert.Equal(t, "basketball", got[0].Sport)
	assert.GreaterOrEqual(t, got[0].Score, DefaultSimilarityThreshold)
}

func TestMatchOrderIndependent(t *testing.T) {
	m := testMatcher()

	// Sportsbook lists the teams home-first, exchange away-first.
	markets := []domain.Market{exchangeMarket("Warriors vs Lakers", nil)}
	events := []domain.SportEvent{
		sportEvent("Los Angeles Lakers v Golden State Warriors", "basketball", nil),
	}

	got := m.Match(markets, events)
	require.Len(t, got, 1)
}

func TestMatchRejectsDifferentSports(t *testing.T) {
	m := testMatcher()

	markets := []domain.Market{exchangeMarket("Rangers vs Islanders", nil)}
	events := []domain.SportEvent{
		sportEvent("Rangers v Islanders", "soccer", nil),
	}

	assert.Empty(t, m.Match(markets, events))
}

func TestMatchUnknownSportNeverBlocks(t *testing.T) {
	m := testMatcher()

	markets := []domain.Market{exchangeMarket("Fnatic vs Cloud Nine", nil)}
	events := []domain.SportEvent{
		sportEvent("Fnatic v Cloud Nine", "esports", nil),
	}

	got := m.Match(markets, events)
	require.Len(t, got, 1)
	assert.Equal(t, "esports", got[0].Sport)
}

func TestMatchTimeWindow(t *testing.T) {
	m := testMatcher()
	near := time.Date(2026, 4, 1, 19, 0, 0, 0, time.UTC)
	far := near.Add(30 * 24 * time.Hour)

	markets := []domain.Market{exchangeMarket("Lakers vs Warriors", &near)}

	outside := []domain.SportEvent{sportEvent("Lakers v Warriors", "basketball", &far)}
	assert.Empty(t, m.Match(markets, outside))

	within := near.Add(48 * time.Hour)
	inside := []domain.SportEvent{sportEvent("Lakers v Warriors", "basketball", &within)}
	assert.Len(t, m.Match(markets, inside), 1)
}

func TestMatchSkipsMissingTimes(t *testing.T) {
	m := testMatcher()
	near := time.Date(2026, 4, 1, 19, 0, 0, 0, time.UTC)

	markets := []domain.Market{exchangeMarket("Lakers vs Warriors", &near)}
	events := []domain.SportEvent{sportEvent("Lakers v Warriors", "basketball", nil)}

	assert.Len(t, m.Match(markets, events), 1)
}

func TestMatchSkipsFutures(t *testing.T) {
	m := testMatcher()

	markets := []domain.Market{exchangeMarket("Will the Baltimore Ravens win Super Bowl 2026", nil)}
	events := []domain.SportEvent{sportEvent("Ravens v Steelers", "american_football", nil)}

	assert.Empty(t, m.Match(markets, events))
}

func TestMatchKeepsBestCandidate(t *testing.T) {
	m := testMatcher()

	markets := []domain.Market{exchangeMarket("Los Angeles Lakers vs Golden State Warriors", nil)}
	events := []domain.SportEvent{
		sportEvent("Lakerz v Warriorz", "basketball", nil),
		sportEvent("Los Angeles Lakers v Golden State Warriors", "basketball", nil),
	}

	got := m.Match(markets, events)
	require.Len(t, got, 1)
	assert.Equal(t, "Los Angeles Lakers v Golden State Warriors", got[0].EventName)
}
