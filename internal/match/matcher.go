package match

import (
	"log/slog"
	"time"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

const (
	// DefaultSimilarityThreshold is the minimum per-name similarity score.
	DefaultSimilarityThreshold = 65.0
	// DefaultTimeWindow tolerates long-dated markets on either venue.
	DefaultTimeWindow = 7 * 24 * time.Hour
)

// Matcher pairs exchange markets with sportsbook events by team identity,
// sport bucket and start-time proximity.
type Matcher struct {
	threshold  float64
	timeWindow time.Duration
	logger     *slog.Logger
}

// NewMatcher creates a Matcher. Zero threshold and window fall back to the
// defaults.
func NewMatcher(threshold float64, timeWindow time.Duration, logger *slog.Logger) *Matcher {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	if timeWindow <= 0 {
		timeWindow = DefaultTimeWindow
	}
	return &Matcher{
		threshold:  threshold,
		timeWindow: timeWindow,
		logger:     logger.With(slog.String("component", "matcher")),
	}
}

// Match returns at most one MatchedEvent per exchange market, keeping the
// best-scoring sportsbook candidate. Markets without two extractable
// competitor names (futures and props) are skipped.
func (m *Matcher) Match(markets []domain.Market, events []domain.SportEvent) []domain.MatchedEvent {
	matched := make([]domain.MatchedEvent, 0)
	futures := 0

	for _, mkt := range markets {
		if !IsSportsMarket(mkt.Title) {
			continue
		}
		teamsA := ExtractTeams(mkt.Title)
		if !teamsA.Complete() {
			if teamsA.Team1 != "" {
				futures++
			}
			continue
		}
		sportA := DetectSport(mkt.Title)

		var best *domain.MatchedEvent
		bestScore := 0.0

		for i := range events {
			ev := events[i]
			if !SportsCompatible(sportA, ev.SportKey) {
				continue
			}
			teamsB := ExtractTeams(ev.Name)
			if !teamsB.Complete() {
				continue
			}
			ok, score := m.teamsMatch(teamsA, teamsB)
			if !ok {
				continue
			}
			if !m.timesMatch(mkt.StartTime, ev.StartTime) {
				continue
			}
			if score > bestScore {
				bestScore = score
				sport := sportA
				if sport == SportUnknown {
					sport = ev.SportKey
				}
				best = &domain.MatchedEvent{
					MarketName: mkt.Title,
					EventName:  ev.Name,
					MarketA:    mkt,
					EventB:     ev,
					TeamsA:     teamsA,
					TeamsB:     teamsB,
					Sport:      sport,
					Score:      score,
					OutcomesA:  mkt.Outcomes,
					OutcomesB:  ev.Outcomes,
					StartTimeA: mkt.StartTime,
					StartTimeB: ev.StartTime,
				}
			}
		}

		if best != nil {
			matched = append(matched, *best)
			m.logger.Info("event matched",
				slog.String("market", best.MarketName),
				slog.String("event", best.EventName),
				slog.String("sport", best.Sport),
				slog.Float64("score", best.Score),
			)
		}
	}

	if futures > 0 {
		m.logger.Debug("skipped single-entity markets", slog.Int("count", futures))
	}
	return matched
}

// teamsMatch checks both orderings of the two name pairs under both the
// character ratio and the token-sort ratio. Either ordering under either
// metric clearing the threshold is a match; the returned score is the
// best per-name average across orderings.
func (m *Matcher) teamsMatch(a, b domain.TeamPair) (bool, float64) {
	a1, a2 := NormalizeName(a.Team1), NormalizeName(a.Team2)
	b1, b2 := NormalizeName(b.Team1), NormalizeName(b.Team2)

	sameOrder1 := float64(fuzzy.Ratio(a1, b1))
	sameOrder2 := float64(fuzzy.Ratio(a2, b2))
	swapped1 := float64(fuzzy.Ratio(a1, b2))
	swapped2 := float64(fuzzy.Ratio(a2, b1))

	tokSame1 := float64(fuzzy.TokenSortRatio(a1, b1))
	tokSame2 := float64(fuzzy.TokenSortRatio(a2, b2))
	tokSwap1 := float64(fuzzy.TokenSortRatio(a1, b2))
	tokSwap2 := float64(fuzzy.TokenSortRatio(a2, b1))

	ok := (sameOrder1 >= m.threshold && sameOrder2 >= m.threshold) ||
		(swapped1 >= m.threshold && swapped2 >= m.threshold) ||
		(tokSame1 >= m.threshold && tokSame2 >= m.threshold) ||
		(tokSwap1 >= m.threshold && tokSwap2 >= m.threshold)

	score := (max(sameOrder1, swapped1) + max(sameOrder2, swapped2)) / 2
	return ok, score
}

// timesMatch skips the check when either side lacks a start time; futures
// style markets often carry none.
func (m *Matcher) timesMatch(a, b *time.Time) bool {
	if a == nil || b == nil {
		return true
	}
	diff := a.Sub(*b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= m.timeWindow
}
