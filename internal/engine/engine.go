package engine

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/alanyoungcy/hedgebot/internal/domain"
	"github.com/alanyoungcy/hedgebot/internal/match"
)

const (
	// DefaultMinValueEdge is the minimum probability gap for a value edge.
	DefaultMinValueEdge = 0.05
	// DefaultMinArbProfit is the minimum arbitrage profit percentage.
	DefaultMinArbProfit = 0.5

	// exchangeMapThreshold gates fuzzy mapping of exchange outcome labels.
	exchangeMapThreshold = 70.0
	// sportsbookMapThreshold is looser; sportsbook labels carry feed
	// prefixes that degrade the raw ratio.
	sportsbookMapThreshold = 60.0
)

// Engine converts matched events into opportunities by comparing implied
// probabilities across the two venues.
type Engine struct {
	minValueEdge float64
	minArbProfit float64
	clock        domain.Clock
	logger       *slog.Logger
}

// New creates an Engine. Zero thresholds fall back to the defaults.
func New(minValueEdge, minArbProfit float64, clock domain.Clock, logger *slog.Logger) *Engine {
	if minValueEdge <= 0 {
		minValueEdge = DefaultMinValueEdge
	}
	if minArbProfit <= 0 {
		minArbProfit = DefaultMinArbProfit
	}
	if clock == nil {
		clock = domain.ClockFunc(time.Now)
	}
	return &Engine{
		minValueEdge: minValueEdge,
		minArbProfit: minArbProfit,
		clock:        clock,
		logger:       logger.With(slog.String("component", "engine")),
	}
}

// OddsToProbability converts decimal odds to an implied probability.
// Odds at or below 1.0 are invalid and yield 0.
func OddsToProbability(odds float64) float64 {
	if odds <= 1.0 {
		return 0
	}
	return 1.0 / odds
}

// ProbabilityToOdds converts an implied probability back to decimal odds.
// Probabilities outside (0, 1) are invalid and yield 0.
func ProbabilityToOdds(prob float64) float64 {
	if prob <= 0 || prob >= 1 {
		return 0
	}
	return 1.0 / prob
}

type sideAProb struct {
	prob  float64
	label string
}

// Detect produces zero or more opportunities per matched event. At most
// one arbitrage is emitted per event; value edges are only evaluated for
// events where no arbitrage was found.
func (e *Engine) Detect(events []domain.MatchedEvent) []domain.Opportunity {
	var out []domain.Opportunity
	arbs, edges := 0, 0

	for i := range events {
		ev := events[i]
		if ev.TeamsA.Team1 == "" || !ev.TeamsB.Complete() {
			continue
		}

		probsA := e.mapExchangeOutcomes(ev)
		probsB := e.mapSportsbookOutcomes(ev)
		if len(probsA) < 2 || len(probsB) < 2 {
			e.logger.Debug("skipping event with unresolved probabilities",
				slog.String("market", ev.MarketName),
				slog.Int("side_a", len(probsA)),
				slog.Int("side_b", len(probsB)),
			)
			continue
		}

		team1, team2 := ev.TeamsB.Team1, ev.TeamsB.Team2
		a1, a2 := probsA[team1], probsA[team2]
		b1, ok1 := probsB[team1]
		b2, ok2 := probsB[team2]
		if a1.prob <= 0 || a2.prob <= 0 || !ok1 || !ok2 {
			continue
		}
		probB1 := OddsToProbability(b1.Odds)
		probB2 := OddsToProbability(b2.Odds)
		if probB1 <= 0 || probB2 <= 0 {
			continue
		}

		if arb := e.detectArbitrage(ev, team1, team2, a1, a2, b1, b2, probB1, probB2); arb != nil {
			out = append(out, *arb)
			arbs++
			continue
		}

		for _, ve := range e.detectValueEdges(ev, team1, team2, a1.prob, a2.prob, probB1, probB2) {
			out = append(out, ve)
			edges++
		}
	}

	e.logger.Info("detection finished",
		slog.Int("events", len(events)),
		slog.Int("arbitrage", arbs),
		slog.Int("value_edges", edges),
	)
	return out
}

// detectArbitrage tests the two opposite-outcome pairings and emits the
// one with the lower summed probability. On an exact tie the team1
// pairing wins.
func (e *Engine) detectArbitrage(
	ev domain.MatchedEvent,
	team1, team2 string,
	a1, a2 sideAProb,
	b1, b2 domain.SportSelection,
	probB1, probB2 float64,
) *domain.Arbitrage {
	totalTeam1 := a1.prob + probB2 // back team1 on the exchange, team2 on the book
	totalTeam2 := a2.prob + probB1

	team, opposite := team1, team2
	total := totalTeam1
	sideA, sideB := a1, b2
	probB := probB2
	if totalTeam2 < totalTeam1 {
		team, opposite = team2, team1
		total = totalTeam2
		sideA, sideB = a2, b1
		probB = probB1
	}

	if total >= 1.0 {
		return nil
	}
	profit := ((1.0 / total) - 1.0) * 100
	if profit < e.minArbProfit {
		return nil
	}

	oddsA := ProbabilityToOdds(sideA.prob)
	oddsB := ProbabilityToOdds(probB)
	arb := &domain.Arbitrage{
		ID:           uuid.NewString(),
		MarketName:   ev.MarketName,
		EventName:    ev.EventName,
		Team:         team,
		OppositeTeam: opposite,
		OddsA:        oddsA,
		OddsB:        oddsB,
		TotalProb:    total,
		ProfitPct:    profit,

		ExchangeTokenID:       ev.MarketA.TokenID(sideA.label),
		SportsbookEventID:     sideB.EventID,
		SportsbookMarketURL:   sideB.MarketURL,
		SportsbookSelectionID: sideB.SelectionID,

		Sport:      ev.Sport,
		StartTime:  ev.StartTimeB,
		DetectedAt: e.clock.Now().UTC(),
	}
	e.logger.Info("arbitrage detected",
		slog.String("market", ev.MarketName),
		slog.String("team", team),
		slog.Float64("odds_a", oddsA),
		slog.Float64("odds_b", oddsB),
		slog.Float64("profit_pct", profit),
	)
	return arb
}

// detectValueEdges emits one edge per competitor whose probability gap
// clears the threshold. Both competitors may qualify independently.
func (e *Engine) detectValueEdges(
	ev domain.MatchedEvent,
	team1, team2 string,
	probA1, probA2, probB1, probB2 float64,
) []domain.ValueEdge {
	var out []domain.ValueEdge
	emit := func(team string, probA, probB float64) {
		edge := probA - probB
		if edge < e.minValueEdge && edge > -e.minValueEdge {
			return
		}
		// The venue with the lower implied probability offers the better
		// price and is the one to act on.
		better := domain.VenueCloudbet
		if edge < 0 {
			better = domain.VenuePolymarket
		}
		out = append(out, domain.ValueEdge{
			ID:          uuid.NewString(),
			MarketName:  ev.MarketName,
			EventName:   ev.EventName,
			Team:        team,
			EdgePct:     edge * 100,
			ProbA:       probA,
			ProbB:       probB,
			OddsA:       ProbabilityToOdds(probA),
			OddsB:       ProbabilityToOdds(probB),
			BetterVenue: better,
			Sport:       ev.Sport,
			StartTime:   ev.StartTimeB,
			DetectedAt:  e.clock.Now().UTC(),
		})
		e.logger.Info("value edge detected",
			slog.String("market", ev.MarketName),
			slog.String("team", team),
			slog.Float64("edge_pct", edge*100),
		)
	}
	emit(team1, probA1, probB1)
	emit(team2, probA2, probB2)
	return out
}

// mapExchangeOutcomes resolves the exchange side to per-team implied
// probabilities keyed by the sportsbook's team names. Binary yes/no
// markets resolve "yes" to whichever sportsbook team the exchange title's
// first competitor resembles more; team-labeled markets map each label by
// name similarity.
func (e *Engine) mapExchangeOutcomes(ev domain.MatchedEvent) map[string]sideAProb {
	probs := make(map[string]sideAProb, 2)

	var yesLabel, noLabel string
	var yesProb, noProb float64
	for label, odds := range ev.OutcomesA {
		switch strings.ToUpper(label) {
		case "YES", "Y":
			yesLabel, yesProb = label, OddsToProbability(odds)
		case "NO", "N":
			noLabel, noProb = label, OddsToProbability(odds)
		}
	}

	cb1 := match.NormalizeName(ev.TeamsB.Team1)
	cb2 := match.NormalizeName(ev.TeamsB.Team2)

	if yesProb > 0 && noProb > 0 && ev.TeamsA.Complete() {
		// "Will X beat Y?": yes backs X. Map X to the closer book team.
		pm1 := match.NormalizeName(ev.TeamsA.Team1)
		if fuzzy.Ratio(pm1, cb1) > fuzzy.Ratio(pm1, cb2) {
			probs[ev.TeamsB.Team1] = sideAProb{prob: yesProb, label: yesLabel}
			probs[ev.TeamsB.Team2] = sideAProb{prob: noProb, label: noLabel}
		} else {
			probs[ev.TeamsB.Team2] = sideAProb{prob: yesProb, label: yesLabel}
			probs[ev.TeamsB.Team1] = sideAProb{prob: noProb, label: noLabel}
		}
		return probs
	}

	for label, odds := range ev.OutcomesA {
		prob := OddsToProbability(odds)
		if prob <= 0 {
			continue
		}
		norm := match.NormalizeName(label)
		m1 := float64(fuzzy.Ratio(norm, cb1))
		m2 := float64(fuzzy.Ratio(norm, cb2))
		switch {
		case m1 > m2 && m1 > exchangeMapThreshold:
			probs[ev.TeamsB.Team1] = sideAProb{prob: prob, label: label}
		case m2 > m1 && m2 > exchangeMapThreshold:
			probs[ev.TeamsB.Team2] = sideAProb{prob: prob, label: label}
		}
	}
	return probs
}

// mapSportsbookOutcomes resolves sportsbook selections to the two team
// names, falling back to positional home/away conventions when name
// similarity is inconclusive.
func (e *Engine) mapSportsbookOutcomes(ev domain.MatchedEvent) map[string]domain.SportSelection {
	out := make(map[string]domain.SportSelection, 2)
	cb1 := match.NormalizeName(ev.TeamsB.Team1)
	cb2 := match.NormalizeName(ev.TeamsB.Team2)

	for label, sel := range ev.OutcomesB {
		if sel.Odds <= 1.0 {
			continue
		}
		norm := match.NormalizeName(label)
		m1 := max(float64(fuzzy.Ratio(norm, cb1)), float64(fuzzy.TokenSortRatio(norm, cb1)))
		m2 := max(float64(fuzzy.Ratio(norm, cb2)), float64(fuzzy.TokenSortRatio(norm, cb2)))
		switch {
		case m1 > m2 && m1 > sportsbookMapThreshold:
			out[ev.TeamsB.Team1] = sel
		case m2 > m1 && m2 > sportsbookMapThreshold:
			out[ev.TeamsB.Team2] = sel
		case norm == "home" || norm == "h" || norm == "team1" || norm == "1":
			out[ev.TeamsB.Team1] = sel
		case norm == "away" || norm == "a" || norm == "team2" || norm == "2":
			out[ev.TeamsB.Team2] = sel
		}
	}
	return out
}
