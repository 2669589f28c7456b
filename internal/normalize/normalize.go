package normalize

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

// Normalizer converts raw venue payloads into the unified market schema.
type Normalizer struct {
	logger *slog.Logger
}

// New creates a Normalizer.
func New(logger *slog.Logger) *Normalizer {
	return &Normalizer{logger: logger.With(slog.String("component", "normalize"))}
}

// ExchangeMarkets converts raw exchange markets, dropping any with fewer
// than two outcomes.
func (n *Normalizer) ExchangeMarkets(raw []domain.RawExchangeMarket) []domain.Market {
	out := make([]domain.Market, 0, len(raw))
	for _, r := range raw {
		if len(r.Outcomes) < 2 {
			n.logger.Debug("skipping exchange market with too few outcomes",
				slog.String("market_id", r.MarketID),
				slog.Int("outcomes", len(r.Outcomes)),
			)
			continue
		}
		m := domain.Market{
			Venue:     domain.VenuePolymarket,
			MarketID:  r.MarketID,
			Title:     r.Title,
			Outcomes:  make(map[string]float64, len(r.Outcomes)),
			URL:       r.URL,
			StartTime: r.StartTime,
			Metadata:  make(map[string]string, len(r.TokenIDs)),
		}
		for name, price := range r.Outcomes {
			m.Outcomes[name] = price
		}
		for name, tokenID := range r.TokenIDs {
			m.Metadata[domain.MetaTokenIDPrefix+name] = tokenID
		}
		out = append(out, m)
	}
	return out
}

// SportEvents groups raw sportsbook outcomes by event, keeping only the
// primary moneyline market for each one. Sportsbooks expose many markets
// per event (spreads, totals, alternative lines) that reuse the same team
// names with different odds; aggregating them naively lets whichever
// market arrives last win, producing odds that do not exist on the
// moneyline board. Events with no recognized moneyline market are dropped
// rather than falling back to other market types.
func (n *Normalizer) SportEvents(raw []domain.RawSportOutcome) []domain.SportEvent {
	type eventAgg struct {
		event     domain.SportEvent
		sawAny    int
		firstSeen bool
	}
	events := make(map[string]*eventAgg)
	order := make([]string, 0)

	for _, o := range raw {
		if o.EventName == "" || o.Outcome == "" || o.Odds <= 0 {
			continue
		}
		agg, ok := events[o.EventName]
		if !ok {
			agg = &eventAgg{event: domain.SportEvent{
				Name:           o.EventName,
				Outcomes:       make(map[string]domain.SportSelection),
				URL:            o.URL,
				StartTime:      o.StartTime,
				SportKey:       o.SportKey,
				CompetitionKey: o.CompetitionKey,
			}}
			events[o.EventName] = agg
			order = append(order, o.EventName)
		}
		agg.sawAny++

		marketType := strings.ToLower(strings.TrimSpace(o.MarketType))
		isSoccer := strings.EqualFold(o.SportKey, "soccer")
		if !isMoneylineMarket(marketType, isSoccer) {
			continue
		}

		sel := domain.SportSelection{
			Odds:        o.Odds,
			EventID:     o.EventID,
			MarketURL:   o.MarketURL,
			SelectionID: o.SelectionID,
		}
		existing, has := agg.event.Outcomes[o.Outcome]
		switch {
		case !has:
			agg.event.Outcomes[o.Outcome] = sel
			if !agg.firstSeen {
				agg.firstSeen = true
				n.logger.Debug("found moneyline market",
					slog.String("event", o.EventName),
					slog.String("market_type", o.MarketType),
					slog.String("outcome", fmt.Sprintf("%s @ %.2f", o.Outcome, o.Odds)),
				)
			}
		case marketType == "moneyline" || marketType == "ml":
			// An exact moneyline market overrides a looser variant.
			agg.event.Outcomes[o.Outcome] = sel
			if diff := existing.Odds - o.Odds; diff > 0.1 || diff < -0.1 {
				n.logger.Debug("updated moneyline odds",
					slog.String("event", o.EventName),
					slog.String("outcome", o.Outcome),
					slog.Float64("old", existing.Odds),
					slog.Float64("new", o.Odds),
				)
			}
		}
	}

	out := make([]domain.SportEvent, 0, len(events))
	dropped := 0
	for _, name := range order {
		agg := events[name]
		if len(agg.event.Outcomes) < 2 {
			dropped++
			n.logger.Debug("dropping event without a usable moneyline",
				slog.String("event", name),
				slog.Int("raw_selections", agg.sawAny),
			)
			continue
		}
		out = append(out, agg.event)
	}
	if dropped > 0 {
		n.logger.Warn("dropped events without a recognized moneyline market",
			slog.Int("dropped", dropped),
			slog.Int("kept", len(out)),
		)
	}
	return out
}

// isMoneylineMarket applies the strict market-type filter. "Game lines"
// style umbrella markets are rejected because they mix spreads and totals
// with the moneyline; soccer only passes on Draw No Bet to avoid the
// three-way draw risk.
func isMoneylineMarket(marketType string, isSoccer bool) bool {
	accepted := strings.Contains(marketType, "moneyline") ||
		marketType == "ml" ||
		strings.Contains(marketType, "match-winner") ||
		strings.Contains(marketType, "match_winner") ||
		(strings.Contains(marketType, "match_odds") && !isSoccer) ||
		(isSoccer && (strings.Contains(marketType, "draw_no_bet") || strings.Contains(marketType, "dnb"))) ||
		strings.HasSuffix(marketType, ".winner") ||
		marketType == "winner"
	if !accepted {
		return false
	}

	rejected := strings.Contains(marketType, "game_lines") ||
		strings.Contains(marketType, "handicap") ||
		strings.Contains(marketType, "asian") ||
		strings.Contains(marketType, "spread") ||
		strings.Contains(marketType, "total") ||
		strings.Contains(marketType, "over") ||
		strings.Contains(marketType, "under") ||
		strings.Contains(marketType, "period") ||
		strings.Contains(marketType, "half") ||
		strings.Contains(marketType, "quarter") ||
		strings.Contains(marketType, "outright") ||
		(isSoccer && (strings.Contains(marketType, "1x2") || strings.Contains(marketType, "match_odds")))
	return !rejected
}
