package domain

import "time"

// TeamPair holds the two competitor names extracted from one side's title.
// Team2 is empty for single-entity (futures/prop) markets, which are
// excluded from event-level matching.
type TeamPair struct {
	Team1 string
	Team2 string
}

// Complete reports whether both competitors were identified.
func (p TeamPair) Complete() bool {
	return p.Team1 != "" && p.Team2 != ""
}

// MatchedEvent pairs one exchange market with the sportsbook event the
// matcher decided describes the same real-world game. It lives for a single
// cycle and is never persisted.
type MatchedEvent struct {
	MarketName string // exchange title
	EventName  string // sportsbook event name

	MarketA Market
	EventB  SportEvent

	TeamsA TeamPair
	TeamsB TeamPair

	Sport string // resolved sport bucket, "unknown" when neither side classified
	Score float64

	OutcomesA map[string]float64        // exchange outcome label -> decimal odds
	OutcomesB map[string]SportSelection // sportsbook selection label -> selection

	StartTimeA *time.Time
	StartTimeB *time.Time
}
