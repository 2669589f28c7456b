package domain

import "time"

// Opportunity is the sum of the two detection outcomes: Arbitrage and
// ValueEdge. The interface is sealed so every consumer (sizer, autobet,
// notifier, store) switches exhaustively over the two concrete types;
// value edges in particular cannot reach the hedge-execution path by
// construction, not by a runtime filter.
type Opportunity interface {
	// Key returns the dedup identity fields of the opportunity.
	Key() OpportunityKey
	// Kind returns the variant tag, for logging and storage.
	Kind() OpportunityKind

	sealedOpportunity()
}

// OpportunityKind tags the Opportunity variant.
type OpportunityKind string

const (
	KindArbitrage OpportunityKind = "arbitrage"
	KindValueEdge OpportunityKind = "value_edge"
)

// OpportunityKey is the identity used by the dedup gate: market name, the
// two venues, and the pair of odds.
type OpportunityKey struct {
	MarketName string
	VenueA     Venue
	VenueB     Venue
	OddsA      float64
	OddsB      float64
}

// Arbitrage is a pairing of opposite outcomes across the two venues whose
// implied probabilities sum below 1.
type Arbitrage struct {
	ID         string
	MarketName string
	EventName  string

	// Team is the competitor backed on the exchange; OppositeTeam is the
	// competitor backed on the sportsbook.
	Team         string
	OppositeTeam string

	OddsA     float64 // exchange leg decimal odds
	OddsB     float64 // sportsbook leg decimal odds
	TotalProb float64
	ProfitPct float64

	// Execution identifiers carried from market metadata.
	ExchangeTokenID       string
	SportsbookEventID     string
	SportsbookMarketURL   string
	SportsbookSelectionID string

	Sport      string
	StartTime  *time.Time
	Stakes     *StakePlan // filled by the sizer
	DetectedAt time.Time
}

func (a Arbitrage) Key() OpportunityKey {
	return OpportunityKey{
		MarketName: a.MarketName,
		VenueA:     VenuePolymarket,
		VenueB:     VenueCloudbet,
		OddsA:      a.OddsA,
		OddsB:      a.OddsB,
	}
}

func (a Arbitrage) Kind() OpportunityKind { return KindArbitrage }

func (Arbitrage) sealedOpportunity() {}

// ValueEdge is a same-outcome pricing discrepancy: no guaranteed profit,
// only favorable expectancy on the better-priced venue.
type ValueEdge struct {
	ID         string
	MarketName string
	EventName  string

	Team    string
	EdgePct float64 // signed: positive means the exchange prices the team higher
	ProbA   float64
	ProbB   float64
	OddsA   float64
	OddsB   float64

	// BetterVenue is the venue offering the lower implied probability,
	// i.e. the better price to act on.
	BetterVenue Venue

	Sport      string
	StartTime  *time.Time
	Stake      float64 // filled by the sizer
	DetectedAt time.Time
}

func (v ValueEdge) Key() OpportunityKey {
	return OpportunityKey{
		MarketName: v.MarketName,
		VenueA:     VenuePolymarket,
		VenueB:     VenueCloudbet,
		OddsA:      v.OddsA,
		OddsB:      v.OddsB,
	}
}

func (v ValueEdge) Kind() OpportunityKind { return KindValueEdge }

func (ValueEdge) sealedOpportunity() {}

// StakePlan is the equal-profit allocation for the two legs of an arbitrage.
type StakePlan struct {
	StakeA           float64
	StakeB           float64
	TotalCapital     float64
	GuaranteedProfit float64
}
