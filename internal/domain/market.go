package domain

import "time"

// Venue identifies one of the two market sources.
type Venue string

const (
	// VenuePolymarket is the prediction-market exchange (venue A).
	VenuePolymarket Venue = "polymarket"
	// VenueCloudbet is the fixed-odds sportsbook (venue B).
	VenueCloudbet Venue = "cloudbet"
)

// Market is the normalized, venue-agnostic view of a tradable market.
// It is immutable after creation; a fresh set is produced every cycle.
type Market struct {
	Venue     Venue
	MarketID  string
	Title     string
	Outcomes  map[string]float64 // outcome label -> decimal odds
	URL       string
	StartTime *time.Time // nil for markets with no fixed schedule
	Metadata  map[string]string
}

// MetaTokenIDPrefix + outcome label keys the exchange token ID in market
// metadata. Carried through matching to execution; the matcher and the
// probability engine never interpret it.
const MetaTokenIDPrefix = "token_id:"

// TokenID returns the exchange token ID for an outcome label, if present.
func (m Market) TokenID(outcome string) string {
	return m.Metadata[MetaTokenIDPrefix+outcome]
}

// RawExchangeMarket is a single market as returned by the exchange fetcher,
// before normalization.
type RawExchangeMarket struct {
	MarketID  string
	Title     string
	Outcomes  map[string]float64
	TokenIDs  map[string]string // outcome label -> token ID
	URL       string
	StartTime *time.Time
}

// RawSportOutcome is one (event, market-type, selection, price) tuple from
// the sportsbook fetcher. The normalizer groups these into Markets; the
// matcher groups them into SportEvents.
type RawSportOutcome struct {
	EventName      string
	EventID        string
	MarketType     string
	Outcome        string
	Odds           float64
	SelectionID    string
	MarketURL      string
	URL            string
	SportKey       string
	CompetitionKey string
	StartTime      *time.Time
}

// SportSelection is a priced sportsbook selection with the identifiers
// required to place a bet on it later.
type SportSelection struct {
	Odds        float64
	EventID     string
	MarketURL   string
	SelectionID string
}

// SportEvent groups the primary moneyline selections of one sportsbook event.
type SportEvent struct {
	Name           string
	Outcomes       map[string]SportSelection // selection label -> selection
	URL            string
	StartTime      *time.Time
	SportKey       string
	CompetitionKey string
}
