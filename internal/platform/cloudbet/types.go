package cloudbet

import "time"

// APISport is one entry from the /v2/odds/sports listing.
type APISport struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// APISportDetail is the per-sport response carrying competitions grouped by
// category.
type APISportDetail struct {
	Categories []struct {
		Competitions []APICompetition `json:"competitions"`
	} `json:"categories"`
}

// APICompetition is a league or tournament within a sport.
type APICompetition struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// APICompetitionDetail is the per-competition response carrying its events.
type APICompetitionDetail struct {
	Events []APIEvent `json:"events"`
}

// APIEvent is a single fixture with its markets. Markets are keyed by
// market type ("basketball.moneyline"), each holding submarkets keyed by
// grouping parameters, each holding priced selections.
type APIEvent struct {
	ID         int64                `json:"id"`
	Name       string               `json:"name"`
	Status     string               `json:"status"`
	CutoffTime string               `json:"cutoffTime"`
	StartTime  string               `json:"startTime"`
	Markets    map[string]APIMarket `json:"markets"`
}

// APIMarket holds the submarkets of one market type.
type APIMarket struct {
	Submarkets map[string]APISubmarket `json:"submarkets"`
}

// APISubmarket holds the priced selections of one submarket.
type APISubmarket struct {
	Selections []APISelection `json:"selections"`
}

// APISelection is one priced outcome.
type APISelection struct {
	ID      string  `json:"id"`
	Outcome string  `json:"outcome"`
	Price   float64 `json:"price"`
	Params  string  `json:"params"`
}

// SelectionID returns the stable identifier for the selection, falling
// back to the outcome slug when the API omits an id.
func (s *APISelection) SelectionID() string {
	if s.ID != "" {
		return s.ID
	}
	return s.Outcome
}

// APIBetResult is the Trading API response to a bet placement.
type APIBetResult struct {
	BetID       string  `json:"betId"`
	Status      string  `json:"status"`
	Stake       string  `json:"stake"`
	Price       float64 `json:"price"`
	ReferenceID string  `json:"referenceId"`
}

func parseEventTime(ev *APIEvent) *time.Time {
	for _, raw := range []string{ev.StartTime, ev.CutoffTime} {
		if raw == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return &t
		}
	}
	return nil
}
