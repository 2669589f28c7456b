package polymarket

import (
	"encoding/json"
	"strings"
	"time"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// flexStrings unmarshals from a JSON array of strings or from a string
// containing a JSON-encoded array. The Gamma API uses both shapes for
// "outcomes", "outcomePrices", and "clobTokenIds".
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*f = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*f = nil
		return nil
	}
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		return err
	}
	*f = list
	return nil
}

// APIMarket is a market object as returned by the Gamma API. Several fields
// arrive either as native JSON values or as JSON-encoded strings.
type APIMarket struct {
	ID            string      `json:"id"`
	ConditionID   string      `json:"conditionId"`
	Question      string      `json:"question"`
	Title         string      `json:"title"`
	Slug          string      `json:"slug"`
	Outcomes      flexStrings `json:"outcomes"`
	OutcomePrices flexStrings `json:"outcomePrices"`
	ClobTokenIDs  flexStrings `json:"clobTokenIds"`
	Active        *flexBool   `json:"active"`
	Closed        *flexBool   `json:"closed"`
	Archived      *flexBool   `json:"archived"`
	StartDate     string      `json:"startDate"`
	EndDate       string      `json:"endDate"`
}

// DisplayTitle returns the first non-empty of question and title.
func (m *APIMarket) DisplayTitle() string {
	if m.Question != "" {
		return m.Question
	}
	return m.Title
}

// APIEvent is an event object from the Gamma API, carrying its markets.
type APIEvent struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Ticker    string      `json:"ticker"`
	Slug      string      `json:"slug"`
	Active    *flexBool   `json:"active"`
	Closed    *flexBool   `json:"closed"`
	StartDate string      `json:"startDate"`
	EndDate   string      `json:"endDate"`
	Markets   []APIMarket `json:"markets"`
}

// APISport is one entry from the Gamma /sports endpoint.
type APISport struct {
	Sport  string      `json:"sport"`
	Series json.Number `json:"series"`
}

// APIOrderResult is the CLOB response to an order submission.
type APIOrderResult struct {
	Success  bool   `json:"success"`
	OrderID  string `json:"orderID"`
	ErrorMsg string `json:"errorMsg"`
	Status   string `json:"status"`
}

func parseISOTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	return &t
}
