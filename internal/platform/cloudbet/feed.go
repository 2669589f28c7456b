// Package cloudbet implements the sportsbook-side fetch and execution
// clients against the Cloudbet odds and trading APIs.
package cloudbet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

// popularSports limits the hierarchy walk to sports with enough liquidity
// to hedge against.
var popularSports = []string{
	"soccer", "basketball", "american-football", "baseball", "tennis", "boxing", "mma",
}

// maxCompetitionsPerSport caps the per-sport fan-out of the hierarchy walk.
const maxCompetitionsPerSport = 5

// FeedClient fetches priced selections from the Cloudbet odds API by
// walking sports, competitions, events, and markets. It implements
// domain.SportsbookSource.
type FeedClient struct {
	baseURL       string
	apiKey        string
	httpClient    *http.Client
	retryAttempts int
	retryDelay    time.Duration
	logger        *slog.Logger
}

// FeedConfig configures the odds feed client.
type FeedConfig struct {
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// NewFeedClient creates a new odds feed client.
func NewFeedClient(cfg FeedConfig, logger *slog.Logger) *FeedClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://sports-api.cloudbet.com/pub"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	return &FeedClient{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:        cfg.APIKey,
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		retryAttempts: cfg.RetryAttempts,
		retryDelay:    cfg.RetryDelay,
		logger:        logger.With(slog.String("component", "cloudbet_fetcher")),
	}
}

// FetchOutcomes walks the full hierarchy and returns every priced selection
// of every tradable event. Per-competition failures are logged and skipped;
// only a failure to list sports is an error.
func (f *FeedClient) FetchOutcomes(ctx context.Context) ([]domain.RawSportOutcome, error) {
	sports, err := f.listSports(ctx)
	if err != nil {
		return nil, err
	}

	var (
		outcomes    []domain.RawSportOutcome
		eventCount  int
		marketCount int
	)
	for _, sport := range sports {
		if !isPopularSport(sport.Key) {
			continue
		}

		competitions, err := f.listCompetitions(ctx, sport.Key)
		if err != nil {
			f.logger.Warn("competition fetch failed",
				slog.String("sport", sport.Key),
				slog.Any("error", err))
			continue
		}
		if len(competitions) > maxCompetitionsPerSport {
			competitions = competitions[:maxCompetitionsPerSport]
		}

		for _, comp := range competitions {
			events, err := f.listEvents(ctx, comp.Key)
			if err != nil {
				f.logger.Warn("event fetch failed",
					slog.String("competition", comp.Key),
					slog.Any("error", err))
				continue
			}
			eventCount += len(events)
			for i := range events {
				ext, markets := extractOutcomes(&events[i], sport.Key, comp.Key)
				outcomes = append(outcomes, ext...)
				marketCount += markets
			}
		}
	}

	f.logger.Info("cloudbet fetch complete",
		slog.Int("events", eventCount),
		slog.Int("markets", marketCount),
		slog.Int("outcomes", len(outcomes)))
	return outcomes, nil
}

// Close releases idle connections.
func (f *FeedClient) Close() error {
	f.httpClient.CloseIdleConnections()
	return nil
}

func (f *FeedClient) listSports(ctx context.Context) ([]APISport, error) {
	body, err := f.doGet(ctx, "/v2/odds/sports")
	if err != nil {
		return nil, fmt.Errorf("cloudbet/feed: list sports: %w", err)
	}

	var resp struct {
		Sports []APISport `json:"sports"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("cloudbet/feed: decode sports: %w", err)
	}
	return resp.Sports, nil
}

func (f *FeedClient) listCompetitions(ctx context.Context, sportKey string) ([]APICompetition, error) {
	body, err := f.doGet(ctx, "/v2/odds/sports/"+url.PathEscape(sportKey))
	if err != nil {
		return nil, fmt.Errorf("cloudbet/feed: list competitions %s: %w", sportKey, err)
	}
	if body == nil {
		return nil, nil
	}

	var detail APISportDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, fmt.Errorf("cloudbet/feed: decode sport detail: %w", err)
	}

	var competitions []APICompetition
	for _, cat := range detail.Categories {
		competitions = append(competitions, cat.Competitions...)
	}
	return competitions, nil
}

func (f *FeedClient) listEvents(ctx context.Context, competitionKey string) ([]APIEvent, error) {
	body, err := f.doGet(ctx, "/v2/odds/competitions/"+url.PathEscape(competitionKey))
	if err != nil {
		return nil, fmt.Errorf("cloudbet/feed: list events %s: %w", competitionKey, err)
	}
	if body == nil {
		return nil, nil
	}

	var detail APICompetitionDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, fmt.Errorf("cloudbet/feed: decode competition detail: %w", err)
	}
	return detail.Events, nil
}

// extractOutcomes flattens one event's markets into raw outcomes. Only
// events currently trading are priced; each selection carries the market
// URL required by the trading API, built as market_key/outcome?params.
func extractOutcomes(ev *APIEvent, sportKey, competitionKey string) ([]domain.RawSportOutcome, int) {
	if ev.Status != "TRADING" && ev.Status != "TRADING_LIVE" {
		return nil, 0
	}

	eventID := strconv.FormatInt(ev.ID, 10)
	startTime := parseEventTime(ev)
	displayURL := displayURL(sportKey, competitionKey, eventID)

	var out []domain.RawSportOutcome
	markets := 0
	for marketType, market := range ev.Markets {
		markets++
		for _, sub := range market.Submarkets {
			for _, sel := range sub.Selections {
				if sel.Price < 1.0 {
					continue
				}

				marketURL := correctedMarketKey(marketType, sportKey) + "/" + sel.Outcome
				if sel.Params != "" {
					marketURL += "?" + sel.Params
				}

				out = append(out, domain.RawSportOutcome{
					EventName:      ev.Name,
					EventID:        eventID,
					MarketType:     marketType,
					Outcome:        sel.Outcome,
					Odds:           sel.Price,
					SelectionID:    sel.SelectionID(),
					MarketURL:      marketURL,
					URL:            displayURL,
					SportKey:       sportKey,
					CompetitionKey: competitionKey,
					StartTime:      startTime,
				})
			}
		}
	}
	return out, markets
}

// correctedMarketKey fixes sport-specific market types the odds API
// sometimes mislabels, such as basketball events keyed as 1x2.
func correctedMarketKey(marketType, sportKey string) string {
	switch {
	case strings.Contains(sportKey, "basketball"):
		if strings.Contains(marketType, "1x2") || strings.Contains(marketType, "winner") {
			return "basketball.match_winner"
		}
		if strings.Contains(marketType, "moneyline") {
			return "basketball.moneyline"
		}
	case strings.Contains(sportKey, "soccer") || strings.Contains(sportKey, "football"):
		if strings.Contains(marketType, "winner") || strings.Contains(marketType, "1x2") {
			base, _, _ := strings.Cut(sportKey, "-")
			return base + ".1x2"
		}
	}
	return marketType
}

func displayURL(sportKey, competitionKey, eventID string) string {
	u := "https://www.cloudbet.com/en/sports/" + sportKey
	if competitionKey != "" {
		u += "/" + competitionKey
	}
	if eventID != "" {
		u += "/" + eventID
	}
	return u
}

func isPopularSport(key string) bool {
	for _, s := range popularSports {
		if key == s {
			return true
		}
	}
	return false
}

// doGet sends an authenticated GET with retry. A nil body with nil error
// means the resource does not exist, which is routine for sparse sports.
func (f *FeedClient) doGet(ctx context.Context, path string) ([]byte, error) {
	endpoint := f.baseURL + path

	var lastErr error
	for attempt := 0; attempt < f.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(f.retryDelay * time.Duration(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("X-API-Key", f.apiKey)
		req.Header.Set("Accept", "application/json")

		resp, err := f.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			f.logger.Warn("cloudbet request failed",
				slog.Int("attempt", attempt+1),
				slog.Any("error", err))
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusForbidden:
			return nil, fmt.Errorf("%w: api key lacks odds permission", domain.ErrUnauthorized)
		case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound:
			return nil, nil
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
			continue
		case resp.StatusCode != http.StatusOK:
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
		}
		return body, nil
	}
	return nil, lastErr
}

// Compile-time interface check.
var _ domain.SportsbookSource = (*FeedClient)(nil)
