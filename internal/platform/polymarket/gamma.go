// Package polymarket implements the exchange-side fetch and execution
// clients against the Polymarket Gamma and CLOB APIs.
package polymarket

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

// gameTagID filters Gamma events to game bets, excluding futures and props.
const gameTagID = "100639"

// targetSeries are the league short codes worth scanning for moneyline
// markets.
var targetSeries = []string{
	"nba", "nfl", "nhl", "mlb", "epl", "lal", "bun", "fl1", "sea", "ucl", "uel", "mls",
}

// propWords mark a market title as a prop rather than the main game market.
var propWords = []string{"over", "under", "points", "rebounds", "assists", "spread"}

// GammaClient fetches sports game markets from the Polymarket Gamma API.
// It implements domain.ExchangeSource.
type GammaClient struct {
	baseURL       string
	httpClient    *http.Client
	retryAttempts int
	retryDelay    time.Duration
	marketLimit   int
	logger        *slog.Logger
}

// GammaConfig configures the Gamma fetcher.
type GammaConfig struct {
	BaseURL       string
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	MarketLimit   int
}

// NewGammaClient creates a new Gamma API client.
func NewGammaClient(cfg GammaConfig, logger *slog.Logger) *GammaClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://gamma-api.polymarket.com"
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
	if cfg.MarketLimit == 0 {
		cfg.MarketLimit = 200
	}
	return &GammaClient{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		retryAttempts: cfg.RetryAttempts,
		retryDelay:    cfg.RetryDelay,
		marketLimit:   cfg.MarketLimit,
		logger:        logger.With(slog.String("component", "polymarket_fetcher")),
	}
}

// FetchMarkets walks the Gamma sports hierarchy: /sports for league series
// ids, then game events per series, then the main game market per event.
// When the events path yields fewer markets than the limit it falls back to
// the flat /markets listing.
func (g *GammaClient) FetchMarkets(ctx context.Context) ([]domain.RawExchangeMarket, error) {
	var markets []domain.RawExchangeMarket

	seriesIDs, err := g.targetSeriesIDs(ctx)
	if err != nil {
		g.logger.Warn("sports lookup failed, falling back to /markets", slog.Any("error", err))
	}

	for _, seriesID := range seriesIDs {
		events, err := g.gameEvents(ctx, seriesID)
		if err != nil {
			g.logger.Warn("event fetch failed",
				slog.String("series_id", seriesID),
				slog.Any("error", err))
			continue
		}
		for i := range events {
			if m, ok := g.eventMarket(ctx, &events[i]); ok {
				markets = append(markets, m)
			}
			if len(markets) >= g.marketLimit {
				return markets, nil
			}
		}
	}

	if len(markets) < g.marketLimit {
		flat, err := g.flatMarkets(ctx)
		if err != nil {
			if len(markets) == 0 {
				return nil, err
			}
			g.logger.Warn("flat market fetch failed", slog.Any("error", err))
		}
		markets = append(markets, flat...)
	}

	g.logger.Info("polymarket fetch complete", slog.Int("markets", len(markets)))
	return markets, nil
}

// Close releases idle connections.
func (g *GammaClient) Close() error {
	g.httpClient.CloseIdleConnections()
	return nil
}

func (g *GammaClient) targetSeriesIDs(ctx context.Context) ([]string, error) {
	body, err := g.doGet(ctx, "/sports", nil)
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: get sports: %w", err)
	}

	var sports []APISport
	if err := json.Unmarshal(body, &sports); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: decode sports: %w", err)
	}

	var ids []string
	for _, s := range sports {
		name := strings.ToLower(s.Sport)
		series := s.Series.String()
		if series == "" {
			continue
		}
		for _, target := range targetSeries {
			if name == target || strings.Contains(name, target) {
				ids = append(ids, series)
				break
			}
		}
	}
	return ids, nil
}

func (g *GammaClient) gameEvents(ctx context.Context, seriesID string) ([]APIEvent, error) {
	params := url.Values{}
	params.Set("series_id", seriesID)
	params.Set("tag_id", gameTagID)
	params.Set("active", "true")
	params.Set("closed", "false")
	params.Set("limit", "100")

	body, err := g.doGet(ctx, "/events", params)
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: get events: %w", err)
	}

	var events []APIEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: decode events: %w", err)
	}

	// Cap per series so one league cannot exhaust the request budget.
	if len(events) > 30 {
		events = events[:30]
	}
	return events, nil
}

// eventMarket builds one raw market from a game event: the event title
// names the matchup, the main game market supplies outcomes, prices, and
// token ids.
func (g *GammaClient) eventMarket(ctx context.Context, ev *APIEvent) (domain.RawExchangeMarket, bool) {
	title := ev.Title
	if title == "" {
		title = ev.Ticker
	}
	if !hasVersus(title) {
		return domain.RawExchangeMarket{}, false
	}

	markets := ev.Markets
	if len(markets) == 0 {
		detail, err := g.eventDetail(ctx, ev.ID)
		if err != nil {
			g.logger.Debug("event detail fetch failed",
				slog.String("event_id", ev.ID),
				slog.Any("error", err))
			return domain.RawExchangeMarket{}, false
		}
		markets = detail.Markets
	}

	main := mainGameMarket(markets, title)
	if main == nil {
		return domain.RawExchangeMarket{}, false
	}

	outcomes, tokenIDs := parseOutcomes(main)
	if len(outcomes) < 2 {
		return domain.RawExchangeMarket{}, false
	}

	slug := ev.Slug
	if slug == "" {
		slug = ev.ID
	}
	return domain.RawExchangeMarket{
		MarketID:  "event_" + ev.ID,
		Title:     title,
		Outcomes:  outcomes,
		TokenIDs:  tokenIDs,
		URL:       "https://polymarket.com/event/" + slug,
		StartTime: parseISOTime(ev.StartDate),
	}, true
}

func (g *GammaClient) eventDetail(ctx context.Context, id string) (*APIEvent, error) {
	body, err := g.doGet(ctx, "/events/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	var ev APIEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: decode event: %w", err)
	}
	return &ev, nil
}

func (g *GammaClient) flatMarkets(ctx context.Context) ([]domain.RawExchangeMarket, error) {
	params := url.Values{}
	params.Set("closed", "false")
	params.Set("limit", strconv.Itoa(g.marketLimit*2))

	body, err := g.doGet(ctx, "/markets", params)
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: get markets: %w", err)
	}

	var apiMarkets []APIMarket
	if err := json.Unmarshal(body, &apiMarkets); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: decode markets: %w", err)
	}

	var out []domain.RawExchangeMarket
	for i := range apiMarkets {
		m := &apiMarkets[i]
		if !marketTradable(m) {
			continue
		}
		if raw, ok := parseMarket(m); ok {
			out = append(out, raw)
		}
		if len(out) >= g.marketLimit {
			break
		}
	}
	return out, nil
}

// marketTradable applies the listing filters: archived markets are dropped,
// explicitly inactive ones too, and markets without an active flag are kept
// only while not closed and not expired for more than a day.
func marketTradable(m *APIMarket) bool {
	if m.Archived != nil && bool(*m.Archived) {
		return false
	}
	if m.Active != nil {
		return bool(*m.Active)
	}
	if m.Closed != nil && bool(*m.Closed) {
		return false
	}
	if end := parseISOTime(m.EndDate); end != nil && time.Since(*end) > 24*time.Hour {
		return false
	}
	return true
}

func parseMarket(m *APIMarket) (domain.RawExchangeMarket, bool) {
	title := m.DisplayTitle()
	id := m.ID
	if id == "" {
		id = m.ConditionID
	}
	if title == "" || id == "" {
		return domain.RawExchangeMarket{}, false
	}

	outcomes, tokenIDs := parseOutcomes(m)
	if len(outcomes) < 2 {
		return domain.RawExchangeMarket{}, false
	}

	slug := m.Slug
	if slug == "" {
		slug = id
	}
	return domain.RawExchangeMarket{
		MarketID:  id,
		Title:     title,
		Outcomes:  outcomes,
		TokenIDs:  tokenIDs,
		URL:       "https://polymarket.com/event/" + slug,
		StartTime: parseISOTime(m.StartDate),
	}, true
}

// parseOutcomes pairs outcome labels with prices by index and converts each
// valid share price to decimal odds. Token ids, when present, are carried by
// the same index.
func parseOutcomes(m *APIMarket) (map[string]float64, map[string]string) {
	outcomes := make(map[string]float64, len(m.Outcomes))
	tokenIDs := make(map[string]string, len(m.Outcomes))

	for i, label := range m.Outcomes {
		if i >= len(m.OutcomePrices) {
			break
		}
		price, err := strconv.ParseFloat(m.OutcomePrices[i], 64)
		if err != nil {
			continue
		}
		odds, ok := priceToOdds(price)
		if !ok {
			continue
		}
		outcomes[label] = odds
		if i < len(m.ClobTokenIDs) && m.ClobTokenIDs[i] != "" {
			tokenIDs[label] = m.ClobTokenIDs[i]
		}
	}
	return outcomes, tokenIDs
}

// priceToOdds converts a share price in (0,1) to decimal odds.
func priceToOdds(price float64) (float64, bool) {
	if price <= 0 || price >= 1 {
		return 0, false
	}
	return 1.0 / price, true
}

// mainGameMarket picks the moneyline market for an event, ignoring props.
func mainGameMarket(markets []APIMarket, eventTitle string) *APIMarket {
	lowerEvent := strings.ToLower(eventTitle)
	for i := range markets {
		m := &markets[i]
		titleLower := strings.ToLower(m.DisplayTitle())
		if titleLower == "" {
			continue
		}
		prop := false
		for _, w := range propWords {
			if strings.Contains(titleLower, w) {
				prop = true
				break
			}
		}
		if prop {
			continue
		}
		if titleLower == lowerEvent ||
			strings.Contains(titleLower, "moneyline") ||
			(strings.Contains(titleLower, lowerEvent) && len(titleLower) > 10) {
			return m
		}
	}
	return nil
}

func hasVersus(title string) bool {
	lower := strings.ToLower(title)
	return strings.Contains(lower, " vs ") ||
		strings.Contains(lower, " vs. ") ||
		strings.Contains(lower, " v ")
}

// doGet sends a GET to the Gamma API with retry and escalating delay.
func (g *GammaClient) doGet(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint := g.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < g.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(g.retryDelay * time.Duration(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "hedgebot/1.0")

		resp, err := g.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			g.logger.Warn("polymarket request failed",
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

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
			continue
		}
		if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
			return nil, err
		}
		return body, nil
	}
	return nil, lastErr
}

// Compile-time interface check.
var _ domain.ExchangeSource = (*GammaClient)(nil)
