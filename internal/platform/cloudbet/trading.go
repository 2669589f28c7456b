package cloudbet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

// TradingClient places bets through the Cloudbet trading API. It implements
// domain.SportsbookExecutor.
type TradingClient struct {
	baseURL    string
	apiKey     string
	currency   string
	httpClient *http.Client
	logger     *slog.Logger
}

// TradingConfig configures the trading client.
type TradingConfig struct {
	BaseURL  string
	APIKey   string
	Currency string
	Timeout  time.Duration
}

// NewTradingClient creates a new trading client.
func NewTradingClient(cfg TradingConfig, logger *slog.Logger) *TradingClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://sports-api.cloudbet.com"
	}
	if cfg.Currency == "" {
		cfg.Currency = "USDT"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &TradingClient{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		currency:   cfg.Currency,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.With(slog.String("component", "cloudbet_executor")),
	}
}

// PlaceBet submits a single bet. Each call carries a fresh referenceId so
// the trading API can deduplicate accidental resubmissions.
func (t *TradingClient) PlaceBet(ctx context.Context, eventID, marketURL, selectionID string, stake, odds float64) (domain.BetResult, error) {
	if selectionID == "" && marketURL == "" {
		return domain.BetResult{}, fmt.Errorf("cloudbet/trading: %w: missing selection identifiers", domain.ErrInvalidOrder)
	}
	if stake <= 0 {
		return domain.BetResult{}, fmt.Errorf("cloudbet/trading: %w: non-positive stake", domain.ErrInvalidOrder)
	}
	if odds <= 1.0 {
		return domain.BetResult{}, fmt.Errorf("cloudbet/trading: %w: odds %.4f not above 1.0", domain.ErrInvalidOrder, odds)
	}

	referenceID := uuid.NewString()
	payload := map[string]any{
		"referenceId":       referenceID,
		"currency":          t.currency,
		"stake":             strconv.FormatFloat(stake, 'f', 2, 64),
		"price":             odds,
		"eventId":           eventID,
		"marketUrl":         marketURL,
		"selectionId":       selectionID,
		"acceptPriceChange": "BETTER",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.BetResult{}, fmt.Errorf("cloudbet/trading: marshal bet: %w", err)
	}

	t.logger.Info("placing sportsbook bet",
		slog.String("event_id", eventID),
		slog.String("market_url", marketURL),
		slog.Float64("odds", odds),
		slog.Float64("stake", stake))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/v3/bets/place", bytes.NewReader(body))
	if err != nil {
		return domain.BetResult{}, fmt.Errorf("cloudbet/trading: create request: %w", err)
	}
	req.Header.Set("X-API-Key", t.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return domain.BetResult{}, fmt.Errorf("cloudbet/trading: http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.BetResult{}, fmt.Errorf("cloudbet/trading: read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.BetResult{}, fmt.Errorf("cloudbet/trading: %w: %s", domain.ErrUnauthorized, string(respBody))
	case http.StatusTooManyRequests:
		return domain.BetResult{}, fmt.Errorf("cloudbet/trading: %w: %s", domain.ErrRateLimited, string(respBody))
	default:
		return domain.BetResult{}, fmt.Errorf("cloudbet/trading: place bet failed (HTTP %d): %s", resp.StatusCode, string(respBody))
	}

	var result APIBetResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return domain.BetResult{}, fmt.Errorf("cloudbet/trading: decode bet result: %w", err)
	}
	if result.Status != "" && result.Status != "ACCEPTED" && result.Status != "PENDING_ACCEPTANCE" {
		return domain.BetResult{}, fmt.Errorf("cloudbet/trading: %w: bet status %s", domain.ErrInvalidOrder, result.Status)
	}

	t.logger.Info("sportsbook bet placed",
		slog.String("bet_id", result.BetID),
		slog.String("reference_id", referenceID))

	return domain.BetResult{
		OrderID:     result.BetID,
		Venue:       domain.VenueCloudbet,
		Stake:       stake,
		Odds:        odds,
		AcceptedAt:  time.Now(),
		ReferenceID: referenceID,
	}, nil
}

// Close releases idle connections.
func (t *TradingClient) Close() error {
	t.httpClient.CloseIdleConnections()
	return nil
}

// Compile-time interface check.
var _ domain.SportsbookExecutor = (*TradingClient)(nil)
