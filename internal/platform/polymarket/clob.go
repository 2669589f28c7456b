package polymarket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/alanyoungcy/hedgebot/internal/crypto"
	"github.com/alanyoungcy/hedgebot/internal/domain"
)

// usdcDecimals scales amounts to the 6-decimal base units the CLOB expects.
const usdcDecimals = 1e6

// ClobClient places orders on the Polymarket CLOB (Central Limit Order
// Book) API. It implements domain.ExchangeExecutor.
type ClobClient struct {
	baseURL    string
	httpClient *http.Client
	signer     *crypto.Signer
	hmacAuth   *crypto.HMACAuth
	logger     *slog.Logger
}

// NewClobClient creates a new CLOB REST client.
//
// baseURL is the CLOB API root, e.g. "https://clob.polymarket.com".
// signer is the EIP-712 signer for order signatures and auth messages.
// hmac may be nil; DeriveAPIKey populates it from the auth flow.
func NewClobClient(baseURL string, signer *crypto.Signer, hmac *crypto.HMACAuth, logger *slog.Logger) *ClobClient {
	if baseURL == "" {
		baseURL = "https://clob.polymarket.com"
	}
	return &ClobClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		signer:   signer,
		hmacAuth: hmac,
		logger:   logger.With(slog.String("component", "polymarket_executor")),
	}
}

// PlaceOrder signs and submits a limit order for the given outcome token.
// price is the share price in (0,1); size is the USDC stake for BUY orders
// and the token quantity for SELL orders.
func (c *ClobClient) PlaceOrder(ctx context.Context, tokenID string, side domain.OrderSide, price, size float64) (domain.BetResult, error) {
	if tokenID == "" {
		return domain.BetResult{}, fmt.Errorf("polymarket/clob: %w: missing token id", domain.ErrInvalidOrder)
	}
	if price <= 0 || price >= 1 {
		return domain.BetResult{}, fmt.Errorf("polymarket/clob: %w: price %.4f outside (0,1)", domain.ErrInvalidOrder, price)
	}
	if size <= 0 {
		return domain.BetResult{}, fmt.Errorf("polymarket/clob: %w: non-positive size", domain.ErrInvalidOrder)
	}

	if c.hmacAuth == nil {
		if err := c.DeriveAPIKey(ctx); err != nil {
			return domain.BetResult{}, err
		}
	}

	payload, err := c.buildOrder(tokenID, side, price, size)
	if err != nil {
		return domain.BetResult{}, err
	}

	address := c.signer.Address().Hex()
	signature, err := c.signer.SignOrder(payload)
	if err != nil {
		return domain.BetResult{}, fmt.Errorf("polymarket/clob: %w: %v", domain.ErrSigningFailed, err)
	}

	body := map[string]any{
		"order": map[string]any{
			"salt":          payload.Salt,
			"tokenID":       payload.TokenID,
			"makerAmount":   payload.MakerAmount,
			"takerAmount":   payload.TakerAmount,
			"side":          string(side),
			"feeRateBps":    payload.FeeRateBps,
			"nonce":         payload.Nonce,
			"expiration":    payload.Expiration,
			"signatureType": payload.SignatureType,
			"signature":     signature,
			"maker":         address,
			"signer":        address,
			"taker":         payload.Taker,
		},
		"owner":     address,
		"orderType": "FOK",
	}

	c.logger.Info("placing exchange order",
		slog.String("token_id", tokenID),
		slog.String("side", string(side)),
		slog.Float64("price", price),
		slog.Float64("size", size))

	respBody, err := c.doAuthenticatedRequest(ctx, http.MethodPost, "/order", body)
	if err != nil {
		return domain.BetResult{}, fmt.Errorf("polymarket/clob: post order: %w", err)
	}

	var result APIOrderResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return domain.BetResult{}, fmt.Errorf("polymarket/clob: decode order result: %w", err)
	}
	if !result.Success {
		return domain.BetResult{}, fmt.Errorf("polymarket/clob: %w: %s", domain.ErrInvalidOrder, result.ErrorMsg)
	}

	return domain.BetResult{
		OrderID:    result.OrderID,
		Venue:      domain.VenuePolymarket,
		Stake:      size,
		Odds:       1.0 / price,
		AcceptedAt: time.Now(),
	}, nil
}

// buildOrder assembles the 12-field EIP-712 order payload. Amounts are
// expressed in 6-decimal base units; the taker side receives the implied
// token quantity.
func (c *ClobClient) buildOrder(tokenID string, side domain.OrderSide, price, size float64) (crypto.OrderPayload, error) {
	address := c.signer.Address().Hex()

	var makerUnits, takerUnits float64
	var sideCode int
	switch side {
	case domain.SideBuy:
		makerUnits = size
		takerUnits = size / price
		sideCode = 0
	case domain.SideSell:
		makerUnits = size
		takerUnits = size * price
		sideCode = 1
	default:
		return crypto.OrderPayload{}, fmt.Errorf("polymarket/clob: %w: side %q", domain.ErrInvalidOrder, side)
	}

	return crypto.OrderPayload{
		Salt:          strconv.FormatInt(time.Now().UnixNano(), 10),
		Maker:         address,
		Signer:        address,
		Taker:         "0x0000000000000000000000000000000000000000",
		TokenID:       tokenID,
		MakerAmount:   strconv.FormatInt(int64(math.Round(makerUnits*usdcDecimals)), 10),
		TakerAmount:   strconv.FormatInt(int64(math.Round(takerUnits*usdcDecimals)), 10),
		Expiration:    "0",
		Nonce:         "0",
		FeeRateBps:    "0",
		Side:          sideCode,
		SignatureType: 0,
	}, nil
}

// DeriveAPIKey performs the CLOB auth flow to obtain an HMAC API key. It
// signs a ClobAuth EIP-712 message and sends it with L1 headers to the
// derive-api-key endpoint. On success it populates the client's hmacAuth.
func (c *ClobClient) DeriveAPIKey(ctx context.Context) error {
	address := c.signer.Address().Hex()
	timestamp := time.Now().Unix()
	nonce := int64(0)

	sig, err := c.signer.SignAuthMessage(address, timestamp, nonce)
	if err != nil {
		return fmt.Errorf("polymarket/clob: sign auth message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/derive-api-key", nil)
	if err != nil {
		return fmt.Errorf("polymarket/clob: create auth request: %w", err)
	}
	req.Header.Set("POLY_ADDRESS", address)
	req.Header.Set("POLY_SIGNATURE", sig)
	req.Header.Set("POLY_TIMESTAMP", fmt.Sprintf("%d", timestamp))
	req.Header.Set("POLY_NONCE", fmt.Sprintf("%d", nonce))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("polymarket/clob: auth request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("polymarket/clob: read auth response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("polymarket/clob: auth failed (HTTP %d): %s", resp.StatusCode, string(respBody))
	}

	var authResp struct {
		APIKey     string `json:"apiKey"`
		Secret     string `json:"secret"`
		Passphrase string `json:"passphrase"`
	}
	if err := json.Unmarshal(respBody, &authResp); err != nil {
		return fmt.Errorf("polymarket/clob: decode auth response: %w", err)
	}

	c.hmacAuth = &crypto.HMACAuth{
		Key:        authResp.APIKey,
		Secret:     authResp.Secret,
		Passphrase: authResp.Passphrase,
	}

	c.logger.Info("clob api key derived", slog.String("address", address))
	return nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doAuthenticatedRequest builds, signs (HMAC), sends, and reads an HTTP
// request against the CLOB API. It returns the raw response body.
func (c *ClobClient) doAuthenticatedRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	var bodyReader io.Reader
	var bodyStr string

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyStr = string(jsonBody)
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.hmacAuth != nil {
		address := c.signer.Address().Hex()
		headers := c.hmacAuth.L2Headers(address, method, path, bodyStr)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	return respBody, nil
}

// checkHTTPStatus maps non-2xx status codes to appropriate domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}

// Compile-time interface check.
var _ domain.ExchangeExecutor = (*ClobClient)(nil)
