package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

type fakeSource struct {
	stats     domain.StoreStats
	statsErr  error
	records   []domain.OpportunityRecord
	recentErr error
	lastSince time.Time
	lastLimit int
}

func (f *fakeSource) Stats(_ context.Context, since time.Time) (domain.StoreStats, error) {
	f.lastSince = since
	return f.stats, f.statsErr
}

func (f *fakeSource) Recent(_ context.Context, limit int) ([]domain.OpportunityRecord, error) {
	f.lastLimit = limit
	return f.records, f.recentErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestGetStats(t *testing.T) {
	first := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	src := &fakeSource{stats: domain.StoreStats{
		Total:       12,
		BetsPlaced:  3,
		AvgProfit:   2.4,
		BestProfit:  10.77,
		TotalPnL:    41.5,
		FirstSeenAt: &first,
	}}
	h := NewOpportunityHandler(src, testLogger())

	rec := httptest.NewRecorder()
	h.GetStats(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(12), body["total"])
	assert.Equal(t, float64(3), body["bets_placed"])
	assert.Equal(t, 10.77, body["best_profit"])
	assert.Equal(t, "2026-02-01T10:00:00Z", body["first_seen_at"])
	assert.NotContains(t, body, "last_seen_at")
	assert.True(t, src.lastSince.IsZero())
}

func TestGetStatsSinceHours(t *testing.T) {
	src := &fakeSource{}
	h := NewOpportunityHandler(src, testLogger())

	rec := httptest.NewRecorder()
	h.GetStats(rec, httptest.NewRequest(http.MethodGet, "/api/stats?since_hours=24", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.WithinDuration(t, time.Now().UTC().Add(-24*time.Hour), src.lastSince, time.Minute)
}

func TestGetStatsRejectsBadWindow(t *testing.T) {
	h := NewOpportunityHandler(&fakeSource{}, testLogger())

	for _, v := range []string{"abc", "-1", "0"} {
		rec := httptest.NewRecorder()
		h.GetStats(rec, httptest.NewRequest(http.MethodGet, "/api/stats?since_hours="+v, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "since_hours=%s", v)
	}
}

func TestGetStatsQueryFailure(t *testing.T) {
	h := NewOpportunityHandler(&fakeSource{statsErr: errors.New("pool closed")}, testLogger())

	rec := httptest.NewRecorder()
	h.GetStats(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestListRecent(t *testing.T) {
	pnl := 4.2
	src := &fakeSource{records: []domain.OpportunityRecord{
		{
			ID:          7,
			Kind:        domain.KindArbitrage,
			MarketName:  "Lakers vs Warriors",
			VenueA:      domain.VenuePolymarket,
			VenueB:      domain.VenueCloudbet,
			OddsA:       2.41,
			OddsB:       2.05,
			ProfitPct:   10.77,
			Sport:       "basketball",
			BetPlaced:   true,
			AlertSent:   true,
			RealizedPnL: &pnl,
			DetectedAt:  time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			ID:         8,
			Kind:       domain.KindValueEdge,
			MarketName: "Celtics vs Heat",
			DetectedAt: time.Date(2026, 2, 1, 11, 0, 0, 0, time.UTC),
		},
	}}
	h := NewOpportunityHandler(src, testLogger())

	rec := httptest.NewRecorder()
	h.ListRecent(rec, httptest.NewRequest(http.MethodGet, "/api/opportunities/recent", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 50, src.lastLimit)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(2), body["count"])

	items := body["opportunities"].([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.Equal(t, "Lakers vs Warriors", first["market_name"])
	assert.Equal(t, 4.2, first["realized_pnl"])
	second := items[1].(map[string]any)
	assert.NotContains(t, second, "realized_pnl")
}

func TestListRecentClampsLimit(t *testing.T) {
	src := &fakeSource{}
	h := NewOpportunityHandler(src, testLogger())

	rec := httptest.NewRecorder()
	h.ListRecent(rec, httptest.NewRequest(http.MethodGet, "/api/opportunities/recent?limit=9999", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 500, src.lastLimit)
}

func TestGetStatus(t *testing.T) {
	h := NewStatusHandler("scan", true, false, time.Now().Add(-90*time.Second))

	rec := httptest.NewRecorder()
	h.GetStatus(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "scan", body["mode"])
	assert.Equal(t, true, body["autobet_enabled"])
	assert.Equal(t, false, body["real_execution"])
	assert.GreaterOrEqual(t, body["uptime_seconds"], float64(90))
}

func TestHealthCheck(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
}
