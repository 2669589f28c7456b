package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

// OpportunitySource reads the persisted opportunity ledger.
type OpportunitySource interface {
	Stats(ctx context.Context, since time.Time) (domain.StoreStats, error)
	Recent(ctx context.Context, limit int) ([]domain.OpportunityRecord, error)
}

// OpportunityHandler serves the opportunity ledger endpoints.
type OpportunityHandler struct {
	source OpportunitySource
	logger *slog.Logger
}

// NewOpportunityHandler creates an OpportunityHandler.
func NewOpportunityHandler(source OpportunitySource, logger *slog.Logger) *OpportunityHandler {
	return &OpportunityHandler{
		source: source,
		logger: logger.With(slog.String("handler", "opportunities")),
	}
}

// GetStats responds with aggregate detection and execution statistics.
// The optional "since_hours" query parameter restricts the window; the
// default covers the whole table.
// GET /api/stats
func (h *OpportunityHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	since := time.Time{}
	if v := r.URL.Query().Get("since_hours"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil || hours <= 0 {
			writeError(w, http.StatusBadRequest, "since_hours must be a positive integer")
			return
		}
		since = time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	}

	stats, err := h.source.Stats(r.Context(), since)
	if err != nil {
		h.logger.Error("stats query failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "stats query failed")
		return
	}

	resp := map[string]any{
		"total":       stats.Total,
		"bets_placed": stats.BetsPlaced,
		"avg_profit":  stats.AvgProfit,
		"best_profit": stats.BestProfit,
		"total_pnl":   stats.TotalPnL,
	}
	if stats.FirstSeenAt != nil {
		resp["first_seen_at"] = stats.FirstSeenAt.UTC().Format(time.RFC3339)
	}
	if stats.LastSeenAt != nil {
		resp["last_seen_at"] = stats.LastSeenAt.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListRecent responds with the most recently detected opportunities.
// GET /api/opportunities/recent
func (h *OpportunityHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 50, 500)

	records, err := h.source.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("recent query failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "recent query failed")
		return
	}

	out := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		item := map[string]any{
			"id":          rec.ID,
			"kind":        rec.Kind,
			"market_name": rec.MarketName,
			"event_name":  rec.EventName,
			"venue_a":     rec.VenueA,
			"venue_b":     rec.VenueB,
			"odds_a":      rec.OddsA,
			"odds_b":      rec.OddsB,
			"profit_pct":  rec.ProfitPct,
			"sport":       rec.Sport,
			"bet_placed":  rec.BetPlaced,
			"alert_sent":  rec.AlertSent,
			"detected_at": rec.DetectedAt.UTC().Format(time.RFC3339),
		}
		if rec.RealizedPnL != nil {
			item["realized_pnl"] = *rec.RealizedPnL
		}
		out = append(out, item)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":         len(out),
		"opportunities": out,
	})
}
