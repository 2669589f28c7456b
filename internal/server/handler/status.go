package handler

import (
	"net/http"
	"time"
)

// StatusHandler serves the backend status for dashboards and monitoring.
type StatusHandler struct {
	Mode           string
	AutobetEnabled bool
	RealExecution  bool
	StartedAt      time.Time
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(mode string, autobetEnabled, realExecution bool, startedAt time.Time) *StatusHandler {
	return &StatusHandler{
		Mode:           mode,
		AutobetEnabled: autobetEnabled,
		RealExecution:  realExecution,
		StartedAt:      startedAt,
	}
}

// GetStatus responds with the current operating mode and run flags.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"mode":            h.Mode,
		"autobet_enabled": h.AutobetEnabled,
		"real_execution":  h.RealExecution,
		"started_at":      h.StartedAt.UTC().Format(time.RFC3339),
		"uptime_seconds":  int64(time.Since(h.StartedAt).Seconds()),
	})
}
