package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/amaumene/cinescout/internal/models"
	"github.com/sirupsen/logrus"
)

// StatsSource reports the contents of the trending store
type StatsSource interface {
	Stats(ctx context.Context) (models.StoreStats, error)
}

// SessionCounter reports the number of live sessions
type SessionCounter interface {
	Count() int
}

// StatusHandler handles status requests
type StatusHandler struct {
	store    StatsSource
	sessions SessionCounter
	driver   models.StoreDriver
	started  time.Time
	logger   *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(store StatsSource, sessions SessionCounter, driver models.StoreDriver, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		store:    store,
		sessions: sessions,
		driver:   driver,
		started:  time.Now(),
		logger:   logger,
	}
}

// StatusResponse represents the status response
type StatusResponse struct {
	StoreDriver    models.StoreDriver `json:"store_driver"`
	TrendingTerms  int                `json:"trending_terms"`
	TotalSearches  int64              `json:"total_searches"`
	ActiveSessions int                `json:"active_sessions"`
	UptimeSeconds  int64              `json:"uptime_seconds"`
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to read store stats")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		StoreDriver:    h.driver,
		TrendingTerms:  stats.Terms,
		TotalSearches:  stats.Searches,
		ActiveSessions: h.sessions.Count(),
		UptimeSeconds:  int64(time.Since(h.started).Seconds()),
	})
}
