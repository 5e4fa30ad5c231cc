package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/amaumene/cinescout/internal/controllers"
	"github.com/amaumene/cinescout/internal/models"
	"github.com/sirupsen/logrus"
)

// MaxTrendingLimit caps the limit query parameter
const MaxTrendingLimit = models.MaxTrendingLimit

// TrendingSource reads the ranked trending list
type TrendingSource interface {
	TopN(ctx context.Context, n int) ([]models.TrendingEntry, error)
}

// TrendingHandler serves the current trending list
type TrendingHandler struct {
	store        TrendingSource
	defaultLimit int
	logger       *logrus.Logger
}

// NewTrendingHandler creates a new trending handler
func NewTrendingHandler(store TrendingSource, defaultLimit int, logger *logrus.Logger) *TrendingHandler {
	switch {
	case defaultLimit < 1:
		defaultLimit = 5
	case defaultLimit > MaxTrendingLimit:
		defaultLimit = MaxTrendingLimit
	}
	return &TrendingHandler{
		store:        store,
		defaultLimit: defaultLimit,
		logger:       logger,
	}
}

// TrendingResponse represents the trending response
type TrendingResponse struct {
	Limit   int                    `json:"limit"`
	Results []models.TrendingEntry `json:"results"`
}

// ServeHTTP handles the trending endpoint
func (h *TrendingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	limit := h.defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxTrendingLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 50")
			return
		}
		limit = n
	}

	entries, err := h.store.TopN(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to read trending list")
		writeError(w, http.StatusInternalServerError, controllers.MessageTrendingFailed)
		return
	}
	if entries == nil {
		entries = []models.TrendingEntry{}
	}

	writeJSON(w, http.StatusOK, TrendingResponse{Limit: limit, Results: entries})
}
