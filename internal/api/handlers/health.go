package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// HealthCheck checks one dependency
type HealthCheck func(ctx context.Context) error

// HealthHandler handles health check requests
type HealthHandler struct {
	checks map[string]HealthCheck
	logger *logrus.Logger
}

// NewHealthHandler creates a new health handler. checks may be nil.
func NewHealthHandler(checks map[string]HealthCheck, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{checks: checks, logger: logger}
}

// HealthResponse represents the health response
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// ServeHTTP handles the health check endpoint
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	response := HealthResponse{Status: "healthy"}
	status := http.StatusOK

	for name, check := range h.checks {
		if response.Checks == nil {
			response.Checks = make(map[string]string, len(h.checks))
		}
		if err := check(ctx); err != nil {
			h.logger.WithError(err).WithField("check", name).Warn("Health check failed")
			response.Checks[name] = err.Error()
			response.Status = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		response.Checks[name] = "ok"
	}

	writeJSON(w, status, response)
}
