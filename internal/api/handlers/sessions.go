package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/amaumene/cinescout/internal/controllers"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

const maxQueryBody = 64 * 1024

// SessionService creates and looks up search sessions
type SessionService interface {
	Create() *controllers.Session
	Get(id string) (*controllers.Session, bool)
	Delete(id string) bool
}

// SessionHandler exposes search sessions over HTTP
type SessionHandler struct {
	sessions SessionService
	logger   *logrus.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions SessionService, logger *logrus.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// CreateResponse is returned when a session is created
type CreateResponse struct {
	ID string `json:"id"`
}

// QueryRequest carries the raw input value of a session
type QueryRequest struct {
	Query *string `json:"query"`
}

// Create starts a new session
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.Create()
	writeJSON(w, http.StatusCreated, CreateResponse{ID: session.ID})
}

// Get returns the snapshot of a session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := h.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	writeJSON(w, http.StatusOK, session.Snapshot())
}

// SetQuery records a new raw query; the search runs once it is stable
func (h *SessionHandler) SetQuery(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	session, ok := h.sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQueryBody)).Decode(&req); err != nil {
		h.logger.WithError(err).WithField("session", id).Debug("Invalid query payload")
		writeError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if req.Query == nil {
		writeError(w, http.StatusBadRequest, "Missing query")
		return
	}

	session.SetQuery(*req.Query)
	w.WriteHeader(http.StatusAccepted)
}

// Delete closes a session
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.Delete(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
