package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"chargemap/backend/services/stations-service/internal/http/middleware"
	"chargemap/backend/services/stations-service/internal/models"
	"chargemap/backend/services/stations-service/internal/service"
)

// SessionsHandlers serves the caller's charging history.
type SessionsHandlers struct {
	ledger *service.Ledger
	logger *zap.Logger
}

// NewSessionsHandlers builds handler set.
func NewSessionsHandlers(ledger *service.Ledger, logger *zap.Logger) *SessionsHandlers {
	return &SessionsHandlers{ledger: ledger, logger: logger}
}

// List handles GET /api/sessions.
func (h *SessionsHandlers) List(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())
	sessions, err := h.ledger.ListSessions(r.Context(), actor.UserID)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to fetch sessions")
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// Active handles GET /api/sessions/active.
func (h *SessionsHandlers) Active(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())
	session, err := h.ledger.ActiveSession(r.Context(), actor.UserID)
	if errors.Is(err, models.ErrNoActiveSession) {
		writeError(w, http.StatusNotFound, "No active charging session found")
		return
	}
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to fetch active session")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Get handles GET /api/sessions/{id}.
func (h *SessionsHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	actor := middleware.ActorFromContext(r.Context())
	session, err := h.ledger.GetSession(r.Context(), actor.UserID, id)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to fetch session")
		return
	}
	writeJSON(w, http.StatusOK, session)
}
