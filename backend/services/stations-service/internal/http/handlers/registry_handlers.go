package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"chargemap/backend/services/stations-service/internal/http/middleware"
	"chargemap/backend/services/stations-service/internal/service"
)

// RegistryHandlers serves reviews and favorites.
type RegistryHandlers struct {
	registry *service.Registry
	logger   *zap.Logger
}

// NewRegistryHandlers builds handler set.
func NewRegistryHandlers(registry *service.Registry, logger *zap.Logger) *RegistryHandlers {
	return &RegistryHandlers{registry: registry, logger: logger}
}

type reviewRequest struct {
	StationID int64  `json:"station"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

type favoriteRequest struct {
	StationID int64 `json:"station"`
}

// ListReviews handles GET /api/reviews, optionally filtered by ?station=.
func (h *RegistryHandlers) ListReviews(w http.ResponseWriter, r *http.Request) {
	var stationID int64
	if raw := r.URL.Query().Get("station"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "station must be a positive integer")
			return
		}
		stationID = id
	}
	reviews, err := h.registry.ListReviews(r.Context(), stationID)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to list reviews")
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

// CreateReview handles POST /api/reviews.
func (h *RegistryHandlers) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.StationID <= 0 {
		writeError(w, http.StatusBadRequest, "station is required")
		return
	}
	actor := middleware.ActorFromContext(r.Context())
	review, err := h.registry.AddReview(r.Context(), actor.UserID, req.StationID, req.Rating, req.Comment)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to create review")
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

// GetReview handles GET /api/reviews/{id}.
func (h *RegistryHandlers) GetReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	review, err := h.registry.GetReview(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to fetch review")
		return
	}
	writeJSON(w, http.StatusOK, review)
}

// UpdateReview handles PUT /api/reviews/{id}.
func (h *RegistryHandlers) UpdateReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	var req reviewRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	actor := middleware.ActorFromContext(r.Context())
	review, err := h.registry.UpdateReview(r.Context(), actor.UserID, id, req.Rating, req.Comment)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to update review")
		return
	}
	writeJSON(w, http.StatusOK, review)
}

// DeleteReview handles DELETE /api/reviews/{id}.
func (h *RegistryHandlers) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	actor := middleware.ActorFromContext(r.Context())
	if err := h.registry.DeleteReview(r.Context(), actor.UserID, id); err != nil {
		writeServiceError(w, h.logger, err, "failed to delete review")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListFavorites handles GET /api/favorites.
func (h *RegistryHandlers) ListFavorites(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())
	favorites, err := h.registry.ListFavorites(r.Context(), actor.UserID)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to list favorites")
		return
	}
	writeJSON(w, http.StatusOK, favorites)
}

// CreateFavorite handles POST /api/favorites.
func (h *RegistryHandlers) CreateFavorite(w http.ResponseWriter, r *http.Request) {
	var req favoriteRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.StationID <= 0 {
		writeError(w, http.StatusBadRequest, "station is required")
		return
	}
	actor := middleware.ActorFromContext(r.Context())
	favorite, err := h.registry.AddFavorite(r.Context(), actor.UserID, req.StationID)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to create favorite")
		return
	}
	writeJSON(w, http.StatusCreated, favorite)
}

// DeleteFavorite handles DELETE /api/favorites/{id}.
func (h *RegistryHandlers) DeleteFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	actor := middleware.ActorFromContext(r.Context())
	if err := h.registry.DeleteFavorite(r.Context(), actor.UserID, id); err != nil {
		writeServiceError(w, h.logger, err, "failed to delete favorite")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
