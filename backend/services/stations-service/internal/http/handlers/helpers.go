package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"chargemap/backend/services/stations-service/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads a JSON body into dst. An empty body is accepted when allowEmpty is set.
func decodeJSON(r *http.Request, dst interface{}, allowEmpty bool) error {
	err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst)
	if errors.Is(err, io.EOF) && allowEmpty {
		return nil
	}
	return err
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, models.NewValidationError(models.ErrInvalidQuery, name+" must be a non-negative integer")
	}
	return v, nil
}

// writeServiceError maps domain errors to HTTP responses. fallback is the message used
// for unexpected failures, which are logged.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, models.ErrInvalidRating),
		errors.Is(err, models.ErrInvalidEnergy),
		errors.Is(err, models.ErrInvalidStation),
		errors.Is(err, models.ErrInvalidQuery):
		writeError(w, http.StatusBadRequest, clientMessage(err))
	case errors.Is(err, models.ErrStationUnavailable):
		writeError(w, http.StatusBadRequest, "Station is not available")
	case errors.Is(err, models.ErrSessionAlreadyActive):
		writeError(w, http.StatusBadRequest, "You already have an active charging session")
	case errors.Is(err, models.ErrNoActiveSession):
		writeError(w, http.StatusBadRequest, "No active charging session found")
	case errors.Is(err, models.ErrStationNotFound):
		writeError(w, http.StatusNotFound, "Station not found")
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, models.ErrForbidden):
		writeError(w, http.StatusForbidden, "You do not have permission to perform this action")
	case errors.Is(err, models.ErrDuplicateEntry):
		writeError(w, http.StatusConflict, "Entry already exists")
	default:
		logger.Error(fallback, zap.Error(err))
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func clientMessage(err error) string {
	switch {
	case errors.Is(err, models.ErrInvalidRating):
		return "Rating must be between 1 and 5"
	case errors.Is(err, models.ErrInvalidEnergy):
		return "energy_kwh must not be negative"
	case errors.Is(err, models.ErrInvalidQuery):
		return "Invalid query"
	default:
		return "Invalid station"
	}
}
