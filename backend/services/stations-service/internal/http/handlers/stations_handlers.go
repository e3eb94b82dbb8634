package handlers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"chargemap/backend/services/stations-service/internal/geo"
	"chargemap/backend/services/stations-service/internal/http/middleware"
	"chargemap/backend/services/stations-service/internal/models"
	"chargemap/backend/services/stations-service/internal/service"
)

// StationsHandlers serves /api/stations.
type StationsHandlers struct {
	stations *service.StationsService
	ledger   *service.Ledger
	logger   *zap.Logger
}

// NewStationsHandlers builds handler set.
func NewStationsHandlers(stations *service.StationsService, ledger *service.Ledger, logger *zap.Logger) *StationsHandlers {
	return &StationsHandlers{stations: stations, ledger: ledger, logger: logger}
}

type stationRequest struct {
	Name           string          `json:"name"`
	Address        string          `json:"address"`
	Latitude       decimal.Decimal `json:"latitude"`
	Longitude      decimal.Decimal `json:"longitude"`
	ChargingType   string          `json:"charging_type"`
	PowerOutput    int             `json:"power_output"`
	PricePerKWh    decimal.Decimal `json:"price_per_kwh"`
	Status         string          `json:"status"`
	TotalPorts     int             `json:"total_ports"`
	AvailablePorts *int            `json:"available_ports"`
	Description    string          `json:"description"`
	Amenities      []string        `json:"amenities"`
}

// station maps the body to a model. An omitted available_ports means every port
// is free on create; updates pass req.AvailablePorts through instead.
func (req stationRequest) station(id int64) *models.Station {
	st := &models.Station{
		ID:           id,
		Name:         strings.TrimSpace(req.Name),
		Address:      strings.TrimSpace(req.Address),
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		ChargingType: req.ChargingType,
		PowerOutput:  req.PowerOutput,
		PricePerKWh:  req.PricePerKWh,
		Status:       req.Status,
		TotalPorts:   req.TotalPorts,
		Description:  req.Description,
		Amenities:    req.Amenities,
	}
	if st.Status == "" {
		st.Status = models.StationStatusActive
	}
	if st.Amenities == nil {
		st.Amenities = []string{}
	}
	if req.AvailablePorts != nil {
		st.AvailablePorts = *req.AvailablePorts
	} else {
		st.AvailablePorts = req.TotalPorts
	}
	return st
}

type nearbyRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Radius    *float64 `json:"radius"`
}

type stopChargingRequest struct {
	EnergyKWh decimal.Decimal `json:"energy_kwh"`
}

// List handles GET /api/stations.
func (h *StationsHandlers) List(w http.ResponseWriter, r *http.Request) {
	filter, err := stationFilter(r)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to list stations")
		return
	}
	views, err := h.stations.ListStations(r.Context(), middleware.ActorFromContext(r.Context()), filter)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to list stations")
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func stationFilter(r *http.Request) (models.StationFilter, error) {
	q := r.URL.Query()
	filter := models.StationFilter{
		ChargingType: q.Get("charging_type"),
		Status:       q.Get("status"),
		Search:       strings.TrimSpace(q.Get("search")),
		Ordering:     q.Get("ordering"),
	}
	var err error
	if filter.PowerOutput, err = queryInt(r, "power_output"); err != nil {
		return filter, err
	}
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		return filter, err
	}
	if filter.Offset, err = queryInt(r, "offset"); err != nil {
		return filter, err
	}
	return filter, nil
}

// Get handles GET /api/stations/{id}.
func (h *StationsHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "Station not found")
		return
	}
	view, err := h.stations.GetStation(r.Context(), middleware.ActorFromContext(r.Context()), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to fetch station")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Create handles POST /api/stations.
func (h *StationsHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req stationRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	view, err := h.stations.CreateStation(r.Context(), middleware.ActorFromContext(r.Context()), req.station(0))
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to create station")
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// Update handles PUT /api/stations/{id}.
func (h *StationsHandlers) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "Station not found")
		return
	}
	var req stationRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	view, err := h.stations.UpdateStation(r.Context(), middleware.ActorFromContext(r.Context()), req.station(id), req.AvailablePorts)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to update station")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Delete handles DELETE /api/stations/{id}.
func (h *StationsHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "Station not found")
		return
	}
	if err := h.stations.DeleteStation(r.Context(), middleware.ActorFromContext(r.Context()), id); err != nil {
		writeServiceError(w, h.logger, err, "failed to delete station")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Nearby handles POST /api/stations/nearby.
func (h *StationsHandlers) Nearby(w http.ResponseWriter, r *http.Request) {
	var req nearbyRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		writeError(w, http.StatusBadRequest, "latitude and longitude are required")
		return
	}
	q := geo.Query{Latitude: *req.Latitude, Longitude: *req.Longitude, RadiusKm: geo.DefaultRadiusKm}
	if req.Radius != nil {
		q.RadiusKm = *req.Radius
	}

	stations, err := h.stations.FindNearby(r.Context(), middleware.ActorFromContext(r.Context()), q)
	if err != nil {
		writeServiceError(w, h.logger, err, "An error occurred while fetching nearby stations")
		return
	}
	writeJSON(w, http.StatusOK, stations)
}

// StartCharging handles POST /api/stations/{id}/start_charging.
func (h *StationsHandlers) StartCharging(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "Station not found")
		return
	}
	actor := middleware.ActorFromContext(r.Context())
	session, err := h.ledger.StartSession(r.Context(), actor.UserID, id)
	if err != nil {
		writeServiceError(w, h.logger, err, "An error occurred while starting charging session")
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// StopCharging handles POST /api/stations/{id}/stop_charging.
func (h *StationsHandlers) StopCharging(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "Station not found")
		return
	}
	var req stopChargingRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	actor := middleware.ActorFromContext(r.Context())
	session, err := h.ledger.StopSession(r.Context(), actor.UserID, id, req.EnergyKWh)
	if err != nil {
		writeServiceError(w, h.logger, err, "An error occurred while stopping charging session")
		return
	}
	writeJSON(w, http.StatusOK, session)
}
