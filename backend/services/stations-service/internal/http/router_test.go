package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chargemap/backend/libs/auth"
	"chargemap/backend/services/stations-service/internal/events"
	"chargemap/backend/services/stations-service/internal/http/handlers"
	"chargemap/backend/services/stations-service/internal/http/middleware"
	"chargemap/backend/services/stations-service/internal/memstore"
	"chargemap/backend/services/stations-service/internal/metrics"
	"chargemap/backend/services/stations-service/internal/service"
)

type apiFixture struct {
	t        *testing.T
	handler  http.Handler
	tokens   *auth.TokenService
	denylist *auth.MemoryDenylist
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	logger := zap.NewNop()
	store := memstore.New()
	m := metrics.New()

	stations := service.NewStationsService(store.Stations(), store, nil, events.Noop{}, m, logger)
	ledger := service.NewLedger(store.Sessions(), store.Stations(), nil, events.Noop{}, m, logger)
	registry := service.NewRegistry(store.Reviews(), store.Favorites(), stations, events.Noop{}, m, logger)

	router := NewRouter(RouterDeps{
		StationsHandlers: handlers.NewStationsHandlers(stations, ledger, logger),
		SessionsHandlers: handlers.NewSessionsHandlers(ledger, logger),
		RegistryHandlers: handlers.NewRegistryHandlers(registry, logger),
		HealthHandler:    handlers.NewHealthHandler(),
		Metrics:          m.Handler(),
	})

	tokens := auth.NewTokenService("test-secret", time.Hour)
	denylist := auth.NewMemoryDenylist()
	return &apiFixture{
		t:        t,
		handler:  middleware.AuthMiddleware(tokens, denylist, logger)(router),
		tokens:   tokens,
		denylist: denylist,
	}
}

func (f *apiFixture) token(userID int64, role string) string {
	f.t.Helper()
	token, err := f.tokens.GenerateToken(userID, fmt.Sprintf("user%d", userID), role)
	require.NoError(f.t, err)
	return token
}

func (f *apiFixture) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	f.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(f.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) createStation(adminToken string, available int) int64 {
	f.t.Helper()
	rec := f.do(http.MethodPost, "/api/stations", adminToken, map[string]interface{}{
		"name":            "Downtown EV Station",
		"address":         "123 Main St",
		"latitude":        "37.7749",
		"longitude":       "-122.4194",
		"charging_type":   "fast",
		"power_output":    50,
		"price_per_kwh":   "0.35",
		"total_ports":     4,
		"available_ports": available,
		"amenities":       []string{"WiFi"},
	})
	require.Equal(f.t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID int64 `json:"id"`
	}
	require.NoError(f.t, json.Unmarshal(rec.Body.Bytes(), &created))
	return created.ID
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestHealthAndMethodGuard(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodPatch, "/api/stations", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, POST", rec.Header().Get("Allow"))

	rec = f.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAnonymousAccess(t *testing.T) {
	f := newAPIFixture(t)
	adminToken := f.token(1, auth.RoleAdmin)
	id := f.createStation(adminToken, 2)

	rec := f.do(http.MethodGet, "/api/stations", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, false, list[0]["is_favorite"])

	rec = f.do(http.MethodPost, fmt.Sprintf("/api/stations/%d/start_charging", id), "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodGet, "/api/sessions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodGet, "/api/stations", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStationManagementRequiresAdmin(t *testing.T) {
	f := newAPIFixture(t)
	userToken := f.token(2, auth.RoleUser)

	rec := f.do(http.MethodPost, "/api/stations", userToken, map[string]interface{}{"name": "x"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	adminToken := f.token(1, auth.RoleAdmin)
	rec = f.do(http.MethodPost, "/api/stations", adminToken, map[string]interface{}{
		"name": "Broken", "address": "nowhere", "latitude": 95, "longitude": 0,
		"charging_type": "fast", "power_output": 50, "price_per_kwh": 0.3, "total_ports": 2,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "latitude must be between -90 and 90", errorMessage(t, rec))

	id := f.createStation(adminToken, 2)
	rec = f.do(http.MethodDelete, fmt.Sprintf("/api/stations/%d", id), adminToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(http.MethodGet, fmt.Sprintf("/api/stations/%d", id), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNearbyEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	f.createStation(f.token(1, auth.RoleAdmin), 2)

	rec := f.do(http.MethodPost, "/api/stations/nearby", "", map[string]interface{}{
		"latitude": 37.7749, "longitude": -122.4194, "radius": 1,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got []struct {
		Name     string  `json:"name"`
		Distance float64 `json:"distance"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, 0.0, got[0].Distance)

	// radius defaults to 10 km
	rec = f.do(http.MethodPost, "/api/stations/nearby", "", map[string]interface{}{
		"latitude": 37.80, "longitude": -122.4194,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 1)

	rec = f.do(http.MethodPost, "/api/stations/nearby", "", map[string]interface{}{
		"latitude": 91, "longitude": 0, "radius": 5,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid coordinates", errorMessage(t, rec))

	rec = f.do(http.MethodPost, "/api/stations/nearby", "", map[string]interface{}{
		"latitude": 10, "longitude": 10, "radius": 150,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid radius (must be between 0 and 100 km)", errorMessage(t, rec))

	rec = f.do(http.MethodPost, "/api/stations/nearby", "", map[string]interface{}{"radius": 5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChargingLifecycle(t *testing.T) {
	f := newAPIFixture(t)
	id := f.createStation(f.token(1, auth.RoleAdmin), 2)
	userToken := f.token(7, auth.RoleUser)
	start := fmt.Sprintf("/api/stations/%d/start_charging", id)
	stop := fmt.Sprintf("/api/stations/%d/stop_charging", id)

	rec := f.do(http.MethodGet, "/api/sessions/active", userToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodPost, start, userToken, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(http.MethodPost, start, userToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "You already have an active charging session", errorMessage(t, rec))

	rec = f.do(http.MethodGet, "/api/sessions/active", userToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, fmt.Sprintf("/api/stations/%d", id), "", nil)
	var station struct {
		AvailablePorts int `json:"available_ports"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &station))
	assert.Equal(t, 1, station.AvailablePorts)

	rec = f.do(http.MethodPost, stop, userToken, map[string]interface{}{"energy_kwh": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, stop, userToken, map[string]interface{}{"energy_kwh": "10"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var session struct {
		ID        int64           `json:"id"`
		Status    string          `json:"status"`
		TotalCost decimal.Decimal `json:"total_cost"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	assert.Equal(t, "completed", session.Status)
	assert.True(t, decimal.RequireFromString("3.50").Equal(session.TotalCost), session.TotalCost.String())

	rec = f.do(http.MethodPost, stop, userToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No active charging session found", errorMessage(t, rec))

	rec = f.do(http.MethodGet, fmt.Sprintf("/api/sessions/%d", session.ID), userToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(http.MethodGet, fmt.Sprintf("/api/sessions/%d", session.ID), f.token(8, auth.RoleUser), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStartChargingUnavailableStation(t *testing.T) {
	f := newAPIFixture(t)
	id := f.createStation(f.token(1, auth.RoleAdmin), 0)

	rec := f.do(http.MethodPost, fmt.Sprintf("/api/stations/%d/start_charging", id), f.token(7, auth.RoleUser), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Station is not available", errorMessage(t, rec))

	rec = f.do(http.MethodPost, "/api/stations/999/start_charging", f.token(7, auth.RoleUser), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStartChargingReportsUnavailableBeforeActiveSession(t *testing.T) {
	f := newAPIFixture(t)
	adminToken := f.token(1, auth.RoleAdmin)
	open := f.createStation(adminToken, 2)
	full := f.createStation(adminToken, 0)
	userToken := f.token(7, auth.RoleUser)

	rec := f.do(http.MethodPost, fmt.Sprintf("/api/stations/%d/start_charging", open), userToken, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(http.MethodPost, fmt.Sprintf("/api/stations/%d/start_charging", full), userToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Station is not available", errorMessage(t, rec))
}

func TestUpdateStationKeepsPortsHeldBySessions(t *testing.T) {
	f := newAPIFixture(t)
	adminToken := f.token(1, auth.RoleAdmin)
	id := f.createStation(adminToken, 1)
	path := fmt.Sprintf("/api/stations/%d", id)

	rec := f.do(http.MethodPost, path+"/start_charging", f.token(2, auth.RoleUser), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := map[string]interface{}{
		"name":          "Renamed EV Station",
		"address":       "123 Main St",
		"latitude":      "37.7749",
		"longitude":     "-122.4194",
		"charging_type": "fast",
		"power_output":  50,
		"price_per_kwh": "0.35",
		"total_ports":   4,
	}
	rec = f.do(http.MethodPut, path, adminToken, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var station struct {
		Name           string `json:"name"`
		AvailablePorts int    `json:"available_ports"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &station))
	assert.Equal(t, "Renamed EV Station", station.Name)
	assert.Equal(t, 0, station.AvailablePorts)

	for user := int64(3); user <= 6; user++ {
		rec = f.do(http.MethodPost, path+"/start_charging", f.token(user, auth.RoleUser), nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}

	body["available_ports"] = 4
	rec = f.do(http.MethodPut, path, adminToken, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "available_ports must be between 0 and 3", errorMessage(t, rec))

	body["available_ports"] = 3
	rec = f.do(http.MethodPut, path, adminToken, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &station))
	assert.Equal(t, 3, station.AvailablePorts)
}

func TestReviewsAndFavorites(t *testing.T) {
	f := newAPIFixture(t)
	id := f.createStation(f.token(1, auth.RoleAdmin), 2)
	owner := f.token(7, auth.RoleUser)
	other := f.token(8, auth.RoleUser)

	rec := f.do(http.MethodPost, "/api/reviews", owner, map[string]interface{}{"station": id, "rating": 6})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/reviews", owner, map[string]interface{}{"station": id, "rating": 4, "comment": "fine"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var review struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &review))

	rec = f.do(http.MethodPost, "/api/reviews", owner, map[string]interface{}{"station": id, "rating": 5})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(http.MethodPut, fmt.Sprintf("/api/reviews/%d", review.ID), other, map[string]interface{}{"rating": 1})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodGet, fmt.Sprintf("/api/reviews?station=%d", id), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var reviews []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reviews))
	assert.Len(t, reviews, 1)

	rec = f.do(http.MethodPost, "/api/favorites", owner, map[string]interface{}{"station": id})
	require.Equal(t, http.StatusCreated, rec.Code)
	var favorite struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &favorite))

	rec = f.do(http.MethodGet, fmt.Sprintf("/api/stations/%d", id), owner, nil)
	var view struct {
		AverageRating float64 `json:"average_rating"`
		TotalReviews  int     `json:"total_reviews"`
		IsFavorite    bool    `json:"is_favorite"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, 4.0, view.AverageRating)
	assert.Equal(t, 1, view.TotalReviews)
	assert.True(t, view.IsFavorite)

	rec = f.do(http.MethodDelete, fmt.Sprintf("/api/favorites/%d", favorite.ID), other, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = f.do(http.MethodDelete, fmt.Sprintf("/api/favorites/%d", favorite.ID), owner, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRevokedTokenRejected(t *testing.T) {
	f := newAPIFixture(t)
	token := f.token(7, auth.RoleUser)
	claims, err := f.tokens.ValidateToken(token)
	require.NoError(t, err)
	require.NoError(t, f.denylist.Revoke(context.Background(), claims.ID, claims.ExpiresAt.Time))

	rec := f.do(http.MethodGet, "/api/sessions", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token has been revoked", errorMessage(t, rec))
}
