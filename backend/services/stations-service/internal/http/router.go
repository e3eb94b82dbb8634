package httpserver

import (
	"net/http"
	"sort"
	"strings"

	"chargemap/backend/services/stations-service/internal/http/handlers"
	"chargemap/backend/services/stations-service/internal/http/middleware"
)

// RouterDeps collects handler dependencies.
type RouterDeps struct {
	StationsHandlers *handlers.StationsHandlers
	SessionsHandlers *handlers.SessionsHandlers
	RegistryHandlers *handlers.RegistryHandlers
	HealthHandler    http.HandlerFunc
	WebSocket        http.HandlerFunc
	Metrics          http.Handler
}

// NewRouter wires HTTP routes. Anonymous callers may read stations and reviews;
// everything else requires an authenticated actor.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()
	authenticated := func(handler http.HandlerFunc) http.Handler {
		return middleware.RequireActor(handler)
	}

	mux.Handle("/health", method(http.MethodGet, deps.HealthHandler))
	if deps.Metrics != nil {
		mux.Handle("/metrics", method(http.MethodGet, deps.Metrics))
	}
	if deps.WebSocket != nil {
		mux.Handle("/ws/stations", method(http.MethodGet, deps.WebSocket))
	}

	st := deps.StationsHandlers
	mux.Handle("/api/stations", methods{
		http.MethodGet:  http.HandlerFunc(st.List),
		http.MethodPost: authenticated(st.Create),
	})
	mux.Handle("/api/stations/nearby", method(http.MethodPost, http.HandlerFunc(st.Nearby)))
	mux.Handle("/api/stations/{id}", methods{
		http.MethodGet:    http.HandlerFunc(st.Get),
		http.MethodPut:    authenticated(st.Update),
		http.MethodDelete: authenticated(st.Delete),
	})
	mux.Handle("/api/stations/{id}/start_charging", method(http.MethodPost, authenticated(st.StartCharging)))
	mux.Handle("/api/stations/{id}/stop_charging", method(http.MethodPost, authenticated(st.StopCharging)))

	se := deps.SessionsHandlers
	mux.Handle("/api/sessions", method(http.MethodGet, authenticated(se.List)))
	mux.Handle("/api/sessions/active", method(http.MethodGet, authenticated(se.Active)))
	mux.Handle("/api/sessions/{id}", method(http.MethodGet, authenticated(se.Get)))

	reg := deps.RegistryHandlers
	mux.Handle("/api/reviews", methods{
		http.MethodGet:  http.HandlerFunc(reg.ListReviews),
		http.MethodPost: authenticated(reg.CreateReview),
	})
	mux.Handle("/api/reviews/{id}", methods{
		http.MethodGet:    http.HandlerFunc(reg.GetReview),
		http.MethodPut:    authenticated(reg.UpdateReview),
		http.MethodDelete: authenticated(reg.DeleteReview),
	})
	mux.Handle("/api/favorites", methods{
		http.MethodGet:  authenticated(reg.ListFavorites),
		http.MethodPost: authenticated(reg.CreateFavorite),
	})
	mux.Handle("/api/favorites/{id}", method(http.MethodDelete, authenticated(reg.DeleteFavorite)))

	return mux
}

func method(expected string, handler http.Handler) http.Handler {
	return methods{expected: handler}
}

// methods dispatches on the request method and answers 405 for anything else.
type methods map[string]http.Handler

func (m methods) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if handler, ok := m[r.Method]; ok {
		handler.ServeHTTP(w, r)
		return
	}
	if r.Method == http.MethodHead {
		if handler, ok := m[http.MethodGet]; ok {
			handler.ServeHTTP(w, r)
			return
		}
	}
	allowed := make([]string, 0, len(m))
	for name := range m {
		allowed = append(allowed, name)
	}
	sort.Strings(allowed)
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	w.WriteHeader(http.StatusMethodNotAllowed)
}
