package httpserver

import (
	"net/http"

	"chargemap/backend/services/auth-service/internal/http/handlers"
)

// RouterDeps collects handler dependencies.
type RouterDeps struct {
	AuthHandlers  *handlers.AuthHandlers
	HealthHandler http.HandlerFunc
}

// NewRouter wires all HTTP routes. authMiddleware guards logout and profile.
func NewRouter(deps RouterDeps, authMiddleware func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()
	h := deps.AuthHandlers

	mux.Handle("/health", method(http.MethodGet, deps.HealthHandler))
	mux.Handle("/api/auth/register", method(http.MethodPost, http.HandlerFunc(h.Register)))
	mux.Handle("/api/auth/login", method(http.MethodPost, http.HandlerFunc(h.Login)))
	mux.Handle("/api/auth/logout", method(http.MethodPost, authMiddleware(http.HandlerFunc(h.Logout))))
	mux.Handle("/api/auth/profile", authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.Profile(w, r)
		case http.MethodPut:
			h.UpdateProfile(w, r)
		default:
			w.Header().Set("Allow", "GET, PUT")
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})))
	return mux
}

func method(expected string, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
