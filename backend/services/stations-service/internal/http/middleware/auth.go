package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"chargemap/backend/libs/auth"
	"chargemap/backend/services/stations-service/internal/models"
)

type contextKey string

const actorKey contextKey = "actor"

// TokenValidator parses bearer tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.Claims, error)
}

// AuthMiddleware resolves the bearer token, when present, into an actor stored on the
// request context. Requests without an Authorization header pass through anonymously;
// handlers that need a user wrap themselves with RequireActor.
func AuthMiddleware(tokens TokenValidator, denylist auth.Denylist, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.BearerToken(r)
			if errors.Is(err, auth.ErrMissingToken) {
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				unauthorized(w, "invalid authorization header")
				return
			}
			claims, err := tokens.ValidateToken(token)
			if err != nil {
				unauthorized(w, "invalid token")
				return
			}
			if denylist != nil && claims.ID != "" {
				revoked, err := denylist.IsRevoked(r.Context(), claims.ID)
				if err != nil {
					logger.Error("denylist lookup failed", zap.Error(err))
					writeError(w, http.StatusInternalServerError, "failed to verify token")
					return
				}
				if revoked {
					unauthorized(w, "token has been revoked")
					return
				}
			}

			actor := models.Actor{
				UserID:   claims.UserID,
				Username: claims.Username,
				Admin:    claims.IsAdmin(),
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// RequireActor rejects anonymous requests with 401.
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !ActorFromContext(r.Context()).Authenticated() {
			unauthorized(w, "authentication credentials were not provided")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithActor stores actor on ctx.
func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext returns the request actor, or the anonymous actor.
func ActorFromContext(ctx context.Context) models.Actor {
	actor, _ := ctx.Value(actorKey).(models.Actor)
	return actor
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="chargemap"`)
	writeError(w, http.StatusUnauthorized, message)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
