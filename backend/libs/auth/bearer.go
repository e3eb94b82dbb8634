package auth

import (
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrMissingToken means the request carries no Authorization header.
	ErrMissingToken = errors.New("token: missing authorization header")
	// ErrMalformedHeader means the Authorization header is not a bearer token.
	ErrMalformedHeader = errors.New("token: invalid authorization header")
)

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrMalformedHeader
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrMalformedHeader
	}
	return token, nil
}
