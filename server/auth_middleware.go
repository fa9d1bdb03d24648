package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/opencircle/auth-server/session"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyUser stores the authenticated user's info
const ContextKeyUser ContextKey = "user"

// RequireAuth is middleware that validates a Bearer access token and
// injects the verified user info into the request context.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				s.writeUnauthorized(w, "missing or malformed Authorization header")
				return
			}

			user, err := s.session.VerifyAccess(token)
			if err != nil {
				s.writeUnauthorized(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			next(w, r.WithContext(ctx))
		}
	}
}

// UserFromContext retrieves the authenticated user injected by
// RequireAuth.
func UserFromContext(ctx context.Context) (*session.UserInfo, bool) {
	user, ok := ctx.Value(ContextKeyUser).(*session.UserInfo)
	return user, ok
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func (s *Server) writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Message: message})
}
