package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/opencircle/auth-server/identity"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RegisterHandler creates an account and returns its first token pair.
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeBadRequest(w, "invalid request body")
			return
		}

		if err := identity.ValidateUsername(req.Username); err != nil {
			s.writeBadRequest(w, err.Error())
			return
		}
		if err := identity.ValidateEmail(req.Email); err != nil {
			s.writeBadRequest(w, err.Error())
			return
		}
		if err := identity.ValidatePassword(req.Password); err != nil {
			s.writeBadRequest(w, err.Error())
			return
		}

		pair, err := s.session.Register(r.Context(), req.Username, req.Email, req.Password, clientIP(r), r.UserAgent())
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeData(w, http.StatusCreated, pair, "user registered successfully")
	}
}

// LoginHandler verifies credentials and opens a session. The login
// field carries either an email or a username.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeBadRequest(w, "invalid request body")
			return
		}
		if req.Login == "" || req.Password == "" {
			s.writeBadRequest(w, "login and password are required")
			return
		}

		pair, err := s.session.Login(r.Context(), req.Login, req.Password, clientIP(r), r.UserAgent())
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeData(w, http.StatusOK, pair, "login successful")
	}
}

// RefreshHandler exchanges a refresh token for a new pair.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeBadRequest(w, "invalid request body")
			return
		}
		if req.RefreshToken == "" {
			s.writeBadRequest(w, "refresh_token is required")
			return
		}

		pair, err := s.session.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeData(w, http.StatusOK, pair, "token refreshed successfully")
	}
}

// LogoutHandler revokes the supplied refresh token. Always succeeds so
// the endpoint cannot be used to probe for live tokens.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeBadRequest(w, "invalid request body")
			return
		}
		if req.RefreshToken == "" {
			s.writeBadRequest(w, "refresh_token is required")
			return
		}

		if err := s.session.Logout(r.Context(), req.RefreshToken); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeData(w, http.StatusOK, nil, "logged out successfully")
	}
}

// MeHandler returns the authenticated user's claims. RequireAuth has
// already verified the token and populated the context.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			s.writeUnauthorized(w, "not authenticated")
			return
		}
		s.writeData(w, http.StatusOK, user, "")
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeData(w, http.StatusOK, map[string]string{"status": "ok", "service": s.config.GetAppName()}, "")
	}
}

// clientIP resolves the originating address, preferring proxy headers
// over the socket peer.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return host
}
