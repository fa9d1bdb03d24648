package dbserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/opencircle/auth-server/identity"
	"github.com/opencircle/auth-server/internal/config"
	apperrors "github.com/opencircle/auth-server/internal/errors"
)

// UsersServer is the HTTP surface of the credential store.
type UsersServer struct {
	env    string
	mux    *http.ServeMux
	repo   identity.Repo
	config config.Config
	log    zerolog.Logger
}

func NewUsersServer(config config.Config, repo identity.Repo, logger zerolog.Logger) (*UsersServer, error) {
	if repo == nil {
		return nil, errors.New("[NewUsersServer] identity repo is required")
	}

	s := &UsersServer{
		env:    config.GetEnv(),
		mux:    http.NewServeMux(),
		repo:   repo,
		config: config,
		log:    logger,
	}

	s.mux.HandleFunc("POST /api/v1/users", s.createUser)
	s.mux.HandleFunc("GET /api/v1/users", s.listUsers)
	s.mux.HandleFunc("GET /api/v1/users/{id}", s.getUser)
	s.mux.HandleFunc("GET /health", s.health)

	return s, nil
}

func (s *UsersServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.env == "DEV" {
		s.log.Info().Str("method", r.Method).Str("path", r.URL.Path).Msg("route")
	}
	s.mux.ServeHTTP(w, r)
}

func (s *UsersServer) createUser(w http.ResponseWriter, r *http.Request) {
	var ident identity.Identity
	if err := json.NewDecoder(r.Body).Decode(&ident); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if ident.Username == "" || ident.Email == "" {
		writeBadRequest(w, "username and email are required")
		return
	}

	id, err := s.repo.Create(r.Context(), &ident)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeData(w, s.log, http.StatusCreated, map[string]int64{"id": id}, "user created")
}

// listUsers resolves a user by email or username filter. The result is
// always a list; a miss is an empty list, not a 404.
func (s *UsersServer) listUsers(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	username := r.URL.Query().Get("username")

	var ident *identity.Identity
	var err error
	switch {
	case email != "":
		ident, err = s.repo.GetByEmail(r.Context(), email)
	case username != "":
		ident, err = s.repo.GetByUsername(r.Context(), username)
	default:
		writeBadRequest(w, "email or username filter is required")
		return
	}

	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			writeData(w, s.log, http.StatusOK, []*identity.Identity{}, "")
			return
		}
		writeError(w, s.log, err)
		return
	}
	writeData(w, s.log, http.StatusOK, []*identity.Identity{ident}, "")
}

func (s *UsersServer) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeBadRequest(w, "invalid user id")
		return
	}

	ident, err := s.repo.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeData(w, s.log, http.StatusOK, ident, "")
}

func (s *UsersServer) health(w http.ResponseWriter, r *http.Request) {
	writeData(w, s.log, http.StatusOK, map[string]string{"status": "ok", "service": s.config.GetAppName()}, "")
}
