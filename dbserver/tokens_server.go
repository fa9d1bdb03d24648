package dbserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/opencircle/auth-server/internal/config"
	apperrors "github.com/opencircle/auth-server/internal/errors"
	"github.com/opencircle/auth-server/token/refresh"
)

// TokensServer is the HTTP surface of the refresh token store.
type TokensServer struct {
	env    string
	mux    *http.ServeMux
	repo   refresh.Repo
	config config.Config
	log    zerolog.Logger
}

func NewTokensServer(config config.Config, repo refresh.Repo, logger zerolog.Logger) (*TokensServer, error) {
	if repo == nil {
		return nil, errors.New("[NewTokensServer] refresh repo is required")
	}

	s := &TokensServer{
		env:    config.GetEnv(),
		mux:    http.NewServeMux(),
		repo:   repo,
		config: config,
		log:    logger,
	}

	s.mux.HandleFunc("POST /api/v1/tokens", s.createToken)
	s.mux.HandleFunc("GET /api/v1/tokens", s.listTokens)
	s.mux.HandleFunc("DELETE /api/v1/tokens/{id}", s.revokeToken)
	s.mux.HandleFunc("GET /health", s.health)

	return s, nil
}

func (s *TokensServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.env == "DEV" {
		s.log.Info().Str("method", r.Method).Str("path", r.URL.Path).Msg("route")
	}
	s.mux.ServeHTTP(w, r)
}

func (s *TokensServer) createToken(w http.ResponseWriter, r *http.Request) {
	var record refresh.Record
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if record.UserID == 0 || record.TokenHash == "" {
		writeBadRequest(w, "user_id and refresh_token_hash are required")
		return
	}

	id, err := s.repo.Insert(r.Context(), &record)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeData(w, s.log, http.StatusCreated, map[string]int64{"id": id}, "token stored")
}

// listTokens resolves records by token hash or user id. A miss is an
// empty list, not a 404.
func (s *TokensServer) listTokens(w http.ResponseWriter, r *http.Request) {
	hash := r.URL.Query().Get("refresh_token_hash")
	userIDParam := r.URL.Query().Get("user_id")

	switch {
	case hash != "":
		record, err := s.repo.GetByHash(r.Context(), hash)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				writeData(w, s.log, http.StatusOK, []*refresh.Record{}, "")
				return
			}
			writeError(w, s.log, err)
			return
		}
		writeData(w, s.log, http.StatusOK, []*refresh.Record{record}, "")

	case userIDParam != "":
		userID, err := strconv.ParseInt(userIDParam, 10, 64)
		if err != nil {
			writeBadRequest(w, "invalid user_id")
			return
		}
		records, err := s.repo.ListByUser(r.Context(), userID)
		if err != nil {
			writeError(w, s.log, err)
			return
		}
		if records == nil {
			records = []*refresh.Record{}
		}
		writeData(w, s.log, http.StatusOK, records, "")

	default:
		writeBadRequest(w, "refresh_token_hash or user_id filter is required")
	}
}

// revokeToken marks a record revoked. The record stays in place so a
// replay of the revoked token is distinguishable from an unknown one.
func (s *TokensServer) revokeToken(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeBadRequest(w, "invalid token id")
		return
	}

	revoked, err := s.repo.Revoke(r.Context(), id)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeData(w, s.log, http.StatusOK, map[string]bool{"revoked": revoked}, "")
}

func (s *TokensServer) health(w http.ResponseWriter, r *http.Request) {
	writeData(w, s.log, http.StatusOK, map[string]string{"status": "ok", "service": s.config.GetAppName()}, "")
}
