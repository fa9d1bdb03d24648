package dbserver_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/opencircle/auth-server/dbserver"
	"github.com/opencircle/auth-server/internal/config"
	"github.com/opencircle/auth-server/token/refresh"
	refreshrepofake "github.com/opencircle/auth-server/token/refresh/repofake"
)

func setupTokensServer(t *testing.T) *dbserver.TokensServer {
	t.Helper()
	srv, err := dbserver.NewTokensServer(config.New(), refreshrepofake.NewFakeRefreshTokenRepo(), zerolog.Nop())
	require.NoError(t, err)
	return srv
}

func createToken(t *testing.T, srv *dbserver.TokensServer, hash string) int64 {
	t.Helper()

	now := time.Now().UTC()
	rec, envelope := do(t, srv, http.MethodPost, "/api/v1/tokens", &refresh.Record{
		UserID:    7,
		TokenHash: hash,
		IssuedAt:  now,
		ExpiresAt: now.Add(24 * time.Hour),
		IPAddress: "203.0.113.7",
		UserAgent: "test-agent/1.0",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(envelope.Data, &created))
	return created.ID
}

func TestCreateTokenRecord(t *testing.T) {
	srv := setupTokensServer(t)
	id := createToken(t, srv, "hash-1")
	require.NotZero(t, id)

	rec, _ := do(t, srv, http.MethodPost, "/api/v1/tokens", &refresh.Record{UserID: 7})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListTokensByHash(t *testing.T) {
	srv := setupTokensServer(t)
	createToken(t, srv, "hash-1")

	rec, envelope := do(t, srv, http.MethodGet, "/api/v1/tokens?refresh_token_hash=hash-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []*refresh.Record
	require.NoError(t, json.Unmarshal(envelope.Data, &list))
	require.Len(t, list, 1)
	require.Equal(t, int64(7), list[0].UserID)
	require.False(t, list[0].Revoked)

	rec, envelope = do(t, srv, http.MethodGet, "/api/v1/tokens?refresh_token_hash=unknown", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(envelope.Data, &list))
	require.Empty(t, list)

	rec, _ = do(t, srv, http.MethodGet, "/api/v1/tokens", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListTokensByUser(t *testing.T) {
	srv := setupTokensServer(t)
	createToken(t, srv, "hash-1")
	createToken(t, srv, "hash-2")

	rec, envelope := do(t, srv, http.MethodGet, "/api/v1/tokens?user_id=7", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []*refresh.Record
	require.NoError(t, json.Unmarshal(envelope.Data, &list))
	require.Len(t, list, 2)

	rec, envelope = do(t, srv, http.MethodGet, "/api/v1/tokens?user_id=99", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(envelope.Data, &list))
	require.Empty(t, list)

	rec, _ = do(t, srv, http.MethodGet, "/api/v1/tokens?user_id=abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRevokeToken(t *testing.T) {
	srv := setupTokensServer(t)
	createToken(t, srv, "hash-1")

	rec, envelope := do(t, srv, http.MethodDelete, "/api/v1/tokens/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		Revoked bool `json:"revoked"`
	}
	require.NoError(t, json.Unmarshal(envelope.Data, &result))
	require.True(t, result.Revoked)

	// A second revoke reports that nothing was flipped.
	rec, envelope = do(t, srv, http.MethodDelete, "/api/v1/tokens/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(envelope.Data, &result))
	require.False(t, result.Revoked)

	rec, _ = do(t, srv, http.MethodDelete, "/api/v1/tokens/999", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, srv, http.MethodDelete, "/api/v1/tokens/abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
