package dbserver_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/opencircle/auth-server/dbserver"
	"github.com/opencircle/auth-server/identity"
	identityrepofake "github.com/opencircle/auth-server/identity/repofake"
	"github.com/opencircle/auth-server/internal/config"
)

type testEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func setupUsersServer(t *testing.T) *dbserver.UsersServer {
	t.Helper()
	srv, err := dbserver.NewUsersServer(config.New(), identityrepofake.NewFakeIdentityRepo(), zerolog.Nop())
	require.NoError(t, err)
	return srv
}

func do(t *testing.T, handler http.Handler, method, path string, body any) (*httptest.ResponseRecorder, *testEnvelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var envelope testEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	return rec, &envelope
}

func createUser(t *testing.T, srv *dbserver.UsersServer, username, email string) int64 {
	t.Helper()

	rec, envelope := do(t, srv, http.MethodPost, "/api/v1/users", &identity.Identity{
		Username:     username,
		Email:        email,
		PasswordHash: "hash",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(envelope.Data, &created))
	return created.ID
}

func TestCreateUser(t *testing.T) {
	srv := setupUsersServer(t)
	id := createUser(t, srv, "ann", "ann@example.com")
	require.NotZero(t, id)
}

func TestCreateUserConflict(t *testing.T) {
	srv := setupUsersServer(t)
	createUser(t, srv, "ann", "ann@example.com")

	rec, envelope := do(t, srv, http.MethodPost, "/api/v1/users", &identity.Identity{
		Username: "ann",
		Email:    "other@example.com",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.False(t, envelope.Success)
}

func TestCreateUserRequiresFields(t *testing.T) {
	srv := setupUsersServer(t)

	rec, _ := do(t, srv, http.MethodPost, "/api/v1/users", &identity.Identity{Username: "ann"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListUsersByFilter(t *testing.T) {
	srv := setupUsersServer(t)
	createUser(t, srv, "ann", "ann@example.com")

	rec, envelope := do(t, srv, http.MethodGet, "/api/v1/users?email=ann@example.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []*identity.Identity
	require.NoError(t, json.Unmarshal(envelope.Data, &list))
	require.Len(t, list, 1)
	require.Equal(t, "ann", list[0].Username)
	require.Equal(t, "hash", list[0].PasswordHash)

	// A miss is an empty list, not an error.
	rec, envelope = do(t, srv, http.MethodGet, "/api/v1/users?username=nobody", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(envelope.Data, &list))
	require.Empty(t, list)

	rec, _ = do(t, srv, http.MethodGet, "/api/v1/users", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetUserByID(t *testing.T) {
	srv := setupUsersServer(t)
	id := createUser(t, srv, "ann", "ann@example.com")

	rec, envelope := do(t, srv, http.MethodGet, "/api/v1/users/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var ident identity.Identity
	require.NoError(t, json.Unmarshal(envelope.Data, &ident))
	require.Equal(t, id, ident.ID)

	rec, _ = do(t, srv, http.MethodGet, "/api/v1/users/999", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, srv, http.MethodGet, "/api/v1/users/abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
