package identityhttpapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/opencircle/auth-server/dbserver"
	"github.com/opencircle/auth-server/identity"
	identityhttpapi "github.com/opencircle/auth-server/identity/httpapi"
	identityrepofake "github.com/opencircle/auth-server/identity/repofake"
	"github.com/opencircle/auth-server/internal/config"
	apperrors "github.com/opencircle/auth-server/internal/errors"
)

func setupClient(t *testing.T) *identityhttpapi.Client {
	t.Helper()

	srv, err := dbserver.NewUsersServer(config.New(), identityrepofake.NewFakeIdentityRepo(), zerolog.Nop())
	require.NoError(t, err)

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return identityhttpapi.New(ts.URL)
}

func TestClientCreateAndGet(t *testing.T) {
	client := setupClient(t)
	ctx := context.Background()

	id, err := client.Create(ctx, &identity.Identity{
		Username:     "ann",
		Email:        "ann@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	require.NotZero(t, id)

	byEmail, err := client.GetByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	require.Equal(t, "ann", byEmail.Username)
	require.Equal(t, "hash", byEmail.PasswordHash)

	byUsername, err := client.GetByUsername(ctx, "ann")
	require.NoError(t, err)
	require.Equal(t, id, byUsername.ID)

	byID, err := client.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "ann@example.com", byID.Email)
}

func TestClientCreateConflict(t *testing.T) {
	client := setupClient(t)
	ctx := context.Background()

	_, err := client.Create(ctx, &identity.Identity{Username: "ann", Email: "ann@example.com"})
	require.NoError(t, err)

	_, err = client.Create(ctx, &identity.Identity{Username: "ann", Email: "other@example.com"})
	require.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestClientNotFound(t *testing.T) {
	client := setupClient(t)
	ctx := context.Background()

	_, err := client.GetByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = client.GetByUsername(ctx, "nobody")
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = client.GetByID(ctx, 999)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestClientUnreachableStore(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	client := identityhttpapi.New(url)
	_, err := client.GetByEmail(context.Background(), "ann@example.com")
	require.ErrorIs(t, err, apperrors.ErrUnavailable)
}
