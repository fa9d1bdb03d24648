package session_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/opencircle/auth-server/identity"
	identityrepofake "github.com/opencircle/auth-server/identity/repofake"
	apperrors "github.com/opencircle/auth-server/internal/errors"
	"github.com/opencircle/auth-server/session"
	"github.com/opencircle/auth-server/token"
	refreshrepofake "github.com/opencircle/auth-server/token/refresh/repofake"
)

const (
	testSecret   = "test-signing-secret"
	testUsername = "ann"
	testEmail    = "ann@example.com"
	testPassword = "longenough1"
	testIP       = "203.0.113.7"
	testUA       = "test-agent/1.0"
)

type testSecurityConfig struct{}

func (testSecurityConfig) GetJWTSecret() string                 { return testSecret }
func (testSecurityConfig) GetJWTAlgorithm() string              { return "HS256" }
func (testSecurityConfig) GetAccessTokenExpiry() time.Duration  { return 15 * time.Minute }
func (testSecurityConfig) GetRefreshTokenExpiry() time.Duration { return 30 * 24 * time.Hour }
func (testSecurityConfig) GetStrictTokenPersistence() bool      { return false }

type testFixture struct {
	identities *identityrepofake.FakeIdentityRepo
	tokens     *refreshrepofake.FakeRefreshTokenRepo
	service    *session.Service
}

func setupTestFixture(t *testing.T, options ...session.Option) *testFixture {
	t.Helper()

	signer, err := token.NewSigner("HS256", testSecret)
	require.NoError(t, err)

	identities := identityrepofake.NewFakeIdentityRepo()
	tokens := refreshrepofake.NewFakeRefreshTokenRepo()

	service, err := session.New(
		session.Repos{Identities: identities, Tokens: tokens},
		token.NewCodec(signer),
		testSecurityConfig{},
		zerolog.Nop(),
		options...,
	)
	require.NoError(t, err)

	return &testFixture{identities: identities, tokens: tokens, service: service}
}

func (f *testFixture) register(t *testing.T) *session.TokenPair {
	t.Helper()
	pair, err := f.service.Register(context.Background(), testUsername, testEmail, testPassword, testIP, testUA)
	require.NoError(t, err)
	return pair
}

func (f *testFixture) userID(t *testing.T, pair *session.TokenPair) int64 {
	t.Helper()
	info, err := f.service.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	return info.UserID
}

func TestRegisterOpensSession(t *testing.T) {
	f := setupTestFixture(t)
	pair := f.register(t)

	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, "bearer", pair.TokenType)

	info, err := f.service.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, testUsername, info.Username)
	require.Equal(t, testEmail, info.Email)
	require.False(t, info.IsAdmin)
	require.False(t, info.IsVerified)

	require.Equal(t, 1, f.tokens.Count())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := setupTestFixture(t)
	f.register(t)

	_, err := f.service.Register(context.Background(), "other", testEmail, testPassword, testIP, testUA)
	require.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	f := setupTestFixture(t)
	f.register(t)

	_, err := f.service.Register(context.Background(), testUsername, "other@example.com", testPassword, testIP, testUA)
	require.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestLoginByEmailAndUsername(t *testing.T) {
	f := setupTestFixture(t)
	f.register(t)

	byEmail, err := f.service.Login(context.Background(), testEmail, testPassword, testIP, testUA)
	require.NoError(t, err)
	require.NotEmpty(t, byEmail.AccessToken)

	byUsername, err := f.service.Login(context.Background(), testUsername, testPassword, testIP, testUA)
	require.NoError(t, err)
	require.NotEmpty(t, byUsername.AccessToken)
}

func TestLongestAcceptedPasswordRoundTrips(t *testing.T) {
	f := setupTestFixture(t)
	password := strings.Repeat("a", 72)
	require.NoError(t, identity.ValidatePassword(password))

	_, err := f.service.Register(context.Background(), testUsername, testEmail, password, testIP, testUA)
	require.NoError(t, err)

	pair, err := f.service.Login(context.Background(), testEmail, password, testIP, testUA)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := setupTestFixture(t)
	f.register(t)

	_, unknownErr := f.service.Login(context.Background(), "nobody@example.com", testPassword, testIP, testUA)
	require.ErrorIs(t, unknownErr, apperrors.ErrInvalidCredentials)

	_, wrongPassErr := f.service.Login(context.Background(), testEmail, "wrongpassword", testIP, testUA)
	require.ErrorIs(t, wrongPassErr, apperrors.ErrInvalidCredentials)

	// Identical error text so callers cannot enumerate accounts.
	require.Equal(t, unknownErr.Error(), wrongPassErr.Error())
}

func TestLoginUnsetPasswordHash(t *testing.T) {
	f := setupTestFixture(t)

	id, err := f.identities.Create(context.Background(), &identity.Identity{
		Username: "external",
		Email:    "external@example.com",
	})
	require.NoError(t, err)
	require.NotZero(t, id)

	_, err = f.service.Login(context.Background(), "external@example.com", testPassword, testIP, testUA)
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestRefreshRotatesAndRevokes(t *testing.T) {
	f := setupTestFixture(t)
	pair0 := f.register(t)

	pair1, err := f.service.Refresh(context.Background(), pair0.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair0.RefreshToken, pair1.RefreshToken)

	// The rotated-out token is now revoked.
	_, err = f.service.Refresh(context.Background(), pair0.RefreshToken)
	require.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	// The replacement still works.
	pair2, err := f.service.Refresh(context.Background(), pair1.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, pair2.AccessToken)
}

func TestRefreshRejectsUnknownToken(t *testing.T) {
	f := setupTestFixture(t)
	f.register(t)

	_, err := f.service.Refresh(context.Background(), "not-a-token")
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	f := setupTestFixture(t)
	pair := f.register(t)

	_, err := f.service.Refresh(context.Background(), pair.AccessToken)
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestRefreshDeletedUser(t *testing.T) {
	f := setupTestFixture(t)
	pair := f.register(t)
	f.identities.Delete(f.userID(t, pair))

	_, err := f.service.Refresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRefreshDeactivatedUser(t *testing.T) {
	f := setupTestFixture(t)
	pair := f.register(t)

	ident, err := f.identities.GetByID(context.Background(), f.userID(t, pair))
	require.NoError(t, err)
	now := time.Now()
	ident.DeactivatedAt = &now
	f.identities.Update(ident)

	_, err = f.service.Refresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRefreshPicksUpProfileChanges(t *testing.T) {
	f := setupTestFixture(t)
	pair := f.register(t)

	ident, err := f.identities.GetByID(context.Background(), f.userID(t, pair))
	require.NoError(t, err)
	ident.IsAdmin = true
	ident.IsVerified = true
	f.identities.Update(ident)

	refreshed, err := f.service.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)

	info, err := f.service.VerifyAccess(refreshed.AccessToken)
	require.NoError(t, err)
	require.True(t, info.IsAdmin)
	require.True(t, info.IsVerified)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	f := setupTestFixture(t)
	pair := f.register(t)

	require.NoError(t, f.service.Logout(context.Background(), pair.RefreshToken))

	_, err := f.service.Refresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	// The paired access token is unaffected until expiry.
	_, err = f.service.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := setupTestFixture(t)
	pair := f.register(t)

	require.NoError(t, f.service.Logout(context.Background(), pair.RefreshToken))
	require.NoError(t, f.service.Logout(context.Background(), pair.RefreshToken))
	require.NoError(t, f.service.Logout(context.Background(), "never-issued-token"))
}

func TestPersistFailureStillReturnsTokens(t *testing.T) {
	f := setupTestFixture(t)
	f.register(t)
	f.tokens.InsertErr = errors.New("store down")

	pair, err := f.service.Login(context.Background(), testEmail, testPassword, testIP, testUA)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)

	_, err = f.service.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)

	// No record was stored, so the refresh token cannot be redeemed.
	_, err = f.service.Refresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestPersistFailureStrictMode(t *testing.T) {
	f := setupTestFixture(t, session.WithStrictTokenPersistence(true))
	f.register(t)
	f.tokens.InsertErr = errors.New("store down")

	_, err := f.service.Login(context.Background(), testEmail, testPassword, testIP, testUA)
	require.Error(t, err)
}

func TestNewValidatesCollaborators(t *testing.T) {
	signer, err := token.NewSigner("HS256", testSecret)
	require.NoError(t, err)
	codec := token.NewCodec(signer)
	identities := identityrepofake.NewFakeIdentityRepo()
	tokens := refreshrepofake.NewFakeRefreshTokenRepo()

	_, err = session.New(session.Repos{Tokens: tokens}, codec, testSecurityConfig{}, zerolog.Nop())
	require.Error(t, err)

	_, err = session.New(session.Repos{Identities: identities}, codec, testSecurityConfig{}, zerolog.Nop())
	require.Error(t, err)

	_, err = session.New(session.Repos{Identities: identities, Tokens: tokens}, nil, testSecurityConfig{}, zerolog.Nop())
	require.Error(t, err)
}
