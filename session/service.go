package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/opencircle/auth-server/identity"
	"github.com/opencircle/auth-server/internal/config"
	apperrors "github.com/opencircle/auth-server/internal/errors"
	"github.com/opencircle/auth-server/token"
	"github.com/opencircle/auth-server/token/refresh"
)

// TokenPair is the response of every successful Register/Login/Refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// UserInfo is the public projection of access token claims, used as the
// authorization gate by protected endpoints.
type UserInfo struct {
	UserID     int64  `json:"user_id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	IsAdmin    bool   `json:"is_admin"`
	IsVerified bool   `json:"is_verified"`
}

// Repos holds all store dependencies for the Service
type Repos struct {
	Identities identity.Repo // Credential store
	Tokens     refresh.Repo  // Refresh token store
}

// Service implements the session protocol: credential verification,
// token issuance, refresh with rotation-and-revocation, and stateless
// access token verification.
type Service struct {
	repos         Repos
	codec         *token.Codec
	accessTTL     time.Duration
	refreshTTL    time.Duration
	strictPersist bool
	log           zerolog.Logger
	nowTime       func() time.Time // nowTime function (injectable for testing)
}

// Option defines a function type to modify the Service instance.
type Option func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithStrictTokenPersistence makes a refresh-token-record write failure
// fail the whole operation instead of only being logged.
func WithStrictTokenPersistence(strict bool) Option {
	return func(s *Service) {
		s.strictPersist = strict
	}
}

// New initializes the session protocol service with its collaborators.
func New(repos Repos, codec *token.Codec, cfg config.SecurityConfig, logger zerolog.Logger, options ...Option) (*Service, error) {
	if repos.Identities == nil {
		return nil, errors.New("[session.New] Identities repo is required")
	}
	if repos.Tokens == nil {
		return nil, errors.New("[session.New] Tokens repo is required")
	}
	if codec == nil {
		return nil, errors.New("[session.New] codec is required")
	}

	s := &Service{
		repos:         repos,
		codec:         codec,
		accessTTL:     cfg.GetAccessTokenExpiry(),
		refreshTTL:    cfg.GetRefreshTokenExpiry(),
		strictPersist: cfg.GetStrictTokenPersistence(),
		log:           logger,
		nowTime:       time.Now,
	}

	for _, opt := range options {
		opt(s)
	}

	return s, nil
}

// Register creates a new account and opens its first session.
func (s *Service) Register(ctx context.Context, username, email, password, ipAddress, userAgent string) (*TokenPair, error) {
	if _, err := s.repos.Identities.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.Wrapf(apperrors.ErrConflict, "user with this email")
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.Wrapf(err, "[Register] GetByEmail")
	}

	if _, err := s.repos.Identities.GetByUsername(ctx, username); err == nil {
		return nil, apperrors.Wrapf(apperrors.ErrConflict, "user with this username")
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.Wrapf(err, "[Register] GetByUsername")
	}

	passwordHash, err := identity.HashPassword(password)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[Register] HashPassword")
	}

	ident := &identity.Identity{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		IsAdmin:      false,
		IsVerified:   false,
		CreatedAt:    s.nowTime().UTC(),
	}
	id, err := s.repos.Identities.Create(ctx, ident)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[Register] Create")
	}
	ident.ID = id

	return s.openSession(ctx, ident, ipAddress, userAgent)
}

// Login verifies credentials and opens a new session. The login value
// is resolved as an email when it contains '@', as a username
// otherwise. An unknown account and a wrong password return the same
// error so callers cannot enumerate accounts.
func (s *Service) Login(ctx context.Context, login, password, ipAddress, userAgent string) (*TokenPair, error) {
	var ident *identity.Identity
	var err error

	if strings.Contains(login, "@") {
		ident, err = s.repos.Identities.GetByEmail(ctx, login)
	} else {
		ident, err = s.repos.Identities.GetByUsername(ctx, login)
	}
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.Wrapf(err, "[Login] lookup")
	}

	if ident.PasswordHash == "" || !identity.CheckPasswordHash(password, ident.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.openSession(ctx, ident, ipAddress, userAgent)
}

// Refresh exchanges a refresh token for a new pair, rotating the stored
// record: the new record is persisted first, then the old one is
// revoked, so a partial failure leaves the user with at least one
// usable token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.codec.Verify(refreshToken, token.KindRefresh)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "[Refresh] verify")
	}

	// The stored record is the sole revocation check: a structurally
	// valid token is still rejected once revoked.
	record, err := s.repos.Tokens.GetByHash(ctx, refresh.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "[Refresh] unknown token")
		}
		return nil, apperrors.Wrapf(err, "[Refresh] GetByHash")
	}
	if record.Revoked {
		return nil, apperrors.Wrapf(apperrors.ErrTokenRevoked, "[Refresh]")
	}

	// Token validity never overrides deletion or deactivation.
	ident, err := s.repos.Identities.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Wrapf(apperrors.ErrNotFound, "[Refresh] user")
		}
		return nil, apperrors.Wrapf(err, "[Refresh] GetByID")
	}
	if !ident.Active() {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "[Refresh] user deactivated")
	}

	// Issue from current identity fields so profile changes since the
	// original login are picked up.
	pair, newRaw, err := s.issuePair(ident)
	if err != nil {
		return nil, err
	}

	// Continuity of device fingerprint across rotation. The old record
	// is revoked only after the new one is durably stored: if both
	// steps cannot complete, the old token stays valid rather than
	// leaving the session with no usable refresh token.
	stored, err := s.persistRecord(ctx, ident.ID, newRaw, record.IPAddress, record.UserAgent)
	if err != nil {
		return nil, err
	}
	if stored {
		revoked, err := s.repos.Tokens.Revoke(ctx, record.ID)
		if err != nil {
			s.log.Warn().Err(err).Int64("token_id", record.ID).Msg("failed to revoke rotated refresh token")
		} else if !revoked {
			s.log.Warn().Int64("token_id", record.ID).Int64("user_id", ident.ID).Msg("refresh token already revoked, possible token reuse")
		}
	}

	return pair, nil
}

// Logout revokes the refresh token's record. It is idempotent and
// reports success whether or not the token existed, so it cannot be
// used to probe for live tokens. The paired access token stays valid
// until its natural expiry.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	record, err := s.repos.Tokens.GetByHash(ctx, refresh.HashToken(refreshToken))
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.log.Warn().Err(err).Msg("logout token lookup failed")
		}
		return nil
	}

	if _, err := s.repos.Tokens.Revoke(ctx, record.ID); err != nil {
		s.log.Warn().Err(err).Int64("token_id", record.ID).Msg("logout revoke failed")
	}
	return nil
}

// VerifyAccess validates an access token without touching storage and
// projects its claims into UserInfo. Revocation is not checked here —
// an access token stays bearer-valid until its TTL runs out.
func (s *Service) VerifyAccess(accessToken string) (*UserInfo, error) {
	claims, err := s.codec.Verify(accessToken, token.KindAccess)
	if err != nil {
		return nil, err
	}
	return &UserInfo{
		UserID:     claims.UserID,
		Username:   claims.Username,
		Email:      claims.Email,
		IsAdmin:    claims.IsAdmin,
		IsVerified: claims.IsVerified,
	}, nil
}

func (s *Service) openSession(ctx context.Context, ident *identity.Identity, ipAddress, userAgent string) (*TokenPair, error) {
	pair, refreshRaw, err := s.issuePair(ident)
	if err != nil {
		return nil, err
	}

	if _, err := s.persistRecord(ctx, ident.ID, refreshRaw, ipAddress, userAgent); err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *Service) issuePair(ident *identity.Identity) (*TokenPair, string, error) {
	claims := &token.Claims{
		UserID:     ident.ID,
		Username:   ident.Username,
		Email:      ident.Email,
		IsAdmin:    ident.IsAdmin,
		IsVerified: ident.IsVerified,
	}

	accessToken, err := s.codec.Issue(claims, token.KindAccess, s.accessTTL)
	if err != nil {
		return nil, "", apperrors.Wrapf(err, "[issuePair] access")
	}
	refreshToken, err := s.codec.Issue(claims, token.KindRefresh, s.refreshTTL)
	if err != nil {
		return nil, "", apperrors.Wrapf(err, "[issuePair] refresh")
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	}, refreshToken, nil
}

// persistRecord stores the revocation record for a freshly issued
// refresh token and reports whether it was stored. By default a store
// failure is a warn-level event and the caller still gets working
// tokens — that session is then un-revocable until natural expiry.
// Strict mode surfaces the failure instead.
func (s *Service) persistRecord(ctx context.Context, userID int64, refreshRaw, ipAddress, userAgent string) (bool, error) {
	now := s.nowTime().UTC()
	_, err := s.repos.Tokens.Insert(ctx, &refresh.Record{
		UserID:    userID,
		TokenHash: refresh.HashToken(refreshRaw),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.refreshTTL),
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Revoked:   false,
	})
	if err == nil {
		return true, nil
	}

	if s.strictPersist {
		return false, apperrors.Wrapf(err, "failed to store refresh token")
	}
	s.log.Warn().Err(err).Int64("user_id", userID).Msg("failed to store refresh token, session will be un-revocable")
	return false, nil
}
