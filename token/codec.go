package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/opencircle/auth-server/internal/errors"
)

// Kind distinguishes the two token classes. They are structurally
// identical; verification must enforce kind-matching so an access token
// cannot be replayed as a refresh token or vice versa.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Codec produces and validates compact signed strings carrying Claims.
// Any service holding the shared secret can verify a token without a
// round-trip to a session store.
type Codec struct {
	signer  Signer
	nowFunc func() time.Time
}

type CodecOption func(*Codec)

// WithNowFunc sets the now time function (primarily for testing)
func WithNowFunc(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowFunc = now
	}
}

func NewCodec(signer Signer, options ...CodecOption) *Codec {
	c := &Codec{
		signer:  signer,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Issue encodes claims into a signed token of the given kind that
// expires after ttl.
func (c *Codec) Issue(claims *Claims, kind Kind, ttl time.Duration) (string, error) {
	now := c.nowFunc()

	mapClaims := claims.toMapClaims()
	mapClaims["type"] = string(kind)
	mapClaims["iat"] = now.Unix()
	mapClaims["exp"] = now.Add(ttl).Unix()
	mapClaims["jti"] = uuid.New().String()

	return c.signer.Sign(mapClaims)
}

// Verify decodes and authenticates a token. It returns ErrInvalidToken
// when the signature does not verify, the structure is malformed, the
// token has expired, or the embedded kind does not match the expected
// one. It never panics across the service boundary.
func (c *Codec) Verify(raw string, kind Kind) (*Claims, error) {
	parser := jwt.NewParser(jwt.WithTimeFunc(c.nowFunc), jwt.WithExpirationRequired())
	parsed, err := parser.Parse(raw, c.signer.GetVerificationKey)
	if err != nil || !parsed.Valid {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "token verification failed")
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "error extracting claims")
	}

	if tokenType, _ := mapClaims["type"].(string); tokenType != string(kind) {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "token is not a %s token", kind)
	}

	claims, err := claimsFromMap(mapClaims)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "%v", err)
	}
	return claims, nil
}
