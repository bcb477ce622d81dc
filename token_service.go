package auth

import (
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

const (
	// MinSigningKeyBytes matches the HS512 digest security level.
	MinSigningKeyBytes = 64

	// DefaultAccessTokenTTL is the default access token validity window
	DefaultAccessTokenTTL = time.Hour
	// DefaultRefreshTokenTTL is the default refresh token validity window
	DefaultRefreshTokenTTL = 24 * time.Hour
)

// TokenService issues and verifies HMAC-SHA512 signed bearer tokens binding a
// subject to its authority list. It is stateless: issuance and validation are
// purely computational given the signing key and the clock, and never touch
// the store.
type TokenService struct {
	signingKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	logger     Logger
	now        func() time.Time
}

// TokenServiceOption customizes TokenService construction.
type TokenServiceOption func(*TokenService)

// WithTokenClock injects a custom clock (useful for tests).
func WithTokenClock(clock func() time.Time) TokenServiceOption {
	return func(ts *TokenService) {
		if clock != nil {
			ts.now = clock
		}
	}
}

// WithTokenLogger overrides the logger.
func WithTokenLogger(logger Logger) TokenServiceOption {
	return func(ts *TokenService) {
		if logger != nil {
			ts.logger = logger
		}
	}
}

// NewTokenService creates a TokenService from a base64-encoded symmetric key.
// The decoded key must be at least MinSigningKeyBytes long; the key is loaded
// once at construction and never mutated afterwards.
func NewTokenService(encodedKey string, accessTTL, refreshTTL time.Duration, issuer string, opts ...TokenServiceOption) (*TokenService, error) {
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "signing key is not valid base64")
	}

	if len(key) < MinSigningKeyBytes {
		return nil, goerrors.New("signing key is too short", goerrors.CategoryBadInput).
			WithMetadata(map[string]any{
				"key_bytes": len(key),
				"min_bytes": MinSigningKeyBytes,
			})
	}

	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTokenTTL
	}

	ts := &TokenService{
		signingKey: key,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		issuer:     issuer,
		logger:     defLogger{},
		now:        time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	return ts, nil
}

// AccessTokenTTL returns the validity window of issued access tokens.
func (ts *TokenService) AccessTokenTTL() time.Duration {
	return ts.accessTTL
}

// RefreshTokenTTL returns the validity window of issued refresh tokens.
func (ts *TokenService) RefreshTokenTTL() time.Duration {
	return ts.refreshTTL
}

// IssueAccess mints an access token for the subject carrying its authorities.
func (ts *TokenService) IssueAccess(subject string, authorities []string) (string, error) {
	return ts.sign(subject, authorities, ts.accessTTL)
}

// IssueRefresh mints a refresh token for the subject. Same signing routine as
// IssueAccess, longer validity window.
func (ts *TokenService) IssueRefresh(subject string, authorities []string) (string, error) {
	return ts.sign(subject, authorities, ts.refreshTTL)
}

func (ts *TokenService) sign(subject string, authorities []string, ttl time.Duration) (string, error) {
	claims := newAccessClaims(subject, authorities, ts.issuer, ts.now(), ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign token")
	}

	return signed, nil
}

// Parse verifies a token string and returns its claims. Failures carry a
// distinguishable kind: ErrTokenExpired, ErrTokenSignature, ErrTokenMalformed,
// or ErrTokenUnsupported. Expired wins over every other classification once
// the signature verifies, so clients can branch retry behavior on it.
func (ts *TokenService) Parse(tokenString string) (*AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS512.Alg() {
			ts.logger.Warn("token parse rejected signing method %v", t.Header["alg"])
			return nil, ErrTokenUnsupported
		}
		return ts.signingKey, nil
	}, jwt.WithTimeFunc(ts.now))

	if err != nil {
		switch {
		case goerrors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case goerrors.Is(err, ErrTokenUnsupported):
			return nil, ErrTokenUnsupported
		case goerrors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenSignature
		case goerrors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		default:
			return nil, ErrTokenUnsupported
		}
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		ts.logger.Error("token parse could not decode claims")
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

var _ TokenIssuer = (*TokenService)(nil)
