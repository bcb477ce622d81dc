package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// authClaimDelimiter joins authority names into the single `auth` claim.
const authClaimDelimiter = ","

// AccessClaims is the payload of a signed bearer token: a subject plus the
// serialized authority list, alongside the registered time claims.
type AccessClaims struct {
	jwt.RegisteredClaims
	Auth string `json:"auth"`
}

// newAccessClaims builds claims for a subject/authorities pair valid for ttl.
func newAccessClaims(subject string, authorities []string, issuer string, now time.Time, ttl time.Duration) *AccessClaims {
	return &AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Auth: strings.Join(authorities, authClaimDelimiter),
	}
}

// Subject returns the subject claim
func (c *AccessClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// Authorities splits the `auth` claim back into authority names. An empty
// claim yields an empty slice, not [""].
func (c *AccessClaims) Authorities() []string {
	if c.Auth == "" {
		return []string{}
	}
	return strings.Split(c.Auth, authClaimDelimiter)
}

// HasAuthority checks membership in the serialized authority list.
func (c *AccessClaims) HasAuthority(name string) bool {
	for _, authority := range c.Authorities() {
		if authority == name {
			return true
		}
	}
	return false
}

// Expires returns the expiration time
func (c *AccessClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issuance time
func (c *AccessClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
