package auth

import (
	"encoding/base64"
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Config is the process-wide configuration surface of the auth core. Load it
// once at startup, validate it, and inject it; nothing mutates it at runtime.
type Config struct {
	// SigningKey is the base64-encoded symmetric signing key. The decoded
	// key must be at least MinSigningKeyBytes long.
	SigningKey string

	Issuer string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	MaxFailedAttempts int
	LockDuration      time.Duration

	BcryptCost int
}

// DefaultConfig returns the stock policy values. SigningKey has no default;
// it is provisioned out-of-band from the environment or a secret store.
func DefaultConfig() Config {
	return Config{
		AccessTokenTTL:    DefaultAccessTokenTTL,
		RefreshTokenTTL:   DefaultRefreshTokenTTL,
		MaxFailedAttempts: DefaultMaxFailedAttempts,
		LockDuration:      DefaultLockDuration,
		BcryptCost:        DefaultBcryptCost,
	}
}

// Validate checks the configuration is complete and internally consistent.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.SigningKey, validation.Required, validation.By(validSigningKey)),
		validation.Field(&c.AccessTokenTTL, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.RefreshTokenTTL, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.MaxFailedAttempts, validation.Required, validation.Min(1)),
		validation.Field(&c.LockDuration, validation.Required, validation.Min(time.Second)),
	)
}

func validSigningKey(value any) error {
	encoded, _ := value.(string)
	if encoded == "" {
		return nil // validation.Required reports the empty case
	}

	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return errors.New("must be valid base64")
	}

	if len(key) < MinSigningKeyBytes {
		return errors.New("decoded key must be at least 64 bytes")
	}

	return nil
}

// LockoutPolicy derives the lockout policy from the configuration.
func (c Config) LockoutPolicy() LockoutPolicy {
	return LockoutPolicy{
		MaxFailedAttempts: c.MaxFailedAttempts,
		LockDuration:      c.LockDuration,
	}
}

// TokenService builds the token service from the configuration.
func (c Config) TokenService(opts ...TokenServiceOption) (*TokenService, error) {
	return NewTokenService(c.SigningKey, c.AccessTokenTTL, c.RefreshTokenTTL, c.Issuer, opts...)
}

// PasswordHasher builds the credential hasher from the configuration.
func (c Config) PasswordHasher() BcryptHasher {
	return NewBcryptHasher(c.BcryptCost)
}
