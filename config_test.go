package auth_test

import (
	"testing"
	"time"

	auth "github.com/smartwork/go-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	valid := func() auth.Config {
		cfg := auth.DefaultConfig()
		cfg.SigningKey = testSigningKey('k')
		cfg.Issuer = "smartwork"
		return cfg
	}

	t.Run("defaults plus a key validate", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("missing signing key", func(t *testing.T) {
		cfg := valid()
		cfg.SigningKey = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("signing key must be base64", func(t *testing.T) {
		cfg := valid()
		cfg.SigningKey = "%%% not base64 %%%"
		assert.Error(t, cfg.Validate())
	})

	t.Run("signing key must decode to 64 bytes", func(t *testing.T) {
		cfg := valid()
		cfg.SigningKey = "c2hvcnQ=" // "short"
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero lockout threshold is invalid", func(t *testing.T) {
		cfg := valid()
		cfg.MaxFailedAttempts = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestConfig_Factories(t *testing.T) {
	cfg := auth.DefaultConfig()
	cfg.SigningKey = testSigningKey('k')
	cfg.Issuer = "smartwork"

	policy := cfg.LockoutPolicy()
	assert.Equal(t, auth.DefaultMaxFailedAttempts, policy.MaxFailedAttempts)
	assert.Equal(t, auth.DefaultLockDuration, policy.LockDuration)

	ts, err := cfg.TokenService()
	require.NoError(t, err)
	assert.Equal(t, time.Hour, ts.AccessTokenTTL())
	assert.Equal(t, 24*time.Hour, ts.RefreshTokenTTL())

	hasher := cfg.PasswordHasher()
	assert.Equal(t, auth.DefaultBcryptCost, hasher.Cost)
}
