package auth_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	auth "github.com/smartwork/go-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUserView(t *testing.T) {
	t.Run("nil user yields nil view", func(t *testing.T) {
		assert.Nil(t, auth.NewUserView(nil))
	})

	t.Run("flattens roles to names", func(t *testing.T) {
		lastLogin := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
		user := &auth.User{
			ID:           uuid.New(),
			Username:     "jdoe",
			Email:        "jdoe@example.com",
			PasswordHash: "$2a$10$something",
			Name:         "Jane Doe",
			Status:       auth.UserStatusActive,
			LastLoginAt:  &lastLogin,
			Roles: []*auth.Role{
				{ID: uuid.New(), Name: "ADMIN"},
				nil,
				{ID: uuid.New(), Name: "EDITOR"},
			},
		}

		view := auth.NewUserView(user)
		require.NotNil(t, view)

		assert.Equal(t, user.ID, view.ID)
		assert.Equal(t, []string{"ADMIN", "EDITOR"}, view.Roles)
		assert.Equal(t, &lastLogin, view.LastLogin)
	})

	t.Run("credential hash never serializes", func(t *testing.T) {
		user := &auth.User{
			ID:           uuid.New(),
			Username:     "jdoe",
			PasswordHash: "$2a$10$something",
		}

		raw, err := json.Marshal(user)
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "$2a$10$something")

		raw, err = json.Marshal(auth.NewUserView(user))
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "$2a$10$something")
	})
}
