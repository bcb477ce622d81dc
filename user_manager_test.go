package auth_test

import (
	"context"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	auth "github.com/smartwork/go-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type managerFixture struct {
	manager *auth.UserManager
	repo    *mockRepoManager
	sink    *capturingSink
	hasher  auth.BcryptHasher
}

func newManagerFixture(t *testing.T) *managerFixture {
	t.Helper()

	repo := newMockRepoManager()
	sink := &capturingSink{}
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)

	manager := auth.NewUserManager(repo).
		WithPasswordHasher(hasher).
		WithActivitySink(sink).
		WithClock(func() time.Time { return testNow })

	return &managerFixture{
		manager: manager,
		repo:    repo,
		sink:    sink,
		hasher:  hasher,
	}
}

func (f *managerFixture) storedUser(t *testing.T, password string) *auth.User {
	t.Helper()

	hash, err := f.hasher.Hash(password)
	require.NoError(t, err)

	return &auth.User{
		ID:           uuid.New(),
		Username:     "jdoe",
		Email:        "jdoe@example.com",
		PasswordHash: hash,
		Name:         "Jane Doe",
		Status:       auth.UserStatusActive,
	}
}

func TestUserManager_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the sanitized view", func(t *testing.T) {
		f := newManagerFixture(t)
		user := f.storedUser(t, "s3cret-pass")

		f.repo.users.On("GetByID", mock.Anything, user.ID.String()).Return(user, nil)

		view, err := f.manager.GetByID(ctx, user.ID)
		require.NoError(t, err)

		assert.Equal(t, user.ID, view.ID)
		assert.Equal(t, "jdoe", view.Username)
	})

	t.Run("missing user maps to not found", func(t *testing.T) {
		f := newManagerFixture(t)
		id := uuid.New()

		f.repo.users.On("GetByID", mock.Anything, id.String()).
			Return(nil, repository.NewRecordNotFound())

		_, err := f.manager.GetByID(ctx, id)

		assert.True(t, goerrors.Is(err, auth.ErrUserNotFound))
	})
}

func TestUserManager_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("changed email re-runs the uniqueness check", func(t *testing.T) {
		f := newManagerFixture(t)
		user := f.storedUser(t, "s3cret-pass")
		email := "new@example.com"

		f.repo.users.On("GetByIDTx", mock.Anything, mock.Anything, user.ID.String()).Return(user, nil)
		f.repo.users.On("ExistsByEmailTx", mock.Anything, mock.Anything, email).Return(false, nil)
		f.repo.users.On("UpdateTx", mock.Anything, mock.Anything, mock.Anything).Return(user, nil)

		_, err := f.manager.Update(ctx, user.ID, auth.UpdateUserRequest{Email: &email})
		require.NoError(t, err)

		f.repo.users.AssertExpectations(t)
	})

	t.Run("taken email aborts before any write", func(t *testing.T) {
		f := newManagerFixture(t)
		user := f.storedUser(t, "s3cret-pass")
		email := "taken@example.com"

		f.repo.users.On("GetByIDTx", mock.Anything, mock.Anything, user.ID.String()).Return(user, nil)
		f.repo.users.On("ExistsByEmailTx", mock.Anything, mock.Anything, email).Return(true, nil)

		_, err := f.manager.Update(ctx, user.ID, auth.UpdateUserRequest{Email: &email})

		assert.True(t, goerrors.Is(err, auth.ErrDuplicateEmail))
		f.repo.users.AssertNotCalled(t, "UpdateTx", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unchanged email skips the uniqueness check", func(t *testing.T) {
		f := newManagerFixture(t)
		user := f.storedUser(t, "s3cret-pass")
		same := user.Email
		name := "Jane D. Doe"

		f.repo.users.On("GetByIDTx", mock.Anything, mock.Anything, user.ID.String()).Return(user, nil)
		f.repo.users.On("UpdateTx", mock.Anything, mock.Anything, mock.Anything).Return(user, nil)

		_, err := f.manager.Update(ctx, user.ID, auth.UpdateUserRequest{Email: &same, Name: &name})
		require.NoError(t, err)

		f.repo.users.AssertNotCalled(t, "ExistsByEmailTx", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestUserManager_ChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("confirmation mismatch never reaches the store", func(t *testing.T) {
		f := newManagerFixture(t)

		err := f.manager.ChangePassword(ctx, uuid.New(), auth.ChangePasswordRequest{
			CurrentPassword: "s3cret-pass",
			NewPassword:     "brand-new",
			ConfirmPassword: "brand-new-typo",
		})

		assert.True(t, goerrors.Is(err, auth.ErrPasswordMismatch))
		f.repo.users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("wrong current password is rejected", func(t *testing.T) {
		f := newManagerFixture(t)
		user := f.storedUser(t, "s3cret-pass")

		f.repo.users.On("GetByID", mock.Anything, user.ID.String()).Return(user, nil)

		err := f.manager.ChangePassword(ctx, user.ID, auth.ChangePasswordRequest{
			CurrentPassword: "not-the-password",
			NewPassword:     "brand-new",
			ConfirmPassword: "brand-new",
		})

		assert.True(t, goerrors.Is(err, auth.ErrCurrentPasswordIncorrect))
		f.repo.users.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rotates the hash and records the change", func(t *testing.T) {
		f := newManagerFixture(t)
		user := f.storedUser(t, "s3cret-pass")

		var newHash string
		f.repo.users.On("GetByID", mock.Anything, user.ID.String()).Return(user, nil)
		f.repo.users.On("UpdatePassword", mock.Anything, user.ID, mock.Anything).
			Run(func(args mock.Arguments) {
				newHash = args.String(2)
			}).
			Return(nil)

		err := f.manager.ChangePassword(ctx, user.ID, auth.ChangePasswordRequest{
			CurrentPassword: "s3cret-pass",
			NewPassword:     "brand-new",
			ConfirmPassword: "brand-new",
		})
		require.NoError(t, err)

		assert.NoError(t, f.hasher.Compare("brand-new", newHash))

		require.Len(t, f.sink.events, 1)
		assert.Equal(t, auth.ActivityEventPasswordChanged, f.sink.events[0].EventType)
	})
}

func TestUserManager_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	actor := auth.ActorRef{ID: uuid.New().String(), Type: "admin"}

	t.Run("moving to active resets the lockout state", func(t *testing.T) {
		f := newManagerFixture(t)
		user := f.storedUser(t, "s3cret-pass")
		user.Status = auth.UserStatusLocked
		user.FailedAttempts = 5

		unlocked := *user
		unlocked.Status = auth.UserStatusActive
		unlocked.FailedAttempts = 0

		f.repo.users.On("GetByID", mock.Anything, user.ID.String()).Return(user, nil)
		f.repo.users.On("UpdateStatus", mock.Anything, user.ID, auth.UserStatusActive, &auth.LockoutMutation{
			Status: auth.UserStatusActive,
		}).Return(&unlocked, nil)

		view, err := f.manager.UpdateStatus(ctx, actor, user.ID, auth.UserStatusActive)
		require.NoError(t, err)

		assert.Equal(t, auth.UserStatusActive, view.Status)

		require.Len(t, f.sink.events, 1)
		assert.Equal(t, auth.ActivityEventUserStatusChanged, f.sink.events[0].EventType)
		assert.Equal(t, auth.UserStatusLocked, f.sink.events[0].FromStatus)
		assert.Equal(t, auth.UserStatusActive, f.sink.events[0].ToStatus)
	})

	t.Run("moving to suspended carries no lockout mutation", func(t *testing.T) {
		f := newManagerFixture(t)
		user := f.storedUser(t, "s3cret-pass")

		suspended := *user
		suspended.Status = auth.UserStatusSuspended

		f.repo.users.On("GetByID", mock.Anything, user.ID.String()).Return(user, nil)
		f.repo.users.On("UpdateStatus", mock.Anything, user.ID, auth.UserStatusSuspended, (*auth.LockoutMutation)(nil)).
			Return(&suspended, nil)

		view, err := f.manager.UpdateStatus(ctx, actor, user.ID, auth.UserStatusSuspended)
		require.NoError(t, err)

		assert.Equal(t, auth.UserStatusSuspended, view.Status)
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		f := newManagerFixture(t)

		_, err := f.manager.UpdateStatus(ctx, actor, uuid.New(), auth.UserStatus("FROZEN"))

		require.Error(t, err)
		f.repo.users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})
}
