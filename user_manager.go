package auth

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
	"github.com/uptrace/bun"
)

// DefaultPhoneRegion is the region used to parse phone numbers that arrive
// without a country prefix.
var DefaultPhoneRegion = "US"

// SoftDeleteUserSQL retires a user: soft delete plus RESIGNED in one statement.
var SoftDeleteUserSQL = `UPDATE "users" AS "usr"
SET
	"status" = ?,
	"deleted_at" = ?
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
);`

// UpdateUserRequest carries the mutable profile fields. Nil pointers leave
// the current value untouched.
type UpdateUserRequest struct {
	Email      *string `json:"email"`
	EmployeeID *string `json:"employee_id"`
	Name       *string `json:"name"`
	Department *string `json:"department"`
	Position   *string `json:"position"`
	Phone      *string `json:"phone"`
}

// ChangePasswordRequest carries a password rotation.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// UserManager covers the administrative user operations that sit next to
// authentication: profile updates, password changes, status transitions,
// and retirement.
type UserManager struct {
	repo         RepositoryManager
	hasher       PasswordHasher
	policy       LockoutPolicy
	logger       Logger
	activitySink ActivitySink
	now          func() time.Time
}

// NewUserManager returns a UserManager wired against the repository manager.
func NewUserManager(repo RepositoryManager) *UserManager {
	return &UserManager{
		repo:         repo,
		hasher:       NewBcryptHasher(0),
		policy:       DefaultLockoutPolicy(),
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		now:          time.Now,
	}
}

func (m *UserManager) WithLogger(logger Logger) *UserManager {
	if logger != nil {
		m.logger = logger
	}
	return m
}

func (m *UserManager) WithPasswordHasher(hasher PasswordHasher) *UserManager {
	if hasher != nil {
		m.hasher = hasher
	}
	return m
}

func (m *UserManager) WithLockoutPolicy(policy LockoutPolicy) *UserManager {
	m.policy = policy
	return m
}

func (m *UserManager) WithActivitySink(sink ActivitySink) *UserManager {
	m.activitySink = normalizeActivitySink(sink)
	return m
}

func (m *UserManager) WithClock(clock func() time.Time) *UserManager {
	if clock != nil {
		m.now = clock
	}
	return m
}

// GetByID looks a user up by identifier.
func (m *UserManager) GetByID(ctx context.Context, id uuid.UUID) (*UserView, error) {
	user, err := m.loadUser(ctx, m.repo.Users(), id)
	if err != nil {
		return nil, err
	}
	return NewUserView(user), nil
}

// GetByUsername looks a user up by username.
func (m *UserManager) GetByUsername(ctx context.Context, username string) (*UserView, error) {
	user, err := m.repo.Users().GetByUsername(ctx, username, WithUserRoles())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user")
	}
	return NewUserView(user), nil
}

// Update applies profile changes. Email and employee ID keep their
// uniqueness guarantee: a change to either re-runs the existence check
// before anything is written.
func (m *UserManager) Update(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*UserView, error) {
	var updated *User

	err := m.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		users := m.repo.Users()

		user, err := m.loadUserTx(ctx, tx, users, id)
		if err != nil {
			return err
		}

		if req.Email != nil && *req.Email != user.Email {
			if taken, err := users.ExistsByEmailTx(ctx, tx, *req.Email); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email uniqueness")
			} else if taken {
				return ErrDuplicateEmail
			}
			user.Email = *req.Email
		}

		if req.EmployeeID != nil && *req.EmployeeID != user.EmployeeID {
			if taken, err := users.ExistsByEmployeeIDTx(ctx, tx, *req.EmployeeID); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check employee ID uniqueness")
			} else if taken {
				return ErrDuplicateEmployeeID
			}
			user.EmployeeID = *req.EmployeeID
		}

		if req.Name != nil {
			user.Name = *req.Name
		}
		if req.Department != nil {
			user.Department = *req.Department
		}
		if req.Position != nil {
			user.Position = *req.Position
		}
		if req.Phone != nil {
			user.Phone = normalizePhone(*req.Phone)
		}

		updated, err = users.UpdateTx(ctx, tx, user, repository.UpdateByID(id.String()))
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user")
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return NewUserView(updated), nil
}

// ChangePassword rotates a user's credential after verifying the
// confirmation matches and the current password is correct.
func (m *UserManager) ChangePassword(ctx context.Context, id uuid.UUID, req ChangePasswordRequest) error {
	if req.NewPassword != req.ConfirmPassword {
		return ErrPasswordMismatch
	}

	users := m.repo.Users()

	user, err := m.loadUser(ctx, users, id)
	if err != nil {
		return err
	}

	if err := m.hasher.Compare(req.CurrentPassword, user.PasswordHash); err != nil {
		if goerrors.Is(err, ErrMismatchedHashAndPassword) {
			return ErrCurrentPasswordIncorrect
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to verify current password")
	}

	hash, err := m.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}

	if err := users.UpdatePassword(ctx, id, hash); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update password")
	}

	m.emit(ctx, ActivityEvent{
		EventType: ActivityEventPasswordChanged,
		Actor:     ActorRef{ID: id.String(), Type: "user"},
		UserID:    id.String(),
	})

	return nil
}

// UpdateStatus moves a user to the target status. Moving to ACTIVE is an
// explicit unlock: the failure counter resets and the lock window clears in
// the same write.
func (m *UserManager) UpdateStatus(ctx context.Context, actor ActorRef, id uuid.UUID, status UserStatus) (*UserView, error) {
	if !status.IsValid() {
		return nil, goerrors.New("unknown user status", goerrors.CategoryBadInput).
			WithMetadata(map[string]any{"status": status})
	}

	users := m.repo.Users()

	user, err := m.loadUser(ctx, users, id)
	if err != nil {
		return nil, err
	}

	from := user.Status

	var mutation *LockoutMutation
	if status == UserStatusActive {
		unlocked := m.policy.Unlock(user)
		mutation = &unlocked
	}

	updated, err := users.UpdateStatus(ctx, id, status, mutation)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user status")
	}

	m.emit(ctx, ActivityEvent{
		EventType:  ActivityEventUserStatusChanged,
		Actor:      actor,
		UserID:     id.String(),
		FromStatus: from,
		ToStatus:   status,
	})

	return NewUserView(updated), nil
}

// Delete retires a user: soft delete, status RESIGNED. The record is never
// physically removed.
func (m *UserManager) Delete(ctx context.Context, actor ActorRef, id uuid.UUID) error {
	users := m.repo.Users()

	user, err := m.loadUser(ctx, users, id)
	if err != nil {
		return err
	}

	err = m.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewRaw(SoftDeleteUserSQL, string(UserStatusResigned), m.now(), id).Exec(ctx)
		return err
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete user")
	}

	m.emit(ctx, ActivityEvent{
		EventType:  ActivityEventUserStatusChanged,
		Actor:      actor,
		UserID:     id.String(),
		FromStatus: user.Status,
		ToStatus:   UserStatusResigned,
	})

	return nil
}

func (m *UserManager) loadUser(ctx context.Context, users Users, id uuid.UUID) (*User, error) {
	user, err := users.GetByID(ctx, id.String(), WithUserRoles())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user")
	}
	return user, nil
}

func (m *UserManager) loadUserTx(ctx context.Context, tx bun.IDB, users Users, id uuid.UUID) (*User, error) {
	user, err := users.GetByIDTx(ctx, tx, id.String(), WithUserRoles())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user")
	}
	return user, nil
}

func (m *UserManager) emit(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = m.now()
	}

	sink := normalizeActivitySink(m.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		m.logger.Warn("activity sink record error: %v", err)
	}
}

// normalizePhone best-effort normalizes a phone number to E.164. Numbers the
// parser cannot make sense of pass through unchanged.
func normalizePhone(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	parsed, err := phonenumbers.Parse(trimmed, DefaultPhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return trimmed
	}

	return phonenumbers.Format(parsed, phonenumbers.E164)
}
