package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ApplyLoginStateSQL persists the outcome of a lockout transition in one
// statement, so the evaluate/write pair stays a single unit of work.
var ApplyLoginStateSQL = `UPDATE "users" AS "usr"
SET
	"status" = ?,
	"failed_attempts" = ?,
	"locked_until" = ?,
	"last_login_at" = ?
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
);`

// RecordFailedAttemptSQL increments the failure counter and trips the lock in
// a single atomic statement. Two concurrent failed attempts both land: the
// increment happens against the stored value, not a value read earlier by the
// caller, so no update is lost.
var RecordFailedAttemptSQL = `UPDATE "users" AS "usr"
SET
	"failed_attempts" = "failed_attempts" + 1,
	"status" = CASE WHEN "failed_attempts" + 1 >= ? THEN ? ELSE "status" END,
	"locked_until" = CASE WHEN "failed_attempts" + 1 >= ? THEN ? ELSE "locked_until" END
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
);`

// UpdatePasswordSQL swaps the credential hash for a user.
var UpdatePasswordSQL = `UPDATE "users" AS "usr"
SET
	"password_hash" = ?
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
);`

type Users interface {
	repository.Repository[*User]

	GetByUsername(ctx context.Context, username string, criteria ...repository.SelectCriteria) (*User, error)
	GetByUsernameTx(ctx context.Context, tx bun.IDB, username string, criteria ...repository.SelectCriteria) (*User, error)
	GetByEmail(ctx context.Context, email string, criteria ...repository.SelectCriteria) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string, criteria ...repository.SelectCriteria) (*User, error)

	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByUsernameTx(ctx context.Context, tx bun.IDB, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByEmailTx(ctx context.Context, tx bun.IDB, email string) (bool, error)
	ExistsByEmployeeID(ctx context.Context, employeeID string) (bool, error)
	ExistsByEmployeeIDTx(ctx context.Context, tx bun.IDB, employeeID string) (bool, error)

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)

	ApplyLoginState(ctx context.Context, id uuid.UUID, mutation LockoutMutation) error
	ApplyLoginStateTx(ctx context.Context, tx bun.IDB, id uuid.UUID, mutation LockoutMutation) error
	RecordFailedAttempt(ctx context.Context, id uuid.UUID, policy LockoutPolicy, now time.Time) error
	RecordFailedAttemptTx(ctx context.Context, tx bun.IDB, id uuid.UUID, policy LockoutPolicy, now time.Time) error

	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdatePasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status UserStatus, mutation *LockoutMutation) (*User, error)
	UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status UserStatus, mutation *LockoutMutation) (*User, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "username"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

// WithUserRoles loads the roles relation alongside the user. Role rows come
// back without their permission sets; those resolve through the role
// directory.
func WithUserRoles() repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Relation("Roles")
	}
}

func (a *users) GetByUsername(ctx context.Context, username string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.GetByUsernameTx(ctx, a.db, username, criteria...)
}

func (a *users) GetByUsernameTx(ctx context.Context, tx bun.IDB, username string, criteria ...repository.SelectCriteria) (*User, error) {
	record := &User{}
	q := tx.NewSelect().Model(record)

	for _, c := range criteria {
		q.Apply(c)
	}

	err := q.
		Where("?TableAlias.username = ?", username).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"username": username,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) GetByEmail(ctx context.Context, email string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email, criteria...)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string, criteria ...repository.SelectCriteria) (*User, error) {
	record := &User{}
	q := tx.NewSelect().Model(record)

	for _, c := range criteria {
		q.Apply(c)
	}

	err := q.
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email": email,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return a.ExistsByUsernameTx(ctx, a.db, username)
}

func (a *users) ExistsByUsernameTx(ctx context.Context, tx bun.IDB, username string) (bool, error) {
	return a.existsWhere(ctx, tx, "?TableAlias.username = ?", username)
}

func (a *users) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return a.ExistsByEmailTx(ctx, a.db, email)
}

func (a *users) ExistsByEmailTx(ctx context.Context, tx bun.IDB, email string) (bool, error) {
	return a.existsWhere(ctx, tx, "?TableAlias.email = ?", email)
}

func (a *users) ExistsByEmployeeID(ctx context.Context, employeeID string) (bool, error) {
	return a.ExistsByEmployeeIDTx(ctx, a.db, employeeID)
}

func (a *users) ExistsByEmployeeIDTx(ctx context.Context, tx bun.IDB, employeeID string) (bool, error) {
	if employeeID == "" {
		return false, nil
	}
	return a.existsWhere(ctx, tx, "?TableAlias.employee_id = ?", employeeID)
}

func (a *users) existsWhere(ctx context.Context, tx bun.IDB, where string, value string) (bool, error) {
	return tx.NewSelect().
		Model((*User)(nil)).
		Where(where, value).
		Exists(ctx)
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	prepareUserDefaults(user)
	return a.Repository.CreateTx(ctx, tx, user)
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *users) ApplyLoginState(ctx context.Context, id uuid.UUID, mutation LockoutMutation) error {
	return a.ApplyLoginStateTx(ctx, a.db, id, mutation)
}

func (a *users) ApplyLoginStateTx(ctx context.Context, tx bun.IDB, id uuid.UUID, mutation LockoutMutation) error {
	_, err := tx.NewRaw(
		ApplyLoginStateSQL,
		string(mutation.Status),
		mutation.FailedAttempts,
		mutation.LockedUntil,
		mutation.LastLoginAt,
		id,
	).Exec(ctx)

	return err
}

func (a *users) RecordFailedAttempt(ctx context.Context, id uuid.UUID, policy LockoutPolicy, now time.Time) error {
	return a.RecordFailedAttemptTx(ctx, a.db, id, policy, now)
}

func (a *users) RecordFailedAttemptTx(ctx context.Context, tx bun.IDB, id uuid.UUID, policy LockoutPolicy, now time.Time) error {
	threshold := policy.maxAttempts()
	lockedUntil := now.Add(policy.lockDuration())

	_, err := tx.NewRaw(
		RecordFailedAttemptSQL,
		threshold,
		string(UserStatusLocked),
		threshold,
		lockedUntil,
		id,
	).Exec(ctx)

	return err
}

func (a *users) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return a.UpdatePasswordTx(ctx, a.db, id, passwordHash)
}

func (a *users) UpdatePasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	_, err := tx.NewRaw(UpdatePasswordSQL, passwordHash, id).Exec(ctx)
	return err
}

func (a *users) UpdateStatus(ctx context.Context, id uuid.UUID, status UserStatus, mutation *LockoutMutation) (*User, error) {
	return a.UpdateStatusTx(ctx, a.db, id, status, mutation)
}

// UpdateStatusTx persists an administrative status change. When the change
// carries a lockout mutation (moving to ACTIVE unlocks the account) the
// counter and window are written in the same statement.
func (a *users) UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status UserStatus, mutation *LockoutMutation) (*User, error) {
	if mutation != nil {
		if err := a.ApplyLoginStateTx(ctx, tx, id, *mutation); err != nil {
			return nil, err
		}
		return a.Repository.GetByIDTx(ctx, tx, id.String())
	}

	record := &User{
		ID:     id,
		Status: status,
	}

	return a.Repository.UpdateTx(ctx, tx, record, repository.UpdateByID(id.String()))
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	record.EnsureStatus()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
