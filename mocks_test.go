package auth_test

import (
	"context"
	"database/sql"
	"time"

	auth "github.com/smartwork/go-auth"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockUsers stubs the Users repository. The embedded interface satisfies the
// methods a test never touches; calling one of those unstubbed panics, which
// is exactly what we want.
type MockUsers struct {
	auth.Users
	mock.Mock
}

func (m *MockUsers) GetByUsernameTx(ctx context.Context, tx bun.IDB, username string, criteria ...repository.SelectCriteria) (*auth.User, error) {
	args := m.Called(ctx, tx, username)
	if user := args.Get(0); user != nil {
		return user.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*auth.User, error) {
	args := m.Called(ctx, id)
	if user := args.Get(0); user != nil {
		return user.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) GetByIDTx(ctx context.Context, tx bun.IDB, id string, criteria ...repository.SelectCriteria) (*auth.User, error) {
	args := m.Called(ctx, tx, id)
	if user := args.Get(0); user != nil {
		return user.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) UpdateTx(ctx context.Context, tx bun.IDB, record *auth.User, criteria ...repository.UpdateCriteria) (*auth.User, error) {
	args := m.Called(ctx, tx, record)
	if user := args.Get(0); user != nil {
		return user.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) ExistsByUsernameTx(ctx context.Context, tx bun.IDB, username string) (bool, error) {
	args := m.Called(ctx, tx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsers) ExistsByEmailTx(ctx context.Context, tx bun.IDB, email string) (bool, error) {
	args := m.Called(ctx, tx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsers) ExistsByEmployeeIDTx(ctx context.Context, tx bun.IDB, employeeID string) (bool, error) {
	args := m.Called(ctx, tx, employeeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsers) RegisterTx(ctx context.Context, tx bun.IDB, user *auth.User) (*auth.User, error) {
	args := m.Called(ctx, tx, user)
	if created := args.Get(0); created != nil {
		return created.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) ApplyLoginStateTx(ctx context.Context, tx bun.IDB, id uuid.UUID, mutation auth.LockoutMutation) error {
	args := m.Called(ctx, tx, id, mutation)
	return args.Error(0)
}

func (m *MockUsers) RecordFailedAttemptTx(ctx context.Context, tx bun.IDB, id uuid.UUID, policy auth.LockoutPolicy, now time.Time) error {
	args := m.Called(ctx, tx, id, policy, now)
	return args.Error(0)
}

func (m *MockUsers) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUsers) UpdateStatus(ctx context.Context, id uuid.UUID, status auth.UserStatus, mutation *auth.LockoutMutation) (*auth.User, error) {
	args := m.Called(ctx, id, status, mutation)
	if user := args.Get(0); user != nil {
		return user.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockRoles stubs the Roles repository / role directory.
type MockRoles struct {
	auth.Roles
	mock.Mock
}

func (m *MockRoles) PermissionsForRoles(ctx context.Context, roleIDs []uuid.UUID) ([]string, error) {
	args := m.Called(ctx, roleIDs)
	if names := args.Get(0); names != nil {
		return names.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

// mockRepoManager hands out the mock repositories and runs "transactions"
// by invoking the closure directly.
type mockRepoManager struct {
	users *MockUsers
	roles *MockRoles
}

func newMockRepoManager() *mockRepoManager {
	return &mockRepoManager{
		users: &MockUsers{},
		roles: &MockRoles{},
	}
}

func (m *mockRepoManager) Validate() error { return nil }
func (m *mockRepoManager) MustValidate()   {}

func (m *mockRepoManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (m *mockRepoManager) Users() auth.Users { return m.users }
func (m *mockRepoManager) Roles() auth.Roles { return m.roles }

func (m *mockRepoManager) Permissions() repository.Repository[*auth.Permission] { return nil }

// capturingSink records activity events for assertions.
type capturingSink struct {
	events []auth.ActivityEvent
}

func (c *capturingSink) Record(ctx context.Context, event auth.ActivityEvent) error {
	c.events = append(c.events, event)
	return nil
}
