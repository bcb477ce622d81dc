package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Register(ctx context.Context, msg RegisterUserMessage) (*UserView, error)
}

// PasswordHasher hashes and verifies credentials
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(password, hash string) error
}

// TokenIssuer mints and parses signed bearer tokens
type TokenIssuer interface {
	IssueAccess(subject string, authorities []string) (string, error)
	IssueRefresh(subject string, authorities []string) (string, error)
	Parse(token string) (*AccessClaims, error)
	AccessTokenTTL() time.Duration
}

// PermissionResolver computes effective authorities for a user
type PermissionResolver interface {
	EffectivePermissions(ctx context.Context, user *User) ([]string, error)
	HasPermission(ctx context.Context, user *User, name string) (bool, error)
}

// LoginResult is what a successful login hands back to the transport layer
type LoginResult struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	User        *UserView `json:"user"`
}

// UserView is the sanitized projection of a user, safe to return to clients.
// It never carries the credential hash.
type UserView struct {
	ID         uuid.UUID  `json:"id"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	EmployeeID string     `json:"employee_id,omitempty"`
	Name       string     `json:"name"`
	Department string     `json:"department,omitempty"`
	Position   string     `json:"position,omitempty"`
	Phone      string     `json:"phone,omitempty"`
	Status     UserStatus `json:"status"`
	Roles      []string   `json:"roles,omitempty"`
	LastLogin  *time.Time `json:"last_login_at,omitempty"`
}

// NewUserView builds the sanitized projection for the provided user.
func NewUserView(user *User) *UserView {
	if user == nil {
		return nil
	}

	roles := make([]string, 0, len(user.Roles))
	for _, role := range user.Roles {
		if role != nil {
			roles = append(roles, role.Name)
		}
	}

	return &UserView{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		EmployeeID: user.EmployeeID,
		Name:       user.Name,
		Department: user.Department,
		Position:   user.Position,
		Phone:      user.Phone,
		Status:     user.Status,
		Roles:      roles,
		LastLogin:  user.LastLoginAt,
	}
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
