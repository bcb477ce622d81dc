package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username       string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	EmployeeID     string     `bun:"employee_id,unique,nullzero" json:"employee_id,omitempty"`
	PasswordHash   string     `bun:"password_hash,notnull" json:"-"`
	Name           string     `bun:"name,notnull" json:"name,omitempty"`
	Department     string     `bun:"department" json:"department,omitempty"`
	Position       string     `bun:"position" json:"position,omitempty"`
	Phone          string     `bun:"phone" json:"phone,omitempty"`
	Status         UserStatus `bun:"status,notnull" json:"status,omitempty"`
	FailedAttempts int        `bun:"failed_attempts" json:"failed_attempts,omitempty"`
	LockedUntil    *time.Time `bun:"locked_until,nullzero" json:"locked_until,omitempty"`
	LastLoginAt    *time.Time `bun:"last_login_at,nullzero" json:"last_login_at,omitempty"`
	Roles          []*Role    `bun:"m2m:user_roles,join:User=Role" json:"roles,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureStatus defaults an empty status to ACTIVE
func (u *User) EnsureStatus() {
	if u.Status == "" {
		u.Status = UserStatusActive
	}
}

// RoleIDs returns the identifiers of the user's assigned roles. Role and
// permission data is resolved through the read-only role directory, the user
// itself never holds permission state.
func (u *User) RoleIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(u.Roles))
	for _, role := range u.Roles {
		if role != nil {
			ids = append(ids, role.ID)
		}
	}
	return ids
}

// Role is an administrative grouping of permissions
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:rol"`
	ID            uuid.UUID     `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string        `bun:"name,notnull,unique" json:"name,omitempty"`
	Description   string        `bun:"description" json:"description,omitempty"`
	Permissions   []*Permission `bun:"m2m:role_permissions,join:Role=Permission" json:"permissions,omitempty"`
	CreatedAt     *time.Time    `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time    `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// ResourceType tags a permission with the resource family it governs
type ResourceType string

const (
	ResourceBoard      ResourceType = "BOARD"
	ResourceApproval   ResourceType = "APPROVAL"
	ResourceAttendance ResourceType = "ATTENDANCE"
	ResourceFile       ResourceType = "FILE"
	ResourceUser       ResourceType = "USER"
	ResourceRole       ResourceType = "ROLE"
	ResourceSystem     ResourceType = "SYSTEM"
)

// IsValid checks if the resource type is part of the closed set
func (r ResourceType) IsValid() bool {
	switch r {
	case ResourceBoard, ResourceApproval, ResourceAttendance,
		ResourceFile, ResourceUser, ResourceRole, ResourceSystem:
		return true
	default:
		return false
	}
}

// Permission names a grantable capability on a resource family
type Permission struct {
	bun.BaseModel `bun:"table:permissions,alias:perm"`
	ID            uuid.UUID    `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string       `bun:"name,notnull,unique" json:"name,omitempty"`
	Description   string       `bun:"description" json:"description,omitempty"`
	ResourceType  ResourceType `bun:"resource_type,notnull" json:"resource_type,omitempty"`
	CreatedAt     *time.Time   `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time   `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// UserRole is the users<->roles join model
type UserRole struct {
	bun.BaseModel `bun:"table:user_roles,alias:usrrol"`
	UserID        uuid.UUID `bun:"user_id,pk,type:uuid"`
	User          *User     `bun:"rel:belongs-to,join:user_id=id"`
	RoleID        uuid.UUID `bun:"role_id,pk,type:uuid"`
	Role          *Role     `bun:"rel:belongs-to,join:role_id=id"`
}

// RolePermission is the roles<->permissions join model
type RolePermission struct {
	bun.BaseModel `bun:"table:role_permissions,alias:rolperm"`
	RoleID        uuid.UUID   `bun:"role_id,pk,type:uuid"`
	Role          *Role       `bun:"rel:belongs-to,join:role_id=id"`
	PermissionID  uuid.UUID   `bun:"permission_id,pk,type:uuid"`
	Permission    *Permission `bun:"rel:belongs-to,join:permission_id=id"`
}

// RegisterModels registers the many-to-many join models with bun. Call it
// once per *bun.DB before using the repositories.
func RegisterModels(db *bun.DB) {
	db.RegisterModel((*UserRole)(nil), (*RolePermission)(nil))
}
