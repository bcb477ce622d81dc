package auth

import (
	"context"
	"sort"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// RoleDirectory is a read-only index over administrative role/permission
// data, addressed by role identifier. Users hold role IDs only; permission
// state is always resolved through the directory, never through
// back-references on the user.
type RoleDirectory interface {
	PermissionsForRoles(ctx context.Context, roleIDs []uuid.UUID) ([]string, error)
}

// RoleDirectoryFunc adapts a function to the RoleDirectory interface.
type RoleDirectoryFunc func(ctx context.Context, roleIDs []uuid.UUID) ([]string, error)

// PermissionsForRoles satisfies the RoleDirectory interface.
func (f RoleDirectoryFunc) PermissionsForRoles(ctx context.Context, roleIDs []uuid.UUID) ([]string, error) {
	return f(ctx, roleIDs)
}

// Resolver computes the effective permission set of a user from its assigned
// roles. Results depend only on the role and permission assignments at
// evaluation time; nothing is cached across calls.
type Resolver struct {
	directory RoleDirectory
}

// NewResolver returns a Resolver backed by the given directory.
func NewResolver(directory RoleDirectory) *Resolver {
	return &Resolver{directory: directory}
}

// EffectivePermissions returns the sorted union of permission names across
// the user's roles. A user with no roles yields an empty slice.
func (r *Resolver) EffectivePermissions(ctx context.Context, user *User) ([]string, error) {
	if user == nil {
		return []string{}, nil
	}

	roleIDs := user.RoleIDs()
	if len(roleIDs) == 0 {
		return []string{}, nil
	}

	names, err := r.directory.PermissionsForRoles(ctx, roleIDs)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve role permissions")
	}

	seen := make(map[string]struct{}, len(names))
	union := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		union = append(union, name)
	}

	sort.Strings(union)

	return union, nil
}

// HasPermission tests membership in the user's effective permission set.
func (r *Resolver) HasPermission(ctx context.Context, user *User, name string) (bool, error) {
	permissions, err := r.EffectivePermissions(ctx, user)
	if err != nil {
		return false, err
	}

	for _, permission := range permissions {
		if permission == name {
			return true, nil
		}
	}

	return false, nil
}

var _ PermissionResolver = (*Resolver)(nil)
