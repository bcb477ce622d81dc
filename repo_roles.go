package auth

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Roles interface {
	repository.Repository[*Role]

	GetByName(ctx context.Context, name string) (*Role, error)
	GetByNameTx(ctx context.Context, tx bun.IDB, name string) (*Role, error)

	// PermissionsForRoles is the read-only directory lookup the RBAC
	// resolver runs against: permission names for the given role IDs,
	// duplicates included.
	PermissionsForRoles(ctx context.Context, roleIDs []uuid.UUID) ([]string, error)
}

type roles struct {
	repository.Repository[*Role]
	db *bun.DB
}

var (
	_ Roles                        = (*roles)(nil)
	_ RoleDirectory                = (*roles)(nil)
	_ repository.Repository[*Role] = (*roles)(nil)
)

func NewRolesRepository(db *bun.DB) Roles {
	repo := repository.NewRepository[*Role](db, repository.ModelHandlers[*Role]{
		NewRecord: func() *Role { return &Role{} },
		GetID: func(r *Role) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *Role, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
		GetIdentifier: func() string {
			return "name"
		},
	})

	return &roles{
		Repository: repo,
		db:         db,
	}
}

func (a *roles) GetByName(ctx context.Context, name string) (*Role, error) {
	return a.GetByNameTx(ctx, a.db, name)
}

func (a *roles) GetByNameTx(ctx context.Context, tx bun.IDB, name string) (*Role, error) {
	record := &Role{}

	err := tx.NewSelect().
		Model(record).
		Relation("Permissions").
		Where("?TableAlias.name = ?", name).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"name": name,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *roles) PermissionsForRoles(ctx context.Context, roleIDs []uuid.UUID) ([]string, error) {
	if len(roleIDs) == 0 {
		return []string{}, nil
	}

	var names []string
	err := a.db.NewSelect().
		ColumnExpr("perm.name").
		TableExpr("permissions AS perm").
		Join(`JOIN role_permissions AS rolperm ON rolperm.permission_id = perm.id`).
		Where("rolperm.role_id IN (?)", bun.In(roleIDs)).
		Scan(ctx, &names)

	if err != nil {
		return nil, err
	}

	return names, nil
}

// NewPermissionsRepository exposes the permissions table for administrative
// tooling. The auth core itself only reads permissions through the role
// directory.
func NewPermissionsRepository(db *bun.DB) repository.Repository[*Permission] {
	handlers := repository.ModelHandlers[*Permission]{
		NewRecord: func() *Permission {
			return &Permission{}
		},
		GetID: func(record *Permission) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *Permission, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "name"
		},
	}
	return repository.NewRepository(db, handlers)
}
