package pg

import (
	"context"
	"database/sql"
	"errors"

	"waxline.org/internal/auth"
	"waxline.org/internal/ids"
)

type roleStore struct {
	db *sql.DB
}

func (s roleStore) Create(ctx context.Context, role *auth.Role) error {
	if role.ID == "" {
		role.ID = ids.New()
	}
	row := s.db.QueryRowContext(ctx, `
		insert into roles (id, name)
		values ($1, $2)
		returning created_at, updated_at
	`, role.ID, role.Name)
	if err := row.Scan(&role.CreatedAt, &role.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return auth.ErrDuplicateName
		}
		return storageErr(err)
	}
	return nil
}

func (s roleStore) Find(ctx context.Context, id string) (*auth.Role, error) {
	return s.findWhere(ctx, `id = $1`, id)
}

func (s roleStore) FindByName(ctx context.Context, name string) (*auth.Role, error) {
	return s.findWhere(ctx, `name = $1`, name)
}

func (s roleStore) findWhere(ctx context.Context, where string, arg any) (*auth.Role, error) {
	var role auth.Role
	err := s.db.QueryRowContext(ctx, `
		select id, name, created_at, updated_at from roles where `+where, arg,
	).Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return &role, nil
}

func (s roleStore) List(ctx context.Context) ([]auth.Role, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, name, created_at, updated_at
		from roles
		order by name
	`)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var roles []auth.Role
	for rows.Next() {
		var role auth.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, storageErr(err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return roles, nil
}

func (s roleStore) Rename(ctx context.Context, id, name string) (*auth.Role, error) {
	res, err := s.db.ExecContext(ctx, `
		update roles set name = $2, updated_at = now() where id = $1
	`, id, name)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return nil, auth.ErrDuplicateName
		}
		return nil, storageErr(err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return nil, storageErr(err)
	}
	if aff == 0 {
		return nil, auth.ErrNotFound
	}
	return s.Find(ctx, id)
}

// Delete removes the role together with its memberships and role-permission
// grants in one transaction.
func (s roleStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"user_roles", "role_permissions"} {
		if _, err := tx.ExecContext(ctx, `delete from `+table+` where role_id = $1`, id); err != nil {
			return storageErr(err)
		}
	}
	res, err := tx.ExecContext(ctx, `delete from roles where id = $1`, id)
	if err != nil {
		return storageErr(err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return storageErr(err)
	}
	if aff == 0 {
		return auth.ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return storageErr(err)
	}
	return nil
}

type permStore struct {
	db *sql.DB
}

func (s permStore) Create(ctx context.Context, perm *auth.Permission) error {
	if perm.ID == "" {
		perm.ID = ids.New()
	}
	row := s.db.QueryRowContext(ctx, `
		insert into permissions (id, name, description)
		values ($1, $2, $3)
		returning created_at
	`, perm.ID, perm.Name, nullIfEmpty(perm.Description))
	if err := row.Scan(&perm.CreatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return auth.ErrDuplicateName
		}
		return storageErr(err)
	}
	return nil
}

func (s permStore) Find(ctx context.Context, id string) (*auth.Permission, error) {
	return s.findWhere(ctx, `id = $1`, id)
}

func (s permStore) FindByName(ctx context.Context, name string) (*auth.Permission, error) {
	return s.findWhere(ctx, `name = $1`, name)
}

func (s permStore) findWhere(ctx context.Context, where string, arg any) (*auth.Permission, error) {
	var (
		perm auth.Permission
		desc sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		select id, name, description, created_at from permissions where `+where, arg,
	).Scan(&perm.ID, &perm.Name, &desc, &perm.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, storageErr(err)
	}
	perm.Description = desc.String
	return &perm, nil
}

func (s permStore) List(ctx context.Context) ([]auth.Permission, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, name, description, created_at
		from permissions
		order by name
	`)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var perms []auth.Permission
	for rows.Next() {
		var (
			perm auth.Permission
			desc sql.NullString
		)
		if err := rows.Scan(&perm.ID, &perm.Name, &desc, &perm.CreatedAt); err != nil {
			return nil, storageErr(err)
		}
		perm.Description = desc.String
		perms = append(perms, perm)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return perms, nil
}

func (s permStore) Rename(ctx context.Context, id, name string) (*auth.Permission, error) {
	res, err := s.db.ExecContext(ctx, `
		update permissions set name = $2 where id = $1
	`, id, name)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return nil, auth.ErrDuplicateName
		}
		return nil, storageErr(err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return nil, storageErr(err)
	}
	if aff == 0 {
		return nil, auth.ErrNotFound
	}
	return s.Find(ctx, id)
}

// Delete removes the permission and every role-permission and user-permission
// grant referencing it in one transaction.
func (s permStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"role_permissions", "user_permissions"} {
		if _, err := tx.ExecContext(ctx, `delete from `+table+` where permission_id = $1`, id); err != nil {
			return storageErr(err)
		}
	}
	res, err := tx.ExecContext(ctx, `delete from permissions where id = $1`, id)
	if err != nil {
		return storageErr(err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return storageErr(err)
	}
	if aff == 0 {
		return auth.ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return storageErr(err)
	}
	return nil
}

func (s permStore) Ensure(ctx context.Context, perms []auth.Permission) error {
	for _, perm := range perms {
		id := perm.ID
		if id == "" {
			id = ids.New()
		}
		if _, err := s.db.ExecContext(ctx, `
			insert into permissions (id, name, description)
			values ($1, $2, $3)
			on conflict (name) do nothing
		`, id, perm.Name, nullIfEmpty(perm.Description)); err != nil {
			return storageErr(err)
		}
	}
	return nil
}
