package pg

import (
	"context"
	"database/sql"

	"waxline.org/internal/auth"
	"waxline.org/internal/ids"
)

type grantStore struct {
	db *sql.DB
}

func (s grantStore) GrantRole(ctx context.Context, userID, roleID string) (auth.UserRole, error) {
	grant := auth.UserRole{ID: ids.New(), UserID: userID, RoleID: roleID}
	row := s.db.QueryRowContext(ctx, `
		insert into user_roles (id, user_id, role_id)
		values ($1, $2, $3)
		returning created_at
	`, grant.ID, userID, roleID)
	if err := row.Scan(&grant.CreatedAt); err != nil {
		return auth.UserRole{}, grantErr(err)
	}
	return grant, nil
}

func (s grantStore) RevokeRole(ctx context.Context, userID, roleID string) error {
	return s.revoke(ctx, `delete from user_roles where user_id = $1 and role_id = $2`, userID, roleID)
}

func (s grantStore) GrantPermissionToRole(ctx context.Context, roleID, permissionID string) (auth.RolePermission, error) {
	grant := auth.RolePermission{ID: ids.New(), RoleID: roleID, PermissionID: permissionID}
	row := s.db.QueryRowContext(ctx, `
		insert into role_permissions (id, role_id, permission_id)
		values ($1, $2, $3)
		returning created_at
	`, grant.ID, roleID, permissionID)
	if err := row.Scan(&grant.CreatedAt); err != nil {
		return auth.RolePermission{}, grantErr(err)
	}
	return grant, nil
}

func (s grantStore) RevokePermissionFromRole(ctx context.Context, roleID, permissionID string) error {
	return s.revoke(ctx, `delete from role_permissions where role_id = $1 and permission_id = $2`, roleID, permissionID)
}

func (s grantStore) GrantPermissionToUser(ctx context.Context, userID, permissionID string) (auth.UserPermission, error) {
	grant := auth.UserPermission{ID: ids.New(), UserID: userID, PermissionID: permissionID}
	row := s.db.QueryRowContext(ctx, `
		insert into user_permissions (id, user_id, permission_id)
		values ($1, $2, $3)
		returning created_at
	`, grant.ID, userID, permissionID)
	if err := row.Scan(&grant.CreatedAt); err != nil {
		return auth.UserPermission{}, grantErr(err)
	}
	return grant, nil
}

func (s grantStore) RevokePermissionFromUser(ctx context.Context, userID, permissionID string) error {
	return s.revoke(ctx, `delete from user_permissions where user_id = $1 and permission_id = $2`, userID, permissionID)
}

func (s grantStore) revoke(ctx context.Context, query string, a, b string) error {
	res, err := s.db.ExecContext(ctx, query, a, b)
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
	return nil
}

func (s grantStore) RolesForUser(ctx context.Context, userID string) ([]auth.Role, error) {
	rows, err := s.db.QueryContext(ctx, `
		select r.id, r.name, r.created_at, r.updated_at
		from user_roles ur
		join roles r on r.id = ur.role_id
		where ur.user_id = $1
		order by r.name
	`, userID)
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

func (s grantStore) PermissionsForRole(ctx context.Context, roleID string) ([]auth.Permission, error) {
	return s.queryPermissions(ctx, `
		select p.id, p.name, p.description, p.created_at
		from role_permissions rp
		join permissions p on p.id = rp.permission_id
		where rp.role_id = $1
		order by p.name
	`, roleID)
}

func (s grantStore) DirectPermissions(ctx context.Context, userID string) ([]auth.Permission, error) {
	return s.queryPermissions(ctx, `
		select p.id, p.name, p.description, p.created_at
		from user_permissions up
		join permissions p on p.id = up.permission_id
		where up.user_id = $1
		order by p.name
	`, userID)
}

func (s grantStore) queryPermissions(ctx context.Context, query, arg string) ([]auth.Permission, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
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

// grantErr maps a failed grant insert: a duplicate pair is AlreadyGranted, a
// missing endpoint surfaces through the foreign key as NotFound.
func grantErr(err error) error {
	if pgErr, ok := maybePgError(err); ok {
		switch pgErr.Code {
		case pgErrUniqueViolation:
			return auth.ErrAlreadyGranted
		case pgErrForeignKeyViolation:
			return auth.ErrNotFound
		}
	}
	return storageErr(err)
}
