package auth

import "context"

// Store describes persistence operations required by the access-control core.
// Implementations must enforce the pair-uniqueness invariants at the storage
// layer and run every cascading delete in a single transaction.
type Store interface {
	Users(ctx context.Context) UserStore
	Roles(ctx context.Context) RoleStore
	Permissions(ctx context.Context) PermissionStore
	Grants(ctx context.Context) GrantStore
	Sessions(ctx context.Context) CredentialStore
	Tokens(ctx context.Context) CredentialStore
}

// UserStore manages identity records.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SoftDelete(ctx context.Context, id string) error
	// Delete hard-deletes the user and cascades removal of every UserRole,
	// UserPermission, token and session referencing it, atomically.
	Delete(ctx context.Context, id string) error
}

// RoleStore manages the role registry.
type RoleStore interface {
	Create(ctx context.Context, role *Role) error
	Find(ctx context.Context, id string) (*Role, error)
	FindByName(ctx context.Context, name string) (*Role, error)
	List(ctx context.Context) ([]Role, error)
	Rename(ctx context.Context, id, name string) (*Role, error)
	// Delete removes the role and all its memberships and role-permission
	// grants in one transaction. Users and permissions are untouched.
	Delete(ctx context.Context, id string) error
}

// PermissionStore manages the permission registry.
type PermissionStore interface {
	Create(ctx context.Context, perm *Permission) error
	Find(ctx context.Context, id string) (*Permission, error)
	FindByName(ctx context.Context, name string) (*Permission, error)
	List(ctx context.Context) ([]Permission, error)
	Rename(ctx context.Context, id, name string) (*Permission, error)
	// Delete removes the permission and every grant referencing it in one
	// transaction.
	Delete(ctx context.Context, id string) error
	// Ensure inserts the given permissions if absent, by name.
	Ensure(ctx context.Context, perms []Permission) error
}

// GrantStore manages the three grant relations. Grant operations fail with
// ErrAlreadyGranted on duplicate pairs; revokes fail with ErrNotFound when
// the relation is absent.
type GrantStore interface {
	GrantRole(ctx context.Context, userID, roleID string) (UserRole, error)
	RevokeRole(ctx context.Context, userID, roleID string) error
	GrantPermissionToRole(ctx context.Context, roleID, permissionID string) (RolePermission, error)
	RevokePermissionFromRole(ctx context.Context, roleID, permissionID string) error
	GrantPermissionToUser(ctx context.Context, userID, permissionID string) (UserPermission, error)
	RevokePermissionFromUser(ctx context.Context, userID, permissionID string) error

	RolesForUser(ctx context.Context, userID string) ([]Role, error)
	PermissionsForRole(ctx context.Context, roleID string) ([]Permission, error)
	DirectPermissions(ctx context.Context, userID string) ([]Permission, error)
}

// CredentialStore maps opaque identifiers to users. Sessions and tokens use
// the same contract; the (user, value) pair is unique.
type CredentialStore interface {
	Create(ctx context.Context, cred *Credential) error
	// Resolve returns the owning user for a credential value. Unknown values
	// and soft-deleted owners both come back as ErrNotFound; callers above
	// translate to the generic authentication failure.
	Resolve(ctx context.Context, value string) (*User, error)
	Destroy(ctx context.Context, value string) error
	ListByUser(ctx context.Context, userID string) ([]Credential, error)
	DestroyAllForUser(ctx context.Context, userID string) error
}
