package auth

import (
	"context"
	"fmt"
	"strings"
)

const maxIdentityLength = 255

// Service provides validated access-control operations over a Store. It owns
// input normalization; uniqueness and cascade rules live in the storage
// layer.
type Service struct {
	store Store
}

// NewService constructs a Service.
func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidInput)
	}
	return &Service{store: store}, nil
}

// EnsureBuiltins ensures predefined permissions exist.
func (s *Service) EnsureBuiltins(ctx context.Context) error {
	return s.store.Permissions(ctx).Ensure(ctx, BuiltinPermissions)
}

// --- Identity store -------------------------------------------------------

// RegisterUser creates a user with a freshly hashed credential secret.
func (s *Service) RegisterUser(ctx context.Context, username, email, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if strings.TrimSpace(password) == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &User{Username: username, Email: email, PasswordHash: hash}
	if err := s.store.Users(ctx).Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser looks up a user by id, skipping soft-deleted records.
func (s *Service) GetUser(ctx context.Context, userID string) (*User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.store.Users(ctx).Find(ctx, userID)
}

// GetUserByUsername looks up a user by username, skipping soft-deleted records.
func (s *Service) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	return s.store.Users(ctx).FindByUsername(ctx, username)
}

// GetUserByEmail looks up a user by email, skipping soft-deleted records.
func (s *Service) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	return s.store.Users(ctx).FindByEmail(ctx, email)
}

// UpdateProfile applies profile field changes.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if upd.Username != nil {
		trimmed := strings.TrimSpace(*upd.Username)
		if err := validateUsername(trimmed); err != nil {
			return nil, err
		}
		upd.Username = &trimmed
	}
	if upd.Email != nil {
		trimmed := strings.TrimSpace(strings.ToLower(*upd.Email))
		if err := validateEmail(trimmed); err != nil {
			return nil, err
		}
		upd.Email = &trimmed
	}
	return s.store.Users(ctx).UpdateProfile(ctx, userID, upd)
}

// ChangePassword rotates the credential secret after verifying the current
// one.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := VerifyPassword(user.PasswordHash, current); err != nil {
		return fmt.Errorf("%w: current password mismatch", ErrAuthentication)
	}
	return s.setPassword(ctx, user.ID, next)
}

// SetPassword rotates the credential secret without checking the old value.
// Administrative operation.
func (s *Service) SetPassword(ctx context.Context, userID, next string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.setPassword(ctx, userID, next)
}

func (s *Service) setPassword(ctx context.Context, userID, next string) error {
	if strings.TrimSpace(next) == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	return s.store.Users(ctx).UpdatePassword(ctx, userID, hash)
}

// DeactivateUser soft-deletes the user and revokes every active session and
// token. Soft-delete itself is a query-filter concern; credential revocation
// is the explicit workflow step, not a cascade.
func (s *Service) DeactivateUser(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if err := s.store.Users(ctx).SoftDelete(ctx, userID); err != nil {
		return err
	}
	if err := s.store.Sessions(ctx).DestroyAllForUser(ctx, userID); err != nil {
		return err
	}
	return s.store.Tokens(ctx).DestroyAllForUser(ctx, userID)
}

// DeleteUser hard-deletes the user. The storage layer cascades removal of
// memberships, direct grants, tokens and sessions in one transaction.
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.store.Users(ctx).Delete(ctx, userID)
}

// --- Role registry --------------------------------------------------------

// CreateRole registers a named role.
func (s *Service) CreateRole(ctx context.Context, name string) (*Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: role name is required", ErrInvalidInput)
	}
	role := &Role{Name: name}
	if err := s.store.Roles(ctx).Create(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

// GetRole looks up a role by id.
func (s *Service) GetRole(ctx context.Context, roleID string) (*Role, error) {
	roleID = strings.TrimSpace(roleID)
	if roleID == "" {
		return nil, fmt.Errorf("%w: role id is required", ErrInvalidInput)
	}
	return s.store.Roles(ctx).Find(ctx, roleID)
}

// GetRoleByName looks up a role by name.
func (s *Service) GetRoleByName(ctx context.Context, name string) (*Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: role name is required", ErrInvalidInput)
	}
	return s.store.Roles(ctx).FindByName(ctx, name)
}

// ListRoles lists all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.store.Roles(ctx).List(ctx)
}

// RenameRole renames a role.
func (s *Service) RenameRole(ctx context.Context, roleID, name string) (*Role, error) {
	roleID = strings.TrimSpace(roleID)
	name = strings.TrimSpace(name)
	if roleID == "" || name == "" {
		return nil, fmt.Errorf("%w: role id and name are required", ErrInvalidInput)
	}
	return s.store.Roles(ctx).Rename(ctx, roleID, name)
}

// DeleteRole deletes a role, cascading removal of its memberships and
// role-permission grants.
func (s *Service) DeleteRole(ctx context.Context, roleID string) error {
	roleID = strings.TrimSpace(roleID)
	if roleID == "" {
		return fmt.Errorf("%w: role id is required", ErrInvalidInput)
	}
	return s.store.Roles(ctx).Delete(ctx, roleID)
}

// --- Permission registry --------------------------------------------------

// CreatePermission registers a named permission.
func (s *Service) CreatePermission(ctx context.Context, name, description string) (*Permission, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: permission name is required", ErrInvalidInput)
	}
	perm := &Permission{Name: name, Description: strings.TrimSpace(description)}
	if err := s.store.Permissions(ctx).Create(ctx, perm); err != nil {
		return nil, err
	}
	return perm, nil
}

// GetPermission looks up a permission by id.
func (s *Service) GetPermission(ctx context.Context, permissionID string) (*Permission, error) {
	permissionID = strings.TrimSpace(permissionID)
	if permissionID == "" {
		return nil, fmt.Errorf("%w: permission id is required", ErrInvalidInput)
	}
	return s.store.Permissions(ctx).Find(ctx, permissionID)
}

// GetPermissionByName looks up a permission by name.
func (s *Service) GetPermissionByName(ctx context.Context, name string) (*Permission, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: permission name is required", ErrInvalidInput)
	}
	return s.store.Permissions(ctx).FindByName(ctx, name)
}

// ListPermissions lists all permissions.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.store.Permissions(ctx).List(ctx)
}

// RenamePermission renames a permission.
func (s *Service) RenamePermission(ctx context.Context, permissionID, name string) (*Permission, error) {
	permissionID = strings.TrimSpace(permissionID)
	name = strings.TrimSpace(name)
	if permissionID == "" || name == "" {
		return nil, fmt.Errorf("%w: permission id and name are required", ErrInvalidInput)
	}
	return s.store.Permissions(ctx).Rename(ctx, permissionID, name)
}

// DeletePermission deletes a permission, cascading removal of every grant
// referencing it.
func (s *Service) DeletePermission(ctx context.Context, permissionID string) error {
	permissionID = strings.TrimSpace(permissionID)
	if permissionID == "" {
		return fmt.Errorf("%w: permission id is required", ErrInvalidInput)
	}
	return s.store.Permissions(ctx).Delete(ctx, permissionID)
}

// --- Grant graph ----------------------------------------------------------

// GrantRole adds a role membership. Fails with ErrAlreadyGranted if the pair
// exists.
func (s *Service) GrantRole(ctx context.Context, userID, roleID string) (UserRole, error) {
	userID = strings.TrimSpace(userID)
	roleID = strings.TrimSpace(roleID)
	if userID == "" || roleID == "" {
		return UserRole{}, fmt.Errorf("%w: user id and role id are required", ErrInvalidInput)
	}
	return s.store.Grants(ctx).GrantRole(ctx, userID, roleID)
}

// RevokeRole removes a role membership. Fails with ErrNotFound if absent.
func (s *Service) RevokeRole(ctx context.Context, userID, roleID string) error {
	userID = strings.TrimSpace(userID)
	roleID = strings.TrimSpace(roleID)
	if userID == "" || roleID == "" {
		return fmt.Errorf("%w: user id and role id are required", ErrInvalidInput)
	}
	return s.store.Grants(ctx).RevokeRole(ctx, userID, roleID)
}

// GrantPermissionToRole attaches a permission to a role.
func (s *Service) GrantPermissionToRole(ctx context.Context, roleID, permissionID string) (RolePermission, error) {
	roleID = strings.TrimSpace(roleID)
	permissionID = strings.TrimSpace(permissionID)
	if roleID == "" || permissionID == "" {
		return RolePermission{}, fmt.Errorf("%w: role id and permission id are required", ErrInvalidInput)
	}
	return s.store.Grants(ctx).GrantPermissionToRole(ctx, roleID, permissionID)
}

// RevokePermissionFromRole detaches a permission from a role.
func (s *Service) RevokePermissionFromRole(ctx context.Context, roleID, permissionID string) error {
	roleID = strings.TrimSpace(roleID)
	permissionID = strings.TrimSpace(permissionID)
	if roleID == "" || permissionID == "" {
		return fmt.Errorf("%w: role id and permission id are required", ErrInvalidInput)
	}
	return s.store.Grants(ctx).RevokePermissionFromRole(ctx, roleID, permissionID)
}

// GrantPermissionToUser grants a permission directly, bypassing roles.
func (s *Service) GrantPermissionToUser(ctx context.Context, userID, permissionID string) (UserPermission, error) {
	userID = strings.TrimSpace(userID)
	permissionID = strings.TrimSpace(permissionID)
	if userID == "" || permissionID == "" {
		return UserPermission{}, fmt.Errorf("%w: user id and permission id are required", ErrInvalidInput)
	}
	return s.store.Grants(ctx).GrantPermissionToUser(ctx, userID, permissionID)
}

// RevokePermissionFromUser removes a direct grant.
func (s *Service) RevokePermissionFromUser(ctx context.Context, userID, permissionID string) error {
	userID = strings.TrimSpace(userID)
	permissionID = strings.TrimSpace(permissionID)
	if userID == "" || permissionID == "" {
		return fmt.Errorf("%w: user id and permission id are required", ErrInvalidInput)
	}
	return s.store.Grants(ctx).RevokePermissionFromUser(ctx, userID, permissionID)
}

// ListRolesForUser lists the roles a user currently holds.
func (s *Service) ListRolesForUser(ctx context.Context, userID string) ([]Role, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.store.Grants(ctx).RolesForUser(ctx, userID)
}

// ListPermissionsForRole lists the permissions attached to a role.
func (s *Service) ListPermissionsForRole(ctx context.Context, roleID string) ([]Permission, error) {
	roleID = strings.TrimSpace(roleID)
	if roleID == "" {
		return nil, fmt.Errorf("%w: role id is required", ErrInvalidInput)
	}
	return s.store.Grants(ctx).PermissionsForRole(ctx, roleID)
}

// --- validation helpers ---------------------------------------------------

func validateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if len(username) > maxIdentityLength {
		return fmt.Errorf("%w: username must be at most %d characters", ErrInvalidInput, maxIdentityLength)
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if len(email) > maxIdentityLength {
		return fmt.Errorf("%w: email must be at most %d characters", ErrInvalidInput, maxIdentityLength)
	}
	return nil
}
