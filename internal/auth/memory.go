package auth

import (
	"context"
	"sort"
	"sync"
	"time"

	"waxline.org/internal/ids"
)

// memoryStore is an in-memory Store enforcing the same uniqueness and
// cascade rules as the Postgres implementation. Used by tests and by the
// server when no database DSN is configured.
type memoryStore struct {
	mu        sync.Mutex
	users     map[string]*User
	roles     map[string]*Role
	perms     map[string]*Permission
	userRoles []UserRole
	rolePerms []RolePermission
	userPerms []UserPermission
	sessions  []Credential
	tokens    []Credential
}

// NewMemoryStore constructs an empty in-memory Store.
func NewMemoryStore() Store {
	return &memoryStore{
		users: make(map[string]*User),
		roles: make(map[string]*Role),
		perms: make(map[string]*Permission),
	}
}

func (s *memoryStore) Users(context.Context) UserStore             { return memUsers{s} }
func (s *memoryStore) Roles(context.Context) RoleStore             { return memRoles{s} }
func (s *memoryStore) Permissions(context.Context) PermissionStore { return memPerms{s} }
func (s *memoryStore) Grants(context.Context) GrantStore           { return memGrants{s} }
func (s *memoryStore) Sessions(context.Context) CredentialStore    { return memCreds{s, CredentialSession} }
func (s *memoryStore) Tokens(context.Context) CredentialStore      { return memCreds{s, CredentialToken} }

type memUsers struct{ s *memoryStore }

func (m memUsers) Create(_ context.Context, u *User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return ErrDuplicateIdentity
		}
	}
	if u.ID == "" {
		u.ID = ids.New()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	clone := *u
	m.s.users[u.ID] = &clone
	return nil
}

func (m memUsers) Find(_ context.Context, id string) (*User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[id]
	if !ok || u.Deleted() {
		return nil, ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (m memUsers) FindByUsername(_ context.Context, username string) (*User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, u := range m.s.users {
		if u.Username == username && !u.Deleted() {
			clone := *u
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (m memUsers) FindByEmail(_ context.Context, email string) (*User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, u := range m.s.users {
		if u.Email == email && !u.Deleted() {
			clone := *u
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (m memUsers) UpdateProfile(_ context.Context, id string, upd ProfileUpdate) (*User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[id]
	if !ok || u.Deleted() {
		return nil, ErrNotFound
	}
	for _, other := range m.s.users {
		if other.ID == id {
			continue
		}
		if upd.Username != nil && other.Username == *upd.Username {
			return nil, ErrDuplicateIdentity
		}
		if upd.Email != nil && other.Email == *upd.Email {
			return nil, ErrDuplicateIdentity
		}
	}
	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.Description != nil {
		u.Description = *upd.Description
	}
	u.UpdatedAt = time.Now().UTC()
	clone := *u
	return &clone, nil
}

func (m memUsers) UpdatePassword(_ context.Context, id, passwordHash string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[id]
	if !ok || u.Deleted() {
		return ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (m memUsers) SoftDelete(_ context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[id]
	if !ok || u.Deleted() {
		return ErrNotFound
	}
	now := time.Now().UTC()
	u.DeletedAt = &now
	return nil
}

func (m memUsers) Delete(_ context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.s.users, id)
	m.s.userRoles = filterUserRoles(m.s.userRoles, func(g UserRole) bool { return g.UserID != id })
	m.s.userPerms = filterUserPerms(m.s.userPerms, func(g UserPermission) bool { return g.UserID != id })
	m.s.sessions = filterCreds(m.s.sessions, func(c Credential) bool { return c.UserID != id })
	m.s.tokens = filterCreds(m.s.tokens, func(c Credential) bool { return c.UserID != id })
	return nil
}

type memRoles struct{ s *memoryStore }

func (m memRoles) Create(_ context.Context, role *Role) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, r := range m.s.roles {
		if r.Name == role.Name {
			return ErrDuplicateName
		}
	}
	if role.ID == "" {
		role.ID = ids.New()
	}
	now := time.Now().UTC()
	role.CreatedAt, role.UpdatedAt = now, now
	clone := *role
	m.s.roles[role.ID] = &clone
	return nil
}

func (m memRoles) Find(_ context.Context, id string) (*Role, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	r, ok := m.s.roles[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *r
	return &clone, nil
}

func (m memRoles) FindByName(_ context.Context, name string) (*Role, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, r := range m.s.roles {
		if r.Name == name {
			clone := *r
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (m memRoles) List(_ context.Context) ([]Role, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []Role
	for _, r := range m.s.roles {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m memRoles) Rename(_ context.Context, id, name string) (*Role, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	r, ok := m.s.roles[id]
	if !ok {
		return nil, ErrNotFound
	}
	for _, other := range m.s.roles {
		if other.ID != id && other.Name == name {
			return nil, ErrDuplicateName
		}
	}
	r.Name = name
	r.UpdatedAt = time.Now().UTC()
	clone := *r
	return &clone, nil
}

func (m memRoles) Delete(_ context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.roles[id]; !ok {
		return ErrNotFound
	}
	delete(m.s.roles, id)
	m.s.userRoles = filterUserRoles(m.s.userRoles, func(g UserRole) bool { return g.RoleID != id })
	m.s.rolePerms = filterRolePerms(m.s.rolePerms, func(g RolePermission) bool { return g.RoleID != id })
	return nil
}

type memPerms struct{ s *memoryStore }

func (m memPerms) Create(_ context.Context, perm *Permission) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, p := range m.s.perms {
		if p.Name == perm.Name {
			return ErrDuplicateName
		}
	}
	if perm.ID == "" {
		perm.ID = ids.New()
	}
	perm.CreatedAt = time.Now().UTC()
	clone := *perm
	m.s.perms[perm.ID] = &clone
	return nil
}

func (m memPerms) Find(_ context.Context, id string) (*Permission, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.perms[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (m memPerms) FindByName(_ context.Context, name string) (*Permission, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, p := range m.s.perms {
		if p.Name == name {
			clone := *p
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (m memPerms) List(_ context.Context) ([]Permission, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []Permission
	for _, p := range m.s.perms {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m memPerms) Rename(_ context.Context, id, name string) (*Permission, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.perms[id]
	if !ok {
		return nil, ErrNotFound
	}
	for _, other := range m.s.perms {
		if other.ID != id && other.Name == name {
			return nil, ErrDuplicateName
		}
	}
	p.Name = name
	clone := *p
	return &clone, nil
}

func (m memPerms) Delete(_ context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.perms[id]; !ok {
		return ErrNotFound
	}
	delete(m.s.perms, id)
	m.s.rolePerms = filterRolePerms(m.s.rolePerms, func(g RolePermission) bool { return g.PermissionID != id })
	m.s.userPerms = filterUserPerms(m.s.userPerms, func(g UserPermission) bool { return g.PermissionID != id })
	return nil
}

func (m memPerms) Ensure(ctx context.Context, perms []Permission) error {
	for _, p := range perms {
		perm := p
		if _, err := m.FindByName(ctx, perm.Name); err == nil {
			continue
		}
		if err := m.Create(ctx, &perm); err != nil {
			return err
		}
	}
	return nil
}

type memGrants struct{ s *memoryStore }

func (m memGrants) GrantRole(_ context.Context, userID, roleID string) (UserRole, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.users[userID]; !ok {
		return UserRole{}, ErrNotFound
	}
	if _, ok := m.s.roles[roleID]; !ok {
		return UserRole{}, ErrNotFound
	}
	for _, g := range m.s.userRoles {
		if g.UserID == userID && g.RoleID == roleID {
			return UserRole{}, ErrAlreadyGranted
		}
	}
	grant := UserRole{ID: ids.New(), UserID: userID, RoleID: roleID, CreatedAt: time.Now().UTC()}
	m.s.userRoles = append(m.s.userRoles, grant)
	return grant, nil
}

func (m memGrants) RevokeRole(_ context.Context, userID, roleID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	before := len(m.s.userRoles)
	m.s.userRoles = filterUserRoles(m.s.userRoles, func(g UserRole) bool {
		return !(g.UserID == userID && g.RoleID == roleID)
	})
	if len(m.s.userRoles) == before {
		return ErrNotFound
	}
	return nil
}

func (m memGrants) GrantPermissionToRole(_ context.Context, roleID, permissionID string) (RolePermission, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.roles[roleID]; !ok {
		return RolePermission{}, ErrNotFound
	}
	if _, ok := m.s.perms[permissionID]; !ok {
		return RolePermission{}, ErrNotFound
	}
	for _, g := range m.s.rolePerms {
		if g.RoleID == roleID && g.PermissionID == permissionID {
			return RolePermission{}, ErrAlreadyGranted
		}
	}
	grant := RolePermission{ID: ids.New(), RoleID: roleID, PermissionID: permissionID, CreatedAt: time.Now().UTC()}
	m.s.rolePerms = append(m.s.rolePerms, grant)
	return grant, nil
}

func (m memGrants) RevokePermissionFromRole(_ context.Context, roleID, permissionID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	before := len(m.s.rolePerms)
	m.s.rolePerms = filterRolePerms(m.s.rolePerms, func(g RolePermission) bool {
		return !(g.RoleID == roleID && g.PermissionID == permissionID)
	})
	if len(m.s.rolePerms) == before {
		return ErrNotFound
	}
	return nil
}

func (m memGrants) GrantPermissionToUser(_ context.Context, userID, permissionID string) (UserPermission, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.users[userID]; !ok {
		return UserPermission{}, ErrNotFound
	}
	if _, ok := m.s.perms[permissionID]; !ok {
		return UserPermission{}, ErrNotFound
	}
	for _, g := range m.s.userPerms {
		if g.UserID == userID && g.PermissionID == permissionID {
			return UserPermission{}, ErrAlreadyGranted
		}
	}
	grant := UserPermission{ID: ids.New(), UserID: userID, PermissionID: permissionID, CreatedAt: time.Now().UTC()}
	m.s.userPerms = append(m.s.userPerms, grant)
	return grant, nil
}

func (m memGrants) RevokePermissionFromUser(_ context.Context, userID, permissionID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	before := len(m.s.userPerms)
	m.s.userPerms = filterUserPerms(m.s.userPerms, func(g UserPermission) bool {
		return !(g.UserID == userID && g.PermissionID == permissionID)
	})
	if len(m.s.userPerms) == before {
		return ErrNotFound
	}
	return nil
}

func (m memGrants) RolesForUser(_ context.Context, userID string) ([]Role, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []Role
	for _, g := range m.s.userRoles {
		if g.UserID != userID {
			continue
		}
		if r, ok := m.s.roles[g.RoleID]; ok {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m memGrants) PermissionsForRole(_ context.Context, roleID string) ([]Permission, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []Permission
	for _, g := range m.s.rolePerms {
		if g.RoleID != roleID {
			continue
		}
		if p, ok := m.s.perms[g.PermissionID]; ok {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m memGrants) DirectPermissions(_ context.Context, userID string) ([]Permission, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []Permission
	for _, g := range m.s.userPerms {
		if g.UserID != userID {
			continue
		}
		if p, ok := m.s.perms[g.PermissionID]; ok {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type memCreds struct {
	s    *memoryStore
	kind CredentialKind
}

func (m memCreds) bucket() *[]Credential {
	if m.kind == CredentialToken {
		return &m.s.tokens
	}
	return &m.s.sessions
}

func (m memCreds) Create(_ context.Context, cred *Credential) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.users[cred.UserID]; !ok {
		return ErrNotFound
	}
	for _, c := range *m.bucket() {
		if c.UserID == cred.UserID && c.Value == cred.Value {
			return ErrAlreadyGranted
		}
	}
	if cred.ID == "" {
		cred.ID = ids.New()
	}
	cred.CreatedAt = time.Now().UTC()
	*m.bucket() = append(*m.bucket(), *cred)
	return nil
}

func (m memCreds) Resolve(_ context.Context, value string) (*User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, c := range *m.bucket() {
		if c.Value != value {
			continue
		}
		u, ok := m.s.users[c.UserID]
		if !ok || u.Deleted() {
			return nil, ErrNotFound
		}
		clone := *u
		return &clone, nil
	}
	return nil, ErrNotFound
}

func (m memCreds) Destroy(_ context.Context, value string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	before := len(*m.bucket())
	*m.bucket() = filterCreds(*m.bucket(), func(c Credential) bool { return c.Value != value })
	if len(*m.bucket()) == before {
		return ErrNotFound
	}
	return nil
}

func (m memCreds) ListByUser(_ context.Context, userID string) ([]Credential, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []Credential
	for _, c := range *m.bucket() {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m memCreds) DestroyAllForUser(_ context.Context, userID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	*m.bucket() = filterCreds(*m.bucket(), func(c Credential) bool { return c.UserID != userID })
	return nil
}

func filterUserRoles(in []UserRole, keep func(UserRole) bool) []UserRole {
	out := in[:0]
	for _, g := range in {
		if keep(g) {
			out = append(out, g)
		}
	}
	return out
}

func filterRolePerms(in []RolePermission, keep func(RolePermission) bool) []RolePermission {
	out := in[:0]
	for _, g := range in {
		if keep(g) {
			out = append(out, g)
		}
	}
	return out
}

func filterUserPerms(in []UserPermission, keep func(UserPermission) bool) []UserPermission {
	out := in[:0]
	for _, g := range in {
		if keep(g) {
			out = append(out, g)
		}
	}
	return out
}

func filterCreds(in []Credential, keep func(Credential) bool) []Credential {
	out := in[:0]
	for _, c := range in {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}
