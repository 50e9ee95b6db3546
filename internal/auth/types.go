package auth

import "time"

// User is the principal identity record. PasswordHash is an opaque bcrypt
// value and is never serialized.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"first_name,omitempty"`
	LastName     string     `json:"last_name,omitempty"`
	Description  string     `json:"description,omitempty"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Deleted reports whether the user is soft-deleted.
func (u User) Deleted() bool { return u.DeletedAt != nil }

// Role is a named capability bundle.
type Role struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Permission is a named atomic capability.
type Permission struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserRole links a user to a role. The (user, role) pair is unique.
type UserRole struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	RoleID    string    `json:"role_id"`
	CreatedAt time.Time `json:"created_at"`
}

// RolePermission links a role to a permission. The (role, permission) pair is
// unique.
type RolePermission struct {
	ID           string    `json:"id"`
	RoleID       string    `json:"role_id"`
	PermissionID string    `json:"permission_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserPermission grants a permission to a user directly, bypassing roles.
// Purely additive; the (user, permission) pair is unique.
type UserPermission struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	PermissionID string    `json:"permission_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// Credential is an opaque-identifier-to-user mapping. Sessions and tokens
// share the shape; they differ only in expected holder and lifetime.
// Deleted on explicit revocation or when the owning user is hard-deleted.
type Credential struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Value     string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// ProfileUpdate carries optional profile field changes. Nil means unchanged.
type ProfileUpdate struct {
	Username    *string
	Email       *string
	FirstName   *string
	LastName    *string
	Description *string
}
