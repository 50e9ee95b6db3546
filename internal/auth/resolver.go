package auth

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Resolver computes the effective permission set for a user: the union of
// every permission reachable through held roles and every direct grant.
// Permissions are purely additive; there is no deny channel. Each call
// recomputes from current grant state — no caching.
type Resolver struct {
	store Store
}

// NewResolver constructs a Resolver.
func NewResolver(store Store) (*Resolver, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidInput)
	}
	return &Resolver{store: store}, nil
}

// Principal loads the user and its effective permission set. Soft-deleted
// users resolve to ErrNotFound.
func (r *Resolver) Principal(ctx context.Context, userID string) (Principal, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Principal{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	user, err := r.store.Users(ctx).Find(ctx, userID)
	if err != nil {
		return Principal{}, err
	}

	grants := r.store.Grants(ctx)
	set := make(map[string]struct{})

	roles, err := grants.RolesForUser(ctx, userID)
	if err != nil {
		return Principal{}, err
	}
	for _, role := range roles {
		perms, err := grants.PermissionsForRole(ctx, role.ID)
		if err != nil {
			return Principal{}, err
		}
		for _, p := range perms {
			set[p.Name] = struct{}{}
		}
	}

	direct, err := grants.DirectPermissions(ctx, userID)
	if err != nil {
		return Principal{}, err
	}
	for _, p := range direct {
		set[p.Name] = struct{}{}
	}

	return Principal{User: user, Permissions: set}, nil
}

// EffectivePermissions returns the sorted effective permission names.
func (r *Resolver) EffectivePermissions(ctx context.Context, userID string) ([]string, error) {
	principal, err := r.Principal(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(principal.Permissions))
	for name := range principal.Permissions {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// HasPermission reports whether the user currently holds the named
// permission, directly or through a role.
func (r *Resolver) HasPermission(ctx context.Context, userID, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, fmt.Errorf("%w: permission name is required", ErrInvalidInput)
	}
	principal, err := r.Principal(ctx, userID)
	if err != nil {
		return false, err
	}
	return principal.HasPermission(name), nil
}
