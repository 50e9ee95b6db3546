package auth

import (
	"context"
	"errors"
	"testing"
)

type fixture struct {
	t        *testing.T
	ctx      context.Context
	store    Store
	svc      *Service
	resolver *Resolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := NewMemoryStore()
	svc, err := NewService(store)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	resolver, err := NewResolver(store)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return &fixture{t: t, ctx: context.Background(), store: store, svc: svc, resolver: resolver}
}

func (f *fixture) user(username string) *User {
	f.t.Helper()
	u, err := f.svc.RegisterUser(f.ctx, username, username+"@example.com", "password")
	if err != nil {
		f.t.Fatalf("RegisterUser(%s): %v", username, err)
	}
	return u
}

func (f *fixture) role(name string) *Role {
	f.t.Helper()
	r, err := f.svc.CreateRole(f.ctx, name)
	if err != nil {
		f.t.Fatalf("CreateRole(%s): %v", name, err)
	}
	return r
}

func (f *fixture) permission(name string) *Permission {
	f.t.Helper()
	p, err := f.svc.CreatePermission(f.ctx, name, "")
	if err != nil {
		f.t.Fatalf("CreatePermission(%s): %v", name, err)
	}
	return p
}

func (f *fixture) has(userID, perm string) bool {
	f.t.Helper()
	ok, err := f.resolver.HasPermission(f.ctx, userID, perm)
	if err != nil {
		f.t.Fatalf("HasPermission(%s, %s): %v", userID, perm, err)
	}
	return ok
}

func TestResolverRoleMediatedGrant(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	editor := f.role("editor")
	write := f.permission("catalog.write")

	if _, err := f.svc.GrantRole(f.ctx, alice.ID, editor.ID); err != nil {
		t.Fatalf("GrantRole: %v", err)
	}
	if _, err := f.svc.GrantPermissionToRole(f.ctx, editor.ID, write.ID); err != nil {
		t.Fatalf("GrantPermissionToRole: %v", err)
	}

	if !f.has(alice.ID, "catalog.write") {
		t.Fatalf("expected catalog.write via editor role")
	}

	if err := f.svc.RevokeRole(f.ctx, alice.ID, editor.ID); err != nil {
		t.Fatalf("RevokeRole: %v", err)
	}
	if f.has(alice.ID, "catalog.write") {
		t.Fatalf("expected catalog.write revoked with the role")
	}
}

func TestResolverDirectGrantSurvivesUnrelatedRoleRevoke(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	write := f.permission("catalog.write")
	editor := f.role("editor")

	if _, err := f.svc.GrantPermissionToUser(f.ctx, alice.ID, write.ID); err != nil {
		t.Fatalf("GrantPermissionToUser: %v", err)
	}
	if !f.has(alice.ID, "catalog.write") {
		t.Fatalf("expected direct catalog.write grant")
	}

	// Revoking a role she does not hold fails and changes nothing.
	if err := f.svc.RevokeRole(f.ctx, alice.ID, editor.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !f.has(alice.ID, "catalog.write") {
		t.Fatalf("direct grant must survive unrelated revoke")
	}
}

func TestResolverRevokeRemovesOnlyUniqueContribution(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	editor := f.role("editor")
	publisher := f.role("publisher")
	write := f.permission("catalog.write")
	publish := f.permission("catalog.publish")

	for _, roleID := range []string{editor.ID, publisher.ID} {
		if _, err := f.svc.GrantRole(f.ctx, alice.ID, roleID); err != nil {
			t.Fatalf("GrantRole: %v", err)
		}
		if _, err := f.svc.GrantPermissionToRole(f.ctx, roleID, write.ID); err != nil {
			t.Fatalf("GrantPermissionToRole: %v", err)
		}
	}
	if _, err := f.svc.GrantPermissionToRole(f.ctx, publisher.ID, publish.ID); err != nil {
		t.Fatalf("GrantPermissionToRole: %v", err)
	}

	if err := f.svc.RevokeRole(f.ctx, alice.ID, publisher.ID); err != nil {
		t.Fatalf("RevokeRole: %v", err)
	}

	// catalog.write is still reachable through editor; catalog.publish was
	// contributed by publisher alone and must be gone.
	if !f.has(alice.ID, "catalog.write") {
		t.Fatalf("catalog.write still reachable via editor")
	}
	if f.has(alice.ID, "catalog.publish") {
		t.Fatalf("catalog.publish was uniquely contributed by publisher")
	}
}

func TestResolverUnionOfBothChannels(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	editor := f.role("editor")
	write := f.permission("catalog.write")
	manage := f.permission("users.manage")

	if _, err := f.svc.GrantRole(f.ctx, alice.ID, editor.ID); err != nil {
		t.Fatalf("GrantRole: %v", err)
	}
	if _, err := f.svc.GrantPermissionToRole(f.ctx, editor.ID, write.ID); err != nil {
		t.Fatalf("GrantPermissionToRole: %v", err)
	}
	if _, err := f.svc.GrantPermissionToUser(f.ctx, alice.ID, manage.ID); err != nil {
		t.Fatalf("GrantPermissionToUser: %v", err)
	}
	// Same permission through both channels must deduplicate.
	if _, err := f.svc.GrantPermissionToUser(f.ctx, alice.ID, write.ID); err != nil {
		t.Fatalf("GrantPermissionToUser: %v", err)
	}

	perms, err := f.resolver.EffectivePermissions(f.ctx, alice.ID)
	if err != nil {
		t.Fatalf("EffectivePermissions: %v", err)
	}
	want := []string{"catalog.write", "users.manage"}
	if len(perms) != len(want) {
		t.Fatalf("expected %v, got %v", want, perms)
	}
	for i, name := range want {
		if perms[i] != name {
			t.Fatalf("expected %v, got %v", want, perms)
		}
	}
}

func TestResolverUnknownPermissionIsFalse(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	if f.has(alice.ID, "catalog.write") {
		t.Fatalf("fresh user must hold no permissions")
	}
}

func TestResolverSoftDeletedUserNotFound(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	if err := f.svc.DeactivateUser(f.ctx, alice.ID); err != nil {
		t.Fatalf("DeactivateUser: %v", err)
	}
	if _, err := f.resolver.Principal(f.ctx, alice.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for soft-deleted user, got %v", err)
	}
}

func TestResolverDeletedRoleDropsDerivedPermissions(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	editor := f.role("editor")
	write := f.permission("catalog.write")

	if _, err := f.svc.GrantRole(f.ctx, alice.ID, editor.ID); err != nil {
		t.Fatalf("GrantRole: %v", err)
	}
	if _, err := f.svc.GrantPermissionToRole(f.ctx, editor.ID, write.ID); err != nil {
		t.Fatalf("GrantPermissionToRole: %v", err)
	}
	if err := f.svc.DeleteRole(f.ctx, editor.ID); err != nil {
		t.Fatalf("DeleteRole: %v", err)
	}

	// The role cascade removed memberships and role-permission grants but
	// left user and permission rows alone.
	if f.has(alice.ID, "catalog.write") {
		t.Fatalf("deleted role must not confer permissions")
	}
	if _, err := f.svc.GetUser(f.ctx, alice.ID); err != nil {
		t.Fatalf("user row must survive role deletion: %v", err)
	}
	if _, err := f.svc.GetPermission(f.ctx, write.ID); err != nil {
		t.Fatalf("permission row must survive role deletion: %v", err)
	}
}
