package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestRegisterUserValidation(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{"empty username", "", "a@example.com", "pw"},
		{"long username", strings.Repeat("a", 256), "a@example.com", "pw"},
		{"empty email", "alice", "", "pw"},
		{"email without at", "alice", "not-an-email", "pw"},
		{"long email", "alice", strings.Repeat("a", 250) + "@example.com", "pw"},
		{"empty password", "alice", "a@example.com", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.RegisterUser(f.ctx, tc.username, tc.email, tc.password); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestRegisterUserNormalizesAndHashes(t *testing.T) {
	f := newFixture(t)
	u, err := f.svc.RegisterUser(f.ctx, "  alice  ", "  Alice@Example.COM ", "secret")
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if u.Username != "alice" || u.Email != "alice@example.com" {
		t.Fatalf("normalization failed: %q %q", u.Username, u.Email)
	}
	if u.PasswordHash == "secret" || u.PasswordHash == "" {
		t.Fatalf("password must be stored hashed")
	}
	if err := VerifyPassword(u.PasswordHash, "secret"); err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
}

func TestRegisterUserDuplicateIdentity(t *testing.T) {
	f := newFixture(t)
	f.user("alice")
	if _, err := f.svc.RegisterUser(f.ctx, "alice", "other@example.com", "pw"); !errors.Is(err, ErrDuplicateIdentity) {
		t.Fatalf("duplicate username: expected ErrDuplicateIdentity, got %v", err)
	}
	if _, err := f.svc.RegisterUser(f.ctx, "bob", "alice@example.com", "pw"); !errors.Is(err, ErrDuplicateIdentity) {
		t.Fatalf("duplicate email: expected ErrDuplicateIdentity, got %v", err)
	}
}

func TestLookupsSkipSoftDeleted(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	if err := f.svc.DeactivateUser(f.ctx, alice.ID); err != nil {
		t.Fatalf("DeactivateUser: %v", err)
	}
	if _, err := f.svc.GetUser(f.ctx, alice.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetUser: expected ErrNotFound, got %v", err)
	}
	if _, err := f.svc.GetUserByUsername(f.ctx, "alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetUserByUsername: expected ErrNotFound, got %v", err)
	}
	if _, err := f.svc.GetUserByEmail(f.ctx, "alice@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetUserByEmail: expected ErrNotFound, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")

	if err := f.svc.ChangePassword(f.ctx, alice.ID, "wrong", "next"); !errors.Is(err, ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication for bad current password, got %v", err)
	}
	if err := f.svc.ChangePassword(f.ctx, alice.ID, "password", "next"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	updated, err := f.store.Users(f.ctx).Find(f.ctx, alice.ID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if err := VerifyPassword(updated.PasswordHash, "next"); err != nil {
		t.Fatalf("rotated hash does not match new password: %v", err)
	}
}

func TestGrantRoleDuplicateFailsAndCountStaysOne(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	editor := f.role("editor")

	if _, err := f.svc.GrantRole(f.ctx, alice.ID, editor.ID); err != nil {
		t.Fatalf("GrantRole: %v", err)
	}
	if _, err := f.svc.GrantRole(f.ctx, alice.ID, editor.ID); !errors.Is(err, ErrAlreadyGranted) {
		t.Fatalf("expected ErrAlreadyGranted, got %v", err)
	}
	roles, err := f.svc.ListRolesForUser(f.ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListRolesForUser: %v", err)
	}
	if len(roles) != 1 {
		t.Fatalf("expected exactly one membership, got %d", len(roles))
	}
}

func TestGrantsAgainstMissingEndpoints(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	write := f.permission("catalog.write")

	if _, err := f.svc.GrantRole(f.ctx, alice.ID, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing role: expected ErrNotFound, got %v", err)
	}
	if _, err := f.svc.GrantPermissionToUser(f.ctx, "missing", write.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing user: expected ErrNotFound, got %v", err)
	}
	if err := f.svc.RevokePermissionFromUser(f.ctx, alice.ID, write.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("revoking absent grant: expected ErrNotFound, got %v", err)
	}
}

func TestRegistriesRejectDuplicateNames(t *testing.T) {
	f := newFixture(t)
	f.role("editor")
	other := f.role("viewer")

	if _, err := f.svc.CreateRole(f.ctx, "editor"); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
	if _, err := f.svc.RenameRole(f.ctx, other.ID, "editor"); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("rename collision: expected ErrDuplicateName, got %v", err)
	}

	f.permission("catalog.write")
	if _, err := f.svc.CreatePermission(f.ctx, "catalog.write", ""); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
}

func TestDeletePermissionCascadesGrants(t *testing.T) {
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
	if _, err := f.svc.GrantPermissionToUser(f.ctx, alice.ID, write.ID); err != nil {
		t.Fatalf("GrantPermissionToUser: %v", err)
	}

	if err := f.svc.DeletePermission(f.ctx, write.ID); err != nil {
		t.Fatalf("DeletePermission: %v", err)
	}
	if f.has(alice.ID, "catalog.write") {
		t.Fatalf("deleted permission must not be resolvable")
	}
	// Membership is untouched by a permission delete.
	roles, err := f.svc.ListRolesForUser(f.ctx, alice.ID)
	if err != nil || len(roles) != 1 {
		t.Fatalf("membership should survive, roles=%v err=%v", roles, err)
	}
}

func TestDeleteUserCascadesEverything(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	editor := f.role("editor")
	write := f.permission("catalog.write")

	if _, err := f.svc.GrantRole(f.ctx, alice.ID, editor.ID); err != nil {
		t.Fatalf("GrantRole: %v", err)
	}
	if _, err := f.svc.GrantPermissionToUser(f.ctx, alice.ID, write.ID); err != nil {
		t.Fatalf("GrantPermissionToUser: %v", err)
	}
	sessions, err := NewSessionManager(f.store)
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	tokens, err := NewTokenManager(f.store)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	session, err := sessions.Issue(f.ctx, alice.ID)
	if err != nil {
		t.Fatalf("Issue session: %v", err)
	}
	token, err := tokens.Issue(f.ctx, alice.ID)
	if err != nil {
		t.Fatalf("Issue token: %v", err)
	}

	if err := f.svc.DeleteUser(f.ctx, alice.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	if _, err := sessions.Resolve(f.ctx, session.Value); !errors.Is(err, ErrAuthentication) {
		t.Fatalf("session must be cascaded, got %v", err)
	}
	if _, err := tokens.Resolve(f.ctx, token.Value); !errors.Is(err, ErrAuthentication) {
		t.Fatalf("token must be cascaded, got %v", err)
	}
	// Recreating the identity under the same id must start from a clean
	// grant slate; stale membership rows would surface as AlreadyGranted.
	revived := &User{ID: alice.ID, Username: "alice", Email: "alice@example.com", PasswordHash: "x"}
	if err := f.store.Users(f.ctx).Create(f.ctx, revived); err != nil {
		t.Fatalf("recreate user: %v", err)
	}
	if _, err := f.svc.GrantRole(f.ctx, alice.ID, editor.ID); err != nil {
		t.Fatalf("grant after cascade must succeed: %v", err)
	}
	if _, err := f.svc.GrantPermissionToUser(f.ctx, alice.ID, write.ID); err != nil {
		t.Fatalf("direct grant after cascade must succeed: %v", err)
	}
	// Role and permission rows survive.
	if _, err := f.svc.GetRole(f.ctx, editor.ID); err != nil {
		t.Fatalf("role must survive user deletion: %v", err)
	}
	if _, err := f.svc.GetPermission(f.ctx, write.ID); err != nil {
		t.Fatalf("permission must survive user deletion: %v", err)
	}
}

func TestEnsureBuiltinsIsIdempotent(t *testing.T) {
	f := newFixture(t)
	if err := f.svc.EnsureBuiltins(f.ctx); err != nil {
		t.Fatalf("EnsureBuiltins: %v", err)
	}
	if err := f.svc.EnsureBuiltins(f.ctx); err != nil {
		t.Fatalf("EnsureBuiltins second run: %v", err)
	}
	perms, err := f.svc.ListPermissions(f.ctx)
	if err != nil {
		t.Fatalf("ListPermissions: %v", err)
	}
	if len(perms) != len(BuiltinPermissions) {
		t.Fatalf("expected %d builtins, got %d", len(BuiltinPermissions), len(perms))
	}
}

func TestListingsAreNameOrdered(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"zine", "archive", "mastering"} {
		if _, err := f.svc.CreateRole(f.ctx, name); err != nil {
			t.Fatalf("CreateRole %s: %v", name, err)
		}
		if _, err := f.svc.CreatePermission(f.ctx, name+".use", ""); err != nil {
			t.Fatalf("CreatePermission %s: %v", name, err)
		}
	}

	roles, err := f.svc.ListRoles(f.ctx)
	if err != nil {
		t.Fatalf("ListRoles: %v", err)
	}
	for i := 1; i < len(roles); i++ {
		if roles[i-1].Name > roles[i].Name {
			t.Fatalf("roles not ordered by name: %q before %q", roles[i-1].Name, roles[i].Name)
		}
	}

	perms, err := f.svc.ListPermissions(f.ctx)
	if err != nil {
		t.Fatalf("ListPermissions: %v", err)
	}
	for i := 1; i < len(perms); i++ {
		if perms[i-1].Name > perms[i].Name {
			t.Fatalf("permissions not ordered by name: %q before %q", perms[i-1].Name, perms[i].Name)
		}
	}
}
