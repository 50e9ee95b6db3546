package auth

import (
	"errors"
	"testing"
)

func newAuthenticator(t *testing.T, f *fixture) *Authenticator {
	t.Helper()
	a, err := NewAuthenticator(f.store)
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}
	return a
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t)
	a := newAuthenticator(t, f)
	alice := f.user("alice")

	session, err := a.Sessions().Issue(f.ctx, alice.ID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if session.Value == "" {
		t.Fatalf("session value must be populated")
	}

	owner, err := a.Sessions().Resolve(f.ctx, session.Value)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if owner.ID != alice.ID {
		t.Fatalf("resolved wrong owner: %s", owner.ID)
	}

	if err := a.Sessions().Destroy(f.ctx, session.Value); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if _, err := a.Sessions().Resolve(f.ctx, session.Value); !errors.Is(err, ErrAuthentication) {
		t.Fatalf("destroyed session must fail resolution, got %v", err)
	}
}

func TestIssueRefusesInactiveUser(t *testing.T) {
	f := newFixture(t)
	a := newAuthenticator(t, f)
	alice := f.user("alice")

	if err := f.svc.DeactivateUser(f.ctx, alice.ID); err != nil {
		t.Fatalf("DeactivateUser: %v", err)
	}
	if _, err := a.Sessions().Issue(f.ctx, alice.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for deactivated owner, got %v", err)
	}
	if _, err := a.Tokens().Issue(f.ctx, "no-such-user"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown owner, got %v", err)
	}
}

func TestTokenRevocation(t *testing.T) {
	f := newFixture(t)
	a := newAuthenticator(t, f)
	alice := f.user("alice")

	first, err := a.Tokens().Issue(f.ctx, alice.ID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	second, err := a.Tokens().Issue(f.ctx, alice.ID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if first.Value == second.Value {
		t.Fatalf("token values must be distinct")
	}

	listed, err := a.Tokens().List(f.ctx, alice.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(listed))
	}

	if err := a.Tokens().RevokeAll(f.ctx, alice.ID); err != nil {
		t.Fatalf("RevokeAll: %v", err)
	}
	for _, value := range []string{first.Value, second.Value} {
		if _, err := a.Tokens().Resolve(f.ctx, value); !errors.Is(err, ErrAuthentication) {
			t.Fatalf("revoked token must fail resolution, got %v", err)
		}
	}
}

func TestCredentialKindsAreDisjoint(t *testing.T) {
	f := newFixture(t)
	a := newAuthenticator(t, f)
	alice := f.user("alice")

	session, err := a.Sessions().Issue(f.ctx, alice.ID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := a.Tokens().Resolve(f.ctx, session.Value); !errors.Is(err, ErrAuthentication) {
		t.Fatalf("session value must not resolve as token, got %v", err)
	}
}

func TestLoginByUsernameAndEmail(t *testing.T) {
	f := newFixture(t)
	a := newAuthenticator(t, f)
	alice := f.user("alice")
	editor := f.role("editor")
	write := f.permission("catalog.write")
	if _, err := f.svc.GrantRole(f.ctx, alice.ID, editor.ID); err != nil {
		t.Fatalf("GrantRole: %v", err)
	}
	if _, err := f.svc.GrantPermissionToRole(f.ctx, editor.ID, write.ID); err != nil {
		t.Fatalf("GrantPermissionToRole: %v", err)
	}

	session, principal, err := a.Login(f.ctx, "alice", "password")
	if err != nil {
		t.Fatalf("Login by username: %v", err)
	}
	if principal.User.ID != alice.ID {
		t.Fatalf("wrong principal: %s", principal.User.ID)
	}
	if !principal.HasPermission("catalog.write") {
		t.Fatalf("principal must carry resolved permissions")
	}

	if _, _, err := a.Login(f.ctx, "Alice@Example.com", "password"); err != nil {
		t.Fatalf("Login by email: %v", err)
	}

	if err := a.Logout(f.ctx, session.Value); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := a.Resolve(f.ctx, session.Value); !errors.Is(err, ErrAuthentication) {
		t.Fatalf("logged-out session must fail resolution, got %v", err)
	}
}

func TestLoginFailuresAreGeneric(t *testing.T) {
	f := newFixture(t)
	a := newAuthenticator(t, f)
	alice := f.user("alice")

	cases := []struct {
		name     string
		login    string
		password string
	}{
		{"unknown user", "mallory", "password"},
		{"wrong password", "alice", "nope"},
		{"empty login", "", "password"},
		{"empty password", "alice", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := a.Login(f.ctx, tc.login, tc.password); !errors.Is(err, ErrAuthentication) {
				t.Fatalf("expected ErrAuthentication, got %v", err)
			}
		})
	}

	// A deactivated account fails the same way as a wrong password.
	if err := f.svc.DeactivateUser(f.ctx, alice.ID); err != nil {
		t.Fatalf("DeactivateUser: %v", err)
	}
	if _, _, err := a.Login(f.ctx, "alice", "password"); !errors.Is(err, ErrAuthentication) {
		t.Fatalf("deactivated login: expected ErrAuthentication, got %v", err)
	}
}

func TestResolveTriesSessionsThenTokens(t *testing.T) {
	f := newFixture(t)
	a := newAuthenticator(t, f)
	alice := f.user("alice")

	token, err := a.Tokens().Issue(f.ctx, alice.ID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	principal, err := a.Resolve(f.ctx, token.Value)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if principal.User.ID != alice.ID {
		t.Fatalf("wrong principal: %s", principal.User.ID)
	}

	if _, err := a.Resolve(f.ctx, "bogus"); !errors.Is(err, ErrAuthentication) {
		t.Fatalf("unknown credential: expected ErrAuthentication, got %v", err)
	}
}

func TestLogoutUnknownSessionIsGeneric(t *testing.T) {
	f := newFixture(t)
	a := newAuthenticator(t, f)
	if err := a.Logout(f.ctx, "never-issued"); !errors.Is(err, ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
}
