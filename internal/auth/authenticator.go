package auth

import (
	"context"
	"errors"
	"strings"
)

// Authenticator is the credential-resolution entry point used by the request
// layer: it accepts either a session identifier or a client token and yields
// the principal with resolved permissions. Failures are reported through the
// single generic ErrAuthentication so callers cannot probe which credential
// kind, user or state caused the miss.
type Authenticator struct {
	sessions *CredentialManager
	tokens   *CredentialManager
	resolver *Resolver
	store    Store
}

// NewAuthenticator wires both credential managers and the grant resolver
// over one store.
func NewAuthenticator(store Store) (*Authenticator, error) {
	sessions, err := NewSessionManager(store)
	if err != nil {
		return nil, err
	}
	tokens, err := NewTokenManager(store)
	if err != nil {
		return nil, err
	}
	resolver, err := NewResolver(store)
	if err != nil {
		return nil, err
	}
	return &Authenticator{sessions: sessions, tokens: tokens, resolver: resolver, store: store}, nil
}

// Sessions returns the session manager.
func (a *Authenticator) Sessions() *CredentialManager { return a.sessions }

// Tokens returns the token manager.
func (a *Authenticator) Tokens() *CredentialManager { return a.tokens }

// Resolver returns the grant resolver.
func (a *Authenticator) Resolver() *Resolver { return a.resolver }

// Login verifies a username-or-email plus password pair and opens a fresh
// session. Every failure mode collapses to ErrAuthentication; storage
// failures propagate as themselves.
func (a *Authenticator) Login(ctx context.Context, login, password string) (*Credential, Principal, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, Principal{}, ErrAuthentication
	}
	users := a.store.Users(ctx)
	user, err := users.FindByUsername(ctx, login)
	if errors.Is(err, ErrNotFound) && strings.Contains(login, "@") {
		user, err = users.FindByEmail(ctx, strings.ToLower(login))
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, Principal{}, ErrAuthentication
		}
		return nil, Principal{}, err
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, Principal{}, ErrAuthentication
	}
	session, err := a.sessions.Issue(ctx, user.ID)
	if err != nil {
		return nil, Principal{}, err
	}
	principal, err := a.resolver.Principal(ctx, user.ID)
	if err != nil {
		return nil, Principal{}, err
	}
	return session, principal, nil
}

// Logout destroys the presented session. Unknown sessions report the generic
// authentication failure rather than a distinct not-found.
func (a *Authenticator) Logout(ctx context.Context, sessionValue string) error {
	err := a.sessions.Destroy(ctx, sessionValue)
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidInput) {
		return ErrAuthentication
	}
	return err
}

// Resolve maps a presented credential — session identifier or token — to the
// principal on whose behalf the request runs. Session resolution is tried
// first; both lookups are read-only and may run concurrently with any other
// operation.
func (a *Authenticator) Resolve(ctx context.Context, credential string) (Principal, error) {
	user, err := a.sessions.Resolve(ctx, credential)
	if errors.Is(err, ErrAuthentication) {
		user, err = a.tokens.Resolve(ctx, credential)
	}
	if err != nil {
		return Principal{}, err
	}
	principal, err := a.resolver.Principal(ctx, user.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Principal{}, ErrAuthentication
		}
		return Principal{}, err
	}
	return principal, nil
}

/// HasPermission is the permission-query interface: it reports whether the
// user currently holds the named permission.
func (a *Authenticator) HasPermission(ctx context.Context, userID, permission string) (bool, error) {
	return a.resolver.HasPermission(ctx, userID, permission)
}
