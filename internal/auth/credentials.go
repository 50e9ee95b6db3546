package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"waxline.org/internal/ids"
)

// CredentialKind distinguishes the two credential managers. Sessions are
// short-lived and server-issued; tokens are long-lived and held by automated
// clients. The contract is otherwise identical.
type CredentialKind int

const (
	CredentialSession CredentialKind = iota
	CredentialToken
)

func (k CredentialKind) String() string {
	if k == CredentialToken {
		return "token"
	}
	return "session"
}

// CredentialManager maps opaque identifiers to user identities for one
// credential kind. Lifetimes are revocation-based: a credential lives until
// explicitly destroyed or until its owner is hard-deleted.
type CredentialManager struct {
	store Store
	kind  CredentialKind
}

// NewSessionManager constructs the manager for login sessions.
func NewSessionManager(store Store) (*CredentialManager, error) {
	return newCredentialManager(store, CredentialSession)
}

// NewTokenManager constructs the manager for long-lived client tokens.
func NewTokenManager(store Store) (*CredentialManager, error) {
	return newCredentialManager(store, CredentialToken)
}

func newCredentialManager(store Store, kind CredentialKind) (*CredentialManager, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidInput)
	}
	return &CredentialManager{store: store, kind: kind}, nil
}

func (m *CredentialManager) creds(ctx context.Context) CredentialStore {
	if m.kind == CredentialToken {
		return m.store.Tokens(ctx)
	}
	return m.store.Sessions(ctx)
}

// Kind returns the managed credential kind.
func (m *CredentialManager) Kind() CredentialKind { return m.kind }

// Issue generates a fresh opaque identifier for the user and stores the
// mapping. The owner must exist and not be soft-deleted.
func (m *CredentialManager) Issue(ctx context.Context, userID string) (*Credential, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	user, err := m.store.Users(ctx).Find(ctx, userID)
	if err != nil {
		return nil, err
	}
	value, err := ids.Opaque()
	if err != nil {
		return nil, fmt.Errorf("generate %s identifier: %w", m.kind, err)
	}
	cred := &Credential{UserID: user.ID, Value: value}
	if err := m.creds(ctx).Create(ctx, cred); err != nil {
		return nil, err
	}
	return cred, nil
}

// Resolve maps a presented identifier back to its owner. Unknown identifiers
// and identifiers owned by soft-deleted users fail identically.
func (m *CredentialManager) Resolve(ctx context.Context, value string) (*User, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, ErrAuthentication
	}
	user, err := m.creds(ctx).Resolve(ctx, value)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrAuthentication
		}
		return nil, err
	}
	return user, nil
}

// Destroy revokes a credential by value.
func (m *CredentialManager) Destroy(ctx context.Context, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("%w: credential value is required", ErrInvalidInput)
	}
	return m.creds(ctx).Destroy(ctx, value)
}

// List returns the user's active credentials of this kind.
func (m *CredentialManager) List(ctx context.Context, userID string) ([]Credential, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return m.creds(ctx).ListByUser(ctx, userID)
}

// RevokeAll destroys every credential of this kind held by the user.
func (m *CredentialManager) RevokeAll(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return m.creds(ctx).DestroyAllForUser(ctx, userID)
}
