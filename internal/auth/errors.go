package auth

import "errors"

var (
	// ErrNotFound covers lookups by key that find nothing, including users
	// hidden by soft-delete.
	ErrNotFound = errors.New("auth: not found")
	// ErrDuplicateIdentity is returned when a username or email is taken.
	ErrDuplicateIdentity = errors.New("auth: identity already exists")
	// ErrDuplicateName is returned on role or permission name collisions.
	ErrDuplicateName = errors.New("auth: name already exists")
	// ErrAlreadyGranted is returned on a duplicate grant insert. Callers
	// wanting idempotence catch and ignore it.
	ErrAlreadyGranted = errors.New("auth: already granted")
	// ErrAuthentication is the generic credential-resolution failure. It is
	// deliberately uninformative: callers cannot distinguish an unknown
	// session from an unknown user.
	ErrAuthentication = errors.New("auth: authentication failed")
	// ErrStorageUnavailable wraps transport-level store failures. Transactions
	// roll back fully before it is surfaced.
	ErrStorageUnavailable = errors.New("auth: storage unavailable")
	// ErrInvalidInput flags malformed arguments before they reach storage.
	ErrInvalidInput = errors.New("auth: invalid input")
)
