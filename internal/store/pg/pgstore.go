package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"waxline.org/internal/auth"
	"waxline.org/internal/catalog"
)

const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
)

// Store is the Postgres-backed implementation of both the access-control
// store and the catalog store.
type Store struct {
	db *sql.DB
}

var (
	_ auth.Store    = (*Store)(nil)
	_ catalog.Store = (*Store)(nil)
)

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewStore wraps an existing connection pool. Used by tests.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", auth.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *Store) Users(context.Context) auth.UserStore             { return userStore{s.db} }
func (s *Store) Roles(context.Context) auth.RoleStore             { return roleStore{s.db} }
func (s *Store) Permissions(context.Context) auth.PermissionStore { return permStore{s.db} }
func (s *Store) Grants(context.Context) auth.GrantStore           { return grantStore{s.db} }

func (s *Store) Sessions(context.Context) auth.CredentialStore {
	return credStore{db: s.db, table: "user_sessions"}
}

func (s *Store) Tokens(context.Context) auth.CredentialStore {
	return credStore{db: s.db, table: "user_tokens"}
}

// --- helpers ---

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// storageErr wraps driver and connection failures so callers can match the
// storage-unavailable kind. Domain sentinels pass through untouched.
func storageErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, auth.ErrNotFound),
		errors.Is(err, auth.ErrDuplicateIdentity),
		errors.Is(err, auth.ErrDuplicateName),
		errors.Is(err, auth.ErrAlreadyGranted),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, catalog.ErrDuplicateSlug):
		return err
	}
	return fmt.Errorf("%w: %v", auth.ErrStorageUnavailable, err)
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
