package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"waxline.org/internal/auth"
	"waxline.org/internal/catalog"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db), mock
}

func verify(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGrantRoleMapsUniqueViolation(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectQuery(`insert into user_roles`).
		WithArgs(sqlmock.AnyArg(), "u1", "r1").
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})

	if _, err := store.Grants(ctx).GrantRole(ctx, "u1", "r1"); !errors.Is(err, auth.ErrAlreadyGranted) {
		t.Fatalf("expected ErrAlreadyGranted, got %v", err)
	}
	verify(t, mock)
}

func TestGrantRoleMapsMissingEndpoint(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectQuery(`insert into user_roles`).
		WithArgs(sqlmock.AnyArg(), "u1", "missing").
		WillReturnError(&pgconn.PgError{Code: pgErrForeignKeyViolation})

	if _, err := store.Grants(ctx).GrantRole(ctx, "u1", "missing"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	verify(t, mock)
}

func TestGrantPermissionToUserReturnsRow(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()
	now := time.Now().UTC()

	mock.ExpectQuery(`insert into user_permissions`).
		WithArgs(sqlmock.AnyArg(), "u1", "p1").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	grant, err := store.Grants(ctx).GrantPermissionToUser(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("GrantPermissionToUser: %v", err)
	}
	if grant.ID == "" || grant.UserID != "u1" || grant.PermissionID != "p1" {
		t.Fatalf("unexpected grant: %+v", grant)
	}
	verify(t, mock)
}

func TestRevokeMissingGrantIsNotFound(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectExec(`delete from role_permissions`).
		WithArgs("r1", "p1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.Grants(ctx).RevokePermissionFromRole(ctx, "r1", "p1"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	verify(t, mock)
}

func TestUserCreateMapsDuplicateIdentity(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectQuery(`insert into users`).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})

	u := &auth.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x"}
	if err := store.Users(ctx).Create(ctx, u); !errors.Is(err, auth.ErrDuplicateIdentity) {
		t.Fatalf("expected ErrDuplicateIdentity, got %v", err)
	}
	verify(t, mock)
}

func TestUserHardDeleteCascadesInOneTransaction(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`delete from user_roles where user_id`).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`delete from user_permissions where user_id`).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`delete from user_sessions where user_id`).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`delete from user_tokens where user_id`).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`delete from users where id`).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := store.Users(ctx).Delete(ctx, "u1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	verify(t, mock)
}

func TestUserHardDeleteRollsBackOnFailure(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`delete from user_roles where user_id`).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`delete from user_permissions where user_id`).WithArgs("u1").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := store.Users(ctx).Delete(ctx, "u1")
	if !errors.Is(err, auth.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	verify(t, mock)
}

func TestUserHardDeleteUnknownUserRollsBack(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`delete from user_roles where user_id`).WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`delete from user_permissions where user_id`).WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`delete from user_sessions where user_id`).WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`delete from user_tokens where user_id`).WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`delete from users where id`).WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	if err := store.Users(ctx).Delete(ctx, "ghost"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	verify(t, mock)
}

func TestRoleDeleteCascadesInOneTransaction(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`delete from user_roles where role_id`).WithArgs("r1").WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(`delete from role_permissions where role_id`).WithArgs("r1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`delete from roles where id`).WithArgs("r1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := store.Roles(ctx).Delete(ctx, "r1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	verify(t, mock)
}

func TestPermissionEnsureSkipsExisting(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectExec(`insert into permissions .* on conflict \(name\) do nothing`).
		WithArgs(sqlmock.AnyArg(), "users.manage", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Permissions(ctx).Ensure(ctx, []auth.Permission{{Name: "users.manage", Description: "manage accounts"}})
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	verify(t, mock)
}

func TestFindUserSkipsSoftDeleted(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectQuery(`select .* from users where id = \$1 and deleted_at is null`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := store.Users(ctx).Find(ctx, "u1"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	verify(t, mock)
}

func TestCredentialResolveJoinsActiveOwner(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "username", "email", "password_hash", "first_name", "last_name",
		"description", "deleted_at", "created_at", "updated_at",
	}).AddRow("u1", "alice", "alice@example.com", "hash", nil, nil, nil, nil, now, now)
	mock.ExpectQuery(`from user_sessions c\s+join users u`).WithArgs("opaque-value").WillReturnRows(rows)

	user, err := store.Sessions(ctx).Resolve(ctx, "opaque-value")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if user.ID != "u1" || user.Username != "alice" {
		t.Fatalf("unexpected user: %+v", user)
	}
	verify(t, mock)
}

func TestCredentialDestroyMissingIsNotFound(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectExec(`delete from user_tokens where value`).
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.Tokens(ctx).Destroy(ctx, "gone"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	verify(t, mock)
}

func TestArtistCreateMapsDuplicateSlug(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectQuery(`insert into artists`).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})

	a := &catalog.Artist{Slug: "dust-choir", Name: "Dust Choir"}
	if err := store.Artists(ctx).Create(ctx, a); !errors.Is(err, catalog.ErrDuplicateSlug) {
		t.Fatalf("expected ErrDuplicateSlug, got %v", err)
	}
	verify(t, mock)
}

func TestArtistLinkCreateMapsDuplicate(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectQuery(`insert into artist_links`).
		WithArgs(sqlmock.AnyArg(), "a1", "music", "spotify", "https://open.spotify.com/artist/x").
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})

	l := &catalog.ArtistLink{ArtistID: "a1", Kind: catalog.LinkKindMusic, Platform: "spotify", URL: "https://open.spotify.com/artist/x"}
	if err := store.Links(ctx).Create(ctx, l); !errors.Is(err, catalog.ErrDuplicateLink) {
		t.Fatalf("expected ErrDuplicateLink, got %v", err)
	}
	verify(t, mock)
}

func TestArtistLinkCreateMapsMissingArtist(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectQuery(`insert into artist_links`).
		WillReturnError(&pgconn.PgError{Code: pgErrForeignKeyViolation})

	l := &catalog.ArtistLink{ArtistID: "ghost", Kind: catalog.LinkKindSocial, Platform: "mastodon", URL: "https://mastodon.social/@x"}
	if err := store.Links(ctx).Create(ctx, l); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	verify(t, mock)
}

func TestLabelGetEmptyIsNotFound(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectQuery(`select .* from labels\s+order by created_at asc\s+limit 1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := store.Label(ctx).Get(ctx); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	verify(t, mock)
}

func TestReleaseRestoreRequiresSoftDeletedRow(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectExec(`update releases set deleted_at = null`).
		WithArgs("rel1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.Releases(ctx).Restore(ctx, "rel1"); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	verify(t, mock)
}

func TestStorageFailureIsWrapped(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectQuery(`select .* from roles`).
		WillReturnError(errors.New("dial tcp: connection refused"))

	_, err := store.Roles(ctx).List(ctx)
	if !errors.Is(err, auth.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	verify(t, mock)
}
