package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"waxline.org/internal/auth"
	"waxline.org/internal/ids"
)

type userStore struct {
	db *sql.DB
}

const userColumns = `id, username, email, password_hash, first_name, last_name, description, deleted_at, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*auth.User, error) {
	var (
		u         auth.User
		first     sql.NullString
		last      sql.NullString
		desc      sql.NullString
		deletedAt sql.NullTime
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &first, &last, &desc, &deletedAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.FirstName = first.String
	u.LastName = last.String
	u.Description = desc.String
	u.DeletedAt = nullTimePtr(deletedAt)
	return &u, nil
}

func (s userStore) Create(ctx context.Context, u *auth.User) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	row := s.db.QueryRowContext(ctx, `
		insert into users (id, username, email, password_hash, first_name, last_name, description)
		values ($1, $2, $3, $4, $5, $6, $7)
		returning created_at, updated_at
	`, u.ID, u.Username, u.Email, u.PasswordHash, nullIfEmpty(u.FirstName), nullIfEmpty(u.LastName), nullIfEmpty(u.Description))
	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return auth.ErrDuplicateIdentity
		}
		return storageErr(err)
	}
	return nil
}

func (s userStore) Find(ctx context.Context, id string) (*auth.User, error) {
	return s.findWhere(ctx, `id = $1 and deleted_at is null`, id)
}

func (s userStore) FindByUsername(ctx context.Context, username string) (*auth.User, error) {
	return s.findWhere(ctx, `username = $1 and deleted_at is null`, username)
}

func (s userStore) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	return s.findWhere(ctx, `email = $1 and deleted_at is null`, email)
}

func (s userStore) findWhere(ctx context.Context, where string, arg any) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx, `select `+userColumns+` from users where `+where, arg)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return u, nil
}

func (s userStore) UpdateProfile(ctx context.Context, id string, upd auth.ProfileUpdate) (*auth.User, error) {
	var (
		sets []string
		args []any
		idx  = 1
	)
	set := func(col string, val any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, val)
		idx++
	}
	if upd.Username != nil {
		set("username", *upd.Username)
	}
	if upd.Email != nil {
		set("email", *upd.Email)
	}
	if upd.FirstName != nil {
		set("first_name", nullIfEmpty(*upd.FirstName))
	}
	if upd.LastName != nil {
		set("last_name", nullIfEmpty(*upd.LastName))
	}
	if upd.Description != nil {
		set("description", nullIfEmpty(*upd.Description))
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
		query := fmt.Sprintf(`update users set %s where id = $%d and deleted_at is null`, strings.Join(sets, ", "), idx)
		args = append(args, id)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
				return nil, auth.ErrDuplicateIdentity
			}
			return nil, storageErr(err)
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return nil, storageErr(err)
		}
		if aff == 0 {
			return nil, auth.ErrNotFound
		}
	}
	return s.Find(ctx, id)
}

func (s userStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, `
		update users set password_hash = $2, updated_at = now()
		where id = $1 and deleted_at is null
	`, id, passwordHash)
	if err != nil {
		return storageErr(err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return storageErr(err)
	}
	if aff == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func (s userStore) SoftDelete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		update users set deleted_at = now(), updated_at = now()
		where id = $1 and deleted_at is null
	`, id)
	if err != nil {
		return storageErr(err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return storageErr(err)
	}
	if aff == 0 {
		return auth.ErrNotFound
	}
	return nil
}

// Delete removes the user row plus every membership, direct grant, session
// and token referencing it, in one transaction.
func (s userStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"user_roles", "user_permissions", "user_sessions", "user_tokens"} {
		if _, err := tx.ExecContext(ctx, `delete from `+table+` where user_id = $1`, id); err != nil {
			return storageErr(err)
		}
	}
	res, err := tx.ExecContext(ctx, `delete from users where id = $1`, id)
	if err != nil {
		return storageErr(err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return storageErr(err)
	}
	if aff == 0 {
		return auth.ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return storageErr(err)
	}
	return nil
}
