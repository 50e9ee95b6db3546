package pg

import (
	"context"
	"database/sql"
	"errors"

	"waxline.org/internal/auth"
	"waxline.org/internal/ids"
)

// credStore serves both credential tables; they share schema and semantics.
type credStore struct {
	db    *sql.DB
	table string
}

func (s credStore) Create(ctx context.Context, cred *auth.Credential) error {
	if cred.ID == "" {
		cred.ID = ids.New()
	}
	row := s.db.QueryRowContext(ctx, `
		insert into `+s.table+` (id, user_id, value)
		values ($1, $2, $3)
		returning created_at
	`, cred.ID, cred.UserID, cred.Value)
	if err := row.Scan(&cred.CreatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return auth.ErrAlreadyGranted
			case pgErrForeignKeyViolation:
				return auth.ErrNotFound
			}
		}
		return storageErr(err)
	}
	return nil
}

func (s credStore) Resolve(ctx context.Context, value string) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+prefixedUserColumns+`
		from `+s.table+` c
		join users u on u.id = c.user_id
		where c.value = $1 and u.deleted_at is null
	`, value)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return u, nil
}

func (s credStore) Destroy(ctx context.Context, value string) error {
	res, err := s.db.ExecContext(ctx, `delete from `+s.table+` where value = $1`, value)
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

func (s credStore) ListByUser(ctx context.Context, userID string) ([]auth.Credential, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, user_id, value, created_at
		from `+s.table+`
		where user_id = $1
		order by created_at
	`, userID)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var creds []auth.Credential
	for rows.Next() {
		var cred auth.Credential
		if err := rows.Scan(&cred.ID, &cred.UserID, &cred.Value, &cred.CreatedAt); err != nil {
			return nil, storageErr(err)
		}
		creds = append(creds, cred)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return creds, nil
}

func (s credStore) DestroyAllForUser(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `delete from `+s.table+` where user_id = $1`, userID); err != nil {
		return storageErr(err)
	}
	return nil
}

const prefixedUserColumns = `u.id, u.username, u.email, u.password_hash, u.first_name, u.last_name, u.description, u.deleted_at, u.created_at, u.updated_at`
