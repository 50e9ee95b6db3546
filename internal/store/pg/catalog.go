package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"waxline.org/internal/catalog"
	"waxline.org/internal/ids"
)

func (s *Store) Artists(context.Context) catalog.ArtistStore   { return artistStore{s.db} }
func (s *Store) Releases(context.Context) catalog.ReleaseStore { return releaseStore{s.db} }
func (s *Store) Tracks(context.Context) catalog.TrackStore     { return trackStore{s.db} }
func (s *Store) Links(context.Context) catalog.LinkStore       { return linkStore{s.db} }
func (s *Store) Pages(context.Context) catalog.PageStore       { return pageStore{s.db} }
func (s *Store) Label(context.Context) catalog.LabelStore      { return labelStore{s.db} }

// catalogErr maps a failed catalog insert or update.
func catalogErr(err error) error {
	if pgErr, ok := maybePgError(err); ok {
		switch pgErr.Code {
		case pgErrUniqueViolation:
			return catalog.ErrDuplicateSlug
		case pgErrForeignKeyViolation:
			return catalog.ErrNotFound
		}
	}
	return storageErr(err)
}

func softDelete(ctx context.Context, db *sql.DB, table, id string) error {
	res, err := db.ExecContext(ctx, `
		update `+table+` set deleted_at = now(), updated_at = now()
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
		return catalog.ErrNotFound
	}
	return nil
}

func restore(ctx context.Context, db *sql.DB, table, id string) error {
	res, err := db.ExecContext(ctx, `
		update `+table+` set deleted_at = null, updated_at = now()
		where id = $1 and deleted_at is not null
	`, id)
	if err != nil {
		return storageErr(err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return storageErr(err)
	}
	if aff == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// --- artists ---

type artistStore struct {
	db *sql.DB
}

func scanArtist(row interface{ Scan(...any) error }) (*catalog.Artist, error) {
	var (
		a         catalog.Artist
		bio       sql.NullString
		deletedAt sql.NullTime
	)
	if err := row.Scan(&a.ID, &a.Slug, &a.Name, &bio, &deletedAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Bio = bio.String
	a.DeletedAt = nullTimePtr(deletedAt)
	return &a, nil
}

func (s artistStore) Create(ctx context.Context, a *catalog.Artist) error {
	if a.ID == "" {
		a.ID = ids.New()
	}
	row := s.db.QueryRowContext(ctx, `
		insert into artists (id, slug, name, bio)
		values ($1, $2, $3, $4)
		returning created_at, updated_at
	`, a.ID, a.Slug, a.Name, nullIfEmpty(a.Bio))
	if err := row.Scan(&a.CreatedAt, &a.UpdatedAt); err != nil {
		return catalogErr(err)
	}
	return nil
}

func (s artistStore) Find(ctx context.Context, id string) (*catalog.Artist, error) {
	return s.findWhere(ctx, `id = $1 and deleted_at is null`, id)
}

func (s artistStore) FindBySlug(ctx context.Context, slug string) (*catalog.Artist, error) {
	return s.findWhere(ctx, `slug = $1 and deleted_at is null`, slug)
}

func (s artistStore) findWhere(ctx context.Context, where string, arg any) (*catalog.Artist, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, slug, name, bio, deleted_at, created_at, updated_at
		from artists where `+where, arg)
	a, err := scanArtist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return a, nil
}

func (s artistStore) List(ctx context.Context) ([]catalog.Artist, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, slug, name, bio, deleted_at, created_at, updated_at
		from artists
		where deleted_at is null
		order by name
	`)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var artists []catalog.Artist
	for rows.Next() {
		a, err := scanArtist(rows)
		if err != nil {
			return nil, storageErr(err)
		}
		artists = append(artists, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return artists, nil
}

func (s artistStore) Update(ctx context.Context, id string, upd catalog.ArtistUpdate) (*catalog.Artist, error) {
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
	if upd.Slug != nil {
		set("slug", *upd.Slug)
	}
	if upd.Name != nil {
		set("name", *upd.Name)
	}
	if upd.Bio != nil {
		set("bio", nullIfEmpty(*upd.Bio))
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
		query := fmt.Sprintf(`update artists set %s where id = $%d and deleted_at is null`, strings.Join(sets, ", "), idx)
		args = append(args, id)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, catalogErr(err)
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return nil, storageErr(err)
		}
		if aff == 0 {
			return nil, catalog.ErrNotFound
		}
	}
	return s.Find(ctx, id)
}

func (s artistStore) SoftDelete(ctx context.Context, id string) error {
	return softDelete(ctx, s.db, "artists", id)
}

func (s artistStore) Restore(ctx context.Context, id string) error {
	return restore(ctx, s.db, "artists", id)
}

// --- releases ---

type releaseStore struct {
	db *sql.DB
}

func scanRelease(row interface{ Scan(...any) error }) (*catalog.Release, error) {
	var (
		r          catalog.Release
		desc       sql.NullString
		releasedOn sql.NullTime
		deletedAt  sql.NullTime
	)
	if err := row.Scan(&r.ID, &r.ArtistID, &r.Slug, &r.Title, &desc, &releasedOn, &deletedAt, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Description = desc.String
	r.ReleasedOn = nullTimePtr(releasedOn)
	r.DeletedAt = nullTimePtr(deletedAt)
	return &r, nil
}

func (s releaseStore) Create(ctx context.Context, r *catalog.Release) error {
	if r.ID == "" {
		r.ID = ids.New()
	}
	var releasedOn sql.NullTime
	if r.ReleasedOn != nil {
		releasedOn = sql.NullTime{Time: *r.ReleasedOn, Valid: true}
	}
	row := s.db.QueryRowContext(ctx, `
		insert into releases (id, artist_id, slug, title, description, released_on)
		values ($1, $2, $3, $4, $5, $6)
		returning created_at, updated_at
	`, r.ID, r.ArtistID, r.Slug, r.Title, nullIfEmpty(r.Description), releasedOn)
	if err := row.Scan(&r.CreatedAt, &r.UpdatedAt); err != nil {
		return catalogErr(err)
	}
	return nil
}

func (s releaseStore) Find(ctx context.Context, id string) (*catalog.Release, error) {
	return s.findWhere(ctx, `id = $1 and deleted_at is null`, id)
}

func (s releaseStore) FindBySlug(ctx context.Context, slug string) (*catalog.Release, error) {
	return s.findWhere(ctx, `slug = $1 and deleted_at is null`, slug)
}

func (s releaseStore) findWhere(ctx context.Context, where string, arg any) (*catalog.Release, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, artist_id, slug, title, description, released_on, deleted_at, created_at, updated_at
		from releases where `+where, arg)
	r, err := scanRelease(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return r, nil
}

func (s releaseStore) ListByArtist(ctx context.Context, artistID string) ([]catalog.Release, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, artist_id, slug, title, description, released_on, deleted_at, created_at, updated_at
		from releases
		where artist_id = $1 and deleted_at is null
		order by released_on desc nulls last, title
	`, artistID)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var releases []catalog.Release
	for rows.Next() {
		r, err := scanRelease(rows)
		if err != nil {
			return nil, storageErr(err)
		}
		releases = append(releases, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return releases, nil
}

func (s releaseStore) Update(ctx context.Context, id string, upd catalog.ReleaseUpdate) (*catalog.Release, error) {
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
	if upd.Slug != nil {
		set("slug", *upd.Slug)
	}
	if upd.Title != nil {
		set("title", *upd.Title)
	}
	if upd.Description != nil {
		set("description", nullIfEmpty(*upd.Description))
	}
	if upd.ReleasedOn != nil {
		set("released_on", *upd.ReleasedOn)
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
		query := fmt.Sprintf(`update releases set %s where id = $%d and deleted_at is null`, strings.Join(sets, ", "), idx)
		args = append(args, id)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, catalogErr(err)
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return nil, storageErr(err)
		}
		if aff == 0 {
			return nil, catalog.ErrNotFound
		}
	}
	return s.Find(ctx, id)
}

func (s releaseStore) SoftDelete(ctx context.Context, id string) error {
	return softDelete(ctx, s.db, "releases", id)
}

func (s releaseStore) Restore(ctx context.Context, id string) error {
	return restore(ctx, s.db, "releases", id)
}

// --- tracks ---

type trackStore struct {
	db *sql.DB
}

func (s trackStore) Create(ctx context.Context, t *catalog.Track) error {
	if t.ID == "" {
		t.ID = ids.New()
	}
	row := s.db.QueryRowContext(ctx, `
		insert into tracks (id, release_id, position, title, seconds)
		values ($1, $2, $3, $4, $5)
		returning created_at
	`, t.ID, t.ReleaseID, t.Position, t.Title, t.Seconds)
	if err := row.Scan(&t.CreatedAt); err != nil {
		return catalogErr(err)
	}
	return nil
}

func (s trackStore) ListByRelease(ctx context.Context, releaseID string) ([]catalog.Track, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, release_id, position, title, seconds, created_at
		from tracks
		where release_id = $1
		order by position
	`, releaseID)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var tracks []catalog.Track
	for rows.Next() {
		var t catalog.Track
		if err := rows.Scan(&t.ID, &t.ReleaseID, &t.Position, &t.Title, &t.Seconds, &t.CreatedAt); err != nil {
			return nil, storageErr(err)
		}
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return tracks, nil
}

func (s trackStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from tracks where id = $1`, id)
	if err != nil {
		return storageErr(err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return storageErr(err)
	}
	if aff == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// --- artist links ---

type linkStore struct {
	db *sql.DB
}

// linkErr maps a failed link insert. The unique index covers the
// (artist_id, kind, platform) triple, not a slug.
func linkErr(err error) error {
	if pgErr, ok := maybePgError(err); ok {
		switch pgErr.Code {
		case pgErrUniqueViolation:
			return catalog.ErrDuplicateLink
		case pgErrForeignKeyViolation:
			return catalog.ErrNotFound
		}
	}
	return storageErr(err)
}

func (s linkStore) Create(ctx context.Context, l *catalog.ArtistLink) error {
	if l.ID == "" {
		l.ID = ids.New()
	}
	row := s.db.QueryRowContext(ctx, `
		insert into artist_links (id, artist_id, kind, platform, url)
		values ($1, $2, $3, $4, $5)
		returning created_at
	`, l.ID, l.ArtistID, string(l.Kind), l.Platform, l.URL)
	if err := row.Scan(&l.CreatedAt); err != nil {
		return linkErr(err)
	}
	return nil
}

func (s linkStore) ListByArtist(ctx context.Context, artistID string) ([]catalog.ArtistLink, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, artist_id, kind, platform, url, created_at
		from artist_links
		where artist_id = $1
		order by kind, platform
	`, artistID)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var links []catalog.ArtistLink
	for rows.Next() {
		var (
			l    catalog.ArtistLink
			kind string
		)
		if err := rows.Scan(&l.ID, &l.ArtistID, &kind, &l.Platform, &l.URL, &l.CreatedAt); err != nil {
			return nil, storageErr(err)
		}
		l.Kind = catalog.LinkKind(kind)
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return links, nil
}

func (s linkStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from artist_links where id = $1`, id)
	if err != nil {
		return storageErr(err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return storageErr(err)
	}
	if aff == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// --- label ---

type labelStore struct {
	db *sql.DB
}

func scanLabel(row interface{ Scan(...any) error }) (*catalog.Label, error) {
	var (
		l        catalog.Label
		desc     sql.NullString
		isrcBase sql.NullString
	)
	if err := row.Scan(&l.ID, &l.Slug, &l.Name, &desc, &isrcBase, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	l.Description = desc.String
	l.ISRCBase = isrcBase.String
	return &l, nil
}

func (s labelStore) Get(ctx context.Context) (*catalog.Label, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, slug, name, description, isrc_base, created_at, updated_at
		from labels
		order by created_at asc
		limit 1
	`)
	l, err := scanLabel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return l, nil
}

func (s labelStore) Create(ctx context.Context, l *catalog.Label) error {
	if l.ID == "" {
		l.ID = ids.New()
	}
	row := s.db.QueryRowContext(ctx, `
		insert into labels (id, slug, name, description, isrc_base)
		values ($1, $2, $3, $4, $5)
		returning created_at, updated_at
	`, l.ID, l.Slug, l.Name, nullIfEmpty(l.Description), nullIfEmpty(l.ISRCBase))
	if err := row.Scan(&l.CreatedAt, &l.UpdatedAt); err != nil {
		return catalogErr(err)
	}
	return nil
}

func (s labelStore) Update(ctx context.Context, id string, upd catalog.LabelUpdate) (*catalog.Label, error) {
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
	if upd.Slug != nil {
		set("slug", *upd.Slug)
	}
	if upd.Name != nil {
		set("name", *upd.Name)
	}
	if upd.Description != nil {
		set("description", nullIfEmpty(*upd.Description))
	}
	if upd.ISRCBase != nil {
		set("isrc_base", nullIfEmpty(*upd.ISRCBase))
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
		query := fmt.Sprintf(`update labels set %s where id = $%d`, strings.Join(sets, ", "), idx)
		args = append(args, id)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, catalogErr(err)
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return nil, storageErr(err)
		}
		if aff == 0 {
			return nil, catalog.ErrNotFound
		}
	}
	return s.Get(ctx)
}

// --- pages ---

type pageStore struct {
	db *sql.DB
}

func scanPage(row interface{ Scan(...any) error }) (*catalog.Page, error) {
	var (
		p         catalog.Page
		body      sql.NullString
		deletedAt sql.NullTime
	)
	if err := row.Scan(&p.ID, &p.Slug, &p.Title, &body, &p.Published, &deletedAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Body = body.String
	p.DeletedAt = nullTimePtr(deletedAt)
	return &p, nil
}

func (s pageStore) Create(ctx context.Context, p *catalog.Page) error {
	if p.ID == "" {
		p.ID = ids.New()
	}
	row := s.db.QueryRowContext(ctx, `
		insert into pages (id, slug, title, body, published)
		values ($1, $2, $3, $4, $5)
		returning created_at, updated_at
	`, p.ID, p.Slug, p.Title, nullIfEmpty(p.Body), p.Published)
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return catalogErr(err)
	}
	return nil
}

func (s pageStore) Find(ctx context.Context, id string) (*catalog.Page, error) {
	return s.findWhere(ctx, `id = $1 and deleted_at is null`, id)
}

func (s pageStore) FindBySlug(ctx context.Context, slug string) (*catalog.Page, error) {
	return s.findWhere(ctx, `slug = $1 and deleted_at is null`, slug)
}

func (s pageStore) findWhere(ctx context.Context, where string, arg any) (*catalog.Page, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, slug, title, body, published, deleted_at, created_at, updated_at
		from pages where `+where, arg)
	p, err := scanPage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return p, nil
}

func (s pageStore) List(ctx context.Context) ([]catalog.Page, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, slug, title, body, published, deleted_at, created_at, updated_at
		from pages
		where deleted_at is null
		order by slug
	`)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var pages []catalog.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, storageErr(err)
		}
		pages = append(pages, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return pages, nil
}

func (s pageStore) Update(ctx context.Context, id string, upd catalog.PageUpdate) (*catalog.Page, error) {
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
	if upd.Slug != nil {
		set("slug", *upd.Slug)
	}
	if upd.Title != nil {
		set("title", *upd.Title)
	}
	if upd.Body != nil {
		set("body", nullIfEmpty(*upd.Body))
	}
	if upd.Published != nil {
		set("published", *upd.Published)
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
		query := fmt.Sprintf(`update pages set %s where id = $%d and deleted_at is null`, strings.Join(sets, ", "), idx)
		args = append(args, id)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, catalogErr(err)
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return nil, storageErr(err)
		}
		if aff == 0 {
			return nil, catalog.ErrNotFound
		}
	}
	return s.Find(ctx, id)
}

func (s pageStore) SoftDelete(ctx context.Context, id string) error {
	return softDelete(ctx, s.db, "pages", id)
}

func (s pageStore) Restore(ctx context.Context, id string) error {
	return restore(ctx, s.db, "pages", id)
}
