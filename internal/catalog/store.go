package catalog

import "context"

// Store describes catalog persistence. Slugs are unique per entity kind;
// implementations report collisions as ErrDuplicateSlug. Lookups skip
// soft-deleted records unless noted otherwise.
type Store interface {
	Artists(ctx context.Context) ArtistStore
	Releases(ctx context.Context) ReleaseStore
	Tracks(ctx context.Context) TrackStore
	Links(ctx context.Context) LinkStore
	Pages(ctx context.Context) PageStore
	Label(ctx context.Context) LabelStore
}

// ArtistStore manages the artist roster.
type ArtistStore interface {
	Create(ctx context.Context, a *Artist) error
	Find(ctx context.Context, id string) (*Artist, error)
	FindBySlug(ctx context.Context, slug string) (*Artist, error)
	List(ctx context.Context) ([]Artist, error)
	Update(ctx context.Context, id string, upd ArtistUpdate) (*Artist, error)
	SoftDelete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
}

// ReleaseStore manages releases.
type ReleaseStore interface {
	Create(ctx context.Context, r *Release) error
	Find(ctx context.Context, id string) (*Release, error)
	FindBySlug(ctx context.Context, slug string) (*Release, error)
	ListByArtist(ctx context.Context, artistID string) ([]Release, error)
	Update(ctx context.Context, id string, upd ReleaseUpdate) (*Release, error)
	SoftDelete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
}

// TrackStore manages release track lists.
type TrackStore interface {
	Create(ctx context.Context, t *Track) error
	ListByRelease(ctx context.Context, releaseID string) ([]Track, error)
	Delete(ctx context.Context, id string) error
}

// LinkStore manages artist platform links. Creating a second link for the
// same (artist, kind, platform) triple reports ErrDuplicateLink.
type LinkStore interface {
	Create(ctx context.Context, l *ArtistLink) error
	ListByArtist(ctx context.Context, artistID string) ([]ArtistLink, error)
	Delete(ctx context.Context, id string) error
}

// LabelStore manages the single label row. Get returns the oldest row when
// more than one exists.
type LabelStore interface {
	Get(ctx context.Context) (*Label, error)
	Create(ctx context.Context, l *Label) error
	Update(ctx context.Context, id string, upd LabelUpdate) (*Label, error)
}

// PageStore manages content pages.
type PageStore interface {
	Create(ctx context.Context, p *Page) error
	Find(ctx context.Context, id string) (*Page, error)
	FindBySlug(ctx context.Context, slug string) (*Page, error)
	List(ctx context.Context) ([]Page, error)
	Update(ctx context.Context, id string, upd PageUpdate) (*Page, error)
	SoftDelete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
}
