package catalog

import "time"

// Artist is a performer or group on the label roster.
type Artist struct {
	ID        string     `json:"id"`
	Slug      string     `json:"slug"`
	Name      string     `json:"name"`
	Bio       string     `json:"bio,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Deleted reports whether the artist is soft-deleted.
func (a Artist) Deleted() bool { return a.DeletedAt != nil }

// Release is an album, EP or single attributed to an artist.
type Release struct {
	ID          string     `json:"id"`
	ArtistID    string     `json:"artist_id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	ReleasedOn  *time.Time `json:"released_on,omitempty"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Deleted reports whether the release is soft-deleted.
func (r Release) Deleted() bool { return r.DeletedAt != nil }

// Track is one entry in a release's track list. Tracks live and die with
// their release; they are not soft-deleted individually.
type Track struct {
	ID        string    `json:"id"`
	ReleaseID string    `json:"release_id"`
	Position  int       `json:"position"`
	Title     string    `json:"title"`
	Seconds   int       `json:"seconds,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Label is the record label the catalog belongs to. There is a single label
// row; the admin surface edits it in place.
type Label struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ISRCBase    string    `json:"isrc_base,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LinkKind distinguishes streaming-service links from social-media links on
// an artist profile.
type LinkKind string

const (
	LinkKindMusic  LinkKind = "music"
	LinkKindSocial LinkKind = "social"
)

// ArtistLink is one outbound platform link on an artist profile. An artist
// carries at most one link per (kind, platform) pair.
type ArtistLink struct {
	ID        string    `json:"id"`
	ArtistID  string    `json:"artist_id"`
	Kind      LinkKind  `json:"kind"`
	Platform  string    `json:"platform"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// Page is a free-form content page served by the site.
type Page struct {
	ID        string     `json:"id"`
	Slug      string     `json:"slug"`
	Title     string     `json:"title"`
	Body      string     `json:"body,omitempty"`
	Published bool       `json:"published"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Deleted reports whether the page is soft-deleted.
func (p Page) Deleted() bool { return p.DeletedAt != nil }

// ArtistUpdate carries optional artist field changes. Nil means unchanged.
type ArtistUpdate struct {
	Slug *string
	Name *string
	Bio  *string
}

// ReleaseUpdate carries optional release field changes. Nil means unchanged.
type ReleaseUpdate struct {
	Slug        *string
	Title       *string
	Description *string
	ReleasedOn  *time.Time
}

// LabelUpdate carries optional label field changes. Nil means unchanged.
type LabelUpdate struct {
	Slug        *string
	Name        *string
	Description *string
	ISRCBase    *string
}

// PageUpdate carries optional page field changes. Nil means unchanged.
type PageUpdate struct {
	Slug      *string
	Title     *string
	Body      *string
	Published *bool
}
