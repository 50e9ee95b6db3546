package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"waxline.org/internal/ids"
)

// memoryStore is an in-memory Store enforcing slug
// uniqueness per entity kind and the soft-delete query filter. Used by tests
// and by the server when no database DSN is configured. Listings come back
// in the same order the SQL store produces.
type memoryStore struct {
	mu       sync.Mutex
	artists  map[string]*Artist
	releases map[string]*Release
	tracks   map[string]*Track
	links    map[string]*ArtistLink
	pages    map[string]*Page
	label    *Label
}

// NewMemoryStore constructs an empty in-memory Store.
func NewMemoryStore() Store {
	return &memoryStore{
		artists:  make(map[string]*Artist),
		releases: make(map[string]*Release),
		tracks:   make(map[string]*Track),
		links:    make(map[string]*ArtistLink),
		pages:    make(map[string]*Page),
	}
}

func (s *memoryStore) Artists(context.Context) ArtistStore   { return memArtists{s} }
func (s *memoryStore) Releases(context.Context) ReleaseStore { return memReleases{s} }
func (s *memoryStore) Tracks(context.Context) TrackStore     { return memTracks{s} }
func (s *memoryStore) Links(context.Context) LinkStore       { return memLinks{s} }
func (s *memoryStore) Pages(context.Context) PageStore       { return memPages{s} }
func (s *memoryStore) Label(context.Context) LabelStore      { return memLabel{s} }

type memArtists struct{ s *memoryStore }

func (m memArtists) Create(_ context.Context, a *Artist) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, other := range m.s.artists {
		if other.Slug == a.Slug {
			return ErrDuplicateSlug
		}
	}
	if a.ID == "" {
		a.ID = ids.New()
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	clone := *a
	m.s.artists[a.ID] = &clone
	return nil
}

func (m memArtists) Find(_ context.Context, id string) (*Artist, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	a, ok := m.s.artists[id]
	if !ok || a.Deleted() {
		return nil, ErrNotFound
	}
	clone := *a
	return &clone, nil
}

func (m memArtists) FindBySlug(_ context.Context, slug string) (*Artist, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, a := range m.s.artists {
		if a.Slug == slug && !a.Deleted() {
			clone := *a
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (m memArtists) List(_ context.Context) ([]Artist, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []Artist
	for _, a := range m.s.artists {
		if !a.Deleted() {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m memArtists) Update(_ context.Context, id string, upd ArtistUpdate) (*Artist, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	a, ok := m.s.artists[id]
	if !ok || a.Deleted() {
		return nil, ErrNotFound
	}
	if upd.Slug != nil {
		for _, other := range m.s.artists {
			if other.ID != id && other.Slug == *upd.Slug {
				return nil, ErrDuplicateSlug
			}
		}
		a.Slug = *upd.Slug
	}
	if upd.Name != nil {
		a.Name = *upd.Name
	}
	if upd.Bio != nil {
		a.Bio = *upd.Bio
	}
	a.UpdatedAt = time.Now().UTC()
	clone := *a
	return &clone, nil
}

func (m memArtists) SoftDelete(_ context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	a, ok := m.s.artists[id]
	if !ok || a.Deleted() {
		return ErrNotFound
	}
	now := time.Now().UTC()
	a.DeletedAt = &now
	return nil
}

func (m memArtists) Restore(_ context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	a, ok := m.s.artists[id]
	if !ok || !a.Deleted() {
		return ErrNotFound
	}
	a.DeletedAt = nil
	return nil
}

type memReleases struct{ s *memoryStore }

func (m memReleases) Create(_ context.Context, r *Release) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, other := range m.s.releases {
		if other.Slug == r.Slug {
			return ErrDuplicateSlug
		}
	}
	if r.ID == "" {
		r.ID = ids.New()
	}
	now := time.Now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now
	clone := *r
	m.s.releases[r.ID] = &clone
	return nil
}

func (m memReleases) Find(_ context.Context, id string) (*Release, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	r, ok := m.s.releases[id]
	if !ok || r.Deleted() {
		return nil, ErrNotFound
	}
	clone := *r
	return &clone, nil
}

func (m memReleases) FindBySlug(_ context.Context, slug string) (*Release, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, r := range m.s.releases {
		if r.Slug == slug && !r.Deleted() {
			clone := *r
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (m memReleases) ListByArtist(_ context.Context, artistID string) ([]Release, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []Release
	for _, r := range m.s.releases {
		if r.ArtistID == artistID && !r.Deleted() {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.ReleasedOn == nil && b.ReleasedOn == nil:
			return a.Title < b.Title
		case a.ReleasedOn == nil:
			return false
		case b.ReleasedOn == nil:
			return true
		case !a.ReleasedOn.Equal(*b.ReleasedOn):
			return a.ReleasedOn.After(*b.ReleasedOn)
		}
		return a.Title < b.Title
	})
	return out, nil
}

func (m memReleases) Update(_ context.Context, id string, upd ReleaseUpdate) (*Release, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	r, ok := m.s.releases[id]
	if !ok || r.Deleted() {
		return nil, ErrNotFound
	}
	if upd.Slug != nil {
		for _, other := range m.s.releases {
			if other.ID != id && other.Slug == *upd.Slug {
				return nil, ErrDuplicateSlug
			}
		}
		r.Slug = *upd.Slug
	}
	if upd.Title != nil {
		r.Title = *upd.Title
	}
	if upd.Description != nil {
		r.Description = *upd.Description
	}
	if upd.ReleasedOn != nil {
		r.ReleasedOn = upd.ReleasedOn
	}
	r.UpdatedAt = time.Now().UTC()
	clone := *r
	return &clone, nil
}

func (m memReleases) SoftDelete(_ context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	r, ok := m.s.releases[id]
	if !ok || r.Deleted() {
		return ErrNotFound
	}
	now := time.Now().UTC()
	r.DeletedAt = &now
	return nil
}

func (m memReleases) Restore(_ context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	r, ok := m.s.releases[id]
	if !ok || !r.Deleted() {
		return ErrNotFound
	}
	r.DeletedAt = nil
	return nil
}

type memTracks struct{ s *memoryStore }

func (m memTracks) Create(_ context.Context, t *Track) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if t.ID == "" {
		t.ID = ids.New()
	}
	t.CreatedAt = time.Now().UTC()
	clone := *t
	m.s.tracks[t.ID] = &clone
	return nil
}

func (m memTracks) ListByRelease(_ context.Context, releaseID string) ([]Track, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []Track
	for _, t := range m.s.tracks {
		if t.ReleaseID == releaseID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m memTracks) Delete(_ context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.tracks[id]; !ok {
		return ErrNotFound
	}
	delete(m.s.tracks, id)
	return nil
}

type memLinks struct{ s *memoryStore }

func (m memLinks) Create(_ context.Context, l *ArtistLink) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, other := range m.s.links {
		if other.ArtistID == l.ArtistID && other.Kind == l.Kind && other.Platform == l.Platform {
			return ErrDuplicateLink
		}
	}
	if l.ID == "" {
		l.ID = ids.New()
	}
	l.CreatedAt = time.Now().UTC()
	clone := *l
	m.s.links[l.ID] = &clone
	return nil
}

func (m memLinks) ListByArtist(_ context.Context, artistID string) ([]ArtistLink, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []ArtistLink
	for _, l := range m.s.links {
		if l.ArtistID == artistID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Platform < out[j].Platform
	})
	return out, nil
}

func (m memLinks) Delete(_ context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.links[id]; !ok {
		return ErrNotFound
	}
	delete(m.s.links, id)
	return nil
}

type memLabel struct{ s *memoryStore }

func (m memLabel) Get(_ context.Context) (*Label, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.label == nil {
		return nil, ErrNotFound
	}
	clone := *m.s.label
	return &clone, nil
}

func (m memLabel) Create(_ context.Context, l *Label) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if l.ID == "" {
		l.ID = ids.New()
	}
	now := time.Now().UTC()
	l.CreatedAt, l.UpdatedAt = now, now
	clone := *l
	if m.s.label == nil {
		m.s.label = &clone
	}
	return nil
}

func (m memLabel) Update(_ context.Context, id string, upd LabelUpdate) (*Label, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.label == nil || m.s.label.ID != id {
		return nil, ErrNotFound
	}
	l := m.s.label
	if upd.Slug != nil {
		l.Slug = *upd.Slug
	}
	if upd.Name != nil {
		l.Name = *upd.Name
	}
	if upd.Description != nil {
		l.Description = *upd.Description
	}
	if upd.ISRCBase != nil {
		l.ISRCBase = *upd.ISRCBase
	}
	l.UpdatedAt = time.Now().UTC()
	clone := *l
	return &clone, nil
}

type memPages struct{ s *memoryStore }

func (m memPages) Create(_ context.Context, p *Page) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, other := range m.s.pages {
		if other.Slug == p.Slug {
			return ErrDuplicateSlug
		}
	}
	if p.ID == "" {
		p.ID = ids.New()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	clone := *p
	m.s.pages[p.ID] = &clone
	return nil
}

func (m memPages) Find(_ context.Context, id string) (*Page, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.pages[id]
	if !ok || p.Deleted() {
		return nil, ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (m memPages) FindBySlug(_ context.Context, slug string) (*Page, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, p := range m.s.pages {
		if p.Slug == slug && !p.Deleted() {
			clone := *p
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (m memPages) List(_ context.Context) ([]Page, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []Page
	for _, p := range m.s.pages {
		if !p.Deleted() {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (m memPages) Update(_ context.Context, id string, upd PageUpdate) (*Page, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.pages[id]
	if !ok || p.Deleted() {
		return nil, ErrNotFound
	}
	if upd.Slug != nil {
		for _, other := range m.s.pages {
			if other.ID != id && other.Slug == *upd.Slug {
				return nil, ErrDuplicateSlug
			}
		}
		p.Slug = *upd.Slug
	}
	if upd.Title != nil {
		p.Title = *upd.Title
	}
	if upd.Body != nil {
		p.Body = *upd.Body
	}
	if upd.Published != nil {
		p.Published = *upd.Published
	}
	p.UpdatedAt = time.Now().UTC()
	clone := *p
	return &clone, nil
}

func (m memPages) SoftDelete(_ context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.pages[id]
	if !ok || p.Deleted() {
		return ErrNotFound
	}
	now := time.Now().UTC()
	p.DeletedAt = &now
	return nil
}

func (m memPages) Restore(_ context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.pages[id]
	if !ok || !p.Deleted() {
		return ErrNotFound
	}
	p.DeletedAt = nil
	return nil
}
