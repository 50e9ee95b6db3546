package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

const maxSlugLength = 255

// Service provides validated catalog operations over a Store. Slug shape is
// validated here; slug uniqueness is enforced by the storage layer.
type Service struct {
	store Store
}

// NewService constructs a Service.
func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidInput)
	}
	return &Service{store: store}, nil
}

// Slugify lowercases the input and collapses runs of non-alphanumeric
// characters into single hyphens.
func Slugify(s string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			hyphen = false
			continue
		}
		if !hyphen && b.Len() > 0 {
			b.WriteByte('-')
			hyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func validateSlug(slug string) error {
	if slug == "" {
		return fmt.Errorf("%w: slug is required", ErrInvalidInput)
	}
	if len(slug) > maxSlugLength {
		return fmt.Errorf("%w: slug must be at most %d characters", ErrInvalidInput, maxSlugLength)
	}
	if slug != Slugify(slug) {
		return fmt.Errorf("%w: slug must be lowercase alphanumerics and hyphens", ErrInvalidInput)
	}
	return nil
}

// --- Artists --------------------------------------------------------------

// CreateArtist adds an artist to the roster. An empty slug is derived from
// the name.
func (s *Service) CreateArtist(ctx context.Context, slug, name, bio string) (*Artist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: artist name is required", ErrInvalidInput)
	}
	if slug = strings.TrimSpace(slug); slug == "" {
		slug = Slugify(name)
	}
	if err := validateSlug(slug); err != nil {
		return nil, err
	}
	artist := &Artist{Slug: slug, Name: name, Bio: strings.TrimSpace(bio)}
	if err := s.store.Artists(ctx).Create(ctx, artist); err != nil {
		return nil, err
	}
	return artist, nil
}

// GetArtist looks up an artist by id, skipping soft-deleted records.
func (s *Service) GetArtist(ctx context.Context, id string) (*Artist, error) {
	if id = strings.TrimSpace(id); id == "" {
		return nil, fmt.Errorf("%w: artist id is required", ErrInvalidInput)
	}
	return s.store.Artists(ctx).Find(ctx, id)
}

// GetArtistBySlug looks up an artist by slug.
func (s *Service) GetArtistBySlug(ctx context.Context, slug string) (*Artist, error) {
	if slug = strings.TrimSpace(slug); slug == "" {
		return nil, fmt.Errorf("%w: artist slug is required", ErrInvalidInput)
	}
	return s.store.Artists(ctx).FindBySlug(ctx, slug)
}

// ListArtists lists active artists.
func (s *Service) ListArtists(ctx context.Context) ([]Artist, error) {
	return s.store.Artists(ctx).List(ctx)
}

// UpdateArtist applies field changes.
func (s *Service) UpdateArtist(ctx context.Context, id string, upd ArtistUpdate) (*Artist, error) {
	if id = strings.TrimSpace(id); id == "" {
		return nil, fmt.Errorf("%w: artist id is required", ErrInvalidInput)
	}
	if upd.Slug != nil {
		trimmed := strings.TrimSpace(*upd.Slug)
		if err := validateSlug(trimmed); err != nil {
			return nil, err
		}
		upd.Slug = &trimmed
	}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return nil, fmt.Errorf("%w: artist name is required", ErrInvalidInput)
	}
	return s.store.Artists(ctx).Update(ctx, id, upd)
}

// RemoveArtist soft-deletes an artist; releases stay attributed and become
// reachable again on restore.
func (s *Service) RemoveArtist(ctx context.Context, id string) error {
	if id = strings.TrimSpace(id); id == "" {
		return fmt.Errorf("%w: artist id is required", ErrInvalidInput)
	}
	return s.store.Artists(ctx).SoftDelete(ctx, id)
}

// RestoreArtist clears a previous soft-delete.
func (s *Service) RestoreArtist(ctx context.Context, id string) error {
	if id = strings.TrimSpace(id); id == "" {
		return fmt.Errorf("%w: artist id is required", ErrInvalidInput)
	}
	return s.store.Artists(ctx).Restore(ctx, id)
}

// --- Releases -------------------------------------------------------------

// CreateRelease attributes a new release to an existing artist.
func (s *Service) CreateRelease(ctx context.Context, artistID, slug, title, description string, releasedOn *time.Time) (*Release, error) {
	artistID = strings.TrimSpace(artistID)
	title = strings.TrimSpace(title)
	if artistID == "" || title == "" {
		return nil, fmt.Errorf("%w: artist id and title are required", ErrInvalidInput)
	}
	if _, err := s.store.Artists(ctx).Find(ctx, artistID); err != nil {
		return nil, err
	}
	if slug = strings.TrimSpace(slug); slug == "" {
		slug = Slugify(title)
	}
	if err := validateSlug(slug); err != nil {
		return nil, err
	}
	release := &Release{
		ArtistID:    artistID,
		Slug:        slug,
		Title:       title,
		Description: strings.TrimSpace(description),
		ReleasedOn:  releasedOn,
	}
	if err := s.store.Releases(ctx).Create(ctx, release); err != nil {
		return nil, err
	}
	return release, nil
}

// GetRelease looks up a release by id, skipping soft-deleted records.
func (s *Service) GetRelease(ctx context.Context, id string) (*Release, error) {
	if id = strings.TrimSpace(id); id == "" {
		return nil, fmt.Errorf("%w: release id is required", ErrInvalidInput)
	}
	return s.store.Releases(ctx).Find(ctx, id)
}

// GetReleaseBySlug looks up a release by slug.
func (s *Service) GetReleaseBySlug(ctx context.Context, slug string) (*Release, error) {
	if slug = strings.TrimSpace(slug); slug == "" {
		return nil, fmt.Errorf("%w: release slug is required", ErrInvalidInput)
	}
	return s.store.Releases(ctx).FindBySlug(ctx, slug)
}

// ListReleases lists an artist's active releases.
func (s *Service) ListReleases(ctx context.Context, artistID string) ([]Release, error) {
	if artistID = strings.TrimSpace(artistID); artistID == "" {
		return nil, fmt.Errorf("%w: artist id is required", ErrInvalidInput)
	}
	return s.store.Releases(ctx).ListByArtist(ctx, artistID)
}

// UpdateRelease applies field changes.
func (s *Service) UpdateRelease(ctx context.Context, id string, upd ReleaseUpdate) (*Release, error) {
	if id = strings.TrimSpace(id); id == "" {
		return nil, fmt.Errorf("%w: release id is required", ErrInvalidInput)
	}
	if upd.Slug != nil {
		trimmed := strings.TrimSpace(*upd.Slug)
		if err := validateSlug(trimmed); err != nil {
			return nil, err
		}
		upd.Slug = &trimmed
	}
	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		return nil, fmt.Errorf("%w: release title is required", ErrInvalidInput)
	}
	return s.store.Releases(ctx).Update(ctx, id, upd)
}

// RemoveRelease soft-deletes a release.
func (s *Service) RemoveRelease(ctx context.Context, id string) error {
	if id = strings.TrimSpace(id); id == "" {
		return fmt.Errorf("%w: release id is required", ErrInvalidInput)
	}
	return s.store.Releases(ctx).SoftDelete(ctx, id)
}

// RestoreRelease clears a previous soft-delete.
func (s *Service) RestoreRelease(ctx context.Context, id string) error {
	if id = strings.TrimSpace(id); id == "" {
		return fmt.Errorf("%w: release id is required", ErrInvalidInput)
	}
	return s.store.Releases(ctx).Restore(ctx, id)
}

// --- Tracks ---------------------------------------------------------------

// AddTrack appends a track to a release's track list.
func (s *Service) AddTrack(ctx context.Context, releaseID string, position int, title string, seconds int) (*Track, error) {
	releaseID = strings.TrimSpace(releaseID)
	title = strings.TrimSpace(title)
	if releaseID == "" || title == "" {
		return nil, fmt.Errorf("%w: release id and title are required", ErrInvalidInput)
	}
	if position <= 0 {
		return nil, fmt.Errorf("%w: track position must be positive", ErrInvalidInput)
	}
	if seconds < 0 {
		return nil, fmt.Errorf("%w: track length must not be negative", ErrInvalidInput)
	}
	if _, err := s.store.Releases(ctx).Find(ctx, releaseID); err != nil {
		return nil, err
	}
	track := &Track{ReleaseID: releaseID, Position: position, Title: title, Seconds: seconds}
	if err := s.store.Tracks(ctx).Create(ctx, track); err != nil {
		return nil, err
	}
	return track, nil
}

// ListTracks returns a release's track list in position order.
func (s *Service) ListTracks(ctx context.Context, releaseID string) ([]Track, error) {
	if releaseID = strings.TrimSpace(releaseID); releaseID == "" {
		return nil, fmt.Errorf("%w: release id is required", ErrInvalidInput)
	}
	return s.store.Tracks(ctx).ListByRelease(ctx, releaseID)
}

// RemoveTrack deletes a track.
func (s *Service) RemoveTrack(ctx context.Context, id string) error {
	if id = strings.TrimSpace(id); id == "" {
		return fmt.Errorf("%w: track id is required", ErrInvalidInput)
	}
	return s.store.Tracks(ctx).Delete(ctx, id)
}

// --- Artist links ---------------------------------------------------------

// Platform names accepted for each link kind.
var (
	musicPlatforms = map[string]bool{
		"amazon-music":  true,
		"apple-music":   true,
		"bandcamp":      true,
		"beatport":      true,
		"deezer":        true,
		"soundcloud":    true,
		"spotify":       true,
		"tidal":         true,
		"youtube-music": true,
	}
	socialPlatforms = map[string]bool{
		"bluesky":   true,
		"facebook":  true,
		"instagram": true,
		"linkedin":  true,
		"mastodon":  true,
		"pinterest": true,
		"snapchat":  true,
		"threads":   true,
		"tiktok":    true,
		"twitter":   true,
		"youtube":   true,
	}
)

func validateLinkPlatform(kind LinkKind, platform string) error {
	switch kind {
	case LinkKindMusic:
		if !musicPlatforms[platform] {
			return fmt.Errorf("%w: unknown music platform %q", ErrInvalidInput, platform)
		}
	case LinkKindSocial:
		if !socialPlatforms[platform] {
			return fmt.Errorf("%w: unknown social platform %q", ErrInvalidInput, platform)
		}
	default:
		return fmt.Errorf("%w: link kind must be %q or %q", ErrInvalidInput, LinkKindMusic, LinkKindSocial)
	}
	return nil
}

// AddArtistLink attaches a platform link to an existing artist.
func (s *Service) AddArtistLink(ctx context.Context, artistID string, kind LinkKind, platform, url string) (*ArtistLink, error) {
	artistID = strings.TrimSpace(artistID)
	if artistID == "" {
		return nil, fmt.Errorf("%w: artist id is required", ErrInvalidInput)
	}
	platform = strings.ToLower(strings.TrimSpace(platform))
	if err := validateLinkPlatform(kind, platform); err != nil {
		return nil, err
	}
	url = strings.TrimSpace(url)
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("%w: link url must be absolute", ErrInvalidInput)
	}
	if _, err := s.store.Artists(ctx).Find(ctx, artistID); err != nil {
		return nil, err
	}
	link := &ArtistLink{ArtistID: artistID, Kind: kind, Platform: platform, URL: url}
	if err := s.store.Links(ctx).Create(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

// ListArtistLinks returns an artist's links ordered by kind then platform.
func (s *Service) ListArtistLinks(ctx context.Context, artistID string) ([]ArtistLink, error) {
	if artistID = strings.TrimSpace(artistID); artistID == "" {
		return nil, fmt.Errorf("%w: artist id is required", ErrInvalidInput)
	}
	return s.store.Links(ctx).ListByArtist(ctx, artistID)
}

// RemoveArtistLink deletes a link.
func (s *Service) RemoveArtistLink(ctx context.Context, id string) error {
	if id = strings.TrimSpace(id); id == "" {
		return fmt.Errorf("%w: link id is required", ErrInvalidInput)
	}
	return s.store.Links(ctx).Delete(ctx, id)
}

// --- Label ----------------------------------------------------------------

// GetLabel returns the label row, or ErrNotFound before it has been set.
func (s *Service) GetLabel(ctx context.Context) (*Label, error) {
	return s.store.Label(ctx).Get(ctx)
}

// SetLabel creates the label row on first call and updates it in place
// afterwards. The slug is derived from the name.
func (s *Service) SetLabel(ctx context.Context, name, description, isrcBase string) (*Label, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: label name is required", ErrInvalidInput)
	}
	slug := Slugify(name)
	if err := validateSlug(slug); err != nil {
		return nil, err
	}
	description = strings.TrimSpace(description)
	isrcBase = strings.ToUpper(strings.TrimSpace(isrcBase))

	existing, err := s.store.Label(ctx).Get(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		label := &Label{Slug: slug, Name: name, Description: description, ISRCBase: isrcBase}
		if err := s.store.Label(ctx).Create(ctx, label); err != nil {
			return nil, err
		}
		return label, nil
	}
	return s.store.Label(ctx).Update(ctx, existing.ID, LabelUpdate{
		Slug:        &slug,
		Name:        &name,
		Description: &description,
		ISRCBase:    &isrcBase,
	})
}

// --- Pages ----------------------------------------------------------------

// CreatePage adds a content page, unpublished by default.
func (s *Service) CreatePage(ctx context.Context, slug, title, body string) (*Page, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: page title is required", ErrInvalidInput)
	}
	if slug = strings.TrimSpace(slug); slug == "" {
		slug = Slugify(title)
	}
	if err := validateSlug(slug); err != nil {
		return nil, err
	}
	page := &Page{Slug: slug, Title: title, Body: body}
	if err := s.store.Pages(ctx).Create(ctx, page); err != nil {
		return nil, err
	}
	return page, nil
}

// GetPage looks up a page by id, skipping soft-deleted records.
func (s *Service) GetPage(ctx context.Context, id string) (*Page, error) {
	if id = strings.TrimSpace(id); id == "" {
		return nil, fmt.Errorf("%w: page id is required", ErrInvalidInput)
	}
	return s.store.Pages(ctx).Find(ctx, id)
}

// GetPageBySlug looks up a page by slug.
func (s *Service) GetPageBySlug(ctx context.Context, slug string) (*Page, error) {
	if slug = strings.TrimSpace(slug); slug == "" {
		return nil, fmt.Errorf("%w: page slug is required", ErrInvalidInput)
	}
	return s.store.Pages(ctx).FindBySlug(ctx, slug)
}

// ListPages lists active pages.
func (s *Service) ListPages(ctx context.Context) ([]Page, error) {
	return s.store.Pages(ctx).List(ctx)
}

// UpdatePage applies field changes, including publish state flips.
func (s *Service) UpdatePage(ctx context.Context, id string, upd PageUpdate) (*Page, error) {
	if id = strings.TrimSpace(id); id == "" {
		return nil, fmt.Errorf("%w: page id is required", ErrInvalidInput)
	}
	if upd.Slug != nil {
		trimmed := strings.TrimSpace(*upd.Slug)
		if err := validateSlug(trimmed); err != nil {
			return nil, err
		}
		upd.Slug = &trimmed
	}
	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		return nil, fmt.Errorf("%w: page title is required", ErrInvalidInput)
	}
	return s.store.Pages(ctx).Update(ctx, id, upd)
}

// RemovePage soft-deletes a page.
func (s *Service) RemovePage(ctx context.Context, id string) error {
	if id = strings.TrimSpace(id); id == "" {
		return fmt.Errorf("%w: page id is required", ErrInvalidInput)
	}
	return s.store.Pages(ctx).SoftDelete(ctx, id)
}

// RestorePage clears a previous soft-delete.
func (s *Service) RestorePage(ctx context.Context, id string) error {
	if id = strings.TrimSpace(id); id == "" {
		return fmt.Errorf("%w: page id is required", ErrInvalidInput)
	}
	return s.store.Pages(ctx).Restore(ctx, id)
}
