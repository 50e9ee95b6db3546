package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"waxline.org/internal/auth"
	"waxline.org/internal/catalog"
)

type createArtistRequest struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
	Bio  string `json:"bio"`
}

type updateArtistRequest struct {
	Slug *string `json:"slug"`
	Name *string `json:"name"`
	Bio  *string `json:"bio"`
}

type createReleaseRequest struct {
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ReleasedOn  *time.Time `json:"released_on"`
}

type updateReleaseRequest struct {
	Slug        *string    `json:"slug"`
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	ReleasedOn  *time.Time `json:"released_on"`
}

type createTrackRequest struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	Seconds  int    `json:"seconds"`
}

type createLinkRequest struct {
	Kind     string `json:"kind"`
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

type setLabelRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ISRCBase    string `json:"isrc_base"`
}

type createPageRequest struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

type updatePageRequest struct {
	Slug      *string `json:"slug"`
	Title     *string `json:"title"`
	Body      *string `json:"body"`
	Published *bool   `json:"published"`
}

// --- artists ---

func (a *API) handleArtists(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		if !a.ensurePermissions(w, r, auth.PermCatalogWrite) {
			return
		}
		var req createArtistRequest
		if err := a.decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		artist, err := a.catalog.CreateArtist(r.Context(), req.Slug, req.Name, req.Bio)
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		w.Header().Set("Location", fmt.Sprintf("/v1/artists/%s", artist.ID))
		writeJSON(w, http.StatusCreated, artist)
	case http.MethodGet:
		if slug := r.URL.Query().Get("slug"); slug != "" {
			artist, err := a.catalog.GetArtistBySlug(r.Context(), slug)
			if err != nil {
				handleCatalogError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, artist)
			return
		}
		artists, err := a.catalog.ListArtists(r.Context())
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"artists": artists, "count": len(artists)})
	default:
		methodNotAllowed(w, r, http.MethodPost, http.MethodGet)
	}
}

func (a *API) handleArtistResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/artists/"), "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	artistID := parts[0]

	switch {
	case len(parts) == 1:
		a.handleArtist(w, r, artistID)
	case len(parts) == 2 && parts[1] == "restore":
		a.handleArtistRestore(w, r, artistID)
	case len(parts) == 2 && parts[1] == "releases":
		a.handleArtistReleases(w, r, artistID)
	case len(parts) == 2 && parts[1] == "links":
		a.handleArtistLinks(w, r, artistID)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handleArtist(w http.ResponseWriter, r *http.Request, artistID string) {
	switch r.Method {
	case http.MethodGet:
		artist, err := a.catalog.GetArtist(r.Context(), artistID)
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, artist)
	case http.MethodPatch:
		if !a.ensurePermissions(w, r, auth.PermCatalogWrite) {
			return
		}
		var req updateArtistRequest
		if err := a.decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		artist, err := a.catalog.UpdateArtist(r.Context(), artistID, catalog.ArtistUpdate{
			Slug: req.Slug,
			Name: req.Name,
			Bio:  req.Bio,
		})
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, artist)
	case http.MethodDelete:
		if !a.ensurePermissions(w, r, auth.PermCatalogWrite) {
			return
		}
		if err := a.catalog.RemoveArtist(r.Context(), artistID); err != nil {
			handleCatalogError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) handleArtistRestore(w http.ResponseWriter, r *http.Request, artistID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if !a.ensurePermissions(w, r, auth.PermCatalogWrite) {
		return
	}
	if err := a.catalog.RestoreArtist(r.Context(), artistID); err != nil {
		handleCatalogError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleArtistReleases(w http.ResponseWriter, r *http.Request, artistID string) {
	switch r.Method {
	case http.MethodGet:
		releases, err := a.catalog.ListReleases(r.Context(), artistID)
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"releases": releases, "count": len(releases)})
	case http.MethodPost:
		if !a.ensurePermissions(w, r, auth.PermCatalogWrite) {
			return
		}
		var req createReleaseRequest
		if err := a.decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		release, err := a.catalog.CreateRelease(r.Context(), artistID, req.Slug, req.Title, req.Description, req.ReleasedOn)
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		w.Header().Set("Location", fmt.Sprintf("/v1/releases/%s", release.ID))
		writeJSON(w, http.StatusCreated, release)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleArtistLinks(w http.ResponseWriter, r *http.Request, artistID string) {
	switch r.Method {
	case http.MethodGet:
		links, err := a.catalog.ListArtistLinks(r.Context(), artistID)
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"links": links, "count": len(links)})
	case http.MethodPost:
		if !a.ensurePermissions(w, r, auth.PermCatalogWrite) {
			return
		}
		var req createLinkRequest
		if err := a.decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		link, err := a.catalog.AddArtistLink(r.Context(), artistID, catalog.LinkKind(req.Kind), req.Platform, req.URL)
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, link)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// --- links ---

func (a *API) handleLinkResource(w http.ResponseWriter, r *http.Request) {
	linkID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/links/"), "/")
	if linkID == "" || strings.Contains(linkID, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	if !a.ensurePermissions(w, r, auth.PermCatalogWrite) {
		return
	}
	if err := a.catalog.RemoveArtistLink(r.Context(), linkID); err != nil {
		handleCatalogError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- label ---

// handleLabel serves the label row. There is a single label; PUT creates it
// on first use and replaces its fields afterwards.
func (a *API) handleLabel(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		label, err := a.catalog.GetLabel(r.Context())
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, label)
	case http.MethodPut:
		if !a.ensurePermissions(w, r, auth.PermCatalogWrite) {
			return
		}
		var req setLabelRequest
		if err := a.decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		label, err := a.catalog.SetLabel(r.Context(), req.Name, req.Description, req.ISRCBase)
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, label)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
	}
}

// --- releases ---

func (a *API) handleReleaseResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/releases/"), "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	releaseID := parts[0]

	switch {
	case len(parts) == 1:
		a.handleRelease(w, r, releaseID)
	case len(parts) == 2 && parts[1] == "restore":
		a.handleReleaseRestore(w, r, releaseID)
	case len(parts) == 2 && parts[1] == "tracks":
		a.handleReleaseTracks(w, r, releaseID)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handleRelease(w http.ResponseWriter, r *http.Request, releaseID string) {
	switch r.Method {
	case http.MethodGet:
		release, err := a.catalog.GetRelease(r.Context(), releaseID)
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, release)
	case http.MethodPatch:
		if !a.ensurePermissions(w, r, auth.PermCatalogWrite) {
			return
		}
		var req updateReleaseRequest
		if err := a.decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		release, err := a.catalog.UpdateRelease(r.Context(), releaseID, catalog.ReleaseUpdate{
			Slug:        req.Slug,
			Title:       req.Title,
			Description: req.Description,
			ReleasedOn:  req.ReleasedOn,
		})
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, release)
	case http.MethodDelete:
		if !a.ensurePermissions(w, r, auth.PermCatalogWrite) {
			return
		}
		if err := a.catalog.RemoveRelease(r.Context(), releaseID); err != nil {
			handleCatalogError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) handleReleaseRestore(w http.ResponseWriter, r *http.Request, releaseID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if !a.ensurePermissions(w, r, auth.PermCatalogWrite) {
		return
	}
	if err := a.catalog.RestoreRelease(r.Context(), releaseID); err != nil {
		handleCatalogError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleReleaseTracks(w http.ResponseWriter, r *http.Request, releaseID string) {
	switch r.Method {
	case http.MethodGet:
		tracks, err := a.catalog.ListTracks(r.Context(), releaseID)
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"tracks": tracks, "count": len(tracks)})
	case http.MethodPost:
		if !a.ensurePermissions(w, r, auth.PermCatalogWrite) {
			return
		}
		var req createTrackRequest
		if err := a.decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		track, err := a.catalog.AddTrack(r.Context(), releaseID, req.Position, req.Title, req.Seconds)
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, track)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// --- tracks ---

func (a *API) handleTrackResource(w http.ResponseWriter, r *http.Request) {
	trackID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/tracks/"), "/")
	if trackID == "" || strings.Contains(trackID, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	if !a.ensurePermissions(w, r, auth.PermCatalogWrite) {
		return
	}
	if err := a.catalog.RemoveTrack(r.Context(), trackID); err != nil {
		handleCatalogError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- pages ---

func (a *API) handlePages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		if !a.ensurePermissions(w, r, auth.PermCatalogWrite) {
			return
		}
		var req createPageRequest
		if err := a.decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		page, err := a.catalog.CreatePage(r.Context(), req.Slug, req.Title, req.Body)
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		w.Header().Set("Location", fmt.Sprintf("/v1/pages/%s", page.ID))
		writeJSON(w, http.StatusCreated, page)
	case http.MethodGet:
		if slug := r.URL.Query().Get("slug"); slug != "" {
			page, err := a.catalog.GetPageBySlug(r.Context(), slug)
			if err != nil {
				handleCatalogError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, page)
			return
		}
		pages, err := a.catalog.ListPages(r.Context())
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"pages": pages, "count": len(pages)})
	default:
		methodNotAllowed(w, r, http.MethodPost, http.MethodGet)
	}
}

func (a *API) handlePageResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/pages/"), "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	pageID := parts[0]

	if len(parts) == 2 && parts[1] == "restore" {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		if !a.ensurePermissions(w, r, auth.PermCatalogWrite) {
			return
		}
		if err := a.catalog.RestorePage(r.Context(), pageID); err != nil {
			handleCatalogError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if len(parts) != 1 {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		page, err := a.catalog.GetPage(r.Context(), pageID)
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	case http.MethodPatch:
		var req updatePageRequest
		if err := a.decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		// flipping publish state requires the publish permission
		required := []string{auth.PermCatalogWrite}
		if req.Published != nil {
			required = append(required, auth.PermCatalogPublish)
		}
		if !a.ensurePermissions(w, r, required...) {
			return
		}
		page, err := a.catalog.UpdatePage(r.Context(), pageID, catalog.PageUpdate{
			Slug:      req.Slug,
			Title:     req.Title,
			Body:      req.Body,
			Published: req.Published,
		})
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	case http.MethodDelete:
		if !a.ensurePermissions(w, r, auth.PermCatalogWrite) {
			return
		}
		if err := a.catalog.RemovePage(r.Context(), pageID); err != nil {
			handleCatalogError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}
