package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"waxline.org/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/v1/auth/register",
	"/v1/auth/login",
	"/metrics",
	"/healthz",
	"/readyz",
	"/v1/info",
	"/",
}

// withAuth resolves the presented credential, session or token, and attaches
// the principal to the request context. Everything outside publicPaths
// requires a credential.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		credential, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		principal, err := a.authenticator.Resolve(r.Context(), credential)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrAuthentication):
				writeError(w, r, http.StatusUnauthorized, "authentication failed")
			case errors.Is(err, auth.ErrStorageUnavailable):
				writeError(w, r, http.StatusServiceUnavailable, "storage unavailable")
			default:
				writeError(w, r, http.StatusInternalServerError, "authentication error")
			}
			return
		}

		ctx := auth.ContextWithPrincipal(r.Context(), principal)
		ctx = auth.ContextWithCredential(ctx, credential)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ensurePermissions writes a 403 and returns false unless the request
// principal holds every named permission.
func (a *API) ensurePermissions(w http.ResponseWriter, r *http.Request, perms ...string) bool {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication failed")
		return false
	}
	for _, perm := range perms {
		if !principal.HasPermission(perm) {
			writeError(w, r, http.StatusForbidden, "permission denied")
			return false
		}
	}
	return true
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
