package httpapi

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"waxline.org/internal/auth"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type loginResponse struct {
	Session     string     `json:"session"`
	User        *auth.User `json:"user"`
	Permissions []string   `json:"permissions"`
}

type changePasswordRequest struct {
	Current string `json:"current"`
	New     string `json:"new"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req registerRequest
	if err := a.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.access.RegisterUser(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		handleAccessError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := a.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	session, principal, err := a.authenticator.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		handleAccessError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Session:     session.Value,
		User:        principal.User,
		Permissions: sortedPermissions(principal),
	})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	credential, ok := auth.CredentialFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication failed")
		return
	}
	if err := a.authenticator.Logout(r.Context(), credential); err != nil {
		handleAccessError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":        principal.User,
		"permissions": sortedPermissions(principal),
	})
}

func (a *API) handlePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication failed")
		return
	}
	var req changePasswordRequest
	if err := a.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.access.ChangePassword(r.Context(), principal.User.ID, req.Current, req.New); err != nil {
		handleAccessError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleTokens issues and lists the caller's long-lived client tokens.
func (a *API) handleTokens(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication failed")
		return
	}
	switch r.Method {
	case http.MethodPost:
		token, err := a.authenticator.Tokens().Issue(r.Context(), principal.User.ID)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, tokenResponse{Token: token.Value})
	case http.MethodGet:
		tokens, err := a.authenticator.Tokens().List(r.Context(), principal.User.ID)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"tokens": tokens, "count": len(tokens)})
	default:
		methodNotAllowed(w, r, http.MethodPost, http.MethodGet)
	}
}

// handleTokenResource revokes one of the caller's tokens by value. Revoking a
// token the caller does not own reports not found, never whose it is.
func (a *API) handleTokenResource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication failed")
		return
	}
	value := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/tokens/"), "/")
	if value == "" || strings.Contains(value, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	owner, err := a.authenticator.Tokens().Resolve(r.Context(), value)
	if err != nil && !errors.Is(err, auth.ErrAuthentication) {
		handleAccessError(w, r, err)
		return
	}
	if err != nil || owner.ID != principal.User.ID {
		writeError(w, r, http.StatusNotFound, "token not found")
		return
	}
	if err := a.authenticator.Tokens().Destroy(r.Context(), value); err != nil {
		handleAccessError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func sortedPermissions(principal auth.Principal) []string {
	out := make([]string, 0, len(principal.Permissions))
	for name := range principal.Permissions {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
