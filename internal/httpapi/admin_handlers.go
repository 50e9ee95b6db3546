package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"waxline.org/internal/auth"
)

type createUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateProfileRequest struct {
	Username    *string `json:"username"`
	Email       *string `json:"email"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Description *string `json:"description"`
}

type setPasswordRequest struct {
	New string `json:"new"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type createPermissionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type grantRoleRequest struct {
	RoleID string `json:"role_id"`
}

type grantPermissionRequest struct {
	PermissionID string `json:"permission_id"`
}

// --- users ---

func (a *API) handleUsers(w http.ResponseWriter, r *http.Request) {
	if !a.ensurePermissions(w, r, auth.PermManageUsers) {
		return
	}
	switch r.Method {
	case http.MethodPost:
		var req createUserRequest
		if err := a.decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		user, err := a.access.RegisterUser(r.Context(), req.Username, req.Email, req.Password)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		w.Header().Set("Location", fmt.Sprintf("/v1/users/%s", user.ID))
		writeJSON(w, http.StatusCreated, user)
	case http.MethodGet:
		// lookup by identity, not a full listing
		if username := r.URL.Query().Get("username"); username != "" {
			user, err := a.access.GetUserByUsername(r.Context(), username)
			if err != nil {
				handleAccessError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, user)
			return
		}
		if email := r.URL.Query().Get("email"); email != "" {
			user, err := a.access.GetUserByEmail(r.Context(), email)
			if err != nil {
				handleAccessError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, user)
			return
		}
		writeError(w, r, http.StatusBadRequest, "username or email query parameter is required")
	default:
		methodNotAllowed(w, r, http.MethodPost, http.MethodGet)
	}
}

func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/users/"), "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	userID := parts[0]

	switch {
	case len(parts) == 1:
		a.handleUser(w, r, userID)
	case len(parts) == 2 && parts[1] == "deactivate":
		a.handleUserDeactivate(w, r, userID)
	case len(parts) == 2 && parts[1] == "password":
		a.handleUserPassword(w, r, userID)
	case parts[1] == "roles" && len(parts) <= 3:
		a.handleUserRoles(w, r, userID, parts[1:])
	case parts[1] == "permissions" && len(parts) <= 3:
		a.handleUserPermissions(w, r, userID, parts[1:])
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handleUser(w http.ResponseWriter, r *http.Request, userID string) {
	if !a.ensurePermissions(w, r, auth.PermManageUsers) {
		return
	}
	switch r.Method {
	case http.MethodGet:
		user, err := a.access.GetUser(r.Context(), userID)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	case http.MethodPatch:
		var req updateProfileRequest
		if err := a.decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		user, err := a.access.UpdateProfile(r.Context(), userID, auth.ProfileUpdate{
			Username:    req.Username,
			Email:       req.Email,
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			Description: req.Description,
		})
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	case http.MethodDelete:
		if err := a.access.DeleteUser(r.Context(), userID); err != nil {
			handleAccessError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) handleUserDeactivate(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if !a.ensurePermissions(w, r, auth.PermManageUsers) {
		return
	}
	if err := a.access.DeactivateUser(r.Context(), userID); err != nil {
		handleAccessError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleUserPassword(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if !a.ensurePermissions(w, r, auth.PermManageUsers) {
		return
	}
	var req setPasswordRequest
	if err := a.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.access.SetPassword(r.Context(), userID, req.New); err != nil {
		handleAccessError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleUserRoles(w http.ResponseWriter, r *http.Request, userID string, parts []string) {
	if !a.ensurePermissions(w, r, auth.PermManageAccess) {
		return
	}
	if len(parts) == 2 {
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, r, http.MethodDelete)
			return
		}
		if err := a.access.RevokeRole(r.Context(), userID, parts[1]); err != nil {
			handleAccessError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}
	switch r.Method {
	case http.MethodGet:
		roles, err := a.access.ListRolesForUser(r.Context(), userID)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"roles": roles, "count": len(roles)})
	case http.MethodPost:
		var req grantRoleRequest
		if err := a.decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		grant, err := a.access.GrantRole(r.Context(), userID, req.RoleID)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, grant)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleUserPermissions(w http.ResponseWriter, r *http.Request, userID string, parts []string) {
	if !a.ensurePermissions(w, r, auth.PermManageAccess) {
		return
	}
	if len(parts) == 2 {
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, r, http.MethodDelete)
			return
		}
		if err := a.access.RevokePermissionFromUser(r.Context(), userID, parts[1]); err != nil {
			handleAccessError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}
	switch r.Method {
	case http.MethodGet:
		// effective set: role-derived plus direct grants
		perms, err := a.authenticator.Resolver().EffectivePermissions(r.Context(), userID)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"permissions": perms, "count": len(perms)})
	case http.MethodPost:
		var req grantPermissionRequest
		if err := a.decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		grant, err := a.access.GrantPermissionToUser(r.Context(), userID, req.PermissionID)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, grant)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// --- roles ---

func (a *API) handleRoles(w http.ResponseWriter, r *http.Request) {
	if !a.ensurePermissions(w, r, auth.PermManageAccess) {
		return
	}
	switch r.Method {
	case http.MethodPost:
		var req nameRequest
		if err := a.decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		role, err := a.access.CreateRole(r.Context(), req.Name)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		w.Header().Set("Location", fmt.Sprintf("/v1/roles/%s", role.ID))
		writeJSON(w, http.StatusCreated, role)
	case http.MethodGet:
		roles, err := a.access.ListRoles(r.Context())
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"roles": roles, "count": len(roles)})
	default:
		methodNotAllowed(w, r, http.MethodPost, http.MethodGet)
	}
}

func (a *API) handleRoleResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/roles/"), "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	roleID := parts[0]

	if !a.ensurePermissions(w, r, auth.PermManageAccess) {
		return
	}

	switch {
	case len(parts) == 1:
		a.handleRole(w, r, roleID)
	case parts[1] == "permissions" && len(parts) == 2:
		a.handleRolePermissions(w, r, roleID)
	case parts[1] == "permissions" && len(parts) == 3:
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, r, http.MethodDelete)
			return
		}
		if err := a.access.RevokePermissionFromRole(r.Context(), roleID, parts[2]); err != nil {
			handleAccessError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handleRole(w http.ResponseWriter, r *http.Request, roleID string) {
	switch r.Method {
	case http.MethodGet:
		role, err := a.access.GetRole(r.Context(), roleID)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, role)
	case http.MethodPatch:
		var req nameRequest
		if err := a.decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		role, err := a.access.RenameRole(r.Context(), roleID, req.Name)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, role)
	case http.MethodDelete:
		if err := a.access.DeleteRole(r.Context(), roleID); err != nil {
			handleAccessError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) handleRolePermissions(w http.ResponseWriter, r *http.Request, roleID string) {
	switch r.Method {
	case http.MethodGet:
		perms, err := a.access.ListPermissionsForRole(r.Context(), roleID)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"permissions": perms, "count": len(perms)})
	case http.MethodPost:
		var req grantPermissionRequest
		if err := a.decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		grant, err := a.access.GrantPermissionToRole(r.Context(), roleID, req.PermissionID)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, grant)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// --- permissions ---

func (a *API) handlePermissions(w http.ResponseWriter, r *http.Request) {
	if !a.ensurePermissions(w, r, auth.PermManageAccess) {
		return
	}
	switch r.Method {
	case http.MethodPost:
		var req createPermissionRequest
		if err := a.decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		perm, err := a.access.CreatePermission(r.Context(), req.Name, req.Description)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		w.Header().Set("Location", fmt.Sprintf("/v1/permissions/%s", perm.ID))
		writeJSON(w, http.StatusCreated, perm)
	case http.MethodGet:
		perms, err := a.access.ListPermissions(r.Context())
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"permissions": perms, "count": len(perms)})
	default:
		methodNotAllowed(w, r, http.MethodPost, http.MethodGet)
	}
}

func (a *API) handlePermissionResource(w http.ResponseWriter, r *http.Request) {
	permID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/permissions/"), "/")
	if permID == "" || strings.Contains(permID, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if !a.ensurePermissions(w, r, auth.PermManageAccess) {
		return
	}
	switch r.Method {
	case http.MethodGet:
		perm, err := a.access.GetPermission(r.Context(), permID)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, perm)
	case http.MethodPatch:
		var req nameRequest
		if err := a.decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		perm, err := a.access.RenamePermission(r.Context(), permID, req.Name)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, perm)
	case http.MethodDelete:
		if err := a.access.DeletePermission(r.Context(), permID); err != nil {
			handleAccessError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}
