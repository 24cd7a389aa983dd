package httpapi

import (
	"fmt"
	"net/http"

	"floorline.org/internal/access"
)

type createRoleRequest struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

type updateRoleRequest struct {
	Name           *string  `json:"name"`
	Description    *string  `json:"description"`
	PermissionKeys []string `json:"permissionKeys"`
}

type setRolePermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

// clinicRole keeps the inherited wire casing; internally a clinic is a tenant.
type clinicRole struct {
	ClinicID string `json:"clinicId"`
	RoleID   string `json:"roleId"`
}

type updateUserRequest struct {
	Name        *string      `json:"name"`
	Active      *bool        `json:"active"`
	Superuser   *bool        `json:"superuser"`
	ClinicRoles []clinicRole `json:"clinicRoles"`
}

type createTenantRequest struct {
	Name    string   `json:"name"`
	Slug    string   `json:"slug"`
	Modules []string `json:"modules"`
}

type updateTenantRequest struct {
	Name    *string  `json:"name"`
	Slug    *string  `json:"slug"`
	Active  *bool    `json:"active"`
	Modules []string `json:"modules"`
}

func (a *API) handleListPermissions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"groups": a.access.ListPermissions(),
	})
}

func (a *API) handleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := a.access.ListRoles(r.Context())
	if err != nil {
		handleAccessError(w, r, err)
		return
	}
	if roles == nil {
		roles = []access.RoleSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": roles})
}

func (a *API) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	role, err := a.access.CreateRole(r.Context(), req.Key, req.Name, req.Description, req.Permissions)
	if err != nil {
		handleAccessError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/admin/roles/%s", role.ID))
	writeJSON(w, http.StatusCreated, role)
}

func (a *API) handleGetRole(w http.ResponseWriter, r *http.Request) {
	role, err := a.access.GetRole(r.Context(), r.PathValue("id"))
	if err != nil {
		handleAccessError(w, r, err)
		return
	}
	if role.PermissionKeys == nil {
		role.PermissionKeys = []string{}
	}
	writeJSON(w, http.StatusOK, role)
}

func (a *API) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	var req updateRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	role, err := a.access.UpdateRole(r.Context(), r.PathValue("id"), access.RoleUpdate{
		Name:           req.Name,
		Description:    req.Description,
		PermissionKeys: req.PermissionKeys,
	})
	if err != nil {
		handleAccessError(w, r, err)
		return
	}
	if role.PermissionKeys == nil {
		role.PermissionKeys = []string{}
	}
	writeJSON(w, http.StatusOK, role)
}

func (a *API) handleSetRolePermissions(w http.ResponseWriter, r *http.Request) {
	var req setRolePermissionsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	role, err := a.access.SetRolePermissions(r.Context(), r.PathValue("id"), req.Permissions)
	if err != nil {
		handleAccessError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, role)
}

func (a *API) handleDeleteRole(w http.ResponseWriter, r *http.Request) {
	if err := a.access.DeleteRole(r.Context(), r.PathValue("id")); err != nil {
		handleAccessError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.access.ListPrincipals(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		handleAccessError(w, r, err)
		return
	}
	if users == nil {
		users = []access.PrincipalSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": users})
}

func (a *API) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	user, err := a.access.GetPrincipal(r.Context(), id)
	if err != nil {
		handleAccessError(w, r, err)
		return
	}
	bindings, err := a.access.ListBindings(r.Context(), id)
	if err != nil {
		handleAccessError(w, r, err)
		return
	}
	if bindings == nil {
		bindings = []access.Binding{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":     user,
		"bindings": bindings,
	})
}

// handleUpdateUser applies profile changes and, when clinicRoles is present,
// reconciles the user's bindings against it in one shot.
func (a *API) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	id := r.PathValue("id")

	var user access.Principal
	if req.Name != nil || req.Active != nil || req.Superuser != nil {
		var err error
		user, err = a.access.UpdatePrincipal(r.Context(), id, access.PrincipalUpdate{
			Name:      req.Name,
			Active:    req.Active,
			Superuser: req.Superuser,
		})
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
	} else {
		var err error
		user, err = a.access.GetPrincipal(r.Context(), id)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
	}

	response := map[string]any{"user": user}
	if req.ClinicRoles != nil {
		desired := make([]access.BindingSpec, 0, len(req.ClinicRoles))
		for _, cr := range req.ClinicRoles {
			desired = append(desired, access.BindingSpec{TenantID: cr.ClinicID, RoleID: cr.RoleID})
		}
		result, err := a.access.SyncBindings(r.Context(), id, desired)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		response["sync"] = result
	}
	writeJSON(w, http.StatusOK, response)
}

func (a *API) handleListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := a.access.ListTenants(r.Context())
	if err != nil {
		handleAccessError(w, r, err)
		return
	}
	if tenants == nil {
		tenants = []access.TenantSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": tenants})
}

func (a *API) handleCreateTenant(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	tenant, err := a.access.CreateTenant(r.Context(), req.Name, req.Slug, req.Modules)
	if err != nil {
		handleAccessError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/admin/tenants/%s", tenant.ID))
	writeJSON(w, http.StatusCreated, tenant)
}

func (a *API) handleUpdateTenant(w http.ResponseWriter, r *http.Request) {
	var req updateTenantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	tenant, err := a.access.UpdateTenant(r.Context(), r.PathValue("id"), access.TenantUpdate{
		Name:    req.Name,
		Slug:    req.Slug,
		Active:  req.Active,
		Modules: req.Modules,
	})
	if err != nil {
		handleAccessError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}
