package httpapi

import (
	"errors"
	"net/http"

	"floorline.org/internal/access"
	"floorline.org/internal/obs"
)

// admin registers a superuser-only route. Administration of access control
// itself is reserved for platform operators; no tenant binding can grant it.
func (a *API) admin(pattern string, h http.HandlerFunc) {
	a.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		principal, ok := access.PrincipalFromContext(r.Context())
		if !ok {
			respondError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !principal.Superuser {
			a.deny(w, r, principal, "", "superuser_required")
			return
		}
		h(w, r)
	})
}

// tenantScoped registers a route that requires a permission within a resolved
// tenant. The pipeline is authn (middleware), tenant resolution, then the
// permission check; each stage rejects terminally.
func (a *API) tenantScoped(pattern, permission string, h http.HandlerFunc) {
	a.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		principal, ok := access.PrincipalFromContext(r.Context())
		if !ok {
			respondError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		tenant, err := a.resolver.Resolve(r.Context(), principal, requestedTenant(r))
		if err != nil {
			switch {
			case errors.Is(err, access.ErrTenantUnresolved):
				writeError(w, r, http.StatusForbidden, "tenant unresolved")
			case errors.Is(err, access.ErrTenantMismatch):
				writeError(w, r, http.StatusForbidden, "tenant mismatch")
			case errors.Is(err, access.ErrNotFound):
				writeError(w, r, http.StatusNotFound, "tenant not found")
			default:
				writeError(w, r, http.StatusInternalServerError, "tenant resolution failed")
			}
			return
		}

		decision, err := a.engine.Authorize(r.Context(), principal, tenant.ID, permission)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "authorization failed")
			return
		}
		if !decision.Allowed {
			a.deny(w, r, principal, tenant.ID, decision.Reason)
			return
		}

		h(w, r.WithContext(access.ContextWithTenant(r.Context(), tenant)))
	})
}

// deny sends the generic denial. The reason stays in the log; the response
// body never explains which check failed.
func (a *API) deny(w http.ResponseWriter, r *http.Request, principal access.Principal, tenantID, reason string) {
	entry := map[string]any{
		"event":     "authz_denied",
		"method":    r.Method,
		"path":      r.URL.Path,
		"principal": principal.ID,
		"reason":    reason,
	}
	if tenantID != "" {
		entry["tenant"] = tenantID
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		entry["request_id"] = rid
	}
	obs.LogRequest(entry)
	writeError(w, r, http.StatusForbidden, "forbidden")
}

func handleAccessError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, access.ErrInvalidInput),
		errors.Is(err, access.ErrUnknownPermissionKey),
		errors.Is(err, access.ErrRoleInUse):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, access.ErrConflict), errors.Is(err, access.ErrTxConflict):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, access.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, access.ErrForbidden),
		errors.Is(err, access.ErrTenantUnresolved),
		errors.Is(err, access.ErrTenantMismatch):
		writeError(w, r, http.StatusForbidden, "forbidden")
	default:
		writeError(w, r, http.StatusInternalServerError, "operation failed")
	}
}
