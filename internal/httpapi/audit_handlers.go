package httpapi

import (
	"net/http"
	"strconv"

	"floorline.org/internal/access"
	"floorline.org/internal/audit"
)

// handleAdminAudit serves the platform-wide trail. Query params keep the
// inherited clinicId/userId casing.
func (a *API) handleAdminAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := audit.Filter{
		TenantID:    q.Get("clinicId"),
		PrincipalID: q.Get("userId"),
		Action:      q.Get("action"),
		Limit:       intParam(q.Get("limit")),
		Offset:      intParam(q.Get("offset")),
	}
	records, total, err := a.audit.Query(r.Context(), filter)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "audit query failed")
		return
	}
	if records == nil {
		records = []audit.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":  records,
		"total": total,
	})
}

// handleTenantAudit serves the trail scoped to the resolved tenant; the
// tenant filter comes from resolution, never from the query string.
func (a *API) handleTenantAudit(w http.ResponseWriter, r *http.Request) {
	tenant, ok := access.TenantFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusForbidden, "tenant unresolved")
		return
	}
	q := r.URL.Query()
	filter := audit.Filter{
		TenantID:    tenant.ID,
		PrincipalID: q.Get("userId"),
		Action:      q.Get("action"),
		Limit:       intParam(q.Get("limit")),
		Offset:      intParam(q.Get("offset")),
	}
	records, total, err := a.audit.Query(r.Context(), filter)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "audit query failed")
		return
	}
	if records == nil {
		records = []audit.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":  records,
		"total": total,
	})
}

func intParam(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
