package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"floorline.org/internal/access"
	"floorline.org/internal/audit"
	"floorline.org/internal/obs"
)

// ReadyProbe — readiness check (DB ping when configured).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// PrincipalSource loads principal records for authenticated subjects.
type PrincipalSource interface {
	GetPrincipal(ctx context.Context, id string) (access.Principal, error)
}

// Deps carries everything the HTTP layer needs.
type Deps struct {
	Ready      ReadyProbe
	Version    string
	Access     *access.Service
	Audit      *audit.Service
	Engine     *access.Engine
	Resolver   *access.Resolver
	Principals PrincipalSource
}

// API — HTTP layer. Routes are bound to their required permission at
// construction; nothing is guarded after the fact.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	access     *access.Service
	audit      *audit.Service
	engine     *access.Engine
	resolver   *access.Resolver
	principals PrincipalSource
}

func New(d Deps) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: d.Ready,
		version:    d.Version,
		access:     d.Access,
		audit:      d.Audit,
		engine:     d.Engine,
		resolver:   d.Resolver,
		principals: d.Principals,
	}

	// health/ready/info
	a.mux.HandleFunc("GET /healthz", a.Healthz)
	a.mux.HandleFunc("GET /readyz", a.Ready)
	a.mux.HandleFunc("GET /v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("GET /metrics", obs.Handler())

	// dev/test token mint
	a.mux.HandleFunc("POST /v1/auth/token", a.handleTokenMint)

	// admin surface, superuser only
	a.admin("GET /admin/permissions", a.handleListPermissions)
	a.admin("GET /admin/roles", a.handleListRoles)
	a.admin("POST /admin/roles", a.handleCreateRole)
	a.admin("GET /admin/roles/{id}", a.handleGetRole)
	a.admin("PUT /admin/roles/{id}", a.handleUpdateRole)
	a.admin("DELETE /admin/roles/{id}", a.handleDeleteRole)
	a.admin("PUT /admin/roles/{id}/permissions", a.handleSetRolePermissions)
	a.admin("GET /admin/users", a.handleListUsers)
	a.admin("GET /admin/users/{id}", a.handleGetUser)
	a.admin("PATCH /admin/users/{id}", a.handleUpdateUser)
	a.admin("GET /admin/tenants", a.handleListTenants)
	a.admin("POST /admin/tenants", a.handleCreateTenant)
	a.admin("PATCH /admin/tenants/{id}", a.handleUpdateTenant)
	a.admin("GET /admin/audit", a.handleAdminAudit)

	// tenant-scoped surface
	a.tenantScoped("GET /v1/audit-logs", access.PermAuditRead, a.handleTenantAudit)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully assembled handler chain.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "floorline-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "floorline-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func respondError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}
