package access

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"floorline.org/internal/audit"
	"floorline.org/internal/ids"
)

// txRetries bounds how often a serialization failure is retried before the
// conflict is surfaced to the caller.
const txRetries = 3

// Service implements the administrative operations over tenants, principals,
// roles and bindings. Every mutation produces exactly one audit record,
// committed atomically with the change itself.
type Service struct {
	store Store
}

func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, errors.New("access: service requires a store")
	}
	return &Service{store: store}, nil
}

// EnsureCatalog upserts the static permission catalog into the store. Runs
// once at startup so role editors always see the deployed key set.
func (s *Service) EnsureCatalog(ctx context.Context) error {
	return s.store.EnsurePermissions(ctx, Catalog())
}

// ListPermissions returns the catalog grouped by module.
func (s *Service) ListPermissions() []Group {
	return Groups()
}

func (s *Service) CreateTenant(ctx context.Context, name, slug string, modules []string) (Tenant, error) {
	name = strings.TrimSpace(name)
	slug = strings.TrimSpace(strings.ToLower(slug))
	if name == "" {
		return Tenant{}, fmt.Errorf("%w: tenant name is required", ErrInvalidInput)
	}
	if slug == "" {
		return Tenant{}, fmt.Errorf("%w: tenant slug is required", ErrInvalidInput)
	}
	tenant := Tenant{
		ID:      ids.New(),
		Name:    name,
		Slug:    slug,
		Active:  true,
		Modules: modules,
	}
	rec := s.record(ctx, tenant.ID, "tenant.created", "tenant", tenant.ID,
		fmt.Sprintf("tenant %q created", slug),
		map[string]any{"name": name, "slug": slug})
	err := s.retry(ctx, func() error {
		return s.store.CreateTenant(ctx, &tenant, rec)
	})
	if err != nil {
		return Tenant{}, err
	}
	return tenant, nil
}

func (s *Service) GetTenant(ctx context.Context, id string) (Tenant, error) {
	return s.store.GetTenant(ctx, id)
}

func (s *Service) ListTenants(ctx context.Context) ([]TenantSummary, error) {
	return s.store.ListTenants(ctx)
}

func (s *Service) UpdateTenant(ctx context.Context, id string, upd TenantUpdate) (Tenant, error) {
	if upd.Name == nil && upd.Slug == nil && upd.Active == nil && upd.Modules == nil {
		return Tenant{}, fmt.Errorf("%w: no tenant fields to update", ErrInvalidInput)
	}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return Tenant{}, fmt.Errorf("%w: tenant name cannot be empty", ErrInvalidInput)
	}
	if upd.Slug != nil {
		slug := strings.TrimSpace(strings.ToLower(*upd.Slug))
		if slug == "" {
			return Tenant{}, fmt.Errorf("%w: tenant slug cannot be empty", ErrInvalidInput)
		}
		upd.Slug = &slug
	}
	rec := s.record(ctx, id, "tenant.updated", "tenant", id, "tenant updated", updateDetails(map[string]any{
		"name":    upd.Name,
		"slug":    upd.Slug,
		"active":  upd.Active,
		"modules": upd.Modules,
	}))
	var tenant Tenant
	err := s.retry(ctx, func() error {
		var err error
		tenant, err = s.store.UpdateTenant(ctx, id, upd, rec)
		return err
	})
	if err != nil {
		return Tenant{}, err
	}
	return tenant, nil
}

func (s *Service) GetPrincipal(ctx context.Context, id string) (Principal, error) {
	return s.store.GetPrincipal(ctx, id)
}

func (s *Service) ListPrincipals(ctx context.Context, search string) ([]PrincipalSummary, error) {
	return s.store.ListPrincipals(ctx, strings.TrimSpace(search))
}

func (s *Service) UpdatePrincipal(ctx context.Context, id string, upd PrincipalUpdate) (Principal, error) {
	if upd.Name == nil && upd.Active == nil && upd.Superuser == nil {
		return Principal{}, fmt.Errorf("%w: no principal fields to update", ErrInvalidInput)
	}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return Principal{}, fmt.Errorf("%w: principal name cannot be empty", ErrInvalidInput)
	}
	rec := s.record(ctx, "", "principal.updated", "principal", id, "principal updated", updateDetails(map[string]any{
		"name":      upd.Name,
		"active":    upd.Active,
		"superuser": upd.Superuser,
	}))
	var principal Principal
	err := s.retry(ctx, func() error {
		var err error
		principal, err = s.store.UpdatePrincipal(ctx, id, upd, rec)
		return err
	})
	if err != nil {
		return Principal{}, err
	}
	return principal, nil
}

func (s *Service) CreateRole(ctx context.Context, key, name, description string, permissionKeys []string) (RoleDetail, error) {
	key = strings.TrimSpace(strings.ToLower(key))
	name = strings.TrimSpace(name)
	if key == "" {
		return RoleDetail{}, fmt.Errorf("%w: role key is required", ErrInvalidInput)
	}
	if name == "" {
		return RoleDetail{}, fmt.Errorf("%w: role name is required", ErrInvalidInput)
	}
	keys, err := validateKeys(permissionKeys)
	if err != nil {
		return RoleDetail{}, err
	}
	role := Role{
		ID:          ids.New(),
		Key:         key,
		Name:        name,
		Description: strings.TrimSpace(description),
	}
	rec := s.record(ctx, "", "role.created", "role", role.ID,
		fmt.Sprintf("role %q created", key),
		map[string]any{"key": key, "name": name, "permissions": keys})
	err = s.retry(ctx, func() error {
		return s.store.CreateRole(ctx, &role, keys, rec)
	})
	if err != nil {
		return RoleDetail{}, err
	}
	return RoleDetail{Role: role, PermissionKeys: keys}, nil
}

func (s *Service) GetRole(ctx context.Context, id string) (RoleDetail, error) {
	role, err := s.store.GetRole(ctx, id)
	if err != nil {
		return RoleDetail{}, err
	}
	keys, err := s.store.RolePermissionKeys(ctx, id)
	if err != nil {
		return RoleDetail{}, err
	}
	return RoleDetail{Role: role, PermissionKeys: keys}, nil
}

func (s *Service) ListRoles(ctx context.Context) ([]RoleSummary, error) {
	return s.store.ListRoles(ctx)
}

// UpdateRole applies a partial update. When upd.PermissionKeys is non-nil the
// role's permission set is replaced wholesale; the stored diff is computed
// inside the store transaction so readers never observe a partial set.
func (s *Service) UpdateRole(ctx context.Context, id string, upd RoleUpdate) (RoleDetail, error) {
	if upd.Name == nil && upd.Description == nil && upd.PermissionKeys == nil {
		return RoleDetail{}, fmt.Errorf("%w: no role fields to update", ErrInvalidInput)
	}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return RoleDetail{}, fmt.Errorf("%w: role name cannot be empty", ErrInvalidInput)
	}
	if upd.PermissionKeys != nil {
		keys, err := validateKeys(upd.PermissionKeys)
		if err != nil {
			return RoleDetail{}, err
		}
		upd.PermissionKeys = keys
	}
	details := updateDetails(map[string]any{
		"name":        upd.Name,
		"description": upd.Description,
	})
	if upd.PermissionKeys != nil {
		details["permissions"] = upd.PermissionKeys
	}
	rec := s.record(ctx, "", "role.updated", "role", id, "role updated", details)
	var role Role
	err := s.retry(ctx, func() error {
		var err error
		role, err = s.store.UpdateRole(ctx, id, upd, rec)
		return err
	})
	if err != nil {
		return RoleDetail{}, err
	}
	keys := upd.PermissionKeys
	if keys == nil {
		if keys, err = s.store.RolePermissionKeys(ctx, id); err != nil {
			return RoleDetail{}, err
		}
	}
	return RoleDetail{Role: role, PermissionKeys: keys}, nil
}

// SetRolePermissions replaces the role's permission set with exactly keys.
func (s *Service) SetRolePermissions(ctx context.Context, id string, keys []string) (RoleDetail, error) {
	if keys == nil {
		keys = []string{}
	}
	return s.UpdateRole(ctx, id, RoleUpdate{PermissionKeys: keys})
}

func (s *Service) DeleteRole(ctx context.Context, id string) error {
	rec := s.record(ctx, "", "role.deleted", "role", id, "role deleted", nil)
	return s.retry(ctx, func() error {
		return s.store.DeleteRole(ctx, id, rec)
	})
}

func (s *Service) ListBindings(ctx context.Context, principalID string) ([]Binding, error) {
	return s.store.ListBindings(ctx, principalID)
}

// SyncBindings reconciles a principal's bindings against the desired set.
// Bindings absent from desired are removed, missing ones created, and role
// changes applied, all in one transaction. Re-submitting the same set is a
// no-op.
func (s *Service) SyncBindings(ctx context.Context, principalID string, desired []BindingSpec) (SyncResult, error) {
	principalID = strings.TrimSpace(principalID)
	if principalID == "" {
		return SyncResult{}, fmt.Errorf("%w: principal id is required", ErrInvalidInput)
	}
	seen := make(map[string]struct{}, len(desired))
	for i, spec := range desired {
		if strings.TrimSpace(spec.TenantID) == "" || strings.TrimSpace(spec.RoleID) == "" {
			return SyncResult{}, fmt.Errorf("%w: binding %d is missing tenant or role", ErrInvalidInput, i)
		}
		if _, dup := seen[spec.TenantID]; dup {
			return SyncResult{}, fmt.Errorf("%w: duplicate tenant %s in bindings", ErrInvalidInput, spec.TenantID)
		}
		seen[spec.TenantID] = struct{}{}
	}
	rec := s.record(ctx, "", "bindings.synced", "principal", principalID,
		"bindings reconciled", map[string]any{"desired": len(desired)})
	var result SyncResult
	err := s.retry(ctx, func() error {
		var err error
		result, err = s.store.SyncBindings(ctx, principalID, desired, rec)
		return err
	})
	if err != nil {
		return SyncResult{}, err
	}
	return result, nil
}

// record builds the audit record for a mutation. The acting principal comes
// from the request context; system-initiated mutations carry no actor.
func (s *Service) record(ctx context.Context, tenantID, action, entity, entityID, message string, details map[string]any) *audit.Record {
	rec := &audit.Record{
		TenantID: tenantID,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Message:  message,
		Details:  details,
	}
	if actor, ok := PrincipalFromContext(ctx); ok {
		rec.PrincipalID = actor.ID
	}
	return rec
}

// retry re-runs fn after serialization failures, up to txRetries attempts.
func (s *Service) retry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < txRetries; attempt++ {
		if err = fn(); !errors.Is(err, ErrTxConflict) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return err
}

// validateKeys dedupes and validates permission keys against the catalog
// before any write happens.
func validateKeys(keys []string) ([]string, error) {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if !Known(key) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPermissionKey, key)
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out, nil
}

// updateDetails keeps only the fields the caller actually set.
func updateDetails(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		switch p := v.(type) {
		case *string:
			if p != nil {
				out[k] = *p
			}
		case *bool:
			if p != nil {
				out[k] = *p
			}
		case []string:
			if p != nil {
				out[k] = p
			}
		}
	}
	return out
}
