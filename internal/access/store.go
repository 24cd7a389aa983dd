package access

import (
	"context"

	"floorline.org/internal/audit"
)

// Store describes persistence operations required by the access-control
// subsystem. Every mutator takes the audit record describing it; the record
// must be appended inside the same transaction as the mutation, so the two
// succeed or fail together.
type Store interface {
	CreateTenant(ctx context.Context, tenant *Tenant, rec *audit.Record) error
	GetTenant(ctx context.Context, id string) (Tenant, error)
	ListTenants(ctx context.Context) ([]TenantSummary, error)
	UpdateTenant(ctx context.Context, id string, upd TenantUpdate, rec *audit.Record) (Tenant, error)

	GetPrincipal(ctx context.Context, id string) (Principal, error)
	ListPrincipals(ctx context.Context, search string) ([]PrincipalSummary, error)
	UpdatePrincipal(ctx context.Context, id string, upd PrincipalUpdate, rec *audit.Record) (Principal, error)

	// EnsurePermissions upserts the catalog entries; it runs at startup and
	// never removes rows.
	EnsurePermissions(ctx context.Context, perms []Permission) error

	// CreateRole inserts the role and attaches its initial permission set in
	// one transaction.
	CreateRole(ctx context.Context, role *Role, permissionKeys []string, rec *audit.Record) error
	GetRole(ctx context.Context, id string) (Role, error)
	ListRoles(ctx context.Context) ([]RoleSummary, error)
	// UpdateRole applies name/description changes and, when
	// upd.PermissionKeys is non-nil, atomically replaces the role's
	// permission set. Partial application is not a legal outcome.
	UpdateRole(ctx context.Context, id string, upd RoleUpdate, rec *audit.Record) (Role, error)
	// DeleteRole refuses with ErrRoleInUse while any active binding
	// references the role; the check runs inside the delete transaction.
	DeleteRole(ctx context.Context, id string, rec *audit.Record) error
	RolePermissionKeys(ctx context.Context, roleID string) ([]string, error)

	FindActiveBinding(ctx context.Context, tenantID, principalID string) (Binding, error)
	ListBindings(ctx context.Context, principalID string) ([]Binding, error)
	// SyncBindings reconciles the principal's bindings against desired using
	// set-difference semantics, inside one serializable transaction.
	SyncBindings(ctx context.Context, principalID string, desired []BindingSpec, rec *audit.Record) (SyncResult, error)
}

// BindingReader is the narrow read surface needed by the authorization
// engine and the tenant resolver.
type BindingReader interface {
	FindActiveBinding(ctx context.Context, tenantID, principalID string) (Binding, error)
}

// RolePermissionReader loads a role's current permission set.
type RolePermissionReader interface {
	RolePermissionKeys(ctx context.Context, roleID string) ([]string, error)
}

// TenantReader loads tenants by id.
type TenantReader interface {
	GetTenant(ctx context.Context, id string) (Tenant, error)
}
