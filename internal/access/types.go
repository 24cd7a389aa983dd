package access

import "time"

// Tenant is an isolated business unit. Deactivating a tenant hides it from
// normal operation without deleting its history.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Active    bool      `json:"active"`
	Modules   []string  `json:"modules,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Principal is an authenticated actor. Superuser is a global escalation that
// bypasses tenant and permission checks; it is not scoped per tenant.
type Principal struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Active    bool      `json:"active"`
	Superuser bool      `json:"superuser"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Permission is one immutable catalog entry. The catalog is fixed at build
// time; end users never edit it.
type Permission struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// Role is a named, keyed set of permissions. The key never changes once
// assigned; the permission set may be replaced wholesale.
type Role struct {
	ID          string    `json:"id"`
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RoleSummary is the admin listing shape.
type RoleSummary struct {
	Role
	PermissionCount int `json:"permission_count"`
	BindingCount    int `json:"binding_count"`
}

// RoleDetail carries the role together with its full permission set.
type RoleDetail struct {
	Role
	PermissionKeys []string `json:"permission_keys"`
}

// Binding grants one principal one role within one tenant. At most one
// binding exists per (tenant, principal) pair; the store enforces this as a
// uniqueness constraint, not a convention.
type Binding struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	PrincipalID string    `json:"principal_id"`
	RoleID      string    `json:"role_id"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BindingSpec is the desired shape of one binding during reconciliation.
type BindingSpec struct {
	TenantID string `json:"tenant_id"`
	RoleID   string `json:"role_id"`
}

// SyncResult reports what a binding reconciliation changed.
type SyncResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Removed int `json:"removed"`
}

// TenantSummary is the admin listing shape for tenants.
type TenantSummary struct {
	Tenant
	BindingCount int `json:"binding_count"`
}

// PrincipalSummary is the admin listing shape for principals.
type PrincipalSummary struct {
	Principal
	BindingCount int `json:"binding_count"`
}

// TenantUpdate describes a partial tenant update; nil fields stay untouched.
type TenantUpdate struct {
	Name    *string
	Slug    *string
	Active  *bool
	Modules []string
}

// PrincipalUpdate describes a partial principal update.
type PrincipalUpdate struct {
	Name      *string
	Active    *bool
	Superuser *bool
}

// RoleUpdate describes a partial role update. A non-nil PermissionKeys slice
// triggers full-set replacement of the role's permissions; an empty non-nil
// slice clears them.
type RoleUpdate struct {
	Name           *string
	Description    *string
	PermissionKeys []string
}
