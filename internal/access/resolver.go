package access

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Resolver binds a request to a tenant. The requested identifier comes from
// the request's routing context (header or token claim); it is never
// defaulted or guessed.
type Resolver struct {
	tenants  TenantReader
	bindings BindingReader
}

func NewResolver(tenants TenantReader, bindings BindingReader) (*Resolver, error) {
	if tenants == nil || bindings == nil {
		return nil, errors.New("access: resolver requires tenant and binding readers")
	}
	return &Resolver{tenants: tenants, bindings: bindings}, nil
}

// Resolve returns the active tenant for this request or fails hard.
//
// A superuser's explicit tenant claim is honored verbatim, since superusers
// are not tenant-bound. An ordinary principal must name a tenant that is
// active and covered by one of their active bindings; anything else is
// ErrTenantUnresolved (nothing requested) or ErrTenantMismatch (requested
// tenant not available to this principal).
func (r *Resolver) Resolve(ctx context.Context, principal Principal, requested string) (Tenant, error) {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return Tenant{}, ErrTenantUnresolved
	}

	tenant, err := r.tenants.GetTenant(ctx, requested)
	if errors.Is(err, ErrNotFound) {
		if principal.Superuser {
			return Tenant{}, fmt.Errorf("%w: tenant %s", ErrNotFound, requested)
		}
		return Tenant{}, ErrTenantMismatch
	}
	if err != nil {
		return Tenant{}, err
	}

	if principal.Superuser {
		return tenant, nil
	}

	if !tenant.Active {
		return Tenant{}, ErrTenantMismatch
	}
	if _, err := r.bindings.FindActiveBinding(ctx, tenant.ID, principal.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Tenant{}, ErrTenantMismatch
		}
		return Tenant{}, err
	}
	return tenant, nil
}
