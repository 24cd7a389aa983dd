package access

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"floorline.org/internal/obs"
)

// Deny reasons. Internal diagnostics only; callers surface a generic denial.
const (
	ReasonSuperuser              = "superuser"
	ReasonGranted                = "granted"
	ReasonNoBinding              = "no_binding"
	ReasonInsufficientPermission = "insufficient_permission"
)

// Decision is the outcome of one authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

// Engine decides whether a principal may perform an operation against a
// tenant. It is stateless: every call loads the current binding and role
// permission set, so role edits take effect on the very next request.
type Engine struct {
	bindings BindingReader
	roles    RolePermissionReader
}

func NewEngine(bindings BindingReader, roles RolePermissionReader) (*Engine, error) {
	if bindings == nil || roles == nil {
		return nil, errors.New("access: engine requires binding and role readers")
	}
	return &Engine{bindings: bindings, roles: roles}, nil
}

// Authorize checks whether principal may exercise permission within tenantID.
// Superusers are allowed unconditionally; this is the single privileged
// bypass in the system.
func (e *Engine) Authorize(ctx context.Context, principal Principal, tenantID, permission string) (Decision, error) {
	permission = strings.TrimSpace(permission)
	if permission == "" {
		return Decision{}, fmt.Errorf("%w: permission is required", ErrInvalidInput)
	}

	if principal.Superuser {
		obs.ObserveAuthzDecision("allow", ReasonSuperuser)
		return Decision{Allowed: true, Reason: ReasonSuperuser}, nil
	}

	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return Decision{}, fmt.Errorf("%w: tenant is required", ErrInvalidInput)
	}

	binding, err := e.bindings.FindActiveBinding(ctx, tenantID, principal.ID)
	if errors.Is(err, ErrNotFound) {
		obs.ObserveAuthzDecision("deny", ReasonNoBinding)
		return Decision{Allowed: false, Reason: ReasonNoBinding}, nil
	}
	if err != nil {
		return Decision{}, err
	}

	keys, err := e.roles.RolePermissionKeys(ctx, binding.RoleID)
	if err != nil {
		return Decision{}, err
	}
	for _, key := range keys {
		if key == permission {
			obs.ObserveAuthzDecision("allow", ReasonGranted)
			return Decision{Allowed: true, Reason: ReasonGranted}, nil
		}
	}

	obs.ObserveAuthzDecision("deny", ReasonInsufficientPermission)
	return Decision{Allowed: false, Reason: ReasonInsufficientPermission}, nil
}
