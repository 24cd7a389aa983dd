package access

import "errors"

var (
	ErrNotFound     = errors.New("access: not found")
	ErrConflict     = errors.New("access: resource conflict")
	ErrInvalidInput = errors.New("access: invalid input")
	ErrTxConflict   = errors.New("access: transaction conflict")

	// Tenant resolution failures. Never defaulted; always surfaced.
	ErrTenantUnresolved = errors.New("access: tenant unresolved")
	ErrTenantMismatch   = errors.New("access: tenant mismatch")

	// ErrForbidden is the generic authorization denial surfaced to callers.
	// The underlying deny reason stays in diagnostics only.
	ErrForbidden = errors.New("access: forbidden")

	ErrRoleInUse            = errors.New("access: role in use")
	ErrUnknownPermissionKey = errors.New("access: unknown permission key")
)
