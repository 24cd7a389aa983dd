package access

import (
	"context"
	"errors"
	"testing"
)

type fakeReaders struct {
	bindings map[string]Binding  // tenantID|principalID -> binding
	rolePerm map[string][]string // roleID -> permission keys
	err      error
}

func (f *fakeReaders) FindActiveBinding(_ context.Context, tenantID, principalID string) (Binding, error) {
	if f.err != nil {
		return Binding{}, f.err
	}
	b, ok := f.bindings[tenantID+"|"+principalID]
	if !ok {
		return Binding{}, ErrNotFound
	}
	return b, nil
}

func (f *fakeReaders) RolePermissionKeys(_ context.Context, roleID string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rolePerm[roleID], nil
}

func newTestEngine(t *testing.T, f *fakeReaders) *Engine {
	t.Helper()
	e, err := NewEngine(f, f)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestAuthorizeSuperuserBypassesEverything(t *testing.T) {
	e := newTestEngine(t, &fakeReaders{})
	d, err := e.Authorize(context.Background(), Principal{ID: "u1", Superuser: true}, "", "finance.charge")
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if !d.Allowed || d.Reason != ReasonSuperuser {
		t.Fatalf("unexpected decision %+v", d)
	}
}

func TestAuthorizeGrantedThroughBinding(t *testing.T) {
	f := &fakeReaders{
		bindings: map[string]Binding{"t1|u1": {ID: "b1", TenantID: "t1", PrincipalID: "u1", RoleID: "r1", Active: true}},
		rolePerm: map[string][]string{"r1": {"customer.read"}},
	}
	e := newTestEngine(t, f)

	d, err := e.Authorize(context.Background(), Principal{ID: "u1"}, "t1", "customer.read")
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if !d.Allowed || d.Reason != ReasonGranted {
		t.Fatalf("unexpected decision %+v", d)
	}
}

func TestAuthorizeDeniesMissingPermission(t *testing.T) {
	f := &fakeReaders{
		bindings: map[string]Binding{"t1|u1": {ID: "b1", TenantID: "t1", PrincipalID: "u1", RoleID: "r1", Active: true}},
		rolePerm: map[string][]string{"r1": {"customer.read"}},
	}
	e := newTestEngine(t, f)

	d, err := e.Authorize(context.Background(), Principal{ID: "u1"}, "t1", "customer.update")
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if d.Allowed || d.Reason != ReasonInsufficientPermission {
		t.Fatalf("unexpected decision %+v", d)
	}
}

func TestAuthorizeDeniesWithoutBinding(t *testing.T) {
	f := &fakeReaders{
		bindings: map[string]Binding{"t1|u1": {ID: "b1", TenantID: "t1", PrincipalID: "u1", RoleID: "r1", Active: true}},
		rolePerm: map[string][]string{"r1": {"customer.read"}},
	}
	e := newTestEngine(t, f)

	d, err := e.Authorize(context.Background(), Principal{ID: "u1"}, "t2", "customer.read")
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if d.Allowed || d.Reason != ReasonNoBinding {
		t.Fatalf("unexpected decision %+v", d)
	}
}

func TestAuthorizeRejectsEmptyInputs(t *testing.T) {
	e := newTestEngine(t, &fakeReaders{})
	if _, err := e.Authorize(context.Background(), Principal{ID: "u1"}, "t1", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty permission, got %v", err)
	}
	if _, err := e.Authorize(context.Background(), Principal{ID: "u1"}, "", "customer.read"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty tenant, got %v", err)
	}
}

func TestAuthorizePropagatesStoreError(t *testing.T) {
	boom := errors.New("store down")
	e := newTestEngine(t, &fakeReaders{err: boom})
	if _, err := e.Authorize(context.Background(), Principal{ID: "u1"}, "t1", "customer.read"); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}
