package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"floorline.org/internal/access"
	"floorline.org/internal/audit"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewWithDB(db), mock
}

func auditRec(action string) *audit.Record {
	return &audit.Record{Action: action, Entity: "role", EntityID: "r1", PrincipalID: "admin-1"}
}

func TestCreateTenantAppendsAuditInSameTx(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("insert into tenants").
		WithArgs(sqlmock.AnyArg(), "Main Store", "main-store", true, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec("insert into audit_log").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "tenant.created", sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tenant := access.Tenant{Name: "Main Store", Slug: "main-store", Active: true}
	rec := &audit.Record{Action: "tenant.created", Entity: "tenant"}
	if err := store.CreateTenant(context.Background(), &tenant, rec); err != nil {
		t.Fatalf("CreateTenant: %v", err)
	}
	if tenant.ID == "" {
		t.Fatal("expected tenant id to be assigned")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateTenantMapsUniqueViolation(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("insert into tenants").
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})
	mock.ExpectRollback()

	tenant := access.Tenant{Name: "Main Store", Slug: "main-store", Active: true}
	err := store.CreateTenant(context.Background(), &tenant, nil)
	if !errors.Is(err, access.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestCreateTenantRollsBackWhenAuditInsertFails(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("insert into tenants").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec("insert into audit_log").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	tenant := access.Tenant{Name: "Main Store", Slug: "main-store", Active: true}
	rec := &audit.Record{Action: "tenant.created", Entity: "tenant"}
	if err := store.CreateTenant(context.Background(), &tenant, rec); err == nil {
		t.Fatal("expected audit insert failure to fail the mutation")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAuditCounterMovesOnlyAfterCommit(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	counted := 0
	orig := incAuditRecord
	incAuditRecord = func() { counted++ }
	defer func() { incAuditRecord = orig }()

	mock.ExpectBegin()
	mock.ExpectQuery("insert into tenants").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec("insert into audit_log").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit().WillReturnError(errors.New("connection reset"))

	tenant := access.Tenant{Name: "Main Store", Slug: "main-store", Active: true}
	rec := &audit.Record{Action: "tenant.created", Entity: "tenant"}
	if err := store.CreateTenant(context.Background(), &tenant, rec); err == nil {
		t.Fatal("expected commit failure to surface")
	}
	if counted != 0 {
		t.Fatalf("failed commit moved the counter %d times", counted)
	}

	mock.ExpectBegin()
	mock.ExpectQuery("insert into tenants").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec("insert into audit_log").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tenant = access.Tenant{Name: "Outlet", Slug: "outlet", Active: true}
	rec = &audit.Record{Action: "tenant.created", Entity: "tenant"}
	if err := store.CreateTenant(context.Background(), &tenant, rec); err != nil {
		t.Fatalf("CreateTenant: %v", err)
	}
	if counted != 1 {
		t.Fatalf("expected exactly one count after commit, got %d", counted)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteRoleRefusesWhileBound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("select count").
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	err := store.DeleteRole(context.Background(), "r1", auditRec("role.deleted"))
	if !errors.Is(err, access.ErrRoleInUse) {
		t.Fatalf("expected ErrRoleInUse, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteRoleRemovesRoleAndPermissions(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("select count").
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("delete from role_permissions").
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("delete from roles").
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("insert into audit_log").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := store.DeleteRole(context.Background(), "r1", auditRec("role.deleted")); err != nil {
		t.Fatalf("DeleteRole: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteRoleMapsForeignKeyToRoleInUse(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("select count").
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("delete from role_permissions").
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("delete from roles").
		WithArgs("r1").
		WillReturnError(&pgconn.PgError{Code: pgErrForeignKeyViolation})
	mock.ExpectRollback()

	err := store.DeleteRole(context.Background(), "r1", auditRec("role.deleted"))
	if !errors.Is(err, access.ErrRoleInUse) {
		t.Fatalf("expected ErrRoleInUse when a binding appears mid-transaction, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateRoleReplacesPermissionSetAsDiff(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("update roles set").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// current set {customer.read, customer.update}; desired {customer.read, quote.read}
	mock.ExpectQuery("select p.key").
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"key"}).AddRow("customer.read").AddRow("customer.update"))
	mock.ExpectExec("delete from role_permissions").
		WithArgs("r1", "customer.update").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("select id from permissions").
		WithArgs("quote.read").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("perm-quote-read"))
	mock.ExpectExec("insert into role_permissions").
		WithArgs("r1", "perm-quote-read").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("select id, key, name, description").
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "key", "name", "description", "created_at", "updated_at"}).
			AddRow("r1", "sales", "Sales", nil, now, now))
	mock.ExpectExec("insert into audit_log").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	role, err := store.UpdateRole(context.Background(), "r1",
		access.RoleUpdate{PermissionKeys: []string{"customer.read", "quote.read"}}, auditRec("role.updated"))
	if err != nil {
		t.Fatalf("UpdateRole: %v", err)
	}
	if role.Key != "sales" {
		t.Fatalf("unexpected role %+v", role)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateRoleUnknownKeyRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("update roles set").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("select p.key").
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"key"}))
	mock.ExpectQuery("select id from permissions").
		WithArgs("warp.drive").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := store.UpdateRole(context.Background(), "r1",
		access.RoleUpdate{PermissionKeys: []string{"warp.drive"}}, auditRec("role.updated"))
	if !errors.Is(err, access.ErrUnknownPermissionKey) {
		t.Fatalf("expected ErrUnknownPermissionKey, got %v", err)
	}
}

func TestSyncBindingsReconcilesSetDifference(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("select 1 from users").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	// currently bound to t1 (role r1) and t3 (role r3); desired t1 with r2, plus new t2
	mock.ExpectQuery("select tenant_id, role_id").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"tenant_id", "role_id"}).
			AddRow("t1", "r1").AddRow("t3", "r3"))
	mock.ExpectExec("update tenant_users").
		WithArgs("t1", "u1", "r2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("insert into tenant_users").
		WithArgs(sqlmock.AnyArg(), "t2", "u1", "r2").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("delete from tenant_users").
		WithArgs("t3", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("insert into audit_log").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	rec := &audit.Record{Action: "bindings.synced", Entity: "principal", EntityID: "u1"}
	result, err := store.SyncBindings(context.Background(), "u1", []access.BindingSpec{
		{TenantID: "t1", RoleID: "r2"},
		{TenantID: "t2", RoleID: "r2"},
	}, rec)
	if err != nil {
		t.Fatalf("SyncBindings: %v", err)
	}
	if result.Created != 1 || result.Updated != 1 || result.Removed != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if rec.Details["created"] != 1 {
		t.Fatalf("result not reflected in audit details: %+v", rec.Details)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSyncBindingsMapsSerializationFailure(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("select 1 from users").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery("select tenant_id, role_id").
		WithArgs("u1").
		WillReturnError(&pgconn.PgError{Code: pgErrSerializationFail})
	mock.ExpectRollback()

	_, err := store.SyncBindings(context.Background(), "u1",
		[]access.BindingSpec{{TenantID: "t1", RoleID: "r1"}}, nil)
	if !errors.Is(err, access.ErrTxConflict) {
		t.Fatalf("expected ErrTxConflict, got %v", err)
	}
}

func TestFindActiveBindingNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select id, tenant_id, user_id, role_id").
		WithArgs("t1", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "user_id", "role_id", "active", "created_at", "updated_at"}))

	_, err := store.FindActiveBinding(context.Background(), "t1", "u1")
	if !errors.Is(err, access.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
