package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"floorline.org/internal/access"
	"floorline.org/internal/audit"
	"floorline.org/internal/ids"
)

func (s *Store) CreateTenant(ctx context.Context, tenant *access.Tenant, rec *audit.Record) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	if tenant.ID == "" {
		tenant.ID = ids.New()
	}
	modules, err := marshalModules(tenant.Modules)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		insert into tenants (id, name, slug, active, modules)
		values ($1, $2, $3, $4, $5)
		returning created_at, updated_at
	`, tenant.ID, tenant.Name, tenant.Slug, tenant.Active, modules)
	if err := row.Scan(&tenant.CreatedAt, &tenant.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return access.ErrConflict
		}
		return mapTxError(err)
	}
	if err := appendAuditTx(ctx, tx, rec); err != nil {
		return err
	}
	return commitWithAudit(tx, rec)
}

func (s *Store) GetTenant(ctx context.Context, id string) (access.Tenant, error) {
	if s.db == nil {
		return access.Tenant{}, errors.New("database connection unavailable")
	}
	return scanTenant(s.db.QueryRowContext(ctx, `
		select id, name, slug, active, modules, created_at, updated_at
		from tenants
		where id = $1
	`, id))
}

func (s *Store) ListTenants(ctx context.Context) ([]access.TenantSummary, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	rows, err := s.db.QueryContext(ctx, `
		select t.id, t.name, t.slug, t.active, t.modules, t.created_at, t.updated_at,
			(select count(*) from tenant_users tu where tu.tenant_id = t.id and tu.active) as binding_count
		from tenants t
		order by t.name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []access.TenantSummary
	for rows.Next() {
		var (
			ts      access.TenantSummary
			rawMods []byte
		)
		if err := rows.Scan(&ts.ID, &ts.Name, &ts.Slug, &ts.Active, &rawMods, &ts.CreatedAt, &ts.UpdatedAt, &ts.BindingCount); err != nil {
			return nil, err
		}
		if ts.Modules, err = unmarshalModules(rawMods); err != nil {
			return nil, err
		}
		result = append(result, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) UpdateTenant(ctx context.Context, id string, upd access.TenantUpdate, rec *audit.Record) (access.Tenant, error) {
	if s.db == nil {
		return access.Tenant{}, errors.New("database connection unavailable")
	}

	var (
		sets []string
		args []any
		idx  = 1
	)
	if upd.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", idx))
		args = append(args, *upd.Name)
		idx++
	}
	if upd.Slug != nil {
		sets = append(sets, fmt.Sprintf("slug = $%d", idx))
		args = append(args, *upd.Slug)
		idx++
	}
	if upd.Active != nil {
		sets = append(sets, fmt.Sprintf("active = $%d", idx))
		args = append(args, *upd.Active)
		idx++
	}
	if upd.Modules != nil {
		modules, err := marshalModules(upd.Modules)
		if err != nil {
			return access.Tenant{}, err
		}
		sets = append(sets, fmt.Sprintf("modules = $%d", idx))
		args = append(args, modules)
		idx++
	}
	if len(sets) == 0 {
		return access.Tenant{}, fmt.Errorf("%w: no tenant fields to update", access.ErrInvalidInput)
	}
	sets = append(sets, "updated_at = now()")
	query := fmt.Sprintf(`update tenants set %s where id = $%d`, strings.Join(sets, ", "), idx)
	args = append(args, id)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return access.Tenant{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return access.Tenant{}, access.ErrConflict
		}
		return access.Tenant{}, mapTxError(err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return access.Tenant{}, err
	}
	if aff == 0 {
		return access.Tenant{}, access.ErrNotFound
	}

	tenant, err := scanTenant(tx.QueryRowContext(ctx, `
		select id, name, slug, active, modules, created_at, updated_at
		from tenants
		where id = $1
	`, id))
	if err != nil {
		return access.Tenant{}, err
	}
	if err := appendAuditTx(ctx, tx, rec); err != nil {
		return access.Tenant{}, err
	}
	if err := commitWithAudit(tx, rec); err != nil {
		return access.Tenant{}, err
	}
	return tenant, nil
}

func (s *Store) GetPrincipal(ctx context.Context, id string) (access.Principal, error) {
	if s.db == nil {
		return access.Principal{}, errors.New("database connection unavailable")
	}
	var p access.Principal
	err := s.db.QueryRowContext(ctx, `
		select id, name, email, active, superuser, created_at, updated_at
		from users
		where id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Email, &p.Active, &p.Superuser, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return access.Principal{}, access.ErrNotFound
	}
	if err != nil {
		return access.Principal{}, err
	}
	return p, nil
}

func (s *Store) ListPrincipals(ctx context.Context, search string) ([]access.PrincipalSummary, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	query := `
		select u.id, u.name, u.email, u.active, u.superuser, u.created_at, u.updated_at,
			(select count(*) from tenant_users tu where tu.user_id = u.id and tu.active) as binding_count
		from users u
	`
	var args []any
	if search != "" {
		query += ` where u.name ilike $1 or u.email ilike $1`
		args = append(args, "%"+search+"%")
	}
	query += ` order by u.email`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []access.PrincipalSummary
	for rows.Next() {
		var ps access.PrincipalSummary
		if err := rows.Scan(&ps.ID, &ps.Name, &ps.Email, &ps.Active, &ps.Superuser, &ps.CreatedAt, &ps.UpdatedAt, &ps.BindingCount); err != nil {
			return nil, err
		}
		result = append(result, ps)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) UpdatePrincipal(ctx context.Context, id string, upd access.PrincipalUpdate, rec *audit.Record) (access.Principal, error) {
	if s.db == nil {
		return access.Principal{}, errors.New("database connection unavailable")
	}

	var (
		sets []string
		args []any
		idx  = 1
	)
	if upd.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", idx))
		args = append(args, *upd.Name)
		idx++
	}
	if upd.Active != nil {
		sets = append(sets, fmt.Sprintf("active = $%d", idx))
		args = append(args, *upd.Active)
		idx++
	}
	if upd.Superuser != nil {
		sets = append(sets, fmt.Sprintf("superuser = $%d", idx))
		args = append(args, *upd.Superuser)
		idx++
	}
	if len(sets) == 0 {
		return access.Principal{}, fmt.Errorf("%w: no principal fields to update", access.ErrInvalidInput)
	}
	sets = append(sets, "updated_at = now()")
	query := fmt.Sprintf(`update users set %s where id = $%d`, strings.Join(sets, ", "), idx)
	args = append(args, id)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return access.Principal{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return access.Principal{}, mapTxError(err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return access.Principal{}, err
	}
	if aff == 0 {
		return access.Principal{}, access.ErrNotFound
	}

	var p access.Principal
	err = tx.QueryRowContext(ctx, `
		select id, name, email, active, superuser, created_at, updated_at
		from users
		where id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Email, &p.Active, &p.Superuser, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return access.Principal{}, err
	}
	if err := appendAuditTx(ctx, tx, rec); err != nil {
		return access.Principal{}, err
	}
	if err := commitWithAudit(tx, rec); err != nil {
		return access.Principal{}, err
	}
	return p, nil
}

func (s *Store) EnsurePermissions(ctx context.Context, perms []access.Permission) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range perms {
		if _, err := tx.ExecContext(ctx, `
			insert into permissions (id, key, label, description)
			values ($1, $2, $3, $4)
			on conflict (key) do update
			set label = excluded.label, description = excluded.description
		`, ids.New(), p.Key, p.Label, nullIfEmpty(p.Description)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) CreateRole(ctx context.Context, role *access.Role, permissionKeys []string, rec *audit.Record) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	if role.ID == "" {
		role.ID = ids.New()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		insert into roles (id, key, name, description)
		values ($1, $2, $3, $4)
		returning created_at, updated_at
	`, role.ID, role.Key, role.Name, nullIfEmpty(role.Description))
	if err := row.Scan(&role.CreatedAt, &role.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return access.ErrConflict
		}
		return mapTxError(err)
	}

	for _, key := range permissionKeys {
		if err := attachPermissionTx(ctx, tx, role.ID, key); err != nil {
			return err
		}
	}
	if err := appendAuditTx(ctx, tx, rec); err != nil {
		return err
	}
	return commitWithAudit(tx, rec)
}

func (s *Store) GetRole(ctx context.Context, id string) (access.Role, error) {
	if s.db == nil {
		return access.Role{}, errors.New("database connection unavailable")
	}
	var (
		role access.Role
		desc sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		select id, key, name, description, created_at, updated_at
		from roles
		where id = $1
	`, id).Scan(&role.ID, &role.Key, &role.Name, &desc, &role.CreatedAt, &role.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return access.Role{}, access.ErrNotFound
	}
	if err != nil {
		return access.Role{}, err
	}
	if desc.Valid {
		role.Description = desc.String
	}
	return role, nil
}

func (s *Store) ListRoles(ctx context.Context) ([]access.RoleSummary, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	rows, err := s.db.QueryContext(ctx, `
		select r.id, r.key, r.name, r.description, r.created_at, r.updated_at,
			(select count(*) from role_permissions rp where rp.role_id = r.id) as permission_count,
			(select count(*) from tenant_users tu where tu.role_id = r.id and tu.active) as binding_count
		from roles r
		order by r.name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []access.RoleSummary
	for rows.Next() {
		var (
			rs   access.RoleSummary
			desc sql.NullString
		)
		if err := rows.Scan(&rs.ID, &rs.Key, &rs.Name, &desc, &rs.CreatedAt, &rs.UpdatedAt, &rs.PermissionCount, &rs.BindingCount); err != nil {
			return nil, err
		}
		if desc.Valid {
			rs.Description = desc.String
		}
		result = append(result, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateRole applies field changes and, when upd.PermissionKeys is non-nil,
// replaces the permission set by diffing against the stored set. Everything
// happens in one serializable transaction so concurrent authorization checks
// never see half a replacement.
func (s *Store) UpdateRole(ctx context.Context, id string, upd access.RoleUpdate, rec *audit.Record) (access.Role, error) {
	if s.db == nil {
		return access.Role{}, errors.New("database connection unavailable")
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return access.Role{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var (
		sets []string
		args []any
		idx  = 1
	)
	if upd.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", idx))
		args = append(args, *upd.Name)
		idx++
	}
	if upd.Description != nil {
		if *upd.Description == "" {
			sets = append(sets, "description = NULL")
		} else {
			sets = append(sets, fmt.Sprintf("description = $%d", idx))
			args = append(args, *upd.Description)
			idx++
		}
	}
	sets = append(sets, "updated_at = now()")
	query := fmt.Sprintf(`update roles set %s where id = $%d`, strings.Join(sets, ", "), idx)
	args = append(args, id)

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return access.Role{}, access.ErrConflict
		}
		return access.Role{}, mapTxError(err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return access.Role{}, err
	}
	if aff == 0 {
		return access.Role{}, access.ErrNotFound
	}

	if upd.PermissionKeys != nil {
		current, err := rolePermissionKeysTx(ctx, tx, id)
		if err != nil {
			return access.Role{}, err
		}
		desired := make(map[string]bool, len(upd.PermissionKeys))
		for _, key := range upd.PermissionKeys {
			desired[key] = true
		}
		for _, key := range current {
			if !desired[key] {
				if _, err := tx.ExecContext(ctx, `
					delete from role_permissions
					where role_id = $1 and permission_id = (select id from permissions where key = $2)
				`, id, key); err != nil {
					return access.Role{}, mapTxError(err)
				}
			}
			delete(desired, key)
		}
		for key := range desired {
			if err := attachPermissionTx(ctx, tx, id, key); err != nil {
				return access.Role{}, err
			}
		}
	}

	var (
		role access.Role
		desc sql.NullString
	)
	err = tx.QueryRowContext(ctx, `
		select id, key, name, description, created_at, updated_at
		from roles
		where id = $1
	`, id).Scan(&role.ID, &role.Key, &role.Name, &desc, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return access.Role{}, err
	}
	if desc.Valid {
		role.Description = desc.String
	}
	if err := appendAuditTx(ctx, tx, rec); err != nil {
		return access.Role{}, err
	}
	if err := commitWithAudit(tx, rec); err != nil {
		return access.Role{}, err
	}
	return role, nil
}

func (s *Store) DeleteRole(ctx context.Context, id string, rec *audit.Record) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// The in-use check and the delete share a transaction; a binding created
	// in between cannot slip through.
	var inUse int
	if err := tx.QueryRowContext(ctx, `
		select count(*) from tenant_users where role_id = $1 and active
	`, id).Scan(&inUse); err != nil {
		return mapTxError(err)
	}
	if inUse > 0 {
		return access.ErrRoleInUse
	}

	if _, err := tx.ExecContext(ctx, `delete from role_permissions where role_id = $1`, id); err != nil {
		return mapTxError(err)
	}
	res, err := tx.ExecContext(ctx, `delete from roles where id = $1`, id)
	if err != nil {
		// A binding created after the count check trips the foreign key
		// instead; same answer for the caller.
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return access.ErrRoleInUse
		}
		return mapTxError(err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return access.ErrNotFound
	}
	if err := appendAuditTx(ctx, tx, rec); err != nil {
		return err
	}
	return commitWithAudit(tx, rec)
}

func (s *Store) RolePermissionKeys(ctx context.Context, roleID string) ([]string, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	rows, err := s.db.QueryContext(ctx, `
		select p.key
		from role_permissions rp
		join permissions p on p.id = rp.permission_id
		where rp.role_id = $1
		order by p.key
	`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

func (s *Store) FindActiveBinding(ctx context.Context, tenantID, principalID string) (access.Binding, error) {
	if s.db == nil {
		return access.Binding{}, errors.New("database connection unavailable")
	}
	var b access.Binding
	err := s.db.QueryRowContext(ctx, `
		select id, tenant_id, user_id, role_id, active, created_at, updated_at
		from tenant_users
		where tenant_id = $1 and user_id = $2 and active
	`, tenantID, principalID).Scan(&b.ID, &b.TenantID, &b.PrincipalID, &b.RoleID, &b.Active, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return access.Binding{}, access.ErrNotFound
	}
	if err != nil {
		return access.Binding{}, err
	}
	return b, nil
}

func (s *Store) ListBindings(ctx context.Context, principalID string) ([]access.Binding, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	rows, err := s.db.QueryContext(ctx, `
		select id, tenant_id, user_id, role_id, active, created_at, updated_at
		from tenant_users
		where user_id = $1
		order by tenant_id
	`, principalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bindings []access.Binding
	for rows.Next() {
		var b access.Binding
		if err := rows.Scan(&b.ID, &b.TenantID, &b.PrincipalID, &b.RoleID, &b.Active, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		bindings = append(bindings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bindings, nil
}

// SyncBindings reconciles the principal's bindings against desired. Bindings
// for tenants absent from desired are deleted, missing ones inserted, and
// role changes applied in place. Runs serializable; re-running the same
// desired set changes nothing.
func (s *Store) SyncBindings(ctx context.Context, principalID string, desired []access.BindingSpec, rec *audit.Record) (access.SyncResult, error) {
	if s.db == nil {
		return access.SyncResult{}, errors.New("database connection unavailable")
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return access.SyncResult{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, `select 1 from users where id = $1`, principalID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return access.SyncResult{}, access.ErrNotFound
		}
		return access.SyncResult{}, mapTxError(err)
	}

	rows, err := tx.QueryContext(ctx, `
		select tenant_id, role_id
		from tenant_users
		where user_id = $1
		for update
	`, principalID)
	if err != nil {
		return access.SyncResult{}, mapTxError(err)
	}
	current := make(map[string]string)
	for rows.Next() {
		var tenantID, roleID string
		if err := rows.Scan(&tenantID, &roleID); err != nil {
			rows.Close()
			return access.SyncResult{}, err
		}
		current[tenantID] = roleID
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return access.SyncResult{}, err
	}
	rows.Close()

	var result access.SyncResult
	wanted := make(map[string]bool, len(desired))
	for _, spec := range desired {
		wanted[spec.TenantID] = true
		roleID, bound := current[spec.TenantID]
		switch {
		case !bound:
			if _, err := tx.ExecContext(ctx, `
				insert into tenant_users (id, tenant_id, user_id, role_id, active)
				values ($1, $2, $3, $4, true)
			`, ids.New(), spec.TenantID, principalID, spec.RoleID); err != nil {
				if pgErr, ok := maybePgError(err); ok {
					switch pgErr.Code {
					case pgErrUniqueViolation:
						return access.SyncResult{}, access.ErrConflict
					case pgErrForeignKeyViolation:
						return access.SyncResult{}, access.ErrNotFound
					}
				}
				return access.SyncResult{}, mapTxError(err)
			}
			result.Created++
		case roleID != spec.RoleID:
			if _, err := tx.ExecContext(ctx, `
				update tenant_users
				set role_id = $3, active = true, updated_at = now()
				where tenant_id = $1 and user_id = $2
			`, spec.TenantID, principalID, spec.RoleID); err != nil {
				if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
					return access.SyncResult{}, access.ErrNotFound
				}
				return access.SyncResult{}, mapTxError(err)
			}
			result.Updated++
		}
	}
	for tenantID := range current {
		if wanted[tenantID] {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			delete from tenant_users
			where tenant_id = $1 and user_id = $2
		`, tenantID, principalID); err != nil {
			return access.SyncResult{}, mapTxError(err)
		}
		result.Removed++
	}

	if rec != nil {
		if rec.Details == nil {
			rec.Details = map[string]any{}
		}
		rec.Details["created"] = result.Created
		rec.Details["updated"] = result.Updated
		rec.Details["removed"] = result.Removed
	}
	if err := appendAuditTx(ctx, tx, rec); err != nil {
		return access.SyncResult{}, err
	}
	if err := commitWithAudit(tx, rec); err != nil {
		return access.SyncResult{}, err
	}
	return result, nil
}

// --- helpers ---

func attachPermissionTx(ctx context.Context, tx *sql.Tx, roleID, key string) error {
	var permID string
	err := tx.QueryRowContext(ctx, `select id from permissions where key = $1`, key).Scan(&permID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", access.ErrUnknownPermissionKey, key)
		}
		return mapTxError(err)
	}
	if _, err := tx.ExecContext(ctx, `
		insert into role_permissions (role_id, permission_id)
		values ($1, $2)
		on conflict do nothing
	`, roleID, permID); err != nil {
		return mapTxError(err)
	}
	return nil
}

func rolePermissionKeysTx(ctx context.Context, tx *sql.Tx, roleID string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `
		select p.key
		from role_permissions rp
		join permissions p on p.id = rp.permission_id
		where rp.role_id = $1
	`, roleID)
	if err != nil {
		return nil, mapTxError(err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func scanTenant(row *sql.Row) (access.Tenant, error) {
	var (
		t       access.Tenant
		rawMods []byte
	)
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Active, &rawMods, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return access.Tenant{}, access.ErrNotFound
	}
	if err != nil {
		return access.Tenant{}, err
	}
	if t.Modules, err = unmarshalModules(rawMods); err != nil {
		return access.Tenant{}, err
	}
	return t, nil
}

func marshalModules(modules []string) ([]byte, error) {
	if modules == nil {
		modules = []string{}
	}
	raw, err := json.Marshal(modules)
	if err != nil {
		return nil, fmt.Errorf("marshal modules: %w", err)
	}
	return raw, nil
}

func unmarshalModules(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var modules []string
	if err := json.Unmarshal(raw, &modules); err != nil {
		return nil, fmt.Errorf("decode modules: %w", err)
	}
	if len(modules) == 0 {
		return nil, nil
	}
	return modules, nil
}
