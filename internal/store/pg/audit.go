package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"floorline.org/internal/audit"
)

// Append inserts one trail record. Callers normalize the record first; the
// insert is plain because the table carries no update or delete path.
func (s *Store) Append(ctx context.Context, rec *audit.Record) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	if rec == nil {
		return fmt.Errorf("%w: record is required", audit.ErrInvalidInput)
	}
	details := []byte("{}")
	if len(rec.Details) > 0 {
		raw, err := json.Marshal(rec.Details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
		details = raw
	}
	_, err := s.db.ExecContext(ctx, `
		insert into audit_log (id, tenant_id, user_id, action, entity, entity_id, message, details, created_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, rec.ID, nullIfEmpty(rec.TenantID), nullIfEmpty(rec.PrincipalID), rec.Action,
		nullIfEmpty(rec.Entity), nullIfEmpty(rec.EntityID), nullIfEmpty(rec.Message), details, rec.CreatedAt)
	return err
}

// List returns one page of records, newest first, plus the total count for
// the same filters regardless of pagination.
func (s *Store) List(ctx context.Context, f audit.Filter) ([]audit.Record, int, error) {
	if s.db == nil {
		return nil, 0, errors.New("database connection unavailable")
	}

	var (
		conds []string
		args  []any
		idx   = 1
	)
	if f.TenantID != "" {
		conds = append(conds, fmt.Sprintf("tenant_id = $%d", idx))
		args = append(args, f.TenantID)
		idx++
	}
	if f.PrincipalID != "" {
		conds = append(conds, fmt.Sprintf("user_id = $%d", idx))
		args = append(args, f.PrincipalID)
		idx++
	}
	if f.Action != "" {
		conds = append(conds, fmt.Sprintf("action = $%d", idx))
		args = append(args, f.Action)
		idx++
	}
	where := ""
	if len(conds) > 0 {
		where = " where " + strings.Join(conds, " and ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `select count(*) from audit_log`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		select id, tenant_id, user_id, action, entity, entity_id, message, details, created_at
		from audit_log%s
		order by created_at desc, id desc
		limit $%d offset $%d
	`, where, idx, idx+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []audit.Record
	for rows.Next() {
		var (
			rec                                     audit.Record
			tenantID, userID, entity, entityID, msg sql.NullString
			details                                 []byte
		)
		if err := rows.Scan(&rec.ID, &tenantID, &userID, &rec.Action, &entity, &entityID, &msg, &details, &rec.CreatedAt); err != nil {
			return nil, 0, err
		}
		rec.TenantID = tenantID.String
		rec.PrincipalID = userID.String
		rec.Entity = entity.String
		rec.EntityID = entityID.String
		rec.Message = msg.String
		if len(details) > 0 {
			if err := json.Unmarshal(details, &rec.Details); err != nil {
				return nil, 0, fmt.Errorf("decode audit details: %w", err)
			}
			if len(rec.Details) == 0 {
				rec.Details = nil
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return records, total, nil
}
