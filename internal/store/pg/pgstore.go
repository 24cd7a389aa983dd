package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"floorline.org/internal/access"
	"floorline.org/internal/audit"
	"floorline.org/internal/obs"
)

const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
	pgErrSerializationFail   = "40001"
	pgErrDeadlockDetected    = "40P01"
)

type Store struct {
	db *sql.DB
}

var (
	_ access.Store = (*Store)(nil)
	_ audit.Store  = (*Store)(nil)
)

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection; used by tests with sqlmock.
func NewWithDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// mapTxError translates serialization failures so callers can retry.
func mapTxError(err error) error {
	if pgErr, ok := maybePgError(err); ok {
		switch pgErr.Code {
		case pgErrSerializationFail, pgErrDeadlockDetected:
			return access.ErrTxConflict
		}
	}
	return err
}

var incAuditRecord = obs.IncAuditRecord

// commitWithAudit commits the transaction and counts the audit record only
// once the commit succeeded. A rolled-back transaction must not move the
// counter.
func commitWithAudit(tx *sql.Tx, rec *audit.Record) error {
	if err := tx.Commit(); err != nil {
		return mapTxError(err)
	}
	if rec != nil {
		incAuditRecord()
	}
	return nil
}

func nullIfEmpty(s string) sql.NullString {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// appendAuditTx stamps and inserts an audit record inside the caller's
// transaction. A nil record is a no-op so system-initiated writes can skip
// the trail explicitly.
func appendAuditTx(ctx context.Context, tx *sql.Tx, rec *audit.Record) error {
	if rec == nil {
		return nil
	}
	if err := audit.Normalize(rec, time.Now); err != nil {
		return err
	}
	details := []byte("{}")
	if len(rec.Details) > 0 {
		raw, err := json.Marshal(rec.Details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
		details = raw
	}
	_, err := tx.ExecContext(ctx, `
		insert into audit_log (id, tenant_id, user_id, action, entity, entity_id, message, details, created_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, rec.ID, nullIfEmpty(rec.TenantID), nullIfEmpty(rec.PrincipalID), rec.Action,
		nullIfEmpty(rec.Entity), nullIfEmpty(rec.EntityID), nullIfEmpty(rec.Message), details, rec.CreatedAt)
	return err
}
