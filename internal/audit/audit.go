// Package audit provides the immutable trail of accepted state-changing
// actions. Records are created exactly once and are never updated or
// deleted; the store interface deliberately exposes no such operations.
package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"floorline.org/internal/ids"
	"floorline.org/internal/obs"
)

var ErrInvalidInput = errors.New("audit: invalid input")

const (
	defaultQueryLimit = 50
	maxQueryLimit     = 200
)

// Record is one immutable fact describing an accepted mutating action.
// TenantID, PrincipalID and EntityID may be empty for platform-level actions.
type Record struct {
	ID          string         `json:"id"`
	TenantID    string         `json:"tenant_id,omitempty"`
	PrincipalID string         `json:"principal_id,omitempty"`
	Action      string         `json:"action"`
	Entity      string         `json:"entity"`
	EntityID    string         `json:"entity_id,omitempty"`
	Message     string         `json:"message,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Filter narrows a query. Zero-value fields impose no constraint; provided
// fields combine conjunctively.
type Filter struct {
	TenantID    string
	PrincipalID string
	Action      string
	Limit       int
	Offset      int
}

// Store is the persistence boundary for the trail. Append and List are the
// only operations that exist.
type Store interface {
	Append(ctx context.Context, rec *Record) error
	List(ctx context.Context, f Filter) ([]Record, int, error)
}

// Service validates and normalizes records before they reach the store and
// bounds query pagination.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, errors.New("audit store is required")
	}
	return &Service{store: store, now: time.Now}, nil
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(fn func() time.Time) *Service {
	if fn != nil {
		s.now = fn
	}
	return s
}

// Record appends one entry. A failure here is a failure of the operation
// being described; callers must not swallow it.
func (s *Service) Record(ctx context.Context, rec *Record) error {
	if rec == nil {
		return fmt.Errorf("%w: record is required", ErrInvalidInput)
	}
	if err := Normalize(rec, s.now); err != nil {
		return err
	}
	if err := s.store.Append(ctx, rec); err != nil {
		return err
	}
	obs.IncAuditRecord()
	return nil
}

// Query returns one page of records, newest first, together with the total
// number of records matching the filters regardless of pagination.
func (s *Service) Query(ctx context.Context, f Filter) ([]Record, int, error) {
	f.TenantID = strings.TrimSpace(f.TenantID)
	f.PrincipalID = strings.TrimSpace(f.PrincipalID)
	f.Action = strings.TrimSpace(f.Action)
	if f.Limit <= 0 {
		f.Limit = defaultQueryLimit
	}
	if f.Limit > maxQueryLimit {
		f.Limit = maxQueryLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.store.List(ctx, f)
}

// Normalize validates required fields and stamps ID and timestamp. It is
// shared with stores that append records inside a caller-owned transaction.
func Normalize(rec *Record, now func() time.Time) error {
	rec.Action = strings.TrimSpace(rec.Action)
	rec.Entity = strings.TrimSpace(rec.Entity)
	if rec.Action == "" {
		return fmt.Errorf("%w: action is required", ErrInvalidInput)
	}
	if rec.Entity == "" {
		return fmt.Errorf("%w: entity is required", ErrInvalidInput)
	}
	if rec.ID == "" {
		rec.ID = ids.New()
	}
	if rec.CreatedAt.IsZero() {
		if now == nil {
			now = time.Now
		}
		rec.CreatedAt = now().UTC()
	}
	return nil
}
