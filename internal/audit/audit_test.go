package audit

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeStore struct {
	appended []Record
	appendFn func(*Record) error
	listFn   func(Filter) ([]Record, int, error)
	lastList Filter
}

func (f *fakeStore) Append(_ context.Context, rec *Record) error {
	if f.appendFn != nil {
		if err := f.appendFn(rec); err != nil {
			return err
		}
	}
	f.appended = append(f.appended, *rec)
	return nil
}

func (f *fakeStore) List(_ context.Context, filter Filter) ([]Record, int, error) {
	f.lastList = filter
	if f.listFn != nil {
		return f.listFn(filter)
	}
	return nil, 0, nil
}

func TestRecordStampsIDAndTime(t *testing.T) {
	store := &fakeStore{}
	svc, err := NewService(store)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.WithClock(func() time.Time { return fixed })

	rec := &Record{Action: " role.create ", Entity: "role", EntityID: "r-1"}
	if err := svc.Record(context.Background(), rec); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("expected generated id")
	}
	if !rec.CreatedAt.Equal(fixed) {
		t.Fatalf("unexpected timestamp: %v", rec.CreatedAt)
	}
	if rec.Action != "role.create" {
		t.Fatalf("action not trimmed: %q", rec.Action)
	}
	if len(store.appended) != 1 {
		t.Fatalf("expected one appended record, got %d", len(store.appended))
	}
}

func TestRecordRejectsMissingFields(t *testing.T) {
	svc, _ := NewService(&fakeStore{})

	if err := svc.Record(context.Background(), &Record{Entity: "role"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing action, got %v", err)
	}
	if err := svc.Record(context.Background(), &Record{Action: "role.create"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing entity, got %v", err)
	}
	if err := svc.Record(context.Background(), nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for nil record, got %v", err)
	}
}

func TestRecordPropagatesStoreFailure(t *testing.T) {
	boom := errors.New("disk full")
	svc, _ := NewService(&fakeStore{appendFn: func(*Record) error { return boom }})

	err := svc.Record(context.Background(), &Record{Action: "role.create", Entity: "role"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected store failure to surface, got %v", err)
	}
}

func TestQueryBoundsPagination(t *testing.T) {
	store := &fakeStore{}
	svc, _ := NewService(store)

	if _, _, err := svc.Query(context.Background(), Filter{Limit: 0, Offset: -5}); err != nil {
		t.Fatalf("Query: %v", err)
	}
	if store.lastList.Limit != defaultQueryLimit {
		t.Fatalf("expected default limit, got %d", store.lastList.Limit)
	}
	if store.lastList.Offset != 0 {
		t.Fatalf("expected clamped offset, got %d", store.lastList.Offset)
	}

	if _, _, err := svc.Query(context.Background(), Filter{Limit: 10_000}); err != nil {
		t.Fatalf("Query: %v", err)
	}
	if store.lastList.Limit != maxQueryLimit {
		t.Fatalf("expected capped limit, got %d", store.lastList.Limit)
	}
}

func TestQueryReturnsTotalFromStore(t *testing.T) {
	store := &fakeStore{listFn: func(f Filter) ([]Record, int, error) {
		return []Record{{ID: "a"}, {ID: "b"}}, 42, nil
	}}
	svc, _ := NewService(store)

	recs, total, err := svc.Query(context.Background(), Filter{TenantID: " t1 ", Limit: 2})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if total != 42 {
		t.Fatalf("expected total 42 independent of page size, got %d", total)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if store.lastList.TenantID != "t1" {
		t.Fatalf("tenant filter not trimmed: %q", store.lastList.TenantID)
	}
}
