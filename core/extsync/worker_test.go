package extsync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/propscan/scheduler/core/events"
	"github.com/propscan/scheduler/core/model"
	"github.com/propscan/scheduler/core/store"
	"github.com/propscan/scheduler/infra/logger"
)

var base = time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

type fakeProvider struct {
	upserts int
	deletes int
	deleted []string
	err     error
}

func (f *fakeProvider) UpsertEvent(_ context.Context, insp model.Inspection, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.upserts++
	return "ext-" + insp.ID, nil
}

func (f *fakeProvider) DeleteEvent(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.deletes++
	f.deleted = append(f.deleted, id)
	return nil
}

func newTestWorker(t *testing.T, st *store.MemoryStore, p Provider, now time.Time) *Worker {
	t.Helper()
	w, err := NewWorker(st, p, nil, logger.NopLogger{}, Config{})
	if err != nil {
		t.Fatalf("new worker: %v", err)
	}
	w.now = func() time.Time { return now }
	return w
}

func seedScheduled(t *testing.T, st *store.MemoryStore, id string) {
	t.Helper()
	err := st.InsertInspection(context.Background(), model.Inspection{
		ID:              id,
		LeadID:          "lead-" + id,
		TechnicianID:    "t1",
		Territory:       "Richmond",
		ScheduledStart:  base.Add(24 * time.Hour),
		DurationMinutes: 120,
		Status:          model.StatusScheduled,
	})
	if err != nil {
		t.Fatalf("seed inspection: %v", err)
	}
}

func TestProcessDue_UpsertsAndStoresEventID(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	seedScheduled(t, st, "i1")
	p := &fakeProvider{}
	w := newTestWorker(t, st, p, base)

	if err := w.Enqueue(ctx, "i1", model.SyncOpUpsert); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	n, err := w.ProcessDue(ctx)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if n != 1 || p.upserts != 1 {
		t.Fatalf("expected one upsert got n=%d upserts=%d", n, p.upserts)
	}

	rec, err := st.GetSyncRecord(ctx, "i1")
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if rec.Status != model.SyncSynced || rec.ExternalEventID != "ext-i1" {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestProcessDue_RetriesWithCappedBackoff(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	seedScheduled(t, st, "i1")
	p := &fakeProvider{err: errors.New("quota exceeded")}
	w := newTestWorker(t, st, p, base)

	if err := w.Enqueue(ctx, "i1", model.SyncOpUpsert); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := w.ProcessDue(ctx); err != nil {
		t.Fatalf("process: %v", err)
	}

	rec, _ := st.GetSyncRecord(ctx, "i1")
	if rec.Status != model.SyncFailedRetrying || rec.Attempts != 1 {
		t.Fatalf("expected first retry got %+v", rec)
	}
	if !rec.NextAttempt.Equal(base.Add(time.Minute)) {
		t.Fatalf("expected 1m backoff got %s", rec.NextAttempt.Sub(base))
	}
}

func TestProcessDue_AbandonsAfterMaxAttempts(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	seedScheduled(t, st, "i1")
	p := &fakeProvider{err: errors.New("provider down")}
	w := newTestWorker(t, st, p, base)

	if err := w.Enqueue(ctx, "i1", model.SyncOpUpsert); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	for i := 0; i < 10; i++ {
		w.now = func() time.Time { return base.Add(time.Duration(i+1) * 2 * time.Hour) }
		if _, err := w.ProcessDue(ctx); err != nil {
			t.Fatalf("process %d: %v", i, err)
		}
	}

	rec, _ := st.GetSyncRecord(ctx, "i1")
	if rec.Status != model.SyncAbandoned || rec.Attempts != 10 {
		t.Fatalf("expected ABANDONED after 10 attempts got %+v", rec)
	}

	// Abandoned records are never retried.
	if _, err := w.ProcessDue(ctx); err != nil {
		t.Fatalf("process: %v", err)
	}
	rec, _ = st.GetSyncRecord(ctx, "i1")
	if rec.Attempts != 10 {
		t.Fatalf("abandoned record was retried: %+v", rec)
	}
}

func TestProcess_ConvertsStaleUpsertToDelete(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	seedScheduled(t, st, "i1")
	p := &fakeProvider{}
	w := newTestWorker(t, st, p, base)

	if err := w.Enqueue(ctx, "i1", model.SyncOpUpsert); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := w.ProcessDue(ctx); err != nil {
		t.Fatalf("process: %v", err)
	}

	// Cancel the booking, then queue another upsert as a reschedule would.
	insp, _ := st.GetInspection(ctx, "i1")
	insp.Status = model.StatusCancelled
	if err := st.UpdateInspection(ctx, insp); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := w.Enqueue(ctx, "i1", model.SyncOpUpsert); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := w.ProcessDue(ctx); err != nil {
		t.Fatalf("process: %v", err)
	}

	if p.deletes != 1 || p.deleted[0] != "ext-i1" {
		t.Fatalf("expected the mirrored event to be deleted, got %+v", p.deleted)
	}
	rec, _ := st.GetSyncRecord(ctx, "i1")
	if rec.ExternalEventID != "" {
		t.Fatalf("expected external id cleared got %q", rec.ExternalEventID)
	}
}

func TestHandleEvent_MapsKindsToOps(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	seedScheduled(t, st, "i1")
	w := newTestWorker(t, st, &fakeProvider{}, base)

	w.HandleEvent(ctx, events.BookingEvent{Kind: events.BookingCreated, Inspection: model.Inspection{ID: "i1"}})
	rec, err := st.GetSyncRecord(ctx, "i1")
	if err != nil || rec.Op != model.SyncOpUpsert {
		t.Fatalf("expected UPSERT queued got %+v (%v)", rec, err)
	}

	w.HandleEvent(ctx, events.BookingEvent{Kind: events.BookingCancelled, Inspection: model.Inspection{ID: "i1"}})
	rec, _ = st.GetSyncRecord(ctx, "i1")
	if rec.Op != model.SyncOpDelete {
		t.Fatalf("expected DELETE queued got %+v", rec)
	}
}
