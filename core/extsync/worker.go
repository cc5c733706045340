// Package extsync mirrors committed bookings into an external calendar
// provider. Sync is asynchronous and best-effort: booking operations never
// wait on the provider, and a record that keeps failing is parked as
// ABANDONED for an operator to inspect.
package extsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/propscan/scheduler/core/events"
	"github.com/propscan/scheduler/core/logger"
	coremetrics "github.com/propscan/scheduler/core/metrics"
	"github.com/propscan/scheduler/core/model"
	"github.com/propscan/scheduler/core/store"
)

// Provider is the external calendar surface. Implementations must be
// idempotent on UpsertEvent for the same inspection.
type Provider interface {
	// UpsertEvent creates or updates the event mirroring the inspection and
	// returns the provider's event id. externalEventID is empty on first sync.
	UpsertEvent(ctx context.Context, insp model.Inspection, externalEventID string) (string, error)
	// DeleteEvent removes the event. Deleting an unknown id must succeed.
	DeleteEvent(ctx context.Context, externalEventID string) error
}

// Worker drains the sync queue against the provider.
type Worker struct {
	store    store.CalendarStore
	provider Provider
	log      logger.Logger
	recorder coremetrics.SyncRecorder
	cfg      Config
	now      func() time.Time
}

// NewWorker creates a Worker. recorder may be nil.
func NewWorker(st store.CalendarStore, provider Provider, recorder coremetrics.SyncRecorder, log logger.Logger, cfg Config) (*Worker, error) {
	if st == nil || provider == nil || log == nil {
		return nil, fmt.Errorf("extsync: nil parameter provided to NewWorker")
	}
	cfg.SetDefaults()
	return &Worker{
		store:    st,
		provider: provider,
		log:      log,
		recorder: recorder,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Enqueue records that the inspection needs the given provider operation.
// An existing record is overwritten: the latest desired state wins.
func (w *Worker) Enqueue(ctx context.Context, inspectionID string, op model.SyncOp) error {
	now := w.now()
	rec := model.SyncRecord{
		InspectionID: inspectionID,
		Op:           op,
		Status:       model.SyncPending,
		NextAttempt:  now,
	}
	if prev, err := w.store.GetSyncRecord(ctx, inspectionID); err == nil {
		rec.ExternalEventID = prev.ExternalEventID
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("load sync record: %w", err)
	}
	if err := w.store.UpsertSyncRecord(ctx, rec); err != nil {
		return fmt.Errorf("enqueue sync: %w", err)
	}
	return nil
}

// HandleEvent queues the provider operation matching a booking event.
func (w *Worker) HandleEvent(ctx context.Context, ev events.BookingEvent) {
	op := model.SyncOpUpsert
	if ev.Kind == events.BookingCancelled {
		op = model.SyncOpDelete
	}
	if err := w.Enqueue(ctx, ev.Inspection.ID, op); err != nil {
		w.log.Errorf("sync enqueue for %s after %s: %v", ev.Inspection.ID, ev.Kind, err)
	}
}

// Run polls until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := w.ProcessDue(ctx); err != nil {
				w.log.Errorf("sync sweep: %v", err)
			} else if n > 0 {
				w.log.Debugf("synced %d record(s)", n)
			}
		}
	}
}

// ProcessDue attempts every due PENDING or FAILED_RETRYING record and returns
// how many synced successfully.
func (w *Worker) ProcessDue(ctx context.Context) (int, error) {
	now := w.now()
	var due []model.SyncRecord
	for _, status := range []model.SyncStatus{model.SyncPending, model.SyncFailedRetrying} {
		recs, err := w.store.ListSyncRecords(ctx, store.SyncFilter{Status: status, DueBefore: now})
		if err != nil {
			return 0, fmt.Errorf("list sync records: %w", err)
		}
		due = append(due, recs...)
	}

	synced := 0
	for _, rec := range due {
		ok, err := w.process(ctx, rec)
		if err != nil {
			w.log.Errorf("sync %s: %v", rec.InspectionID, err)
			continue
		}
		if ok {
			synced++
		}
	}
	return synced, nil
}

func (w *Worker) process(ctx context.Context, rec model.SyncRecord) (bool, error) {
	insp, err := w.store.GetInspection(ctx, rec.InspectionID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("load inspection: %w", err)
	}

	op := rec.Op
	// A booking that left SCHEDULED while queued is only worth deleting.
	if op == model.SyncOpUpsert && insp.Status != model.StatusScheduled {
		if rec.ExternalEventID == "" {
			return true, w.finish(ctx, rec, model.SyncSynced, "")
		}
		op = model.SyncOpDelete
	}

	rec.Attempts++
	rec.LastAttempt = w.now()
	switch op {
	case model.SyncOpUpsert:
		var eventID string
		eventID, err = w.provider.UpsertEvent(ctx, insp, rec.ExternalEventID)
		if err == nil {
			rec.ExternalEventID = eventID
		}
	case model.SyncOpDelete:
		err = w.provider.DeleteEvent(ctx, rec.ExternalEventID)
		if err == nil {
			rec.ExternalEventID = ""
		}
	default:
		return false, fmt.Errorf("unknown sync op %q", op)
	}

	if err == nil {
		syncAttempts.WithLabelValues(string(op), "ok").Inc()
		return true, w.finish(ctx, rec, model.SyncSynced, "")
	}

	rec.LastError = err.Error()
	if rec.Attempts >= w.cfg.MaxAttempts {
		syncAttempts.WithLabelValues(string(op), "abandoned").Inc()
		w.log.Warnf("abandoning sync for %s after %d attempts: %v", rec.InspectionID, rec.Attempts, err)
		return false, w.finish(ctx, rec, model.SyncAbandoned, rec.LastError)
	}
	syncAttempts.WithLabelValues(string(op), "retry").Inc()
	rec.Status = model.SyncFailedRetrying
	rec.NextAttempt = w.now().Add(w.cfg.Backoff(rec.Attempts))
	if uerr := w.store.UpsertSyncRecord(ctx, rec); uerr != nil {
		return false, fmt.Errorf("requeue sync: %w", uerr)
	}
	return false, nil
}

func (w *Worker) finish(ctx context.Context, rec model.SyncRecord, status model.SyncStatus, lastError string) error {
	rec.Status = status
	rec.LastError = lastError
	if err := w.store.UpsertSyncRecord(ctx, rec); err != nil {
		return fmt.Errorf("update sync record: %w", err)
	}
	if w.recorder != nil {
		if err := w.recorder.RecordSync(coremetrics.SyncEvent{
			InspectionID: rec.InspectionID,
			Op:           string(rec.Op),
			Status:       string(status),
			Attempts:     rec.Attempts,
			Time:         w.now(),
		}); err != nil {
			w.log.Errorf("metrics error: %v", err)
		}
	}
	return nil
}
