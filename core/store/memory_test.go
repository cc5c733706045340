package store

import (
	"context"
	"testing"
	"time"

	"github.com/propscan/scheduler/core/model"
)

func TestMemoryStoreTechnicians(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if _, err := s.GetTechnician(ctx, "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
	tech := model.Technician{ID: "t1", Name: "Alice", Active: true,
		Hours: model.WeekTemplate{1: {Start: "07:00", End: "19:00"}}}
	if err := s.UpsertTechnician(ctx, tech); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.UpsertTechnician(ctx, model.Technician{ID: "t2", Name: "Bob"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	active, err := s.ListTechnicians(ctx, true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 1 || active[0].ID != "t1" {
		t.Fatalf("expected only t1 active, got %v", active)
	}
}

func TestMemoryStoreInspectionFilter(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	add := func(id string, hour int, status model.InspectionStatus) {
		t.Helper()
		err := s.InsertInspection(ctx, model.Inspection{
			ID: id, TechnicianID: "t1", Status: status,
			ScheduledStart: day.Add(time.Duration(hour) * time.Hour), DurationMinutes: 120,
		})
		if err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}
	add("b", 11, model.StatusScheduled)
	add("a", 9, model.StatusScheduled)
	add("c", 14, model.StatusCancelled)

	got, err := s.ListInspections(ctx, InspectionFilter{TechnicianID: "t1", From: day, To: day.AddDate(0, 0, 1)})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected cancelled excluded, got %d rows", len(got))
	}
	if got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("expected start-time order, got %v %v", got[0].ID, got[1].ID)
	}

	all, _ := s.ListInspections(ctx, InspectionFilter{TechnicianID: "t1", IncludeCancelled: true})
	if len(all) != 3 {
		t.Fatalf("expected 3 with cancelled, got %d", len(all))
	}
}

func TestMemoryStoreReminderDue(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()
	jobs := []model.ReminderJob{
		{ID: "r1", InspectionID: "i1", Status: model.ReminderPending, FireAt: now.Add(-time.Minute)},
		{ID: "r2", InspectionID: "i1", Status: model.ReminderPending, FireAt: now.Add(time.Hour)},
		{ID: "r3", InspectionID: "i2", Status: model.ReminderSent, FireAt: now.Add(-time.Hour)},
	}
	for _, j := range jobs {
		if err := s.InsertReminderJob(ctx, j); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	due, err := s.ListReminderJobs(ctx, ReminderFilter{Status: model.ReminderPending, DueBefore: now})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(due) != 1 || due[0].ID != "r1" {
		t.Fatalf("expected only r1 due, got %v", due)
	}
}

func TestMemoryStoreSyncRecords(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()
	rec := model.SyncRecord{InspectionID: "i1", Op: model.SyncOpUpsert, Status: model.SyncPending, NextAttempt: now.Add(-time.Second)}
	if err := s.UpsertSyncRecord(ctx, rec); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	due, err := s.ListSyncRecords(ctx, SyncFilter{Status: model.SyncPending, DueBefore: now})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("expected 1 due record got %d", len(due))
	}
	rec.Status = model.SyncSynced
	if err := s.UpsertSyncRecord(ctx, rec); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := s.GetSyncRecord(ctx, "i1")
	if err != nil || got.Status != model.SyncSynced {
		t.Fatalf("expected SYNCED got %v err %v", got.Status, err)
	}
}
