// Package store defines the calendar store contract: the single source of
// truth for technicians, inspections, reminder jobs and sync records.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/propscan/scheduler/core/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// InspectionFilter narrows ListInspections. Zero fields are ignored.
type InspectionFilter struct {
	TechnicianID     string
	From             time.Time
	To               time.Time
	IncludeCancelled bool
}

// ReminderFilter narrows ListReminderJobs. Zero fields are ignored.
type ReminderFilter struct {
	InspectionID string
	Status       model.ReminderStatus
	DueBefore    time.Time
}

// SyncFilter narrows ListSyncRecords. Zero fields are ignored.
type SyncFilter struct {
	Status    model.SyncStatus
	DueBefore time.Time
}

// CalendarStore is the durable record behind the scheduling engine. Reads are
// snapshot-consistent; only the booking coordinator writes inspection rows.
type CalendarStore interface {
	GetTechnician(ctx context.Context, id string) (model.Technician, error)
	ListTechnicians(ctx context.Context, activeOnly bool) ([]model.Technician, error)
	UpsertTechnician(ctx context.Context, t model.Technician) error

	GetInspection(ctx context.Context, id string) (model.Inspection, error)
	InsertInspection(ctx context.Context, i model.Inspection) error
	UpdateInspection(ctx context.Context, i model.Inspection) error
	// ListInspections returns matching inspections ordered by start time.
	ListInspections(ctx context.Context, f InspectionFilter) ([]model.Inspection, error)

	InsertReminderJob(ctx context.Context, j model.ReminderJob) error
	UpdateReminderJob(ctx context.Context, j model.ReminderJob) error
	ListReminderJobs(ctx context.Context, f ReminderFilter) ([]model.ReminderJob, error)

	GetSyncRecord(ctx context.Context, inspectionID string) (model.SyncRecord, error)
	UpsertSyncRecord(ctx context.Context, r model.SyncRecord) error
	ListSyncRecords(ctx context.Context, f SyncFilter) ([]model.SyncRecord, error)
}
