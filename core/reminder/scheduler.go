// Package reminder generates and dispatches appointment reminders. The
// Scheduler regenerates the jobs for a booking whenever it is created or
// moved; the Dispatcher is a polling worker that delivers due jobs with
// bounded retries.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/propscan/scheduler/core/events"
	"github.com/propscan/scheduler/core/logger"
	"github.com/propscan/scheduler/core/model"
	"github.com/propscan/scheduler/core/schedule"
	"github.com/propscan/scheduler/core/store"
)

// Scheduler derives reminder jobs from a booking's schedule. Regeneration is
// idempotent: stale jobs are cancelled, never mutated in place, so repeated
// calls for the same booking converge on one PENDING job per enabled channel.
type Scheduler struct {
	store store.CalendarStore
	log   logger.Logger
	cfg   Config
	now   func() time.Time
}

// NewScheduler creates a Scheduler.
func NewScheduler(st store.CalendarStore, log logger.Logger, cfg Config) (*Scheduler, error) {
	if st == nil || log == nil {
		return nil, fmt.Errorf("reminder: nil parameter provided to NewScheduler")
	}
	cfg.SetDefaults()
	return &Scheduler{
		store: st,
		log:   log,
		cfg:   cfg,
		now:   func() time.Time { return time.Now().UTC() },
	}, nil
}

// Schedule regenerates the reminder jobs for a SCHEDULED booking. settings
// may be nil to use the configured defaults. Jobs whose fire time is already
// past are not created. The resulting PENDING jobs are returned.
func (s *Scheduler) Schedule(ctx context.Context, inspectionID string, settings *model.ReminderSettings) ([]model.ReminderJob, error) {
	insp, err := s.store.GetInspection(ctx, inspectionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &schedule.NotFoundError{Kind: "inspection", ID: inspectionID}
		}
		return nil, fmt.Errorf("load inspection: %w", err)
	}
	if insp.Status != model.StatusScheduled {
		return nil, &schedule.InvalidStateError{InspectionID: inspectionID, From: insp.Status, To: model.StatusScheduled}
	}

	if err := s.CancelAll(ctx, inspectionID); err != nil {
		return nil, err
	}

	eff := s.cfg.Defaults
	if settings != nil {
		eff = *settings
	}
	channels := eff.EnabledChannels()
	if !eff.CustomerReminders && !eff.TechnicianReminders {
		channels = nil
	}

	now := s.now()
	var created []model.ReminderJob
	for _, ch := range channels {
		fireAt := insp.ScheduledStart.Add(-ch.Offset())
		if !fireAt.After(now) {
			s.log.Debugf("skipping %s reminder for %s, fire time %s already past",
				ch, inspectionID, fireAt.Format(time.RFC3339))
			continue
		}
		job := model.ReminderJob{
			ID:           uuid.NewString(),
			InspectionID: inspectionID,
			Channel:      ch,
			FireAt:       fireAt,
			Status:       model.ReminderPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.store.InsertReminderJob(ctx, job); err != nil {
			return nil, fmt.Errorf("insert reminder job: %w", err)
		}
		created = append(created, job)
	}
	s.log.Infof("scheduled %d reminder(s) for %s", len(created), inspectionID)
	return created, nil
}

// CancelAll marks every non-terminal reminder job of the booking CANCELLED.
func (s *Scheduler) CancelAll(ctx context.Context, inspectionID string) error {
	jobs, err := s.store.ListReminderJobs(ctx, store.ReminderFilter{InspectionID: inspectionID})
	if err != nil {
		return fmt.Errorf("list reminder jobs: %w", err)
	}
	now := s.now()
	for _, j := range jobs {
		if j.Status != model.ReminderPending && j.Status != model.ReminderFailed {
			continue
		}
		j.Status = model.ReminderCancelled
		j.UpdatedAt = now
		if err := s.store.UpdateReminderJob(ctx, j); err != nil {
			return fmt.Errorf("cancel reminder job %s: %w", j.ID, err)
		}
	}
	return nil
}

// HandleEvent reacts to a booking lifecycle event: regeneration on create and
// reschedule, cancellation otherwise.
func (s *Scheduler) HandleEvent(ctx context.Context, ev events.BookingEvent) {
	var err error
	switch ev.Kind {
	case events.BookingCreated, events.BookingRescheduled:
		_, err = s.Schedule(ctx, ev.Inspection.ID, nil)
	case events.BookingCancelled, events.BookingCompleted:
		err = s.CancelAll(ctx, ev.Inspection.ID)
	}
	if err != nil {
		s.log.Errorf("reminder update for %s after %s: %v", ev.Inspection.ID, ev.Kind, err)
	}
}
