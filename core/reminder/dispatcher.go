package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/propscan/scheduler/core/logger"
	coremetrics "github.com/propscan/scheduler/core/metrics"
	"github.com/propscan/scheduler/core/model"
	"github.com/propscan/scheduler/core/store"
)

// Notification is the payload handed to a Sender when a reminder fires.
type Notification struct {
	InspectionID     string                `json:"inspection_id"`
	LeadID           string                `json:"lead_id"`
	TechnicianID     string                `json:"technician_id"`
	Channel          model.ReminderChannel `json:"channel"`
	AppointmentStart time.Time             `json:"appointment_start"`
	Territory        string                `json:"territory"`
}

// Sender delivers a reminder notification over one transport.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// Dispatcher polls the store for due reminder jobs and delivers them. Retries
// are tracked in the job row so a restart resumes where it left off.
type Dispatcher struct {
	store    store.CalendarStore
	sender   Sender
	log      logger.Logger
	recorder coremetrics.ReminderRecorder
	cfg      Config
	now      func() time.Time
}

// NewDispatcher creates a Dispatcher. recorder may be nil.
func NewDispatcher(st store.CalendarStore, sender Sender, recorder coremetrics.ReminderRecorder, log logger.Logger, cfg Config) (*Dispatcher, error) {
	if st == nil || sender == nil || log == nil {
		return nil, fmt.Errorf("reminder: nil parameter provided to NewDispatcher")
	}
	cfg.SetDefaults()
	return &Dispatcher{
		store:    st,
		sender:   sender,
		log:      log,
		recorder: recorder,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Run polls until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.PollInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := d.DispatchDue(ctx); err != nil {
				d.log.Errorf("reminder sweep: %v", err)
			} else if n > 0 {
				d.log.Debugf("dispatched %d reminder(s)", n)
			}
		}
	}
}

// DispatchDue delivers every PENDING job whose fire time has passed and
// returns how many were sent. Jobs for bookings that are no longer SCHEDULED
// are cancelled instead of delivered.
func (d *Dispatcher) DispatchDue(ctx context.Context) (int, error) {
	now := d.now()
	jobs, err := d.store.ListReminderJobs(ctx, store.ReminderFilter{
		Status:    model.ReminderPending,
		DueBefore: now,
	})
	if err != nil {
		return 0, fmt.Errorf("list due reminders: %w", err)
	}

	sent := 0
	for _, job := range jobs {
		ok, err := d.dispatch(ctx, job)
		if err != nil {
			d.log.Errorf("reminder %s: %v", job.ID, err)
			continue
		}
		if ok {
			sent++
		}
	}
	return sent, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, job model.ReminderJob) (bool, error) {
	insp, err := d.store.GetInspection(ctx, job.InspectionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, d.finish(ctx, job, model.ReminderCancelled, "inspection deleted")
		}
		return false, fmt.Errorf("load inspection: %w", err)
	}
	if insp.Status != model.StatusScheduled {
		return false, d.finish(ctx, job, model.ReminderCancelled, "booking is "+string(insp.Status))
	}

	err = d.sender.Send(ctx, Notification{
		InspectionID:     insp.ID,
		LeadID:           insp.LeadID,
		TechnicianID:     insp.TechnicianID,
		Channel:          job.Channel,
		AppointmentStart: insp.ScheduledStart,
		Territory:        insp.Territory,
	})
	job.Attempts++
	if err == nil {
		remindersDispatched.WithLabelValues(job.Channel.String(), "sent").Inc()
		return true, d.finish(ctx, job, model.ReminderSent, "")
	}

	job.LastError = err.Error()
	if job.Attempts >= d.cfg.MaxAttempts {
		remindersDispatched.WithLabelValues(job.Channel.String(), "failed").Inc()
		d.log.Warnf("reminder %s failed after %d attempts: %v", job.ID, job.Attempts, err)
		return false, d.finish(ctx, job, model.ReminderFailed, job.LastError)
	}
	job.FireAt = d.now().Add(d.cfg.Backoff(job.Attempts))
	job.UpdatedAt = d.now()
	if uerr := d.store.UpdateReminderJob(ctx, job); uerr != nil {
		return false, fmt.Errorf("requeue reminder: %w", uerr)
	}
	return false, nil
}

// finish writes the terminal status and records the outcome.
func (d *Dispatcher) finish(ctx context.Context, job model.ReminderJob, status model.ReminderStatus, lastError string) error {
	job.Status = status
	job.LastError = lastError
	job.UpdatedAt = d.now()
	if err := d.store.UpdateReminderJob(ctx, job); err != nil {
		return fmt.Errorf("update reminder job: %w", err)
	}
	if d.recorder != nil {
		if err := d.recorder.RecordReminder(coremetrics.ReminderEvent{
			InspectionID: job.InspectionID,
			Channel:      job.Channel.String(),
			Status:       string(status),
			Attempts:     job.Attempts,
			Time:         d.now(),
		}); err != nil {
			d.log.Errorf("metrics error: %v", err)
		}
	}
	return nil
}
