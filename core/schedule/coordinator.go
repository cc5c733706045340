package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/propscan/scheduler/core/events"
	"github.com/propscan/scheduler/core/logger"
	coremetrics "github.com/propscan/scheduler/core/metrics"
	"github.com/propscan/scheduler/core/model"
	"github.com/propscan/scheduler/core/store"
	"github.com/propscan/scheduler/internal/eventbus"
)

// Coordinator is the transactional entry point for booking mutations. It is
// the only writer of inspection rows: every create, reschedule, cancel and
// completion funnels through the per-technician reservation lock and a final
// conflict re-check, then fans out events to the background workers.
type Coordinator struct {
	store    store.CalendarStore
	detector *ConflictDetector
	bus      *eventbus.Bus[events.BookingEvent]
	metrics  coremetrics.MetricsSink
	log      logger.Logger
	locks    *lockTable
	cfg      Config
	now      func() time.Time
}

// NewCoordinator creates a Coordinator. bus and sink may be nil.
func NewCoordinator(st store.CalendarStore, det *ConflictDetector, bus *eventbus.Bus[events.BookingEvent], sink coremetrics.MetricsSink, log logger.Logger, cfg Config) (*Coordinator, error) {
	if st == nil || det == nil || log == nil {
		return nil, fmt.Errorf("schedule: nil parameter provided to NewCoordinator")
	}
	cfg.SetDefaults()
	return &Coordinator{
		store:    st,
		detector: det,
		bus:      bus,
		metrics:  sink,
		log:      log,
		locks:    newLockTable(),
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// CreateRequest carries the inputs for a new booking.
type CreateRequest struct {
	LeadID          string
	TechnicianID    string
	Territory       string
	Start           time.Time
	DurationMinutes int
	Notes           string
	EstimatedCost   *float64
	// Force overrides soft conflicts (outside hours, travel buffer). A
	// double booking is never overridable.
	Force bool
}

// Create validates the request, re-checks conflicts under the reservation
// lock and atomically records the booking as SCHEDULED. On a blocking
// conflict the full current conflict set is returned and nothing is written.
func (c *Coordinator) Create(ctx context.Context, req CreateRequest) (model.Inspection, error) {
	if req.LeadID == "" {
		return model.Inspection{}, validationf("lead id is required")
	}
	if req.TechnicianID == "" {
		return model.Inspection{}, validationf("technician id is required")
	}
	if req.Start.IsZero() {
		return model.Inspection{}, validationf("start time is required")
	}
	if req.DurationMinutes == 0 {
		req.DurationMinutes = model.DefaultDurationMinutes
	}
	if req.DurationMinutes < 0 {
		return model.Inspection{}, validationf("duration must be positive, got %d", req.DurationMinutes)
	}

	if err := c.lock(req.TechnicianID); err != nil {
		return model.Inspection{}, err
	}
	defer c.locks.release(req.TechnicianID)

	conflicts, err := c.detector.CheckConflicts(ctx, req.TechnicianID, req.Start, req.DurationMinutes, req.Territory)
	if err != nil {
		return model.Inspection{}, err
	}
	overridden, blockErr := c.admit(conflicts, req.Force)
	if blockErr != nil {
		bookingsTotal.WithLabelValues("create", "conflict").Inc()
		return model.Inspection{}, blockErr
	}

	now := c.now()
	insp := model.Inspection{
		ID:              uuid.NewString(),
		LeadID:          req.LeadID,
		TechnicianID:    req.TechnicianID,
		Territory:       req.Territory,
		ScheduledStart:  req.Start.UTC(),
		DurationMinutes: req.DurationMinutes,
		Status:          model.StatusScheduled,
		EstimatedCost:   req.EstimatedCost,
		Notes:           annotate(req.Notes, overridden),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := c.store.InsertInspection(ctx, insp); err != nil {
		bookingsTotal.WithLabelValues("create", "error").Inc()
		return model.Inspection{}, fmt.Errorf("insert inspection: %w", err)
	}
	bookingsTotal.WithLabelValues("create", "ok").Inc()
	c.log.Infof("booked %s for technician %s at %s", insp.ID, insp.TechnicianID, insp.ScheduledStart.Format(time.RFC3339))
	c.publish(events.BookingEvent{Kind: events.BookingCreated, Inspection: insp, Timestamp: now})
	return insp, nil
}

// Reschedule moves a SCHEDULED booking to a new time after re-validating
// conflicts against all other bookings.
func (c *Coordinator) Reschedule(ctx context.Context, inspectionID string, newStart time.Time, newDurationMinutes int, force bool) (model.Inspection, error) {
	if newStart.IsZero() {
		return model.Inspection{}, validationf("new start time is required")
	}
	insp, err := c.get(ctx, inspectionID)
	if err != nil {
		return model.Inspection{}, err
	}
	if !insp.Status.CanTransition(model.StatusRescheduled) {
		return model.Inspection{}, &InvalidStateError{InspectionID: inspectionID, From: insp.Status, To: model.StatusRescheduled}
	}
	duration := insp.DurationMinutes
	if newDurationMinutes > 0 {
		duration = newDurationMinutes
	}

	if err := c.lock(insp.TechnicianID); err != nil {
		return model.Inspection{}, err
	}
	defer c.locks.release(insp.TechnicianID)

	conflicts, err := c.detector.CheckConflictsExcluding(ctx, insp.TechnicianID, newStart, duration, insp.Territory, insp.ID)
	if err != nil {
		return model.Inspection{}, err
	}
	overridden, blockErr := c.admit(conflicts, force)
	if blockErr != nil {
		bookingsTotal.WithLabelValues("reschedule", "conflict").Inc()
		return model.Inspection{}, blockErr
	}

	previous := insp.ScheduledStart
	now := c.now()
	insp.ScheduledStart = newStart.UTC()
	insp.DurationMinutes = duration
	insp.Status = model.StatusScheduled
	insp.Notes = annotate(insp.Notes, overridden)
	insp.UpdatedAt = now
	if err := c.store.UpdateInspection(ctx, insp); err != nil {
		bookingsTotal.WithLabelValues("reschedule", "error").Inc()
		return model.Inspection{}, fmt.Errorf("update inspection: %w", err)
	}
	bookingsTotal.WithLabelValues("reschedule", "ok").Inc()
	c.log.Infof("rescheduled %s to %s", insp.ID, insp.ScheduledStart.Format(time.RFC3339))
	c.publish(events.BookingEvent{Kind: events.BookingRescheduled, Inspection: insp, PreviousStart: previous, Timestamp: now})
	return insp, nil
}

// Cancel transitions a SCHEDULED booking to CANCELLED and releases its
// interval. Downstream workers cancel reminders and remove the external
// calendar event.
func (c *Coordinator) Cancel(ctx context.Context, inspectionID, reason string) error {
	insp, err := c.get(ctx, inspectionID)
	if err != nil {
		return err
	}
	if !insp.Status.CanTransition(model.StatusCancelled) {
		return &InvalidStateError{InspectionID: inspectionID, From: insp.Status, To: model.StatusCancelled}
	}
	now := c.now()
	insp.Status = model.StatusCancelled
	if reason != "" {
		insp.Notes = appendNote(insp.Notes, "cancelled: "+reason)
	}
	insp.UpdatedAt = now
	if err := c.store.UpdateInspection(ctx, insp); err != nil {
		bookingsTotal.WithLabelValues("cancel", "error").Inc()
		return fmt.Errorf("update inspection: %w", err)
	}
	bookingsTotal.WithLabelValues("cancel", "ok").Inc()
	c.log.Infof("cancelled %s", insp.ID)
	c.publish(events.BookingEvent{Kind: events.BookingCancelled, Inspection: insp, Timestamp: now})
	return nil
}

// Start marks a SCHEDULED booking as IN_PROGRESS.
func (c *Coordinator) Start(ctx context.Context, inspectionID string) error {
	return c.transition(ctx, inspectionID, model.StatusInProgress, "start")
}

// Complete marks a SCHEDULED or IN_PROGRESS booking as COMPLETED.
func (c *Coordinator) Complete(ctx context.Context, inspectionID string) error {
	if err := c.transition(ctx, inspectionID, model.StatusCompleted, "complete"); err != nil {
		return err
	}
	if insp, err := c.get(ctx, inspectionID); err == nil {
		c.publish(events.BookingEvent{Kind: events.BookingCompleted, Inspection: insp, Timestamp: c.now()})
	}
	return nil
}

// Get returns the inspection or a NotFoundError.
func (c *Coordinator) Get(ctx context.Context, inspectionID string) (model.Inspection, error) {
	return c.get(ctx, inspectionID)
}

func (c *Coordinator) transition(ctx context.Context, inspectionID string, to model.InspectionStatus, op string) error {
	insp, err := c.get(ctx, inspectionID)
	if err != nil {
		return err
	}
	if !insp.Status.CanTransition(to) {
		return &InvalidStateError{InspectionID: inspectionID, From: insp.Status, To: to}
	}
	insp.Status = to
	insp.UpdatedAt = c.now()
	if err := c.store.UpdateInspection(ctx, insp); err != nil {
		bookingsTotal.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("update inspection: %w", err)
	}
	bookingsTotal.WithLabelValues(op, "ok").Inc()
	return nil
}

func (c *Coordinator) get(ctx context.Context, id string) (model.Inspection, error) {
	insp, err := c.store.GetInspection(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Inspection{}, &NotFoundError{Kind: "inspection", ID: id}
		}
		return model.Inspection{}, fmt.Errorf("load inspection: %w", err)
	}
	return insp, nil
}

func (c *Coordinator) lock(technicianID string) error {
	start := time.Now()
	err := c.locks.acquire(technicianID, c.cfg.LockWait())
	lockWaitSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		lockTimeouts.Inc()
		c.log.Warnf("reservation lock timeout for technician %s", technicianID)
	}
	return err
}

// admit decides whether the conflict set blocks the booking. It returns the
// kinds overridden by force so they can be recorded in the notes.
func (c *Coordinator) admit(conflicts []model.SchedulingConflict, force bool) ([]model.ConflictKind, error) {
	var overridden []model.ConflictKind
	blocked := false
	for _, cf := range conflicts {
		conflictsDetected.WithLabelValues(cf.Kind.String()).Inc()
		switch {
		case cf.Kind.Hard():
			blocked = true
		case cf.Kind == model.ConflictTerritoryMismatch:
			// informational only
		case force:
			overridden = append(overridden, cf.Kind)
		default:
			blocked = true
		}
	}
	if blocked {
		return nil, &ConflictError{Conflicts: conflicts}
	}
	return overridden, nil
}

func (c *Coordinator) publish(ev events.BookingEvent) {
	if c.bus != nil {
		c.bus.Publish(ev)
	}
	if c.metrics != nil {
		rec := coremetrics.BookingRecord{
			InspectionID:    ev.Inspection.ID,
			TechnicianID:    ev.Inspection.TechnicianID,
			Territory:       ev.Inspection.Territory,
			Event:           ev.Kind.String(),
			ScheduledStart:  ev.Inspection.ScheduledStart,
			DurationMinutes: ev.Inspection.DurationMinutes,
			Time:            ev.Timestamp,
		}
		if err := c.metrics.RecordBookingEvent([]coremetrics.BookingRecord{rec}); err != nil {
			c.log.Errorf("metrics error: %v", err)
		}
	}
}

func annotate(notes string, overridden []model.ConflictKind) string {
	for _, k := range overridden {
		notes = appendNote(notes, "force-booked over "+k.String())
	}
	return notes
}

func appendNote(notes, note string) string {
	if notes == "" {
		return note
	}
	return notes + "; " + note
}
