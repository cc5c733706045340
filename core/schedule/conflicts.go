package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/propscan/scheduler/core/model"
	"github.com/propscan/scheduler/core/store"
	"github.com/propscan/scheduler/core/territory"
)

// ConflictDetector classifies a proposed booking against the calendar store.
// All checks are deterministic and side-effect free.
type ConflictDetector struct {
	store  store.CalendarStore
	matrix *territory.Matrix
	cfg    Config
}

// NewConflictDetector creates a detector using the given travel matrix.
func NewConflictDetector(st store.CalendarStore, m *territory.Matrix, cfg Config) *ConflictDetector {
	cfg.SetDefaults()
	return &ConflictDetector{store: st, matrix: m, cfg: cfg}
}

// CheckConflicts evaluates the proposed interval for the technician and
// returns every detected conflict in classification order: double bookings
// first, then travel-buffer violations, outside-hours and territory mismatch.
// An empty result means the slot is clean.
func (d *ConflictDetector) CheckConflicts(ctx context.Context, technicianID string, start time.Time, durationMinutes int, jobTerritory string) ([]model.SchedulingConflict, error) {
	return d.check(ctx, technicianID, start, durationMinutes, jobTerritory, "")
}

// CheckConflictsExcluding behaves like CheckConflicts but ignores the named
// inspection, so a reschedule is not compared against itself.
func (d *ConflictDetector) CheckConflictsExcluding(ctx context.Context, technicianID string, start time.Time, durationMinutes int, jobTerritory, excludeInspectionID string) ([]model.SchedulingConflict, error) {
	return d.check(ctx, technicianID, start, durationMinutes, jobTerritory, excludeInspectionID)
}

func (d *ConflictDetector) check(ctx context.Context, technicianID string, start time.Time, durationMinutes int, jobTerritory, excludeID string) ([]model.SchedulingConflict, error) {
	if durationMinutes <= 0 {
		return nil, validationf("duration must be positive, got %d", durationMinutes)
	}
	if start.IsZero() {
		return nil, validationf("start time is required")
	}
	tech, err := d.store.GetTechnician(ctx, technicianID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{Kind: "technician", ID: technicianID}
		}
		return nil, fmt.Errorf("load technician: %w", err)
	}

	start = start.UTC()
	end := start.Add(time.Duration(durationMinutes) * time.Minute)

	// Widen the query window by a day so buffer checks near midnight see the
	// neighbouring bookings.
	bookings, err := d.store.ListInspections(ctx, store.InspectionFilter{
		TechnicianID: technicianID,
		From:         start.Add(-24 * time.Hour),
		To:           end.Add(24 * time.Hour),
	})
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	var conflicts []model.SchedulingConflict
	overlapping := map[string]bool{}
	for _, b := range bookings {
		if b.ID == excludeID {
			continue
		}
		if b.Overlaps(start, end) {
			overlapping[b.ID] = true
			conflicts = append(conflicts, model.SchedulingConflict{
				Kind: model.ConflictDoubleBooking,
				Message: fmt.Sprintf("overlaps booking %s (%s-%s)", b.ID,
					b.ScheduledStart.Format("15:04"), b.End().Format("15:04")),
				InspectionID: b.ID,
			})
		}
	}
	for _, b := range bookings {
		if b.ID == excludeID || overlapping[b.ID] {
			continue
		}
		required := d.requiredGap(b.Territory, jobTerritory)
		gap := gapBetween(b.ScheduledStart, b.End(), start, end)
		if gap < required {
			conflicts = append(conflicts, model.SchedulingConflict{
				Kind: model.ConflictInsufficientTravelBuffer,
				Message: fmt.Sprintf("only %dm between booking %s and proposed slot, need %dm",
					int(gap.Minutes()), b.ID, int(required.Minutes())),
				InspectionID: b.ID,
			})
		}
	}

	dayStart, dayEnd, working := tech.WorkdayBounds(start)
	if !working || start.Before(dayStart) || end.After(dayEnd) {
		msg := "technician does not work on " + start.Weekday().String()
		if working {
			msg = fmt.Sprintf("proposed %s-%s is outside working hours %s-%s",
				start.Format("15:04"), end.Format("15:04"),
				dayStart.Format("15:04"), dayEnd.Format("15:04"))
		}
		conflicts = append(conflicts, model.SchedulingConflict{
			Kind:    model.ConflictOutsideHours,
			Message: msg,
		})
	}

	if jobTerritory != "" && !tech.ServesTerritory(jobTerritory) {
		conflicts = append(conflicts, model.SchedulingConflict{
			Kind:    model.ConflictTerritoryMismatch,
			Message: fmt.Sprintf("technician %s does not serve %s", tech.ID, jobTerritory),
		})
	}
	return conflicts, nil
}

// requiredGap is the larger of the configured buffer and the travel estimate
// between the neighbouring booking's territory and the job's territory.
func (d *ConflictDetector) requiredGap(fromTerritory, toTerritory string) time.Duration {
	required := d.cfg.TravelBuffer()
	if d.matrix != nil && fromTerritory != "" && toTerritory != "" {
		if travel := time.Duration(d.matrix.TravelMinutes(fromTerritory, toTerritory)) * time.Minute; travel > required {
			required = travel
		}
	}
	return required
}

// gapBetween returns the idle time separating two non-overlapping intervals.
func gapBetween(aStart, aEnd, bStart, bEnd time.Time) time.Duration {
	if aEnd.After(bStart) { // b precedes a
		return aStart.Sub(bEnd)
	}
	return bStart.Sub(aEnd)
}
