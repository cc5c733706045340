package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/propscan/scheduler/core/model"
	"github.com/propscan/scheduler/core/store"
)

// AvailabilityIndex computes free time slots for a technician and day from
// the calendar store. Slots are recomputed fresh on every call; nothing is
// cached.
type AvailabilityIndex struct {
	store store.CalendarStore
	cfg   Config
}

// NewAvailabilityIndex creates an index reading through the given store.
func NewAvailabilityIndex(st store.CalendarStore, cfg Config) *AvailabilityIndex {
	cfg.SetDefaults()
	return &AvailabilityIndex{store: st, cfg: cfg}
}

// GetAvailableSlots returns the free sub-intervals of the technician's
// working window on the given date that can hold durationMinutes, in
// ascending start order. Existing non-cancelled bookings are subtracted with
// the travel buffer applied on both sides.
func (a *AvailabilityIndex) GetAvailableSlots(ctx context.Context, technicianID string, date time.Time, durationMinutes int) ([]model.TimeSlot, error) {
	if durationMinutes <= 0 {
		return nil, validationf("duration must be positive, got %d", durationMinutes)
	}
	tech, err := a.store.GetTechnician(ctx, technicianID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{Kind: "technician", ID: technicianID}
		}
		return nil, fmt.Errorf("load technician: %w", err)
	}
	if longest := tech.LongestBlockMinutes(); durationMinutes > longest {
		return nil, validationf("duration %dm exceeds longest working block %dm", durationMinutes, longest)
	}

	dayStart, dayEnd, working := tech.WorkdayBounds(date)
	if !working {
		return nil, nil
	}

	booked, err := a.bufferedIntervals(ctx, technicianID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	duration := time.Duration(durationMinutes) * time.Minute
	var slots []model.TimeSlot
	cursor := dayStart
	for _, b := range booked {
		if b.start.After(cursor) && b.start.Sub(cursor) >= duration {
			slots = append(slots, model.TimeSlot{Start: cursor, End: b.start, Available: true})
		}
		if b.end.After(cursor) {
			cursor = b.end
		}
	}
	if dayEnd.After(cursor) && dayEnd.Sub(cursor) >= duration {
		slots = append(slots, model.TimeSlot{Start: cursor, End: dayEnd, Available: true})
	}
	return slots, nil
}

type interval struct {
	start, end time.Time
}

// bufferedIntervals returns the technician's booked intervals for the window,
// widened by the travel buffer on both sides and merged where they touch.
func (a *AvailabilityIndex) bufferedIntervals(ctx context.Context, technicianID string, from, to time.Time) ([]interval, error) {
	buffer := a.cfg.TravelBuffer()
	bookings, err := a.store.ListInspections(ctx, store.InspectionFilter{
		TechnicianID: technicianID,
		From:         from.Add(-buffer),
		To:           to.Add(buffer),
	})
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	var out []interval
	for _, b := range bookings {
		iv := interval{start: b.ScheduledStart.Add(-buffer), end: b.End().Add(buffer)}
		if n := len(out); n > 0 && !iv.start.After(out[n-1].end) {
			if iv.end.After(out[n-1].end) {
				out[n-1].end = iv.end
			}
			continue
		}
		out = append(out, iv)
	}
	return out, nil
}
