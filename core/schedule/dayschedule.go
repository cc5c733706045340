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

// Stop is one visit on a technician's route for a day.
type Stop struct {
	Inspection model.Inspection `json:"inspection"`
	// TravelFromPreviousMinutes is the estimated drive from the previous
	// stop's territory. Zero for the first stop.
	TravelFromPreviousMinutes int `json:"travel_from_previous_minutes"`
	// TightTransfer is set when the idle gap before this stop is shorter
	// than the travel estimate plus the configured buffer.
	TightTransfer bool `json:"tight_transfer"`
}

// DaySchedule summarises one technician's route for a calendar day.
type DaySchedule struct {
	TechnicianID       string    `json:"technician_id"`
	Date               time.Time `json:"date"`
	Stops              []Stop    `json:"stops"`
	TotalTravelMinutes int       `json:"total_travel_minutes"`
	Warnings           []string  `json:"warnings,omitempty"`
}

// Planner builds day schedules from committed bookings and the travel matrix.
type Planner struct {
	store  store.CalendarStore
	matrix *territory.Matrix
	cfg    Config
}

// NewPlanner creates a Planner.
func NewPlanner(st store.CalendarStore, matrix *territory.Matrix, cfg Config) (*Planner, error) {
	if st == nil || matrix == nil {
		return nil, fmt.Errorf("schedule: nil parameter provided to NewPlanner")
	}
	cfg.SetDefaults()
	return &Planner{store: st, matrix: matrix, cfg: cfg}, nil
}

// DaySchedule returns the technician's route for the given day, in start
// order, with travel estimates between consecutive stops and warnings for
// tight transfers. Cancelled bookings are excluded.
func (p *Planner) DaySchedule(ctx context.Context, technicianID string, date time.Time) (DaySchedule, error) {
	if _, err := p.store.GetTechnician(ctx, technicianID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return DaySchedule{}, &NotFoundError{Kind: "technician", ID: technicianID}
		}
		return DaySchedule{}, fmt.Errorf("load technician: %w", err)
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)
	bookings, err := p.store.ListInspections(ctx, store.InspectionFilter{
		TechnicianID: technicianID,
		From:         dayStart,
		To:           dayEnd,
	})
	if err != nil {
		return DaySchedule{}, fmt.Errorf("list inspections: %w", err)
	}

	sched := DaySchedule{TechnicianID: technicianID, Date: dayStart}
	for i, b := range bookings {
		stop := Stop{Inspection: b}
		if i > 0 {
			prev := bookings[i-1]
			travel := p.matrix.TravelMinutes(prev.Territory, b.Territory)
			stop.TravelFromPreviousMinutes = travel
			sched.TotalTravelMinutes += travel

			gap := int(b.ScheduledStart.Sub(prev.End()) / time.Minute)
			needed := travel + p.cfg.TravelBufferMinutes
			if p.cfg.TightTransferMinutes > 0 {
				needed = travel + p.cfg.TightTransferMinutes
			}
			if gap < needed {
				stop.TightTransfer = true
				sched.Warnings = append(sched.Warnings, fmt.Sprintf(
					"tight transfer into %s at %s: %d min gap, %d min needed",
					b.Territory, b.ScheduledStart.Format("15:04"), gap, needed))
			}
		}
		sched.Stops = append(sched.Stops, stop)
	}
	return sched, nil
}
