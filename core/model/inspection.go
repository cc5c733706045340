package model

import "time"

// InspectionStatus represents the lifecycle state of an inspection booking.
type InspectionStatus string

const (
	StatusDraft       InspectionStatus = "DRAFT"
	StatusScheduled   InspectionStatus = "SCHEDULED"
	StatusInProgress  InspectionStatus = "IN_PROGRESS"
	StatusCompleted   InspectionStatus = "COMPLETED"
	StatusCancelled   InspectionStatus = "CANCELLED"
	StatusRescheduled InspectionStatus = "RESCHEDULED"
)

// transitions lists the permitted status moves. RESCHEDULED is transient: a
// reschedule passes through it and lands back on SCHEDULED.
var transitions = map[InspectionStatus][]InspectionStatus{
	StatusDraft:       {StatusScheduled},
	StatusScheduled:   {StatusInProgress, StatusCompleted, StatusCancelled, StatusRescheduled},
	StatusRescheduled: {StatusScheduled},
	StatusInProgress:  {StatusCompleted},
}

// CanTransition reports whether moving from one status to another is legal.
func (s InspectionStatus) CanTransition(to InspectionStatus) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s InspectionStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

// DefaultDurationMinutes is applied when a booking request omits the duration.
const DefaultDurationMinutes = 120

// Inspection is a scheduled technician visit to a customer property. Owned by
// the booking coordinator; all mutations go through its operations.
type Inspection struct {
	ID              string           `json:"id" db:"id"`
	LeadID          string           `json:"lead_id" db:"lead_id"`
	TechnicianID    string           `json:"technician_id" db:"technician_id"`
	Territory       string           `json:"territory" db:"territory"`
	ScheduledStart  time.Time        `json:"scheduled_start" db:"scheduled_start"`
	DurationMinutes int              `json:"duration_minutes" db:"duration_minutes"`
	Status          InspectionStatus `json:"status" db:"status"`
	EstimatedCost   *float64         `json:"estimated_cost,omitempty" db:"estimated_cost"`
	Notes           string           `json:"notes,omitempty" db:"notes"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" db:"updated_at"`
}

// End returns the exclusive end of the booked interval.
func (i Inspection) End() time.Time {
	return i.ScheduledStart.Add(time.Duration(i.DurationMinutes) * time.Minute)
}

// Overlaps reports whether the inspection's [start, end) interval intersects
// the given one.
func (i Inspection) Overlaps(start, end time.Time) bool {
	return i.ScheduledStart.Before(end) && start.Before(i.End())
}

// Cancelled reports whether the booking no longer occupies its interval.
func (i Inspection) Cancelled() bool {
	return i.Status == StatusCancelled
}
