package events

import (
	"time"

	"github.com/propscan/scheduler/core/model"
)

// BookingEventKind distinguishes the lifecycle event that occurred.
type BookingEventKind int

const (
	BookingCreated BookingEventKind = iota
	BookingRescheduled
	BookingCancelled
	BookingCompleted
)

// String returns a human-readable event name.
func (k BookingEventKind) String() string {
	switch k {
	case BookingCreated:
		return "booking_created"
	case BookingRescheduled:
		return "booking_rescheduled"
	case BookingCancelled:
		return "booking_cancelled"
	case BookingCompleted:
		return "booking_completed"
	default:
		return "unknown"
	}
}

// BookingEvent is published on the event bus after the coordinator commits a
// lifecycle transition. Consumers (reminder scheduler, external sync) run
// asynchronously and must never block the booking path.
type BookingEvent struct {
	Kind       BookingEventKind
	Inspection model.Inspection
	// PreviousStart is set on reschedules.
	PreviousStart time.Time
	Timestamp     time.Time
}
