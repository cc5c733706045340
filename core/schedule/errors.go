package schedule

import (
	"errors"
	"fmt"
	"strings"

	"github.com/propscan/scheduler/core/model"
)

// ErrLockTimeout is returned when a booking could not acquire the
// per-technician reservation lock within the bounded wait. Callers may retry.
var ErrLockTimeout = errors.New("schedule: reservation lock timeout, retry")

// ValidationError reports malformed or out-of-range input. Never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return "validation: " + e.Msg }

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an unknown identifier.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// ConflictError carries the current conflict set so the caller can propose an
// alternative slot without a second round-trip.
type ConflictError struct {
	Conflicts []model.SchedulingConflict
}

func (e *ConflictError) Error() string {
	kinds := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		kinds[i] = c.Kind.String()
	}
	return "booking conflicts: " + strings.Join(kinds, ", ")
}

// InvalidStateError reports an illegal lifecycle transition.
type InvalidStateError struct {
	InspectionID string
	From         model.InspectionStatus
	To           model.InspectionStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("inspection %s: illegal transition %s -> %s", e.InspectionID, e.From, e.To)
}

// NoCandidateError is returned when every active technician was excluded.
type NoCandidateError struct {
	Territory string
}

func (e *NoCandidateError) Error() string {
	return fmt.Sprintf("no eligible technician for territory %q", e.Territory)
}
