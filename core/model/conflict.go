package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// ConflictKind classifies a detected problem with a proposed booking time.
type ConflictKind int

const (
	ConflictDoubleBooking ConflictKind = iota
	ConflictInsufficientTravelBuffer
	ConflictOutsideHours
	ConflictTerritoryMismatch
)

// String returns a stable machine-readable name for the conflict kind.
func (k ConflictKind) String() string {
	switch k {
	case ConflictDoubleBooking:
		return "DOUBLE_BOOKING"
	case ConflictInsufficientTravelBuffer:
		return "INSUFFICIENT_TRAVEL_BUFFER"
	case ConflictOutsideHours:
		return "OUTSIDE_HOURS"
	case ConflictTerritoryMismatch:
		return "TERRITORY_MISMATCH"
	default:
		return "unknown"
	}
}

// Hard reports whether the conflict must block booking. Only a double booking
// is hard; everything else can be overridden by the caller.
func (k ConflictKind) Hard() bool {
	return k == ConflictDoubleBooking
}

// MarshalJSON emits the stable string name so API payloads stay readable.
func (k ConflictKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *ConflictKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "DOUBLE_BOOKING":
		*k = ConflictDoubleBooking
	case "INSUFFICIENT_TRAVEL_BUFFER":
		*k = ConflictInsufficientTravelBuffer
	case "OUTSIDE_HOURS":
		*k = ConflictOutsideHours
	case "TERRITORY_MISMATCH":
		*k = ConflictTerritoryMismatch
	default:
		return fmt.Errorf("unknown conflict kind %q", s)
	}
	return nil
}

// SchedulingConflict describes one problem with a proposed booking. It is a
// transient value, never persisted.
type SchedulingConflict struct {
	Kind         ConflictKind `json:"kind"`
	Message      string       `json:"message"`
	InspectionID string       `json:"inspection_id,omitempty"`
}

func (c SchedulingConflict) String() string {
	return c.Kind.String() + ": " + c.Message
}

// TimeSlot is a candidate interval for a technician on a given day. Slots are
// derived on demand and never persisted.
type TimeSlot struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
	Reason    string    `json:"reason,omitempty"`
}
