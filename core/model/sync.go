package model

import "time"

// SyncStatus tracks the progress of pushing a booking to the external
// calendar provider.
type SyncStatus string

const (
	SyncPending        SyncStatus = "PENDING"
	SyncSynced         SyncStatus = "SYNCED"
	SyncFailedRetrying SyncStatus = "FAILED_RETRYING"
	SyncAbandoned      SyncStatus = "ABANDONED"
)

// SyncOp is the pending operation against the provider.
type SyncOp string

const (
	SyncOpUpsert SyncOp = "UPSERT"
	SyncOpDelete SyncOp = "DELETE"
)

// SyncRecord tracks one inspection's external calendar state. Sync is
// best-effort: a record reaching ABANDONED is an operator concern, never a
// booking failure.
type SyncRecord struct {
	InspectionID    string     `json:"inspection_id" db:"inspection_id"`
	ExternalEventID string     `json:"external_event_id,omitempty" db:"external_event_id"`
	Op              SyncOp     `json:"op" db:"op"`
	Attempts        int        `json:"attempts" db:"attempts"`
	LastAttempt     time.Time  `json:"last_attempt" db:"last_attempt"`
	NextAttempt     time.Time  `json:"next_attempt" db:"next_attempt"`
	Status          SyncStatus `json:"status" db:"status"`
	LastError       string     `json:"last_error,omitempty" db:"last_error"`
}
