package schedule

import (
	"fmt"
	"time"
)

// Config defines scheduling parameters.
type Config struct {
	// TravelBufferMinutes is the minimum idle time required between two
	// bookings for the same technician. Default 15.
	TravelBufferMinutes int `json:"travel_buffer_minutes"`
	// LockWaitSeconds bounds how long create/reschedule may wait on the
	// per-technician reservation lock before failing fast. Default 2.
	LockWaitSeconds int `json:"lock_wait_seconds"`
	// TightTransferMinutes flags day-schedule legs whose idle gap is below
	// travel estimate plus buffer. Default 0 (use buffer only).
	TightTransferMinutes int `json:"tight_transfer_minutes"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.TravelBufferMinutes <= 0 {
		c.TravelBufferMinutes = 15
	}
	if c.LockWaitSeconds <= 0 {
		c.LockWaitSeconds = 2
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.TravelBufferMinutes < 0 {
		return fmt.Errorf("travel_buffer_minutes must not be negative")
	}
	if c.LockWaitSeconds < 0 {
		return fmt.Errorf("lock_wait_seconds must not be negative")
	}
	return nil
}

// TravelBuffer returns the configured buffer as a duration.
func (c Config) TravelBuffer() time.Duration {
	return time.Duration(c.TravelBufferMinutes) * time.Minute
}

// LockWait returns the bounded lock wait as a duration.
func (c Config) LockWait() time.Duration {
	return time.Duration(c.LockWaitSeconds) * time.Second
}
