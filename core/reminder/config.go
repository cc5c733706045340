package reminder

import (
	"fmt"
	"time"

	"github.com/propscan/scheduler/core/model"
)

// Config defines reminder generation and dispatch parameters.
type Config struct {
	// PollIntervalSeconds is how often the dispatcher scans for due jobs.
	// Default 30.
	PollIntervalSeconds int `json:"poll_interval_seconds"`
	// MaxAttempts bounds delivery retries per job. Default 3.
	MaxAttempts int `json:"max_attempts"`
	// BackoffSeconds is the base retry delay, doubled per attempt.
	// Default 30.
	BackoffSeconds int `json:"backoff_seconds"`
	// Defaults selects the channels generated when a booking does not
	// carry its own settings.
	Defaults model.ReminderSettings `json:"defaults"`
}

// SetDefaults applies the business defaults: every channel on.
func (c *Config) SetDefaults() {
	if c.PollIntervalSeconds <= 0 {
		c.PollIntervalSeconds = 30
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BackoffSeconds <= 0 {
		c.BackoffSeconds = 30
	}
	zero := model.ReminderSettings{}
	if c.Defaults == zero {
		c.Defaults = model.ReminderSettings{
			Email24h:            true,
			Email2h:             true,
			SMS1h:               true,
			CustomerReminders:   true,
			TechnicianReminders: true,
		}
	}
}

// Validate checks the configured bounds.
func (c Config) Validate() error {
	if c.PollIntervalSeconds < 0 || c.MaxAttempts < 0 || c.BackoffSeconds < 0 {
		return fmt.Errorf("reminder intervals must not be negative")
	}
	return nil
}

// PollInterval returns the scan cadence as a duration.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// Backoff returns the retry delay for the given attempt count, doubling
// per attempt from the configured base.
func (c Config) Backoff(attempts int) time.Duration {
	base := time.Duration(c.BackoffSeconds) * time.Second
	if attempts < 1 {
		return base
	}
	return base * (1 << (attempts - 1))
}
