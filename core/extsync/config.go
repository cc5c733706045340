package extsync

import (
	"fmt"
	"time"
)

// Config defines the external calendar sync cadence and retry policy.
type Config struct {
	// PollIntervalSeconds is how often the worker scans for due records.
	// Default 30.
	PollIntervalSeconds int `json:"poll_interval_seconds"`
	// BaseBackoffSeconds is the first retry delay, doubled per attempt.
	// Default 60.
	BaseBackoffSeconds int `json:"base_backoff_seconds"`
	// MaxBackoffSeconds caps the retry delay. Default 3600.
	MaxBackoffSeconds int `json:"max_backoff_seconds"`
	// MaxAttempts marks a record ABANDONED once reached. Default 10.
	MaxAttempts int `json:"max_attempts"`
}

// SetDefaults applies the retry policy defaults.
func (c *Config) SetDefaults() {
	if c.PollIntervalSeconds <= 0 {
		c.PollIntervalSeconds = 30
	}
	if c.BaseBackoffSeconds <= 0 {
		c.BaseBackoffSeconds = 60
	}
	if c.MaxBackoffSeconds <= 0 {
		c.MaxBackoffSeconds = 3600
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 10
	}
}

// Validate checks the configured bounds.
func (c Config) Validate() error {
	if c.MaxBackoffSeconds < c.BaseBackoffSeconds {
		return fmt.Errorf("max_backoff_seconds must not be below base_backoff_seconds")
	}
	return nil
}

// PollInterval returns the scan cadence as a duration.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// Backoff returns the capped exponential delay for the given attempt count.
func (c Config) Backoff(attempts int) time.Duration {
	base := time.Duration(c.BaseBackoffSeconds) * time.Second
	cap := time.Duration(c.MaxBackoffSeconds) * time.Second
	d := base
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= cap {
			return cap
		}
	}
	if d > cap {
		return cap
	}
	return d
}
