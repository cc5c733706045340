package model

import "time"

// ReminderChannel identifies a reminder delivery channel and offset.
type ReminderChannel int

const (
	ReminderEmail24h ReminderChannel = iota
	ReminderEmail2h
	ReminderSMS1h
)

// String returns the channel name used on the wire and in storage.
func (c ReminderChannel) String() string {
	switch c {
	case ReminderEmail24h:
		return "EMAIL_24H"
	case ReminderEmail2h:
		return "EMAIL_2H"
	case ReminderSMS1h:
		return "SMS_1H"
	default:
		return "unknown"
	}
}

// Offset returns how long before the appointment the reminder fires.
func (c ReminderChannel) Offset() time.Duration {
	switch c {
	case ReminderEmail24h:
		return 24 * time.Hour
	case ReminderEmail2h:
		return 2 * time.Hour
	case ReminderSMS1h:
		return time.Hour
	default:
		return 0
	}
}

// ReminderStatus is the dispatch state of a reminder job.
type ReminderStatus string

const (
	ReminderPending   ReminderStatus = "PENDING"
	ReminderSent      ReminderStatus = "SENT"
	ReminderFailed    ReminderStatus = "FAILED"
	ReminderCancelled ReminderStatus = "CANCELLED"
)

// ReminderJob is one scheduled notification for an inspection. Stale jobs are
// cancelled rather than deleted so the audit trail survives reschedules.
type ReminderJob struct {
	ID           string          `json:"id" db:"id"`
	InspectionID string          `json:"inspection_id" db:"inspection_id"`
	Channel      ReminderChannel `json:"channel" db:"channel"`
	FireAt       time.Time       `json:"fire_at" db:"fire_at"`
	Status       ReminderStatus  `json:"status" db:"status"`
	Attempts     int             `json:"attempts" db:"attempts"`
	LastError    string          `json:"last_error,omitempty" db:"last_error"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// ReminderSettings selects which channels are enabled for an inspection.
// Field names follow the customer-facing settings form.
type ReminderSettings struct {
	Email24h            bool `json:"email24h"`
	Email2h             bool `json:"email2h"`
	SMS1h               bool `json:"sms1h"`
	CustomerReminders   bool `json:"customerReminders"`
	TechnicianReminders bool `json:"technicianReminders"`
}

// EnabledChannels expands the settings into the concrete channel list.
func (s ReminderSettings) EnabledChannels() []ReminderChannel {
	var out []ReminderChannel
	if s.Email24h {
		out = append(out, ReminderEmail24h)
	}
	if s.Email2h {
		out = append(out, ReminderEmail2h)
	}
	if s.SMS1h {
		out = append(out, ReminderSMS1h)
	}
	return out
}
