package metrics

import "time"

// BookingRecord represents one committed booking lifecycle event.
type BookingRecord struct {
	InspectionID    string
	TechnicianID    string
	Territory       string
	Event           string
	ScheduledStart  time.Time
	DurationMinutes int
	Time            time.Time
}

// MetricsSink records booking events for observability purposes.
type MetricsSink interface {
	RecordBookingEvent(records []BookingRecord) error
}

// SuggestionEvent captures one technician-assignment query.
type SuggestionEvent struct {
	Territory  string
	Candidates int
	BestID     string
	BestScore  float64
	Time       time.Time
}

// SuggestionRecorder records assignment suggestions.
type SuggestionRecorder interface {
	RecordSuggestion(ev SuggestionEvent) error
}

// ReminderEvent captures the terminal outcome of a reminder dispatch attempt.
type ReminderEvent struct {
	InspectionID string
	Channel      string
	Status       string
	Attempts     int
	Time         time.Time
}

// ReminderRecorder records reminder dispatch outcomes.
type ReminderRecorder interface {
	RecordReminder(ev ReminderEvent) error
}

// SyncEvent captures an external calendar sync attempt.
type SyncEvent struct {
	InspectionID string
	Op           string
	Status       string
	Attempts     int
	Time         time.Time
}

// SyncRecorder records external sync attempts.
type SyncRecorder interface {
	RecordSync(ev SyncEvent) error
}

// NopSink implements MetricsSink and all recorders with no-op methods.
type NopSink struct{}

func (NopSink) RecordBookingEvent([]BookingRecord) error { return nil }
func (NopSink) RecordSuggestion(SuggestionEvent) error   { return nil }
func (NopSink) RecordReminder(ReminderEvent) error       { return nil }
func (NopSink) RecordSync(SyncEvent) error               { return nil }
