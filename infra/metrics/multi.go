package metrics

import "github.com/propscan/scheduler/core/metrics"

// MultiSink fans booking events out to multiple sinks.
type MultiSink struct {
	Sinks []metrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...metrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordBookingEvent forwards the records to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordBookingEvent(records []metrics.BookingRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordBookingEvent(records); err != nil {
			return err
		}
	}
	return nil
}

// RecordSuggestion forwards the event to sinks that support it.
func (m *MultiSink) RecordSuggestion(ev metrics.SuggestionEvent) error {
	for _, s := range m.Sinks {
		if r, ok := s.(metrics.SuggestionRecorder); ok {
			if err := r.RecordSuggestion(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordReminder forwards the event to sinks that support it.
func (m *MultiSink) RecordReminder(ev metrics.ReminderEvent) error {
	for _, s := range m.Sinks {
		if r, ok := s.(metrics.ReminderRecorder); ok {
			if err := r.RecordReminder(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordSync forwards the event to sinks that support it.
func (m *MultiSink) RecordSync(ev metrics.SyncEvent) error {
	for _, s := range m.Sinks {
		if r, ok := s.(metrics.SyncRecorder); ok {
			if err := r.RecordSync(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
