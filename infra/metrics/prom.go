package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/propscan/scheduler/core/metrics"
)

// PromSink records booking lifecycle events in Prometheus metrics.
type PromSink struct {
	events      *prometheus.CounterVec
	suggestions *prometheus.HistogramVec
}

// NewPromSink registers booking metrics on the provided Prometheus registerer.
// If reg is nil, the default registerer is used. If the collectors are already
// registered, the existing ones are reused.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_events_total",
		Help: "Total number of booking lifecycle events",
	}, []string{"technician_id", "territory", "event"})
	suggestions := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "assignment_best_score",
		Help:    "Winning score of technician assignment suggestions",
		Buckets: []float64{-50, 0, 25, 50, 75, 100, 125, 150},
	}, []string{"territory"})

	if err := reg.Register(events); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			events = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(suggestions); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			suggestions = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{events: events, suggestions: suggestions}, nil
}

// RecordBookingEvent increments the counter for each booking event.
func (s *PromSink) RecordBookingEvent(records []metrics.BookingRecord) error {
	for _, r := range records {
		s.events.WithLabelValues(r.TechnicianID, r.Territory, r.Event).Inc()
	}
	return nil
}

// RecordSuggestion observes the winning score of an assignment query.
func (s *PromSink) RecordSuggestion(ev metrics.SuggestionEvent) error {
	s.suggestions.WithLabelValues(ev.Territory).Observe(ev.BestScore)
	return nil
}
