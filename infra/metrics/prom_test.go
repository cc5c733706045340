package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/propscan/scheduler/core/metrics"
)

func TestPromSink_RecordBookingEvent(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSink(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	now := time.Now()
	rec := coremetrics.BookingRecord{
		InspectionID:    "i1",
		TechnicianID:    "t1",
		Territory:       "Richmond",
		Event:           "created",
		ScheduledStart:  now,
		DurationMinutes: 120,
		Time:            now,
	}
	if err := sink.RecordBookingEvent([]coremetrics.BookingRecord{rec}); err != nil {
		t.Fatalf("record error: %v", err)
	}
	if err := sink.RecordSuggestion(coremetrics.SuggestionEvent{
		Territory: "Richmond",
		BestID:    "t1",
		BestScore: 110,
		Time:      now,
	}); err != nil {
		t.Fatalf("suggestion error: %v", err)
	}

	expected := `
# HELP booking_events_total Total number of booking lifecycle events
# TYPE booking_events_total counter
booking_events_total{event="created",technician_id="t1",territory="Richmond"} 1
`
	if err := testutil.CollectAndCompare(sink.events, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
	if c := testutil.CollectAndCount(sink.suggestions); c == 0 {
		t.Errorf("suggestion not recorded")
	}
}

func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPromSink(reg); err != nil {
		t.Fatalf("first sink: %v", err)
	}
	if _, err := NewPromSink(reg); err != nil {
		t.Fatalf("second sink must reuse collectors: %v", err)
	}
}
