package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/propscan/scheduler/core/metrics"
	"github.com/propscan/scheduler/infra/logger"
)

// InfluxSink writes booking and worker events to an InfluxDB instance using
// the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and returns a
// NopSink if the health check fails, so a missing Influx never blocks booking.
func NewInfluxSinkWithFallback(cfg metrics.Config) metrics.MetricsSink {
	sink := NewInfluxSink(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return metrics.NopSink{}
	}
	return sink
}

// RecordBookingEvent writes booking events as line protocol points.
func (s *InfluxSink) RecordBookingEvent(records []metrics.BookingRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, r := range records {
		p := write.NewPointWithMeasurement("booking_event").
			AddTag("technician_id", r.TechnicianID).
			AddTag("territory", r.Territory).
			AddTag("event", r.Event).
			AddField("inspection_id", r.InspectionID).
			AddField("duration_minutes", r.DurationMinutes).
			AddField("scheduled_start", r.ScheduledStart.UnixNano()).
			SetTime(r.Time)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordSuggestion writes one assignment suggestion point.
func (s *InfluxSink) RecordSuggestion(ev metrics.SuggestionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("assignment_suggestion").
		AddTag("territory", ev.Territory).
		AddTag("best_id", ev.BestID).
		AddField("candidates", ev.Candidates).
		AddField("best_score", ev.BestScore).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordReminder writes one reminder outcome point.
func (s *InfluxSink) RecordReminder(ev metrics.ReminderEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("reminder_outcome").
		AddTag("channel", ev.Channel).
		AddTag("status", ev.Status).
		AddField("inspection_id", ev.InspectionID).
		AddField("attempts", ev.Attempts).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSync writes one external sync attempt point.
func (s *InfluxSink) RecordSync(ev metrics.SyncEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("external_sync").
		AddTag("op", ev.Op).
		AddTag("status", ev.Status).
		AddField("inspection_id", ev.InspectionID).
		AddField("attempts", ev.Attempts).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}
