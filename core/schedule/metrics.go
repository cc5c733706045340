package schedule

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	bookingsTotal     *prometheus.CounterVec
	conflictsDetected *prometheus.CounterVec
	lockWaitSeconds   prometheus.Histogram
	lockTimeouts      prometheus.Counter
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.CounterVec, prometheus.Histogram, prometheus.Counter) {
	bookings := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_total",
			Help: "Number of booking operations by event and outcome",
		},
		[]string{"event", "outcome"},
	)
	conflicts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduling_conflicts_detected_total",
			Help: "Number of conflicts reported by the detector",
		},
		[]string{"kind"},
	)
	lockWait := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reservation_lock_wait_seconds",
			Help:    "Time spent waiting on the per-technician reservation lock",
			Buckets: prometheus.DefBuckets,
		},
	)
	timeouts := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reservation_lock_timeouts_total",
			Help: "Number of bookings rejected because the reservation lock wait expired",
		},
	)
	return bookings, conflicts, lockWait, timeouts
}

func init() {
	bookingsTotal, conflictsDetected, lockWaitSeconds, lockTimeouts = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers scheduling metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(bookingsTotal, conflictsDetected, lockWaitSeconds, lockTimeouts)
}

// ResetMetrics reinitializes metric collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	bookingsTotal, conflictsDetected, lockWaitSeconds, lockTimeouts = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
