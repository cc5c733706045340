package reminder

import (
	"github.com/prometheus/client_golang/prometheus"
)

var remindersDispatched *prometheus.CounterVec

// newCollectors creates new metric collectors.
func newCollectors() *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_dispatched_total",
			Help: "Number of reminder jobs reaching a terminal state by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)
}

func init() {
	remindersDispatched = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers reminder metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(remindersDispatched)
}

// ResetMetrics reinitializes metric collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	remindersDispatched = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
