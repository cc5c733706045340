package extsync

import (
	"github.com/prometheus/client_golang/prometheus"
)

var syncAttempts *prometheus.CounterVec

// newCollectors creates new metric collectors.
func newCollectors() *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "external_sync_attempts_total",
			Help: "Number of external calendar sync attempts by operation and outcome",
		},
		[]string{"op", "outcome"},
	)
}

func init() {
	syncAttempts = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers sync metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(syncAttempts)
}

// ResetMetrics reinitializes metric collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	syncAttempts = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
