// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package collector

import (
	"github.com/prometheus/client_golang/prometheus"
)

type RecordingCollector struct {
	InstantTotal  *prometheus.CounterVec
	InstantActive prometheus.Gauge
}

func NewRecordingCollector(r *prometheus.Registry) *RecordingCollector {
	m := &RecordingCollector{
		InstantTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dvbtab",
			Subsystem: "recording",
			Name:      "instant_total",
			Help:      "Total number of instant recording transitions by action",
		}, []string{"action"}),
		InstantActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dvbtab",
			Subsystem: "recording",
			Name:      "instant_active",
			Help:      "Whether an instant recording is active (1=active)",
		}),
	}

	r.MustRegister(m.InstantTotal)
	r.MustRegister(m.InstantActive)
	return m
}

// ObserveInstant records an action (started, stopped, removed, failed) and
// the resulting active state.
func (m *RecordingCollector) ObserveInstant(action string, active bool) {
	if m == nil {
		return
	}
	m.InstantTotal.WithLabelValues(action).Inc()
	if active {
		m.InstantActive.Set(1)
	} else {
		m.InstantActive.Set(0)
	}
}
