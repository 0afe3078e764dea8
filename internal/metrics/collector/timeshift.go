// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package collector

import (
	"github.com/prometheus/client_golang/prometheus"
)

type TimeShiftCollector struct {
	CleanupsTotal *prometheus.CounterVec
	SegmentsTotal *prometheus.CounterVec
}

func NewTimeShiftCollector(r *prometheus.Registry) *TimeShiftCollector {
	m := &TimeShiftCollector{
		CleanupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dvbtab",
			Subsystem: "timeshift",
			Name:      "cleanups_total",
			Help:      "Total number of cleanup requests by disposition",
		}, []string{"disposition"}),
		SegmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dvbtab",
			Subsystem: "timeshift",
			Name:      "segments_total",
			Help:      "Total number of time-shift segments processed by result",
		}, []string{"result"}),
	}

	r.MustRegister(m.CleanupsTotal)
	r.MustRegister(m.SegmentsTotal)
	return m
}

// ObserveRequest counts a cleanup request as started or coalesced.
func (m *TimeShiftCollector) ObserveRequest(disposition string) {
	if m == nil {
		return
	}
	m.CleanupsTotal.WithLabelValues(disposition).Inc()
}

func (m *TimeShiftCollector) ObserveSegments(deleted, failed, skipped int) {
	if m == nil {
		return
	}
	m.SegmentsTotal.WithLabelValues("deleted").Add(float64(deleted))
	m.SegmentsTotal.WithLabelValues("failed").Add(float64(failed))
	m.SegmentsTotal.WithLabelValues("skipped").Add(float64(skipped))
}
