// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package collector holds the event-driven metrics updated by services.
// Every method is safe on a nil receiver so services run without metrics.
package collector

import (
	"github.com/prometheus/client_golang/prometheus"
)

type ScanCollector struct {
	SessionsTotal   *prometheus.CounterVec
	BatchesTotal    *prometheus.CounterVec
	CandidatesTotal *prometheus.CounterVec
	CommittedTotal  *prometheus.CounterVec
	SignalStrength  prometheus.Gauge
	SignalToNoise   prometheus.Gauge
	Locked          prometheus.Gauge
}

func NewScanCollector(r *prometheus.Registry) *ScanCollector {
	m := &ScanCollector{
		SessionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dvbtab",
			Subsystem: "scan",
			Name:      "sessions_total",
			Help:      "Total number of scan sessions by outcome",
		}, []string{"outcome"}),
		BatchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dvbtab",
			Subsystem: "scan",
			Name:      "batches_total",
			Help:      "Total number of discovery batches by disposition",
		}, []string{"disposition"}),
		CandidatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dvbtab",
			Subsystem: "scan",
			Name:      "candidates_total",
			Help:      "Total number of discovered channels by merge result",
		}, []string{"result"}),
		CommittedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dvbtab",
			Subsystem: "scan",
			Name:      "committed_channels_total",
			Help:      "Total number of channels written to the channel list by kind",
		}, []string{"kind"}),
		SignalStrength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dvbtab",
			Subsystem: "scan",
			Name:      "signal_strength_percent",
			Help:      "Last polled signal strength",
		}),
		SignalToNoise: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dvbtab",
			Subsystem: "scan",
			Name:      "signal_to_noise_percent",
			Help:      "Last polled signal to noise ratio",
		}),
		Locked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dvbtab",
			Subsystem: "scan",
			Name:      "tuner_locked",
			Help:      "Whether the tuner reported a lock on the last poll (1=locked)",
		}),
	}

	r.MustRegister(m.SessionsTotal)
	r.MustRegister(m.BatchesTotal)
	r.MustRegister(m.CandidatesTotal)
	r.MustRegister(m.CommittedTotal)
	r.MustRegister(m.SignalStrength)
	r.MustRegister(m.SignalToNoise)
	r.MustRegister(m.Locked)
	return m
}

func (m *ScanCollector) ObserveSession(outcome string) {
	if m == nil {
		return
	}
	m.SessionsTotal.WithLabelValues(outcome).Inc()
}

func (m *ScanCollector) ObserveBatch(disposition string, updates, inserts int) {
	if m == nil {
		return
	}
	m.BatchesTotal.WithLabelValues(disposition).Inc()
	m.CandidatesTotal.WithLabelValues("update").Add(float64(updates))
	m.CandidatesTotal.WithLabelValues("insert").Add(float64(inserts))
}

func (m *ScanCollector) ObserveCommit(updates, inserts int) {
	if m == nil {
		return
	}
	m.CommittedTotal.WithLabelValues("update").Add(float64(updates))
	m.CommittedTotal.WithLabelValues("insert").Add(float64(inserts))
}

func (m *ScanCollector) ObserveSignal(strength, snr int, locked bool) {
	if m == nil {
		return
	}
	m.SignalStrength.Set(float64(strength))
	m.SignalToNoise.Set(float64(snr))
	if locked {
		m.Locked.Set(1)
	} else {
		m.Locked.Set(0)
	}
}
