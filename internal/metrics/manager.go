// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/dvbtab/internal/metrics/collector"
)

type Manager struct {
	registry         *prometheus.Registry
	channelCollector *ChannelCollector

	Scan      *collector.ScanCollector
	Recording *collector.RecordingCollector
	TimeShift *collector.TimeShiftCollector
}

func NewManager(store ChannelLister) *Manager {
	registry := prometheus.NewRegistry()

	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	channelCollector := NewChannelCollector(store)
	registry.MustRegister(channelCollector)

	log.Info().Msg("Metrics manager initialized with channel collector")

	return &Manager{
		registry:         registry,
		channelCollector: channelCollector,
		Scan:             collector.NewScanCollector(registry),
		Recording:        collector.NewRecordingCollector(registry),
		TimeShift:        collector.NewTimeShiftCollector(registry),
	}
}

func (m *Manager) GetRegistry() *prometheus.Registry {
	return m.registry
}
