// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/dvbtab/internal/models"
	"github.com/autobrr/dvbtab/internal/services/channels"
)

// ChannelLister is the read side of the channel store.
type ChannelLister interface {
	List(ctx context.Context) ([]models.Channel, error)
}

// ChannelCollector reports the shape of the channel list at scrape time.
type ChannelCollector struct {
	store ChannelLister

	channelsTotalDesc     *prometheus.Desc
	radioChannelsDesc     *prometheus.Desc
	scrambledDesc         *prometheus.Desc
	identityCollisionDesc *prometheus.Desc
}

func NewChannelCollector(store ChannelLister) *ChannelCollector {
	return &ChannelCollector{
		store: store,

		channelsTotalDesc: prometheus.NewDesc(
			"dvbtab_channels_total",
			"Number of channels in the channel list by source",
			[]string{"source"},
			nil,
		),
		radioChannelsDesc: prometheus.NewDesc(
			"dvbtab_channels_radio",
			"Number of radio channels in the channel list",
			nil,
			nil,
		),
		scrambledDesc: prometheus.NewDesc(
			"dvbtab_channels_scrambled",
			"Number of scrambled channels in the channel list",
			nil,
			nil,
		),
		identityCollisionDesc: prometheus.NewDesc(
			"dvbtab_channels_identity_collisions",
			"Number of identities held by more than one channel",
			nil,
			nil,
		),
	}
}

func (c *ChannelCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.channelsTotalDesc
	ch <- c.radioChannelsDesc
	ch <- c.scrambledDesc
	ch <- c.identityCollisionDesc
}

func (c *ChannelCollector) Collect(ch chan<- prometheus.Metric) {
	if c.store == nil {
		log.Debug().Msg("Channel store is nil, skipping metrics collection")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	list, err := c.store.List(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to list channels for metrics")
		return
	}

	bySource := map[string]int{}
	radio, scrambled := 0, 0
	for _, channel := range list {
		bySource[channel.Source]++
		if channel.IsRadio() {
			radio++
		}
		if channel.Scrambled {
			scrambled++
		}
	}

	for source, count := range bySource {
		ch <- prometheus.MustNewConstMetric(c.channelsTotalDesc, prometheus.GaugeValue, float64(count), source)
	}
	ch <- prometheus.MustNewConstMetric(c.radioChannelsDesc, prometheus.GaugeValue, float64(radio))
	ch <- prometheus.MustNewConstMetric(c.scrambledDesc, prometheus.GaugeValue, float64(scrambled))
	ch <- prometheus.MustNewConstMetric(c.identityCollisionDesc, prometheus.GaugeValue, float64(len(channels.FindCollisions(list))))
}
