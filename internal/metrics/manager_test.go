// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/dvbtab/internal/models"
)

type staticLister struct {
	list []models.Channel
	err  error
}

func (s staticLister) List(context.Context) ([]models.Channel, error) {
	return s.list, s.err
}

func TestNewManager(t *testing.T) {
	manager := NewManager(nil)

	assert.NotNil(t, manager)
	assert.NotNil(t, manager.registry)
	assert.NotNil(t, manager.channelCollector)
	assert.NotNil(t, manager.Scan)
	assert.NotNil(t, manager.Recording)
	assert.NotNil(t, manager.TimeShift)
}

func TestManager_GetRegistry(t *testing.T) {
	manager := NewManager(nil)

	registry := manager.GetRegistry()
	assert.IsType(t, &prometheus.Registry{}, registry)

	families, err := registry.Gather()
	require.NoError(t, err)

	var hasGo bool
	for _, family := range families {
		if strings.HasPrefix(family.GetName(), "go_") {
			hasGo = true
		}
	}
	assert.True(t, hasGo, "go collector should be registered")
}

func TestChannelCollector(t *testing.T) {
	list := []models.Channel{
		{Identity: models.Identity{Source: "S19.2E", ServiceID: 1}, Number: 1, VideoPID: 100},
		{Identity: models.Identity{Source: "S19.2E", ServiceID: 2}, Number: 2, VideoPID: -1},
		{Identity: models.Identity{Source: "T", ServiceID: 1}, Number: 3, VideoPID: 100, Scrambled: true},
		{Identity: models.Identity{Source: "T", ServiceID: 1}, Number: 4, VideoPID: 100},
	}

	c := NewChannelCollector(staticLister{list: list})

	expected := `
# HELP dvbtab_channels_identity_collisions Number of identities held by more than one channel
# TYPE dvbtab_channels_identity_collisions gauge
dvbtab_channels_identity_collisions 1
# HELP dvbtab_channels_radio Number of radio channels in the channel list
# TYPE dvbtab_channels_radio gauge
dvbtab_channels_radio 1
# HELP dvbtab_channels_scrambled Number of scrambled channels in the channel list
# TYPE dvbtab_channels_scrambled gauge
dvbtab_channels_scrambled 1
# HELP dvbtab_channels_total Number of channels in the channel list by source
# TYPE dvbtab_channels_total gauge
dvbtab_channels_total{source="S19.2E"} 2
dvbtab_channels_total{source="T"} 2
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected)))
}

func TestChannelCollector_StoreError(t *testing.T) {
	c := NewChannelCollector(staticLister{err: errors.New("database is locked")})
	assert.Equal(t, 0, testutil.CollectAndCount(c))

	c = NewChannelCollector(nil)
	assert.Equal(t, 0, testutil.CollectAndCount(c))
}
