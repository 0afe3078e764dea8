// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/dvbtab/internal/models"
)

func TestChannelValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		channel models.Channel
		wantErr bool
	}{
		{name: "valid", channel: models.Channel{Number: 1, AudioPID: 6, AudioPIDs: []int{5, 6}}},
		{name: "no audio", channel: models.Channel{Number: 3, AudioPID: -1, AudioPIDs: []int{5}}},
		{name: "empty pid list accepts anything", channel: models.Channel{Number: 3, AudioPID: 99}},
		{name: "zero number", channel: models.Channel{Number: 0, AudioPID: -1}, wantErr: true},
		{name: "audio pid outside list", channel: models.Channel{Number: 2, AudioPID: 9, AudioPIDs: []int{5, 6}}, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.channel.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, models.ErrInvalidChannel)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestChannelFingerprint(t *testing.T) {
	t.Parallel()

	base := models.Channel{
		Identity:    models.Identity{Source: "S19.2E", NetworkID: 1, TransportStreamID: 1079, ServiceID: 28006},
		Name:        "Das Erste",
		Number:      1,
		AudioPID:    102,
		AudioPIDs:   []int{102, 103},
		VideoPID:    101,
		Provider:    "ARD",
		Transponder: "S 11836000 H 27500000 3/4",
	}

	same := base.Clone()
	assert.Equal(t, base.Fingerprint(), same.Fingerprint())

	renamed := base.Clone()
	renamed.Name = "Das Erste HD"
	assert.NotEqual(t, base.Fingerprint(), renamed.Fingerprint())

	reordered := base.Clone()
	reordered.AudioPIDs = []int{103, 102}
	assert.NotEqual(t, base.Fingerprint(), reordered.Fingerprint())

	// name/provider boundaries must not alias
	a := base.Clone()
	a.Name, a.Provider = "ab", "c"
	b := base.Clone()
	b.Name, b.Provider = "a", "bc"
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestChannelCloneDoesNotShareAudioPIDs(t *testing.T) {
	t.Parallel()

	original := models.Channel{AudioPIDs: []int{1, 2}}
	clone := original.Clone()
	clone.AudioPIDs[0] = 9

	assert.Equal(t, []int{1, 2}, original.AudioPIDs)
}

func TestIsRadio(t *testing.T) {
	t.Parallel()

	assert.True(t, models.Channel{VideoPID: -1}.IsRadio())
	assert.False(t, models.Channel{VideoPID: 0}.IsRadio())
	assert.True(t, models.DiscoveredChannel{VideoPID: -1}.IsRadio())
	assert.Equal(t, "T:1:2:3", models.Identity{Source: "T", NetworkID: 1, TransportStreamID: 2, ServiceID: 3}.String())
}

func TestChannelDiscovered(t *testing.T) {
	t.Parallel()

	ch := models.Channel{
		Identity:  models.Identity{Source: "S19.2E", NetworkID: 1, TransportStreamID: 1019, ServiceID: 28106},
		Name:      "Das Erste HD",
		Number:    4,
		AudioPID:  5122,
		AudioPIDs: []int{5122, 5123},
		VideoPID:  5121,
		Provider:  "ARD",
	}

	d := ch.Discovered()
	assert.Equal(t, ch.Identity, d.Identity)
	assert.Equal(t, ch.Name, d.Name)
	assert.Equal(t, 5122, d.AudioPID)
	d.AudioPIDs[0] = 1
	assert.Equal(t, []int{5122, 5123}, ch.AudioPIDs)
}
