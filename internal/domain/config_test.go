// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:                     7480,
		LogLevel:                 "INFO",
		TimeShiftCleanupInterval: 30 * time.Second,
		ScanStatusInterval:       time.Second,
		InstantRecordDuration:    12 * time.Hour,
		ShortSkipDuration:        15 * time.Second,
		LongSkipDuration:         60 * time.Second,
		OSDChannelDelay:          1500 * time.Millisecond,
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("accepts defaults", func(t *testing.T) {
		require.NoError(t, validConfig().Validate())
	})

	t.Run("rejects unknown startup display mode", func(t *testing.T) {
		cfg := validConfig()
		cfg.StartupDisplayMode = 4
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "startupDisplayMode")
	})

	t.Run("rejects non-positive durations", func(t *testing.T) {
		cfg := validConfig()
		cfg.OSDChannelDelay = 0
		cfg.ScanStatusInterval = -time.Second
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "osdChannelDelay")
		assert.Contains(t, err.Error(), "scanStatusInterval")
	})

	t.Run("rejects short skip above long skip", func(t *testing.T) {
		cfg := validConfig()
		cfg.ShortSkipDuration = 2 * time.Minute
		require.ErrorContains(t, cfg.Validate(), "exceeds longSkipDuration")
	})

	t.Run("rejects bad port and log level", func(t *testing.T) {
		cfg := validConfig()
		cfg.Port = 70000
		cfg.LogLevel = "LOUD"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "port")
		assert.Contains(t, err.Error(), "logLevel")
	})
}

func TestStartupDisplayMode(t *testing.T) {
	assert.Equal(t, "fullscreen", StartupFullScreenMode.String())
	assert.True(t, StartupRememberLastSetting.Valid())
	assert.False(t, StartupDisplayMode(-1).Valid())

	cfg := validConfig()
	cfg.StartupDisplayMode = StartupMinimalMode
	assert.Equal(t, PlaybackSettings{
		StartupDisplayMode: "minimal",
		ShortSkipDuration:  15 * time.Second,
		LongSkipDuration:   time.Minute,
	}, cfg.Playback())
}
