// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/dvbtab/internal/domain"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewWritesDefaultConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := New(dir)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "config.toml"))
	require.NoError(t, err, "default config is written on first run")

	c := cfg.Config
	assert.Equal(t, "localhost", c.Host)
	assert.Equal(t, 7480, c.Port)
	assert.Equal(t, "TimeShift-*.m2t", c.TimeShiftPattern)
	assert.Equal(t, 30*time.Second, c.TimeShiftCleanupInterval)
	assert.Equal(t, 12*time.Hour, c.InstantRecordDuration)
	assert.Equal(t, 1500*time.Millisecond, c.OSDChannelDelay)
	assert.Equal(t, 15*time.Second, c.ShortSkipDuration)
	assert.Equal(t, time.Minute, c.LongSkipDuration)
	assert.Equal(t, domain.StartupNormalMode, c.StartupDisplayMode)
	assert.Equal(t, filepath.Join(dir, "timeshift"), c.TimeShiftFolder)
	assert.Equal(t, filepath.Join(dir, "dvbtab.db"), cfg.GetDatabasePath())
}

func TestDatabasePathConfiguration(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		env      map[string]string
		wantPath func(dir string) string
	}{
		{
			name:     "next to config by default",
			content:  "host = \"localhost\"\n",
			wantPath: func(dir string) string { return filepath.Join(dir, "dvbtab.db") },
		},
		{
			name:     "explicit path in config",
			content:  "databasePath = \"/srv/dvbtab/custom.db\"\n",
			wantPath: func(string) string { return "/srv/dvbtab/custom.db" },
		},
		{
			name:     "env overrides config",
			content:  "databasePath = \"/original/path.db\"\n",
			env:      map[string]string{"DVBTAB__DATABASE_PATH": "/override/path.db"},
			wantPath: func(string) string { return "/override/path.db" },
		},
		{
			name:     "data dir moves the database",
			content:  "dataDir = \"/var/lib/dvbtab\"\n",
			wantPath: func(string) string { return "/var/lib/dvbtab/dvbtab.db" },
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			dir := t.TempDir()
			cfg, err := New(writeConfig(t, dir, tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.wantPath(dir), cfg.GetDatabasePath())
		})
	}
}

func TestEnvOverridesDurations(t *testing.T) {
	t.Setenv("DVBTAB__OSD_CHANNEL_DELAY", "2s")
	t.Setenv("DVBTAB__STARTUP_DISPLAY_MODE", "2")

	cfg, err := New(writeConfig(t, t.TempDir(), "osdChannelDelay = \"500ms\"\n"))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Config.OSDChannelDelay)
	assert.Equal(t, domain.StartupFullScreenMode, cfg.Config.StartupDisplayMode)
}

func TestNewRejectsInvalidValues(t *testing.T) {
	_, err := New(writeConfig(t, t.TempDir(), "startupDisplayMode = 9\n"))
	require.ErrorContains(t, err, "startupDisplayMode")

	_, err = New(writeConfig(t, t.TempDir(), "scanStatusInterval = \"0s\"\n"))
	require.ErrorContains(t, err, "scanStatusInterval")

	_, err = New(writeConfig(t, t.TempDir(), "port = [\n"))
	require.Error(t, err)
}

func TestCORSOrigins(t *testing.T) {
	cfg, err := New(writeConfig(t, t.TempDir(), "corsAllowedOrigins = [\"http://tv.lan\", \"http://localhost:3000\"]\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"http://tv.lan", "http://localhost:3000"}, cfg.Config.CORSAllowedOrigins)

	cfg, err = New(writeConfig(t, t.TempDir(), ""))
	require.NoError(t, err)
	assert.Empty(t, cfg.Config.CORSAllowedOrigins)
}

func TestGetDefaultConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/config")
	assert.Equal(t, "/config", getDefaultConfigDir(), "container layout uses /config directly")

	t.Setenv("XDG_CONFIG_HOME", "/home/user/.config")
	assert.Equal(t, "/home/user/.config/dvbtab", getDefaultConfigDir())
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "DVBTAB__DATABASE_PATH", envName("databasePath"))
	assert.Equal(t, "DVBTAB__OSD_CHANNEL_DELAY", envName("osdChannelDelay"))
	assert.Equal(t, "DVBTAB__PORT", envName("port"))
	assert.Equal(t, "DVBTAB__CORS_ALLOWED_ORIGINS", envName("corsAllowedOrigins"))
}

func TestInitLoggerWritesFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := New(writeConfig(t, dir, "logPath = \"log/dvbtab.log\"\nlogLevel = \"DEBUG\"\n"))
	require.NoError(t, err)

	closer, err := cfg.InitLogger()
	require.NoError(t, err)
	t.Cleanup(func() { _ = closer.Close() })

	_, err = os.Stat(filepath.Join(dir, "log"))
	require.NoError(t, err)
}
