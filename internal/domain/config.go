// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// StartupDisplayMode is how the player window comes up.
type StartupDisplayMode int

const (
	StartupNormalMode StartupDisplayMode = iota
	StartupMinimalMode
	StartupFullScreenMode
	StartupRememberLastSetting
)

func (m StartupDisplayMode) Valid() bool {
	return m >= StartupNormalMode && m <= StartupRememberLastSetting
}

func (m StartupDisplayMode) String() string {
	switch m {
	case StartupNormalMode:
		return "normal"
	case StartupMinimalMode:
		return "minimal"
	case StartupFullScreenMode:
		return "fullscreen"
	case StartupRememberLastSetting:
		return "remember"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// Config represents the application configuration
type Config struct {
	Version        string
	Host           string `toml:"host" mapstructure:"host"`
	Port           int    `toml:"port" mapstructure:"port"`
	LogLevel       string `toml:"logLevel" mapstructure:"logLevel"`
	LogPath        string `toml:"logPath" mapstructure:"logPath"`
	LogMaxSize     int    `toml:"logMaxSize" mapstructure:"logMaxSize"`
	LogMaxBackups  int    `toml:"logMaxBackups" mapstructure:"logMaxBackups"`
	DataDir        string `toml:"dataDir" mapstructure:"dataDir"`
	DatabasePath   string `toml:"databasePath" mapstructure:"databasePath"`
	MetricsEnabled bool   `toml:"metricsEnabled" mapstructure:"metricsEnabled"`

	CORSAllowedOrigins []string `toml:"corsAllowedOrigins" mapstructure:"corsAllowedOrigins"`

	TimeShiftFolder          string        `toml:"timeShiftFolder" mapstructure:"timeShiftFolder"`
	TimeShiftPattern         string        `toml:"timeShiftPattern" mapstructure:"timeShiftPattern"`
	TimeShiftCleanupInterval time.Duration `toml:"timeShiftCleanupInterval" mapstructure:"timeShiftCleanupInterval"`
	TimeShiftWatch           bool          `toml:"timeShiftWatch" mapstructure:"timeShiftWatch"`

	ScanStatusInterval time.Duration `toml:"scanStatusInterval" mapstructure:"scanStatusInterval"`
	ScanFile           string        `toml:"scanFile" mapstructure:"scanFile"`
	// ReplayCapture is a recorded scan played back in place of a tuner.
	ReplayCapture string `toml:"replayCapture" mapstructure:"replayCapture"`

	InstantRecordDuration time.Duration `toml:"instantRecordDuration" mapstructure:"instantRecordDuration"`

	StartupDisplayMode StartupDisplayMode `toml:"startupDisplayMode" mapstructure:"startupDisplayMode"`
	ShortSkipDuration  time.Duration      `toml:"shortSkipDuration" mapstructure:"shortSkipDuration"`
	LongSkipDuration   time.Duration      `toml:"longSkipDuration" mapstructure:"longSkipDuration"`
	OSDChannelDelay    time.Duration      `toml:"osdChannelDelay" mapstructure:"osdChannelDelay"`

	EventHistorySize int `toml:"eventHistorySize" mapstructure:"eventHistorySize"`
}

// PlaybackSettings are the player preferences exposed to clients.
type PlaybackSettings struct {
	StartupDisplayMode string        `json:"startupDisplayMode"`
	ShortSkipDuration  time.Duration `json:"shortSkipDuration"`
	LongSkipDuration   time.Duration `json:"longSkipDuration"`
}

func (c *Config) Playback() PlaybackSettings {
	return PlaybackSettings{
		StartupDisplayMode: c.StartupDisplayMode.String(),
		ShortSkipDuration:  c.ShortSkipDuration,
		LongSkipDuration:   c.LongSkipDuration,
	}
}

// Validate checks value ranges. All problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	switch strings.ToUpper(c.LogLevel) {
	case "", "TRACE", "DEBUG", "INFO", "WARN", "ERROR":
	default:
		errs = append(errs, fmt.Errorf("unknown logLevel %q", c.LogLevel))
	}
	if c.LogMaxSize < 0 || c.LogMaxBackups < 0 {
		errs = append(errs, errors.New("logMaxSize and logMaxBackups must not be negative"))
	}
	if !c.StartupDisplayMode.Valid() {
		errs = append(errs, fmt.Errorf("unknown startupDisplayMode %d", int(c.StartupDisplayMode)))
	}

	positive := []struct {
		name  string
		value time.Duration
	}{
		{"timeShiftCleanupInterval", c.TimeShiftCleanupInterval},
		{"scanStatusInterval", c.ScanStatusInterval},
		{"instantRecordDuration", c.InstantRecordDuration},
		{"shortSkipDuration", c.ShortSkipDuration},
		{"longSkipDuration", c.LongSkipDuration},
		{"osdChannelDelay", c.OSDChannelDelay},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", p.name, p.value))
		}
	}
	if c.ShortSkipDuration > c.LongSkipDuration {
		errs = append(errs, fmt.Errorf("shortSkipDuration %s exceeds longSkipDuration %s", c.ShortSkipDuration, c.LongSkipDuration))
	}
	if c.EventHistorySize < 0 {
		errs = append(errs, errors.New("eventHistorySize must not be negative"))
	}

	return errors.Join(errs...)
}
