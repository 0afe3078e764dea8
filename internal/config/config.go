// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/autobrr/dvbtab/internal/domain"
)

const (
	configFileName = "config.toml"
	databaseName   = "dvbtab.db"
	envPrefix      = "DVBTAB__"
)

// AppConfig is the loaded configuration and where it came from.
type AppConfig struct {
	Config *domain.Config

	configDir string
}

// defaults are registered with viper and written to the generated file.
var defaults = map[string]any{
	"host":                     "localhost",
	"port":                     7480,
	"logLevel":                 "INFO",
	"logPath":                  "",
	"logMaxSize":               50,
	"logMaxBackups":            3,
	"dataDir":                  "",
	"databasePath":             "",
	"metricsEnabled":           true,
	"timeShiftFolder":          "",
	"timeShiftPattern":         "TimeShift-*.m2t",
	"timeShiftCleanupInterval": "30s",
	"timeShiftWatch":           true,
	"scanStatusInterval":       "1s",
	"scanFile":                 "",
	"replayCapture":            "",
	"instantRecordDuration":    "12h",
	"startupDisplayMode":       0,
	"shortSkipDuration":        "15s",
	"longSkipDuration":         "60s",
	"osdChannelDelay":          "1500ms",
	"eventHistorySize":         100,
	"corsAllowedOrigins":       []string{},
}

const configTemplate = `# config.toml - Auto-generated on first run

# Hostname / IP
# Default: "localhost"
host = "localhost"

# Port
# Default: 7480
port = 7480

# Log level
# Default: "INFO"
# Options: "ERROR", "DEBUG", "INFO", "WARN", "TRACE"
logLevel = "INFO"

# Log file path
# If not defined, logs to stdout
# Optional
#logPath = "log/dvbtab.log"

# Log rotation
# Maximum log file size in megabytes before rotation
# Default: 50
#logMaxSize = 50

# Number of rotated log files to retain (0 keeps all)
# Default: 3
#logMaxBackups = 3

# Database path
# Default: next to this file
#databasePath = "/var/db/dvbtab/dvbtab.db"

# Origins allowed to call the API from a browser
# Default: none
#corsAllowedOrigins = ["http://localhost:3000"]

# Serve prometheus metrics on /metrics
# Default: true
#metricsEnabled = true

# Time-shift buffer folder
# Default: <config dir>/timeshift
#timeShiftFolder = "/var/tmp/dvbtab"

# Segment file glob and cleanup interval
#timeShiftPattern = "TimeShift-*.m2t"
#timeShiftCleanupInterval = "30s"

# Clean up as soon as a new segment appears
#timeShiftWatch = true

# Tuner status polling while scanning
#scanStatusInterval = "1s"

# Scan file with provider transponder lists
#scanFile = "/usr/share/dvbtab/scanfile.yaml"

# Recorded scan played back instead of a tuner
#replayCapture = ""

# Length of instant recordings
#instantRecordDuration = "12h"

# Player
# startupDisplayMode: 0 normal, 1 minimal, 2 fullscreen, 3 remember last
#startupDisplayMode = 0
#shortSkipDuration = "15s"
#longSkipDuration = "60s"

# Delay before a channel number typed on the OSD is tuned
#osdChannelDelay = "1500ms"
`

// New loads the configuration from configPath, which is either a config
// file or the directory holding config.toml. An empty path uses the
// default config directory. A missing file is created with defaults.
func New(configPath string) (*AppConfig, error) {
	configFile, err := resolveConfigFile(configPath)
	if err != nil {
		return nil, err
	}

	if err := writeDefaultConfig(configFile); err != nil {
		return nil, err
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key, envName(key)); err != nil {
			return nil, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	v.SetConfigFile(configFile)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", configFile, err)
	}

	cfg := &domain.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	app := &AppConfig{Config: cfg, configDir: filepath.Dir(configFile)}
	app.applyPathDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	log.Debug().Str("path", configFile).Msg("config: loaded")
	return app, nil
}

func resolveConfigFile(configPath string) (string, error) {
	if configPath == "" {
		configPath = getDefaultConfigDir()
	}

	if strings.HasSuffix(configPath, ".toml") {
		return configPath, nil
	}

	info, err := os.Stat(configPath)
	if err == nil && !info.IsDir() {
		return configPath, nil
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("stat config path: %w", err)
	}
	return filepath.Join(configPath, configFileName), nil
}

// getDefaultConfigDir returns XDG_CONFIG_HOME as is when it is /config, the
// container layout, and <config home>/dvbtab otherwise.
func getDefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		if xdg == "/config" {
			return xdg
		}
		return filepath.Join(xdg, "dvbtab")
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "dvbtab")
}

func writeDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}

	log.Info().Str("path", path).Msg("config: wrote default configuration")
	return nil
}

func (c *AppConfig) applyPathDefaults() {
	if c.Config.DataDir == "" {
		c.Config.DataDir = c.configDir
	}
	if c.Config.TimeShiftFolder == "" {
		c.Config.TimeShiftFolder = filepath.Join(c.Config.DataDir, "timeshift")
	}
	if c.Config.EventHistorySize == 0 {
		c.Config.EventHistorySize = 100
	}
}

// GetDatabasePath returns the configured database path, or dvbtab.db in the
// data directory.
func (c *AppConfig) GetDatabasePath() string {
	if c.Config.DatabasePath != "" {
		return c.Config.DatabasePath
	}
	return filepath.Join(c.Config.DataDir, databaseName)
}

// ConfigDir returns the directory of the loaded config file.
func (c *AppConfig) ConfigDir() string {
	return c.configDir
}

// envName maps a camelCase key to its environment variable, e.g.
// databasePath to DVBTAB__DATABASE_PATH.
func envName(key string) string {
	var b strings.Builder
	b.WriteString(envPrefix)
	for i, r := range key {
		if unicode.IsUpper(r) && i > 0 {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
