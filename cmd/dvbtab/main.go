// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/autobrr/dvbtab/internal/buildinfo"
	"github.com/autobrr/dvbtab/internal/config"
	"github.com/autobrr/dvbtab/internal/database"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "dvbtab",
		Short:         "DVB channel list manager",
		Long:          "dvbtab keeps a numbered DVB channel list in sync with tuner scans.",
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.AddCommand(
		RunServeCommand(),
		RunChannelsCommand(),
		RunTimeShiftCommand(),
		RunScanFileCommand(),
		RunVersionCommand(),
	)
	return cmd
}

func addConfigFlag(cmd *cobra.Command, configDir *string) {
	cmd.Flags().StringVar(configDir, "config-dir", "", "Config directory or config.toml path (default: user config dir)")
}

// openDatabase loads the configuration and opens its database.
func openDatabase(configDir string) (*config.AppConfig, *database.DB, error) {
	cfg, err := config.New(configDir)
	if err != nil {
		return nil, nil, err
	}

	db, err := database.New(cfg.GetDatabasePath())
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}
