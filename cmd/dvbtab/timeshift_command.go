// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"errors"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/autobrr/dvbtab/internal/config"
	"github.com/autobrr/dvbtab/internal/services/timeshift"
)

func RunTimeShiftCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timeshift",
		Short: "Time-shift buffer operations",
	}

	cmd.AddCommand(runTimeShiftCleanCommand(afero.NewOsFs()))
	return cmd
}

func runTimeShiftCleanCommand(fs afero.Fs) *cobra.Command {
	var (
		configDir string
		dir       string
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete every time-shift segment except the newest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.New(configDir)
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.Config.TimeShiftFolder
			}

			reaper := timeshift.NewReaper(fs, timeshift.Config{
				Pattern:  cfg.Config.TimeShiftPattern,
				Interval: cfg.Config.TimeShiftCleanupInterval,
			}, nil, nil)
			defer reaper.Close()

			results, ok := reaper.RequestCleanup(dir)
			if !ok {
				return errors.New("cleanup already running")
			}
			res := <-results

			for _, path := range res.Deleted {
				cmd.Printf("deleted %s\n", filepath.Base(path))
			}
			cmd.Printf("Deleted %d segments, %d failed, %d skipped\n", len(res.Deleted), res.Failed, res.Skipped)
			if res.Err != nil {
				return res.Err
			}
			if res.Failed > 0 {
				return errors.New("some segments could not be deleted")
			}
			return nil
		},
	}

	addConfigFlag(cmd, &configDir)
	cmd.Flags().StringVar(&dir, "dir", "", "Time-shift folder (default: timeShiftFolder from config)")
	return cmd
}
