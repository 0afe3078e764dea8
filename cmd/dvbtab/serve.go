// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/autobrr/dvbtab/internal/api"
	"github.com/autobrr/dvbtab/internal/buildinfo"
	"github.com/autobrr/dvbtab/internal/config"
	"github.com/autobrr/dvbtab/internal/database"
	"github.com/autobrr/dvbtab/internal/dvb/replay"
	"github.com/autobrr/dvbtab/internal/dvb/scanfile"
	"github.com/autobrr/dvbtab/internal/metrics"
	"github.com/autobrr/dvbtab/internal/metrics/collector"
	"github.com/autobrr/dvbtab/internal/models"
	"github.com/autobrr/dvbtab/internal/services/live"
	"github.com/autobrr/dvbtab/internal/services/notifications"
	"github.com/autobrr/dvbtab/internal/services/recording"
	"github.com/autobrr/dvbtab/internal/services/scan"
	"github.com/autobrr/dvbtab/internal/services/timeshift"
)

func RunServeCommand() *cobra.Command {
	var configDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the time-shift reaper",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.New(configDir)
			if err != nil {
				return err
			}
			cfg.Config.Version = buildinfo.Version

			closer, err := cfg.InitLogger()
			if err != nil {
				return err
			}
			defer closer.Close()

			return serve(cmd.Context(), cfg, afero.NewOsFs())
		},
	}

	addConfigFlag(cmd, &configDir)
	return cmd
}

func serve(ctx context.Context, cfg *config.AppConfig, fs afero.Fs) error {
	log.Info().Str("version", buildinfo.Version).Str("config", cfg.ConfigDir()).Msg("starting dvbtab")

	db, err := database.New(cfg.GetDatabasePath())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	channelStore := models.NewChannelStore(db)
	recordingStore := models.NewRecordingStore(db)
	settingsStore := models.NewSettingsStore(db)

	var (
		manager          *metrics.Manager
		scanMetrics      *collector.ScanCollector
		recordingMetrics *collector.RecordingCollector
		timeShiftMetrics *collector.TimeShiftCollector
	)
	if cfg.Config.MetricsEnabled {
		manager = metrics.NewManager(channelStore)
		scanMetrics, recordingMetrics, timeShiftMetrics = manager.Scan, manager.Recording, manager.TimeShift
	}

	notifier := notifications.NewService(log.Logger, cfg.Config.EventHistorySize)

	var (
		factory scan.ProducerFactory
		device  scan.Device
	)
	if path := cfg.Config.ReplayCapture; path != "" {
		capture, err := replay.LoadCapture(fs, path)
		if err != nil {
			return err
		}
		factory, device = capture.Factory(), capture.Device()
		log.Info().Str("path", path).Msg("scan: using replay capture as tuner")
	} else {
		log.Warn().Msg("scan: no tuner configured, scans will be rejected")
	}

	var scanFile *scanfile.File
	if path := cfg.Config.ScanFile; path != "" {
		scanFile, err = scanfile.Load(fs, path)
		if err != nil {
			return err
		}
		log.Info().Str("path", path).Int("providers", len(scanFile.Providers)).Msg("scan: loaded scan file")
	}

	controller := scan.NewController(scan.Config{StatusInterval: cfg.Config.ScanStatusInterval}, channelStore, factory, notifier, scanMetrics)

	view := live.NewView(live.Config{OSDDelay: cfg.Config.OSDChannelDelay}, channelStore, settingsStore, live.LogPlayer{})
	defer view.Close()

	coordinator := recording.NewCoordinator(recording.Config{
		Duration:         cfg.Config.InstantRecordDuration,
		ScheduleAttempts: recording.DefaultConfig().ScheduleAttempts,
		ScheduleDelay:    recording.DefaultConfig().ScheduleDelay,
	}, recordingStore, notifier, recordingMetrics)

	dir := cfg.Config.TimeShiftFolder
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create time-shift folder: %w", err)
	}
	reaper := timeshift.NewReaper(fs, timeshift.Config{
		Pattern:  cfg.Config.TimeShiftPattern,
		Interval: cfg.Config.TimeShiftCleanupInterval,
		Watch:    cfg.Config.TimeShiftWatch,
	}, notifier, timeShiftMetrics)

	server := api.NewServer(&api.Dependencies{
		Config:         cfg,
		ChannelStore:   channelStore,
		RecordingStore: recordingStore,
		Controller:     controller,
		View:           view,
		Coordinator:    coordinator,
		Reaper:         reaper,
		Notifications:  notifier,
		Metrics:        manager,
		ScanFile:       scanFile,
		Device:         device,
		DB:             db,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.ListenAndServe(ctx)
	})
	g.Go(func() error {
		return reaper.Run(ctx, dir)
	})

	err = g.Wait()

	if stopErr := controller.Stop(context.Background()); stopErr != nil && !errors.Is(stopErr, scan.ErrNotScanning) {
		log.Warn().Err(stopErr).Msg("scan: failed to stop scan on shutdown")
	}
	reaper.Close()

	log.Info().Msg("dvbtab stopped")
	return err
}
