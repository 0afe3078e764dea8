// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/CAFxX/httpcompression"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/dvbtab/internal/api/handlers"
	"github.com/autobrr/dvbtab/internal/api/middleware"
	"github.com/autobrr/dvbtab/internal/config"
	"github.com/autobrr/dvbtab/internal/dvb/scanfile"
	"github.com/autobrr/dvbtab/internal/metrics"
	"github.com/autobrr/dvbtab/internal/models"
	"github.com/autobrr/dvbtab/internal/services/live"
	"github.com/autobrr/dvbtab/internal/services/notifications"
	"github.com/autobrr/dvbtab/internal/services/recording"
	"github.com/autobrr/dvbtab/internal/services/scan"
	"github.com/autobrr/dvbtab/internal/services/timeshift"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
	requestBacklog    = 64
	requestBacklogMax = 256
	backlogTimeout    = 30 * time.Second
)

// Dependencies holds everything the HTTP surface talks to.
// ScanFile, Device, Metrics and DB are optional.
type Dependencies struct {
	Config         *config.AppConfig
	ChannelStore   *models.ChannelStore
	RecordingStore *models.RecordingStore
	Controller     *scan.Controller
	View           *live.View
	Coordinator    *recording.Coordinator
	Reaper         *timeshift.Reaper
	Notifications  *notifications.Service
	Metrics        *metrics.Manager
	ScanFile       *scanfile.File
	Device         scan.Device
	DB             handlers.Pinger
}

type Server struct {
	deps *Dependencies
}

func NewServer(deps *Dependencies) *Server {
	return &Server{deps: deps}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	cfg := s.deps.Config.Config

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger(log.Logger))
	r.Use(middleware.ThrottleBacklog(requestBacklog, requestBacklogMax, backlogTimeout))

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
			AllowedHeaders: []string{"Content-Type"},
		}).Handler)
	}

	compress, err := httpcompression.DefaultAdapter()
	if err != nil {
		log.Warn().Err(err).Msg("api: response compression disabled")
	} else {
		r.Use(compress)
	}

	handlers.NewHealthHandler(s.deps.DB).Routes(r)

	if cfg.MetricsEnabled && s.deps.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.deps.Metrics.GetRegistry(), promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/channels", handlers.NewChannelsHandler(s.deps.ChannelStore).Routes)
		r.Route("/scan", handlers.NewScanHandler(s.deps.Controller, s.deps.View, s.deps.ScanFile, s.deps.Device).Routes)
		r.Route("/live", handlers.NewLiveHandler(s.deps.View, cfg.Playback()).Routes)
		r.Route("/recordings", handlers.NewRecordingsHandler(s.deps.RecordingStore, s.deps.Coordinator, s.deps.View).Routes)
		r.Route("/timeshift", handlers.NewTimeShiftHandler(s.deps.Reaper, cfg.TimeShiftFolder).Routes)
		r.Route("/events", handlers.NewEventsHandler(s.deps.Notifications).Routes)
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	cfg := s.deps.Config.Config
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("api: listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info().Msg("api: shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
