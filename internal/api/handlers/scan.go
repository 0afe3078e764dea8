// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/dvbtab/internal/dvb/scanfile"
	"github.com/autobrr/dvbtab/internal/models"
	"github.com/autobrr/dvbtab/internal/services/channels"
	"github.com/autobrr/dvbtab/internal/services/live"
	"github.com/autobrr/dvbtab/internal/services/scan"
)

type ScanHandler struct {
	controller *scan.Controller
	view       *live.View
	scanFile   *scanfile.File
	device     scan.Device
}

// NewScanHandler creates a scan handler. scanFile and device may be nil.
func NewScanHandler(controller *scan.Controller, view *live.View, scanFile *scanfile.File, device scan.Device) *ScanHandler {
	return &ScanHandler{controller: controller, view: view, scanFile: scanFile, device: device}
}

func (h *ScanHandler) Routes(r chi.Router) {
	r.Post("/start", h.Start)
	r.Post("/stop", h.Stop)
	r.Get("/status", h.Status)
	r.Get("/preview", h.Preview)
	r.Get("/providers", h.Providers)
	r.Post("/commit", h.Commit)
}

// StartScanRequest selects what to scan: the transponder of the live
// channel, a provider from the scan file, or an explicit transponder list.
type StartScanRequest struct {
	Live         bool                 `json:"live"`
	Provider     string               `json:"provider,omitempty"`
	Source       string               `json:"source,omitempty"`
	Transponders []models.Transponder `json:"transponders,omitempty"`
}

func (h *ScanHandler) Start(w http.ResponseWriter, r *http.Request) {
	var body StartScanRequest
	if !DecodeJSON(w, r, &body) {
		return
	}

	req, status, message := h.resolve(r, body)
	if status != 0 {
		RespondError(w, status, message)
		return
	}

	err := h.controller.Start(r.Context(), req)
	switch {
	case err == nil:
		RespondJSON(w, http.StatusAccepted, h.controller.Status())
	case errors.Is(err, scan.ErrScanAlreadyActive):
		RespondError(w, http.StatusConflict, "A scan is already running")
	case errors.Is(err, scan.ErrInvalidRequest):
		RespondError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Str("source", req.Source).Msg("api: failed to start scan")
		RespondError(w, http.StatusInternalServerError, "Failed to start scan")
	}
}

func (h *ScanHandler) resolve(r *http.Request, body StartScanRequest) (scan.Request, int, string) {
	req := scan.Request{Device: h.device, Live: body.Live}

	switch {
	case body.Live:
		if h.view == nil {
			return req, http.StatusConflict, "No live channel"
		}
		ch, err := h.view.Current(r.Context())
		if err != nil {
			return req, http.StatusConflict, "No live channel"
		}
		req.Source = ch.Source
		req.Transponders = []models.Transponder{ch.Transponder}
	case strings.TrimSpace(body.Provider) != "":
		if h.scanFile == nil {
			return req, http.StatusBadRequest, "No scan file configured"
		}
		p, err := h.scanFile.Provider(strings.TrimSpace(body.Provider))
		if err != nil {
			return req, http.StatusNotFound, "Provider not found"
		}
		req.Source = p.Source
		req.Transponders = p.Transponders
	default:
		req.Source = strings.TrimSpace(body.Source)
		req.Transponders = body.Transponders
	}

	return req, 0, ""
}

func (h *ScanHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.Stop(r.Context()); err != nil {
		if errors.Is(err, scan.ErrNotScanning) {
			RespondError(w, http.StatusConflict, "No scan is running")
			return
		}
		log.Error().Err(err).Msg("api: failed to stop scan")
		RespondError(w, http.StatusInternalServerError, "Failed to stop scan")
		return
	}
	RespondJSON(w, http.StatusOK, h.controller.Status())
}

func (h *ScanHandler) Status(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, h.controller.Status())
}

func (h *ScanHandler) Preview(w http.ResponseWriter, r *http.Request) {
	preview := h.controller.Preview()
	if preview == nil {
		preview = []scan.PreviewEntry{}
	}
	RespondJSON(w, http.StatusOK, preview)
}

// Providers lists the providers of the staged channels, or with
// ?from=scanfile the providers of the scan file for ?source=.
func (h *ScanHandler) Providers(w http.ResponseWriter, r *http.Request) {
	var providers []string
	if r.URL.Query().Get("from") == "scanfile" {
		if h.scanFile == nil {
			RespondError(w, http.StatusNotFound, "No scan file configured")
			return
		}
		providers = h.scanFile.Names(r.URL.Query().Get("source"))
	} else {
		providers = h.controller.Providers()
	}
	if providers == nil {
		providers = []string{}
	}
	RespondJSON(w, http.StatusOK, providers)
}

// CommitRequest adds preview entries by position or by filter.
type CommitRequest struct {
	Indexes []int            `json:"indexes,omitempty"`
	Filter  *channels.Filter `json:"filter,omitempty"`
}

type CommitResponse struct {
	Updated    int                  `json:"updated"`
	Added      int                  `json:"added"`
	Inserts    []models.Channel     `json:"inserts"`
	Collisions []channels.Collision `json:"collisions,omitempty"`
}

func (h *ScanHandler) Commit(w http.ResponseWriter, r *http.Request) {
	var body CommitRequest
	if !DecodeJSON(w, r, &body) {
		return
	}

	var (
		plan channels.Plan
		err  error
	)
	if body.Filter != nil {
		plan, err = h.controller.AddFiltered(r.Context(), *body.Filter)
	} else {
		plan, err = h.controller.AddSelected(r.Context(), body.Indexes)
	}

	if err != nil {
		switch {
		case errors.Is(err, scan.ErrInvalidSelection):
			RespondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, channels.ErrInvalidFilter):
			RespondError(w, http.StatusBadRequest, err.Error())
		default:
			log.Error().Err(err).Msg("api: failed to commit scan results")
			RespondError(w, http.StatusInternalServerError, "Failed to add channels")
		}
		return
	}

	inserts := plan.Inserts
	if inserts == nil {
		inserts = []models.Channel{}
	}
	RespondJSON(w, http.StatusOK, CommitResponse{
		Updated:    len(plan.Updates),
		Added:      len(plan.Inserts),
		Inserts:    inserts,
		Collisions: plan.Collisions,
	})
}
