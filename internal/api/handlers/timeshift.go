// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/dvbtab/internal/services/timeshift"
)

type TimeShiftHandler struct {
	reaper *timeshift.Reaper
	dir    string
}

func NewTimeShiftHandler(reaper *timeshift.Reaper, dir string) *TimeShiftHandler {
	return &TimeShiftHandler{reaper: reaper, dir: dir}
}

func (h *TimeShiftHandler) Routes(r chi.Router) {
	r.Get("/segments", h.Segments)
	r.Post("/cleanup", h.Cleanup)
}

func (h *TimeShiftHandler) Segments(w http.ResponseWriter, r *http.Request) {
	segments, err := h.reaper.Segments(h.dir)
	if err != nil {
		log.Error().Err(err).Str("dir", h.dir).Msg("api: failed to list time-shift segments")
		RespondError(w, http.StatusInternalServerError, "Failed to list segments")
		return
	}

	names := make([]string, 0, len(segments))
	for _, s := range segments {
		names = append(names, filepath.Base(s))
	}
	RespondJSON(w, http.StatusOK, names)
}

type CleanupResponse struct {
	Started bool `json:"started"`
}

// Cleanup requests a cleanup and returns without waiting for it. A request
// while one is running is reported as not started.
func (h *TimeShiftHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	_, started := h.reaper.RequestCleanup(h.dir)
	RespondJSON(w, http.StatusAccepted, CleanupResponse{Started: started})
}
