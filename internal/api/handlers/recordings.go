// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/dvbtab/internal/models"
	"github.com/autobrr/dvbtab/internal/services/live"
	"github.com/autobrr/dvbtab/internal/services/recording"
)

type RecordingsHandler struct {
	store       *models.RecordingStore
	coordinator *recording.Coordinator
	view        *live.View
}

func NewRecordingsHandler(store *models.RecordingStore, coordinator *recording.Coordinator, view *live.View) *RecordingsHandler {
	return &RecordingsHandler{store: store, coordinator: coordinator, view: view}
}

func (h *RecordingsHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Delete("/{key}", h.Remove)
	r.Get("/instant", h.GetInstant)
	r.Post("/instant", h.StartInstant)
	r.Delete("/instant", h.StopInstant)
}

func (h *RecordingsHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("api: failed to list recordings")
		RespondError(w, http.StatusInternalServerError, "Failed to list recordings")
		return
	}
	RespondJSON(w, http.StatusOK, entries)
}

// Remove deletes a schedule entry. Removing the instant recording this way
// also ends it.
func (h *RecordingsHandler) Remove(w http.ResponseWriter, r *http.Request) {
	key, ok := ParseStringParam(w, r, "key", "Recording key")
	if !ok {
		return
	}

	err := h.store.Remove(r.Context(), models.RecordingKey(key))
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, models.ErrRecordingNotFound):
		RespondError(w, http.StatusNotFound, "Recording not found")
	default:
		log.Error().Err(err).Str("key", key).Msg("api: failed to remove recording")
		RespondError(w, http.StatusInternalServerError, "Failed to remove recording")
	}
}

type InstantResponse struct {
	Active bool                `json:"active"`
	Key    models.RecordingKey `json:"key,omitempty"`
}

func (h *RecordingsHandler) GetInstant(w http.ResponseWriter, r *http.Request) {
	key, active := h.coordinator.Active()
	RespondJSON(w, http.StatusOK, InstantResponse{Active: active, Key: key})
}

func (h *RecordingsHandler) StartInstant(w http.ResponseWriter, r *http.Request) {
	var ch *models.Channel
	if h.view != nil {
		current, err := h.view.Current(r.Context())
		switch {
		case err == nil:
			ch = current
		case errors.Is(err, live.ErrNotPlaying), errors.Is(err, live.ErrChannelNotFound):
		default:
			log.Error().Err(err).Msg("api: failed to load live channel")
			RespondError(w, http.StatusInternalServerError, "Failed to start instant recording")
			return
		}
	}

	key, err := h.coordinator.Start(r.Context(), ch)
	switch {
	case err == nil:
		RespondJSON(w, http.StatusCreated, InstantResponse{Active: true, Key: key})
	case errors.Is(err, recording.ErrNoLiveChannel):
		RespondError(w, http.StatusConflict, "No live channel to record")
	default:
		log.Error().Err(err).Msg("api: failed to start instant recording")
		RespondError(w, http.StatusInternalServerError, "Failed to start instant recording")
	}
}

func (h *RecordingsHandler) StopInstant(w http.ResponseWriter, r *http.Request) {
	if err := h.coordinator.Stop(r.Context()); err != nil {
		log.Error().Err(err).Msg("api: failed to stop instant recording")
		RespondError(w, http.StatusInternalServerError, "Failed to stop instant recording")
		return
	}
	RespondJSON(w, http.StatusOK, InstantResponse{})
}
