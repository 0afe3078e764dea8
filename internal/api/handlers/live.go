// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/dvbtab/internal/domain"
	"github.com/autobrr/dvbtab/internal/models"
	"github.com/autobrr/dvbtab/internal/services/live"
)

type LiveHandler struct {
	view     *live.View
	playback domain.PlaybackSettings
}

func NewLiveHandler(view *live.View, playback domain.PlaybackSettings) *LiveHandler {
	return &LiveHandler{view: view, playback: playback}
}

func (h *LiveHandler) Routes(r chi.Router) {
	r.Get("/", h.Get)
	r.Post("/play", h.Play)
	r.Post("/last", h.PlayLast)
	r.Post("/next", h.Next)
	r.Post("/previous", h.Previous)
	r.Post("/stop", h.Stop)
	r.Post("/osd/{digit}", h.OSDDigit)
}

type LiveResponse struct {
	live.Snapshot
	Playback domain.PlaybackSettings `json:"playback"`
}

func (h *LiveHandler) Get(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, LiveResponse{Snapshot: h.view.Snapshot(r.Context()), Playback: h.playback})
}

type PlayRequest struct {
	// Channel is a channel number or name.
	Channel string `json:"channel"`
}

func (h *LiveHandler) Play(w http.ResponseWriter, r *http.Request) {
	var req PlayRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Channel) == "" {
		RespondError(w, http.StatusBadRequest, "Channel is required")
		return
	}

	ch, err := h.view.PlayNumberOrName(r.Context(), req.Channel)
	h.respondPlayed(w, ch, err)
}

func (h *LiveHandler) PlayLast(w http.ResponseWriter, r *http.Request) {
	ch, err := h.view.PlayLast(r.Context())
	h.respondPlayed(w, ch, err)
}

func (h *LiveHandler) Next(w http.ResponseWriter, r *http.Request) {
	ch, err := h.view.Next(r.Context())
	h.respondPlayed(w, ch, err)
}

func (h *LiveHandler) Previous(w http.ResponseWriter, r *http.Request) {
	ch, err := h.view.Previous(r.Context())
	h.respondPlayed(w, ch, err)
}

func (h *LiveHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.view.Stop()
	w.WriteHeader(http.StatusNoContent)
}

func (h *LiveHandler) OSDDigit(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "digit")
	if len(raw) != 1 || raw[0] < '0' || raw[0] > '9' {
		RespondError(w, http.StatusBadRequest, "Invalid digit")
		return
	}

	text, err := h.view.KeyDigit(int(raw[0] - '0'))
	if err != nil {
		RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	RespondJSON(w, http.StatusAccepted, map[string]string{"osd": text})
}

func (h *LiveHandler) respondPlayed(w http.ResponseWriter, ch *models.Channel, err error) {
	switch {
	case err == nil:
		RespondJSON(w, http.StatusOK, ch)
	case errors.Is(err, live.ErrChannelNotFound):
		RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, live.ErrNotPlaying):
		RespondError(w, http.StatusConflict, "No channel is playing")
	default:
		log.Error().Err(err).Msg("api: failed to switch channel")
		RespondError(w, http.StatusInternalServerError, "Failed to switch channel")
	}
}
