// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/dvbtab/internal/models"
	"github.com/autobrr/dvbtab/internal/services/channels"
)

type ChannelsHandler struct {
	store *models.ChannelStore
}

func NewChannelsHandler(store *models.ChannelStore) *ChannelsHandler {
	return &ChannelsHandler{store: store}
}

func (h *ChannelsHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Delete("/", h.DeleteAll)
	r.Get("/search", h.Search)
	r.Get("/collisions", h.Collisions)
	r.Patch("/{number}", h.Edit)
}

type ChannelListResponse struct {
	Generation uint64           `json:"generation"`
	Channels   []models.Channel `json:"channels"`
}

// List returns the channel list in list order, or by number with
// ?sort=number. ?filter= takes a filter expression.
func (h *ChannelsHandler) List(w http.ResponseWriter, r *http.Request) {
	generation := h.store.Generation()
	list, err := h.store.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("api: failed to list channels")
		RespondError(w, http.StatusInternalServerError, "Failed to list channels")
		return
	}

	if expression := strings.TrimSpace(r.URL.Query().Get("filter")); expression != "" {
		compiled, err := channels.Filter{Radio: true, TV: true, Expression: expression}.Compile()
		if err != nil {
			RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		list = compiled.ApplyChannels(list)
	}
	if r.URL.Query().Get("sort") == "number" {
		list = channels.SortByNumber(list)
	}

	RespondJSON(w, http.StatusOK, ChannelListResponse{Generation: generation, Channels: list})
}

func (h *ChannelsHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		RespondError(w, http.StatusBadRequest, "Query is required")
		return
	}

	list, err := h.store.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("api: failed to list channels")
		RespondError(w, http.StatusInternalServerError, "Failed to search channels")
		return
	}

	found := channels.Search(list, query)
	if limit := ParseLimit(r, 50, 500); len(found) > limit {
		found = found[:limit]
	}
	RespondJSON(w, http.StatusOK, found)
}

func (h *ChannelsHandler) Collisions(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("api: failed to list channels")
		RespondError(w, http.StatusInternalServerError, "Failed to check channels")
		return
	}

	collisions := channels.FindCollisions(list)
	if collisions == nil {
		collisions = []channels.Collision{}
	}
	RespondJSON(w, http.StatusOK, collisions)
}

type EditChannelRequest struct {
	Name     string `json:"name"`
	Number   int    `json:"number"`
	AudioPID *int   `json:"audioPid"`
}

// Edit changes the name, number or audio pid of the channel with {number}.
func (h *ChannelsHandler) Edit(w http.ResponseWriter, r *http.Request) {
	number, ok := ParsePositiveIntParam(w, r, "number", "channel number")
	if !ok {
		return
	}

	var req EditChannelRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	current, err := h.store.GetByNumber(ctx, number)
	if errors.Is(err, models.ErrChannelNotFound) {
		RespondError(w, http.StatusNotFound, "Channel not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Int("number", number).Msg("api: failed to load channel")
		RespondError(w, http.StatusInternalServerError, "Failed to edit channel")
		return
	}

	edited := current.Clone()
	if name := strings.TrimSpace(req.Name); name != "" {
		edited.Name = name
	}
	if req.Number != 0 {
		edited.Number = req.Number
	}
	if req.AudioPID != nil {
		edited.AudioPID = *req.AudioPID
	}

	updated, err := h.store.Edit(ctx, number, edited)
	switch {
	case err == nil:
		RespondJSON(w, http.StatusOK, updated)
	case errors.Is(err, models.ErrInvalidChannel):
		RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrNumberTaken):
		RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrChannelNotFound):
		RespondError(w, http.StatusNotFound, "Channel not found")
	default:
		log.Error().Err(err).Int("number", number).Msg("api: failed to edit channel")
		RespondError(w, http.StatusInternalServerError, "Failed to edit channel")
	}
}

func (h *ChannelsHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ReplaceAll(r.Context(), nil); err != nil {
		log.Error().Err(err).Msg("api: failed to delete channels")
		RespondError(w, http.StatusInternalServerError, "Failed to delete channels")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
