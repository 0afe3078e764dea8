// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/autobrr/dvbtab/internal/services/notifications"
)

type EventsHandler struct {
	service *notifications.Service
}

func NewEventsHandler(service *notifications.Service) *EventsHandler {
	return &EventsHandler{service: service}
}

func (h *EventsHandler) Routes(r chi.Router) {
	r.Get("/", h.Recent)
	r.Get("/types", h.Types)
}

// Recent returns the latest user messages, newest first.
func (h *EventsHandler) Recent(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, h.service.Recent(ParseLimit(r, 50, 500)))
}

func (h *EventsHandler) Types(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, notifications.EventDefinitions())
}
