// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/dvbtab/internal/database"
	"github.com/autobrr/dvbtab/internal/models"
	"github.com/autobrr/dvbtab/internal/services/channels"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "handlers.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testChannel(sid, number int, name string, radio bool) models.Channel {
	ch := models.Channel{
		Identity:  models.Identity{Source: "S19.2E", NetworkID: 1, TransportStreamID: 1019, ServiceID: sid},
		Name:      name,
		Number:    number,
		AudioPID:  101,
		AudioPIDs: []int{101, 102},
		VideoPID:  100,
		Provider:  "ARD",
	}
	if radio {
		ch.VideoPID = -1
	}
	return ch
}

func newChannelsRouter(t *testing.T) (http.Handler, *models.ChannelStore) {
	t.Helper()

	store := models.NewChannelStore(newTestDB(t))
	require.NoError(t, store.ApplyInserts(context.Background(), []models.Channel{
		testChannel(28106, 2, "Das Erste HD", false),
		testChannel(28007, 1, "ZDF HD", false),
		testChannel(28400, 3, "Bayern 3", true),
	}))

	r := chi.NewRouter()
	NewChannelsHandler(store).Routes(r)
	return r, store
}

func serveJSON(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestChannelsHandler_List(t *testing.T) {
	h, store := newChannelsRouter(t)

	rec := serveJSON(h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChannelListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, store.Generation(), resp.Generation)
	require.Len(t, resp.Channels, 3)
	assert.Equal(t, "Das Erste HD", resp.Channels[0].Name, "list order is storage order")

	rec = serveJSON(h, http.MethodGet, "/?sort=number", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []int{1, 2, 3}, []int{resp.Channels[0].Number, resp.Channels[1].Number, resp.Channels[2].Number})

	rec = serveJSON(h, http.MethodGet, "/?filter=VideoPID+%3D%3D+-1", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Channels, 1)
	assert.Equal(t, "Bayern 3", resp.Channels[0].Name)

	rec = serveJSON(h, http.MethodGet, "/?filter=Name+%3D%3D", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChannelsHandler_Search(t *testing.T) {
	h, _ := newChannelsRouter(t)

	rec := serveJSON(h, http.MethodGet, "/search?q=zdf", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var found []models.Channel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &found))
	require.Len(t, found, 1)
	assert.Equal(t, "ZDF HD", found[0].Name)

	rec = serveJSON(h, http.MethodGet, "/search", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChannelsHandler_Edit(t *testing.T) {
	tests := []struct {
		name   string
		target string
		body   string
		status int
	}{
		{name: "rename", target: "/1", body: `{"name":"ZDF"}`, status: http.StatusOK},
		{name: "renumber", target: "/1", body: `{"number":10}`, status: http.StatusOK},
		{name: "valid audio pid", target: "/1", body: `{"audioPid":102}`, status: http.StatusOK},
		{name: "audio pid not offered", target: "/1", body: `{"audioPid":999}`, status: http.StatusBadRequest},
		{name: "number taken", target: "/1", body: `{"number":2}`, status: http.StatusConflict},
		{name: "unknown channel", target: "/42", body: `{"name":"x"}`, status: http.StatusNotFound},
		{name: "bad number", target: "/zero", body: `{"name":"x"}`, status: http.StatusBadRequest},
		{name: "bad body", target: "/1", body: `{`, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newChannelsRouter(t)
			rec := serveJSON(h, http.MethodPatch, tt.target, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestChannelsHandler_EditKeepsIdentity(t *testing.T) {
	h, store := newChannelsRouter(t)

	rec := serveJSON(h, http.MethodPatch, "/1", `{"name":"ZDF","number":7}`)
	require.Equal(t, http.StatusOK, rec.Code)

	ch, err := store.GetByNumber(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "ZDF", ch.Name)
	assert.Equal(t, 28007, ch.ServiceID)
}

func TestChannelsHandler_CollisionsAndDeleteAll(t *testing.T) {
	h, store := newChannelsRouter(t)
	ctx := context.Background()

	rec := serveJSON(h, http.MethodGet, "/collisions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	require.NoError(t, store.ApplyInserts(ctx, []models.Channel{testChannel(28106, 4, "Das Erste HD (2)", false)}))

	rec = serveJSON(h, http.MethodGet, "/collisions", "")
	var collisions []channels.Collision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &collisions))
	require.Len(t, collisions, 1)
	assert.Equal(t, 28106, collisions[0].Identity.ServiceID)

	rec = serveJSON(h, http.MethodDelete, "/", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
