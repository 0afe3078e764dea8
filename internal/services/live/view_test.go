// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package live

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/dvbtab/internal/database"
	"github.com/autobrr/dvbtab/internal/models"
)

type fakePlayer struct {
	mu      sync.Mutex
	played  []string
	stopped int
	err     error
}

func (p *fakePlayer) Play(_ context.Context, ch models.Channel) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.played = append(p.played, ch.Name)
	return nil
}

func (p *fakePlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped++
}

func (p *fakePlayer) history() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.played...)
}

type fixture struct {
	view     *View
	store    *models.ChannelStore
	settings *models.SettingsStore
	player   *fakePlayer
}

func channel(sid, number int, name string) models.Channel {
	return models.Channel{
		Identity: models.Identity{Source: "S19.2E", NetworkID: 1, TransportStreamID: 1101, ServiceID: sid},
		Name:     name,
		Number:   number,
		AudioPID: -1,
		VideoPID: 100 + sid,
	}
}

func setup(t *testing.T, osdDelay time.Duration) *fixture {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "live.db"))
	require.NoError(t, err)

	f := &fixture{
		store:    models.NewChannelStore(db),
		settings: models.NewSettingsStore(db),
		player:   &fakePlayer{},
	}
	require.NoError(t, f.store.ApplyInserts(context.Background(), []models.Channel{
		channel(1, 3, "Das Erste HD"),
		channel(2, 1, "ZDF HD"),
		channel(3, 2, "arte HD"),
		channel(4, 12, "3sat"),
	}))

	f.view = NewView(Config{OSDDelay: osdDelay}, f.store, f.settings, f.player)
	t.Cleanup(func() {
		f.view.Close()
		require.NoError(t, db.Close())
	})
	return f
}

func TestView_PlayNumberOrName(t *testing.T) {
	f := setup(t, 0)
	ctx := context.Background()

	ch, err := f.view.PlayNumberOrName(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "arte HD", ch.Name)

	ch, err = f.view.PlayNumberOrName(ctx, "zdf hd")
	require.NoError(t, err)
	assert.Equal(t, "ZDF HD", ch.Name)

	ch, err = f.view.PlayNumberOrName(ctx, "3sat")
	require.NoError(t, err)
	assert.Equal(t, 12, ch.Number, "names that are not numbers fall back to name lookup")

	_, err = f.view.PlayNumberOrName(ctx, "99")
	require.ErrorIs(t, err, ErrChannelNotFound)
	_, err = f.view.PlayNumberOrName(ctx, "Nope")
	require.ErrorIs(t, err, ErrChannelNotFound)

	assert.Equal(t, []string{"arte HD", "ZDF HD", "3sat"}, f.player.history())

	stored, ok, err := f.settings.Get(ctx, models.SettingLastChannel)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "3sat", stored)
}

func TestView_NextPrevious(t *testing.T) {
	f := setup(t, 0)
	ctx := context.Background()

	_, err := f.view.Next(ctx)
	require.ErrorIs(t, err, ErrNotPlaying)

	_, err = f.view.PlayNumberOrName(ctx, "1")
	require.NoError(t, err)

	ch, err := f.view.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, ch.Number)
	ch, err = f.view.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, ch.Number)
	ch, err = f.view.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, ch.Number)

	_, err = f.view.Next(ctx)
	require.ErrorIs(t, err, ErrChannelNotFound, "no wrap around at the end")

	ch, err = f.view.Previous(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, ch.Number)
}

func TestView_CurrentFollowsEdits(t *testing.T) {
	f := setup(t, 0)
	ctx := context.Background()

	_, err := f.view.Current(ctx)
	require.ErrorIs(t, err, ErrNotPlaying)

	_, err = f.view.PlayNumberOrName(ctx, "3")
	require.NoError(t, err)

	edit := channel(1, 7, "Das Erste")
	_, err = f.store.Edit(ctx, 3, edit)
	require.NoError(t, err)

	cur, err := f.view.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Das Erste", cur.Name)
	assert.Equal(t, 7, cur.Number)

	require.NoError(t, f.store.ReplaceAll(ctx, nil))
	_, err = f.view.Current(ctx)
	require.ErrorIs(t, err, ErrChannelNotFound)
}

func TestView_PlayLast(t *testing.T) {
	f := setup(t, 0)
	ctx := context.Background()

	_, err := f.view.PlayLast(ctx)
	require.ErrorIs(t, err, ErrChannelNotFound)

	_, err = f.view.PlayNumberOrName(ctx, "1")
	require.NoError(t, err)
	_, err = f.view.PlayNumberOrName(ctx, "2")
	require.NoError(t, err)

	ch, err := f.view.PlayLast(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ZDF HD", ch.Name, "while playing, last switches back")

	f.view.Stop()
	assert.Equal(t, 1, f.player.stopped)

	ch, err = f.view.PlayLast(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ZDF HD", ch.Name, "when stopped, last resumes")
}

func TestView_PlayLastAfterRestart(t *testing.T) {
	f := setup(t, 0)
	ctx := context.Background()

	require.NoError(t, f.settings.Set(ctx, models.SettingLastChannel, "arte HD"))

	ch, err := f.view.PlayLast(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, ch.Number)
}

func TestView_PlayerFailureKeepsState(t *testing.T) {
	f := setup(t, 0)
	ctx := context.Background()

	f.player.err = errors.New("no frontend")
	_, err := f.view.PlayNumberOrName(ctx, "1")
	require.Error(t, err)

	_, err = f.view.Current(ctx)
	require.ErrorIs(t, err, ErrNotPlaying)
}

func TestView_OSDDigits(t *testing.T) {
	f := setup(t, 50*time.Millisecond)

	text, err := f.view.KeyDigit(1)
	require.NoError(t, err)
	assert.Equal(t, "Channel: 1_", text)

	text, err = f.view.KeyDigit(2)
	require.NoError(t, err)
	assert.Equal(t, "Channel: 12_", text)
	assert.Equal(t, "Channel: 12_", f.view.Snapshot(context.Background()).OSD)

	require.Eventually(t, func() bool {
		return len(f.player.history()) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"3sat"}, f.player.history())
	snap := f.view.Snapshot(context.Background())
	assert.Empty(t, snap.OSD)
	assert.True(t, snap.Playing)
	require.NotNil(t, snap.Channel)
	assert.Equal(t, "3sat", snap.Channel.Name)

	_, err = f.view.KeyDigit(10)
	require.Error(t, err)
}
