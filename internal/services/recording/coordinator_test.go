// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package recording

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
	"github.com/autobrr/dvbtab/internal/services/notifications"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (n *recordingNotifier) Notify(event notifications.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) types() []notifications.EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := []notifications.EventType{}
	for _, e := range n.events {
		out = append(out, e.Type)
	}
	return out
}

func setupStore(t *testing.T) *models.RecordingStore {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "recordings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, db.Close()) })

	return models.NewRecordingStore(db)
}

func liveChannel() *models.Channel {
	return &models.Channel{
		Identity: models.Identity{Source: "S19.2E", NetworkID: 1, TransportStreamID: 1101, ServiceID: 28106},
		Name:     "Das Erste HD",
		Number:   1,
		AudioPID: -1,
		VideoPID: 5101,
	}
}

func TestCoordinator_StartWithoutChannel(t *testing.T) {
	c := NewCoordinator(DefaultConfig(), setupStore(t), nil, nil)

	_, err := c.Start(context.Background(), nil)
	require.ErrorIs(t, err, ErrNoLiveChannel)

	_, ok := c.Active()
	assert.False(t, ok)
}

func TestCoordinator_StartBuildsEntry(t *testing.T) {
	store := setupStore(t)
	notifier := &recordingNotifier{}
	c := NewCoordinator(DefaultConfig(), store, notifier, nil)

	fixed := time.Date(2026, 3, 14, 20, 15, 7, 0, time.Local)
	c.now = func() time.Time { return fixed }

	ctx := context.Background()
	key, err := c.Start(ctx, liveChannel())
	require.NoError(t, err)
	require.False(t, key.IsZero())

	active, ok := c.Active()
	require.True(t, ok)
	assert.Equal(t, key, active)

	entry, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "Das Erste HD-201507", entry.Name)
	assert.Equal(t, "Das Erste HD", entry.ChannelName)
	assert.True(t, entry.Begin.Equal(fixed), "begin %s, want %s", entry.Begin, fixed)
	assert.Equal(t, 12*time.Hour, entry.Duration)
	assert.Equal(t, []notifications.EventType{notifications.EventInstantRecordStarted}, notifier.types())
}

func TestCoordinator_Stop(t *testing.T) {
	store := setupStore(t)
	notifier := &recordingNotifier{}
	c := NewCoordinator(DefaultConfig(), store, notifier, nil)
	ctx := context.Background()

	require.NoError(t, c.Stop(ctx), "stop with nothing active is a no-op")

	key, err := c.Start(ctx, liveChannel())
	require.NoError(t, err)
	require.NoError(t, c.Stop(ctx))

	_, ok := c.Active()
	assert.False(t, ok)

	_, err = store.Get(ctx, key)
	require.ErrorIs(t, err, models.ErrRecordingNotFound)
	assert.Equal(t, []notifications.EventType{
		notifications.EventInstantRecordStarted,
		notifications.EventInstantRecordStopped,
	}, notifier.types(), "stopping reports once")
}

func TestCoordinator_ExternalRemovalClearsKey(t *testing.T) {
	store := setupStore(t)
	notifier := &recordingNotifier{}
	c := NewCoordinator(DefaultConfig(), store, notifier, nil)
	ctx := context.Background()

	other, err := store.Schedule(ctx, models.RecordingEntry{Name: "Tatort", Begin: time.Now(), Duration: time.Hour})
	require.NoError(t, err)

	key, err := c.Start(ctx, liveChannel())
	require.NoError(t, err)

	require.NoError(t, store.Remove(ctx, other))
	active, ok := c.Active()
	require.True(t, ok, "removing an unrelated entry keeps the instant recording")
	assert.Equal(t, key, active)

	require.NoError(t, store.Remove(ctx, key))
	_, ok = c.Active()
	assert.False(t, ok)
	assert.Equal(t, []notifications.EventType{
		notifications.EventInstantRecordStarted,
		notifications.EventInstantRecordStopped,
	}, notifier.types())

	// a later stop has nothing to remove
	require.NoError(t, c.Stop(ctx))
}

func TestCoordinator_SecondStartReplacesFirst(t *testing.T) {
	store := setupStore(t)
	c := NewCoordinator(DefaultConfig(), store, nil, nil)
	ctx := context.Background()

	first, err := c.Start(ctx, liveChannel())
	require.NoError(t, err)
	second, err := c.Start(ctx, liveChannel())
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	_, err = store.Get(ctx, first)
	require.ErrorIs(t, err, models.ErrRecordingNotFound)

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, second, entries[0].Key)
}

func TestCoordinator_Toggle(t *testing.T) {
	store := setupStore(t)
	c := NewCoordinator(DefaultConfig(), store, nil, nil)
	ctx := context.Background()

	require.ErrorIs(t, c.Toggle(ctx, true, nil), ErrNoLiveChannel)

	require.NoError(t, c.Toggle(ctx, true, liveChannel()))
	_, ok := c.Active()
	assert.True(t, ok)

	require.NoError(t, c.Toggle(ctx, false, nil))
	_, ok = c.Active()
	assert.False(t, ok)
}

type flakyStore struct {
	scheduleErr error
	removeErr   error
	calls       int
}

func (s *flakyStore) Schedule(context.Context, models.RecordingEntry) (models.RecordingKey, error) {
	s.calls++
	if s.scheduleErr != nil {
		return "", s.scheduleErr
	}
	return "key-1", nil
}

func (s *flakyStore) Remove(context.Context, models.RecordingKey) error {
	return s.removeErr
}

func (s *flakyStore) OnRemoved(func(models.RecordingKey)) {}

func TestCoordinator_ScheduleFailure(t *testing.T) {
	store := &flakyStore{scheduleErr: errors.New("disk full")}
	c := NewCoordinator(Config{ScheduleDelay: time.Millisecond}, store, nil, nil)

	_, err := c.Start(context.Background(), liveChannel())
	require.ErrorContains(t, err, "disk full")
	assert.Equal(t, 1, store.calls, "only busy errors are retried")

	_, ok := c.Active()
	assert.False(t, ok)
}

func TestCoordinator_FailedRemoveKeepsKey(t *testing.T) {
	store := &flakyStore{}
	notifier := &recordingNotifier{}
	c := NewCoordinator(DefaultConfig(), store, notifier, nil)
	ctx := context.Background()

	_, err := c.Start(ctx, liveChannel())
	require.NoError(t, err)

	store.removeErr = errors.New("database is closed")
	require.Error(t, c.Stop(ctx))

	active, ok := c.Active()
	require.True(t, ok)
	assert.Equal(t, models.RecordingKey("key-1"), active)
	assert.Equal(t, []notifications.EventType{notifications.EventInstantRecordStarted}, notifier.types())
}

type slowStore struct {
	*models.RecordingStore
	delay time.Duration
}

func (s *slowStore) Schedule(ctx context.Context, entry models.RecordingEntry) (models.RecordingKey, error) {
	time.Sleep(s.delay)
	return s.RecordingStore.Schedule(ctx, entry)
}

func TestCoordinator_ConcurrentStartsTrackOneRecording(t *testing.T) {
	store := setupStore(t)
	c := NewCoordinator(DefaultConfig(), &slowStore{RecordingStore: store, delay: 20 * time.Millisecond}, nil, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Start(ctx, liveChannel())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1, "the earlier recording must be stopped")

	active, ok := c.Active()
	require.True(t, ok)
	assert.Equal(t, entries[0].Key, active)
}
