// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package recording runs the single instant recording of the live channel.
package recording

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/dvbtab/internal/metrics/collector"
	"github.com/autobrr/dvbtab/internal/models"
	"github.com/autobrr/dvbtab/internal/services/notifications"
)

var ErrNoLiveChannel = errors.New("no live channel to record")

// DefaultDuration is how long an instant recording is scheduled for.
const DefaultDuration = 12 * time.Hour

// Store is the recording schedule the coordinator writes to.
type Store interface {
	Schedule(ctx context.Context, entry models.RecordingEntry) (models.RecordingKey, error)
	Remove(ctx context.Context, key models.RecordingKey) error
	OnRemoved(fn func(models.RecordingKey))
}

type Config struct {
	Duration time.Duration
	// ScheduleAttempts bounds retries of Schedule while the database is busy.
	ScheduleAttempts uint
	ScheduleDelay    time.Duration
}

func DefaultConfig() Config {
	return Config{
		Duration:         DefaultDuration,
		ScheduleAttempts: 3,
		ScheduleDelay:    100 * time.Millisecond,
	}
}

// Coordinator tracks at most one instant recording. It learns about removals
// made elsewhere through the store's removal listener.
type Coordinator struct {
	cfg      Config
	store    Store
	notifier notifications.Notifier
	metrics  *collector.RecordingCollector
	now      func() time.Time

	// opMu serializes Start and Stop. mu guards the tracked key only, so the
	// store's removal callback can run while an operation holds opMu.
	opMu    sync.Mutex
	mu      sync.Mutex
	active  models.RecordingKey
	channel string
}

// NewCoordinator creates a coordinator and subscribes it to removals in
// store.
func NewCoordinator(cfg Config, store Store, notifier notifications.Notifier, metrics *collector.RecordingCollector) *Coordinator {
	def := DefaultConfig()
	if cfg.Duration <= 0 {
		cfg.Duration = def.Duration
	}
	if cfg.ScheduleAttempts == 0 {
		cfg.ScheduleAttempts = def.ScheduleAttempts
	}
	if cfg.ScheduleDelay <= 0 {
		cfg.ScheduleDelay = def.ScheduleDelay
	}

	c := &Coordinator{
		cfg:      cfg,
		store:    store,
		notifier: notifier,
		metrics:  metrics,
		now:      time.Now,
	}
	store.OnRemoved(c.OnExternalRemoval)
	return c
}

// Active returns the key of the running instant recording, if any.
func (c *Coordinator) Active() (models.RecordingKey, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active, !c.active.IsZero()
}

// Start schedules an instant recording of channel. A recording that is
// already running is stopped first.
func (c *Coordinator) Start(ctx context.Context, channel *models.Channel) (models.RecordingKey, error) {
	if channel == nil {
		return "", ErrNoLiveChannel
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.stop(ctx); err != nil {
		return "", fmt.Errorf("stop previous instant recording: %w", err)
	}

	now := c.now()
	entry := models.RecordingEntry{
		Name:        channel.Name + now.Local().Format("-150405"),
		ChannelName: channel.Name,
		Begin:       now.UTC(),
		Duration:    c.cfg.Duration,
	}

	var key models.RecordingKey
	err := retry.Do(
		func() error {
			var err error
			key, err = c.store.Schedule(ctx, entry)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(c.cfg.ScheduleAttempts),
		retry.Delay(c.cfg.ScheduleDelay),
		retry.RetryIf(models.IsBusyError),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Debug().Err(err).Uint("attempt", n+1).Str("name", entry.Name).Msg("recording: database busy, retrying")
		}),
	)
	if err != nil {
		c.metrics.ObserveInstant("failed", false)
		log.Error().Err(err).Str("channel", channel.Name).Msg("recording: failed to schedule instant recording")
		return "", fmt.Errorf("schedule instant recording: %w", err)
	}

	c.mu.Lock()
	c.active = key
	c.channel = channel.Name
	c.mu.Unlock()

	c.metrics.ObserveInstant("started", true)
	log.Info().Str("key", string(key)).Str("name", entry.Name).Dur("duration", entry.Duration).
		Msg("recording: instant recording started")
	c.notify(notifications.Event{Type: notifications.EventInstantRecordStarted, ChannelName: channel.Name, RecordingKey: string(key)})
	return key, nil
}

// Stop removes the running instant recording. Stopping with nothing active
// is a no-op.
func (c *Coordinator) Stop(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.stop(ctx)
}

func (c *Coordinator) stop(ctx context.Context) error {
	c.mu.Lock()
	key, channel := c.active, c.channel
	c.active, c.channel = "", ""
	c.mu.Unlock()

	if key.IsZero() {
		return nil
	}

	// the store calls OnExternalRemoval for this key; it no longer matches
	if err := c.store.Remove(ctx, key); err != nil {
		if errors.Is(err, models.ErrRecordingNotFound) {
			log.Debug().Str("key", string(key)).Msg("recording: instant recording already gone")
			c.stopped(key, channel)
			return nil
		}

		c.mu.Lock()
		if c.active.IsZero() {
			c.active, c.channel = key, channel
		}
		c.mu.Unlock()
		return fmt.Errorf("remove instant recording: %w", err)
	}

	c.stopped(key, channel)
	return nil
}

// Toggle starts recording live when on is true and stops otherwise.
func (c *Coordinator) Toggle(ctx context.Context, on bool, live *models.Channel) error {
	if on {
		_, err := c.Start(ctx, live)
		return err
	}
	return c.Stop(ctx)
}

// OnExternalRemoval clears the tracked recording when key was removed by
// someone else, such as the recording schedule UI.
func (c *Coordinator) OnExternalRemoval(key models.RecordingKey) {
	c.mu.Lock()
	if key.IsZero() || key != c.active {
		c.mu.Unlock()
		return
	}
	channel := c.channel
	c.active, c.channel = "", ""
	c.mu.Unlock()

	log.Info().Str("key", string(key)).Msg("recording: instant recording removed from schedule")
	c.stopped(key, channel)
}

func (c *Coordinator) stopped(key models.RecordingKey, channel string) {
	c.metrics.ObserveInstant("stopped", false)
	c.notify(notifications.Event{Type: notifications.EventInstantRecordStopped, ChannelName: channel, RecordingKey: string(key)})
}

func (c *Coordinator) notify(event notifications.Event) {
	if c.notifier == nil {
		return
	}
	c.notifier.Notify(event)
}
