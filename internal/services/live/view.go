// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package live tracks the channel being watched.
package live

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/dvbtab/internal/models"
	"github.com/autobrr/dvbtab/internal/services/channels"
	"github.com/autobrr/dvbtab/pkg/debounce"
)

var (
	ErrChannelNotFound = errors.New("live channel not found")
	ErrNotPlaying      = errors.New("no channel is playing")
)

// DefaultOSDDelay is how long the view waits for another digit before tuning
// a number typed on the OSD.
const DefaultOSDDelay = 1500 * time.Millisecond

type ChannelStore interface {
	List(ctx context.Context) ([]models.Channel, error)
	Get(ctx context.Context, id models.Identity) (*models.Channel, error)
	GetByNumber(ctx context.Context, number int) (*models.Channel, error)
}

type SettingsStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Player hands the channel to the playback backend.
type Player interface {
	Play(ctx context.Context, channel models.Channel) error
	Stop()
}

type Config struct {
	OSDDelay time.Duration
}

// Snapshot is what the view shows.
type Snapshot struct {
	Playing  bool            `json:"playing"`
	Channel  *models.Channel `json:"channel,omitempty"`
	Previous string          `json:"previous,omitempty"`
	OSD      string          `json:"osd,omitempty"`
}

// View holds the identity of the live channel, never the channel value, so
// edits and rescans are always seen.
type View struct {
	channels ChannelStore
	settings SettingsStore
	player   Player
	osd      *debounce.Debouncer

	mu       sync.Mutex
	current  *models.Identity
	name     string
	previous string
	playing  bool
	digits   string
}

func NewView(cfg Config, channels ChannelStore, settings SettingsStore, player Player) *View {
	if cfg.OSDDelay <= 0 {
		cfg.OSDDelay = DefaultOSDDelay
	}
	return &View{
		channels: channels,
		settings: settings,
		player:   player,
		osd:      debounce.New(cfg.OSDDelay),
	}
}

// Close drops any pending OSD entry.
func (v *View) Close() {
	v.mu.Lock()
	v.digits = ""
	v.mu.Unlock()
	v.osd.Stop()
}

// Current returns the live channel as currently stored.
func (v *View) Current(ctx context.Context) (*models.Channel, error) {
	v.mu.Lock()
	id := v.current
	v.mu.Unlock()

	if id == nil {
		return nil, ErrNotPlaying
	}
	ch, err := v.channels.Get(ctx, *id)
	if errors.Is(err, models.ErrChannelNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrChannelNotFound, id)
	}
	return ch, err
}

// Snapshot returns the view state for display.
func (v *View) Snapshot(ctx context.Context) Snapshot {
	ch, err := v.Current(ctx)
	if err != nil && !errors.Is(err, ErrNotPlaying) {
		log.Debug().Err(err).Msg("live: current channel unavailable")
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	snap := Snapshot{Playing: v.playing, Channel: ch, Previous: v.previous}
	if v.digits != "" {
		snap.OSD = "Channel: " + v.digits + "_"
	}
	return snap
}

// Play tunes channel. The channel shown before becomes the previous one.
func (v *View) Play(ctx context.Context, channel models.Channel) error {
	if v.player != nil {
		if err := v.player.Play(ctx, channel); err != nil {
			return fmt.Errorf("play %s: %w", channel.Name, err)
		}
	}

	id := channel.Identity
	v.mu.Lock()
	if v.name != "" && v.name != channel.Name {
		v.previous = v.name
	}
	v.current = &id
	v.name = channel.Name
	v.playing = true
	v.mu.Unlock()

	if v.settings != nil {
		if err := v.settings.Set(ctx, models.SettingLastChannel, channel.Name); err != nil {
			log.Warn().Err(err).Str("channel", channel.Name).Msg("live: failed to remember channel")
		}
	}

	log.Info().Str("channel", channel.Name).Int("number", channel.Number).Msg("live: playing channel")
	return nil
}

// PlayNumberOrName plays the channel with the given number, falling back to
// a channel with that name.
func (v *View) PlayNumberOrName(ctx context.Context, query string) (*models.Channel, error) {
	query = strings.TrimSpace(query)

	if number, err := strconv.Atoi(query); err == nil && number > 0 {
		ch, err := v.channels.GetByNumber(ctx, number)
		if err == nil {
			return ch, v.Play(ctx, *ch)
		}
		if !errors.Is(err, models.ErrChannelNotFound) {
			return nil, err
		}
	}

	return v.playByName(ctx, query)
}

func (v *View) playByName(ctx context.Context, name string) (*models.Channel, error) {
	list, err := v.channels.List(ctx)
	if err != nil {
		return nil, err
	}
	i, ok := channels.FindByName(list, name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrChannelNotFound, name)
	}
	ch := list[i]
	return &ch, v.Play(ctx, ch)
}

// PlayLast switches back to the previous channel while playing and resumes
// the remembered channel otherwise.
func (v *View) PlayLast(ctx context.Context) (*models.Channel, error) {
	v.mu.Lock()
	name := v.name
	if v.playing {
		name = v.previous
	}
	v.mu.Unlock()

	if name == "" && v.settings != nil {
		stored, ok, err := v.settings.Get(ctx, models.SettingLastChannel)
		if err != nil {
			return nil, err
		}
		if ok {
			name = stored
		}
	}
	if name == "" {
		return nil, ErrChannelNotFound
	}
	return v.playByName(ctx, name)
}

// Next plays the channel after the live one in number order.
func (v *View) Next(ctx context.Context) (*models.Channel, error) {
	return v.step(ctx, 1)
}

// Previous plays the channel before the live one in number order.
func (v *View) Previous(ctx context.Context) (*models.Channel, error) {
	return v.step(ctx, -1)
}

func (v *View) step(ctx context.Context, delta int) (*models.Channel, error) {
	v.mu.Lock()
	id := v.current
	v.mu.Unlock()
	if id == nil {
		return nil, ErrNotPlaying
	}

	list, err := v.channels.List(ctx)
	if err != nil {
		return nil, err
	}
	sorted := channels.SortByNumber(list)

	pos := -1
	for i, ch := range sorted {
		if ch.Identity == *id {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil, fmt.Errorf("%w: %s", ErrChannelNotFound, id)
	}

	target := pos + delta
	if target < 0 || target >= len(sorted) {
		return nil, fmt.Errorf("%w: no channel %s %s", ErrChannelNotFound, direction(delta), sorted[pos].Name)
	}
	ch := sorted[target]
	return &ch, v.Play(ctx, ch)
}

func direction(delta int) string {
	if delta > 0 {
		return "after"
	}
	return "before"
}

// Stop ends playback. The channel stays remembered for PlayLast.
func (v *View) Stop() {
	v.mu.Lock()
	wasPlaying := v.playing
	v.playing = false
	v.mu.Unlock()

	if wasPlaying && v.player != nil {
		v.player.Stop()
	}
}

// KeyDigit adds a digit typed on the OSD. The number is tuned once no digit
// followed for the OSD delay. It returns the OSD text.
func (v *View) KeyDigit(digit int) (string, error) {
	if digit < 0 || digit > 9 {
		return "", fmt.Errorf("invalid digit %d", digit)
	}

	v.mu.Lock()
	v.digits += strconv.Itoa(digit)
	text := "Channel: " + v.digits + "_"
	v.mu.Unlock()

	v.osd.Do(v.tuneOSD)
	return text, nil
}

func (v *View) tuneOSD() {
	v.mu.Lock()
	digits := v.digits
	v.digits = ""
	v.mu.Unlock()

	number, err := strconv.Atoi(digits)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ch, err := v.channels.GetByNumber(ctx, number)
	if err != nil {
		log.Debug().Err(err).Int("number", number).Msg("live: no channel for typed number")
		return
	}
	if err := v.Play(ctx, *ch); err != nil {
		log.Error().Err(err).Int("number", number).Msg("live: failed to tune typed number")
	}
}
