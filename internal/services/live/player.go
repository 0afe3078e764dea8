// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package live

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/dvbtab/internal/models"
)

// LogPlayer is the Player used when no playback backend is attached. It only
// records tune requests in the log.
type LogPlayer struct{}

func (LogPlayer) Play(_ context.Context, ch models.Channel) error {
	log.Info().
		Int("number", ch.Number).
		Str("channel", ch.Name).
		Str("transponder", string(ch.Transponder)).
		Msg("live: tune")
	return nil
}

func (LogPlayer) Stop() {
	log.Info().Msg("live: playback stopped")
}
