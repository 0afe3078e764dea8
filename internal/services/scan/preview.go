// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package scan

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/dvbtab/internal/models"
	"github.com/autobrr/dvbtab/internal/services/channels"
	"github.com/autobrr/dvbtab/internal/services/notifications"
)

var ErrInvalidSelection = errors.New("invalid preview selection")

// PreviewEntry is a discovered channel waiting for the user to add it.
// MatchIndex is the list position it would update, or -1 for a new channel.
// Number is the number it keeps when matched, or the provisional number it
// would be given when new.
type PreviewEntry struct {
	Channel    models.DiscoveredChannel `json:"channel"`
	MatchIndex int                      `json:"matchIndex"`
	Number     int                      `json:"number,omitempty"`
}

// IsNew reports whether committing the entry would add a channel.
func (e PreviewEntry) IsNew() bool {
	return e.MatchIndex < 0
}

// Preview returns a copy of the staged entries in discovery order.
func (c *Controller) Preview() []PreviewEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.preview)
}

// Providers returns the distinct providers of the staged entries, sorted.
func (c *Controller) Providers() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []string
	for _, entry := range c.preview {
		if entry.Channel.Provider != "" && !slices.Contains(out, entry.Channel.Provider) {
			out = append(out, entry.Channel.Provider)
		}
	}
	slices.Sort(out)
	return out
}

// stageBatchLocked folds a batch into the preview and reconciles the staged
// set against the persisted list. Nothing is written. A rediscovered identity
// replaces its earlier preview entry.
func (c *Controller) stageBatchLocked(ctx context.Context, batch []models.DiscoveredChannel) {
	existing, err := c.store.List(ctx)
	if err != nil {
		log.Error().Err(err).Int("channels", len(batch)).Msg("scan: failed to load channel list, discarding batch")
		c.metrics.ObserveBatch("failed", 0, 0)
		return
	}

	seen := make(map[models.Identity]struct{}, len(batch))
	for _, cand := range batch {
		seen[cand.Identity] = struct{}{}
		if pos, ok := c.previewAt[cand.Identity]; ok {
			c.preview[pos].Channel = cand
			continue
		}
		c.previewAt[cand.Identity] = len(c.preview)
		c.preview = append(c.preview, PreviewEntry{Channel: cand, MatchIndex: -1})
	}

	plan := c.reannotateLocked(existing)

	var updates, inserts int
	for id := range seen {
		if c.preview[c.previewAt[id]].IsNew() {
			inserts++
		} else {
			updates++
		}
	}
	c.metrics.ObserveBatch("merged", updates, inserts)

	if len(plan.Collisions) > 0 && c.session != nil && !c.session.collisionsReported {
		c.session.collisionsReported = true
		for _, collision := range plan.Collisions {
			log.Warn().Str("identity", collision.Identity.String()).Ints("indexes", collision.Indexes).
				Msg("scan: identity held by several channels, merging into the first")
		}
		c.notify(notifications.Event{Type: notifications.EventIdentityCollision, Count: len(plan.Collisions)})
	}

	log.Debug().Int("channels", len(batch)).Int("updates", updates).Int("inserts", inserts).
		Int("preview", len(c.preview)).Msg("scan: batch staged")
}

// reannotateLocked reconciles every staged entry against existing. Matched
// entries carry the list position and the number they keep, new entries the
// provisional number a commit of the whole preview would assign.
func (c *Controller) reannotateLocked(existing []models.Channel) channels.Plan {
	staged := make([]models.DiscoveredChannel, len(c.preview))
	for i, entry := range c.preview {
		staged[i] = entry.Channel
		c.preview[i].MatchIndex, c.preview[i].Number = -1, 0
	}

	plan := channels.Reconcile(existing, staged)
	for _, u := range plan.Updates {
		if pos, ok := c.previewAt[u.Channel.Identity]; ok {
			c.preview[pos].MatchIndex = u.Index
			c.preview[pos].Number = u.Channel.Number
		}
	}
	for _, ins := range plan.Inserts {
		if pos, ok := c.previewAt[ins.Identity]; ok {
			c.preview[pos].Number = ins.Number
		}
	}
	return plan
}

// AddSelected commits the preview entries at indexes.
func (c *Controller) AddSelected(ctx context.Context, indexes []int) (channels.Plan, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	picked := make([]models.DiscoveredChannel, 0, len(indexes))
	for _, i := range indexes {
		if i < 0 || i >= len(c.preview) {
			return channels.Plan{}, fmt.Errorf("%w: index %d of %d", ErrInvalidSelection, i, len(c.preview))
		}
		picked = append(picked, c.preview[i].Channel)
	}

	return c.commitLocked(ctx, picked)
}

// AddFiltered commits every preview entry passing filter.
func (c *Controller) AddFiltered(ctx context.Context, filter channels.Filter) (channels.Plan, error) {
	compiled, err := filter.Compile()
	if err != nil {
		return channels.Plan{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var picked []models.DiscoveredChannel
	for _, entry := range c.preview {
		if compiled.Match(entry.Channel) {
			picked = append(picked, entry.Channel)
		}
	}

	return c.commitLocked(ctx, picked)
}

// DeleteAll empties the channel list.
func (c *Controller) DeleteAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.ReplaceAll(ctx, nil); err != nil {
		return fmt.Errorf("delete all channels: %w", err)
	}
	c.reannotateLocked(nil)

	log.Info().Msg("scan: channel list cleared")
	return nil
}

func (c *Controller) commitLocked(ctx context.Context, picked []models.DiscoveredChannel) (channels.Plan, error) {
	if len(picked) == 0 {
		return channels.Plan{}, nil
	}

	existing, err := c.store.List(ctx)
	if err != nil {
		return channels.Plan{}, fmt.Errorf("load channel list: %w", err)
	}

	plan := channels.Reconcile(existing, picked)
	if plan.Empty() {
		return plan, nil
	}

	if err := c.store.ApplyPlan(ctx, plan.Updates, plan.Inserts); err != nil {
		return channels.Plan{}, fmt.Errorf("apply scan plan: %w", err)
	}
	c.metrics.ObserveCommit(len(plan.Updates), len(plan.Inserts))

	committed, err := c.store.List(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("scan: failed to reload channel list after commit")
	} else {
		c.reannotateLocked(committed)
	}

	log.Info().Int("updates", len(plan.Updates)).Int("inserts", len(plan.Inserts)).Msg("scan: channels committed")
	c.notify(notifications.Event{Type: notifications.EventChannelsAdded, Count: len(plan.Updates) + len(plan.Inserts)})
	return plan, nil
}
