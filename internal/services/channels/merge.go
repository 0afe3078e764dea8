// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package channels reconciles scan results with the persistent channel list
// and hosts the list-level helpers (numbering, filtering, search).
package channels

import (
	"slices"

	"github.com/autobrr/dvbtab/internal/models"
)

// Plan is the outcome of reconciling discovered channels with a list.
// Updates reference list positions; Inserts carry freshly assigned numbers.
type Plan struct {
	Updates    []models.ChannelUpdate `json:"updates"`
	Inserts    []models.Channel       `json:"inserts"`
	Collisions []Collision            `json:"collisions,omitempty"`
}

// Empty reports whether applying the plan would write nothing.
func (p Plan) Empty() bool {
	return len(p.Updates) == 0 && len(p.Inserts) == 0
}

// Reconcile merges candidates into existing without touching either slice.
//
// A candidate whose identity is already in the list becomes an update of the
// first channel holding it: the number is kept, the audio pid is kept when
// still offered, everything else comes from the scan. Any other candidate
// becomes an insert numbered into the lowest free slots.
//
// Several candidates for the same channel collapse into one update at the
// position of the first, carrying the last. The same holds for repeated new
// identities.
func Reconcile(existing []models.Channel, candidates []models.DiscoveredChannel) Plan {
	ix := NewIndex(existing)
	plan := Plan{Collisions: ix.Collisions()}

	updateAt := make(map[int]int)
	insertAt := make(map[models.Identity]int)

	for _, cand := range candidates {
		if i, ok := ix.Lookup(cand.Identity); ok {
			merged := mergeChannel(existing[i], cand)
			if pos, seen := updateAt[i]; seen {
				plan.Updates[pos].Channel = merged
				continue
			}
			updateAt[i] = len(plan.Updates)
			plan.Updates = append(plan.Updates, models.ChannelUpdate{Index: i, Channel: merged})
			continue
		}

		fresh := newChannel(cand)
		if pos, seen := insertAt[cand.Identity]; seen {
			plan.Inserts[pos] = fresh
			continue
		}
		insertAt[cand.Identity] = len(plan.Inserts)
		plan.Inserts = append(plan.Inserts, fresh)
	}

	if len(plan.Inserts) > 0 {
		AssignNumbers(existing, plan.Inserts)
	}

	return plan
}

func mergeChannel(current models.Channel, cand models.DiscoveredChannel) models.Channel {
	return models.Channel{
		Identity:    cand.Identity,
		Name:        cand.Name,
		Number:      current.Number,
		AudioPID:    selectAudioPID(current.AudioPID, cand.AudioPIDs),
		AudioPIDs:   slices.Clone(cand.AudioPIDs),
		VideoPID:    cand.VideoPID,
		Provider:    cand.Provider,
		Scrambled:   cand.Scrambled,
		Transponder: cand.Transponder,
	}
}

func newChannel(cand models.DiscoveredChannel) models.Channel {
	audioPID := cand.AudioPID
	if len(cand.AudioPIDs) > 0 {
		audioPID = cand.AudioPIDs[0]
	}

	return models.Channel{
		Identity:    cand.Identity,
		Name:        cand.Name,
		AudioPID:    audioPID,
		AudioPIDs:   slices.Clone(cand.AudioPIDs),
		VideoPID:    cand.VideoPID,
		Provider:    cand.Provider,
		Scrambled:   cand.Scrambled,
		Transponder: cand.Transponder,
	}
}

// selectAudioPID keeps current when it is still offered, otherwise falls
// back to the first offered pid, or -1 when nothing is offered.
func selectAudioPID(current int, offered []int) int {
	if slices.Contains(offered, current) {
		return current
	}
	if len(offered) > 0 {
		return offered[0]
	}
	return -1
}
