// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package channels

import (
	"slices"

	"github.com/autobrr/dvbtab/internal/models"
)

// AssignNumbers gives each insert, in order, the lowest number not used by
// existing and not handed out earlier in the same call. Numbers are written
// into inserts in place; existing is only read.
func AssignNumbers(existing []models.Channel, inserts []models.Channel) {
	taken := make([]int, 0, len(existing))
	for _, ch := range existing {
		taken = append(taken, ch.Number)
	}
	slices.Sort(taken)

	cursor := 1
	next := 0
	for i := range inserts {
		for next < len(taken) && taken[next] <= cursor {
			if taken[next] == cursor {
				cursor++
			}
			next++
		}
		inserts[i].Number = cursor
		cursor++
	}
}
