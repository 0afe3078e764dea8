// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package channels

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/autobrr/dvbtab/internal/models"
)

// Search returns the channels whose name fuzzily contains query, best match
// first. Ties keep list order. An empty query returns the list unchanged.
func Search(list []models.Channel, query string) []models.Channel {
	query = strings.TrimSpace(query)
	if query == "" {
		return list
	}

	names := make([]string, len(list))
	for i, ch := range list {
		names[i] = ch.Name
	}

	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].OriginalIndex < ranks[j].OriginalIndex
	})

	out := make([]models.Channel, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, list[r.OriginalIndex])
	}
	return out
}

// FindByNumber returns the position of the channel with number.
func FindByNumber(list []models.Channel, number int) (int, bool) {
	for i, ch := range list {
		if ch.Number == number {
			return i, true
		}
	}
	return -1, false
}

// FindByName returns the position of the channel called name. An exact
// match wins over a case-insensitive one.
func FindByName(list []models.Channel, name string) (int, bool) {
	fold := -1
	for i, ch := range list {
		if ch.Name == name {
			return i, true
		}
		if fold < 0 && strings.EqualFold(ch.Name, name) {
			fold = i
		}
	}
	return fold, fold >= 0
}

// SortByNumber returns a copy of list ordered by channel number.
func SortByNumber(list []models.Channel) []models.Channel {
	out := make([]models.Channel, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}
