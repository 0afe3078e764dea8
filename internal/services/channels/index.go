// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package channels

import "github.com/autobrr/dvbtab/internal/models"

// Collision is an identity held by more than one channel of the list.
// Merges into a collided identity always target the first holder.
type Collision struct {
	Identity models.Identity `json:"identity"`
	Indexes  []int           `json:"indexes"`
}

// Index maps identities to their first position in a channel list.
type Index struct {
	first      map[models.Identity]int
	collisions []Collision
}

// NewIndex builds an Index over list.
func NewIndex(list []models.Channel) *Index {
	ix := &Index{first: make(map[models.Identity]int, len(list))}

	var dups map[models.Identity][]int
	for i, ch := range list {
		if _, ok := ix.first[ch.Identity]; !ok {
			ix.first[ch.Identity] = i
			continue
		}
		if dups == nil {
			dups = make(map[models.Identity][]int)
		}
		dups[ch.Identity] = append(dups[ch.Identity], i)
	}

	if len(dups) == 0 {
		return ix
	}

	// report in list order of the first holder
	for i, ch := range list {
		extra, ok := dups[ch.Identity]
		if !ok || ix.first[ch.Identity] != i {
			continue
		}
		ix.collisions = append(ix.collisions, Collision{
			Identity: ch.Identity,
			Indexes:  append([]int{i}, extra...),
		})
	}

	return ix
}

// Lookup returns the position of the first channel with id.
func (ix *Index) Lookup(id models.Identity) (int, bool) {
	i, ok := ix.first[id]
	return i, ok
}

// Collisions returns identities held by more than one channel.
func (ix *Index) Collisions() []Collision {
	return ix.collisions
}

// FindCollisions reports every identity that appears more than once in list.
func FindCollisions(list []models.Channel) []Collision {
	return NewIndex(list).Collisions()
}
