// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package channels

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/autobrr/dvbtab/internal/models"
)

func namedList() []models.Channel {
	return []models.Channel{
		{Identity: id(1), Name: "ZDF", Number: 2},
		{Identity: id(2), Name: "Das Erste", Number: 1},
		{Identity: id(3), Name: "zdf neo", Number: 3},
		{Identity: id(4), Name: "arte", Number: 4},
	}
}

func TestSearch(t *testing.T) {
	t.Parallel()

	list := namedList()

	got := Search(list, "zdf")
	if assert.Len(t, got, 2) {
		assert.Equal(t, "ZDF", got[0].Name)
		assert.Equal(t, "zdf neo", got[1].Name)
	}

	assert.Empty(t, Search(list, "pro7"))
	assert.Equal(t, list, Search(list, "  "))
}

func TestFindByNameAndNumber(t *testing.T) {
	t.Parallel()

	list := namedList()

	i, ok := FindByName(list, "arte")
	assert.True(t, ok)
	assert.Equal(t, 3, i)

	i, ok = FindByName(list, "das erste")
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	_, ok = FindByName(list, "Sat.1")
	assert.False(t, ok)

	i, ok = FindByNumber(list, 3)
	assert.True(t, ok)
	assert.Equal(t, 2, i)

	_, ok = FindByNumber(list, 9)
	assert.False(t, ok)
}

func TestSortByNumber(t *testing.T) {
	t.Parallel()

	list := namedList()
	sorted := SortByNumber(list)

	assert.Equal(t, []int{1, 2, 3, 4}, []int{sorted[0].Number, sorted[1].Number, sorted[2].Number, sorted[3].Number})
	assert.Equal(t, "ZDF", list[0].Name, "input order is kept")
}

func TestFindCollisions(t *testing.T) {
	t.Parallel()

	list := []models.Channel{
		{Identity: id(1), Number: 1},
		{Identity: id(2), Number: 2},
		{Identity: id(1), Number: 3},
		{Identity: id(2), Number: 4},
		{Identity: id(1), Number: 5},
	}

	assert.Equal(t, []Collision{
		{Identity: id(1), Indexes: []int{0, 2, 4}},
		{Identity: id(2), Indexes: []int{1, 3}},
	}, FindCollisions(list))

	assert.Empty(t, FindCollisions(namedList()))
}
