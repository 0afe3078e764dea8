// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package channels

import (
	"errors"
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/autobrr/dvbtab/internal/models"
)

var ErrInvalidFilter = errors.New("invalid channel filter")

// Filter selects discovered channels for a bulk add.
//
// Radio and TV behave like two checkboxes: exactly one checked restricts the
// result to that kind, both or neither let everything through.
type Filter struct {
	FreeToAirOnly bool   `json:"freeToAirOnly"`
	Radio         bool   `json:"radio"`
	TV            bool   `json:"tv"`
	Provider      string `json:"provider,omitempty"`
	// Expression is an optional boolean expr-lang expression over filterEnv,
	// e.g. `ServiceID > 1000 && Name contains "HD"`.
	Expression string `json:"expression,omitempty"`
}

// filterEnv is the set of fields exposed to filter expressions.
type filterEnv struct {
	Name              string
	Provider          string
	Source            string
	NetworkID         int
	TransportStreamID int
	ServiceID         int
	Scrambled         bool
	Radio             bool
	VideoPID          int
	AudioPIDs         []int
	Transponder       string
}

// CompiledFilter is a Filter ready to be matched.
type CompiledFilter struct {
	filter  Filter
	program *vm.Program
}

// Compile validates the filter expression.
func (f Filter) Compile() (*CompiledFilter, error) {
	cf := &CompiledFilter{filter: f}

	if strings.TrimSpace(f.Expression) == "" {
		return cf, nil
	}

	program, err := expr.Compile(f.Expression, expr.Env(filterEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFilter, err)
	}
	cf.program = program
	return cf, nil
}

// Match reports whether ch passes the filter. Expression runtime errors
// count as no match.
func (cf *CompiledFilter) Match(ch models.DiscoveredChannel) bool {
	f := cf.filter

	if f.FreeToAirOnly && ch.Scrambled {
		return false
	}

	switch {
	case f.Radio && !f.TV:
		if !ch.IsRadio() {
			return false
		}
	case f.TV && !f.Radio:
		if ch.IsRadio() {
			return false
		}
	}

	if f.Provider != "" && ch.Provider != f.Provider {
		return false
	}

	if cf.program == nil {
		return true
	}

	out, err := expr.Run(cf.program, filterEnv{
		Name:              ch.Name,
		Provider:          ch.Provider,
		Source:            ch.Source,
		NetworkID:         ch.NetworkID,
		TransportStreamID: ch.TransportStreamID,
		ServiceID:         ch.ServiceID,
		Scrambled:         ch.Scrambled,
		Radio:             ch.IsRadio(),
		VideoPID:          ch.VideoPID,
		AudioPIDs:         ch.AudioPIDs,
		Transponder:       string(ch.Transponder),
	})
	if err != nil {
		return false
	}

	matched, ok := out.(bool)
	return ok && matched
}

// Apply returns the channels of list that pass the filter, in order.
func (cf *CompiledFilter) Apply(list []models.DiscoveredChannel) []models.DiscoveredChannel {
	var out []models.DiscoveredChannel
	for _, ch := range list {
		if cf.Match(ch) {
			out = append(out, ch)
		}
	}
	return out
}

// ApplyChannels is Apply for persisted channels.
func (cf *CompiledFilter) ApplyChannels(list []models.Channel) []models.Channel {
	out := []models.Channel{}
	for _, ch := range list {
		if cf.Match(models.DiscoveredChannel{
			Identity:    ch.Identity,
			Name:        ch.Name,
			AudioPID:    ch.AudioPID,
			AudioPIDs:   ch.AudioPIDs,
			VideoPID:    ch.VideoPID,
			Provider:    ch.Provider,
			Scrambled:   ch.Scrambled,
			Transponder: ch.Transponder,
		}) {
			out = append(out, ch)
		}
	}
	return out
}
