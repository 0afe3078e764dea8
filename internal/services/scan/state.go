// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package scan

import (
	"errors"
	"fmt"

	"github.com/autobrr/dvbtab/internal/models"
)

var (
	ErrScanAlreadyActive = errors.New("scan already active")
	ErrNotScanning       = errors.New("no scan in progress")
	errStaleEvent        = errors.New("stale scan event")
)

// State of the scan session controller. Stopped and Finished are outcomes:
// the controller reports them and settles back to Idle at once.
type State string

const (
	StateIdle     State = "idle"
	StateScanning State = "scanning"
	StateStopped  State = "stopped"
	StateFinished State = "finished"
)

func (s State) IsTerminal() bool {
	return s == StateStopped || s == StateFinished
}

type EventKind string

const (
	EventStart    EventKind = "start"
	EventBatch    EventKind = "batch"
	EventStop     EventKind = "stop"
	EventFinished EventKind = "finished"
)

// Event drives the controller. Generation ties producer events to the
// session that emitted them; zero means "whatever session is current" and is
// only meaningful for user initiated stops.
type Event struct {
	Kind       EventKind
	Generation uint64
	Request    *Request
	Channels   []models.DiscoveredChannel
	Err        error
}

// Transition describes the effect of one event.
type Transition struct {
	From    State `json:"from"`
	To      State `json:"to"`
	Ignored bool  `json:"ignored,omitempty"`
	Err     error `json:"-"`
}

func nextState(from State, kind EventKind) (State, error) {
	switch kind {
	case EventStart:
		if from == StateScanning {
			return from, ErrScanAlreadyActive
		}
		return StateScanning, nil
	case EventBatch:
		if from != StateScanning {
			return from, errStaleEvent
		}
		return StateScanning, nil
	case EventStop:
		if from != StateScanning {
			return from, ErrNotScanning
		}
		return StateStopped, nil
	case EventFinished:
		if from != StateScanning {
			return from, errStaleEvent
		}
		return StateFinished, nil
	default:
		return from, fmt.Errorf("unknown scan event %q", kind)
	}
}
