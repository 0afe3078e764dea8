// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package scan

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/autobrr/dvbtab/internal/models"
)

var (
	ErrNoProducer     = errors.New("no scan producer configured")
	ErrInvalidRequest = errors.New("invalid scan request")
)

// Request describes what to scan. Live scans cover the transponder of the
// channel being watched; provider scans cover a transponder list taken from a
// scan file. The controller never derives transponders itself.
type Request struct {
	Source       string               `json:"source"`
	Device       Device               `json:"-"`
	Live         bool                 `json:"live"`
	Transponders []models.Transponder `json:"transponders"`
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.Source) == "" {
		return fmt.Errorf("%w: source is required", ErrInvalidRequest)
	}
	if len(r.Transponders) == 0 {
		return fmt.Errorf("%w: at least one transponder is required", ErrInvalidRequest)
	}
	if r.Live && len(r.Transponders) != 1 {
		return fmt.Errorf("%w: live scans cover exactly one transponder, got %d", ErrInvalidRequest, len(r.Transponders))
	}
	return nil
}

// ProducerEvent is one message from a scan producer. A closed channel counts
// as completion.
type ProducerEvent struct {
	Channels []models.DiscoveredChannel
	Done     bool
	Err      error
}

// Producer tunes, parses service information and reports discovered
// channels. Stop must be idempotent, must unblock any pending send and must
// return only after the producer stopped touching the device.
type Producer interface {
	Start(ctx context.Context) (<-chan ProducerEvent, error)
	Stop()
}

// ProducerFactory builds a producer for a request.
type ProducerFactory func(req Request) (Producer, error)
