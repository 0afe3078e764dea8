// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package replay plays back recorded scan results as a scan producer. It
// stands in for a tuner when none is attached and drives the scan tests.
package replay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/autobrr/dvbtab/internal/models"
	"github.com/autobrr/dvbtab/internal/services/scan"
)

const DefaultInterval = 250 * time.Millisecond

// Capture is a recorded scan, keyed by transponder.
type Capture struct {
	Signal Signal `yaml:"signal"`

	// Interval is the time spent on each transponder.
	Interval     time.Duration                                     `yaml:"interval"`
	Transponders map[models.Transponder][]models.DiscoveredChannel `yaml:"transponders"`
}

type Signal struct {
	Strength int  `yaml:"strength"`
	SNR      int  `yaml:"snr"`
	Locked   bool `yaml:"locked"`
}

// LoadCapture reads a capture file.
func LoadCapture(fs afero.Fs, path string) (*Capture, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read capture: %w", err)
	}

	var c Capture
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse capture %s: %w", path, err)
	}
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	return &c, nil
}

// Device reports the recorded signal values.
func (c *Capture) Device() *Device {
	return &Device{signal: c.Signal}
}

// Factory builds producers replaying c.
func (c *Capture) Factory() scan.ProducerFactory {
	return func(req scan.Request) (scan.Producer, error) {
		return &Producer{capture: c, transponders: req.Transponders}, nil
	}
}

// Device implements scan.Device from a capture.
type Device struct {
	signal Signal
}

func (d *Device) SignalStrength() (int, error) {
	return d.signal.Strength, nil
}

func (d *Device) SignalToNoiseRatio() (int, error) {
	return d.signal.SNR, nil
}

func (d *Device) IsLocked() (bool, error) {
	return d.signal.Locked, nil
}

// Producer emits one batch per requested transponder, then completes.
type Producer struct {
	capture      *Capture
	transponders []models.Transponder

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

func (p *Producer) Start(ctx context.Context) (<-chan scan.ProducerEvent, error) {
	events := make(chan scan.ProducerEvent)
	started := false
	p.startOnce.Do(func() {
		started = true
		p.stop = make(chan struct{})
		p.done = make(chan struct{})
		go p.run(ctx, events)
	})
	if !started {
		return nil, fmt.Errorf("replay producer already started")
	}
	return events, nil
}

func (p *Producer) run(ctx context.Context, events chan<- scan.ProducerEvent) {
	defer close(p.done)
	defer close(events)

	for _, tp := range p.transponders {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case <-time.After(p.capture.Interval):
		}

		found := p.capture.Transponders[tp]
		if len(found) == 0 {
			log.Debug().Str("transponder", string(tp)).Msg("replay: nothing recorded for transponder")
			continue
		}

		batch := make([]models.DiscoveredChannel, len(found))
		for i, ch := range found {
			if ch.Transponder == "" {
				ch.Transponder = tp
			}
			batch[i] = ch
		}

		if !p.send(ctx, events, scan.ProducerEvent{Channels: batch}) {
			return
		}
	}

	p.send(ctx, events, scan.ProducerEvent{Done: true})
}

func (p *Producer) send(ctx context.Context, events chan<- scan.ProducerEvent, ev scan.ProducerEvent) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	case <-p.stop:
		return false
	}
}

// Stop is idempotent and returns once the producer goroutine exited.
func (p *Producer) Stop() {
	p.stopOnce.Do(func() {
		if p.stop == nil {
			return
		}
		close(p.stop)
		<-p.done
	})
}
