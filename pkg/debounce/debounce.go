// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package debounce

import (
	"sync"
	"sync/atomic"
	"time"
)

// Debouncer runs the most recently submitted function once no new
// submission arrived for the delay. Every submission restarts the wait.
type Debouncer struct {
	submissions chan func()
	cancels     chan struct{}
	delay       time.Duration
	done        chan struct{}

	mu      sync.RWMutex
	pending bool
	stopped atomic.Bool
}

// New creates a new Debouncer with the specified delay.
func New(delay time.Duration) *Debouncer {
	d := &Debouncer{
		submissions: make(chan func(), 16),
		cancels:     make(chan struct{}, 1),
		delay:       delay,
		done:        make(chan struct{}),
	}

	go d.run()

	return d
}

func (d *Debouncer) run() {
	defer close(d.done)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	var latest func()

	fire := func() {
		fn := latest
		latest = nil
		d.setPending(false)
		if fn != nil {
			fn()
		}
	}

	for {
		select {
		case <-timer.C:
			fire()
		case <-d.cancels:
			timer.Stop()
			latest = nil
			d.setPending(false)
		case fn, ok := <-d.submissions:
			if !ok {
				timer.Stop()
				fire()
				return
			}
			latest = fn
			d.setPending(true)
			timer.Reset(d.delay)
		}
	}
}

func (d *Debouncer) setPending(v bool) {
	d.mu.Lock()
	d.pending = v
	d.mu.Unlock()
}

// Do schedules fn to run after the delay, replacing any function still
// waiting. After Stop, fn runs immediately.
func (d *Debouncer) Do(fn func()) {
	if d.stopped.Load() {
		fn()
		return
	}

	select {
	case d.submissions <- fn:
	default:
		if d.stopped.Load() {
			fn()
		}
		// buffer full, drop
	}
}

// Cancel drops the waiting function, if any.
func (d *Debouncer) Cancel() {
	if d.stopped.Load() {
		return
	}
	select {
	case d.cancels <- struct{}{}:
	default:
	}
}

// Queued reports whether a function is waiting to run.
func (d *Debouncer) Queued() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.pending
}

// Stop runs the waiting function, if any, and shuts the debouncer down.
func (d *Debouncer) Stop() {
	if !d.stopped.CompareAndSwap(false, true) {
		return
	}

	close(d.submissions)
	<-d.done
}
