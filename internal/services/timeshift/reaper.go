// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package timeshift deletes stale time-shift buffer segments. The player
// writes segments named so that name order is creation order; every segment
// but the newest one is stale.
package timeshift

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"github.com/spf13/afero"

	"github.com/autobrr/dvbtab/internal/metrics/collector"
	"github.com/autobrr/dvbtab/internal/services/notifications"
)

const (
	DefaultPattern  = "TimeShift-*.m2t"
	DefaultInterval = 30 * time.Second
)

type Config struct {
	// Pattern is the glob segment file names match.
	Pattern string
	// Interval is how often Run requests a cleanup.
	Interval time.Duration
	// Watch makes Run also request a cleanup whenever a new segment appears.
	Watch bool
}

func DefaultConfig() Config {
	return Config{Pattern: DefaultPattern, Interval: DefaultInterval, Watch: true}
}

// Result is the outcome of one cleanup.
type Result struct {
	Dir     string
	Deleted []string
	Failed  int
	Skipped int
	// Err is set when the folder could not be listed or the cleanup panicked.
	Err error
}

// Reaper runs at most one cleanup at a time. Requests arriving while one
// is in flight are dropped, not queued.
type Reaper struct {
	fs       afero.Fs
	cfg      Config
	notifier notifications.Notifier
	metrics  *collector.TimeShiftCollector

	inFlight sync.Mutex
	wg       conc.WaitGroup

	// mu orders Close against requests registering with wg.
	mu     sync.Mutex
	closed bool
}

func NewReaper(fs afero.Fs, cfg Config, notifier notifications.Notifier, metrics *collector.TimeShiftCollector) *Reaper {
	def := DefaultConfig()
	if cfg.Pattern == "" {
		cfg.Pattern = def.Pattern
	}
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	return &Reaper{fs: fs, cfg: cfg, notifier: notifier, metrics: metrics}
}

// RequestCleanup starts a cleanup of dir in the background. It returns false
// without doing anything when a cleanup is already running or the reaper is
// closed. The channel receives exactly one Result and is then closed.
func (r *Reaper) RequestCleanup(dir string) (<-chan Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		r.metrics.ObserveRequest("closed")
		return nil, false
	}
	if !r.inFlight.TryLock() {
		log.Debug().Str("dir", dir).Msg("timeshift: cleanup already in flight, dropping request")
		r.metrics.ObserveRequest("coalesced")
		return nil, false
	}
	r.metrics.ObserveRequest("started")

	results := make(chan Result, 1)
	r.wg.Go(func() {
		defer r.inFlight.Unlock()
		defer close(results)
		results <- r.cleanRecovered(dir)
	})
	return results, true
}

// cleanRecovered runs clean and turns a panic into a failed Result, so a
// panic is reported once, by the cleanup that raised it.
func (r *Reaper) cleanRecovered(dir string) Result {
	var (
		pc  panics.Catcher
		res Result
	)
	pc.Try(func() { res = r.clean(dir) })

	if recovered := pc.Recovered(); recovered != nil {
		log.Error().Str("dir", dir).Str("panic", recovered.String()).Msg("timeshift: cleanup panicked")
		res = Result{Dir: dir, Err: recovered.AsError()}
		r.notify(notifications.Event{Type: notifications.EventTimeShiftCleanupError, ErrorMessage: res.Err.Error()})
	}
	return res
}

// Wait blocks until the running cleanup, if any, has finished.
func (r *Reaper) Wait() {
	r.wg.Wait()
}

// Close rejects further requests and waits for the running cleanup.
func (r *Reaper) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.Wait()
}

// Segments returns the segment files in dir in name order.
func (r *Reaper) Segments(dir string) ([]string, error) {
	matches, err := afero.Glob(r.fs, filepath.Join(dir, r.cfg.Pattern))
	if err != nil {
		return nil, fmt.Errorf("list time-shift segments: %w", err)
	}
	sort.Strings(matches)
	return matches, nil
}

func (r *Reaper) clean(dir string) Result {
	res := Result{Dir: dir}

	segments, err := r.Segments(dir)
	if err != nil {
		log.Error().Err(err).Str("dir", dir).Msg("timeshift: failed to list segments")
		res.Err = err
		r.notify(notifications.Event{Type: notifications.EventTimeShiftCleanupError, ErrorMessage: err.Error()})
		return res
	}
	if len(segments) < 2 {
		return res
	}

	// the newest segment is the one being written
	for _, target := range segments[:len(segments)-1] {
		disposition, err := safeDeleteSegment(r.fs, dir, target)
		if err != nil {
			log.Warn().Err(err).Str("path", target).Msg("timeshift: failed to delete segment")
			res.Failed++
			continue
		}
		switch disposition {
		case deleteDispositionDeleted:
			res.Deleted = append(res.Deleted, target)
		default:
			res.Skipped++
		}
	}

	r.metrics.ObserveSegments(len(res.Deleted), res.Failed, res.Skipped)
	log.Debug().Str("dir", dir).Int("deleted", len(res.Deleted)).Int("failed", res.Failed).Int("skipped", res.Skipped).
		Msg("timeshift: cleanup finished")

	if len(res.Deleted) > 0 {
		r.notify(notifications.Event{Type: notifications.EventTimeShiftCleaned, Count: len(res.Deleted), Failed: res.Failed})
	}
	if res.Failed > 0 {
		r.notify(notifications.Event{Type: notifications.EventTimeShiftCleanupError, Count: len(res.Deleted), Failed: res.Failed})
	}
	return res
}

// Run requests a cleanup of dir on every tick until ctx is done, and on
// segment creation when watching is enabled. It waits for the running
// cleanup before returning.
func (r *Reaper) Run(ctx context.Context, dir string) error {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	var created <-chan fsnotify.Event
	var watchErrs <-chan error
	if r.cfg.Watch {
		watcher, err := fsnotify.NewWatcher()
		if err == nil {
			err = watcher.Add(dir)
		}
		if err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("timeshift: segment watch unavailable, relying on interval")
			if watcher != nil {
				watcher.Close()
			}
		} else {
			defer watcher.Close()
			created, watchErrs = watcher.Events, watcher.Errors
		}
	}

	log.Info().Str("dir", dir).Dur("interval", r.cfg.Interval).Bool("watch", created != nil).Msg("timeshift: reaper started")
	defer r.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.RequestCleanup(dir)
		case ev, ok := <-created:
			if !ok {
				created = nil
				continue
			}
			if ev.Has(fsnotify.Create) && r.matches(ev.Name) {
				r.RequestCleanup(dir)
			}
		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			log.Warn().Err(err).Str("dir", dir).Msg("timeshift: segment watch error")
		}
	}
}

func (r *Reaper) matches(path string) bool {
	ok, err := filepath.Match(r.cfg.Pattern, filepath.Base(path))
	return err == nil && ok
}

func (r *Reaper) notify(event notifications.Event) {
	if r.notifier == nil {
		return
	}
	r.notifier.Notify(event)
}
