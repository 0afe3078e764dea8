// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package scan runs channel scan sessions: it drives a producer, stages
// what the producer finds into a preview list reconciled against the
// persisted channel list, polls tuner status and commits user selections.
package scan

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/dvbtab/internal/metrics/collector"
	"github.com/autobrr/dvbtab/internal/models"
	"github.com/autobrr/dvbtab/internal/services/notifications"
)

// ChannelStore is the persistence the controller commits through.
type ChannelStore interface {
	List(ctx context.Context) ([]models.Channel, error)
	ApplyUpdate(ctx context.Context, index int, channel models.Channel) error
	ApplyInserts(ctx context.Context, channels []models.Channel) error
	ApplyPlan(ctx context.Context, updates []models.ChannelUpdate, inserts []models.Channel) error
	ReplaceAll(ctx context.Context, channels []models.Channel) error
}

// Config holds the controller configuration.
type Config struct {
	// StatusInterval is how often the tuner is polled while scanning.
	StatusInterval time.Duration
}

// DefaultConfig returns the default controller configuration.
func DefaultConfig() Config {
	return Config{StatusInterval: time.Second}
}

// Status is a snapshot of the controller for display.
type Status struct {
	State          State     `json:"state"`
	LastOutcome    State     `json:"lastOutcome,omitempty"`
	Generation     uint64    `json:"generation"`
	Source         string    `json:"source,omitempty"`
	Live           bool      `json:"live"`
	SignalStrength int       `json:"signalStrength"`
	SignalToNoise  int       `json:"signalToNoise"`
	Locked         bool      `json:"locked"`
	DeviceError    string    `json:"deviceError,omitempty"`
	Discovered     int       `json:"discovered"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type session struct {
	generation uint64
	request    Request
	producer   Producer
	cancel     context.CancelFunc
	pumpDone   chan struct{}
	pollDone   chan struct{}

	collisionsReported bool
}

// shutdown stops the producer and waits for the session goroutines. The
// pump is not awaited when shutdown runs on the pump itself.
func (s *session) shutdown(waitPump bool) {
	s.cancel()
	s.producer.Stop()
	<-s.pollDone
	if waitPump {
		<-s.pumpDone
	}
}

// Controller owns at most one scan session at a time.
type Controller struct {
	cfg         Config
	store       ChannelStore
	newProducer ProducerFactory
	notifier    notifications.Notifier
	metrics     *collector.ScanCollector

	mu          sync.Mutex
	state       State
	lastOutcome State
	generation  uint64
	session     *session
	preview     []PreviewEntry
	previewAt   map[models.Identity]int
	status      Status
}

// NewController creates a new scan controller.
func NewController(cfg Config, store ChannelStore, newProducer ProducerFactory, notifier notifications.Notifier, metrics *collector.ScanCollector) *Controller {
	if cfg.StatusInterval <= 0 {
		cfg.StatusInterval = DefaultConfig().StatusInterval
	}
	return &Controller{
		cfg:         cfg,
		store:       store,
		newProducer: newProducer,
		notifier:    notifier,
		metrics:     metrics,
		state:       StateIdle,
		previewAt:   make(map[models.Identity]int),
	}
}

// Start begins a scan session. The preview list of the previous session is
// dropped.
func (c *Controller) Start(ctx context.Context, req Request) error {
	return c.HandleEvent(ctx, Event{Kind: EventStart, Request: &req}).Err
}

// Stop ends the current session and returns once the producer is torn
// down. Events the old producer still delivers are ignored.
func (c *Controller) Stop(ctx context.Context) error {
	return c.HandleEvent(ctx, Event{Kind: EventStop}).Err
}

// State returns the current controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Status returns the latest snapshot.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.status
	st.State = c.state
	st.LastOutcome = c.lastOutcome
	st.Generation = c.generation
	st.Discovered = len(c.preview)
	return st
}

// HandleEvent applies ev and reports the resulting transition. Every state
// change of the controller goes through here.
func (c *Controller) HandleEvent(ctx context.Context, ev Event) Transition {
	c.mu.Lock()
	tr, teardown := c.handleLocked(ctx, ev)
	c.mu.Unlock()

	if teardown != nil {
		teardown()
	}
	return tr
}

func (c *Controller) handleLocked(ctx context.Context, ev Event) (Transition, func()) {
	tr := Transition{From: c.state, To: c.state}

	if ev.Kind != EventStart && ev.Generation != 0 && (c.session == nil || ev.Generation != c.generation) {
		log.Debug().Str("event", string(ev.Kind)).Uint64("generation", ev.Generation).Uint64("current", c.generation).
			Msg("scan: ignoring event from previous session")
		if ev.Kind == EventBatch {
			c.metrics.ObserveBatch("discarded", 0, 0)
		}
		tr.Ignored = true
		return tr, nil
	}

	next, err := nextState(c.state, ev.Kind)
	if err != nil {
		tr.Err = err
		switch {
		case errors.Is(err, ErrScanAlreadyActive):
			log.Error().Err(err).Msg("scan: start requested while scanning")
		case errors.Is(err, errStaleEvent):
			tr.Ignored = true
			tr.Err = nil
		default:
			log.Debug().Err(err).Str("event", string(ev.Kind)).Msg("scan: event rejected")
		}
		return tr, nil
	}

	switch ev.Kind {
	case EventStart:
		if err := c.startLocked(ev.Request); err != nil {
			tr.Err = err
			return tr, nil
		}
	case EventBatch:
		c.stageBatchLocked(ctx, ev.Channels)
	case EventStop, EventFinished:
		sess := c.session
		c.session = nil
		c.generation++
		c.state = StateIdle
		c.lastOutcome = next
		c.metrics.ObserveSession(string(next))
		c.notifyOutcomeLocked(next, sess.request.Source, ev.Err)

		// user stops wait for the pump, the pump never waits for itself
		waitPump := ev.Generation == 0
		tr.To = next
		return tr, func() { sess.shutdown(waitPump) }
	}

	tr.To = next
	return tr, nil
}

func (c *Controller) startLocked(req *Request) error {
	if req == nil {
		return ErrInvalidRequest
	}
	if err := req.Validate(); err != nil {
		return err
	}
	if c.newProducer == nil {
		return ErrNoProducer
	}

	producer, err := c.newProducer(*req)
	if err != nil {
		log.Error().Err(err).Str("source", req.Source).Msg("scan: failed to create producer")
		c.notify(notifications.Event{Type: notifications.EventScanFailed, Source: req.Source, ErrorMessage: err.Error()})
		return err
	}

	// the session outlives the request that started it
	sessCtx, cancel := context.WithCancel(context.Background())
	events, err := producer.Start(sessCtx)
	if err != nil {
		cancel()
		log.Error().Err(err).Str("source", req.Source).Msg("scan: failed to start producer")
		c.notify(notifications.Event{Type: notifications.EventScanFailed, Source: req.Source, ErrorMessage: err.Error()})
		return err
	}

	c.generation++
	sess := &session{
		generation: c.generation,
		request:    *req,
		producer:   producer,
		cancel:     cancel,
		pumpDone:   make(chan struct{}),
		pollDone:   make(chan struct{}),
	}
	c.session = sess
	c.state = StateScanning
	c.preview = nil
	c.previewAt = make(map[models.Identity]int)
	c.status = Status{Source: req.Source, Live: req.Live, UpdatedAt: time.Now()}

	go c.pump(sessCtx, sess.generation, events, sess.pumpDone)
	if req.Device != nil {
		go c.poll(sessCtx, sess.generation, req.Device, sess.pollDone)
	} else {
		close(sess.pollDone)
	}

	log.Info().Str("source", req.Source).Bool("live", req.Live).Int("transponders", len(req.Transponders)).
		Uint64("generation", sess.generation).Msg("scan: session started")
	return nil
}

func (c *Controller) pump(ctx context.Context, generation uint64, events <-chan ProducerEvent, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				c.HandleEvent(ctx, Event{Kind: EventFinished, Generation: generation})
				return
			}
			if ev.Err != nil {
				log.Error().Err(ev.Err).Uint64("generation", generation).Msg("scan: producer failed")
				c.HandleEvent(ctx, Event{Kind: EventStop, Generation: generation, Err: ev.Err})
				return
			}
			if len(ev.Channels) > 0 {
				c.HandleEvent(ctx, Event{Kind: EventBatch, Generation: generation, Channels: ev.Channels})
			}
			if ev.Done {
				c.HandleEvent(ctx, Event{Kind: EventFinished, Generation: generation})
				return
			}
		}
	}
}

func (c *Controller) poll(ctx context.Context, generation uint64, dev Device, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.cfg.StatusInterval)
	defer ticker.Stop()

	c.pollOnce(generation, dev)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.pollOnce(generation, dev)
		}
	}
}

// pollOnce reads the tuner and publishes the values. Read failures only
// show up in the snapshot.
func (c *Controller) pollOnce(generation uint64, dev Device) {
	strength, strengthErr := dev.SignalStrength()
	snr, snrErr := dev.SignalToNoiseRatio()
	locked, lockErr := dev.IsLocked()

	err := errors.Join(strengthErr, snrErr, lockErr)
	if err != nil {
		log.Warn().Err(err).Uint64("generation", generation).Msg("scan: failed to read tuner status")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil || generation != c.generation {
		return
	}

	c.status.SignalStrength = strength
	c.status.SignalToNoise = snr
	c.status.Locked = locked
	c.status.DeviceError = ""
	if err != nil {
		c.status.DeviceError = err.Error()
	}
	c.status.UpdatedAt = time.Now()
	c.metrics.ObserveSignal(strength, snr, locked)
}

func (c *Controller) notifyOutcomeLocked(outcome State, source string, cause error) {
	event := notifications.Event{Source: source, Count: len(c.preview)}
	switch {
	case cause != nil:
		event.Type = notifications.EventScanFailed
		event.ErrorMessage = cause.Error()
	case outcome == StateFinished:
		event.Type = notifications.EventScanFinished
	default:
		event.Type = notifications.EventScanStopped
	}

	log.Info().Str("source", source).Str("outcome", string(outcome)).Int("discovered", len(c.preview)).
		Msg("scan: session ended")
	c.notify(event)
}

func (c *Controller) notify(event notifications.Event) {
	if c.notifier == nil {
		return
	}
	c.notifier.Notify(event)
}
