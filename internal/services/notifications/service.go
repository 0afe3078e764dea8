// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package notifications turns component events into short user-visible
// messages, logs them and keeps a bounded history for the API.
package notifications

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const defaultHistorySize = 100

type Notifier interface {
	Notify(event Event)
}

type Event struct {
	Type         EventType
	Message      string
	ChannelName  string
	RecordingKey string
	Source       string
	Count        int
	Failed       int
	ErrorMessage string
}

// Message is a formatted event as shown to the user.
type Message struct {
	Type      EventType `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

type Service struct {
	logger zerolog.Logger

	mu      sync.Mutex
	history []Message
	next    int
	full    bool

	now func() time.Time
}

func NewService(logger zerolog.Logger, historySize int) *Service {
	if historySize <= 0 {
		historySize = defaultHistorySize
	}

	return &Service{
		logger:  logger,
		history: make([]Message, historySize),
		now:     time.Now,
	}
}

func (s *Service) Notify(event Event) {
	if s == nil {
		return
	}

	title, body := formatEvent(event)
	if strings.TrimSpace(title) == "" {
		return
	}

	msg := Message{Type: event.Type, Title: title, Body: body, Timestamp: s.now().UTC()}

	logEvent := s.logger.Info()
	if event.ErrorMessage != "" || event.Type == EventIdentityCollision || event.Type == EventScanFailed {
		logEvent = s.logger.Warn()
	}
	logEvent.Str("event", string(event.Type)).Str("title", title).Msg("notifications: " + body)

	s.mu.Lock()
	s.history[s.next] = msg
	s.next = (s.next + 1) % len(s.history)
	if s.next == 0 {
		s.full = true
	}
	s.mu.Unlock()
}

// Recent returns up to limit messages, newest first. limit <= 0 returns all.
func (s *Service) Recent(limit int) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := s.next
	if s.full {
		count = len(s.history)
	}
	if limit <= 0 || limit > count {
		limit = count
	}

	out := make([]Message, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (s.next - 1 - i + len(s.history)) % len(s.history)
		out = append(out, s.history[idx])
	}
	return out
}

func formatEvent(event Event) (string, string) {
	title := labelFor(event.Type)
	if custom := strings.TrimSpace(event.Message); custom != "" {
		return title, custom
	}

	var lines []string
	switch event.Type {
	case EventScanFinished, EventScanStopped:
		lines = append(lines, formatLine("Source", event.Source), fmt.Sprintf("%d channels found", event.Count))
	case EventScanFailed:
		lines = append(lines, formatLine("Source", event.Source))
	case EventChannelsAdded:
		lines = append(lines, fmt.Sprintf("%d channels added", event.Count))
	case EventIdentityCollision:
		lines = append(lines, fmt.Sprintf("%d duplicated identities", event.Count))
	case EventInstantRecordStarted, EventInstantRecordStopped:
		lines = append(lines, formatLine("Channel", event.ChannelName))
	case EventTimeShiftCleaned, EventTimeShiftCleanupError:
		lines = append(lines, fmt.Sprintf("%d segments deleted", event.Count))
		if event.Failed > 0 {
			lines = append(lines, fmt.Sprintf("%d segments failed", event.Failed))
		}
	}

	if event.ErrorMessage != "" {
		lines = append(lines, formatLine("Error", event.ErrorMessage))
	}

	return title, strings.Join(nonEmpty(lines), "; ")
}

func formatLine(label, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return label + ": " + value
}

func nonEmpty(lines []string) []string {
	out := lines[:0]
	for _, line := range lines {
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
