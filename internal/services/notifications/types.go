// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package notifications

import (
	"fmt"
	"strings"
)

type EventType string

const (
	EventScanFinished          EventType = "scan_finished"
	EventScanStopped           EventType = "scan_stopped"
	EventScanFailed            EventType = "scan_failed"
	EventChannelsAdded         EventType = "channels_added"
	EventIdentityCollision     EventType = "identity_collision"
	EventInstantRecordStarted  EventType = "instant_record_started"
	EventInstantRecordStopped  EventType = "instant_record_stopped"
	EventTimeShiftCleaned      EventType = "timeshift_cleaned"
	EventTimeShiftCleanupError EventType = "timeshift_cleanup_error"
)

type EventDefinition struct {
	Type        EventType `json:"type"`
	Label       string    `json:"label"`
	Description string    `json:"description"`
}

var eventDefinitions = []EventDefinition{
	{Type: EventScanFinished, Label: "Scan finished", Description: "A channel scan ran to completion."},
	{Type: EventScanStopped, Label: "Scan stopped", Description: "A channel scan was stopped before completion."},
	{Type: EventScanFailed, Label: "Scan failed", Description: "A channel scan could not be started or a batch could not be merged."},
	{Type: EventChannelsAdded, Label: "Channels added", Description: "Scanned channels were committed to the channel list."},
	{Type: EventIdentityCollision, Label: "Duplicate channel identity", Description: "Several channels share one source/network/transport stream/service tuple."},
	{Type: EventInstantRecordStarted, Label: "Instant Record Started", Description: "An instant recording of the current channel was scheduled."},
	{Type: EventInstantRecordStopped, Label: "Instant Record Stopped", Description: "The instant recording was stopped or removed from the schedule."},
	{Type: EventTimeShiftCleaned, Label: "Time-shift buffer cleaned", Description: "Old time-shift segments were deleted."},
	{Type: EventTimeShiftCleanupError, Label: "Time-shift cleanup error", Description: "Some time-shift segments could not be deleted."},
}

var eventTypeIndex = func() map[string]int {
	idx := make(map[string]int, len(eventDefinitions))
	for i, def := range eventDefinitions {
		idx[string(def.Type)] = i
	}
	return idx
}()

func EventDefinitions() []EventDefinition {
	out := make([]EventDefinition, len(eventDefinitions))
	copy(out, eventDefinitions)
	return out
}

func IsValidEventType(value string) bool {
	_, ok := eventTypeIndex[value]
	return ok
}

func labelFor(eventType EventType) string {
	if i, ok := eventTypeIndex[string(eventType)]; ok {
		return eventDefinitions[i].Label
	}
	return string(eventType)
}

// NormalizeEventTypes validates input and returns it deduplicated in
// definition order.
func NormalizeEventTypes(input []string) ([]string, error) {
	if len(input) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{}, len(input))
	for _, raw := range input {
		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}
		if !IsValidEventType(value) {
			return nil, fmt.Errorf("unknown event type: %s", value)
		}
		seen[value] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for _, def := range eventDefinitions {
		value := string(def.Type)
		if _, ok := seen[value]; ok {
			out = append(out, value)
		}
	}

	return out, nil
}
