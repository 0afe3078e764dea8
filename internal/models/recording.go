// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/autobrr/dvbtab/internal/dbinterface"
)

var ErrRecordingNotFound = errors.New("recording not found")

// RecordingKey identifies a scheduled recording. The zero value means none.
type RecordingKey string

func (k RecordingKey) IsZero() bool {
	return k == ""
}

// RecordingEntry is a scheduled recording.
type RecordingEntry struct {
	Key         RecordingKey  `json:"key"`
	Name        string        `json:"name"`
	ChannelName string        `json:"channelName"`
	Begin       time.Time     `json:"begin"`
	Duration    time.Duration `json:"duration"`
}

// End returns when the recording stops.
func (e RecordingEntry) End() time.Time {
	return e.Begin.Add(e.Duration)
}

// RecordingStore persists the recording schedule and tells listeners when
// entries disappear, whoever removed them.
type RecordingStore struct {
	db dbinterface.Querier

	mu        sync.RWMutex
	listeners []func(RecordingKey)
}

// NewRecordingStore creates a new RecordingStore.
func NewRecordingStore(db dbinterface.Querier) *RecordingStore {
	return &RecordingStore{db: db}
}

// OnRemoved registers fn to be called after every successful removal.
// Listeners run synchronously on the removing goroutine, with no store lock
// held.
func (s *RecordingStore) OnRemoved(fn func(RecordingKey)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Schedule stores entry under a fresh key and returns it.
func (s *RecordingStore) Schedule(ctx context.Context, entry RecordingEntry) (RecordingKey, error) {
	if entry.Duration <= 0 {
		return "", fmt.Errorf("recording %q: duration must be positive", entry.Name)
	}

	key := RecordingKey(uuid.NewString())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recordings (key, name, channel_name, begin_unix, duration_seconds)
		VALUES (?, ?, ?, ?, ?)
	`, string(key), entry.Name, entry.ChannelName, entry.Begin.UTC().Unix(), int64(entry.Duration/time.Second))
	if err != nil {
		return "", fmt.Errorf("schedule recording %q: %w", entry.Name, err)
	}

	return key, nil
}

// Remove deletes the entry with key and notifies listeners.
func (s *RecordingStore) Remove(ctx context.Context, key RecordingKey) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recordings WHERE key = ?`, string(key))
	if err != nil {
		return fmt.Errorf("remove recording %s: %w", key, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrRecordingNotFound
	}

	s.mu.RLock()
	listeners := append([]func(RecordingKey){}, s.listeners...)
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(key)
	}
	return nil
}

// Get returns the entry with key.
func (s *RecordingStore) Get(ctx context.Context, key RecordingKey) (*RecordingEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT key, name, channel_name, begin_unix, duration_seconds
		FROM recordings WHERE key = ?
	`, string(key))

	entry, err := scanRecording(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordingNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// List returns every scheduled recording ordered by begin time.
func (s *RecordingStore) List(ctx context.Context) ([]RecordingEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, name, channel_name, begin_unix, duration_seconds
		FROM recordings ORDER BY begin_unix, created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}
	defer rows.Close()

	entries := []RecordingEntry{}
	for rows.Next() {
		entry, err := scanRecording(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func scanRecording(row rowScanner) (*RecordingEntry, error) {
	var entry RecordingEntry
	var key string
	var beginUnix, durationSeconds int64

	if err := row.Scan(&key, &entry.Name, &entry.ChannelName, &beginUnix, &durationSeconds); err != nil {
		return nil, err
	}

	entry.Key = RecordingKey(key)
	entry.Begin = time.Unix(beginUnix, 0).UTC()
	entry.Duration = time.Duration(durationSeconds) * time.Second
	return &entry, nil
}
