// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/autobrr/dvbtab/internal/dbinterface"
)

const channelColumns = `id, source, network_id, transport_stream_id, service_id, name, number,
	audio_pid, audio_pids, video_pid, provider, scrambled, transponder`

// ChannelStore persists the channel list. List order is insertion order and
// is what plan indexes refer to.
type ChannelStore struct {
	db         dbinterface.TxBeginner
	generation atomic.Uint64
}

// NewChannelStore creates a new ChannelStore.
func NewChannelStore(db dbinterface.TxBeginner) *ChannelStore {
	return &ChannelStore{db: db}
}

// Generation increases on every committed write. Readers holding a channel
// identity compare it to decide whether to re-fetch.
func (s *ChannelStore) Generation() uint64 {
	return s.generation.Load()
}

type storedChannel struct {
	id      int64
	channel Channel
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChannel(row rowScanner) (storedChannel, error) {
	var sc storedChannel
	var audioPIDsJSON string
	c := &sc.channel

	if err := row.Scan(
		&sc.id,
		&c.Source,
		&c.NetworkID,
		&c.TransportStreamID,
		&c.ServiceID,
		&c.Name,
		&c.Number,
		&c.AudioPID,
		&audioPIDsJSON,
		&c.VideoPID,
		&c.Provider,
		&c.Scrambled,
		&c.Transponder,
	); err != nil {
		return sc, err
	}

	if audioPIDsJSON != "" {
		if err := json.Unmarshal([]byte(audioPIDsJSON), &c.AudioPIDs); err != nil {
			return sc, fmt.Errorf("decode audio pids for channel %d: %w", sc.id, err)
		}
	}
	if c.AudioPIDs == nil {
		c.AudioPIDs = []int{}
	}

	return sc, nil
}

func listStored(ctx context.Context, q dbinterface.Querier) ([]storedChannel, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+channelColumns+` FROM channels ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []storedChannel
	for rows.Next() {
		sc, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// List returns the whole channel list in list order.
func (s *ChannelStore) List(ctx context.Context) ([]Channel, error) {
	stored, err := listStored(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}

	channels := make([]Channel, 0, len(stored))
	for _, sc := range stored {
		channels = append(channels, sc.channel)
	}
	return channels, nil
}

// Get returns the first channel with the given identity.
func (s *ChannelStore) Get(ctx context.Context, id Identity) (*Channel, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+channelColumns+` FROM channels
		WHERE source = ? AND network_id = ? AND transport_stream_id = ? AND service_id = ?
		ORDER BY id LIMIT 1
	`, id.Source, id.NetworkID, id.TransportStreamID, id.ServiceID)

	sc, err := scanChannel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrChannelNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sc.channel, nil
}

// GetByNumber returns the channel with the given number.
func (s *ChannelStore) GetByNumber(ctx context.Context, number int) (*Channel, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+channelColumns+` FROM channels WHERE number = ?`, number)

	sc, err := scanChannel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrChannelNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sc.channel, nil
}

// ApplyUpdate replaces the channel at list position index.
func (s *ChannelStore) ApplyUpdate(ctx context.Context, index int, channel Channel) error {
	return s.ApplyPlan(ctx, []ChannelUpdate{{Index: index, Channel: channel}}, nil)
}

// ApplyInserts appends channels to the list.
func (s *ChannelStore) ApplyInserts(ctx context.Context, channels []Channel) error {
	return s.ApplyPlan(ctx, nil, channels)
}

// ApplyPlan writes updates and inserts in one transaction. Updates that
// would not change the stored row are skipped. Any failure rolls the whole
// plan back.
func (s *ChannelStore) ApplyPlan(ctx context.Context, updates []ChannelUpdate, inserts []Channel) error {
	if len(updates) == 0 && len(inserts) == 0 {
		return nil
	}

	for _, ch := range inserts {
		if err := ch.Validate(); err != nil {
			return err
		}
	}
	for _, u := range updates {
		if err := u.Channel.Validate(); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin channel transaction: %w", err)
	}
	defer tx.Rollback()

	if len(updates) > 0 {
		stored, err := listStored(ctx, tx)
		if err != nil {
			return fmt.Errorf("load channels: %w", err)
		}

		for _, u := range updates {
			if u.Index < 0 || u.Index >= len(stored) {
				return fmt.Errorf("%w: index %d out of range", ErrChannelNotFound, u.Index)
			}
			current := stored[u.Index]
			if current.channel.Fingerprint() == u.Channel.Fingerprint() {
				continue
			}
			if err := updateChannel(ctx, tx, current.id, u.Channel); err != nil {
				return err
			}
		}
	}

	for _, ch := range inserts {
		if err := insertChannel(ctx, tx, ch); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit channel transaction: %w", err)
	}

	s.generation.Add(1)
	return nil
}

// ReplaceAll swaps the whole list for channels. An empty slice deletes every
// channel.
func (s *ChannelStore) ReplaceAll(ctx context.Context, channels []Channel) error {
	seen := make(map[int]struct{}, len(channels))
	for _, ch := range channels {
		if err := ch.Validate(); err != nil {
			return err
		}
		if _, ok := seen[ch.Number]; ok {
			return fmt.Errorf("%w: %d", ErrNumberTaken, ch.Number)
		}
		seen[ch.Number] = struct{}{}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin channel transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM channels`); err != nil {
		return fmt.Errorf("delete channels: %w", err)
	}

	for _, ch := range channels {
		if err := insertChannel(ctx, tx, ch); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit channel transaction: %w", err)
	}

	s.generation.Add(1)
	return nil
}

// Edit replaces the channel currently holding number with channel. The
// identity of the stored row is kept; only user-editable fields change.
func (s *ChannelStore) Edit(ctx context.Context, number int, channel Channel) (*Channel, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin channel transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+channelColumns+` FROM channels WHERE number = ?`, number)
	current, err := scanChannel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrChannelNotFound
	}
	if err != nil {
		return nil, err
	}

	edited := current.channel.Clone()
	edited.Name = channel.Name
	edited.Number = channel.Number
	edited.AudioPID = channel.AudioPID
	if err := edited.Validate(); err != nil {
		return nil, err
	}

	if err := updateChannel(ctx, tx, current.id, edited); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit channel transaction: %w", err)
	}

	s.generation.Add(1)
	return &edited, nil
}

func encodeAudioPIDs(pids []int) (string, error) {
	if pids == nil {
		pids = []int{}
	}
	data, err := json.Marshal(pids)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func insertChannel(ctx context.Context, q dbinterface.Querier, ch Channel) error {
	audioPIDs, err := encodeAudioPIDs(ch.AudioPIDs)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO channels
			(source, network_id, transport_stream_id, service_id, name, number,
			 audio_pid, audio_pids, video_pid, provider, scrambled, transponder)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ch.Source, ch.NetworkID, ch.TransportStreamID, ch.ServiceID, ch.Name, ch.Number,
		ch.AudioPID, audioPIDs, ch.VideoPID, ch.Provider, ch.Scrambled, string(ch.Transponder))

	return classifyWriteError(err, ch)
}

func updateChannel(ctx context.Context, q dbinterface.Querier, id int64, ch Channel) error {
	audioPIDs, err := encodeAudioPIDs(ch.AudioPIDs)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx, `
		UPDATE channels SET
			source = ?, network_id = ?, transport_stream_id = ?, service_id = ?,
			name = ?, number = ?, audio_pid = ?, audio_pids = ?, video_pid = ?,
			provider = ?, scrambled = ?, transponder = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, ch.Source, ch.NetworkID, ch.TransportStreamID, ch.ServiceID,
		ch.Name, ch.Number, ch.AudioPID, audioPIDs, ch.VideoPID,
		ch.Provider, ch.Scrambled, string(ch.Transponder), id)

	return classifyWriteError(err, ch)
}

func classifyWriteError(err error, ch Channel) error {
	switch {
	case err == nil:
		return nil
	case isUniqueConstraintError(err):
		return fmt.Errorf("%w: %d", ErrNumberTaken, ch.Number)
	case isCheckConstraintError(err):
		return fmt.Errorf("%w: %v", ErrInvalidChannel, err)
	default:
		return fmt.Errorf("write channel %s: %w", ch.Identity, err)
	}
}
