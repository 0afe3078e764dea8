// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"

	"github.com/cespare/xxhash/v2"
)

var (
	ErrChannelNotFound = errors.New("channel not found")
	ErrInvalidChannel  = errors.New("invalid channel")
	ErrNumberTaken     = errors.New("channel number already in use")
)

// Transponder is an opaque tuning descriptor. Only the scan producer
// interprets it.
type Transponder string

// Identity is the natural key of a broadcast service. Two channels with equal
// identities are the same service even if every other field differs.
type Identity struct {
	Source            string `json:"source" yaml:"source"`
	NetworkID         int    `json:"networkId" yaml:"networkId"`
	TransportStreamID int    `json:"transportStreamId" yaml:"transportStreamId"`
	ServiceID         int    `json:"serviceId" yaml:"serviceId"`
}

func (id Identity) String() string {
	return fmt.Sprintf("%s:%d:%d:%d", id.Source, id.NetworkID, id.TransportStreamID, id.ServiceID)
}

// Channel is one entry of the persistent channel list.
type Channel struct {
	Identity    `yaml:",inline"`
	Name        string      `json:"name" yaml:"name"`
	Number      int         `json:"number" yaml:"number"`
	AudioPID    int         `json:"audioPid" yaml:"audioPid"`
	AudioPIDs   []int       `json:"audioPids" yaml:"audioPids"`
	VideoPID    int         `json:"videoPid" yaml:"videoPid"`
	Provider    string      `json:"provider" yaml:"provider"`
	Scrambled   bool        `json:"scrambled" yaml:"scrambled"`
	Transponder Transponder `json:"transponder" yaml:"transponder"`
}

// DiscoveredChannel is a channel as reported by a scan. It carries no number.
type DiscoveredChannel struct {
	Identity    `yaml:",inline"`
	Name        string      `json:"name" yaml:"name"`
	AudioPID    int         `json:"audioPid" yaml:"audioPid"`
	AudioPIDs   []int       `json:"audioPids" yaml:"audioPids"`
	VideoPID    int         `json:"videoPid" yaml:"videoPid"`
	Provider    string      `json:"provider" yaml:"provider"`
	Scrambled   bool        `json:"scrambled" yaml:"scrambled"`
	Transponder Transponder `json:"transponder" yaml:"transponder"`
}

// ChannelUpdate replaces the channel at Index in the list.
type ChannelUpdate struct {
	Index   int     `json:"index"`
	Channel Channel `json:"channel"`
}

// IsRadio reports whether the service has no video stream.
func (c Channel) IsRadio() bool {
	return c.VideoPID == -1
}

// IsRadio reports whether the service has no video stream.
func (d DiscoveredChannel) IsRadio() bool {
	return d.VideoPID == -1
}

// Clone returns a copy that shares no slices with c.
func (c Channel) Clone() Channel {
	c.AudioPIDs = slices.Clone(c.AudioPIDs)
	return c
}

// Discovered returns c as it would be reported by a scan, without a number.
func (c Channel) Discovered() DiscoveredChannel {
	return DiscoveredChannel{
		Identity:    c.Identity,
		Name:        c.Name,
		AudioPID:    c.AudioPID,
		AudioPIDs:   slices.Clone(c.AudioPIDs),
		VideoPID:    c.VideoPID,
		Provider:    c.Provider,
		Scrambled:   c.Scrambled,
		Transponder: c.Transponder,
	}
}

// Validate checks the per-channel invariants. Uniqueness of numbers is a
// list property and is enforced by the store.
func (c Channel) Validate() error {
	if c.Number < 1 {
		return fmt.Errorf("%w: number %d must be at least 1", ErrInvalidChannel, c.Number)
	}
	if c.AudioPID != -1 && len(c.AudioPIDs) > 0 && !slices.Contains(c.AudioPIDs, c.AudioPID) {
		return fmt.Errorf("%w: audio pid %d is not one of %v", ErrInvalidChannel, c.AudioPID, c.AudioPIDs)
	}
	return nil
}

// Fingerprint hashes every field of the channel. Equal fingerprints mean an
// update would not change the stored row.
func (c Channel) Fingerprint() uint64 {
	d := xxhash.New()
	var buf [8]byte
	writeInt := func(v int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(int64(v)))
		_, _ = d.Write(buf[:])
	}
	writeString := func(s string) {
		writeInt(len(s))
		_, _ = d.WriteString(s)
	}

	writeString(c.Source)
	writeInt(c.NetworkID)
	writeInt(c.TransportStreamID)
	writeInt(c.ServiceID)
	writeString(c.Name)
	writeInt(c.Number)
	writeInt(c.AudioPID)
	writeInt(len(c.AudioPIDs))
	for _, pid := range c.AudioPIDs {
		writeInt(pid)
	}
	writeInt(c.VideoPID)
	writeString(c.Provider)
	if c.Scrambled {
		writeInt(1)
	} else {
		writeInt(0)
	}
	writeString(string(c.Transponder))

	return d.Sum64()
}
