// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

//go:generate mockgen -source=device.go -destination=mocks/mock_device.go -package=mocks

package scan

// Device is the tuner a scan runs on. Values are percentages as reported by
// the frontend.
type Device interface {
	SignalStrength() (int, error)
	SignalToNoiseRatio() (int, error)
	IsLocked() (bool, error)
}
