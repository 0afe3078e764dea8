// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package timeshift

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

type deleteDisposition int

const (
	deleteDispositionDeleted deleteDisposition = iota
	deleteDispositionSkippedMissing
	deleteDispositionSkippedNotRegular
)

// validateDeleteTarget checks that target is a file path below dir.
func validateDeleteTarget(dir, target string) error {
	if filepath.Clean(target) == filepath.Clean(dir) {
		return fmt.Errorf("refusing to delete time-shift folder: %s", dir)
	}
	rel, err := filepath.Rel(dir, target)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("path escapes time-shift folder: %s", target)
	}
	return nil
}

// safeDeleteSegment removes a single segment file. Directories and symlinks
// are never touched.
func safeDeleteSegment(fs afero.Fs, dir, target string) (deleteDisposition, error) {
	if err := validateDeleteTarget(dir, target); err != nil {
		return 0, err
	}

	info, err := lstat(fs, target)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return deleteDispositionSkippedMissing, nil
		}
		return 0, fmt.Errorf("stat segment: %w", err)
	}
	if !info.Mode().IsRegular() {
		return deleteDispositionSkippedNotRegular, nil
	}

	if err := fs.Remove(target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return deleteDispositionSkippedMissing, nil
		}
		return 0, fmt.Errorf("remove segment: %w", err)
	}
	return deleteDispositionDeleted, nil
}

func lstat(fs afero.Fs, name string) (os.FileInfo, error) {
	if l, ok := fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(name)
		return info, err
	}
	return fs.Stat(name)
}
