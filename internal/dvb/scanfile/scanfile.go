// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package scanfile reads the provider transponder lists used for provider
// scans.
package scanfile

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/autobrr/dvbtab/internal/models"
)

var ErrProviderNotFound = errors.New("provider not found in scan file")

// File is a parsed scan file.
//
//	date: 2026-01-31
//	providers:
//	  - name: "[de] Berlin"
//	    source: T
//	    transponders: ["T 474000000 8MHz 2/3 NONE QAM16 8k 1/4 NONE"]
type File struct {
	Date      time.Time  `yaml:"date"`
	Providers []Provider `yaml:"providers"`
}

type Provider struct {
	Name         string               `yaml:"name"`
	Source       string               `yaml:"source"`
	Transponders []models.Transponder `yaml:"transponders"`
}

// Load reads and validates the scan file at path.
func Load(fs afero.Fs, path string) (*File, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read scan file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a scan file.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse scan file: %w", err)
	}

	seen := make(map[string]struct{}, len(f.Providers))
	for i, p := range f.Providers {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, fmt.Errorf("scan file provider %d has no name", i)
		}
		if strings.TrimSpace(p.Source) == "" {
			return nil, fmt.Errorf("scan file provider %q has no source", name)
		}
		if len(p.Transponders) == 0 {
			return nil, fmt.Errorf("scan file provider %q has no transponders", name)
		}
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("scan file provider %q is listed twice", name)
		}
		seen[name] = struct{}{}
		f.Providers[i].Name = name
	}
	return &f, nil
}

// Provider returns the provider called name.
func (f *File) Provider(name string) (Provider, error) {
	for _, p := range f.Providers {
		if p.Name == name {
			return p, nil
		}
	}
	return Provider{}, fmt.Errorf("%w: %q", ErrProviderNotFound, name)
}

// Names returns the provider names for source, sorted. An empty source
// matches every provider.
func (f *File) Names(source string) []string {
	var out []string
	for _, p := range f.Providers {
		if source == "" || p.Source == source {
			out = append(out, p.Name)
		}
	}
	sort.Strings(out)
	return out
}
