// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"errors"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/autobrr/dvbtab/internal/dvb/scanfile"
)

func RunScanFileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scanfile",
		Short: "Scan file operations",
	}

	cmd.AddCommand(runScanFileProvidersCommand(afero.NewOsFs()))
	return cmd
}

func runScanFileProvidersCommand(fs afero.Fs) *cobra.Command {
	var (
		path   string
		source string
	)

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List the providers of a scan file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" {
				return errors.New("--file is required")
			}

			file, err := scanfile.Load(fs, path)
			if err != nil {
				return err
			}

			if !file.Date.IsZero() {
				cmd.Printf("Last updated: %s\n", file.Date.Format("2006-01-02"))
			}
			for _, name := range file.Names(source) {
				p, err := file.Provider(name)
				if err != nil {
					return err
				}
				cmd.Printf("%s\t%s\t%d transponders\n", p.Name, p.Source, len(p.Transponders))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "file", "f", "", "Scan file")
	cmd.Flags().StringVar(&source, "source", "", "Only providers for this source")
	return cmd
}
