// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/autobrr/dvbtab/internal/models"
	"github.com/autobrr/dvbtab/internal/services/channels"
)

func RunChannelsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "channels",
		Short: "Channel list operations",
	}

	cmd.AddCommand(
		runChannelsListCommand(),
		runChannelsExportCommand(),
		runChannelsImportCommand(),
		runChannelsDeleteAllCommand(),
		runChannelsCheckCommand(),
	)
	return cmd
}

func runChannelsListCommand() *cobra.Command {
	var (
		configDir string
		filter    string
		search    string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the channel list by number",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, db, err := openDatabase(configDir)
			if err != nil {
				return err
			}
			defer db.Close()

			list, err := models.NewChannelStore(db).List(cmd.Context())
			if err != nil {
				return err
			}

			if filter != "" {
				compiled, err := channels.Filter{Radio: true, TV: true, Expression: filter}.Compile()
				if err != nil {
					return err
				}
				list = compiled.ApplyChannels(list)
			}
			if search != "" {
				list = channels.Search(list, search)
			} else {
				list = channels.SortByNumber(list)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NUMBER\tNAME\tPROVIDER\tSOURCE\tNID\tTID\tSID\tTYPE")
			for _, ch := range list {
				kind := "tv"
				if ch.IsRadio() {
					kind = "radio"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
					ch.Number, ch.Name, ch.Provider, ch.Source, ch.NetworkID, ch.TransportStreamID, ch.ServiceID, kind)
			}
			return tw.Flush()
		},
	}

	addConfigFlag(cmd, &configDir)
	cmd.Flags().StringVar(&filter, "filter", "", "Filter expression, e.g. 'Provider == \"ARD\"'")
	cmd.Flags().StringVar(&search, "search", "", "Fuzzy search by name")
	return cmd
}

func runChannelsExportCommand() *cobra.Command {
	var (
		configDir string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the channel list as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, db, err := openDatabase(configDir)
			if err != nil {
				return err
			}
			defer db.Close()

			list, err := models.NewChannelStore(db).List(cmd.Context())
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(list)
			if err != nil {
				return fmt.Errorf("encode channels: %w", err)
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			cmd.Printf("Exported %d channels to %s\n", len(list), output)
			return nil
		},
	}

	addConfigFlag(cmd, &configDir)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func runChannelsImportCommand() *cobra.Command {
	var (
		configDir string
		input     string
		merge     bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a channel list from YAML",
		Long: `Load a channel list exported with "channels export".

By default the stored list is replaced. With --merge the file is treated as
scan results: known channels are updated in place and keep their numbers,
new ones are numbered into the lowest free slots.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if input == "" {
				return errors.New("--input is required")
			}

			data, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("read %s: %w", input, err)
			}

			var list []models.Channel
			if err := yaml.Unmarshal(data, &list); err != nil {
				return fmt.Errorf("parse %s: %w", input, err)
			}

			_, db, err := openDatabase(configDir)
			if err != nil {
				return err
			}
			defer db.Close()

			store := models.NewChannelStore(db)
			ctx := cmd.Context()

			if !merge {
				if err := store.ReplaceAll(ctx, list); err != nil {
					return err
				}
				cmd.Printf("Imported %d channels\n", len(list))
				return nil
			}

			existing, err := store.List(ctx)
			if err != nil {
				return err
			}

			candidates := make([]models.DiscoveredChannel, 0, len(list))
			for _, ch := range list {
				candidates = append(candidates, ch.Discovered())
			}

			plan := channels.Reconcile(existing, candidates)
			if !plan.Empty() {
				if err := store.ApplyPlan(ctx, plan.Updates, plan.Inserts); err != nil {
					return err
				}
			}
			cmd.Printf("Updated %d channels, added %d\n", len(plan.Updates), len(plan.Inserts))
			printCollisions(cmd, plan.Collisions)
			return nil
		},
	}

	addConfigFlag(cmd, &configDir)
	cmd.Flags().StringVarP(&input, "input", "i", "", "YAML file to import")
	cmd.Flags().BoolVar(&merge, "merge", false, "Merge into the stored list instead of replacing it")
	return cmd
}

func runChannelsDeleteAllCommand() *cobra.Command {
	var (
		configDir string
		yes       bool
	)

	cmd := &cobra.Command{
		Use:   "delete-all",
		Short: "Delete every channel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to delete all channels without --yes")
			}

			_, db, err := openDatabase(configDir)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := models.NewChannelStore(db).ReplaceAll(cmd.Context(), nil); err != nil {
				return err
			}
			cmd.Println("All channels deleted")
			return nil
		},
	}

	addConfigFlag(cmd, &configDir)
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	return cmd
}

func runChannelsCheckCommand() *cobra.Command {
	var configDir string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report channels sharing one identity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, db, err := openDatabase(configDir)
			if err != nil {
				return err
			}
			defer db.Close()

			list, err := models.NewChannelStore(db).List(cmd.Context())
			if err != nil {
				return err
			}

			collisions := channels.FindCollisions(list)
			if len(collisions) == 0 {
				cmd.Printf("%d channels, no duplicate identities\n", len(list))
				return nil
			}
			printCollisions(cmd, collisions)
			return fmt.Errorf("%d duplicate identities", len(collisions))
		},
	}

	addConfigFlag(cmd, &configDir)
	return cmd
}

func printCollisions(cmd *cobra.Command, collisions []channels.Collision) {
	for _, c := range collisions {
		cmd.Printf("Duplicate identity %s at list positions %v\n", c.Identity, c.Indexes)
	}
}
