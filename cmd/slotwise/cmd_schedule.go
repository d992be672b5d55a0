/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/friendsincode/slotwise/internal/availability"
	"github.com/friendsincode/slotwise/internal/db"
	"github.com/friendsincode/slotwise/internal/schedule"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage host weekly schedules",
}

var scheduleImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Save a host schedule from a YAML file",
	Long: `Save a host schedule from a YAML file, replacing any existing one.

Example file:

  timezone: America/New_York
  availabilities:
    - day: monday
      start: "09:00"
      end: "17:00"`,
	Args: cobra.ExactArgs(1),
	RunE: runScheduleImport,
}

var scheduleExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print a host schedule as YAML",
	RunE:  runScheduleExport,
}

var scheduleHostID string

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.AddCommand(scheduleImportCmd)
	scheduleCmd.AddCommand(scheduleExportCmd)

	scheduleCmd.PersistentFlags().StringVar(&scheduleHostID, "host", "", "Host ID (required)")
	_ = scheduleCmd.MarkPersistentFlagRequired("host")
}

// readScheduleFile parses a schedule YAML file. Day names may be abbreviated.
func readScheduleFile(path string) (*availability.Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schedule file: %w", err)
	}
	var sched availability.Schedule
	if err := yaml.Unmarshal(data, &sched); err != nil {
		return nil, fmt.Errorf("parse schedule file: %w", err)
	}
	for i, a := range sched.Availabilities {
		day, err := availability.ParseWeekday(string(a.Day))
		if err != nil {
			return nil, fmt.Errorf("availability[%d]: %w", i, err)
		}
		sched.Availabilities[i].Day = day
	}
	return &sched, nil
}

func runScheduleImport(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	sched, err := readScheduleFile(args[0])
	if err != nil {
		return err
	}

	database, err := initDatabase()
	if err != nil {
		return err
	}
	defer db.Close(database)

	store := schedule.NewStore(database, nil, nil, logger)
	saved, err := store.Save(cmd.Context(), scheduleHostID, sched.Timezone, sched.Availabilities)
	if err != nil {
		return fmt.Errorf("save schedule: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "saved %d availabilities for %s (%s)\n",
		len(saved.Availabilities), scheduleHostID, saved.Timezone)
	return nil
}

func runScheduleExport(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	database, err := initDatabase()
	if err != nil {
		return err
	}
	defer db.Close(database)

	sched, err := schedule.NewStore(database, nil, nil, logger).Get(cmd.Context(), scheduleHostID)
	if err != nil {
		return err
	}
	if sched == nil {
		return fmt.Errorf("host %s has no schedule", scheduleHostID)
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(sched)
}
