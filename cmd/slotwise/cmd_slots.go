/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/friendsincode/slotwise/internal/availability"
	"github.com/friendsincode/slotwise/internal/booking"
	"github.com/friendsincode/slotwise/internal/busy"
	"github.com/friendsincode/slotwise/internal/db"
	"github.com/friendsincode/slotwise/internal/logging"
	"github.com/friendsincode/slotwise/internal/schedule"
)

var slotsCmd = &cobra.Command{
	Use:   "slots",
	Short: "Print valid meeting start times",
	Long: `Print the start times at which a meeting can be booked.

With --host and --event the schedule and meeting type are read from the
database. With --schedule and --duration everything is read from files and no
database is needed. --busy replaces the calendar with a YAML list of busy
intervals in either mode.`,
	RunE: runSlots,
}

var (
	slotsHostID       string
	slotsEventID      string
	slotsScheduleFile string
	slotsDuration     int
	slotsBusyFile     string
	slotsTimezone     string
	slotsLimit        int
	slotsStep         time.Duration
)

func init() {
	rootCmd.AddCommand(slotsCmd)

	slotsCmd.Flags().StringVar(&slotsHostID, "host", "", "Host ID")
	slotsCmd.Flags().StringVar(&slotsEventID, "event", "", "Meeting type ID")
	slotsCmd.Flags().StringVar(&slotsScheduleFile, "schedule", "", "Schedule YAML file (offline mode)")
	slotsCmd.Flags().IntVar(&slotsDuration, "duration", 30, "Meeting length in minutes (offline mode)")
	slotsCmd.Flags().StringVar(&slotsBusyFile, "busy", "", "Busy intervals YAML file")
	slotsCmd.Flags().StringVar(&slotsTimezone, "timezone", "UTC", "Timezone used to print times")
	slotsCmd.Flags().IntVar(&slotsLimit, "limit", 50, "Maximum number of times to print (0 = all)")
	slotsCmd.Flags().DurationVar(&slotsStep, "step", 15*time.Minute, "Spacing of candidate start times (offline mode)")
	slotsCmd.MarkFlagsRequiredTogether("host", "event")
	slotsCmd.MarkFlagsMutuallyExclusive("event", "schedule")
	slotsCmd.MarkFlagsOneRequired("event", "schedule")
}

func runSlots(cmd *cobra.Command, args []string) error {
	viewer, err := availability.LoadLocation(slotsTimezone)
	if err != nil {
		return err
	}

	var source busy.Source
	if slotsBusyFile != "" {
		static, err := busy.LoadStaticFile(slotsBusyFile)
		if err != nil {
			return err
		}
		source = static
	}

	now := time.Now().UTC()
	var valid []time.Time
	if slotsScheduleFile != "" {
		valid, err = offlineSlots(cmd.Context(), now, source)
	} else {
		valid, err = storedSlots(cmd.Context(), now, source)
	}
	if err != nil {
		return err
	}

	return printSlots(cmd.OutOrStdout(), valid, viewer, slotsLimit)
}

func offlineSlots(ctx context.Context, now time.Time, source busy.Source) ([]time.Time, error) {
	log := logging.SetupWithWriter("cli", os.Stderr)
	sched, err := readScheduleFile(slotsScheduleFile)
	if err != nil {
		return nil, err
	}
	if err := sched.Validate(); err != nil {
		return nil, err
	}
	if source == nil {
		source = &busy.StaticSource{}
	}

	req := availability.MeetingRequest{HostID: sched.HostID, DurationInMinutes: slotsDuration}
	from := availability.RoundUp(now, slotsStep)
	candidates := availability.Candidates(from, availability.BookingHorizon(from), slotsStep)
	if len(candidates) == 0 {
		return []time.Time{}, nil
	}
	intervals, err := source.BusyIntervals(ctx, sched.HostID, candidates[0], candidates[len(candidates)-1].Add(req.Duration()))
	if err != nil {
		return nil, err
	}
	return availability.NewResolver(0, log).Resolve(ctx, candidates, req, sched, intervals)
}

func storedSlots(ctx context.Context, now time.Time, source busy.Source) ([]time.Time, error) {
	if err := loadConfig(); err != nil {
		return nil, err
	}
	database, err := initDatabase()
	if err != nil {
		return nil, err
	}
	defer db.Close(database)

	if source == nil {
		tokens := busy.NewTokenStore(database,
			busy.GoogleOAuthConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL),
			logger)
		source = busy.NewGoogleSource(tokens, logger)
	}

	svc := booking.NewService(database,
		schedule.NewStore(database, nil, nil, logger),
		source,
		availability.NewResolver(cfg.ResolverWorkers, logger),
		booking.Options{SlotStep: cfg.SlotStep, BusyFetchTimeout: cfg.BusyFetchTimeout},
		logger)
	return svc.ValidTimes(ctx, slotsHostID, slotsEventID, now)
}

// printSlots writes one RFC 3339 time per line, grouped under a date header.
func printSlots(w io.Writer, valid []time.Time, viewer *time.Location, limit int) error {
	if len(valid) == 0 {
		_, err := fmt.Fprintln(w, "no available times")
		return err
	}
	if limit > 0 && len(valid) > limit {
		valid = valid[:limit]
	}
	var day string
	for _, t := range valid {
		local := t.In(viewer)
		if d := local.Format("Monday, 2006-01-02"); d != day {
			day = d
			if _, err := fmt.Fprintln(w, d); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "  %s\n", local.Format(time.RFC3339)); err != nil {
			return err
		}
	}
	return nil
}
