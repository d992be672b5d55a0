/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package busy supplies the intervals during which a host is already booked.
package busy

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/friendsincode/slotwise/internal/availability"
)

// Source returns the busy intervals of a host that overlap [start, end).
// Implementations must fail wholesale; a partial list is never returned.
type Source interface {
	BusyIntervals(ctx context.Context, hostID string, start, end time.Time) ([]availability.Interval, error)
}

// StaticSource serves a fixed list of intervals for every host.
type StaticSource struct {
	Intervals []availability.Interval
}

// BusyIntervals returns the configured intervals overlapping [start, end),
// ordered by start.
func (s *StaticSource) BusyIntervals(ctx context.Context, _ string, start, end time.Time) ([]availability.Interval, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", availability.ErrSourceUnavailable, err)
	}
	window := availability.Interval{Start: start, End: end}
	out := make([]availability.Interval, 0, len(s.Intervals))
	for _, iv := range s.Intervals {
		if iv.Overlaps(window) {
			out = append(out, iv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// staticFile is the YAML layout read by LoadStaticFile.
type staticFile struct {
	Busy []availability.Interval `yaml:"busy"`
}

// LoadStaticFile reads busy intervals from a YAML file of the form
//
//	busy:
//	  - start: 2026-03-02T10:00:00-05:00
//	    end: 2026-03-02T11:00:00-05:00
func LoadStaticFile(path string) (*StaticSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read busy file: %w", err)
	}
	var f staticFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse busy file: %w", err)
	}
	for i, iv := range f.Busy {
		if !iv.Start.Before(iv.End) {
			return nil, fmt.Errorf("busy[%d]: end must be after start", i)
		}
	}
	return &StaticSource{Intervals: f.Busy}, nil
}
