/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package availability

import (
	"context"
	"runtime"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// minChunk keeps small candidate sets on a single goroutine.
const minChunk = 512

// MeetingRequest is the immutable input describing the meeting to place.
type MeetingRequest struct {
	HostID            string
	DurationInMinutes int
}

// Duration returns the meeting length.
func (r MeetingRequest) Duration() time.Duration {
	return time.Duration(r.DurationInMinutes) * time.Minute
}

// Resolver selects the candidate instants at which a meeting may start.
// It holds no per-call state and is safe for concurrent use.
type Resolver struct {
	workers int
	logger  zerolog.Logger
}

// NewResolver creates a resolver that evaluates candidates on up to workers
// goroutines. workers <= 0 uses GOMAXPROCS.
func NewResolver(workers int, logger zerolog.Logger) *Resolver {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Resolver{
		workers: workers,
		logger:  logger.With().Str("component", "resolver").Logger(),
	}
}

// Resolve returns the subsequence of candidates that both fit inside one
// projected availability window and overlap no busy interval.
//
// A nil schedule or empty candidate list yields an empty result. Output order
// matches input order.
func (r *Resolver) Resolve(ctx context.Context, candidates []time.Time, req MeetingRequest, schedule *Schedule, busy []Interval) ([]time.Time, error) {
	if req.DurationInMinutes <= 0 {
		return nil, ErrInvalidDuration
	}
	if schedule == nil || len(candidates) == 0 {
		return []time.Time{}, nil
	}

	p, err := newPlan(req, schedule, busy)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	chunk := (len(candidates) + r.workers - 1) / r.workers
	if chunk < minChunk {
		chunk = minChunk
	}
	parts := make([][]time.Time, (len(candidates)+chunk-1)/chunk)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i := range parts {
		lo := i * chunk
		hi := min(lo+chunk, len(candidates))
		g.Go(func() error {
			kept := make([]time.Time, 0, hi-lo)
			for j, t := range candidates[lo:hi] {
				if j%minChunk == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				if p.accepts(t) {
					kept = append(kept, t)
				}
			}
			parts[i] = kept
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]time.Time, 0, len(candidates)/4)
	for _, part := range parts {
		out = append(out, part...)
	}

	r.logger.Debug().
		Str("host_id", req.HostID).
		Int("candidates", len(candidates)).
		Int("busy", len(busy)).
		Int("valid", len(out)).
		Dur("elapsed", time.Since(started)).
		Msg("resolved slots")
	return out, nil
}

// Resolve is the sequential form of Resolver.Resolve.
func Resolve(candidates []time.Time, req MeetingRequest, schedule *Schedule, busy []Interval) ([]time.Time, error) {
	if req.DurationInMinutes <= 0 {
		return nil, ErrInvalidDuration
	}
	if schedule == nil || len(candidates) == 0 {
		return []time.Time{}, nil
	}
	p, err := newPlan(req, schedule, busy)
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, 0, len(candidates))
	for _, t := range candidates {
		if p.accepts(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// plan is the read-only state shared by every candidate of one resolution.
type plan struct {
	windows  map[Weekday][]Window
	loc      *time.Location
	duration time.Duration

	// busy sorted by Start; maxEnd[i] is the latest End among busy[:i+1].
	busy   []Interval
	maxEnd []time.Time
}

func newPlan(req MeetingRequest, schedule *Schedule, busy []Interval) (*plan, error) {
	loc, err := LoadLocation(schedule.Timezone)
	if err != nil {
		return nil, err
	}
	windows, err := GroupByDay(schedule.Availabilities)
	if err != nil {
		return nil, err
	}

	sorted := make([]Interval, len(busy))
	copy(sorted, busy)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})
	maxEnd := make([]time.Time, len(sorted))
	for i, b := range sorted {
		maxEnd[i] = b.End
		if i > 0 && maxEnd[i-1].After(b.End) {
			maxEnd[i] = maxEnd[i-1]
		}
	}

	return &plan{
		windows:  windows,
		loc:      loc,
		duration: req.Duration(),
		busy:     sorted,
		maxEnd:   maxEnd,
	}, nil
}

func (p *plan) accepts(t time.Time) bool {
	meeting := Interval{Start: t, End: t.Add(p.duration)}
	return p.fits(t, meeting) && !p.conflicts(meeting)
}

// fits reports whether meeting lies entirely inside one window of t's day.
// Adjacent windows are never merged.
func (p *plan) fits(date time.Time, meeting Interval) bool {
	for _, window := range ProjectDay(date, p.windows, p.loc) {
		if window.Contains(meeting) {
			return true
		}
	}
	return false
}

// conflicts reports whether any busy interval overlaps meeting.
func (p *plan) conflicts(meeting Interval) bool {
	// Busy intervals starting at or after the meeting end cannot overlap.
	n := sort.Search(len(p.busy), func(i int) bool {
		return !p.busy[i].Start.Before(meeting.End)
	})
	return n > 0 && p.maxEnd[n-1].After(meeting.Start)
}
