/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/friendsincode/slotwise/internal/availability"
	"github.com/friendsincode/slotwise/internal/telemetry"
)

// ValidTimes returns every start time from now through the booking horizon
// at which the meeting type eventID of host can be booked.
//
// Candidates are step-aligned instants in now's location. Busy intervals are
// fetched once for the whole range; if that fails no times are returned.
func (s *Service) ValidTimes(ctx context.Context, hostID, eventID string, now time.Time) ([]time.Time, error) {
	ctx, span := telemetry.StartSpan(ctx, "booking", "booking.ValidTimes")
	defer span.End()
	telemetry.HostAttributes(span, hostID, eventID)

	started := time.Now()
	defer func() {
		telemetry.ResolveDuration.Observe(time.Since(started).Seconds())
	}()

	ev, err := s.GetEvent(ctx, hostID, eventID)
	if err != nil {
		telemetry.SpanError(span, err)
		return nil, err
	}

	sched, err := s.schedules.Get(ctx, hostID)
	if err != nil {
		telemetry.SpanError(span, err)
		return nil, err
	}
	if sched == nil {
		s.logger.Debug().Str("host_id", hostID).Msg("host has no schedule")
		return []time.Time{}, nil
	}

	from := availability.RoundUp(now, s.step)
	candidates := availability.Candidates(from, availability.BookingHorizon(from), s.step)
	if len(candidates) == 0 {
		return []time.Time{}, nil
	}

	req := availability.MeetingRequest{HostID: hostID, DurationInMinutes: ev.DurationInMinutes}
	busyIntervals, err := s.fetchBusy(ctx, hostID, candidates[0], candidates[len(candidates)-1].Add(req.Duration()))
	if err != nil {
		telemetry.SpanError(span, err)
		return nil, err
	}

	valid, err := s.resolver.Resolve(ctx, candidates, req, sched, busyIntervals)
	if err != nil {
		telemetry.SpanError(span, err)
		return nil, err
	}

	telemetry.ResolveCandidatesTotal.Add(float64(len(candidates)))
	telemetry.ResolveSlotsTotal.Add(float64(len(valid)))
	s.logger.Debug().
		Str("host_id", hostID).
		Str("event_id", eventID).
		Int("candidates", len(candidates)).
		Int("busy", len(busyIntervals)).
		Int("valid", len(valid)).
		Msg("valid times computed")
	return valid, nil
}

func (s *Service) fetchBusy(ctx context.Context, hostID string, start, end time.Time) ([]availability.Interval, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	out, err := s.source.BusyIntervals(ctx, hostID, start, end)
	if err != nil {
		if !errors.Is(err, availability.ErrSourceUnavailable) {
			err = fmt.Errorf("%w: %w", availability.ErrSourceUnavailable, err)
		}
		return nil, err
	}
	return out, nil
}
