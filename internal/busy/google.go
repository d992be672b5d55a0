/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package busy

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/friendsincode/slotwise/internal/availability"
	"github.com/friendsincode/slotwise/internal/telemetry"
)

const (
	primaryCalendar = "primary"
	maxResults      = 2500
	dateLayout      = "2006-01-02"
)

// TokenSourcer yields OAuth credentials for a host's calendar.
type TokenSourcer interface {
	TokenSource(ctx context.Context, hostID string) (oauth2.TokenSource, error)
}

// GoogleSource reads busy intervals from the host's primary Google calendar.
type GoogleSource struct {
	tokens TokenSourcer
	opts   []option.ClientOption
	logger zerolog.Logger
}

// NewGoogleSource creates a Google Calendar source. Extra client options are
// appended after the per-host token source.
func NewGoogleSource(tokens TokenSourcer, logger zerolog.Logger, opts ...option.ClientOption) *GoogleSource {
	return &GoogleSource{
		tokens: tokens,
		opts:   opts,
		logger: logger.With().Str("component", "google_calendar").Logger(),
	}
}

// BusyIntervals lists every non-special event instance on the primary calendar
// within [start, end). Recurring events are expanded by the API.
func (g *GoogleSource) BusyIntervals(ctx context.Context, hostID string, start, end time.Time) ([]availability.Interval, error) {
	out, err := g.list(ctx, hostID, start, end)
	if err != nil {
		telemetry.BusySourceErrorsTotal.WithLabelValues("google").Inc()
		g.logger.Warn().Err(err).Str("host_id", hostID).Msg("calendar fetch failed")
		return nil, fmt.Errorf("%w: %w", availability.ErrSourceUnavailable, err)
	}
	g.logger.Debug().
		Str("host_id", hostID).
		Time("start", start).
		Time("end", end).
		Int("busy", len(out)).
		Msg("calendar events fetched")
	return out, nil
}

func (g *GoogleSource) list(ctx context.Context, hostID string, start, end time.Time) ([]availability.Interval, error) {
	ts, err := g.tokens.TokenSource(ctx, hostID)
	if err != nil {
		return nil, err
	}

	opts := append([]option.ClientOption{option.WithTokenSource(ts)}, g.opts...)
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar client: %w", err)
	}

	call := svc.Events.List(primaryCalendar).
		EventTypes("default").
		SingleEvents(true).
		TimeMin(start.UTC().Format(time.RFC3339)).
		TimeMax(end.UTC().Format(time.RFC3339)).
		MaxResults(maxResults)

	var out []availability.Interval
	err = call.Pages(ctx, func(page *calendar.Events) error {
		loc := time.UTC
		if page.TimeZone != "" {
			if l, lerr := time.LoadLocation(page.TimeZone); lerr == nil {
				loc = l
			}
		}
		for _, ev := range page.Items {
			iv, ok, cerr := EventInterval(ev, loc)
			if cerr != nil {
				return cerr
			}
			if ok {
				out = append(out, iv)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return out, nil
}

// EventInterval converts a calendar event into a busy interval.
//
// Timed events map to their exact instants. All-day events cover
// [start date 00:00, end date 00:00) in loc; the API's end date is already
// exclusive, so a one-day event blocks exactly that day. Events missing either
// form of time are skipped (ok == false).
func EventInterval(ev *calendar.Event, loc *time.Location) (iv availability.Interval, ok bool, err error) {
	if ev == nil || ev.Start == nil || ev.End == nil {
		return availability.Interval{}, false, nil
	}

	switch {
	case ev.Start.Date != "" && ev.End.Date != "":
		dayLoc := loc
		if ev.Start.TimeZone != "" {
			if l, lerr := time.LoadLocation(ev.Start.TimeZone); lerr == nil {
				dayLoc = l
			}
		}
		s, err := time.ParseInLocation(dateLayout, ev.Start.Date, dayLoc)
		if err != nil {
			return availability.Interval{}, false, fmt.Errorf("event %s start date: %w", ev.Id, err)
		}
		e, err := time.ParseInLocation(dateLayout, ev.End.Date, dayLoc)
		if err != nil {
			return availability.Interval{}, false, fmt.Errorf("event %s end date: %w", ev.Id, err)
		}
		if !e.After(s) {
			e = s.AddDate(0, 0, 1)
		}
		iv = availability.Interval{Start: s.UTC(), End: e.UTC()}

	case ev.Start.DateTime != "" && ev.End.DateTime != "":
		s, err := time.Parse(time.RFC3339, ev.Start.DateTime)
		if err != nil {
			return availability.Interval{}, false, fmt.Errorf("event %s start: %w", ev.Id, err)
		}
		e, err := time.Parse(time.RFC3339, ev.End.DateTime)
		if err != nil {
			return availability.Interval{}, false, fmt.Errorf("event %s end: %w", ev.Id, err)
		}
		iv = availability.Interval{Start: s.UTC(), End: e.UTC()}

	default:
		return availability.Interval{}, false, nil
	}

	if !iv.Start.Before(iv.End) {
		return availability.Interval{}, false, nil
	}
	return iv, true, nil
}
