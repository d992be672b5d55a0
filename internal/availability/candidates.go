/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package availability

import "time"

// Candidates returns instants every step from `from` rounded up to a step
// boundary through `until` inclusive.
func Candidates(from, until time.Time, step time.Duration) []time.Time {
	if step <= 0 {
		return nil
	}
	start := RoundUp(from, step)
	if start.After(until) {
		return nil
	}

	out := make([]time.Time, 0, int(until.Sub(start)/step)+1)
	for t := start; !t.After(until); t = t.Add(step) {
		out = append(out, t)
	}
	return out
}

// RoundUp returns the first step boundary at or after t, in t's location.
func RoundUp(t time.Time, step time.Duration) time.Time {
	if step <= 0 {
		return t
	}
	r := t.Truncate(step)
	if r.Before(t) {
		r = r.Add(step)
	}
	return r.In(t.Location())
}

// BookingHorizon returns the last instant of the day one year after from,
// in from's location.
func BookingHorizon(from time.Time) time.Time {
	y, m, d := from.AddDate(1, 0, 0).Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), from.Location())
}
