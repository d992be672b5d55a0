/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package availability

import "time"

// Project materializes w on the calendar date of date (taken in date's own
// location) as an absolute interval, reading the wall-clock times in loc.
//
// The offset is resolved by time.Date for that specific date, so windows on
// DST transition days get the offset in force at each boundary. A wall time
// that falls in a spring-forward gap is normalized forward by time.Date.
func Project(date time.Time, w Window, loc *time.Location) Interval {
	y, m, d := date.Date()
	return Interval{
		Start: time.Date(y, m, d, w.Start.Hour, w.Start.Minute, 0, 0, loc).UTC(),
		End:   time.Date(y, m, d, w.End.Hour, w.End.Minute, 0, 0, loc).UTC(),
	}
}

// ProjectDay returns every window of the matching weekday projected onto date.
// A day with no entries yields nil.
func ProjectDay(date time.Time, grouped map[Weekday][]Window, loc *time.Location) []Interval {
	windows := grouped[WeekdayOf(date)]
	if len(windows) == 0 {
		return nil
	}
	out := make([]Interval, 0, len(windows))
	for _, w := range windows {
		out = append(out, Project(date, w, loc))
	}
	return out
}
