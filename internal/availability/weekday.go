/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package availability

import (
	"fmt"
	"strings"
	"time"
)

// Weekday is the canonical day-of-week used for both grouping availability
// entries and classifying candidate instants.
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// Weekdays lists the days in display order.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var stdWeekdays = map[time.Weekday]Weekday{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

// WeekdayOf classifies the calendar date of t in t's own location.
// No timezone conversion happens before classification: a candidate passed in
// UTC is classified by its UTC date, one passed in a viewer zone by that date.
func WeekdayOf(t time.Time) Weekday {
	y, m, d := t.Date()
	// Truncate to the date first so the classification never depends on the
	// time-of-day component.
	return stdWeekdays[time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Weekday()]
}

// ParseWeekday accepts full or three-letter English day names in any case.
func ParseWeekday(s string) (Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mon", "monday":
		return Monday, nil
	case "tue", "tues", "tuesday":
		return Tuesday, nil
	case "wed", "wednesday":
		return Wednesday, nil
	case "thu", "thur", "thurs", "thursday":
		return Thursday, nil
	case "fri", "friday":
		return Friday, nil
	case "sat", "saturday":
		return Saturday, nil
	case "sun", "sunday":
		return Sunday, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownWeekday, s)
}

// Index returns the position of d in Weekdays, or -1.
func (d Weekday) Index() int {
	for i, day := range Weekdays {
		if day == d {
			return i
		}
	}
	return -1
}
