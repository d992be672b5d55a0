/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package availability

import "fmt"

// Window is a parsed local time-of-day range.
type Window struct {
	Start TimeOfDay
	End   TimeOfDay
}

// GroupByDay parses entries and indexes them by day of week. Days without
// entries are absent from the result.
func GroupByDay(entries []WeeklyAvailability) (map[Weekday][]Window, error) {
	grouped := make(map[Weekday][]Window, len(Weekdays))
	for i, e := range entries {
		if e.Day.Index() < 0 {
			return nil, fmt.Errorf("availability[%d]: %w: %q", i, ErrUnknownWeekday, e.Day)
		}
		start, err := ParseTimeOfDay(e.Start)
		if err != nil {
			return nil, fmt.Errorf("availability[%d]: %w", i, err)
		}
		end, err := ParseTimeOfDay(e.End)
		if err != nil {
			return nil, fmt.Errorf("availability[%d]: %w", i, err)
		}
		grouped[e.Day] = append(grouped[e.Day], Window{Start: start, End: end})
	}
	return grouped, nil
}
