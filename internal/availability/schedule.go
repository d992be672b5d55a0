/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package availability

import (
	"fmt"
	"time"
	// Embedded IANA database so offsets never depend on the host's zoneinfo.
	_ "time/tzdata"
)

// WeeklyAvailability is one recurring free window on a day of the week,
// expressed in the owning schedule's timezone.
type WeeklyAvailability struct {
	Day   Weekday `json:"day_of_week" yaml:"day" validate:"required"`
	Start string  `json:"start_time" yaml:"start" validate:"required"` // HH:MM
	End   string  `json:"end_time" yaml:"end" validate:"required"`     // HH:MM
}

// Schedule is a host's weekly availability. Entries may overlap and are
// treated as an OR of windows.
type Schedule struct {
	HostID         string               `json:"host_id" yaml:"host_id"`
	Timezone       string               `json:"timezone" yaml:"timezone"`
	Availabilities []WeeklyAvailability `json:"availabilities" yaml:"availabilities"`
}

// LoadLocation resolves an IANA timezone name.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrUnknownTimezone)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimezone, name)
	}
	return loc, nil
}

// Validate is the write-time check run before a schedule is saved.
func (s Schedule) Validate() error {
	if _, err := LoadLocation(s.Timezone); err != nil {
		return err
	}
	for i, a := range s.Availabilities {
		if a.Day.Index() < 0 {
			return fmt.Errorf("availability[%d]: %w: %q", i, ErrUnknownWeekday, a.Day)
		}
		start, err := ParseTimeOfDay(a.Start)
		if err != nil {
			return fmt.Errorf("availability[%d]: %w", i, err)
		}
		end, err := ParseTimeOfDay(a.End)
		if err != nil {
			return fmt.Errorf("availability[%d]: %w", i, err)
		}
		if !start.Before(end) {
			return fmt.Errorf("availability[%d]: %w (%s >= %s)", i, ErrInvalidWindow, start, end)
		}
	}
	return nil
}
