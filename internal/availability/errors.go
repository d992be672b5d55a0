/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package availability

import "errors"

var (
	// ErrMalformedTimeOfDay means a stored availability entry has an unparseable time.
	// The save path validates on write, so this indicates bad data and is never retried.
	ErrMalformedTimeOfDay = errors.New("malformed time of day")

	// ErrUnknownWeekday means a stored availability entry names no known day.
	ErrUnknownWeekday = errors.New("unknown day of week")

	// ErrUnknownTimezone means the schedule timezone is not in the tz database.
	ErrUnknownTimezone = errors.New("unknown timezone")

	// ErrInvalidWindow means an entry does not start before it ends.
	ErrInvalidWindow = errors.New("availability window must start before it ends")

	// ErrInvalidDuration means the meeting duration is not positive.
	ErrInvalidDuration = errors.New("meeting duration must be positive")

	// ErrSourceUnavailable means busy intervals could not be fetched. Callers may retry.
	ErrSourceUnavailable = errors.New("busy interval source unavailable")
)
