package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func utc(day, hour, minute int) time.Time {
	return time.Date(2026, time.March, day, hour, minute, 0, 0, time.UTC)
}

func every(from, until time.Time, step time.Duration) []time.Time {
	var out []time.Time
	for t := from; !t.After(until); t = t.Add(step) {
		out = append(out, t)
	}
	return out
}

func tuesdayMorning() *Schedule {
	return &Schedule{
		HostID:   "host-1",
		Timezone: "UTC",
		Availabilities: []WeeklyAvailability{
			{Day: Tuesday, Start: "09:00", End: "12:00"},
		},
	}
}

func assertTimes(t *testing.T, got, want []time.Time) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d (got %v)", len(got), len(want), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("result[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestResolveEndToEnd(t *testing.T) {
	// 2026-03-03 is a Tuesday.
	candidates := every(utc(3, 9, 0), utc(3, 11, 30), 15*time.Minute)
	busy := []Interval{{Start: utc(3, 9, 0), End: utc(3, 9, 30)}}

	got, err := Resolve(candidates, MeetingRequest{HostID: "host-1", DurationInMinutes: 30}, tuesdayMorning(), busy)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// 09:00 and 09:15 collide with the busy block; 11:30 ends exactly at 12:00.
	assertTimes(t, got, every(utc(3, 9, 30), utc(3, 11, 30), 15*time.Minute))
}

func TestResolveRejectsStraddlingAdjacentWindows(t *testing.T) {
	schedule := &Schedule{
		Timezone: "UTC",
		Availabilities: []WeeklyAvailability{
			{Day: Tuesday, Start: "09:00", End: "12:00"},
			{Day: Tuesday, Start: "12:00", End: "17:00"},
		},
	}
	candidates := []time.Time{utc(3, 11, 0), utc(3, 11, 30), utc(3, 11, 45), utc(3, 12, 0)}

	got, err := Resolve(candidates, MeetingRequest{DurationInMinutes: 60}, schedule, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	assertTimes(t, got, []time.Time{utc(3, 11, 0), utc(3, 12, 0)})
}

func TestResolveBusyBoundaries(t *testing.T) {
	tests := []struct {
		name string
		busy Interval
		want bool
	}{
		{"touching end is free", Interval{Start: utc(3, 10, 30), End: utc(3, 11, 0)}, true},
		{"touching start is free", Interval{Start: utc(3, 9, 30), End: utc(3, 10, 0)}, true},
		{"partial overlap rejected", Interval{Start: utc(3, 10, 15), End: utc(3, 10, 45)}, false},
		{"enclosing busy rejected", Interval{Start: utc(3, 9, 0), End: utc(3, 12, 0)}, false},
		{"busy inside meeting rejected", Interval{Start: utc(3, 10, 10), End: utc(3, 10, 20)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve([]time.Time{utc(3, 10, 0)}, MeetingRequest{DurationInMinutes: 30}, tuesdayMorning(), []Interval{tt.busy})
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if (len(got) == 1) != tt.want {
				t.Fatalf("kept = %v, want %v", len(got) == 1, tt.want)
			}
		})
	}
}

func TestResolveLongBusyBeforeShortOnes(t *testing.T) {
	// An early long block must still be seen when later short blocks end
	// before the meeting starts.
	busy := []Interval{
		{Start: utc(3, 9, 5), End: utc(3, 9, 10)},
		{Start: utc(3, 9, 0), End: utc(3, 11, 0)},
		{Start: utc(3, 9, 20), End: utc(3, 9, 25)},
	}
	got, err := Resolve([]time.Time{utc(3, 10, 0), utc(3, 11, 0)}, MeetingRequest{DurationInMinutes: 30}, tuesdayMorning(), busy)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	assertTimes(t, got, []time.Time{utc(3, 11, 0)})
}

func TestResolveNilScheduleIsEmpty(t *testing.T) {
	got, err := Resolve(every(utc(3, 9, 0), utc(3, 11, 0), 15*time.Minute), MeetingRequest{DurationInMinutes: 30}, nil, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no slots without a schedule, got %v", got)
	}
}

func TestResolveEmptyCandidates(t *testing.T) {
	got, err := Resolve(nil, MeetingRequest{DurationInMinutes: 30}, tuesdayMorning(), nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", got)
	}
}

func TestResolveErrors(t *testing.T) {
	if _, err := Resolve([]time.Time{utc(3, 9, 0)}, MeetingRequest{DurationInMinutes: 0}, tuesdayMorning(), nil); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("err = %v, want ErrInvalidDuration", err)
	}

	bad := tuesdayMorning()
	bad.Availabilities[0].End = "12h00"
	if _, err := Resolve([]time.Time{utc(3, 9, 0)}, MeetingRequest{DurationInMinutes: 30}, bad, nil); !errors.Is(err, ErrMalformedTimeOfDay) {
		t.Fatalf("err = %v, want ErrMalformedTimeOfDay", err)
	}

	zone := tuesdayMorning()
	zone.Timezone = "Mars/Olympus_Mons"
	if _, err := Resolve([]time.Time{utc(3, 9, 0)}, MeetingRequest{DurationInMinutes: 30}, zone, nil); !errors.Is(err, ErrUnknownTimezone) {
		t.Fatalf("err = %v, want ErrUnknownTimezone", err)
	}
}

func TestResolveClassifiesCandidateInItsOwnLocation(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	schedule := &Schedule{
		Timezone:       "Asia/Tokyo",
		Availabilities: []WeeklyAvailability{{Day: Monday, Start: "08:00", End: "10:00"}},
	}
	// Monday 2026-03-02 08:00 JST is Sunday 2026-03-01 23:00 UTC.
	inUTC := time.Date(2026, time.March, 1, 23, 0, 0, 0, time.UTC)
	inTokyo := inUTC.In(tokyo)

	got, err := Resolve([]time.Time{inUTC}, MeetingRequest{DurationInMinutes: 30}, schedule, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("UTC candidate is a Sunday and must be rejected, got %v", got)
	}

	got, err = Resolve([]time.Time{inTokyo}, MeetingRequest{DurationInMinutes: 30}, schedule, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Tokyo candidate is a Monday and must be kept, got %v", got)
	}
}

func TestResolverMatchesSequentialAndIsDeterministic(t *testing.T) {
	schedule := &Schedule{
		Timezone: "America/New_York",
		Availabilities: []WeeklyAvailability{
			{Day: Monday, Start: "09:00", End: "17:00"},
			{Day: Wednesday, Start: "13:00", End: "15:30"},
			{Day: Wednesday, Start: "14:00", End: "18:00"},
			{Day: Saturday, Start: "10:00", End: "11:00"},
		},
	}
	candidates := every(utc(1, 0, 0), utc(31, 23, 45), 15*time.Minute)
	busy := []Interval{
		{Start: utc(2, 15, 0), End: utc(2, 16, 0)},
		{Start: utc(9, 13, 30), End: utc(9, 14, 0)},
		{Start: utc(11, 19, 0), End: utc(11, 20, 45)},
	}
	req := MeetingRequest{DurationInMinutes: 45}

	want, err := Resolve(candidates, req, schedule, busy)
	if err != nil {
		t.Fatalf("sequential resolve: %v", err)
	}
	if len(want) == 0 {
		t.Fatal("expected some valid slots")
	}

	resolver := NewResolver(4, zerolog.Nop())
	for i := 0; i < 3; i++ {
		got, err := resolver.Resolve(context.Background(), candidates, req, schedule, busy)
		if err != nil {
			t.Fatalf("parallel resolve: %v", err)
		}
		assertTimes(t, got, want)
	}

	for i := 1; i < len(want); i++ {
		if !want[i-1].Before(want[i]) {
			t.Fatalf("output not ascending at %d: %v then %v", i, want[i-1], want[i])
		}
	}
}

func TestResolverHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	candidates := every(utc(1, 0, 0), utc(31, 0, 0), time.Minute)
	_, err := NewResolver(2, zerolog.Nop()).Resolve(ctx, candidates, MeetingRequest{DurationInMinutes: 30}, tuesdayMorning(), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
