package busy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/friendsincode/slotwise/internal/availability"
)

func TestStaticSourceFiltersAndSorts(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2026, 3, 2, h, 0, 0, 0, time.UTC) }
	src := &StaticSource{Intervals: []availability.Interval{
		{Start: at(14), End: at(15)},
		{Start: at(6), End: at(7)}, // ends before window
		{Start: at(9), End: at(10)},
		{Start: at(18), End: at(19)}, // starts at window end
	}}

	got, err := src.BusyIntervals(context.Background(), "any", at(7), at(18))
	if err != nil {
		t.Fatalf("BusyIntervals: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d intervals, want 2: %+v", len(got), got)
	}
	if !got[0].Start.Equal(at(9)) || !got[1].Start.Equal(at(14)) {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestStaticSourceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&StaticSource{}).BusyIntervals(ctx, "h", time.Now(), time.Now().Add(time.Hour))
	if !errors.Is(err, availability.ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
}

func TestLoadStaticFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "busy.yaml")
	content := `busy:
  - start: 2026-03-02T10:00:00-05:00
    end: 2026-03-02T11:00:00-05:00
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	src, err := LoadStaticFile(path)
	if err != nil {
		t.Fatalf("LoadStaticFile: %v", err)
	}
	if len(src.Intervals) != 1 {
		t.Fatalf("intervals = %d, want 1", len(src.Intervals))
	}
	if want := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC); !src.Intervals[0].Start.Equal(want) {
		t.Fatalf("start = %v, want %v", src.Intervals[0].Start, want)
	}
}

func TestLoadStaticFileRejectsInvertedInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "busy.yaml")
	content := `busy:
  - start: 2026-03-02T11:00:00Z
    end: 2026-03-02T10:00:00Z
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadStaticFile(path); err == nil {
		t.Fatal("expected error for inverted interval")
	}
}
