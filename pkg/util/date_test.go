package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeCompact(t *testing.T) {
	got, ok := ParseTime("20240110T153000")
	if !ok {
		t.Fatalf("expected ok")
	}
	want := time.Date(2024, 1, 10, 15, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestLookbackWindow(t *testing.T) {
	end := time.Date(2024, 3, 1, 17, 45, 0, 0, time.UTC)
	start, stop := LookbackWindow(end, 365)
	if !stop.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("end not truncated: %v", stop)
	}
	if !start.Equal(time.Date(2023, 3, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start = %v", start)
	}
}

func TestDaysBetween(t *testing.T) {
	start := time.Date(2024, 2, 27, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	days := DaysBetween(start, end)
	if len(days) != 4 {
		t.Fatalf("days = %d, want 4 (leap year)", len(days))
	}
	if DaysBetween(end, start) != nil {
		t.Fatalf("reversed range should be empty")
	}
}

func TestFormatCompactMinute(t *testing.T) {
	d := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	if got := FormatCompactMinute(d); got != "20240107T0000" {
		t.Fatalf("got %q", got)
	}
}
