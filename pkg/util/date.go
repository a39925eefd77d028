package util

import (
	"strconv"
	"time"
)

// compactLayout is the timestamp form used by news feeds, e.g. 20240110T153000.
const compactLayout = "20060102T150405"

// ParseTime tries RFC3339, RFC3339Nano, the compact feed layout, and unix
// seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano, compactLayout, "20060102T1504"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0).UTC(), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// Day truncates t to midnight UTC of its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today is Day(time.Now()).
func Today() time.Time { return Day(time.Now()) }

// LookbackWindow returns the inclusive day range [end-days, end].
func LookbackWindow(end time.Time, days int) (time.Time, time.Time) {
	end = Day(end)
	return end.AddDate(0, 0, -days), end
}

// DaysBetween lists every calendar day from start to end inclusive.
func DaysBetween(start, end time.Time) []time.Time {
	start, end = Day(start), Day(end)
	if end.Before(start) {
		return nil
	}
	out := make([]time.Time, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// FormatCompactMinute renders t as YYYYMMDDTHHMM.
func FormatCompactMinute(t time.Time) string {
	return t.UTC().Format("20060102T1504")
}
