package loggen

import (
	"fmt"
	"time"
)

// dateLayouts are the accepted forms of a window bound
//
//nolint:gochecknoglobals // read-only
var dateLayouts = []string{time.DateOnly, time.DateTime, time.RFC3339}

// Window is the inclusive generation window for timestamps
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow returns the window [start, end], truncated to whole seconds
func NewWindow(start, end time.Time) (Window, error) {
	start = start.UTC().Truncate(time.Second)
	end = end.UTC().Truncate(time.Second)
	if end.Before(start) {
		return Window{}, fmt.Errorf("window end %s is before start %s",
			end.Format(TimestampLayout), start.Format(TimestampLayout))
	}
	return Window{Start: start, End: end}, nil
}

// Seconds returns the number of whole seconds between Start and End.
// It works on Unix seconds: time.Duration saturates past about 292 years.
func (w Window) Seconds() int64 {
	return w.End.Unix() - w.Start.Unix()
}

// At returns the instant offset seconds after Start
func (w Window) At(offset int64) time.Time {
	return time.Unix(w.Start.Unix()+offset, 0).UTC()
}

// Contains reports whether t lies within the window, bounds included
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// ParseDate parses a window bound given as a date, a date-time, or RFC 3339.
// Bounds without a zone are interpreted as UTC.
func ParseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD or YYYY-MM-DD HH:MM:SS)", value)
}
