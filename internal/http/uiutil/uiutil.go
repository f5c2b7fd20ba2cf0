package uiutil

import (
	"strings"
	"time"
)

// FullDateTimeLayout renders a full date and time, e.g. "March 1, 2024 at 10:20:30 AM".
const FullDateTimeLayout = "January 2, 2006 at 3:04:05 PM"

// LocationFromName loads an IANA time zone, falling back to UTC for empty or unknown names.
func LocationFromName(name string) *time.Location {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// FormatFullDateTime formats t in loc using FullDateTimeLayout. Zero times render as "".
func FormatFullDateTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(FullDateTimeLayout)
}
