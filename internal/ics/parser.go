package ics

import (
	"strconv"
	"strings"
	"time"
)

// Event is a single VEVENT extracted from a calendar object.
//
// StartRaw/EndRaw carry the property values exactly as they appeared on the
// wire; Start/End are the parsed instants used for range filtering. A zero
// Start or End means the corresponding property was absent or empty.
type Event struct {
	UID         string
	Summary     string
	StartRaw    string
	EndRaw      string
	Start       time.Time
	End         time.Time
	Description string
	Location    string
}

// Parse scans a calendar object and returns the events it contains.
//
// The scanner is deliberately tolerant: it tracks BEGIN:VEVENT/END:VEVENT
// markers, picks out a fixed set of properties by line prefix, and drops
// any record that reaches END:VEVENT without a summary. CalDAV servers
// hand back plenty of half-broken fragments (alarm stubs, empty wrappers)
// and skipping them beats refusing the whole collection.
func Parse(text string) []Event {
	var events []Event
	var current *Event

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "BEGIN:VEVENT":
			current = &Event{}
		case trimmed == "END:VEVENT":
			if current != nil && current.Summary != "" {
				events = append(events, *current)
			}
			current = nil
		case current != nil:
			parseEventLine(current, trimmed)
		}
	}

	return events
}

func parseEventLine(ev *Event, line string) {
	switch {
	case strings.HasPrefix(line, "SUMMARY:"):
		ev.Summary = line[len("SUMMARY:"):]
	case strings.HasPrefix(line, "DTSTART:") || strings.HasPrefix(line, "DTSTART;"):
		ev.StartRaw = propertyValue(line)
		ev.Start = ParseCalDAVDate(ev.StartRaw)
	case strings.HasPrefix(line, "DTEND:") || strings.HasPrefix(line, "DTEND;"):
		ev.EndRaw = propertyValue(line)
		ev.End = ParseCalDAVDate(ev.EndRaw)
	case strings.HasPrefix(line, "UID:"):
		ev.UID = line[len("UID:"):]
	case strings.HasPrefix(line, "DESCRIPTION:"):
		ev.Description = line[len("DESCRIPTION:"):]
	case strings.HasPrefix(line, "LOCATION:"):
		ev.Location = line[len("LOCATION:"):]
	}
}

// propertyValue returns the first colon-delimited value of a content line.
// Taking only the first segment tolerates parameterized properties such as
// DTSTART;TZID=Europe/Berlin:20250910T090000.
func propertyValue(line string) string {
	parts := strings.Split(line, ":")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// ParseCalDAVDate parses a compact CalDAV date value.
//
// Values containing a T are read positionally as YYYYMMDDTHHMMSS; anything
// after the seconds (a trailing Z or a numeric offset) is ignored and the
// instant is constructed in local time. Values without a T are the 8-digit
// date-only form used by all-day events and map to local midnight.
//
// Numeric components are not range-checked; an out-of-range month or hour
// rolls over through time.Date rather than failing. Empty input returns the
// zero time.
func ParseCalDAVDate(value string) time.Time {
	if value == "" {
		return time.Time{}
	}

	year := digitsAt(value, 0, 4)
	month := digitsAt(value, 4, 6)
	day := digitsAt(value, 6, 8)

	if strings.Contains(value, "T") {
		hour := digitsAt(value, 9, 11)
		minute := digitsAt(value, 11, 13)
		second := digitsAt(value, 13, 15)
		return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.Local)
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)
}

// FormatCalDAVDate renders an instant as the compact UTC timestamp form
// used in time-range filters and generated calendar objects.
func FormatCalDAVDate(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// digitsAt parses value[from:to] as an integer, returning 0 when the span
// is out of bounds or not numeric, so malformed date values still produce
// a constructed instant.
func digitsAt(value string, from, to int) int {
	if from >= len(value) {
		return 0
	}
	if to > len(value) {
		to = len(value)
	}
	n, err := strconv.Atoi(value[from:to])
	if err != nil {
		return 0
	}
	return n
}
