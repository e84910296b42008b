// Package ics reads and writes the line-oriented calendar-object format
// exchanged over CalDAV.
//
// The read path is a tolerant hand-rolled scanner: it extracts a fixed set
// of VEVENT properties, drops records without a summary, and constructs
// best-effort instants from compact date values without validating digit
// ranges. Strict decoding would reject the malformed fragments real servers
// produce, so parsing never fails.
//
// The write path is strict by contrast and uses github.com/emersion/go-ical
// to serialize generated events, with recurrence rules built through
// github.com/teambition/rrule-go.
//
// Date-time values are interpreted as naive local times; trailing Z markers
// and offsets are ignored. Timezone-aware parsing is an explicit non-goal.
package ics
