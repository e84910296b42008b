package ics

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"
)

// prodID identifies generated calendar objects.
const prodID = "-//caldav-mcp//CalDAV Client//EN"

// ObjectInput describes a single event to serialize as a calendar object.
type ObjectInput struct {
	UID     string
	Summary string
	Start   time.Time
	End     time.Time

	// RecurrenceRule is an optional RRULE value (without the property name),
	// e.g. "FREQ=WEEKLY;BYDAY=MO,WE". Rules are stored verbatim; they are
	// never expanded on the read path.
	RecurrenceRule string
}

// RecurrenceInput is the structured recurrence description accepted at the
// tool boundary. Zero values mean "not set".
type RecurrenceInput struct {
	Freq       string
	Interval   int
	Count      int
	Until      time.Time
	ByDay      []string
	ByMonthDay []int
	ByMonth    []int
}

var frequencies = map[string]rrule.Frequency{
	"DAILY":   rrule.DAILY,
	"WEEKLY":  rrule.WEEKLY,
	"MONTHLY": rrule.MONTHLY,
	"YEARLY":  rrule.YEARLY,
}

var weekdays = map[string]rrule.Weekday{
	"MO": rrule.MO,
	"TU": rrule.TU,
	"WE": rrule.WE,
	"TH": rrule.TH,
	"FR": rrule.FR,
	"SA": rrule.SA,
	"SU": rrule.SU,
}

// BuildRecurrenceRule converts a structured recurrence description into an
// RRULE value. Returns an empty string if in carries no frequency.
func BuildRecurrenceRule(in RecurrenceInput) (string, error) {
	if in.Freq == "" {
		return "", nil
	}

	freq, ok := frequencies[strings.ToUpper(in.Freq)]
	if !ok {
		return "", fmt.Errorf("unsupported recurrence frequency %q", in.Freq)
	}

	opt := rrule.ROption{
		Freq:       freq,
		Interval:   in.Interval,
		Count:      in.Count,
		Until:      in.Until,
		Bymonthday: in.ByMonthDay,
		Bymonth:    in.ByMonth,
	}

	for _, day := range in.ByDay {
		wd, ok := weekdays[strings.ToUpper(strings.TrimSpace(day))]
		if !ok {
			return "", fmt.Errorf("unsupported recurrence weekday %q", day)
		}
		opt.Byweekday = append(opt.Byweekday, wd)
	}

	return opt.String(), nil
}

// BuildObject serializes one event as a VCALENDAR text blob suitable for a
// PUT against <collection>/<uid>.ics.
func BuildObject(in ObjectInput) (string, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, prodID)

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, in.UID)
	event.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, in.Start.UTC())
	event.Props.SetDateTime(ical.PropDateTimeEnd, in.End.UTC())
	event.Props.SetText(ical.PropSummary, in.Summary)

	if in.RecurrenceRule != "" {
		prop := ical.NewProp(ical.PropRecurrenceRule)
		prop.Value = in.RecurrenceRule
		event.Props.Set(prop)
	}

	cal.Children = append(cal.Children, event.Component)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return "", fmt.Errorf("failed to encode calendar object: %w", err)
	}
	return buf.String(), nil
}
