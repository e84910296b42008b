package calendar

import (
	"regexp"
	"strings"
	"time"
)

var (
	yearOnlyRe  = regexp.MustCompile(`^\d{4}$`)
	yearMonthRe = regexp.MustCompile(`^\d{4}-\d{2}$`)
	dateOnlyRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	utcOffsetRe = regexp.MustCompile(`[+-]\d{2}:?\d{2}$`)
)

// NormalizeRange expands partial date inputs into a full UTC range. A
// bare year covers the whole year, a year-month the whole month, and a
// date the whole day. Anything else is parsed as a datetime; values
// that cannot be parsed become the zero time, which the overlap filter
// never matches.
func NormalizeRange(start, end string) DateRange {
	return DateRange{
		Start: expandPartial(start, false),
		End:   expandPartial(end, true),
	}
}

func expandPartial(value string, isEnd bool) time.Time {
	value = strings.TrimSpace(value)

	switch {
	case yearOnlyRe.MatchString(value):
		year := atoi(value)
		if isEnd {
			return time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)
		}
		return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)

	case yearMonthRe.MatchString(value):
		year := atoi(value[:4])
		month := time.Month(atoi(value[5:7]))
		if isEnd {
			// Day zero of the following month is the last day of this
			// one, which handles varying month lengths and leap years.
			last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
			return time.Date(year, month, last.Day(), 23, 59, 59, 0, time.UTC)
		}
		return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)

	case dateOnlyRe.MatchString(value):
		year := atoi(value[:4])
		month := time.Month(atoi(value[5:7]))
		day := atoi(value[8:10])
		if isEnd {
			return time.Date(year, month, day, 23, 59, 59, 0, time.UTC)
		}
		return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	}

	return parseDateTime(value)
}

// datetime layouts accepted for full timestamps, tried in order. A
// trailing Z or numeric UTC offset is stripped first: the wall-clock
// value is taken as is, zone markers are ignored.
var dateTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"20060102T150405",
}

func parseDateTime(value string) time.Time {
	value = strings.TrimSuffix(value, "Z")
	value = utcOffsetRe.ReplaceAllString(value, "")
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
