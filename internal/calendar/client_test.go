package calendar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bivex/caldav-mcp/internal/caldav"
	"github.com/bivex/caldav-mcp/internal/ics"
)

func testEngine(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	dav := caldav.NewClient(caldav.Config{
		BaseURL:  srv.URL,
		Username: "user",
		Password: "pass",
	}, nil)
	return NewClient(dav, nil)
}

const standupICS = `BEGIN:VCALENDAR
BEGIN:VEVENT
UID:standup-1
SUMMARY:Standup
DTSTART:20250615T100000
DTEND:20250615T101500
END:VEVENT
END:VCALENDAR`

const offsiteICS = `BEGIN:VCALENDAR
BEGIN:VEVENT
UID:offsite-1
SUMMARY:Offsite
DTSTART:20250901T090000
DTEND:20250901T170000
END:VEVENT
END:VCALENDAR`

func multistatusListing(hrefs ...string) string {
	var b strings.Builder
	b.WriteString(`<multistatus xmlns="DAV:">`)
	for _, h := range hrefs {
		fmt.Fprintf(&b, `<response><href>%s</href><propstat><prop><resourcetype/></prop></propstat></response>`, h)
	}
	b.WriteString(`</multistatus>`)
	return b.String()
}

func reportResponse(payloads ...string) string {
	var b strings.Builder
	b.WriteString(`<D:multistatus xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">`)
	for _, p := range payloads {
		fmt.Fprintf(&b, `<D:response><D:propstat><D:prop><C:calendar-data>%s</C:calendar-data></D:prop></D:propstat></D:response>`, p)
	}
	b.WriteString(`</D:multistatus>`)
	return b.String()
}

func TestListEventsReportStrategyWins(t *testing.T) {
	var gets int
	engine := testEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case "REPORT":
			w.WriteHeader(http.StatusMultiStatus)
			io.WriteString(w, reportResponse(standupICS, offsiteICS))
		case http.MethodGet:
			gets++
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusForbidden)
		}
	}))

	rng := NormalizeRange("2025-06-15", "2025-06-15")
	events, report := engine.ListEvents(context.Background(), "/cal/work/", rng)

	// REPORT output is trusted as already filtered, so the September
	// event comes back even though it is outside the range.
	require.Len(t, events, 2)
	assert.Equal(t, "Standup", events[0].Summary)
	assert.Equal(t, "20250615T100000", events[0].Start)
	assert.Equal(t, "standup-1", events[0].UID)
	assert.Equal(t, "report", report.Strategy)
	assert.Equal(t, 2, report.Considered)
	assert.Zero(t, gets, "no objects are fetched when the report succeeds")
}

func TestListEventsFallsBackToListing(t *testing.T) {
	objects := map[string]string{
		"/cal/work/standup.ics": standupICS,
		"/cal/work/offsite.ics": offsiteICS,
	}
	engine := testEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case "REPORT":
			w.WriteHeader(http.StatusForbidden)
		case "PROPFIND":
			w.WriteHeader(http.StatusMultiStatus)
			io.WriteString(w, multistatusListing("/cal/work/standup.ics", "/cal/work/offsite.ics", "/cal/work/notes.txt"))
		case http.MethodGet:
			body, ok := objects[r.URL.Path]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			io.WriteString(w, body)
		}
	}))

	rng := NormalizeRange("2025-06", "2025-06")
	events, report := engine.ListEvents(context.Background(), "/cal/work/", rng)

	require.Len(t, events, 1, "only the June event overlaps the range")
	assert.Equal(t, "Standup", events[0].Summary)
	assert.Equal(t, "listing", report.Strategy)
	assert.Equal(t, 2, report.Considered, "the .txt entry is not a calendar object")
}

func TestListEventsPartialFetchFailure(t *testing.T) {
	engine := testEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case "REPORT":
			w.WriteHeader(http.StatusForbidden)
		case "PROPFIND":
			w.WriteHeader(http.StatusMultiStatus)
			io.WriteString(w, multistatusListing("/cal/work/good.ics", "/cal/work/broken.ics"))
		case http.MethodGet:
			if r.URL.Path == "/cal/work/broken.ics" {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			io.WriteString(w, standupICS)
		}
	}))

	rng := NormalizeRange("2025-06-14", "2025-06-16")
	events, report := engine.ListEvents(context.Background(), "/cal/work/", rng)

	require.Len(t, events, 1)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "/cal/work/broken.ics", report.Skipped[0].Path)
}

func TestListEventsRecursiveFallback(t *testing.T) {
	engine := testEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case "REPORT":
			w.WriteHeader(http.StatusForbidden)
		case "PROPFIND":
			w.WriteHeader(http.StatusMultiStatus)
			switch r.URL.Path {
			case "/cal/work/":
				io.WriteString(w, `<multistatus xmlns="DAV:">
<response><href>/cal/work/sub/</href><propstat><prop><resourcetype><collection/></resourcetype></prop></propstat></response>
</multistatus>`)
			case "/cal/work/sub/":
				io.WriteString(w, multistatusListing("/cal/work/sub/standup.ics"))
			default:
				io.WriteString(w, multistatusListing())
			}
		case http.MethodGet:
			io.WriteString(w, standupICS)
		}
	}))

	rng := NormalizeRange("2025-06-14", "2025-06-16")
	events, report := engine.ListEvents(context.Background(), "/cal/work/", rng)

	require.Len(t, events, 1)
	assert.Equal(t, "recursive", report.Strategy)
}

func TestListEventsAllStrategiesEmpty(t *testing.T) {
	engine := testEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	events, report := engine.ListEvents(context.Background(), "/cal/work/",
		NormalizeRange("2025", "2025"))

	assert.Empty(t, events)
	assert.Empty(t, report.Strategy)
}

func TestOverlapBoundaries(t *testing.T) {
	rng := DateRange{
		Start: time.Date(2025, 6, 15, 10, 0, 0, 0, time.Local),
		End:   time.Date(2025, 6, 15, 11, 0, 0, 0, time.Local),
	}
	at := func(h, m int) time.Time {
		return time.Date(2025, 6, 15, h, m, 0, 0, time.Local)
	}

	tests := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{"inside", at(10, 15), at(10, 45), true},
		{"spanning", at(9, 0), at(12, 0), true},
		{"ends at range start", at(9, 0), at(10, 0), false},
		{"starts at range end", at(11, 0), at(12, 0), false},
		{"ends just after range start", at(9, 0), at(10, 1), true},
		{"zero start never matches", time.Time{}, at(10, 30), false},
		{"zero end never matches", at(10, 30), time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := ics.Event{Start: tt.start, End: tt.end}
			assert.Equal(t, tt.want, overlaps(ev, rng))
		})
	}
}

func TestListCalendars(t *testing.T) {
	responses := map[string]string{
		"/calendars/": `<multistatus xmlns="DAV:">
<response><href>/calendars/alice/</href><propstat><prop><resourcetype><collection/></resourcetype></prop></propstat></response>
</multistatus>`,
		"/calendars/alice/": `<multistatus xmlns="DAV:">
<response><href>/calendars/alice/work/</href><propstat><prop><displayname>Work</displayname><resourcetype><collection/></resourcetype></prop></propstat></response>
<response><href>/calendars/alice/inbox/</href><propstat><prop><resourcetype><collection/></resourcetype></prop></propstat></response>
<response><href>/calendars/alice/outbox/</href><propstat><prop><resourcetype><collection/></resourcetype></prop></propstat></response>
</multistatus>`,
	}
	engine := testEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := responses[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusMultiStatus)
		io.WriteString(w, body)
	}))

	calendars := engine.ListCalendars(context.Background())

	require.Len(t, calendars, 2)
	assert.Equal(t, CalendarInfo{Name: "alice", URL: "/calendars/alice/"}, calendars[0])
	assert.Equal(t, CalendarInfo{Name: "Work", URL: "/calendars/alice/work/"}, calendars[1])
}

func TestListCalendarsSkipsDescentIntoCalendarCollections(t *testing.T) {
	var paths []string
	engine := testEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path != "/calendars/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusMultiStatus)
		io.WriteString(w, `<multistatus xmlns="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">
<response><href>/calendars/personal/</href><propstat><prop><displayname>Personal</displayname><resourcetype><collection/><C:calendar/></resourcetype></prop></propstat></response>
</multistatus>`)
	}))

	calendars := engine.ListCalendars(context.Background())

	require.Len(t, calendars, 1)
	assert.Equal(t, CalendarInfo{Name: "Personal", URL: "/calendars/personal/"}, calendars[0])

	// A calendar-typed collection is a leaf; no nested listing is issued.
	for _, p := range paths {
		assert.NotEqual(t, "/calendars/personal/", p)
	}
}

func TestCreateEvent(t *testing.T) {
	var putPath, putBody, ifNoneMatch string
	engine := testEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		putPath = r.URL.Path
		ifNoneMatch = r.Header.Get("If-None-Match")
		data, _ := io.ReadAll(r.Body)
		putBody = string(data)
		w.WriteHeader(http.StatusCreated)
	}))

	uid, err := engine.CreateEvent(context.Background(), "/cal/work/", EventInput{
		Summary: "Planning",
		Start:   time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC),
		End:     time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC),
		Recurrence: &ics.RecurrenceInput{
			Freq:     "WEEKLY",
			Interval: 2,
			ByDay:    []string{"TU"},
		},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(uid, "@caldav-mcp"))
	assert.Equal(t, "/cal/work/"+uid+".ics", putPath)
	assert.Equal(t, "*", ifNoneMatch)
	assert.Contains(t, putBody, "SUMMARY:Planning")
	assert.Contains(t, putBody, "FREQ=WEEKLY")
	assert.Contains(t, putBody, "INTERVAL=2")
}

func TestCreateEventRetriesAfterMkcol(t *testing.T) {
	var methods []string
	engine := testEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		switch {
		case r.Method == http.MethodPut && len(methods) == 1:
			w.WriteHeader(http.StatusNotFound)
		case r.Method == "MKCOL":
			w.WriteHeader(http.StatusCreated)
		default:
			w.WriteHeader(http.StatusCreated)
		}
	}))

	_, err := engine.CreateEvent(context.Background(), "/cal/new/", EventInput{
		Summary: "Kickoff",
		Start:   time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC),
		End:     time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"PUT", "MKCOL", "PUT"}, methods)
}

func TestCreateEventBadRecurrence(t *testing.T) {
	engine := testEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for invalid input")
	}))

	_, err := engine.CreateEvent(context.Background(), "/cal/work/", EventInput{
		Summary:    "Bad",
		Start:      time.Now(),
		End:        time.Now().Add(time.Hour),
		Recurrence: &ics.RecurrenceInput{Freq: "FORTNIGHTLY"},
	})
	require.Error(t, err)
}

func TestDeleteEvent(t *testing.T) {
	var gotPath string
	engine := testEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))

	err := engine.DeleteEvent(context.Background(), "/cal/work", "abc@caldav-mcp")
	require.NoError(t, err)
	assert.Equal(t, "/cal/work/abc@caldav-mcp.ics", gotPath)
}

func TestDeleteEventNotFound(t *testing.T) {
	engine := testEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	err := engine.DeleteEvent(context.Background(), "/cal/work", "missing")
	require.Error(t, err)
}
