package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/bivex/caldav-mcp/internal/caldav"
	"github.com/bivex/caldav-mcp/internal/ics"
	"github.com/bivex/caldav-mcp/internal/logging"
)

// Client is the event retrieval and manipulation engine for a single
// CalDAV server.
type Client struct {
	dav    *caldav.Client
	logger *slog.Logger
}

// NewClient wraps a CalDAV transport client.
func NewClient(dav *caldav.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{dav: dav, logger: logger}
}

// Probe checks that the server is reachable and accepts the configured
// credentials by listing the server root.
func (c *Client) Probe(ctx context.Context) error {
	if _, err := c.dav.List(ctx, "/"); err != nil {
		return fmt.Errorf("caldav server probe failed: %w", err)
	}
	return nil
}

// ListEvents retrieves the events of a collection that overlap rng.
//
// Three strategies run in order until one yields events: a server-side
// time-range REPORT, a shallow listing with client-side filtering, and
// a recursive listing with client-side filtering. REPORT output is
// trusted without re-filtering; the server already applied the range.
// An empty result from a strategy, including one caused by errors that
// degraded to empty, advances to the next strategy rather than failing.
func (c *Client) ListEvents(ctx context.Context, collection string, rng DateRange) ([]Event, RetrievalReport) {
	strategies := []struct {
		name string
		run  func() ([]Event, RetrievalReport)
	}{
		{"report", func() ([]Event, RetrievalReport) { return c.retrieveByReport(ctx, collection, rng) }},
		{"listing", func() ([]Event, RetrievalReport) { return c.retrieveByListing(ctx, collection, rng) }},
		{"recursive", func() ([]Event, RetrievalReport) { return c.retrieveRecursively(ctx, collection, rng) }},
	}

	for _, s := range strategies {
		events, report := s.run()
		if len(events) == 0 {
			c.logger.Debug("retrieval strategy yielded no events",
				logging.Collection(collection), logging.Strategy(s.name))
			continue
		}
		report.Strategy = s.name
		c.logger.Debug("events retrieved",
			logging.Collection(collection), logging.Strategy(s.name),
			slog.Int("count", len(events)))
		return events, report
	}

	return nil, RetrievalReport{}
}

func (c *Client) retrieveByReport(ctx context.Context, collection string, rng DateRange) ([]Event, RetrievalReport) {
	payloads := c.dav.QueryTimeRange(ctx, collection, rng.Start, rng.End)
	report := RetrievalReport{Considered: len(payloads)}

	var events []Event
	for _, payload := range payloads {
		for _, ev := range ics.Parse(payload) {
			events = append(events, toEvent(ev))
		}
	}
	return events, report
}

func (c *Client) retrieveByListing(ctx context.Context, collection string, rng DateRange) ([]Event, RetrievalReport) {
	entries, err := c.dav.List(ctx, collection)
	if err != nil {
		return nil, RetrievalReport{Skipped: []SkippedResource{{Path: collection, Reason: err.Error()}}}
	}
	return c.fetchAndFilter(ctx, calendarObjects(entries), rng)
}

func (c *Client) retrieveRecursively(ctx context.Context, collection string, rng DateRange) ([]Event, RetrievalReport) {
	entries := c.dav.ListRecursive(ctx, collection)
	return c.fetchAndFilter(ctx, calendarObjects(entries), rng)
}

// calendarObjects keeps the entries that look like calendar object
// resources.
func calendarObjects(entries []caldav.CollectionEntry) []caldav.CollectionEntry {
	var files []caldav.CollectionEntry
	for _, e := range entries {
		if e.IsDir || !strings.HasSuffix(strings.ToLower(e.Path), ".ics") {
			continue
		}
		files = append(files, e)
	}
	return files
}

// fetchAndFilter downloads each object and keeps the events overlapping
// rng. A failed fetch skips that object only.
func (c *Client) fetchAndFilter(ctx context.Context, files []caldav.CollectionEntry, rng DateRange) ([]Event, RetrievalReport) {
	report := RetrievalReport{Considered: len(files)}

	var events []Event
	for _, f := range files {
		body, err := c.dav.Get(ctx, f.Path)
		if err != nil {
			c.logger.Debug("skipping unreadable calendar object", logging.Path(f.Path), logging.Err(err))
			report.Skipped = append(report.Skipped, SkippedResource{Path: f.Path, Reason: err.Error()})
			continue
		}
		parsed := ics.Parse(body)
		if len(parsed) == 0 {
			report.Skipped = append(report.Skipped, SkippedResource{Path: f.Path, Reason: "no parseable events"})
			continue
		}
		for _, ev := range parsed {
			if !overlaps(ev, rng) {
				continue
			}
			events = append(events, toEvent(ev))
		}
	}
	return events, report
}

// overlaps implements the half-open interval test: an event overlaps the
// range when it starts before the range ends and ends after the range
// starts. Events whose instants could not be parsed never match.
func overlaps(ev ics.Event, rng DateRange) bool {
	if ev.Start.IsZero() || ev.End.IsZero() {
		return false
	}
	return ev.Start.Before(rng.End) && ev.End.After(rng.Start)
}

func toEvent(ev ics.Event) Event {
	return Event{
		Summary:     ev.Summary,
		Start:       ev.StartRaw,
		End:         ev.EndRaw,
		UID:         ev.UID,
		Description: ev.Description,
		Location:    ev.Location,
	}
}

// calendarRoots are the well-known locations searched for calendar
// collections.
var calendarRoots = []string{"/calendars", "/principals"}

// ListCalendars discovers calendar collections by walking the
// well-known roots one nested level deep. Scheduling inbox and outbox
// collections and dotted names are excluded, and duplicate URLs are
// collapsed.
func (c *Client) ListCalendars(ctx context.Context) []CalendarInfo {
	seen := make(map[string]bool)
	var calendars []CalendarInfo

	add := func(entry caldav.CollectionEntry) {
		if seen[entry.Path] {
			return
		}
		seen[entry.Path] = true
		name := entry.DisplayName
		if name == "" {
			name = path.Base(strings.TrimSuffix(entry.Path, "/"))
		}
		calendars = append(calendars, CalendarInfo{Name: name, URL: entry.Path})
	}

	for _, root := range calendarRoots {
		entries, err := c.dav.List(ctx, root+"/")
		if err != nil {
			c.logger.Debug("calendar root not listable", logging.Path(root), logging.Err(err))
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir || excludedCollection(entry.Path) {
				continue
			}
			add(entry)

			// A collection carrying the calendar resource type holds
			// calendar objects, not further collections; skip the
			// nested listing.
			if entry.IsCalendar {
				continue
			}

			nested, err := c.dav.List(ctx, entry.Path)
			if err != nil {
				c.logger.Debug("nested collection not listable", logging.Path(entry.Path), logging.Err(err))
				continue
			}
			for _, sub := range nested {
				if !sub.IsDir || excludedCollection(sub.Path) {
					continue
				}
				add(sub)
			}
		}
	}

	return calendars
}

func excludedCollection(p string) bool {
	name := path.Base(strings.TrimSuffix(p, "/"))
	return name == "inbox" || name == "outbox" || strings.HasPrefix(name, ".")
}

// CreateEvent builds a calendar object for input and uploads it to the
// collection. The object path is <collection>/<uid>.ics and the upload
// is guarded with If-None-Match so an existing object is never
// overwritten. When the collection does not exist yet the client
// creates it and retries once.
func (c *Client) CreateEvent(ctx context.Context, collection string, input EventInput) (string, error) {
	uid := uuid.NewString() + "@caldav-mcp"

	var rule string
	if input.Recurrence != nil {
		var err error
		rule, err = ics.BuildRecurrenceRule(*input.Recurrence)
		if err != nil {
			return "", fmt.Errorf("building recurrence rule: %w", err)
		}
	}

	body, err := ics.BuildObject(ics.ObjectInput{
		UID:            uid,
		Summary:        input.Summary,
		Start:          input.Start,
		End:            input.End,
		RecurrenceRule: rule,
	})
	if err != nil {
		return "", fmt.Errorf("building calendar object: %w", err)
	}

	objectPath := objectPath(collection, uid)
	headers := map[string]string{"If-None-Match": "*"}

	err = c.dav.Put(ctx, objectPath, body, "text/calendar; charset=utf-8", headers)
	if err == nil {
		c.logger.Debug("event created", logging.Collection(collection), slog.String("uid", uid))
		return uid, nil
	}

	// A missing collection surfaces as 404 or 409 depending on the
	// server. Create it and retry once.
	if code := statusCode(err); code == http.StatusNotFound || code == http.StatusConflict {
		if mkErr := c.dav.Mkcol(ctx, collection); mkErr != nil {
			return "", fmt.Errorf("creating collection %s: %w", collection, mkErr)
		}
		if err := c.dav.Put(ctx, objectPath, body, "text/calendar; charset=utf-8", headers); err != nil {
			return "", fmt.Errorf("uploading event after creating collection: %w", err)
		}
		c.logger.Debug("event created in new collection", logging.Collection(collection), slog.String("uid", uid))
		return uid, nil
	}

	return "", fmt.Errorf("uploading event: %w", err)
}

// DeleteEvent removes the object <collection>/<uid>.ics.
func (c *Client) DeleteEvent(ctx context.Context, collection, uid string) error {
	if err := c.dav.Delete(ctx, objectPath(collection, uid)); err != nil {
		return fmt.Errorf("deleting event %s: %w", uid, err)
	}
	c.logger.Debug("event deleted", logging.Collection(collection), slog.String("uid", uid))
	return nil
}

func objectPath(collection, uid string) string {
	return strings.TrimSuffix(collection, "/") + "/" + uid + ".ics"
}

func statusCode(err error) int {
	var statusErr *caldav.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code
	}
	return 0
}
