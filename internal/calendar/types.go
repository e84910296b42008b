package calendar

import (
	"time"

	"github.com/bivex/caldav-mcp/internal/ics"
)

// DateRange is an inclusive interval with UTC boundaries.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Event is a calendar event as returned to tool callers. Start and End
// carry the raw property values from the calendar object, not
// reformatted timestamps.
type Event struct {
	Summary     string `json:"summary"`
	Start       string `json:"start"`
	End         string `json:"end"`
	UID         string `json:"uid"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

// EventInput describes a new event to create. Recurrence, when set,
// must carry a frequency.
type EventInput struct {
	Summary    string
	Start      time.Time
	End        time.Time
	Recurrence *ics.RecurrenceInput
}

// CalendarInfo identifies a discovered calendar collection.
type CalendarInfo struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// SkippedResource records a calendar object that could not be fetched
// or yielded no usable events during retrieval.
type SkippedResource struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// RetrievalReport describes how a ListEvents call obtained its result.
type RetrievalReport struct {
	// Strategy names the retrieval strategy that produced the events:
	// "report", "listing", or "recursive". Empty when every strategy
	// came back empty.
	Strategy string `json:"strategy,omitempty"`

	// Considered counts the calendar objects examined by the winning
	// strategy before filtering.
	Considered int `json:"considered"`

	// Skipped lists resources the winning strategy could not use.
	Skipped []SkippedResource `json:"skipped,omitempty"`
}
