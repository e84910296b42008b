package caldav_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/bivex/caldav-mcp/internal/calendar"
	"github.com/bivex/caldav-mcp/internal/ics"
	"github.com/bivex/caldav-mcp/internal/instrumentation"
	"github.com/bivex/caldav-mcp/internal/server"
	"github.com/bivex/caldav-mcp/internal/tools/common"
)

// RegisterEventTools registers event-related tools with the MCP server
func RegisterEventTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	// List events tool (read-only, always available)
	listEventsTool := mcp.NewTool("caldav_list_events",
		mcp.WithDescription("List calendar events within a date range. Tries a CalDAV REPORT query first and falls back to collection listings when the server does not support it. Returns event details including summary, start/end times, and descriptions."),
		mcp.WithString("calendarUrl",
			mcp.Required(),
			mcp.Description("URL of the calendar collection to search (use caldav_list_calendars to get available URLs)"),
		),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Start of the search range. Accepts full timestamps ('2025-09-10T00:00:00Z') or partial dates ('2025', '2025-09', '2025-09-10')"),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("End of the search range. Partial dates expand to the end of the period ('2025-09' means September 30th 23:59:59)"),
		),
	)

	s.AddTool(listEventsTool, common.InstrumentedToolHandlerWithOperation(
		"caldav_list_events", instrumentation.OperationReport, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListEvents(ctx, request, sc)
		}))

	// Register create/delete tools only if not in read-only mode
	if !readOnly {
		// Create event tool
		createEventTool := mcp.NewTool("caldav_create_event",
			mcp.WithDescription("Create a calendar event in the collection specified by its URL (supports recurring events)"),
			mcp.WithString("calendarUrl",
				mcp.Required(),
				mcp.Description("URL of the calendar collection to create the event in"),
			),
			mcp.WithString("summary",
				mcp.Required(),
				mcp.Description("Event title/summary"),
			),
			mcp.WithString("start",
				mcp.Required(),
				mcp.Description("Start time (RFC3339 format, e.g., '2025-01-15T14:00:00Z')"),
			),
			mcp.WithString("end",
				mcp.Required(),
				mcp.Description("End time (RFC3339 format, e.g., '2025-01-15T15:00:00Z')"),
			),
			mcp.WithString("recurrenceFreq",
				mcp.Description("Recurrence frequency: 'DAILY', 'WEEKLY', 'MONTHLY' or 'YEARLY'"),
			),
			mcp.WithNumber("recurrenceInterval",
				mcp.Description("Interval between recurrences (e.g., 2 for every other week)"),
			),
			mcp.WithNumber("recurrenceCount",
				mcp.Description("Number of occurrences"),
			),
			mcp.WithString("recurrenceUntil",
				mcp.Description("Last possible occurrence (RFC3339 format)"),
			),
			mcp.WithString("recurrenceByDay",
				mcp.Description("Comma-separated weekdays (e.g., 'MO,WE,FR')"),
			),
			mcp.WithString("recurrenceByMonthDay",
				mcp.Description("Comma-separated days of the month (e.g., '1,15')"),
			),
			mcp.WithString("recurrenceByMonth",
				mcp.Description("Comma-separated months (e.g., '1,7')"),
			),
		)

		s.AddTool(createEventTool, common.InstrumentedToolHandlerWithOperation(
			"caldav_create_event", instrumentation.OperationPut, sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleCreateEvent(ctx, request, sc)
			}))

		// Delete event tool
		deleteEventTool := mcp.NewTool("caldav_delete_event",
			mcp.WithDescription("Delete a calendar event by its unique identifier (UID). Permanently removes the event from the specified calendar collection."),
			mcp.WithString("calendarUrl",
				mcp.Required(),
				mcp.Description("URL of the calendar collection containing the event"),
			),
			mcp.WithString("uid",
				mcp.Required(),
				mcp.Description("Unique identifier of the event to delete (obtained from caldav_list_events)"),
			),
		)

		s.AddTool(deleteEventTool, common.InstrumentedToolHandlerWithOperation(
			"caldav_delete_event", instrumentation.OperationDelete, sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleDeleteEvent(ctx, request, sc)
			}))
	}

	return nil
}

func handleListEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	calendarURL, ok := args["calendarUrl"].(string)
	if !ok || calendarURL == "" {
		return mcp.NewToolResultError("calendarUrl is required"), nil
	}

	startStr, ok := args["start"].(string)
	if !ok || startStr == "" {
		return mcp.NewToolResultError("start is required"), nil
	}

	endStr, ok := args["end"].(string)
	if !ok || endStr == "" {
		return mcp.NewToolResultError("end is required"), nil
	}

	rng := calendar.NormalizeRange(startStr, endStr)

	events, report := sc.CalendarClient().ListEvents(ctx, calendarURL, rng)

	if metrics := sc.Metrics(); metrics != nil {
		strategy := report.Strategy
		outcome := instrumentation.OutcomeHit
		if len(events) == 0 {
			strategy = "exhausted"
			outcome = instrumentation.OutcomeEmpty
		}
		metrics.RecordRetrievalStrategy(ctx, strategy, outcome)
	}

	if events == nil {
		events = []calendar.Event{}
	}

	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode events: %v", err)), nil
	}

	return mcp.NewToolResultText(string(data)), nil
}

func handleCreateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	calendarURL, ok := args["calendarUrl"].(string)
	if !ok || calendarURL == "" {
		return mcp.NewToolResultError("calendarUrl is required"), nil
	}

	summary, ok := args["summary"].(string)
	if !ok || summary == "" {
		return mcp.NewToolResultError("summary is required"), nil
	}

	startStr, ok := args["start"].(string)
	if !ok || startStr == "" {
		return mcp.NewToolResultError("start is required"), nil
	}
	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid start format: %v", err)), nil
	}

	endStr, ok := args["end"].(string)
	if !ok || endStr == "" {
		return mcp.NewToolResultError("end is required"), nil
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid end format: %v", err)), nil
	}

	recurrence, err := recurrenceFromArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	input := calendar.EventInput{
		Summary:    summary,
		Start:      start,
		End:        end,
		Recurrence: recurrence,
	}

	uid, err := sc.CalendarClient().CreateEvent(ctx, calendarURL, input)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create event: %v", err)), nil
	}

	result := fmt.Sprintf("Successfully created event: %s\n", summary)
	result += fmt.Sprintf("UID: %s\n", uid)

	return mcp.NewToolResultText(result), nil
}

func handleDeleteEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	calendarURL, ok := args["calendarUrl"].(string)
	if !ok || calendarURL == "" {
		return mcp.NewToolResultError("calendarUrl is required"), nil
	}

	uid, ok := args["uid"].(string)
	if !ok || uid == "" {
		return mcp.NewToolResultError("uid is required"), nil
	}

	if err := sc.CalendarClient().DeleteEvent(ctx, calendarURL, uid); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to delete event: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Successfully deleted event %s", uid)), nil
}

// recurrenceFromArgs assembles the optional recurrence description from the
// flat tool arguments. Returns nil when no recurrence argument is present.
func recurrenceFromArgs(args map[string]interface{}) (*ics.RecurrenceInput, error) {
	rec := &ics.RecurrenceInput{}
	set := false

	if freq, ok := args["recurrenceFreq"].(string); ok && freq != "" {
		rec.Freq = freq
		set = true
	}
	if interval, ok := args["recurrenceInterval"].(float64); ok && interval != 0 {
		rec.Interval = int(interval)
		set = true
	}
	if count, ok := args["recurrenceCount"].(float64); ok && count != 0 {
		rec.Count = int(count)
		set = true
	}
	if untilStr, ok := args["recurrenceUntil"].(string); ok && untilStr != "" {
		until, err := time.Parse(time.RFC3339, untilStr)
		if err != nil {
			return nil, fmt.Errorf("Invalid recurrenceUntil format: %v", err)
		}
		rec.Until = until
		set = true
	}
	if byDay, ok := args["recurrenceByDay"].(string); ok && byDay != "" {
		for _, day := range strings.Split(byDay, ",") {
			rec.ByDay = append(rec.ByDay, strings.TrimSpace(day))
		}
		set = true
	}
	byMonthDay, err := intListArg(args, "recurrenceByMonthDay")
	if err != nil {
		return nil, err
	}
	if len(byMonthDay) > 0 {
		rec.ByMonthDay = byMonthDay
		set = true
	}
	byMonth, err := intListArg(args, "recurrenceByMonth")
	if err != nil {
		return nil, err
	}
	if len(byMonth) > 0 {
		rec.ByMonth = byMonth
		set = true
	}

	if !set {
		return nil, nil
	}
	return rec, nil
}

func intListArg(args map[string]interface{}, key string) ([]int, error) {
	raw, ok := args[key].(string)
	if !ok || raw == "" {
		return nil, nil
	}

	var values []int
	for _, part := range strings.Split(raw, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("Invalid %s value %q: expected a number", key, strings.TrimSpace(part))
		}
		values = append(values, n)
	}
	return values, nil
}
