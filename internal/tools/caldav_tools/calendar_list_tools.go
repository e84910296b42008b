package caldav_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/bivex/caldav-mcp/internal/instrumentation"
	"github.com/bivex/caldav-mcp/internal/server"
	"github.com/bivex/caldav-mcp/internal/tools/common"
)

// RegisterCalendarListTools registers calendar discovery tools with the MCP server
func RegisterCalendarListTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// List calendars tool
	listCalendarsTool := mcp.NewTool("caldav_list_calendars",
		mcp.WithDescription("List all calendar collections on the server, returning both name and URL"),
	)

	s.AddTool(listCalendarsTool, common.InstrumentedToolHandlerWithOperation(
		"caldav_list_calendars", instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListCalendars(ctx, sc)
		}))

	return nil
}

func handleListCalendars(ctx context.Context, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	calendars := sc.CalendarClient().ListCalendars(ctx)
	if len(calendars) == 0 {
		return mcp.NewToolResultText("No calendars found. The server may use a non-standard layout; calendar collection URLs can still be passed to caldav_list_events directly."), nil
	}

	data, err := json.Marshal(calendars)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode calendars: %v", err)), nil
	}

	return mcp.NewToolResultText(string(data)), nil
}
