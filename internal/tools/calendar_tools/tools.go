package calendar_tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mailbridge/fastmail-mcp/internal/caldav"
	"github.com/mailbridge/fastmail-mcp/internal/instrumentation"
	"github.com/mailbridge/fastmail-mcp/internal/server"
	"github.com/mailbridge/fastmail-mcp/internal/tools/common"
)

// RegisterCalendarTools registers all calendar-related tools with the MCP server.
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listCalendarsTool := mcp.NewTool("calendar_list_calendars",
		mcp.WithDescription("List the calendars of the account"),
	)
	s.AddTool(listCalendarsTool, common.InstrumentedToolHandlerWithBackend(
		"calendar_list_calendars", instrumentation.BackendCalendar, "list", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListCalendars(ctx, request, sc)
		}))

	listEventsTool := mcp.NewTool("calendar_list_events",
		mcp.WithDescription("List events in a calendar, optionally restricted to a time range"),
		mcp.WithString("calendarUrl",
			mcp.Required(),
			mcp.Description("The calendar collection URL, as returned by calendar_list_calendars"),
		),
		mcp.WithString("start",
			mcp.Description("Range start (RFC3339, e.g. '2025-06-01T00:00:00Z')"),
		),
		mcp.WithString("end",
			mcp.Description("Range end (RFC3339)"),
		),
	)
	s.AddTool(listEventsTool, common.InstrumentedToolHandlerWithBackend(
		"calendar_list_events", instrumentation.BackendCalendar, "list", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListEvents(ctx, request, sc)
		}))

	getEventTool := mcp.NewTool("calendar_get_event",
		mcp.WithDescription("Get a single event by its URL"),
		mcp.WithString("eventUrl",
			mcp.Required(),
			mcp.Description("The event object URL"),
		),
	)
	s.AddTool(getEventTool, common.InstrumentedToolHandlerWithBackend(
		"calendar_get_event", instrumentation.BackendCalendar, "get", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetEvent(ctx, request, sc)
		}))

	createEventTool := mcp.NewTool("calendar_create_event",
		mcp.WithDescription("Create an event in a calendar"),
		mcp.WithString("calendarUrl",
			mcp.Required(),
			mcp.Description("The calendar collection URL"),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Event title"),
		),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Event start (RFC3339)"),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("Event end (RFC3339)"),
		),
		mcp.WithString("description",
			mcp.Description("Event description"),
		),
		mcp.WithString("location",
			mcp.Description("Event location"),
		),
		mcp.WithString("attendees",
			mcp.Description("Comma-separated attendee email addresses"),
		),
	)
	s.AddTool(createEventTool, common.InstrumentedToolHandlerWithBackend(
		"calendar_create_event", instrumentation.BackendCalendar, "create", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateEvent(ctx, request, sc)
		}))

	deleteEventTool := mcp.NewTool("calendar_delete_event",
		mcp.WithDescription("Delete an event by its URL"),
		mcp.WithString("eventUrl",
			mcp.Required(),
			mcp.Description("The event object URL"),
		),
	)
	s.AddTool(deleteEventTool, common.InstrumentedToolHandlerWithBackend(
		"calendar_delete_event", instrumentation.BackendCalendar, "delete", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteEvent(ctx, request, sc)
		}))

	return nil
}

func handleListCalendars(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	client, err := sc.CalendarClient()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	calendars, err := client.ListCalendars(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list calendars: %v", err)), nil
	}
	return common.JSONResult(map[string]any{
		"count":     len(calendars),
		"calendars": calendars,
	})
}

func handleListEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	calendarURL, ok := args["calendarUrl"].(string)
	if !ok || calendarURL == "" {
		return mcp.NewToolResultError("calendarUrl is required"), nil
	}

	var start, end *time.Time
	if v, ok := args["start"].(string); ok && v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid start format: %v", err)), nil
		}
		start = &parsed
	}
	if v, ok := args["end"].(string); ok && v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid end format: %v", err)), nil
		}
		end = &parsed
	}

	client, err := sc.CalendarClient()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	events, err := client.ListEvents(ctx, calendarURL, start, end)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list events: %v", err)), nil
	}
	return common.JSONResult(map[string]any{
		"count":  len(events),
		"events": events,
	})
}

func handleGetEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	eventURL, ok := args["eventUrl"].(string)
	if !ok || eventURL == "" {
		return mcp.NewToolResultError("eventUrl is required"), nil
	}

	client, err := sc.CalendarClient()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	event, err := client.GetEventByURL(ctx, eventURL)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get event: %v", err)), nil
	}
	if event == nil {
		return common.JSONResult(map[string]any{
			"found": false,
			"event": nil,
		})
	}
	return common.JSONResult(map[string]any{
		"found": true,
		"event": event,
	})
}

func handleCreateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	calendarURL, ok := args["calendarUrl"].(string)
	if !ok || calendarURL == "" {
		return mcp.NewToolResultError("calendarUrl is required"), nil
	}
	title, ok := args["title"].(string)
	if !ok || title == "" {
		return mcp.NewToolResultError("title is required"), nil
	}
	startStr, ok := args["start"].(string)
	if !ok || startStr == "" {
		return mcp.NewToolResultError("start is required"), nil
	}
	endStr, ok := args["end"].(string)
	if !ok || endStr == "" {
		return mcp.NewToolResultError("end is required"), nil
	}

	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid start format: %v", err)), nil
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid end format: %v", err)), nil
	}
	if !end.After(start) {
		return mcp.NewToolResultError("end must be after start"), nil
	}

	event := caldav.NewEvent{
		Title: title,
		Start: start,
		End:   end,
	}
	if v, ok := args["description"].(string); ok {
		event.Description = v
	}
	if v, ok := args["location"].(string); ok {
		event.Location = v
	}
	if v, ok := args["attendees"].(string); ok {
		for _, email := range splitAttendees(v) {
			event.Participants = append(event.Participants, caldav.Participant{Email: email})
		}
	}

	client, err := sc.CalendarClient()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	eventURL, err := client.CreateEvent(ctx, calendarURL, event)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create event: %v", err)), nil
	}
	return common.JSONResult(map[string]any{
		"status":   "created",
		"eventUrl": eventURL,
	})
}

func handleDeleteEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	eventURL, ok := args["eventUrl"].(string)
	if !ok || eventURL == "" {
		return mcp.NewToolResultError("eventUrl is required"), nil
	}

	client, err := sc.CalendarClient()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := client.DeleteEvent(ctx, eventURL); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to delete event: %v", err)), nil
	}
	return common.JSONResult(map[string]any{
		"status":   "deleted",
		"eventUrl": eventURL,
	})
}

// splitAttendees splits a comma-separated string of attendee addresses
func splitAttendees(attendees string) []string {
	if attendees == "" {
		return nil
	}
	var result []string
	for _, part := range strings.Split(attendees, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
