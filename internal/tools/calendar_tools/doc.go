// Package calendar_tools provides MCP tools for the Fastmail CalDAV backend.
//
// Calendars and events are addressed by their DAV URLs, which double as
// stable identifiers. Event creation returns the URL of the new object so
// follow-up tools can fetch or delete it.
package calendar_tools
