// Package caldav_tools provides MCP (Model Context Protocol) tools for CalDAV
// calendar operations.
//
// This package exposes CalDAV functionality through a standardized MCP
// interface, allowing AI assistants to discover calendars and to list, create
// and delete events on a CalDAV server on behalf of users.
//
// Event listing degrades gracefully across servers: a time-range REPORT query
// is tried first, then shallow and recursive collection listings with
// client-side filtering. Write tools are only registered when the server is
// not in read-only mode.
package caldav_tools
