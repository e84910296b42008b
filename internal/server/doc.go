// Package server provides the MCP server context and the operational
// HTTP surfaces for the caldav-mcp application.
//
// # Key Components
//
// ServerContext holds the shared CalDAV calendar client plus the
// instrumentation recorders, and coordinates graceful shutdown. One
// server process talks to a single CalDAV server with a fixed
// credential pair, so tools share one client rather than a per-account
// map.
//
// MetricsServer serves Prometheus metrics on a dedicated port when the
// streamable HTTP transport is used. Keeping metrics off the MCP port
// prevents unauthorized access to operational data.
//
// HealthChecker provides /healthz and /readyz endpoints for Kubernetes
// probes, plus a detailed health endpoint with uptime.
package server
