// Package server provides the MCP server context and the dedicated metrics
// server.
//
// ServerContext resolves credentials lazily and memoizes one client per
// backend: credentials are read from the environment on first use of a tool
// that needs them, so a mail-only setup never has to configure calendar
// credentials and vice versa. MetricsServer serves the Prometheus scrape
// endpoint on its own port, isolated from MCP traffic.
package server
