// Package common provides shared utilities for MCP tool implementations:
// the instrumented handler wrapper and error scrubbing for operations whose
// failures must not leak upstream details.
package common
