// Package contact_tools provides MCP tools for the JMAP contacts backend.
package contact_tools
