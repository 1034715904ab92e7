// Package cmd implements the command-line interface for fastmail-mcp.
//
// This package provides the following commands:
//   - serve: Start the MCP server exposing Fastmail mail, contacts and
//     calendar tools (default)
//   - version: Display version information
package cmd
