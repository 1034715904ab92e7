// Package mail_tools provides MCP tools for the Fastmail JMAP mail backend.
//
// Listing and search tools always run the query-then-fetch chain in one
// batch; bulk tools issue one batched update for all ids. Failures of
// mail_get_thread and mail_download_attachment are reported as scrubbed
// category strings because their payloads may quote message content.
package mail_tools
