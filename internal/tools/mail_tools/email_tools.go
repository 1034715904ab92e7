package mail_tools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mailbridge/fastmail-mcp/internal/instrumentation"
	"github.com/mailbridge/fastmail-mcp/internal/jmap"
	"github.com/mailbridge/fastmail-mcp/internal/server"
	"github.com/mailbridge/fastmail-mcp/internal/tools/common"
)

// RegisterEmailTools registers the read-side mail tools with the MCP server.
func RegisterEmailTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listMailboxesTool := mcp.NewTool("mail_list_mailboxes",
		mcp.WithDescription("List all mailboxes of the account"),
	)
	s.AddTool(listMailboxesTool, common.InstrumentedToolHandlerWithBackend(
		"mail_list_mailboxes", instrumentation.BackendMail, "list", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListMailboxes(ctx, request, sc)
		}))

	recentEmailsTool := mcp.NewTool("mail_recent_emails",
		mcp.WithDescription("List the most recent emails in a mailbox, newest first"),
		mcp.WithString("mailbox",
			mcp.Description("Mailbox name or role (default: 'inbox')"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of emails to return (default: 10)"),
		),
	)
	s.AddTool(recentEmailsTool, common.InstrumentedToolHandlerWithBackend(
		"mail_recent_emails", instrumentation.BackendMail, "list", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleRecentEmails(ctx, request, sc)
		}))

	searchTool := mcp.NewTool("mail_search",
		mcp.WithDescription("Full-text search across all emails"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search text"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of emails to return (default: 20)"),
		),
	)
	s.AddTool(searchTool, common.InstrumentedToolHandlerWithBackend(
		"mail_search", instrumentation.BackendMail, "search", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSearch(ctx, request, sc)
		}))

	advancedSearchTool := mcp.NewTool("mail_advanced_search",
		mcp.WithDescription("Search emails by a combination of criteria; absent criteria are ignored"),
		mcp.WithString("from", mcp.Description("Sender address or name")),
		mcp.WithString("to", mcp.Description("Recipient address or name")),
		mcp.WithString("subject", mcp.Description("Subject text")),
		mcp.WithString("text", mcp.Description("Free text over the whole message")),
		mcp.WithString("mailbox", mcp.Description("Restrict to a mailbox name or role")),
		mcp.WithBoolean("hasAttachment", mcp.Description("Only emails with (or without) attachments")),
		mcp.WithBoolean("isUnread", mcp.Description("Only unread (or read) emails")),
		mcp.WithString("after", mcp.Description("Received after (RFC3339, e.g. '2025-01-01T00:00:00Z')")),
		mcp.WithString("before", mcp.Description("Received before (RFC3339)")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of emails to return (default: 20)")),
	)
	s.AddTool(advancedSearchTool, common.InstrumentedToolHandlerWithBackend(
		"mail_advanced_search", instrumentation.BackendMail, "search", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAdvancedSearch(ctx, request, sc)
		}))

	getEmailTool := mcp.NewTool("mail_get_email",
		mcp.WithDescription("Get a single email with its full body content"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The email ID"),
		),
	)
	s.AddTool(getEmailTool, common.InstrumentedToolHandlerWithBackend(
		"mail_get_email", instrumentation.BackendMail, "get", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetEmail(ctx, request, sc)
		}))

	getThreadTool := mcp.NewTool("mail_get_thread",
		mcp.WithDescription("Get every email of a conversation thread"),
		mcp.WithString("threadId",
			mcp.Required(),
			mcp.Description("The thread ID"),
		),
	)
	s.AddTool(getThreadTool, common.InstrumentedToolHandlerWithBackend(
		"mail_get_thread", instrumentation.BackendMail, "get", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetThread(ctx, request, sc)
		}))

	return nil
}

func handleListMailboxes(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	client, err := sc.MailClient()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	mailboxes, err := client.Mailboxes(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list mailboxes: %v", err)), nil
	}
	return common.JSONResult(map[string]any{
		"count":     len(mailboxes),
		"mailboxes": mailboxes,
	})
}

func handleRecentEmails(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	mailbox := "inbox"
	if mailboxVal, ok := args["mailbox"].(string); ok && mailboxVal != "" {
		mailbox = mailboxVal
	}
	limit := limitFromArgs(args, 10)

	client, err := sc.MailClient()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	emails, err := client.RecentEmails(ctx, mailbox, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list recent emails: %v", err)), nil
	}
	return common.JSONResult(map[string]any{
		"count":  len(emails),
		"emails": emails,
	})
}

func handleSearch(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	limit := limitFromArgs(args, 20)

	client, err := sc.MailClient()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	emails, err := client.SearchEmails(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Search failed: %v", err)), nil
	}
	return common.JSONResult(map[string]any{
		"count":  len(emails),
		"emails": emails,
	})
}

func handleAdvancedSearch(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	var criteria jmap.SearchCriteria
	if v, ok := args["from"].(string); ok {
		criteria.From = v
	}
	if v, ok := args["to"].(string); ok {
		criteria.To = v
	}
	if v, ok := args["subject"].(string); ok {
		criteria.Subject = v
	}
	if v, ok := args["text"].(string); ok {
		criteria.Text = v
	}
	if v, ok := args["mailbox"].(string); ok {
		criteria.Mailbox = v
	}
	if v, ok := args["hasAttachment"].(bool); ok {
		criteria.HasAttachment = &v
	}
	if v, ok := args["isUnread"].(bool); ok {
		criteria.IsUnread = &v
	}
	if v, ok := args["after"].(string); ok && v != "" {
		after, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid after format: %v", err)), nil
		}
		criteria.After = &after
	}
	if v, ok := args["before"].(string); ok && v != "" {
		before, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid before format: %v", err)), nil
		}
		criteria.Before = &before
	}
	limit := limitFromArgs(args, 20)

	client, err := sc.MailClient()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	emails, err := client.AdvancedSearch(ctx, criteria, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Search failed: %v", err)), nil
	}
	return common.JSONResult(map[string]any{
		"count":  len(emails),
		"emails": emails,
	})
}

func handleGetEmail(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	id, ok := args["id"].(string)
	if !ok || id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	client, err := sc.MailClient()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	email, err := client.GetEmail(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get email: %v", err)), nil
	}
	return common.JSONResult(email)
}

func handleGetThread(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	threadID, ok := args["threadId"].(string)
	if !ok || threadID == "" {
		return mcp.NewToolResultError("threadId is required"), nil
	}

	client, err := sc.MailClient()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	emails, err := client.GetThread(ctx, threadID)
	if err != nil {
		// Thread failures may quote upstream identifiers; report only the
		// category.
		return mcp.NewToolResultError(common.Scrubbed("get thread", err)), nil
	}
	return common.JSONResult(map[string]any{
		"threadId": threadID,
		"count":    len(emails),
		"emails":   emails,
	})
}
