package mail_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mailbridge/fastmail-mcp/internal/instrumentation"
	"github.com/mailbridge/fastmail-mcp/internal/server"
	"github.com/mailbridge/fastmail-mcp/internal/tools/common"
)

// RegisterManageTools registers the mutating mail tools with the MCP server.
func RegisterManageTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	markReadTool := mcp.NewTool("mail_mark_read",
		mcp.WithDescription("Mark a single email as read or unread"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The email ID"),
		),
		mcp.WithBoolean("read",
			mcp.Description("Mark as read (true, default) or unread (false)"),
		),
	)
	s.AddTool(markReadTool, common.InstrumentedToolHandlerWithBackend(
		"mail_mark_read", instrumentation.BackendMail, "update", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleMarkRead(ctx, request, sc)
		}))

	bulkMarkReadTool := mcp.NewTool("mail_bulk_mark_read",
		mcp.WithDescription("Mark a batch of emails as read or unread in one request"),
		mcp.WithString("ids",
			mcp.Required(),
			mcp.Description("Comma-separated email IDs to update"),
		),
		mcp.WithBoolean("read",
			mcp.Description("Mark as read (true, default) or unread (false)"),
		),
	)
	s.AddTool(bulkMarkReadTool, common.InstrumentedToolHandlerWithBackend(
		"mail_bulk_mark_read", instrumentation.BackendMail, "update", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleBulkMarkRead(ctx, request, sc)
		}))

	moveTool := mcp.NewTool("mail_move",
		mcp.WithDescription("Move emails into another mailbox"),
		mcp.WithString("ids",
			mcp.Required(),
			mcp.Description("Comma-separated email IDs to move"),
		),
		mcp.WithString("mailbox",
			mcp.Required(),
			mcp.Description("Destination mailbox name or role"),
		),
	)
	s.AddTool(moveTool, common.InstrumentedToolHandlerWithBackend(
		"mail_move", instrumentation.BackendMail, "update", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleMove(ctx, request, sc)
		}))

	deleteTool := mcp.NewTool("mail_delete",
		mcp.WithDescription("Move emails to the trash mailbox"),
		mcp.WithString("ids",
			mcp.Required(),
			mcp.Description("Comma-separated email IDs to delete"),
		),
	)
	s.AddTool(deleteTool, common.InstrumentedToolHandlerWithBackend(
		"mail_delete", instrumentation.BackendMail, "update", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDelete(ctx, request, sc)
		}))

	return nil
}

func handleMarkRead(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	id, ok := args["id"].(string)
	if !ok || id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}
	read := true
	if v, ok := args["read"].(bool); ok {
		read = v
	}

	client, err := sc.MailClient()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := client.MarkRead(ctx, id, read); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to mark email: %v", err)), nil
	}
	return common.JSONResult(map[string]any{
		"id":   id,
		"read": read,
	})
}

func handleBulkMarkRead(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	ids, err := idsFromArgs(args, "ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	read := true
	if v, ok := args["read"].(bool); ok {
		read = v
	}

	client, err := sc.MailClient()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := client.BulkMarkRead(ctx, ids, read); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to mark emails: %v", err)), nil
	}
	return common.JSONResult(map[string]any{
		"updated": len(ids),
		"read":    read,
	})
}

func handleMove(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	ids, err := idsFromArgs(args, "ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mailbox, ok := args["mailbox"].(string)
	if !ok || mailbox == "" {
		return mcp.NewToolResultError("mailbox is required"), nil
	}

	client, err := sc.MailClient()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := client.MoveEmails(ctx, ids, mailbox); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to move emails: %v", err)), nil
	}
	return common.JSONResult(map[string]any{
		"moved":   len(ids),
		"mailbox": mailbox,
	})
}

func handleDelete(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	ids, err := idsFromArgs(args, "ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := sc.MailClient()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := client.DeleteEmails(ctx, ids); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to delete emails: %v", err)), nil
	}
	return common.JSONResult(map[string]any{
		"deleted": len(ids),
	})
}
