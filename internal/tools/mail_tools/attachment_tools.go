package mail_tools

import (
	"context"
	"encoding/base64"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mailbridge/fastmail-mcp/internal/instrumentation"
	"github.com/mailbridge/fastmail-mcp/internal/server"
	"github.com/mailbridge/fastmail-mcp/internal/tools/common"
)

// RegisterAttachmentTools registers the attachment download tool with the MCP server.
func RegisterAttachmentTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	downloadTool := mcp.NewTool("mail_download_attachment",
		mcp.WithDescription("Download an email attachment; content is returned base64-encoded"),
		mcp.WithString("emailId",
			mcp.Required(),
			mcp.Description("The email ID"),
		),
		mcp.WithString("partId",
			mcp.Required(),
			mcp.Description("The attachment part ID"),
		),
	)
	s.AddTool(downloadTool, common.InstrumentedToolHandlerWithBackend(
		"mail_download_attachment", instrumentation.BackendMail, "download", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDownloadAttachment(ctx, request, sc)
		}))

	return nil
}

func handleDownloadAttachment(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	emailID, ok := args["emailId"].(string)
	if !ok || emailID == "" {
		return mcp.NewToolResultError("emailId is required"), nil
	}
	partID, ok := args["partId"].(string)
	if !ok || partID == "" {
		return mcp.NewToolResultError("partId is required"), nil
	}

	client, err := sc.MailClient()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	content, attachment, err := client.DownloadAttachment(ctx, emailID, partID)
	if err != nil {
		// Download failures can echo blob ids and filenames; report only
		// the category.
		return mcp.NewToolResultError(common.Scrubbed("download attachment", err)), nil
	}
	return common.JSONResult(map[string]any{
		"name":    attachment.Name,
		"type":    attachment.Type,
		"size":    attachment.Size,
		"content": base64.StdEncoding.EncodeToString(content),
	})
}
