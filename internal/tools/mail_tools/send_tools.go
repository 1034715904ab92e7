package mail_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mailbridge/fastmail-mcp/internal/instrumentation"
	"github.com/mailbridge/fastmail-mcp/internal/jmap"
	"github.com/mailbridge/fastmail-mcp/internal/server"
	"github.com/mailbridge/fastmail-mcp/internal/tools/common"
)

// RegisterSendTools registers the email sending tool with the MCP server.
func RegisterSendTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	sendTool := mcp.NewTool("mail_send",
		mcp.WithDescription("Send an email from the account's primary identity"),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Comma-separated recipient addresses"),
		),
		mcp.WithString("cc",
			mcp.Description("Comma-separated CC addresses"),
		),
		mcp.WithString("bcc",
			mcp.Description("Comma-separated BCC addresses"),
		),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.Description("Email subject"),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.Description("Plain text body"),
		),
	)
	s.AddTool(sendTool, common.InstrumentedToolHandlerWithBackend(
		"mail_send", instrumentation.BackendMail, "send", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSend(ctx, request, sc)
		}))

	return nil
}

func handleSend(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	toStr, ok := args["to"].(string)
	if !ok || toStr == "" {
		return mcp.NewToolResultError("to is required"), nil
	}
	subject, ok := args["subject"].(string)
	if !ok || subject == "" {
		return mcp.NewToolResultError("subject is required"), nil
	}
	body, ok := args["body"].(string)
	if !ok || body == "" {
		return mcp.NewToolResultError("body is required"), nil
	}
	ccStr, _ := args["cc"].(string)
	bccStr, _ := args["bcc"].(string)

	to := splitEmailAddresses(toStr)
	if len(to) == 0 {
		return mcp.NewToolResultError("to must contain at least one address"), nil
	}

	client, err := sc.MailClient()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	emailID, err := client.SendEmail(ctx, jmap.OutgoingEmail{
		To:      to,
		CC:      splitEmailAddresses(ccStr),
		BCC:     splitEmailAddresses(bccStr),
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to send email: %v", err)), nil
	}
	return common.JSONResult(map[string]any{
		"status":  "sent",
		"emailId": emailID,
	})
}

// splitEmailAddresses splits a comma-separated string of email addresses
func splitEmailAddresses(addresses string) []string {
	if addresses == "" {
		return nil
	}
	parts := strings.Split(addresses, ",")
	var result []string
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
