package mail_tools

import (
	"fmt"
	"strings"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mailbridge/fastmail-mcp/internal/errs"
	"github.com/mailbridge/fastmail-mcp/internal/server"
)

// RegisterMailTools registers all mail-related tools with the MCP server.
func RegisterMailTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if err := RegisterEmailTools(s, sc); err != nil {
		return fmt.Errorf("failed to register email tools: %w", err)
	}
	if err := RegisterManageTools(s, sc); err != nil {
		return fmt.Errorf("failed to register manage tools: %w", err)
	}
	if err := RegisterSendTools(s, sc); err != nil {
		return fmt.Errorf("failed to register send tools: %w", err)
	}
	if err := RegisterAttachmentTools(s, sc); err != nil {
		return fmt.Errorf("failed to register attachment tools: %w", err)
	}
	return nil
}

// limitFromArgs reads an optional numeric limit, falling back to def.
func limitFromArgs(args map[string]interface{}, def int) int {
	if v, ok := args["limit"].(float64); ok && v > 0 {
		return int(v)
	}
	return def
}

// idsFromArgs reads a required comma-separated list of ids.
func idsFromArgs(args map[string]interface{}, field string) ([]string, error) {
	raw, ok := args[field].(string)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, &errs.ValidationError{Field: field, Reason: "a comma-separated list of ids is required"}
	}
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, &errs.ValidationError{Field: field, Reason: "a comma-separated list of ids is required"}
	}
	return ids, nil
}
