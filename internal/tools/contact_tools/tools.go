package contact_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mailbridge/fastmail-mcp/internal/instrumentation"
	"github.com/mailbridge/fastmail-mcp/internal/server"
	"github.com/mailbridge/fastmail-mcp/internal/tools/common"
)

// RegisterContactTools registers all contact-related tools with the MCP server.
func RegisterContactTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listTool := mcp.NewTool("contacts_list",
		mcp.WithDescription("List contacts of the account"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of contacts to return (default: 50)"),
		),
	)
	s.AddTool(listTool, common.InstrumentedToolHandlerWithBackend(
		"contacts_list", instrumentation.BackendContacts, "list", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListContacts(ctx, request, sc)
		}))

	getTool := mcp.NewTool("contacts_get",
		mcp.WithDescription("Get a single contact by ID"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The contact ID"),
		),
	)
	s.AddTool(getTool, common.InstrumentedToolHandlerWithBackend(
		"contacts_get", instrumentation.BackendContacts, "get", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetContact(ctx, request, sc)
		}))

	searchTool := mcp.NewTool("contacts_search",
		mcp.WithDescription("Search contacts by name or email address"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search text"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of contacts to return (default: 20)"),
		),
	)
	s.AddTool(searchTool, common.InstrumentedToolHandlerWithBackend(
		"contacts_search", instrumentation.BackendContacts, "search", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSearchContacts(ctx, request, sc)
		}))

	return nil
}

func handleListContacts(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	limit := 50
	if v, ok := args["limit"].(float64); ok && v > 0 {
		limit = int(v)
	}

	client, err := sc.ContactsClient()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	contacts, err := client.List(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list contacts: %v", err)), nil
	}
	return common.JSONResult(map[string]any{
		"count":    len(contacts),
		"contacts": contacts,
	})
}

func handleGetContact(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	id, ok := args["id"].(string)
	if !ok || id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	client, err := sc.ContactsClient()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	contact, err := client.Get(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get contact: %v", err)), nil
	}
	return common.JSONResult(contact)
}

func handleSearchContacts(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	limit := 20
	if v, ok := args["limit"].(float64); ok && v > 0 {
		limit = int(v)
	}

	client, err := sc.ContactsClient()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	contacts, err := client.Search(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Contact search failed: %v", err)), nil
	}
	return common.JSONResult(map[string]any{
		"query":    query,
		"count":    len(contacts),
		"contacts": contacts,
	})
}
