package memory_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/inboxpilot/inboxpilot/internal/server"
	"github.com/inboxpilot/inboxpilot/internal/tools/common"
)

// RegisterMemoryTools registers the memory note tools with the MCP server.
func RegisterMemoryTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	saveTool := mcp.NewTool("memory_save",
		mcp.WithDescription("Save a note to persistent memory. Use this to remember user preferences, routines, and context between sessions. Overwrites any existing note with the same name."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Note name (lowercase letters, digits, hyphens, underscores; e.g., 'newsletter-preferences')"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The note content"),
		),
	)
	s.AddTool(saveTool, common.InstrumentedToolHandler("memory_save", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSave(ctx, request, sc)
		}))

	readTool := mcp.NewTool("memory_read",
		mcp.WithDescription("Read a note from persistent memory"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Note name to read"),
		),
	)
	s.AddTool(readTool, common.InstrumentedToolHandler("memory_read", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleRead(ctx, request, sc)
		}))

	listTool := mcp.NewTool("memory_list",
		mcp.WithDescription("List all notes in persistent memory"),
	)
	s.AddTool(listTool, common.InstrumentedToolHandler("memory_list", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleList(ctx, request, sc)
		}))

	deleteTool := mcp.NewTool("memory_delete",
		mcp.WithDescription("Delete a note from persistent memory"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Note name to delete"),
		),
	)
	s.AddTool(deleteTool, common.InstrumentedToolHandler("memory_delete", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDelete(ctx, request, sc)
		}))

	return nil
}

func handleSave(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	name, ok := args["name"].(string)
	if !ok || name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}

	content, ok := args["content"].(string)
	if !ok || content == "" {
		return mcp.NewToolResultError("content is required"), nil
	}

	if err := sc.Memory().Save(name, content); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to save note: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Note %q saved.", name)), nil
}

func handleRead(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	name, ok := args["name"].(string)
	if !ok || name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}

	content, err := sc.Memory().Read(name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to read note: %v", err)), nil
	}

	return mcp.NewToolResultText(content), nil
}

func handleList(_ context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	notes, err := sc.Memory().List()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list notes: %v", err)), nil
	}

	if len(notes) == 0 {
		return mcp.NewToolResultText("No notes stored yet."), nil
	}

	jsonBytes, err := json.MarshalIndent(notes, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format notes: %v", err)), nil
	}

	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func handleDelete(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	name, ok := args["name"].(string)
	if !ok || name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}

	if err := sc.Memory().Delete(name); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to delete note: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Note %q deleted.", name)), nil
}
