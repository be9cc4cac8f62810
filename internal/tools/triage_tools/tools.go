package triage_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/inboxpilot/inboxpilot/internal/gmail"
	"github.com/inboxpilot/inboxpilot/internal/server"
	"github.com/inboxpilot/inboxpilot/internal/tools/common"
	"github.com/inboxpilot/inboxpilot/internal/triage"
)

// RegisterTriageTools registers the triage pipeline tools with the MCP server.
func RegisterTriageTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	triageInboxTool := mcp.NewTool("triage_inbox",
		mcp.WithDescription("Classify recent inbox emails into triage categories and persist them to the pending store. Returns category counts and a short digest, not the emails themselves; use triage_get_batch to read them."),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithNumber("batchSize",
			mcp.Description(fmt.Sprintf("Maximum emails to process (default: %d, max: %d)", triage.DefaultRunBatchSize, triage.MaxRunBatchSize)),
		),
		mcp.WithNumber("days",
			mcp.Description("Look back this many days (default: 1)"),
		),
		mcp.WithString("olderThan",
			mcp.Description("Only consider emails received before this date (YYYY/MM/DD). Overrides days."),
		),
	)
	s.AddTool(triageInboxTool, common.InstrumentedToolHandlerWithOperation("triage_inbox", "search", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleTriageInbox(ctx, request, sc)
		}))

	getBatchTool := mcp.NewTool("triage_get_batch",
		mcp.WithDescription("Read a page of triaged emails from the pending store for one category"),
		mcp.WithString("category",
			mcp.Required(),
			mcp.Description(fmt.Sprintf("Triage category to read. One of: %s", categoryList())),
		),
		mcp.WithNumber("offset",
			mcp.Description("Number of emails in the category to skip (default: 0)"),
		),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum emails to return (default: %d, max: %d)", triage.DefaultBatchLimit, triage.MaxBatchLimit)),
		),
	)
	s.AddTool(getBatchTool, common.InstrumentedToolHandler("triage_get_batch", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetBatch(ctx, request, sc)
		}))

	return nil
}

func categoryList() string {
	names := make([]string, len(triage.Categories))
	for i, c := range triage.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func handleTriageInbox(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	if sc.Classifier() == nil {
		return mcp.NewToolResultError("No classifier configured. Set ANTHROPIC_API_KEY and restart the server."), nil
	}

	engine := sc.EngineForAccount(account)
	if engine == nil {
		authURL := gmail.GetAuthURLForAccount(account)
		return mcp.NewToolResultError(fmt.Sprintf("No Gmail access for account %q. Visit %s to authorize, then save the code with google_save_auth_code.", account, authURL)), nil
	}

	opts := triage.RunOptions{}
	if v, ok := args["batchSize"].(float64); ok {
		opts.BatchSize = int(v)
	}
	if v, ok := args["days"].(float64); ok {
		opts.Days = int(v)
	}
	if v, ok := args["olderThan"].(string); ok && v != "" {
		parsed, err := parseDate(v)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid olderThan date %q: use YYYY/MM/DD", v)), nil
		}
		opts.OlderThan = parsed
	}

	summary, err := engine.Run(ctx, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Triage run failed: %v", err)), nil
	}

	jsonBytes, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format summary: %v", err)), nil
	}

	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func handleGetBatch(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	category, ok := args["category"].(string)
	if !ok || category == "" {
		return mcp.NewToolResultError("category is required"), nil
	}

	offset := 0
	if v, ok := args["offset"].(float64); ok {
		offset = int(v)
	}

	limit := 0
	if v, ok := args["limit"].(float64); ok {
		limit = int(v)
	}

	batch, err := sc.BatchReader().GetBatch(category, offset, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to read batch: %v", err)), nil
	}

	jsonBytes, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format batch: %v", err)), nil
	}

	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006/01/02", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
