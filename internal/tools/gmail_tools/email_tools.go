package gmail_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/inboxpilot/inboxpilot/internal/gmail"
	"github.com/inboxpilot/inboxpilot/internal/server"
	"github.com/inboxpilot/inboxpilot/internal/tools/batch"
)

// defaultSearchResults bounds gmail_search_emails when maxResults is omitted.
const defaultSearchResults = 25

func handleSearchEmails(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	client, errResult := clientForAccount(ctx, sc, args)
	if errResult != nil {
		return errResult, nil
	}

	filters := gmail.Filters{}
	if v, ok := args["query"].(string); ok {
		filters.Query = v
	}
	if v, ok := args["timeRange"].(string); ok {
		filters.TimeRange = v
	}
	if v, ok := args["from"].(string); ok {
		filters.From = v
	}
	if v, ok := args["to"].(string); ok {
		filters.To = v
	}
	if v, ok := args["subject"].(string); ok {
		filters.Subject = v
	}
	if v, ok := args["label"].(string); ok {
		filters.Label = v
	}
	if v, ok := args["unreadOnly"].(bool); ok {
		filters.UnreadOnly = v
	}
	if v, ok := args["hasAttachment"].(bool); ok {
		filters.HasAttachment = v
	}

	maxResults := defaultSearchResults
	if v, ok := args["maxResults"].(float64); ok && v > 0 {
		maxResults = int(v)
	}

	query := gmail.NewQueryBuilder().Build(filters)

	pager := gmail.NewPager(client, gmail.WithLogger(sc.Logger()))
	summaries, err := pager.FetchSummaries(ctx, query, maxResults)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to search emails: %v", err)), nil
	}

	if len(summaries) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No emails matched query %q.", query)), nil
	}

	payload := struct {
		Query  string               `json:"query"`
		Count  int                  `json:"count"`
		Emails []gmail.EmailSummary `json:"emails"`
	}{Query: query, Count: len(summaries), Emails: summaries}

	jsonBytes, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format results: %v", err)), nil
	}

	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func handleReadEmail(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	messageID, ok := args["messageId"].(string)
	if !ok || messageID == "" {
		return mcp.NewToolResultError("messageId is required"), nil
	}

	client, errResult := clientForAccount(ctx, sc, args)
	if errResult != nil {
		return errResult, nil
	}

	msg, err := client.GetMessage(messageID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get message: %v", err)), nil
	}

	body, err := client.GetMessageBody(messageID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to decode message body: %v", err)), nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Message ID: %s\n", messageID))
	result.WriteString(fmt.Sprintf("From: %s\n", gmail.HeaderValue(msg, "From")))
	result.WriteString(fmt.Sprintf("To: %s\n", gmail.HeaderValue(msg, "To")))
	result.WriteString(fmt.Sprintf("Date: %s\n", gmail.HeaderValue(msg, "Date")))
	result.WriteString(fmt.Sprintf("Subject: %s\n\n", gmail.HeaderValue(msg, "Subject")))
	result.WriteString(body)

	return mcp.NewToolResultText(result.String()), nil
}

func handleArchiveEmails(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	messageIDs, err := batch.ParseEmailIDs(args["messageIds"], "messageIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, errResult := clientForAccount(ctx, sc, args)
	if errResult != nil {
		return errResult, nil
	}

	results := batch.Run(messageIDs, func(id string) (string, error) {
		if err := client.ArchiveMessage(id); err != nil {
			return "", err
		}
		return fmt.Sprintf("Message %s archived", id), nil
	})

	return mcp.NewToolResultText(batch.Format(results)), nil
}

func handleDraftReply(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	messageID, ok := args["messageId"].(string)
	if !ok || messageID == "" {
		return mcp.NewToolResultError("messageId is required"), nil
	}

	body, ok := args["body"].(string)
	if !ok || body == "" {
		return mcp.NewToolResultError("body is required"), nil
	}

	isHTML := false
	if v, ok := args["isHtml"].(bool); ok {
		isHTML = v
	}

	client, errResult := clientForAccount(ctx, sc, args)
	if errResult != nil {
		return errResult, nil
	}

	draftID, err := client.CreateDraftReply(messageID, body, isHTML)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create draft reply: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Draft reply created (draft ID: %s). Review and send it from Gmail.", draftID)), nil
}
