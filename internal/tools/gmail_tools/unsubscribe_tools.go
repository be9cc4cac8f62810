package gmail_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/inboxpilot/inboxpilot/internal/server"
)

func handleUnsubscribe(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	messageID, ok := args["messageId"].(string)
	if !ok || messageID == "" {
		return mcp.NewToolResultError("messageId is required"), nil
	}

	client, errResult := clientForAccount(ctx, sc, args)
	if errResult != nil {
		return errResult, nil
	}

	info, err := client.GetUnsubscribeInfo(messageID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get unsubscribe info: %v", err)), nil
	}

	if !info.HasUnsubscribe {
		return mcp.NewToolResultText("This message does not contain unsubscribe information (no List-Unsubscribe header found)."), nil
	}

	// Prefer the HTTP method so the agent can complete the unsubscribe in
	// one step. Mailto methods are reported for the agent to follow up on.
	for _, method := range info.Methods {
		if method.Type != "http" {
			continue
		}
		if err := client.UnsubscribeViaHTTP(method.URL); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Unsubscribe request to %s failed: %v", method.URL, err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Unsubscribed via %s. The sender may take a few days to stop sending.", method.URL)), nil
	}

	var result strings.Builder
	result.WriteString("No HTTP unsubscribe method found. Available methods:\n")
	for _, method := range info.Methods {
		result.WriteString(fmt.Sprintf("- %s: %s\n", method.Type, method.URL))
	}
	result.WriteString("\nFor mailto methods, draft an email to the address to unsubscribe.")

	return mcp.NewToolResultText(result.String()), nil
}
