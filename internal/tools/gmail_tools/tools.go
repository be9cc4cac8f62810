package gmail_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/inboxpilot/inboxpilot/internal/gmail"
	"github.com/inboxpilot/inboxpilot/internal/server"
	"github.com/inboxpilot/inboxpilot/internal/tools/common"
)

// RegisterGmailTools registers all Gmail-related tools with the MCP server.
// Write operations (archive, draft, unsubscribe) are skipped when readOnly
// is true.
func RegisterGmailTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	searchTool := mcp.NewTool("gmail_search_emails",
		mcp.WithDescription("Search Gmail and return email summaries (id, subject, from, date, snippet). Accepts a raw Gmail query or structured filters."),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("query",
			mcp.Description("Raw Gmail search query (e.g., 'from:billing@example.com is:unread'). Combined with the structured filters below."),
		),
		mcp.WithString("timeRange",
			mcp.Description("Natural time window: 'today', 'yesterday', 'last week', 'last month', or 'Nd' for N days"),
		),
		mcp.WithString("from",
			mcp.Description("Sender address or domain"),
		),
		mcp.WithString("to",
			mcp.Description("Recipient address"),
		),
		mcp.WithString("subject",
			mcp.Description("Words that must appear in the subject"),
		),
		mcp.WithString("label",
			mcp.Description("Gmail label to filter on"),
		),
		mcp.WithBoolean("unreadOnly",
			mcp.Description("Only return unread emails"),
		),
		mcp.WithBoolean("hasAttachment",
			mcp.Description("Only return emails with attachments"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of results to return (default: 25)"),
		),
	)
	s.AddTool(searchTool, common.InstrumentedToolHandlerWithOperation("gmail_search_emails", "search", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSearchEmails(ctx, request, sc)
		}))

	readTool := mcp.NewTool("gmail_read_email",
		mcp.WithDescription("Read a single email including its full decoded body"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("messageId",
			mcp.Required(),
			mcp.Description("The ID of the message to read"),
		),
	)
	s.AddTool(readTool, common.InstrumentedToolHandlerWithOperation("gmail_read_email", "get", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleReadEmail(ctx, request, sc)
		}))

	if !readOnly {
		archiveTool := mcp.NewTool("gmail_archive_emails",
			mcp.WithDescription("Archive one or more emails by removing them from the inbox"),
			mcp.WithString("account",
				mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
			),
			mcp.WithString("messageIds",
				mcp.Required(),
				mcp.Description("Message ID (string) or array of message IDs to archive"),
			),
		)
		s.AddTool(archiveTool, common.InstrumentedToolHandlerWithOperation("gmail_archive_emails", "archive", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleArchiveEmails(ctx, request, sc)
			}))

		draftTool := mcp.NewTool("gmail_draft_reply",
			mcp.WithDescription("Create a Gmail draft reply threaded onto the original message. The draft is never sent automatically."),
			mcp.WithString("account",
				mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
			),
			mcp.WithString("messageId",
				mcp.Required(),
				mcp.Description("The ID of the message to reply to"),
			),
			mcp.WithString("body",
				mcp.Required(),
				mcp.Description("The reply body"),
			),
			mcp.WithBoolean("isHtml",
				mcp.Description("Whether the body is HTML (default: false, plain text)"),
			),
		)
		s.AddTool(draftTool, common.InstrumentedToolHandlerWithOperation("gmail_draft_reply", "draft", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleDraftReply(ctx, request, sc)
			}))

		unsubscribeTool := mcp.NewTool("gmail_unsubscribe",
			mcp.WithDescription("Unsubscribe from the sender of an email using its List-Unsubscribe header. Performs the HTTP method when available, otherwise reports the mailto target."),
			mcp.WithString("account",
				mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
			),
			mcp.WithString("messageId",
				mcp.Required(),
				mcp.Description("The ID of the message to unsubscribe from"),
			),
		)
		s.AddTool(unsubscribeTool, common.InstrumentedToolHandlerWithOperation("gmail_unsubscribe", "unsubscribe", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleUnsubscribe(ctx, request, sc)
			}))
	}

	return nil
}

// clientForAccount resolves the Gmail client for the account named in args,
// creating it on first use. When no token exists it returns an error result
// explaining how to authorize.
func clientForAccount(ctx context.Context, sc *server.ServerContext, args map[string]interface{}) (*gmail.Client, *mcp.CallToolResult) {
	account := common.GetAccountFromArgs(args)

	client := sc.GmailClientForAccount(account)
	if client != nil {
		return client, nil
	}

	if !gmail.HasTokenForAccount(account) {
		authURL := gmail.GetAuthURLForAccount(account)
		errorMsg := fmt.Sprintf(`Google OAuth token not found for account "%s". To authorize access:

1. Visit this URL in your browser:
   %s

2. Sign in with your Google account
3. Grant access to Gmail
4. Copy the authorization code

5. Provide the authorization code to your AI agent
   The agent will use the google_save_auth_code tool with account="%s" to complete authentication.

Note: You only need to authorize once. The tokens will be automatically refreshed.`, account, authURL, account)
		return nil, mcp.NewToolResultError(errorMsg)
	}

	client, err := gmail.NewClientForAccount(ctx, account)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("Failed to create Gmail client for account %s: %v", account, err))
	}
	sc.SetGmailClientForAccount(account, client)
	return client, nil
}
