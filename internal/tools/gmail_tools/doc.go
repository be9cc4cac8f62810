// Package gmail_tools implements the Gmail-facing MCP tools: searching and
// reading emails, archiving, drafting replies, and unsubscribing from
// senders. Write operations are only registered when the server is not in
// read-only mode.
package gmail_tools
