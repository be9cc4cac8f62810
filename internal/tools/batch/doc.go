// Package batch provides helpers for MCP tools that operate on multiple
// emails at once, such as archiving or unsubscribing. It parses arguments
// that accept a single message ID or an array of IDs, runs the operation per
// email with partial-failure semantics, and formats the aggregated results.
package batch
