// Package cmd implements the command-line interface for inboxpilot.
//
// This package provides the following commands:
//   - serve: Start the MCP server to provide tools for AI assistants
//   - triage: Run a one-shot triage over recent inbox emails
//   - version: Display version information
//
// The serve command is the default command when no subcommand is specified.
package cmd
