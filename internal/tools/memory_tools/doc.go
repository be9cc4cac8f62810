// Package memory_tools implements the MCP tools over the persistent note
// store: saving, reading, listing, and deleting notes the agent keeps
// between sessions.
package memory_tools
