// Package triage_tools implements the MCP tools around the triage pipeline:
// triage_inbox runs the two-pass classification over recent inbox emails and
// triage_get_batch pages through the persisted results one category at a
// time so the agent works in small chunks.
package triage_tools
