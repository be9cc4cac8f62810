// Package instrumentation provides OpenTelemetry instrumentation for the
// inboxpilot MCP server.
//
// This package enables production-grade observability through:
//   - OpenTelemetry metrics for Gmail API calls, triage runs, and MCP tools
//   - Distributed tracing for triage pipeline flows and API calls
//   - Prometheus metrics export via /metrics endpoint on dedicated port
//   - OTLP export support for modern observability platforms
//
// # Metrics
//
// The package exposes the following metric categories:
//
// Gmail API Metrics:
//   - gmail_operations_total: Counter of Gmail API operations by operation and status
//   - gmail_operation_duration_seconds: Histogram of Gmail API operation durations
//
// Triage Metrics:
//   - triage_runs_total: Counter of triage runs by status
//   - triage_run_duration_seconds: Histogram of triage run durations
//   - triage_emails_total: Counter of emails processed by triage runs
//   - classifications_total: Counter of classifications by pass, category, and status
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// # Configuration
//
// Instrumentation is configured through environment variables; see
// DefaultConfig for the full list. Set INSTRUMENTATION_ENABLED=false to
// disable all telemetry, in which case a no-op Metrics recorder is returned
// and all recording calls become cheap no-ops.
package instrumentation
