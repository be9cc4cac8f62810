// Package server provides the MCP server context, health checks, and the
// dedicated Prometheus metrics server for the inboxpilot application.
//
// ServerContext manages per-account Gmail clients with lazy initialization
// and caching, and holds the shared classifier, pending triage store, and
// memory store used by the MCP tools. EngineForAccount wires these together
// into a triage engine bound to one account.
//
// MetricsServer exposes /metrics on its own port so operational metrics are
// isolated from the MCP transport. HealthChecker serves /healthz and /readyz
// for liveness and readiness probes.
package server
