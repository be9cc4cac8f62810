package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
const (
	attrStatus    = "status"
	attrOperation = "operation"
	attrTool      = "tool"
	attrCategory  = "category"
	attrPass      = "pass"
)

// Metrics records the domain counters and histograms. A nil *Metrics is
// valid and records nothing, so callers never need to guard their
// recording calls.
type Metrics struct {
	// Gmail API metrics
	gmailOperationsTotal   metric.Int64Counter
	gmailOperationDuration metric.Float64Histogram

	// Triage metrics
	triageRunsTotal      metric.Int64Counter
	triageRunDuration    metric.Float64Histogram
	triageEmailsTotal    metric.Int64Counter
	classificationsTotal metric.Int64Counter

	// MCP tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram
}

// NewMetrics registers all instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.gmailOperationsTotal, err = meter.Int64Counter(
		"gmail_operations_total",
		metric.WithDescription("Total number of Gmail API operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail_operations_total counter: %w", err)
	}

	m.gmailOperationDuration, err = meter.Float64Histogram(
		"gmail_operation_duration_seconds",
		metric.WithDescription("Gmail API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail_operation_duration_seconds histogram: %w", err)
	}

	m.triageRunsTotal, err = meter.Int64Counter(
		"triage_runs_total",
		metric.WithDescription("Total number of triage runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create triage_runs_total counter: %w", err)
	}

	m.triageRunDuration, err = meter.Float64Histogram(
		"triage_run_duration_seconds",
		metric.WithDescription("Triage run duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1.0, 5.0, 15.0, 30.0, 60.0, 120.0, 300.0, 600.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create triage_run_duration_seconds histogram: %w", err)
	}

	m.triageEmailsTotal, err = meter.Int64Counter(
		"triage_emails_total",
		metric.WithDescription("Total number of emails processed by triage runs"),
		metric.WithUnit("{email}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create triage_emails_total counter: %w", err)
	}

	m.classificationsTotal, err = meter.Int64Counter(
		"classifications_total",
		metric.WithDescription("Total number of email classifications by pass and category"),
		metric.WithUnit("{classification}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create classifications_total counter: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordGmailOperation counts a Gmail API call and its latency. The operation
// label is the call type (search, get, archive, draft) and status is
// "success" or "error".
func (m *Metrics) RecordGmailOperation(ctx context.Context, operation, status string, duration time.Duration) {
	if m == nil || m.gmailOperationsTotal == nil || m.gmailOperationDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}

	m.gmailOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.gmailOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordTriageRun records a completed triage run with its status, the number
// of emails processed, and the total duration.
func (m *Metrics) RecordTriageRun(ctx context.Context, status string, emails int, duration time.Duration) {
	if m == nil || m.triageRunsTotal == nil || m.triageRunDuration == nil || m.triageEmailsTotal == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrStatus, status),
	}

	m.triageRunsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.triageRunDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.triageEmailsTotal.Add(ctx, int64(emails), metric.WithAttributes(attrs...))
}

// RecordClassification counts a single email classification, labelled by the
// pass that produced it (snippet or full_body), the assigned category, and
// the result status.
func (m *Metrics) RecordClassification(ctx context.Context, pass, category, status string) {
	if m == nil || m.classificationsTotal == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrPass, pass),
		attribute.String(attrCategory, category),
		attribute.String(attrStatus, status),
	}

	m.classificationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordToolInvocation records an MCP tool invocation with tool name, status,
// and duration.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}
