package instrumentation

import (
	"context"
	"testing"
	"time"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
		TracingExporter: ExporterNone,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return provider
}

func TestMetrics_RecordGmailOperation(t *testing.T) {
	metrics := newTestProvider(t).Metrics()
	if metrics == nil {
		t.Fatal("expected metrics to be non-nil")
	}

	ctx := context.Background()

	// Should not panic
	metrics.RecordGmailOperation(ctx, "search", StatusSuccess, 120*time.Millisecond)
	metrics.RecordGmailOperation(ctx, "archive", StatusError, 40*time.Millisecond)
}

func TestMetrics_RecordTriageRun(t *testing.T) {
	metrics := newTestProvider(t).Metrics()
	ctx := context.Background()

	metrics.RecordTriageRun(ctx, StatusSuccess, 42, 3*time.Second)
	metrics.RecordTriageRun(ctx, StatusError, 0, 100*time.Millisecond)
}

func TestMetrics_RecordClassification(t *testing.T) {
	metrics := newTestProvider(t).Metrics()
	ctx := context.Background()

	metrics.RecordClassification(ctx, PassSnippet, "OTHER", StatusSuccess)
	metrics.RecordClassification(ctx, PassFull, "ACTION_REQUIRED", StatusSuccess)
	metrics.RecordClassification(ctx, PassFull, "", StatusError)
}

func TestMetrics_RecordToolInvocation(t *testing.T) {
	metrics := newTestProvider(t).Metrics()
	ctx := context.Background()

	metrics.RecordToolInvocation(ctx, "gmail_search_emails", StatusSuccess, 80*time.Millisecond)
	metrics.RecordToolInvocation(ctx, "triage_inbox", StatusError, 2*time.Second)
}

// Components hold *Metrics without nil checks, so a nil receiver and a
// zero-value instance must both be safe to call.
func TestMetrics_NilSafe(t *testing.T) {
	ctx := context.Background()

	var nilMetrics *Metrics
	nilMetrics.RecordGmailOperation(ctx, "search", StatusSuccess, time.Millisecond)
	nilMetrics.RecordTriageRun(ctx, StatusSuccess, 1, time.Millisecond)
	nilMetrics.RecordClassification(ctx, PassSnippet, "OTHER", StatusSuccess)
	nilMetrics.RecordToolInvocation(ctx, "memory_list", StatusSuccess, time.Millisecond)

	noop := &Metrics{}
	noop.RecordGmailOperation(ctx, "search", StatusSuccess, time.Millisecond)
	noop.RecordTriageRun(ctx, StatusSuccess, 1, time.Millisecond)
	noop.RecordClassification(ctx, PassSnippet, "OTHER", StatusSuccess)
	noop.RecordToolInvocation(ctx, "memory_list", StatusSuccess, time.Millisecond)
}
