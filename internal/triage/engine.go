package triage

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/inboxpilot/inboxpilot/internal/gmail"
	"github.com/inboxpilot/inboxpilot/internal/instrumentation"
	"github.com/inboxpilot/inboxpilot/internal/logging"
)

// SummarySource pages mailbox search results into bounded summary lists.
// Satisfied by *gmail.Pager.
type SummarySource interface {
	FetchSummaries(ctx context.Context, query string, cap int) ([]gmail.EmailSummary, error)
}

// BodySource fetches the decoded full body of one message. Satisfied by
// *gmail.Client.
type BodySource interface {
	GetMessageBody(messageID string) (string, error)
}

// Run limits. The hard ceiling bounds downstream model cost and context
// size; a caller-requested size above it is silently clamped, not rejected.
const (
	DefaultRunBatchSize = 200
	MaxRunBatchSize     = 300

	// ConfidenceThreshold gates the second pass: strictly below triggers a
	// full-body reclassification, exactly at the threshold does not.
	ConfidenceThreshold = 0.7
)

// RunOptions configures one triage run. Days and OlderThan are mutually
// exclusive mailbox windows; OlderThan wins when both are set.
type RunOptions struct {
	BatchSize int
	Days      int
	OlderThan time.Time
}

// RunSummary is what a run returns to the caller: aggregate counts and a
// human-readable digest. The full classification payload is never returned
// synchronously; it is read back in bounded batches via the BatchReader.
type RunSummary struct {
	TotalEmails int              `json:"total_emails"`
	ByCategory  map[Category]int `json:"by_category"`
	Message     string           `json:"message"`
}

// Engine orchestrates the triage pipeline: page through the mailbox,
// classify on snippets, reclassify low-confidence results on full bodies,
// merge into the pending store, and report aggregate counts.
type Engine struct {
	pager      SummarySource
	bodies     BodySource
	classifier Classifier
	store      *PendingStore
	queries    *gmail.QueryBuilder
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEngineLogger sets the engine's logger.
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithEngineMetrics attaches a metrics recorder to the engine.
func WithEngineMetrics(m *instrumentation.Metrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithEngineQueryBuilder overrides the query builder, mainly to pin the
// clock in tests.
func WithEngineQueryBuilder(qb *gmail.QueryBuilder) EngineOption {
	return func(e *Engine) {
		if qb != nil {
			e.queries = qb
		}
	}
}

// NewEngine wires a triage engine from its collaborators.
func NewEngine(pager SummarySource, bodies BodySource, classifier Classifier, store *PendingStore, opts ...EngineOption) *Engine {
	e := &Engine{
		pager:      pager,
		bodies:     bodies,
		classifier: classifier,
		store:      store,
		queries:    gmail.NewQueryBuilder(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes one triage pass over the mailbox window described by opts.
//
// Every fetched email produces exactly one classification: model failures
// degrade to the OTHER/0.3 fallback and full-body refetch failures retain
// the pass-1 result, so the run never reports success while silently
// dropping emails. Only the top-level search failure aborts the run.
func (e *Engine) Run(ctx context.Context, opts RunOptions) (*RunSummary, error) {
	start := time.Now()

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultRunBatchSize
	}
	if batchSize > MaxRunBatchSize {
		batchSize = MaxRunBatchSize
	}

	query := e.queries.BuildForWindow(opts.Days, opts.OlderThan)
	e.logger.Info("starting triage run", "query", query, "batch_size", batchSize)

	emails, err := e.pager.FetchSummaries(ctx, query, batchSize)
	if err != nil {
		e.metrics.RecordTriageRun(ctx, instrumentation.StatusError, 0, time.Since(start))
		return nil, fmt.Errorf("failed to fetch emails: %w", err)
	}

	// Pass 1: classify every email on its snippet alone.
	classifications := make([]Classification, 0, len(emails))
	for _, email := range emails {
		classifications = append(classifications, e.classifyOne(ctx, gmail.EmailFull{EmailSummary: email}, true))
	}

	// Select the results the snippet pass was unsure about. Strictly below
	// the threshold: a 0.7 result stands.
	var lowConfidence []int
	for i, c := range classifications {
		if c.Confidence < ConfidenceThreshold {
			lowConfidence = append(lowConfidence, i)
		}
	}
	e.logger.Info("snippet pass complete",
		"emails", len(classifications), "low_confidence", len(lowConfidence))

	// Pass 2: refetch full bodies for the unsure subset and reclassify.
	// The new result replaces the pass-1 result wholesale; any failure along
	// the way retains the pass-1 result unchanged.
	for _, i := range lowConfidence {
		email := emails[i]
		body, err := e.bodies.GetMessageBody(email.ID)
		if err != nil {
			e.logger.Warn("full-body fetch failed, keeping snippet classification",
				logging.EmailHash(email.From), logging.Err(err))
			continue
		}

		full := gmail.EmailFull{EmailSummary: email, Body: body}
		reclassified, err := e.classifier.Classify(ctx, full, false)
		if err != nil {
			e.logger.Warn("full-body reclassification failed, keeping snippet classification",
				logging.EmailHash(email.From), logging.Err(err))
			e.recordClassification(ctx, "full_body", "", instrumentation.StatusError)
			continue
		}
		e.recordClassification(ctx, "full_body", string(reclassified.Category), instrumentation.StatusSuccess)
		classifications[i] = reclassified
	}

	if err := e.store.Merge(classifications); err != nil {
		e.metrics.RecordTriageRun(ctx, instrumentation.StatusError, len(classifications), time.Since(start))
		return nil, fmt.Errorf("failed to persist classifications: %w", err)
	}

	summary := summarize(classifications)
	e.metrics.RecordTriageRun(ctx, instrumentation.StatusSuccess, summary.TotalEmails, time.Since(start))
	e.logger.Info("triage run complete",
		"emails", summary.TotalEmails, "duration", time.Since(start))
	return summary, nil
}

// classifyOne performs a snippet-pass classification, converting any failure
// into the terminal OTHER/0.3 fallback at this boundary so callers see a
// plain value per email.
func (e *Engine) classifyOne(ctx context.Context, email gmail.EmailFull, snippetOnly bool) Classification {
	c, err := e.classifier.Classify(ctx, email, snippetOnly)
	if err != nil {
		e.logger.Warn("classification failed, falling back to OTHER",
			logging.EmailHash(email.From), logging.Err(err))
		e.recordClassification(ctx, "snippet", string(CategoryOther), instrumentation.StatusError)
		return FallbackClassification(email.EmailSummary, err)
	}
	e.recordClassification(ctx, "snippet", string(c.Category), instrumentation.StatusSuccess)
	return c
}

func (e *Engine) recordClassification(ctx context.Context, pass, category, status string) {
	e.metrics.RecordClassification(ctx, pass, category, status)
}

// summarize computes the aggregate counts and renders the digest returned to
// the calling agent.
func summarize(classifications []Classification) *RunSummary {
	byCategory := make(map[Category]int)
	for _, c := range classifications {
		byCategory[c.Category]++
	}

	parts := make([]string, 0, len(byCategory))
	for _, cat := range Categories {
		if n := byCategory[cat]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", cat, n))
		}
	}
	sort.Strings(parts)

	msg := fmt.Sprintf("Triaged %d emails", len(classifications))
	if len(parts) > 0 {
		msg += ": " + strings.Join(parts, ", ")
	}

	return &RunSummary{
		TotalEmails: len(classifications),
		ByCategory:  byCategory,
		Message:     msg,
	}
}
