package gmail

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/inboxpilot/inboxpilot/internal/logging"
)

// MessageSource is the subset of the Gmail client the pager depends on.
// Declared here so tests and the triage engine can substitute fakes.
type MessageSource interface {
	SearchMessages(query string, pageSize int64, pageToken string) (*SearchPage, error)
	GetMetadata(id string, headerNames []string) (*gmailapi.Message, error)
}

// summaryHeaders are the metadata headers fetched for every listed message.
var summaryHeaders = []string{"Subject", "From", "Date", "To"}

// Pager iterates a message-search result set page by page, fetching
// per-message metadata and yielding a flat ordered list bounded by a
// caller-supplied cap.
type Pager struct {
	src    MessageSource
	loc    *time.Location
	logger *slog.Logger
}

// PagerOption configures a Pager.
type PagerOption func(*Pager)

// WithLocation sets the display timezone for normalized dates.
func WithLocation(loc *time.Location) PagerOption {
	return func(p *Pager) {
		if loc != nil {
			p.loc = loc
		}
	}
}

// WithLogger sets the logger used for per-message fetch failures.
func WithLogger(logger *slog.Logger) PagerOption {
	return func(p *Pager) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPager creates a Pager over the given message source. Dates are rendered
// in the local timezone unless overridden with WithLocation.
func NewPager(src MessageSource, opts ...PagerOption) *Pager {
	p := &Pager{
		src:    src,
		loc:    time.Local,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FetchSummaries pages through the search results for query, stopping when
// the provider reports no further pages or the accumulated count reaches cap.
// Results preserve the provider's most-recent-first ordering.
//
// A failure fetching one message's metadata skips that message only; the
// pager surfaces partial results rather than failing the whole page. A
// failure of the search call itself is fatal.
func (p *Pager) FetchSummaries(ctx context.Context, query string, cap int) ([]EmailSummary, error) {
	if cap <= 0 {
		return nil, nil
	}

	var summaries []EmailSummary
	pageToken := ""

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		remaining := int64(cap - len(summaries))
		if remaining <= 0 {
			break
		}

		page, err := p.src.SearchMessages(query, remaining, pageToken)
		if err != nil {
			return nil, fmt.Errorf("message search failed: %w", err)
		}

		for _, id := range page.IDs {
			if len(summaries) >= cap {
				break
			}
			summary, err := p.fetchSummary(id)
			if err != nil {
				p.logger.Warn("skipping message with failed metadata fetch",
					"message_id", id, logging.Err(err))
				continue
			}
			summaries = append(summaries, summary)
		}

		if page.NextPageToken == "" || len(summaries) >= cap {
			break
		}
		pageToken = page.NextPageToken
	}

	return summaries, nil
}

// fetchSummary performs the follow-up metadata fetch for a single message.
func (p *Pager) fetchSummary(id string) (EmailSummary, error) {
	msg, err := p.src.GetMetadata(id, summaryHeaders)
	if err != nil {
		return EmailSummary{}, err
	}
	return EmailSummary{
		ID:      id,
		Subject: HeaderValue(msg, "Subject"),
		From:    HeaderValue(msg, "From"),
		Date:    p.normalizeDate(HeaderValue(msg, "Date")),
		To:      HeaderValue(msg, "To"),
		Snippet: msg.Snippet,
	}, nil
}

// displayDateFormat renders dates with a DST-aware zone abbreviation
// (PST vs PDT and so on).
const displayDateFormat = "Mon, 02 Jan 2006 3:04 PM MST"

// normalizeDate converts an RFC 2822 Date header into the display timezone.
// Unparsable dates are passed through unchanged; a raw date is more useful
// than an empty one.
func (p *Pager) normalizeDate(raw string) string {
	if raw == "" {
		return ""
	}
	t, err := mail.ParseDate(raw)
	if err != nil {
		return raw
	}
	return t.In(p.loc).Format(displayDateFormat)
}
