package gmail

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Filters describes a structured set of Gmail search criteria. All fields are
// optional; an empty Filters produces the universal inbox query.
type Filters struct {
	Query         string // raw Gmail query fragment, passed through as-is
	TimeRange     string // "today", "yesterday", "last week", "last month", "last 3 days", or "<N>d"
	From          string
	To            string
	Subject       string
	Label         string
	UnreadOnly    bool
	HasAttachment bool
}

// QueryBuilder translates Filters into a Gmail search-query string. It
// performs no I/O; the clock is injected so that time-range terms are
// deterministic in tests.
type QueryBuilder struct {
	now func() time.Time
}

// NewQueryBuilder returns a QueryBuilder using the real clock.
func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{now: time.Now}
}

// NewQueryBuilderAt returns a QueryBuilder pinned to the given clock.
func NewQueryBuilderAt(now func() time.Time) *QueryBuilder {
	return &QueryBuilder{now: now}
}

const gmailDateFormat = "2006/01/02"

// Build joins the filter terms into a Gmail search query. When no filter is
// supplied it falls back to "in:inbox" so that callers always get a valid
// query.
func (b *QueryBuilder) Build(f Filters) string {
	var terms []string

	if f.Query != "" {
		terms = append(terms, f.Query)
	}
	if f.TimeRange != "" {
		terms = append(terms, b.timeRangeTerms(f.TimeRange)...)
	}
	if f.From != "" {
		terms = append(terms, "from:"+f.From)
	}
	if f.To != "" {
		terms = append(terms, "to:"+f.To)
	}
	if f.Subject != "" {
		terms = append(terms, "subject:"+f.Subject)
	}
	if f.Label != "" {
		terms = append(terms, "label:"+f.Label)
	}
	if f.UnreadOnly {
		terms = append(terms, "is:unread")
	}
	if f.HasAttachment {
		terms = append(terms, "has:attachment")
	}

	if len(terms) == 0 {
		return "in:inbox"
	}
	return strings.Join(terms, " ")
}

// BuildForWindow builds a query for a triage run: either a relative day-count
// window or an explicit older-than boundary. When both are given, olderThan
// wins.
func (b *QueryBuilder) BuildForWindow(days int, olderThan time.Time) string {
	if !olderThan.IsZero() {
		return fmt.Sprintf("in:inbox before:%s", olderThan.Format(gmailDateFormat))
	}
	if days <= 0 {
		days = 1
	}
	return fmt.Sprintf("in:inbox newer_than:%dd", days)
}

// timeRangeTerms converts a time-range token into Gmail after:/before: terms.
// "yesterday" is the only token needing a closed interval; everything else is
// a lower bound. Unrecognized tokens fall back to a 7-day lower bound.
func (b *QueryBuilder) timeRangeTerms(token string) []string {
	now := b.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch strings.ToLower(strings.TrimSpace(token)) {
	case "today":
		return []string{"after:" + today.Format(gmailDateFormat)}
	case "yesterday":
		yesterday := today.AddDate(0, 0, -1)
		return []string{
			"after:" + yesterday.Format(gmailDateFormat),
			"before:" + today.Format(gmailDateFormat),
		}
	case "last week":
		return []string{"after:" + today.AddDate(0, 0, -7).Format(gmailDateFormat)}
	case "last month":
		return []string{"after:" + today.AddDate(0, -1, 0).Format(gmailDateFormat)}
	case "last 3 days":
		return []string{"after:" + today.AddDate(0, 0, -3).Format(gmailDateFormat)}
	}

	if days, ok := parseDayToken(token); ok {
		return []string{"after:" + today.AddDate(0, 0, -days).Format(gmailDateFormat)}
	}

	// Unknown token: default to the last 7 days rather than an unbounded scan.
	return []string{"after:" + today.AddDate(0, 0, -7).Format(gmailDateFormat)}
}

// parseDayToken parses tokens of the form "<N>d", e.g. "14d".
func parseDayToken(token string) (int, bool) {
	token = strings.TrimSpace(token)
	if len(token) < 2 || !strings.HasSuffix(token, "d") {
		return 0, false
	}
	n, err := strconv.Atoi(token[:len(token)-1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
