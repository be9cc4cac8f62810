// Package gmail provides a client for interacting with the Gmail API.
//
// This package offers the mailbox operations the assistant needs:
//   - Paged message search with a structured query builder
//   - Per-message metadata and full-body retrieval with base64url decoding
//   - Archiving and read-state changes
//   - Threaded draft replies (RFC 2822 headers, RFC 2047 subjects)
//   - Unsubscribe link detection via the List-Unsubscribe header
//
// The Pager combines search and metadata fetches into a bounded, ordered
// list of EmailSummary values for the triage pipeline, normalizing dates
// into a fixed display timezone.
//
// Authentication uses the per-account Google OAuth token from the google
// package; tokens are loaded from the file system (~/.cache/inboxpilot/).
//
// Example usage:
//
//	ctx := context.Background()
//	client, err := gmail.NewClient(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	query := gmail.NewQueryBuilder().Build(gmail.Filters{TimeRange: "today"})
//	pager := gmail.NewPager(client)
//	emails, err := pager.FetchSummaries(ctx, query, 100)
//	if err != nil {
//	    log.Fatal(err)
//	}
package gmail
