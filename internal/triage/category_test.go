package triage

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	for _, c := range Categories {
		parsed, err := ParseCategory(string(c))
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}

	_, err := ParseCategory("NEWSLETTER")
	assert.Error(t, err)

	// Categories are case sensitive
	_, err = ParseCategory("action_required")
	assert.Error(t, err)
}

func TestValidateMetaSummary(t *testing.T) {
	tests := []struct {
		name     string
		category Category
		raw      string
		wantErr  bool
	}{
		{
			name:     "immediate archive takes a plain string",
			category: CategoryImmediateArchive,
			raw:      `"Promotional email from a shoe store"`,
			wantErr:  false,
		},
		{
			name:     "immediate archive rejects an object",
			category: CategoryImmediateArchive,
			raw:      `{"summary": "promo"}`,
			wantErr:  true,
		},
		{
			name:     "action required object shape",
			category: CategoryActionRequired,
			raw:      `{"subject": "Contract renewal", "people": ["alice@example.com"], "synopsis": "Renewal due Friday", "analysis": "Needs a signature before the deadline"}`,
			wantErr:  false,
		},
		{
			name:     "action required rejects a plain string",
			category: CategoryActionRequired,
			raw:      `"needs action"`,
			wantErr:  true,
		},
		{
			name:     "unknown field is rejected",
			category: CategoryActionRequired,
			raw:      `{"subject": "x", "people": [], "synopsis": "y", "analysis": "z", "extra": true}`,
			wantErr:  true,
		},
		{
			name:     "inform shape",
			category: CategorySummarizeAndInform,
			raw:      `{"source": "Tech Digest", "subject": "Weekly roundup", "key_insights": ["a", "b"]}`,
			wantErr:  false,
		},
		{
			name:     "events shape",
			category: CategorySummarizeEvents,
			raw:      `{"event": "Concert", "from": "venue@example.com", "what": "Live show", "where": "Downtown", "when": "Saturday 8pm"}`,
			wantErr:  false,
		},
		{
			name:     "purchases shape",
			category: CategorySummarizePurchases,
			raw:      `{"vendor": "Bookshop", "subject": "Order shipped", "update": "Arriving Tuesday"}`,
			wantErr:  false,
		},
		{
			name:     "unsubscribe shape",
			category: CategoryUnsubscribe,
			raw:      `{"sender": "deals@example.com", "recommendation": "Daily promos you never open"}`,
			wantErr:  false,
		},
		{
			name:     "other shape",
			category: CategoryOther,
			raw:      `{"subject": "Hi", "people": ["bob@example.com"], "synopsis": "Catch-up", "reason": "No clear action"}`,
			wantErr:  false,
		},
		{
			name:     "empty payload",
			category: CategoryOther,
			raw:      ``,
			wantErr:  true,
		},
		{
			name:     "trailing content",
			category: CategoryUnsubscribe,
			raw:      `{"sender": "a", "recommendation": "b"} garbage`,
			wantErr:  true,
		},
		{
			name:     "unknown category",
			category: Category("NEWSLETTER"),
			raw:      `{}`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMetaSummary(tt.category, json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
