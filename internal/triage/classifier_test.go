package triage

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inboxpilot/inboxpilot/internal/gmail"
)

func testEmail() gmail.EmailFull {
	return gmail.EmailFull{
		EmailSummary: gmail.EmailSummary{
			ID:      "msg-1",
			Subject: "Order shipped",
			From:    "shop@example.com",
			Date:    "Fri, 15 Mar 2024 9:00 AM UTC",
			Snippet: "Your order has shipped",
		},
		Body: "Your order #123 has shipped and arrives Tuesday.",
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "bare object",
			text: `{"category": "OTHER"}`,
			want: `{"category": "OTHER"}`,
		},
		{
			name: "object wrapped in prose",
			text: "Here is the classification:\n{\"category\": \"OTHER\"}\nLet me know.",
			want: `{"category": "OTHER"}`,
		},
		{
			name: "nested objects",
			text: `{"a": {"b": 1}, "c": 2}`,
			want: `{"a": {"b": 1}, "c": 2}`,
		},
		{
			name: "braces inside strings",
			text: `{"synopsis": "see {section 2} for details"}`,
			want: `{"synopsis": "see {section 2} for details"}`,
		},
		{
			name: "escaped quotes inside strings",
			text: `{"synopsis": "she said \"done\""}`,
			want: `{"synopsis": "she said \"done\""}`,
		},
		{
			name: "no object",
			text: "I cannot classify this email.",
			want: "",
		},
		{
			name: "unbalanced object",
			text: `{"category": "OTHER"`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.text))
		})
	}
}

func TestParseClassifierResponse(t *testing.T) {
	email := testEmail()

	t.Run("valid response", func(t *testing.T) {
		text := `{"category": "SUMMARIZE_PURCHASES", "confidence": 0.92, "meta_summary": {"vendor": "Bookshop", "subject": "Order shipped", "update": "Arriving Tuesday"}}`

		c, err := parseClassifierResponse(email, text)
		require.NoError(t, err)
		assert.Equal(t, "msg-1", c.EmailID)
		assert.Equal(t, CategorySummarizePurchases, c.Category)
		assert.Equal(t, 0.92, c.Confidence)
		assert.Equal(t, "shop@example.com", c.From)

		var meta PurchasesSummary
		require.NoError(t, json.Unmarshal(c.MetaSummary, &meta))
		assert.Equal(t, "Bookshop", meta.Vendor)
	})

	t.Run("low confidence reason carried through", func(t *testing.T) {
		text := `{"category": "OTHER", "confidence": 0.4, "meta_summary": {"subject": "x", "people": [], "synopsis": "y", "reason": "z"}, "reason_for_low_confidence": "snippet truncated mid-sentence"}`

		c, err := parseClassifierResponse(email, text)
		require.NoError(t, err)
		assert.Equal(t, "snippet truncated mid-sentence", c.ReasonForLowConfidence)
	})

	t.Run("unknown category rejected", func(t *testing.T) {
		text := `{"category": "SPAM", "confidence": 0.9, "meta_summary": "x"}`
		_, err := parseClassifierResponse(email, text)
		assert.Error(t, err)
	})

	t.Run("confidence out of range rejected", func(t *testing.T) {
		text := `{"category": "IMMEDIATE_ARCHIVE", "confidence": 1.2, "meta_summary": "promo"}`
		_, err := parseClassifierResponse(email, text)
		assert.Error(t, err)
	})

	t.Run("meta summary shape mismatch rejected", func(t *testing.T) {
		text := `{"category": "IMMEDIATE_ARCHIVE", "confidence": 0.9, "meta_summary": {"note": "promo"}}`
		_, err := parseClassifierResponse(email, text)
		assert.Error(t, err)
	})

	t.Run("no JSON in response", func(t *testing.T) {
		_, err := parseClassifierResponse(email, "sorry, I can't help with that")
		assert.Error(t, err)
	})
}

func TestFallbackClassification(t *testing.T) {
	email := testEmail().EmailSummary

	c := FallbackClassification(email, errors.New("model timed out"))

	assert.Equal(t, "msg-1", c.EmailID)
	assert.Equal(t, CategoryOther, c.Category)
	assert.Equal(t, fallbackConfidence, c.Confidence)
	assert.Equal(t, "model timed out", c.ReasonForLowConfidence)

	// The fallback meta summary must satisfy its own validation.
	require.NoError(t, ValidateMetaSummary(c.Category, c.MetaSummary))

	var meta OtherSummary
	require.NoError(t, json.Unmarshal(c.MetaSummary, &meta))
	assert.Equal(t, "model timed out", meta.Reason)
}
