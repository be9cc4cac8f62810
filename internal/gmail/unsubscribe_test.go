package gmail

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseListUnsubscribe(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected []UnsubscribeMethod
	}{
		{
			name:   "single mailto",
			header: "<mailto:unsubscribe@example.com>",
			expected: []UnsubscribeMethod{
				{Type: "mailto", URL: "mailto:unsubscribe@example.com"},
			},
		},
		{
			name:   "single http",
			header: "<https://example.com/unsubscribe>",
			expected: []UnsubscribeMethod{
				{Type: "http", URL: "https://example.com/unsubscribe"},
			},
		},
		{
			name:   "mailto with subject",
			header: "<mailto:unsubscribe@example.com?subject=unsubscribe>",
			expected: []UnsubscribeMethod{
				{Type: "mailto", URL: "mailto:unsubscribe@example.com?subject=unsubscribe"},
			},
		},
		{
			name:   "multiple methods",
			header: "<mailto:unsubscribe@example.com>, <https://example.com/unsubscribe>",
			expected: []UnsubscribeMethod{
				{Type: "mailto", URL: "mailto:unsubscribe@example.com"},
				{Type: "http", URL: "https://example.com/unsubscribe"},
			},
		},
		{
			name:     "empty header",
			header:   "",
			expected: nil,
		},
		{
			name:     "unknown scheme is ignored",
			header:   "<ftp://example.com/unsubscribe>",
			expected: nil,
		},
		{
			name:     "malformed entry without closing bracket",
			header:   "<https://example.com/unsubscribe",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseListUnsubscribe(tt.header))
		})
	}
}

func TestUnsubscribeViaHTTP_RejectsNonHTTPURL(t *testing.T) {
	c := &Client{}
	err := c.UnsubscribeViaHTTP("mailto:unsubscribe@example.com")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP URL")
}
