package triage_tools

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inboxpilot/inboxpilot/internal/gmail"
	"github.com/inboxpilot/inboxpilot/internal/memory"
	"github.com/inboxpilot/inboxpilot/internal/server"
	"github.com/inboxpilot/inboxpilot/internal/triage"
)

func newTestServerContext(t *testing.T) (*server.ServerContext, *triage.PendingStore) {
	t.Helper()

	dir := t.TempDir()
	store := triage.NewPendingStore(filepath.Join(dir, "pending.json"), slog.Default())
	mem, err := memory.NewStore(filepath.Join(dir, "memory"))
	require.NoError(t, err)

	sc, err := server.NewServerContext(context.Background(), store, mem)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc, store
}

func requestWith(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{input: "2024/03/15", want: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{input: "2024-03-15", want: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{input: "15/03/2024", wantErr: true},
		{input: "yesterday", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseDate(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "parseDate(%q) = %v, want %v", tt.input, got, tt.want)
		})
	}
}

func TestCategoryList(t *testing.T) {
	list := categoryList()
	for _, c := range triage.Categories {
		assert.Contains(t, list, string(c))
	}
}

func TestHandleTriageInbox_RequiresClassifier(t *testing.T) {
	sc, _ := newTestServerContext(t)

	result, err := handleTriageInbox(context.Background(), requestWith("triage_inbox", nil), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "ANTHROPIC_API_KEY")
}

func TestHandleTriageInbox_RequiresGmailAccess(t *testing.T) {
	dir := t.TempDir()
	store := triage.NewPendingStore(filepath.Join(dir, "pending.json"), slog.Default())
	mem, err := memory.NewStore(filepath.Join(dir, "memory"))
	require.NoError(t, err)

	sc, err := server.NewServerContext(context.Background(), store, mem,
		server.WithClassifier(stubClassifier{}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	result, err := handleTriageInbox(context.Background(), requestWith("triage_inbox", map[string]interface{}{
		"account": "nonexistent",
	}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "No Gmail access")
}

type stubClassifier struct{}

func (stubClassifier) Classify(_ context.Context, email gmail.EmailFull, _ bool) (triage.Classification, error) {
	return triage.Classification{}, errors.New("not used")
}

func TestHandleGetBatch(t *testing.T) {
	sc, store := newTestServerContext(t)

	classifications := make([]triage.Classification, 8)
	for i := range classifications {
		classifications[i] = triage.FallbackClassification(gmail.EmailSummary{
			ID:      "msg-" + string(rune('a'+i)),
			Subject: "subject",
			From:    "sender@example.com",
		}, nil)
	}
	require.NoError(t, store.Merge(classifications))

	t.Run("first page", func(t *testing.T) {
		result, err := handleGetBatch(context.Background(), requestWith("triage_get_batch", map[string]interface{}{
			"category": "OTHER",
			"limit":    float64(5),
		}), sc)
		require.NoError(t, err)
		assert.False(t, result.IsError)

		var batch triage.Batch
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &batch))
		assert.Len(t, batch.Emails, 5)
		assert.True(t, batch.HasMore)
		assert.Equal(t, 5, batch.NextOffset)
	})

	t.Run("missing category", func(t *testing.T) {
		result, err := handleGetBatch(context.Background(), requestWith("triage_get_batch", nil), sc)
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "category is required")
	})

	t.Run("unknown category", func(t *testing.T) {
		result, err := handleGetBatch(context.Background(), requestWith("triage_get_batch", map[string]interface{}{
			"category": "NEWSLETTER",
		}), sc)
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})
}
