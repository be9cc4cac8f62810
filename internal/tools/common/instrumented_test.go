package common

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inboxpilot/inboxpilot/internal/memory"
	"github.com/inboxpilot/inboxpilot/internal/server"
	"github.com/inboxpilot/inboxpilot/internal/triage"
)

func newTestServerContext(t *testing.T) *server.ServerContext {
	t.Helper()

	dir := t.TempDir()
	store := triage.NewPendingStore(filepath.Join(dir, "pending.json"), slog.Default())
	mem, err := memory.NewStore(filepath.Join(dir, "memory"))
	require.NoError(t, err)

	sc, err := server.NewServerContext(context.Background(), store, mem)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestInstrumentedToolHandler_PassesThroughResult(t *testing.T) {
	sc := newTestServerContext(t)

	called := false
	handler := InstrumentedToolHandler("test_tool", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		called = true
		return mcp.NewToolResultText("done"), nil
	})

	result, err := handler(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, called)
	assert.False(t, result.IsError)
}

func TestInstrumentedToolHandler_PropagatesErrors(t *testing.T) {
	sc := newTestServerContext(t)

	wantErr := errors.New("handler failed")
	handler := InstrumentedToolHandler("test_tool", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, wantErr
	})

	result, err := handler(context.Background(), mcp.CallToolRequest{})
	assert.Nil(t, result)
	assert.Equal(t, wantErr, err)
}

func TestInstrumentedToolHandlerWithOperation_PassesThrough(t *testing.T) {
	sc := newTestServerContext(t)

	handler := InstrumentedToolHandlerWithOperation("gmail_search_emails", "search", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultError("bad input"), nil
	})

	result, err := handler(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
