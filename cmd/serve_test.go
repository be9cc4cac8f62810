package cmd

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/inboxpilot/inboxpilot/internal/memory"
	"github.com/inboxpilot/inboxpilot/internal/server"
)

func newTestServerContext(t *testing.T) *server.ServerContext {
	t.Helper()

	dir := t.TempDir()
	store, err := newPendingStore(filepath.Join(dir, "pending_summaries.json"), slog.Default())
	if err != nil {
		t.Fatalf("newPendingStore() error = %v", err)
	}
	mem, err := memory.NewStore(filepath.Join(dir, "memory"))
	if err != nil {
		t.Fatalf("memory.NewStore() error = %v", err)
	}

	sc, err := server.NewServerContext(context.Background(), store, mem)
	if err != nil {
		t.Fatalf("NewServerContext() error = %v", err)
	}
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestRegisterAllTools(t *testing.T) {
	sc := newTestServerContext(t)

	t.Run("read-only", func(t *testing.T) {
		srv := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithToolCapabilities(true))
		if err := registerAllTools(srv, sc, true); err != nil {
			t.Fatalf("registerAllTools() error = %v", err)
		}
	})

	t.Run("write mode", func(t *testing.T) {
		srv := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithToolCapabilities(true))
		if err := registerAllTools(srv, sc, false); err != nil {
			t.Fatalf("registerAllTools() error = %v", err)
		}
	})
}

func TestNewServeCmd_FlagDefaults(t *testing.T) {
	cmd := newServeCmd()

	tests := []struct {
		flag string
		want string
	}{
		{"transport", "stdio"},
		{"http-addr", ":8080"},
		{"yolo", "false"},
		{"pending-file", ""},
		{"memory-dir", ""},
		{"model", ""},
		{"metrics-enabled", "false"},
		{"metrics-addr", server.DefaultMetricsAddr},
	}

	for _, tt := range tests {
		f := cmd.Flags().Lookup(tt.flag)
		if f == nil {
			t.Errorf("flag %q not registered", tt.flag)
			continue
		}
		if f.DefValue != tt.want {
			t.Errorf("flag %q default = %q, want %q", tt.flag, f.DefValue, tt.want)
		}
	}
}

func TestNewPendingStore_PathResolution(t *testing.T) {
	dir := t.TempDir()

	t.Run("explicit path wins", func(t *testing.T) {
		path := filepath.Join(dir, "explicit", "pending.json")
		store, err := newPendingStore(path, slog.Default())
		if err != nil {
			t.Fatalf("newPendingStore() error = %v", err)
		}
		if store.Path() != path {
			t.Errorf("Path() = %q, want %q", store.Path(), path)
		}
	})

	t.Run("env fallback", func(t *testing.T) {
		path := filepath.Join(dir, "from-env", "pending.json")
		t.Setenv("INBOXPILOT_PENDING_FILE", path)

		store, err := newPendingStore("", slog.Default())
		if err != nil {
			t.Fatalf("newPendingStore() error = %v", err)
		}
		if store.Path() != path {
			t.Errorf("Path() = %q, want %q", store.Path(), path)
		}
	})
}

func TestNewClassifier(t *testing.T) {
	t.Run("no api key", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "")
		if c := newClassifier(""); c != nil {
			t.Error("expected nil classifier without an API key")
		}
	})

	t.Run("with api key", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "test-key")
		if c := newClassifier("claude-test-model"); c == nil {
			t.Error("expected a classifier when the API key is set")
		}
	})
}
