package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/inboxpilot/inboxpilot/internal/instrumentation"
	"github.com/inboxpilot/inboxpilot/internal/memory"
	"github.com/inboxpilot/inboxpilot/internal/server"
	"github.com/inboxpilot/inboxpilot/internal/tools/gmail_tools"
	"github.com/inboxpilot/inboxpilot/internal/tools/google_tools"
	"github.com/inboxpilot/inboxpilot/internal/tools/memory_tools"
	"github.com/inboxpilot/inboxpilot/internal/tools/triage_tools"
	"github.com/inboxpilot/inboxpilot/internal/triage"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: false)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

func newServeCmd() *cobra.Command {
	var (
		transport      string
		httpAddr       string
		yolo           bool
		pendingFile    string
		memoryDir      string
		modelName      string
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server to provide Gmail, triage,
and memory tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport

Safety Mode:
  By default, the server operates in read-only mode, providing only safe operations.
  Use --yolo to enable write operations (archiving, drafting, unsubscribing).

Classification:
  Set ANTHROPIC_API_KEY to enable the triage_inbox tool. The model can be
  overridden with --model or the ANTHROPIC_MODEL env var.

Gmail OAuth:
  Set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET. Tokens are stored per
  account in the user cache directory; use google_get_auth_url and
  google_save_auth_code to authorize accounts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(transport, httpAddr, yolo, pendingFile, memoryDir, modelName, MetricsConfig{
				Enabled: metricsEnabled,
				Addr:    metricsAddr,
			})
		},
	}

	cmd.Flags().StringVarP(&transport, "transport", "t", "stdio", "Transport type (stdio or streamable-http)")
	cmd.Flags().StringVar(&httpAddr, "http-addr", ":8080", "Address for the streamable-http transport")
	cmd.Flags().BoolVar(&yolo, "yolo", false, "Enable write operations (archive, draft, unsubscribe). Default is read-only mode.")
	cmd.Flags().StringVar(&pendingFile, "pending-file", "", "Path to the pending triage store (default: <config>/inboxpilot/pending_summaries.json)")
	cmd.Flags().StringVar(&memoryDir, "memory-dir", "", "Directory for persistent memory notes (default: <config>/inboxpilot/memory)")
	cmd.Flags().StringVar(&modelName, "model", "", "Anthropic model for classification (default: built-in)")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", false, "Start the Prometheus metrics server (streamable-http only)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Address for the metrics server")

	return cmd
}

func runServe(transport, httpAddr string, yolo bool, pendingFile, memoryDir, modelName string, metricsConfig MetricsConfig) error {
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Flags win over the environment for the metrics server settings.
	if !metricsConfig.Enabled && os.Getenv("METRICS_ENABLED") == "true" {
		metricsConfig.Enabled = true
	}
	if metricsConfig.Addr == "" || metricsConfig.Addr == server.DefaultMetricsAddr {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			metricsConfig.Addr = addr
		}
	}

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil && transport != "stdio" {
			log.Printf("Error during instrumentation shutdown: %v", err)
		}
	}()

	// Scraping only makes sense off stdio; on stdio the process shares its
	// stdout with the MCP transport.
	var metricsServer *server.MetricsServer
	if transport != "stdio" && metricsConfig.Enabled && provider.Enabled() {
		metricsServer, err = startMetricsServer(metricsConfig, provider)
		if err != nil {
			return err
		}
	}

	sc, err := buildServerContext(shutdownCtx, pendingFile, memoryDir, modelName, provider, transport)
	if err != nil {
		return err
	}
	defer func() {
		if metricsServer != nil {
			drainCtx, cancelDrain := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancelDrain()
			if err := metricsServer.Shutdown(drainCtx); err != nil {
				log.Printf("Error during metrics server shutdown: %v", err)
			}
		}
		if err := sc.Shutdown(); err != nil && transport != "stdio" {
			log.Printf("Error during server context shutdown: %v", err)
		}
	}()

	mcpSrv := mcpserver.NewMCPServer("inboxpilot", version,
		mcpserver.WithToolCapabilities(true),
	)

	readOnly := !yolo
	if transport != "stdio" {
		if readOnly {
			log.Println("Starting server in READ-ONLY mode (use --yolo to enable write operations)")
		} else {
			log.Println("Starting server with WRITE operations enabled (--yolo flag is set)")
		}
	}

	if err := registerAllTools(mcpSrv, sc, readOnly); err != nil {
		return err
	}

	switch transport {
	case "stdio":
		return runStdioServer(mcpSrv)
	case "streamable-http":
		fmt.Printf("Starting inboxpilot MCP server with %s transport on %s...\n", transport, httpAddr)
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, sc, httpAddr)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", transport)
	}
}

// startMetricsServer launches the Prometheus scrape endpoint in the
// background.
func startMetricsServer(metricsConfig MetricsConfig, provider *instrumentation.Provider) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    metricsConfig.Addr,
		Enabled:                 true,
		InstrumentationProvider: provider,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	go func() {
		if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
			log.Printf("Metrics server failed: %v", err)
		}
	}()
	return metricsServer, nil
}

// buildServerContext wires the pending store, memory store, and classifier
// into a ServerContext.
func buildServerContext(ctx context.Context, pendingFile, memoryDir, modelName string, provider *instrumentation.Provider, transport string) (*server.ServerContext, error) {
	logger := slog.Default()

	store, err := newPendingStore(pendingFile, logger)
	if err != nil {
		return nil, err
	}

	if memoryDir == "" {
		memoryDir = os.Getenv("INBOXPILOT_MEMORY_DIR")
	}
	if memoryDir == "" {
		var err error
		memoryDir, err = memory.DefaultDir()
		if err != nil {
			return nil, err
		}
	}
	mem, err := memory.NewStore(memoryDir)
	if err != nil {
		return nil, err
	}

	opts := []server.Option{server.WithLogger(logger)}

	if classifier := newClassifier(modelName); classifier != nil {
		opts = append(opts, server.WithClassifier(classifier))
	} else if transport != "stdio" {
		log.Println("Warning: ANTHROPIC_API_KEY not set; the triage_inbox tool will be unavailable")
	}

	if provider.Enabled() {
		opts = append(opts, server.WithMetrics(provider.Metrics()))
	}

	return server.NewServerContext(ctx, store, mem, opts...)
}

// newPendingStore resolves the pending store path (flag, env, then the user
// config dir) and ensures its directory exists.
func newPendingStore(pendingFile string, logger *slog.Logger) (*triage.PendingStore, error) {
	if pendingFile == "" {
		pendingFile = os.Getenv("INBOXPILOT_PENDING_FILE")
	}
	if pendingFile == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to determine user config directory: %w", err)
		}
		pendingFile = filepath.Join(configDir, "inboxpilot", "pending_summaries.json")
	}
	if err := os.MkdirAll(filepath.Dir(pendingFile), 0700); err != nil {
		return nil, fmt.Errorf("failed to create pending store directory: %w", err)
	}
	return triage.NewPendingStore(pendingFile, logger), nil
}

// newClassifier builds the Anthropic classifier from the environment.
// Returns nil when no API key is configured.
func newClassifier(modelName string) triage.Classifier {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil
	}
	if modelName == "" {
		modelName = os.Getenv("ANTHROPIC_MODEL")
	}
	return triage.NewAnthropicClassifier(apiKey, modelName)
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, addr string) error {
	streamable := mcpserver.NewStreamableHTTPServer(mcpSrv)

	health := server.NewHealthChecker(sc)

	mux := http.NewServeMux()
	health.RegisterHealthEndpoints(mux)
	mux.Handle("/mcp", streamable)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-serverDone:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	}
}

// registerAllTools registers all MCP tools on the server.
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Google OAuth",
			register: func() error {
				return google_tools.RegisterGoogleTools(mcpSrv, sc)
			},
		},
		{
			name: "Gmail",
			register: func() error {
				return gmail_tools.RegisterGmailTools(mcpSrv, sc, readOnly)
			},
		},
		{
			name: "Triage",
			register: func() error {
				return triage_tools.RegisterTriageTools(mcpSrv, sc)
			},
		},
		{
			name: "Memory",
			register: func() error {
				return memory_tools.RegisterMemoryTools(mcpSrv, sc)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s tools: %w", reg.name, err)
		}
	}

	return nil
}
