package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/inboxpilot/inboxpilot/internal/gmail"
	"github.com/inboxpilot/inboxpilot/internal/instrumentation"
	"github.com/inboxpilot/inboxpilot/internal/logging"
	"github.com/inboxpilot/inboxpilot/internal/memory"
	"github.com/inboxpilot/inboxpilot/internal/triage"
)

// ServerContext holds the shared state for the MCP server: per-account Gmail
// clients, the classifier, the pending triage store, and the memory store.
type ServerContext struct {
	ctx          context.Context
	cancel       context.CancelFunc
	gmailClients map[string]*gmail.Client // Maps account name to Gmail client
	classifier   triage.Classifier
	store        *triage.PendingStore
	reader       *triage.BatchReader
	memory       *memory.Store
	metrics      *instrumentation.Metrics
	logger       *slog.Logger
	mu           sync.RWMutex
	shutdown     bool
}

// Option configures a ServerContext.
type Option func(*ServerContext)

// WithClassifier sets the classifier used by triage runs.
func WithClassifier(c triage.Classifier) Option {
	return func(sc *ServerContext) { sc.classifier = c }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(sc *ServerContext) { sc.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(sc *ServerContext) { sc.logger = l }
}

// NewServerContext creates a new server context. The pending store and memory
// store are required; Gmail clients are created lazily per account.
func NewServerContext(ctx context.Context, store *triage.PendingStore, mem *memory.Store, opts ...Option) (*ServerContext, error) {
	shutdownCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:          shutdownCtx,
		cancel:       cancel,
		gmailClients: make(map[string]*gmail.Client),
		store:        store,
		reader:       triage.NewBatchReader(store),
		memory:       mem,
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		opt(sc)
	}

	// Try to create the default Gmail client eagerly, but don't fail if the
	// token is missing. Clients are re-attempted lazily on first use.
	if gmail.HasToken() {
		client, err := gmail.NewClient(shutdownCtx)
		if err != nil {
			sc.logger.Warn("failed to create Gmail client for default account", "error", err)
		} else {
			sc.gmailClients["default"] = client
		}
	}

	return sc, nil
}

// Context returns the server context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// GmailClientForAccount returns the Gmail client for a specific account.
// Creates and caches the client if it doesn't exist yet.
// Returns nil if the account has no token.
func (sc *ServerContext) GmailClientForAccount(account string) *gmail.Client {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if client, ok := sc.gmailClients[account]; ok {
		return client
	}

	if !gmail.HasTokenForAccount(account) {
		return nil
	}

	client, err := gmail.NewClientForAccount(sc.ctx, account)
	if err != nil {
		sc.logger.Warn("failed to create Gmail client", logging.Account(account), logging.Err(err))
		return nil
	}

	sc.gmailClients[account] = client
	return client
}

// GmailClient returns the Gmail client for the default account.
func (sc *ServerContext) GmailClient() *gmail.Client {
	return sc.GmailClientForAccount("default")
}

// SetGmailClientForAccount sets the Gmail client for a specific account.
func (sc *ServerContext) SetGmailClientForAccount(account string, client *gmail.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.gmailClients[account] = client
}

// SetGmailClient sets the Gmail client for the default account.
func (sc *ServerContext) SetGmailClient(client *gmail.Client) {
	sc.SetGmailClientForAccount("default", client)
}

// Classifier returns the configured classifier, or nil if none was set.
func (sc *ServerContext) Classifier() triage.Classifier {
	return sc.classifier
}

// PendingStore returns the pending triage store.
func (sc *ServerContext) PendingStore() *triage.PendingStore {
	return sc.store
}

// BatchReader returns the paginated reader over the pending store.
func (sc *ServerContext) BatchReader() *triage.BatchReader {
	return sc.reader
}

// Memory returns the durable note store.
func (sc *ServerContext) Memory() *memory.Store {
	return sc.memory
}

// Metrics returns the metrics recorder. May be nil when instrumentation is
// disabled; all Metrics methods tolerate a nil receiver.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// EngineForAccount builds a triage engine bound to the given account's Gmail
// client. Returns nil if the account has no authenticated client.
func (sc *ServerContext) EngineForAccount(account string) *triage.Engine {
	client := sc.GmailClientForAccount(account)
	if client == nil {
		return nil
	}
	logger := logging.WithAccount(sc.logger, account)
	pager := gmail.NewPager(client, gmail.WithLogger(logger))
	return triage.NewEngine(pager, client, sc.classifier, sc.store,
		triage.WithEngineLogger(logger),
		triage.WithEngineMetrics(sc.metrics),
	)
}

// IsShutdown returns whether the server has been shutdown.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
