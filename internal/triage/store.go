package triage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/inboxpilot/inboxpilot/internal/logging"
)

// Document is the durable JSON contract other tooling reads. Invariants:
// TotalEmails == len(Emails), ByCategory is the exact multiset count of
// Emails[*].Category, and Emails contains no two entries with the same
// email_id.
type Document struct {
	LastUpdated time.Time        `json:"last_updated"`
	TotalEmails int              `json:"total_emails"`
	ByCategory  map[Category]int `json:"by_category"`
	Emails      []Classification `json:"emails"`
}

// PendingStore persists the latest classification per email in a single JSON
// document. Merges are idempotent and never overwrite an existing entry: a
// re-triage of the same window must not clobber already-triaged decisions.
type PendingStore struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
	now    func() time.Time
}

// NewPendingStore creates a store backed by the JSON document at path.
func NewPendingStore(path string, logger *slog.Logger) *PendingStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PendingStore{
		path:   path,
		logger: logger,
		now:    time.Now,
	}
}

// Path returns the document location.
func (s *PendingStore) Path() string {
	return s.path
}

// Load reads the current document. A missing file yields an empty document;
// a corrupt file is logged and treated as empty, so the next merge
// overwrites it wholesale.
func (s *PendingStore) Load() (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *PendingStore) loadLocked() (*Document, error) {
	doc := &Document{ByCategory: make(map[Category]int)}

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read pending store: %w", err)
	}

	if err := json.Unmarshal(data, doc); err != nil {
		s.logger.Warn("pending store is corrupt, starting fresh",
			"path", s.path, logging.Err(err))
		return &Document{ByCategory: make(map[Category]int)}, nil
	}
	if doc.ByCategory == nil {
		doc.ByCategory = make(map[Category]int)
	}
	return doc, nil
}

// Merge appends the classifications whose email_id is not already present
// and recomputes the derived fields. Entries already in the store are never
// overwritten, even if the new classification disagrees. Running the same
// merge twice leaves the store unchanged the second time.
func (s *PendingStore) Merge(newClassifications []Classification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadLocked()
	if err != nil {
		return err
	}

	existing := make(map[string]bool, len(doc.Emails))
	for _, c := range doc.Emails {
		existing[c.EmailID] = true
	}

	added := 0
	for _, c := range newClassifications {
		if existing[c.EmailID] {
			continue
		}
		existing[c.EmailID] = true
		doc.Emails = append(doc.Emails, c)
		added++
	}

	// Derived fields are always recomputed from the full list, never
	// incrementally, so the invariants hold even for documents written by
	// older versions.
	doc.TotalEmails = len(doc.Emails)
	doc.ByCategory = make(map[Category]int)
	for _, c := range doc.Emails {
		doc.ByCategory[c.Category]++
	}
	doc.LastUpdated = s.now()

	if err := s.writeLocked(doc); err != nil {
		return err
	}

	s.logger.Info("merged classifications into pending store",
		"added", added, "skipped", len(newClassifications)-added, "total", doc.TotalEmails)
	return nil
}

// writeLocked persists the document atomically via write-to-temp-then-rename
// so a concurrent reader never observes a partially written file.
func (s *PendingStore) writeLocked(doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode pending store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".pending-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write pending store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace pending store: %w", err)
	}
	return nil
}

// Batch is one category-scoped page of the pending store.
type Batch struct {
	Emails          []Classification `json:"emails"`
	TotalInCategory int              `json:"total_in_category"`
	HasMore         bool             `json:"has_more"`
	NextOffset      int              `json:"next_offset"`
}

// Batch limits. Requests above MaxBatchLimit are clamped, not rejected, so a
// misbehaving caller still gets a bounded response.
const (
	DefaultBatchLimit = 5
	MaxBatchLimit     = 20
)

// ReadCategory filters the store by category (stable stored order), slices
// [offset, offset+limit), and reports whether further items remain. It never
// mutates the document.
func (s *PendingStore) ReadCategory(category Category, offset, limit int) (*Batch, error) {
	doc, err := s.Load()
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = DefaultBatchLimit
	}
	if limit > MaxBatchLimit {
		limit = MaxBatchLimit
	}
	if offset < 0 {
		offset = 0
	}

	var matched []Classification
	for _, c := range doc.Emails {
		if c.Category == category {
			matched = append(matched, c)
		}
	}

	batch := &Batch{TotalInCategory: len(matched)}
	if offset < len(matched) {
		end := offset + limit
		if end > len(matched) {
			end = len(matched)
		}
		batch.Emails = matched[offset:end]
		batch.HasMore = end < len(matched)
		batch.NextOffset = end
	} else {
		batch.NextOffset = offset
	}

	return batch, nil
}
