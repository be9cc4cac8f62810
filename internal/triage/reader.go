package triage

import (
	"fmt"
)

// BatchReader serves category-scoped, offset/limit-bounded slices of the
// pending store to the calling agent. The hard limit keeps a single tool
// call from flooding the agent's context window.
type BatchReader struct {
	store *PendingStore
}

// NewBatchReader creates a reader over the given store.
func NewBatchReader(store *PendingStore) *BatchReader {
	return &BatchReader{store: store}
}

// GetBatch validates the raw category string and returns one page of
// classifications. offset defaults to 0 and limit to DefaultBatchLimit;
// limit is clamped to MaxBatchLimit.
func (r *BatchReader) GetBatch(category string, offset, limit int) (*Batch, error) {
	c, err := ParseCategory(category)
	if err != nil {
		return nil, fmt.Errorf("invalid category: %w", err)
	}
	return r.store.ReadCategory(c, offset, limit)
}
