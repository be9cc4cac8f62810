// Package triage implements the two-pass AI classification pipeline.
//
// The Engine pages through a mailbox window, classifies every email on its
// snippet, reclassifies the low-confidence subset with full bodies, and
// merges the results into the PendingStore, a single JSON document holding
// exactly one classification per email. The BatchReader serves the store
// back in category-scoped, size-clamped batches so the calling agent's
// context window is never flooded.
//
// Classifications carry a category-shaped meta summary modeled as a tagged
// union: the raw JSON payload is validated against the shape its category
// declares before it is stored. Classification failures degrade to an
// OTHER/0.3 fallback rather than dropping the email.
package triage
