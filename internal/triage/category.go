package triage

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Category tags an email with the triage action the assistant recommends.
type Category string

// Triage categories. Each category fixes the shape of the classification's
// meta summary; see the *Summary types below.
const (
	CategoryActionRequired     Category = "ACTION_REQUIRED"
	CategorySummarizeAndInform Category = "SUMMARIZE_AND_INFORM"
	CategorySummarizeEvents    Category = "SUMMARIZE_EVENTS"
	CategorySummarizePurchases Category = "SUMMARIZE_PURCHASES"
	CategoryUnsubscribe        Category = "UNSUBSCRIBE"
	CategoryImmediateArchive   Category = "IMMEDIATE_ARCHIVE"
	CategoryOther              Category = "OTHER"
)

// Categories lists every valid category in a stable order.
var Categories = []Category{
	CategoryActionRequired,
	CategorySummarizeAndInform,
	CategorySummarizeEvents,
	CategorySummarizePurchases,
	CategoryUnsubscribe,
	CategoryImmediateArchive,
	CategoryOther,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory validates a raw category string.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// ActionRequiredSummary is the meta summary for ACTION_REQUIRED.
type ActionRequiredSummary struct {
	Subject  string   `json:"subject"`
	People   []string `json:"people"`
	Synopsis string   `json:"synopsis"`
	Analysis string   `json:"analysis"`
}

// InformSummary is the meta summary for SUMMARIZE_AND_INFORM.
type InformSummary struct {
	Source      string   `json:"source"`
	Subject     string   `json:"subject"`
	KeyInsights []string `json:"key_insights"`
}

// EventsSummary is the meta summary for SUMMARIZE_EVENTS.
type EventsSummary struct {
	Event string `json:"event"`
	From  string `json:"from"`
	What  string `json:"what"`
	Where string `json:"where"`
	When  string `json:"when"`
}

// PurchasesSummary is the meta summary for SUMMARIZE_PURCHASES.
type PurchasesSummary struct {
	Vendor  string `json:"vendor"`
	Subject string `json:"subject"`
	Update  string `json:"update"`
}

// UnsubscribeSummary is the meta summary for UNSUBSCRIBE.
type UnsubscribeSummary struct {
	Sender         string `json:"sender"`
	Recommendation string `json:"recommendation"`
}

// OtherSummary is the meta summary for OTHER.
type OtherSummary struct {
	Subject  string   `json:"subject"`
	People   []string `json:"people"`
	Synopsis string   `json:"synopsis"`
	Reason   string   `json:"reason"`
}

// IMMEDIATE_ARCHIVE carries a plain string instead of an object, so it has
// no summary struct; ValidateMetaSummary enforces the distinction.

// ValidateMetaSummary checks that a raw meta summary payload matches the
// shape its category declares: a JSON string for IMMEDIATE_ARCHIVE, the
// category's object shape for everything else. Payloads with a mismatched
// shape are rejected so they never reach the pending store.
func ValidateMetaSummary(category Category, raw json.RawMessage) error {
	if len(raw) == 0 {
		return fmt.Errorf("meta summary is empty")
	}

	if category == CategoryImmediateArchive {
		var s string
		if err := strictUnmarshal(raw, &s); err != nil {
			return fmt.Errorf("IMMEDIATE_ARCHIVE meta summary must be a plain string: %w", err)
		}
		return nil
	}

	var target interface{}
	switch category {
	case CategoryActionRequired:
		target = &ActionRequiredSummary{}
	case CategorySummarizeAndInform:
		target = &InformSummary{}
	case CategorySummarizeEvents:
		target = &EventsSummary{}
	case CategorySummarizePurchases:
		target = &PurchasesSummary{}
	case CategoryUnsubscribe:
		target = &UnsubscribeSummary{}
	case CategoryOther:
		target = &OtherSummary{}
	default:
		return fmt.Errorf("unknown category %q", category)
	}

	if err := strictUnmarshal(raw, target); err != nil {
		return fmt.Errorf("meta summary does not match %s shape: %w", category, err)
	}
	return nil
}

// strictUnmarshal decodes raw into v, rejecting unknown fields and trailing
// content.
func strictUnmarshal(raw json.RawMessage, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("trailing content after meta summary")
	}
	return nil
}

// mustMarshal serializes a known-good summary value; it panics only on
// programmer error (unmarshalable types).
func mustMarshal(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
