package triage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/inboxpilot/inboxpilot/internal/gmail"
)

// Classification is the durable result of classifying one email. Exactly one
// Classification exists per email_id in the pending store at any time.
type Classification struct {
	EmailID    string   `json:"email_id"`
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"`

	// Denormalized copies for display.
	From    string `json:"from"`
	Subject string `json:"subject"`
	Date    string `json:"date"`

	// MetaSummary is a category-shaped payload; its shape is validated
	// against Category before storage (see ValidateMetaSummary).
	MetaSummary json.RawMessage `json:"meta_summary"`

	ReasonForLowConfidence string `json:"reason_for_low_confidence,omitempty"`
}

// Classifier turns one email into a Classification. Implementations are
// stateless per call. When snippetOnly is true the email body is withheld
// from the model and the model is instructed to report low confidence
// (0.3-0.5) for truncated or ambiguous snippets; the engine uses that signal
// to trigger a full-body second pass.
type Classifier interface {
	Classify(ctx context.Context, email gmail.EmailFull, snippetOnly bool) (Classification, error)
}

// fallbackConfidence is the confidence assigned when classification fails
// outright. It sits below the reclassification threshold so a later run can
// try again, but the email is never dropped.
const fallbackConfidence = 0.3

// FallbackClassification builds the terminal classification for an email
// whose model call or response parsing failed: category OTHER, confidence
// 0.3, and a meta summary carrying the failure reason.
func FallbackClassification(email gmail.EmailSummary, reason error) Classification {
	msg := "classification failed"
	if reason != nil {
		msg = reason.Error()
	}
	return Classification{
		EmailID:    email.ID,
		Category:   CategoryOther,
		Confidence: fallbackConfidence,
		From:       email.From,
		Subject:    email.Subject,
		Date:       email.Date,
		MetaSummary: mustMarshal(OtherSummary{
			Subject:  email.Subject,
			People:   []string{email.From},
			Synopsis: "This email could not be classified automatically.",
			Reason:   msg,
		}),
		ReasonForLowConfidence: msg,
	}
}

// classifierResponse is the JSON document the model is asked to produce.
type classifierResponse struct {
	Category               string          `json:"category"`
	Confidence             float64         `json:"confidence"`
	MetaSummary            json.RawMessage `json:"meta_summary"`
	ReasonForLowConfidence string          `json:"reason_for_low_confidence,omitempty"`
}

// parseClassifierResponse validates the model output and assembles a
// Classification for the email. Responses with an unknown category, an
// out-of-range confidence, or a meta summary that does not match the
// declared category are rejected.
func parseClassifierResponse(email gmail.EmailFull, text string) (Classification, error) {
	raw := extractJSON(text)
	if raw == "" {
		return Classification{}, fmt.Errorf("no JSON object found in model response")
	}

	var resp classifierResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return Classification{}, fmt.Errorf("failed to parse model response: %w", err)
	}

	category, err := ParseCategory(resp.Category)
	if err != nil {
		return Classification{}, err
	}
	if resp.Confidence < 0 || resp.Confidence > 1 {
		return Classification{}, fmt.Errorf("confidence %v outside [0,1]", resp.Confidence)
	}
	if err := ValidateMetaSummary(category, resp.MetaSummary); err != nil {
		return Classification{}, err
	}

	return Classification{
		EmailID:                email.ID,
		Category:               category,
		Confidence:             resp.Confidence,
		From:                   email.From,
		Subject:                email.Subject,
		Date:                   email.Date,
		MetaSummary:            resp.MetaSummary,
		ReasonForLowConfidence: resp.ReasonForLowConfidence,
	}, nil
}

// extractJSON returns the first balanced top-level JSON object in text.
// Models occasionally wrap their JSON in prose or code fences.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1]
				}
			}
		}
	}
	return ""
}
