package triage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/inboxpilot/inboxpilot/internal/gmail"
)

const (
	defaultModel     = "claude-sonnet-4-5-20250929"
	defaultMaxTokens = 1024
	apiURL           = "https://api.anthropic.com/v1/messages"
	apiVersion       = "2023-06-01"
)

// AnthropicClassifier classifies emails by calling the Claude messages API.
// It is stateless per call; one Classify call issues one model request.
type AnthropicClassifier struct {
	apiKey    string
	model     string
	maxTokens int
	client    *http.Client
}

// NewAnthropicClassifier creates a classifier backed by the Claude API.
func NewAnthropicClassifier(apiKey, modelName string) *AnthropicClassifier {
	if modelName == "" {
		modelName = defaultModel
	}
	return &AnthropicClassifier{
		apiKey:    apiKey,
		model:     modelName,
		maxTokens: defaultMaxTokens,
		client:    &http.Client{Timeout: 60 * time.Second},
	}
}

const systemPrompt = `You are an email triage assistant. Classify the email into exactly one category and respond with a single JSON object, no prose:

{"category": "<CATEGORY>", "confidence": <0.0-1.0>, "meta_summary": <shape below>, "reason_for_low_confidence": "<only when confidence < 0.7>"}

Categories and their meta_summary shapes:
- ACTION_REQUIRED: {"subject": "...", "people": ["..."], "synopsis": "...", "analysis": "..."}
- SUMMARIZE_AND_INFORM: {"source": "...", "subject": "...", "key_insights": ["..."]}
- SUMMARIZE_EVENTS: {"event": "...", "from": "...", "what": "...", "where": "...", "when": "..."}
- SUMMARIZE_PURCHASES: {"vendor": "...", "subject": "...", "update": "..."}
- UNSUBSCRIBE: {"sender": "...", "recommendation": "..."}
- IMMEDIATE_ARCHIVE: a plain string explaining why it can be archived unread
- OTHER: {"subject": "...", "people": ["..."], "synopsis": "...", "reason": "..."}

The meta_summary shape MUST match the category.`

const snippetOnlyInstruction = `You are seeing only a short snippet of this email, not the full body. If the snippet is truncated or too ambiguous to classify with certainty, report a confidence between 0.3 and 0.5 and explain in reason_for_low_confidence; a second pass with the full body will follow.`

// Classify sends one email to the model and parses the structured response.
// Callers are expected to convert errors into the OTHER/0.3 fallback via
// FallbackClassification.
func (ac *AnthropicClassifier) Classify(ctx context.Context, email gmail.EmailFull, snippetOnly bool) (Classification, error) {
	if ac.apiKey == "" {
		return Classification{}, fmt.Errorf("missing Anthropic API key")
	}

	text, err := ac.complete(ctx, ac.buildPrompt(email, snippetOnly), snippetOnly)
	if err != nil {
		return Classification{}, err
	}
	return parseClassifierResponse(email, text)
}

// buildPrompt renders the email into the user message. Snippet-only prompts
// omit the body entirely.
func (ac *AnthropicClassifier) buildPrompt(email gmail.EmailFull, snippetOnly bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\n", email.From)
	fmt.Fprintf(&b, "To: %s\n", email.To)
	fmt.Fprintf(&b, "Date: %s\n", email.Date)
	fmt.Fprintf(&b, "Subject: %s\n", email.Subject)
	if snippetOnly || email.Body == "" {
		fmt.Fprintf(&b, "Snippet: %s\n", email.Snippet)
	} else {
		fmt.Fprintf(&b, "Body:\n%s\n", email.Body)
	}
	return b.String()
}

// API request/response shapes for the messages endpoint.

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	Content []apiContentBlock `json:"content"`
	Error   *apiError         `json:"error,omitempty"`
}

type apiContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// complete performs one messages API call and returns the concatenated text
// blocks of the response.
func (ac *AnthropicClassifier) complete(ctx context.Context, userMsg string, snippetOnly bool) (string, error) {
	system := systemPrompt
	if snippetOnly {
		system += "\n\n" + snippetOnlyInstruction
	}

	bodyBytes, err := json.Marshal(apiRequest{
		Model:     ac.model,
		MaxTokens: ac.maxTokens,
		System:    system,
		Messages:  []apiMessage{{Role: "user", Content: userMsg}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", ac.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := ac.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("model request failed: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read model response: %w", err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode model response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("model API error (%s): %s", parsed.Error.Type, parsed.Error.Message)
		}
		return "", fmt.Errorf("model API returned status %d", resp.StatusCode)
	}

	var text strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("model response contained no text")
	}
	return text.String(), nil
}
