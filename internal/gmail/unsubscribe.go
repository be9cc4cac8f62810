package gmail

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// unsubscribeHTTPClient is used for List-Unsubscribe requests; unsubscribe
// endpoints are third-party and get a hard timeout.
var unsubscribeHTTPClient = &http.Client{
	Timeout: 30 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
}

// UnsubscribeInfo contains information about how to unsubscribe from a sender.
type UnsubscribeInfo struct {
	MessageID      string
	HasUnsubscribe bool
	Methods        []UnsubscribeMethod
}

// UnsubscribeMethod represents a single unsubscribe method.
type UnsubscribeMethod struct {
	Type string // "mailto" or "http"
	URL  string
}

// GetUnsubscribeInfo extracts List-Unsubscribe information from a message.
func (c *Client) GetUnsubscribeInfo(messageID string) (*UnsubscribeInfo, error) {
	msg, err := c.GetMetadata(messageID, []string{"List-Unsubscribe"})
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	info := &UnsubscribeInfo{
		MessageID: messageID,
		Methods:   []UnsubscribeMethod{},
	}

	listUnsubscribe := HeaderValue(msg, "List-Unsubscribe")
	if listUnsubscribe == "" {
		return info, nil
	}

	info.HasUnsubscribe = true
	info.Methods = parseListUnsubscribe(listUnsubscribe)

	return info, nil
}

// parseListUnsubscribe parses a List-Unsubscribe header value of the form
// <mailto:unsub@example.com>, <https://example.com/unsub>.
func parseListUnsubscribe(header string) []UnsubscribeMethod {
	var methods []UnsubscribeMethod

	for _, part := range strings.Split(header, "<") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		endIdx := strings.Index(part, ">")
		if endIdx == -1 {
			continue
		}
		url := strings.TrimSpace(part[:endIdx])

		switch {
		case strings.HasPrefix(url, "mailto:"):
			methods = append(methods, UnsubscribeMethod{Type: "mailto", URL: url})
		case strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://"):
			methods = append(methods, UnsubscribeMethod{Type: "http", URL: url})
		}
	}

	return methods
}

// UnsubscribeViaHTTP performs an HTTP GET request to the unsubscribe URL per
// the RFC 2369 List-Unsubscribe specification.
func (c *Client) UnsubscribeViaHTTP(url string) error {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("invalid HTTP URL: %s", url)
	}

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	// Some unsubscribe endpoints reject requests without a user agent.
	req.Header.Set("User-Agent", "inboxpilot/1.0")

	resp, err := unsubscribeHTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send unsubscribe request: %w", err)
	}
	defer resp.Body.Close()

	_, _ = io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return fmt.Errorf("unsubscribe request failed with status %d", resp.StatusCode)
	}

	return nil
}
