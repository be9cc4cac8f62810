package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"strings"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/inboxpilot/inboxpilot/internal/google"
)

// Client wraps the Gmail Users service for a single account.
type Client struct {
	svc     *gmail.UsersService
	account string
}

// Account returns the account name this client is associated with.
func (c *Client) Account() string {
	return c.account
}

// HasTokenForAccount checks if a valid OAuth token exists for the specified account.
func HasTokenForAccount(account string) bool {
	return google.HasTokenForAccount(account)
}

// HasToken checks if a valid OAuth token exists for the default account.
func HasToken() bool {
	return google.HasToken()
}

// GetAuthURLForAccount returns the OAuth URL for user authorization.
func GetAuthURLForAccount(account string) string {
	return google.GetAuthURLForAccount(account)
}

// NewClientForAccount creates a new Gmail client with OAuth2 authentication
// for a specific account.
func NewClientForAccount(ctx context.Context, account string) (*Client, error) {
	client, err := google.GetHTTPClientForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("no valid Google OAuth token found for account %s: %w", account, err)
	}

	svc, err := gmail.New(client)
	if err != nil {
		return nil, err
	}

	return &Client{
		svc:     svc.Users,
		account: account,
	}, nil
}

// NewClient creates a new Gmail client for the default account.
func NewClient(ctx context.Context) (*Client, error) {
	return NewClientForAccount(ctx, "default")
}

// SearchPage is one page of a message search: the matching message IDs plus
// the token for the next page, empty when the result set is exhausted.
type SearchPage struct {
	IDs           []string
	NextPageToken string
}

// maxPageSize is the largest page the Gmail API serves per list call.
const maxPageSize = 100

// SearchMessages issues a single paged search call. pageSize is clamped to
// the provider maximum of 100.
func (c *Client) SearchMessages(query string, pageSize int64, pageToken string) (*SearchPage, error) {
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	req := c.svc.Messages.List("me").Q(query).MaxResults(pageSize)
	if pageToken != "" {
		req = req.PageToken(pageToken)
	}

	res, err := req.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}

	page := &SearchPage{NextPageToken: res.NextPageToken}
	for _, m := range res.Messages {
		page.IDs = append(page.IDs, m.Id)
	}
	return page, nil
}

// GetMetadata fetches a message in metadata format, returning only the named
// headers plus the snippet.
func (c *Client) GetMetadata(id string, headerNames []string) (*gmail.Message, error) {
	req := c.svc.Messages.Get("me", id).Format("metadata")
	if len(headerNames) > 0 {
		req = req.MetadataHeaders(headerNames...)
	}
	msg, err := req.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata for message %s: %w", id, err)
	}
	return msg, nil
}

// GetMessage retrieves a full Gmail message.
func (c *Client) GetMessage(messageID string) (*gmail.Message, error) {
	msg, err := c.svc.Messages.Get("me", messageID).Format("full").Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", messageID, err)
	}
	return msg, nil
}

// GetMessageBody extracts the decoded text body from a message, falling back
// to the HTML part when no plain-text part exists.
func (c *Client) GetMessageBody(messageID string) (string, error) {
	msg, err := c.GetMessage(messageID)
	if err != nil {
		return "", err
	}
	body := extractBody(msg, "text/plain")
	if body == "" {
		body = extractBody(msg, "text/html")
	}
	if body == "" {
		return "", fmt.Errorf("no text body found in message %s", messageID)
	}

	decoded, err := decodeBase64URL(body)
	if err != nil {
		return "", fmt.Errorf("failed to decode message body: %w", err)
	}
	return decoded, nil
}

// ArchiveMessage archives a message by removing the INBOX label.
func (c *Client) ArchiveMessage(id string) error {
	_, err := c.svc.Messages.Modify("me", id, &gmail.ModifyMessageRequest{
		RemoveLabelIds: []string{"INBOX"},
	}).Do()
	return err
}

// MarkMessageRead removes the UNREAD label from a message.
func (c *Client) MarkMessageRead(id string) error {
	_, err := c.svc.Messages.Modify("me", id, &gmail.ModifyMessageRequest{
		RemoveLabelIds: []string{"UNREAD"},
	}).Do()
	return err
}

// CreateDraftReply creates a draft reply threaded onto the original message.
// The draft is left in the user's drafts folder for review; nothing is sent.
func (c *Client) CreateDraftReply(messageID, body string, isHTML bool) (string, error) {
	if messageID == "" {
		return "", fmt.Errorf("messageID is required")
	}
	if body == "" {
		return "", fmt.Errorf("body is required")
	}

	msg, err := c.GetMessage(messageID)
	if err != nil {
		return "", fmt.Errorf("failed to get original message: %w", err)
	}

	originalFrom := HeaderValue(msg, "From")
	originalSubject := HeaderValue(msg, "Subject")
	originalMessageID := HeaderValue(msg, "Message-ID")
	originalReferences := HeaderValue(msg, "References")

	if originalFrom == "" {
		return "", fmt.Errorf("original message has no From header")
	}

	replySubject := originalSubject
	if !strings.HasPrefix(strings.ToLower(replySubject), "re:") {
		replySubject = "Re: " + replySubject
	}

	references := originalMessageID
	if originalReferences != "" {
		references = originalReferences + " " + originalMessageID
	}

	var b strings.Builder
	b.WriteString("To: ")
	b.WriteString(originalFrom)
	b.WriteString("\r\n")
	b.WriteString("Subject: ")
	b.WriteString(encodeRFC2047(replySubject))
	b.WriteString("\r\n")
	if originalMessageID != "" {
		b.WriteString("In-Reply-To: ")
		b.WriteString(originalMessageID)
		b.WriteString("\r\n")
	}
	if references != "" {
		b.WriteString("References: ")
		b.WriteString(references)
		b.WriteString("\r\n")
	}
	if isHTML {
		b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	} else {
		b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	}
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)

	draft := &gmail.Draft{
		Message: &gmail.Message{
			Raw:      base64.URLEncoding.EncodeToString([]byte(b.String())),
			ThreadId: msg.ThreadId,
		},
	}

	created, err := c.svc.Drafts.Create("me", draft).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create draft reply: %w", err)
	}

	return created.Id, nil
}

// HeaderValue extracts a header value from a Gmail message.
func HeaderValue(m *gmail.Message, header string) string {
	mpart := m.Payload
	if mpart == nil {
		return ""
	}
	for _, mph := range mpart.Headers {
		if strings.EqualFold(mph.Name, header) {
			return mph.Value
		}
	}
	return ""
}

// extractBody finds the first body part of the target MIME type, returning
// the still-encoded data.
func extractBody(msg *gmail.Message, targetMimeType string) string {
	if msg.Payload == nil {
		return ""
	}
	if msg.Payload.MimeType == targetMimeType && msg.Payload.Body != nil && msg.Payload.Body.Data != "" {
		return msg.Payload.Body.Data
	}

	var body string
	walkParts(msg.Payload, func(part *gmail.MessagePart) {
		if body == "" && part.MimeType == targetMimeType && part.Body != nil && part.Body.Data != "" {
			body = part.Body.Data
		}
	})
	return body
}

// walkParts recursively walks through message parts.
func walkParts(part *gmail.MessagePart, fn func(*gmail.MessagePart)) {
	if part == nil {
		return
	}
	fn(part)
	for _, subpart := range part.Parts {
		walkParts(subpart, fn)
	}
}

// decodeBase64URL decodes Gmail body data, which is base64url encoded
// (RFC 4648), falling back to standard base64 for odd producers.
func decodeBase64URL(data string) (string, error) {
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		decoded, err = base64.StdEncoding.DecodeString(data)
		if err != nil {
			return "", err
		}
	}
	return string(decoded), nil
}

// encodeRFC2047 encodes a string for use in email headers according to
// RFC 2047. Needed for non-ASCII characters in subjects.
func encodeRFC2047(s string) string {
	for _, r := range s {
		if r > 127 {
			return mime.BEncoding.Encode("UTF-8", s)
		}
	}
	return s
}
