// Package gmailsource adapts the Gmail API to the message-source interface
// the processor consumes: labeled, paginated, read-only access to messages
// with their bodies and inline attachments.
package gmailsource

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// gmailUser addresses the authenticated account.
const gmailUser = "me"

// Client wraps the Gmail API service.
type Client struct {
	svc *gmail.Service
}

// NewClient creates a Gmail client. It assumes Application Default
// Credentials are configured unless overridden via opts.
func NewClient(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gmailsource: create service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// ResolveLabel maps a label name to its ID. A missing label is a
// configuration fault and aborts the run.
func (c *Client) ResolveLabel(ctx context.Context, name string) (string, error) {
	resp, err := c.svc.Users.Labels.List(gmailUser).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("gmailsource: list labels: %w", err)
	}
	for _, l := range resp.Labels {
		if strings.EqualFold(l.Name, name) {
			return l.Id, nil
		}
	}
	return "", fmt.Errorf("gmailsource: label %q not found", name)
}

// ListPage fetches one page of messages under labelID. An empty nextToken
// (or a short page) means the source is exhausted.
func (c *Client) ListPage(ctx context.Context, labelID, pageToken string, pageSize int64) ([]*Message, string, error) {
	call := c.svc.Users.Messages.List(gmailUser).
		LabelIds(labelID).
		MaxResults(pageSize).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	resp, err := call.Do()
	if err != nil {
		return nil, "", fmt.Errorf("gmailsource: list messages: %w", err)
	}

	messages := make([]*Message, 0, len(resp.Messages))
	for _, ref := range resp.Messages {
		full, err := c.svc.Users.Messages.Get(gmailUser, ref.Id).Format("full").Context(ctx).Do()
		if err != nil {
			return nil, "", fmt.Errorf("gmailsource: get message %s: %w", ref.Id, err)
		}
		msg, err := c.parseMessage(ctx, full)
		if err != nil {
			return nil, "", fmt.Errorf("gmailsource: parse message %s: %w", ref.Id, err)
		}
		messages = append(messages, msg)
	}
	return messages, resp.NextPageToken, nil
}

func (c *Client) parseMessage(ctx context.Context, m *gmail.Message) (*Message, error) {
	msg := &Message{
		ID:   m.Id,
		Date: time.UnixMilli(m.InternalDate),
	}
	if m.Payload == nil {
		return msg, nil
	}

	for _, h := range m.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "subject":
			msg.Subject = h.Value
		case "from":
			msg.From = h.Value
		case "to":
			msg.To = h.Value
		case "cc":
			msg.Cc = h.Value
		}
	}

	if err := c.walkParts(ctx, m.Id, m.Payload, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// walkParts descends the MIME tree collecting the first plain and HTML
// bodies plus any inline attachments carrying a Content-ID.
func (c *Client) walkParts(ctx context.Context, msgID string, part *gmail.MessagePart, msg *Message) error {
	contentID := partHeader(part, "Content-ID")
	if contentID != "" && part.Body != nil {
		data, err := c.partData(ctx, msgID, part.Body)
		if err != nil {
			return fmt.Errorf("attachment %s: %w", contentID, err)
		}
		msg.Attachments = append(msg.Attachments, Attachment{
			ContentID:   contentID,
			ContentType: part.MimeType,
			Data:        data,
		})
	} else if part.Body != nil && part.Body.Data != "" {
		switch part.MimeType {
		case "text/plain":
			if msg.PlainBody == "" {
				text, err := decodeBase64URL(part.Body.Data)
				if err != nil {
					return fmt.Errorf("plain body: %w", err)
				}
				msg.PlainBody = string(text)
			}
		case "text/html":
			if msg.HTMLBody == "" {
				text, err := decodeBase64URL(part.Body.Data)
				if err != nil {
					return fmt.Errorf("html body: %w", err)
				}
				msg.HTMLBody = string(text)
			}
		}
	}

	for _, child := range part.Parts {
		if err := c.walkParts(ctx, msgID, child, msg); err != nil {
			return err
		}
	}
	return nil
}

// partData returns a part's bytes, following the attachment indirection
// when the payload carries only an attachment ID.
func (c *Client) partData(ctx context.Context, msgID string, body *gmail.MessagePartBody) ([]byte, error) {
	if body.Data != "" {
		return decodeBase64URL(body.Data)
	}
	if body.AttachmentId == "" {
		return nil, nil
	}
	att, err := c.svc.Users.Messages.Attachments.Get(gmailUser, msgID, body.AttachmentId).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get attachment: %w", err)
	}
	return decodeBase64URL(att.Data)
}

func partHeader(part *gmail.MessagePart, name string) string {
	for _, h := range part.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// decodeBase64URL handles both padded and unpadded URL-safe base64, which
// the API mixes depending on the part.
func decodeBase64URL(s string) ([]byte, error) {
	if b, err := base64.URLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawURLEncoding.DecodeString(s)
}
