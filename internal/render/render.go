// Package render turns one email message into a single self-contained HTML
// snapshot: a fixed wrapper document with an escaped header block above the
// original body, with inline and remote images resolved to data URIs so the
// result needs no external fetches when viewed later.
package render

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"golang.org/x/net/html"

	"github.com/dvloznov/sales-tracker/internal/extract"
	"github.com/dvloznov/sales-tracker/internal/gmailsource"
)

const (
	// maxRemoteImageBytes caps how much of a remote image body is read
	// before the reference is left unresolved.
	maxRemoteImageBytes = 5 << 20
	// maxImageURLLen skips absurdly long URLs before any fetch.
	maxImageURLLen = 2000
)

// Document is one rendered snapshot. BaseName carries no extension; the
// caller appends one matching the final format.
type Document struct {
	HTML     []byte
	BaseName string
}

// ImageResolution records the outcome for one image reference in the body.
// Unresolved references are left byte-identical in the output.
type ImageResolution struct {
	Ref      string
	Resolved bool
	Reason   string
}

// Renderer builds snapshot documents. The zero client gets a default HTTP
// client; injecting one lets tests point fetches at a local server.
type Renderer struct {
	client *http.Client
}

// New creates a Renderer. A nil client gets a 30-second-timeout default.
func New(client *http.Client) *Renderer {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Renderer{client: client}
}

// Render produces the snapshot for msg. Per-image failures degrade to
// unresolved references; the returned error is reserved for faults that
// make the whole document unusable.
func (r *Renderer) Render(msg *gmailsource.Message) (*Document, []ImageResolution, error) {
	wrapper := buildWrapper(msg)

	doc, err := html.Parse(strings.NewReader(wrapper))
	if err != nil {
		return nil, nil, fmt.Errorf("render: parse body: %w", err)
	}

	attachments := make(map[string]gmailsource.Attachment, len(msg.Attachments))
	for _, att := range msg.Attachments {
		attachments[normalizeContentID(att.ContentID)] = att
	}

	var resolutions []ImageResolution
	r.resolveImages(doc, attachments, &resolutions)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, nil, fmt.Errorf("render: serialize: %w", err)
	}

	date := civil.DateOf(msg.Date)
	cert := extract.FindCert(msg.PlainBody)
	return &Document{
		HTML:     buf.Bytes(),
		BaseName: BaseName(date, cert, msg.Subject),
	}, resolutions, nil
}

// buildWrapper assembles the fixed-layout document: style block, escaped
// header table, then the original HTML body (or the plain body in a <pre>
// when the message carries no HTML part).
func buildWrapper(msg *gmailsource.Message) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<style>\n")
	b.WriteString(`body { font-family: Arial, sans-serif; margin: 24px; }
.email-header { border-bottom: 2px solid #444; padding-bottom: 12px; margin-bottom: 16px; }
.email-header h2 { margin: 0 0 8px 0; }
.email-header td { padding: 1px 8px 1px 0; vertical-align: top; }
.email-header .label { color: #666; white-space: nowrap; }
.email-body img { max-width: 100%; }
`)
	b.WriteString("</style>\n</head>\n<body>\n<div class=\"email-header\">\n")
	b.WriteString("<h2>" + escapeHTML(msg.Subject) + "</h2>\n<table>\n")
	writeHeaderRow(&b, "From", msg.From)
	writeHeaderRow(&b, "To", msg.To)
	writeHeaderRow(&b, "Cc", msg.Cc)
	writeHeaderRow(&b, "Date", msg.Date.Format(time.RFC1123Z))
	writeHeaderRow(&b, "Message-ID", msg.ID)
	b.WriteString("</table>\n</div>\n<div class=\"email-body\">\n")
	if msg.HTMLBody != "" {
		b.WriteString(msg.HTMLBody)
	} else {
		b.WriteString("<pre>" + escapeHTML(msg.PlainBody) + "</pre>")
	}
	b.WriteString("\n</div>\n</body>\n</html>\n")
	return b.String()
}

func writeHeaderRow(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	b.WriteString("<tr><td class=\"label\">" + label + ":</td><td>" + escapeHTML(value) + "</td></tr>\n")
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// escapeHTML neutralizes markup in header values lifted from message
// content before they are embedded in the wrapper.
func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// normalizeContentID strips angle brackets and whitespace and case-folds,
// so "cid:ABC123" matches an attachment declaring "<abc123>".
func normalizeContentID(id string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(id), "<>"))
}
