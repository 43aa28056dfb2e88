package render

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/sales-tracker/internal/gmailsource"
)

func testMessage(htmlBody string, attachments ...gmailsource.Attachment) *gmailsource.Message {
	return &gmailsource.Message{
		ID:          "msg-1",
		Subject:     "Your item sold!",
		From:        "marketplace@example.com",
		To:          "seller@example.com",
		Date:        time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC),
		PlainBody:   "PSA 12345678 Card\nSale Price: $100.00\n",
		HTMLBody:    htmlBody,
		Attachments: attachments,
	}
}

func TestRender_InlineAttachmentSubstitution(t *testing.T) {
	att := gmailsource.Attachment{
		ContentID:   "<abc123>",
		ContentType: "image/png",
		Data:        []byte("pngbytes"),
	}
	msg := testMessage(`<p>sold</p><img src="cid:ABC123">`, att)

	doc, resolutions, err := New(nil).Render(msg)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	wantURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString(att.Data)
	if !strings.Contains(string(doc.HTML), wantURI) {
		t.Error("expected cid reference replaced with attachment data URI")
	}
	if len(resolutions) != 1 || !resolutions[0].Resolved {
		t.Errorf("resolutions = %+v, want one resolved entry", resolutions)
	}
}

func TestRender_UnmatchedCidLeftUnchanged(t *testing.T) {
	msg := testMessage(`<img src="cid:nosuch">`)

	doc, resolutions, err := New(nil).Render(msg)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(string(doc.HTML), `src="cid:nosuch"`) {
		t.Error("unmatched cid reference should be left byte-identical")
	}
	if len(resolutions) != 1 || resolutions[0].Resolved {
		t.Errorf("resolutions = %+v, want one unresolved entry", resolutions)
	}
}

func TestRender_RemoteImageInlined(t *testing.T) {
	png := make([]byte, 10*1024)
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No Content-Type header: force extension-based inference.
		w.Header()["Content-Type"] = nil
		w.WriteHeader(http.StatusOK)
		w.Write(png)
	}))
	defer srv.Close()

	msg := testMessage(`<img src="` + srv.URL + `/img/card.png">`)
	doc, resolutions, err := New(srv.Client()).Render(msg)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(string(doc.HTML), "data:image/png;base64,") {
		t.Error("expected remote png inlined with inferred image/png content type")
	}
	if len(resolutions) != 1 || !resolutions[0].Resolved {
		t.Errorf("resolutions = %+v, want one resolved entry", resolutions)
	}
}

func TestRender_RemoteImageSizeCap(t *testing.T) {
	big := make([]byte, 6<<20)
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(big)
	}))
	defer srv.Close()

	ref := srv.URL + "/huge.jpg"
	msg := testMessage(`<img src="` + ref + `">`)
	doc, resolutions, err := New(srv.Client()).Render(msg)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(string(doc.HTML), `src="`+ref+`"`) {
		t.Error("oversized remote image should leave the original reference")
	}
	if len(resolutions) != 1 || resolutions[0].Resolved {
		t.Errorf("resolutions = %+v, want one unresolved entry", resolutions)
	}
}

func TestRender_RemoteFetchErrorLeavesReference(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	ref := srv.URL + "/gone.png"
	msg := testMessage(`<img src="` + ref + `">`)
	doc, resolutions, err := New(srv.Client()).Render(msg)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(string(doc.HTML), `src="`+ref+`"`) {
		t.Error("failed fetch should leave the original reference")
	}
	if len(resolutions) != 1 || resolutions[0].Resolved {
		t.Errorf("resolutions = %+v, want one unresolved entry", resolutions)
	}
}

func TestRender_URLTooLongSkipped(t *testing.T) {
	longURL := "https://example.com/" + strings.Repeat("x", 2100)
	msg := testMessage(`<img src="` + longURL + `">`)
	doc, resolutions, err := New(nil).Render(msg)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(string(doc.HTML), longURL) {
		t.Error("over-length URL should be left unchanged")
	}
	if len(resolutions) != 1 || resolutions[0].Resolved || resolutions[0].Reason != "url too long" {
		t.Errorf("resolutions = %+v, want unresolved with url too long", resolutions)
	}
}

func TestRender_InsecureSchemeSkipped(t *testing.T) {
	msg := testMessage(`<img src="http://example.com/a.png">`)
	_, resolutions, err := New(nil).Render(msg)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if len(resolutions) != 1 || resolutions[0].Resolved {
		t.Errorf("resolutions = %+v, want unresolved http reference", resolutions)
	}
}

func TestRender_LazyLoadPromotion(t *testing.T) {
	att := gmailsource.Attachment{ContentID: "img1", ContentType: "image/gif", Data: []byte("gif")}
	msg := testMessage(`<img data-src="cid:img1" srcset="a.png 1x, b.png 2x" sizes="100vw">`, att)

	doc, resolutions, err := New(nil).Render(msg)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	out := string(doc.HTML)
	if strings.Contains(out, "srcset") || strings.Contains(out, "data-src") {
		t.Error("expected srcset and data-src stripped after promotion")
	}
	if !strings.Contains(out, "data:image/gif;base64,") {
		t.Error("expected promoted data-src cid resolved to data URI")
	}
	if len(resolutions) != 1 || !resolutions[0].Resolved {
		t.Errorf("resolutions = %+v, want one resolved entry", resolutions)
	}
}

func TestRender_HeaderEscaping(t *testing.T) {
	msg := testMessage("<p>body</p>")
	msg.Subject = `<script>alert("x")</script> & more`

	doc, _, err := New(nil).Render(msg)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	out := string(doc.HTML)
	if strings.Contains(out, "<script>alert") {
		t.Error("subject markup must be escaped in the header block")
	}
	if !strings.Contains(out, "&lt;script&gt;") {
		t.Error("expected escaped subject in header block")
	}
}

func TestRender_PlainBodyFallback(t *testing.T) {
	msg := testMessage("")
	msg.PlainBody = "line one\nline two"

	doc, _, err := New(nil).Render(msg)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(string(doc.HTML), "<pre>line one\nline two</pre>") {
		t.Error("expected plain body wrapped in <pre> when no HTML part exists")
	}
}

func TestRender_BaseNameUsesCert(t *testing.T) {
	msg := testMessage("<p>x</p>")
	doc, _, err := New(nil).Render(msg)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if doc.BaseName != "2024-03-05 - PSA 12345678" {
		t.Errorf("BaseName = %q, want 2024-03-05 - PSA 12345678", doc.BaseName)
	}
}

func TestUnwrapProxyURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "proxy wrapper",
			input: "https://ci3.googleusercontent.com/proxy/AbCdEf#https://example.com/a.png",
			want:  "https://example.com/a.png",
		},
		{
			name:  "plain url untouched",
			input: "https://example.com/a.png",
			want:  "https://example.com/a.png",
		},
		{
			name:  "fragment without proxy host untouched",
			input: "https://example.com/page#https://other.com/a.png",
			want:  "https://example.com/page#https://other.com/a.png",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := unwrapProxyURL(tt.input); got != tt.want {
				t.Errorf("unwrapProxyURL(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeContentID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"<abc123>", "abc123"},
		{" <ABC123> ", "abc123"},
		{"abc123", "abc123"},
	}
	for _, tt := range tests {
		if got := normalizeContentID(tt.input); got != tt.want {
			t.Errorf("normalizeContentID(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
