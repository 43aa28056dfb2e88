package render

import (
	"encoding/base64"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dvloznov/sales-tracker/internal/gmailsource"
)

// resolveImages walks the DOM and rewrites every <img> reference it can
// make self-contained. Unresolvable references keep their original value.
func (r *Renderer) resolveImages(n *html.Node, attachments map[string]gmailsource.Attachment, out *[]ImageResolution) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Img {
		normalizeImgAttrs(n)
		r.resolveImg(n, attachments, out)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		r.resolveImages(c, attachments, out)
	}
}

// normalizeImgAttrs promotes lazy-load source attributes to src and strips
// responsive candidate sets, which cannot survive inlining.
func normalizeImgAttrs(n *html.Node) {
	if v := getAttr(n, "data-src"); v != "" {
		setAttr(n, "src", v)
		removeAttr(n, "data-src")
	} else if v := getAttr(n, "data-original"); v != "" {
		setAttr(n, "src", v)
		removeAttr(n, "data-original")
	}
	removeAttr(n, "srcset")
	removeAttr(n, "sizes")
}

func (r *Renderer) resolveImg(n *html.Node, attachments map[string]gmailsource.Attachment, out *[]ImageResolution) {
	src := getAttr(n, "src")
	switch {
	case strings.HasPrefix(strings.ToLower(src), "cid:"):
		key := normalizeContentID(src[len("cid:"):])
		att, ok := attachments[key]
		if !ok {
			*out = append(*out, ImageResolution{Ref: src, Reason: "no matching attachment"})
			return
		}
		setAttr(n, "src", dataURI(att.ContentType, att.Data))
		*out = append(*out, ImageResolution{Ref: src, Resolved: true, Reason: "inlined attachment"})

	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		target := unwrapProxyURL(src)
		if len(target) > maxImageURLLen {
			*out = append(*out, ImageResolution{Ref: src, Reason: "url too long"})
			return
		}
		if !strings.HasPrefix(target, "https://") {
			*out = append(*out, ImageResolution{Ref: src, Reason: "insecure scheme"})
			return
		}
		data, contentType, err := r.fetchImage(target)
		if err != nil {
			*out = append(*out, ImageResolution{Ref: src, Reason: err.Error()})
			return
		}
		setAttr(n, "src", dataURI(contentType, data))
		*out = append(*out, ImageResolution{Ref: src, Resolved: true, Reason: "fetched"})
	}
}

// unwrapProxyURL recovers the original URL from an image-proxy wrapper,
// which appends the upstream URL as a fragment:
// https://ci3.googleusercontent.com/proxy/<token>#https://example.com/a.png
func unwrapProxyURL(raw string) string {
	i := strings.Index(raw, "#http")
	if i < 0 {
		return raw
	}
	if !strings.Contains(raw[:i], "googleusercontent.com/proxy/") {
		return raw
	}
	return raw[i+1:]
}

func dataURI(contentType string, data []byte) string {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}
