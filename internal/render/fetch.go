package render

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
)

var errImageTooLarge = errors.New("image exceeds size cap")

// fetchImage downloads one remote image, bounded by maxRemoteImageBytes.
// It never retries; any fault is returned so the caller can leave the
// original reference in place.
func (r *Renderer) fetchImage(rawURL string) ([]byte, string, error) {
	resp, err := r.client.Get(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("fetch status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteImageBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("fetch read: %w", err)
	}
	if int64(len(data)) > maxRemoteImageBytes {
		return nil, "", errImageTooLarge
	}

	contentType := resp.Header.Get("Content-Type")
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		contentType = inferContentType(rawURL)
	}
	return data, contentType, nil
}

// inferContentType guesses an image type from the URL's file extension.
// Unknown extensions fall back to opaque binary.
func inferContentType(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "application/octet-stream"
	}
	switch strings.ToLower(path.Ext(u.Path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
