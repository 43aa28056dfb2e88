// Package drivestore adapts the Drive API to the hierarchical file store
// interface: resolve-or-create slash-delimited folder paths and write named
// binary files into them.
package drivestore

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const folderMimeType = "application/vnd.google-apps.folder"

// Client wraps the Drive API service.
type Client struct {
	svc *drive.Service
}

// NewClient creates a Drive client.
func NewClient(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("drivestore: create service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// EnsureFolderPath resolves a slash-delimited folder path from the Drive
// root, creating any missing segment, and returns the leaf folder's ID.
func (c *Client) EnsureFolderPath(ctx context.Context, path string) (string, error) {
	parent := "root"
	for _, segment := range strings.Split(path, "/") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		id, err := c.findFolder(ctx, parent, segment)
		if err != nil {
			return "", err
		}
		if id == "" {
			id, err = c.createFolder(ctx, parent, segment)
			if err != nil {
				return "", err
			}
		}
		parent = id
	}
	if parent == "root" {
		return "", fmt.Errorf("drivestore: empty folder path %q", path)
	}
	return parent, nil
}

func (c *Client) findFolder(ctx context.Context, parentID, name string) (string, error) {
	query := fmt.Sprintf("name = '%s' and mimeType = '%s' and '%s' in parents and trashed = false",
		escapeQueryValue(name), folderMimeType, parentID)
	resp, err := c.svc.Files.List().Q(query).Fields("files(id)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("drivestore: find folder %q: %w", name, err)
	}
	if len(resp.Files) == 0 {
		return "", nil
	}
	return resp.Files[0].Id, nil
}

func (c *Client) createFolder(ctx context.Context, parentID, name string) (string, error) {
	f := &drive.File{
		Name:     name,
		MimeType: folderMimeType,
		Parents:  []string{parentID},
	}
	created, err := c.svc.Files.Create(f).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("drivestore: create folder %q: %w", name, err)
	}
	return created.Id, nil
}

// WriteFile creates a named binary file inside folderID and returns the new
// file's ID. Every call creates a fresh file; the ledger is what prevents
// duplicate writes for the same message.
func (c *Client) WriteFile(ctx context.Context, folderID, name, mimeType string, data []byte) (string, error) {
	f := &drive.File{
		Name:    name,
		Parents: []string{folderID},
	}
	created, err := c.svc.Files.Create(f).
		Media(bytes.NewReader(data), googleapi.ContentType(mimeType)).
		Fields("id").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("drivestore: write file %q: %w", name, err)
	}
	return created.Id, nil
}

// escapeQueryValue escapes quotes and backslashes for Drive query strings.
func escapeQueryValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
