package processor

import (
	"context"

	"github.com/dvloznov/sales-tracker/internal/gmailsource"
	"github.com/dvloznov/sales-tracker/internal/render"
)

// Source is the paginated, labeled, read-only message source.
type Source interface {
	// ResolveLabel maps a label name to the source's label ID.
	ResolveLabel(ctx context.Context, name string) (string, error)
	// ListPage returns one page of messages plus the next page token;
	// a short page or empty token ends the scan.
	ListPage(ctx context.Context, labelID, pageToken string, pageSize int64) ([]*gmailsource.Message, string, error)
}

// Table is the tabular sink: sale rows, ledger column reads, and the
// render ledger's full-replace persistence.
type Table interface {
	AppendRow(ctx context.Context, sheetName string, row []interface{}) error
	ReadColumn(ctx context.Context, rangeA1 string) ([]string, error)
	OverwriteColumn(ctx context.Context, sheetName string, values []string) error
	EnsureSheet(ctx context.Context, title string, hidden bool) error
}

// Files is the hierarchical file store for rendered snapshots.
type Files interface {
	EnsureFolderPath(ctx context.Context, path string) (string, error)
	WriteFile(ctx context.Context, folderID, name, mimeType string, data []byte) (string, error)
}

// Renderer produces the snapshot document for one message.
type Renderer interface {
	Render(msg *gmailsource.Message) (*render.Document, []render.ImageResolution, error)
}

// Converter turns a rendered HTML snapshot into its final binary format.
// A nil Converter keeps the snapshot as HTML.
type Converter interface {
	Convert(ctx context.Context, htmlDoc []byte) ([]byte, error)
}
