// Package ledger enforces at-most-once side effects per message via two
// independent sets of message ids: a derived one recomputed each run from
// the sales sheet's dedup-key column, and a persisted one kept in its own
// hidden sheet for the rendering side effect, which leaves no trace the
// orchestrator could cheaply re-scan.
package ledger

import (
	"context"
	"fmt"
	"sort"
)

// Header row of the render-ledger sheet.
const renderLedgerHeader = "Rendered Message IDs"

// dedupKeyColumn is the sales sheet column holding source message ids
// (7th column, first data row onward).
const dedupKeyColumn = "G2:G"

// ColumnReader reads a single-column A1 range from the tabular store.
type ColumnReader interface {
	ReadColumn(ctx context.Context, rangeA1 string) ([]string, error)
}

// LedgerTable is the slice of the tabular store the render ledger needs.
type LedgerTable interface {
	ColumnReader
	EnsureSheet(ctx context.Context, title string, hidden bool) error
	OverwriteColumn(ctx context.Context, sheetName string, values []string) error
}

// RecordLedger is the derived projection of already-recorded message ids.
// It is rebuilt from the sink every run and never persisted separately.
type RecordLedger struct {
	ids map[string]bool
}

// LoadRecordLedger scans the dedup-key column of salesSheet into a set.
func LoadRecordLedger(ctx context.Context, r ColumnReader, salesSheet string) (*RecordLedger, error) {
	ids, err := r.ReadColumn(ctx, salesSheet+"!"+dedupKeyColumn)
	if err != nil {
		return nil, fmt.Errorf("ledger: load record ledger: %w", err)
	}
	l := &RecordLedger{ids: make(map[string]bool, len(ids))}
	for _, id := range ids {
		l.ids[id] = true
	}
	return l, nil
}

// Contains reports whether id was already recorded.
func (l *RecordLedger) Contains(id string) bool { return l.ids[id] }

// Mark notes id as recorded for the remainder of this run. The persisted
// state is the appended row itself; this only guards against the same id
// appearing twice within one scan.
func (l *RecordLedger) Mark(id string) { l.ids[id] = true }

// Len returns the number of recorded ids.
func (l *RecordLedger) Len() int { return len(l.ids) }

// RenderLedger is the persisted set of message ids whose snapshot was
// successfully written. Save is a full replace, so the in-memory set must
// stay the complete superset of old and new entries.
type RenderLedger struct {
	table LedgerTable
	sheet string
	ids   map[string]bool
}

// LoadRenderLedger reads the ledger sheet into memory, creating the sheet
// (hidden, with its header row) on first use.
func LoadRenderLedger(ctx context.Context, table LedgerTable, sheetName string) (*RenderLedger, error) {
	if err := table.EnsureSheet(ctx, sheetName, true); err != nil {
		return nil, fmt.Errorf("ledger: ensure render ledger sheet: %w", err)
	}
	rows, err := table.ReadColumn(ctx, sheetName+"!A2:A")
	if err != nil {
		return nil, fmt.Errorf("ledger: load render ledger: %w", err)
	}
	l := &RenderLedger{
		table: table,
		sheet: sheetName,
		ids:   make(map[string]bool, len(rows)),
	}
	for _, id := range rows {
		l.ids[id] = true
	}
	return l, nil
}

// Contains reports whether a snapshot for id was already written.
func (l *RenderLedger) Contains(id string) bool { return l.ids[id] }

// Add marks id as rendered. Callers must only add after the file write
// succeeded; a speculative add would suppress the retry a failed write
// needs.
func (l *RenderLedger) Add(id string) { l.ids[id] = true }

// Len returns the number of rendered ids.
func (l *RenderLedger) Len() int { return len(l.ids) }

// Save rewrites the ledger sheet from the full in-memory set, header
// included. Ids are sorted so successive saves of the same set are
// byte-identical.
func (l *RenderLedger) Save(ctx context.Context) error {
	values := make([]string, 0, len(l.ids)+1)
	values = append(values, renderLedgerHeader)
	ids := make([]string, 0, len(l.ids))
	for id := range l.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	values = append(values, ids...)
	if err := l.table.OverwriteColumn(ctx, l.sheet, values); err != nil {
		return fmt.Errorf("ledger: save render ledger: %w", err)
	}
	return nil
}
