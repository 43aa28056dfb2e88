package ledger

import (
	"context"
	"errors"
	"testing"
)

// mockTable is an in-memory stand-in for the tabular store.
type mockTable struct {
	columns    map[string][]string // range A1 -> values
	sheets     map[string]bool     // title -> hidden
	written    map[string][]string // sheet -> last overwrite
	readErr    error
	ensureErr  error
	overwrites int
}

func newMockTable() *mockTable {
	return &mockTable{
		columns: make(map[string][]string),
		sheets:  make(map[string]bool),
		written: make(map[string][]string),
	}
}

func (m *mockTable) ReadColumn(ctx context.Context, rangeA1 string) ([]string, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	return m.columns[rangeA1], nil
}

func (m *mockTable) EnsureSheet(ctx context.Context, title string, hidden bool) error {
	if m.ensureErr != nil {
		return m.ensureErr
	}
	m.sheets[title] = hidden
	return nil
}

func (m *mockTable) OverwriteColumn(ctx context.Context, sheetName string, values []string) error {
	m.overwrites++
	m.written[sheetName] = append([]string(nil), values...)
	return nil
}

func TestLoadRecordLedger(t *testing.T) {
	table := newMockTable()
	table.columns["Sales!G2:G"] = []string{"msg-1", "msg-2", "msg-2"}

	l, err := LoadRecordLedger(context.Background(), table, "Sales")
	if err != nil {
		t.Fatalf("LoadRecordLedger failed: %v", err)
	}
	if !l.Contains("msg-1") || !l.Contains("msg-2") {
		t.Error("expected msg-1 and msg-2 in record ledger")
	}
	if l.Contains("msg-3") {
		t.Error("msg-3 should not be in record ledger")
	}
	if l.Len() != 2 {
		t.Errorf("Len = %d, want 2 (duplicates collapse)", l.Len())
	}
}

func TestRecordLedger_Mark(t *testing.T) {
	table := newMockTable()
	l, err := LoadRecordLedger(context.Background(), table, "Sales")
	if err != nil {
		t.Fatalf("LoadRecordLedger failed: %v", err)
	}
	l.Mark("msg-9")
	if !l.Contains("msg-9") {
		t.Error("expected msg-9 after Mark")
	}
}

func TestLoadRecordLedger_ReadError(t *testing.T) {
	table := newMockTable()
	table.readErr = errors.New("boom")
	if _, err := LoadRecordLedger(context.Background(), table, "Sales"); err == nil {
		t.Error("expected error from failing read")
	}
}

func TestLoadRenderLedger_CreatesHiddenSheet(t *testing.T) {
	table := newMockTable()
	l, err := LoadRenderLedger(context.Background(), table, "RenderedEmails")
	if err != nil {
		t.Fatalf("LoadRenderLedger failed: %v", err)
	}
	hidden, ok := table.sheets["RenderedEmails"]
	if !ok {
		t.Fatal("expected ledger sheet to be ensured")
	}
	if !hidden {
		t.Error("expected ledger sheet to be hidden")
	}
	if l.Len() != 0 {
		t.Errorf("Len = %d, want 0", l.Len())
	}
}

func TestRenderLedger_SaveFullReplace(t *testing.T) {
	table := newMockTable()
	table.columns["RenderedEmails!A2:A"] = []string{"old-1", "old-2"}

	l, err := LoadRenderLedger(context.Background(), table, "RenderedEmails")
	if err != nil {
		t.Fatalf("LoadRenderLedger failed: %v", err)
	}
	l.Add("new-1")

	if err := l.Save(context.Background()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got := table.written["RenderedEmails"]
	want := []string{"Rendered Message IDs", "new-1", "old-1", "old-2"}
	if len(got) != len(want) {
		t.Fatalf("saved %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("saved[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRenderLedger_SaveWithNoNewEntries(t *testing.T) {
	table := newMockTable()
	l, err := LoadRenderLedger(context.Background(), table, "RenderedEmails")
	if err != nil {
		t.Fatalf("LoadRenderLedger failed: %v", err)
	}

	// Saving an empty ledger still normalizes the sheet contents.
	if err := l.Save(context.Background()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got := table.written["RenderedEmails"]
	if len(got) != 1 || got[0] != "Rendered Message IDs" {
		t.Errorf("saved %v, want just the header row", got)
	}
}
