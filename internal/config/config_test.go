package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeTempConfig(t, `
gmail:
  label: SoldItems
sheets:
  spreadsheet_id: sheet-123
drive:
  folder_path: Sales/Snapshots
run:
  page_size: 25
  max_per_run: 100
render:
  format: html
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Gmail.Label != "SoldItems" {
		t.Errorf("Label = %q, want SoldItems", cfg.Gmail.Label)
	}
	if cfg.Run.PageSize != 25 {
		t.Errorf("PageSize = %d, want 25", cfg.Run.PageSize)
	}
	if cfg.Render.Format != FormatHTML {
		t.Errorf("Format = %q, want html", cfg.Render.Format)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeTempConfig(t, `
gmail:
  label: SoldItems
sheets:
  spreadsheet_id: sheet-123
drive:
  folder_path: Sales
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Sheets.SalesSheet != "Sales" {
		t.Errorf("SalesSheet = %q, want Sales", cfg.Sheets.SalesSheet)
	}
	if cfg.Sheets.LedgerSheet != "RenderedEmails" {
		t.Errorf("LedgerSheet = %q, want RenderedEmails", cfg.Sheets.LedgerSheet)
	}
	if cfg.Run.PageSize != 50 {
		t.Errorf("PageSize = %d, want 50", cfg.Run.PageSize)
	}
	if cfg.Render.Format != FormatPDF {
		t.Errorf("Format = %q, want pdf", cfg.Render.Format)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		Gmail:  GmailConfig{Label: "SoldItems"},
		Sheets: SheetsConfig{SpreadsheetID: "sheet-123", SalesSheet: "Sales", LedgerSheet: "RenderedEmails"},
		Drive:  DriveConfig{FolderPath: "Sales"},
		Run:    RunConfig{PageSize: 50},
		Render: RenderConfig{Format: FormatHTML},
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}, wantErr: false},
		{name: "missing label", mutate: func(c *Config) { c.Gmail.Label = "" }, wantErr: true},
		{name: "missing spreadsheet", mutate: func(c *Config) { c.Sheets.SpreadsheetID = "" }, wantErr: true},
		{name: "missing folder", mutate: func(c *Config) { c.Drive.FolderPath = "" }, wantErr: true},
		{name: "negative cap", mutate: func(c *Config) { c.Run.MaxPerRun = -1 }, wantErr: true},
		{name: "bad format", mutate: func(c *Config) { c.Render.Format = "docx" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
