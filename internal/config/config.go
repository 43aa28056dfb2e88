// Package config loads the deployment-time configuration for the sales
// tracker. All values are fixed per deployment; the only runtime input is
// the path to the YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RenderFormat selects the on-disk format of rendered snapshots.
type RenderFormat string

const (
	FormatHTML RenderFormat = "html"
	FormatPDF  RenderFormat = "pdf"
)

// GmailConfig selects which inbox subset to scan.
type GmailConfig struct {
	// Label is the Gmail label whose messages are processed.
	Label string `yaml:"label"`
}

// SheetsConfig names the spreadsheet and the two sheets used as sinks.
type SheetsConfig struct {
	SpreadsheetID string `yaml:"spreadsheet_id"`
	// SalesSheet is the tab sale rows are appended to.
	SalesSheet string `yaml:"sales_sheet"`
	// LedgerSheet is the hidden tab holding rendered message ids.
	LedgerSheet string `yaml:"ledger_sheet"`
}

// DriveConfig names where rendered snapshots are written.
type DriveConfig struct {
	// FolderPath is a slash-delimited path resolved (and created) under
	// the Drive root, e.g. "Sales/Snapshots".
	FolderPath string `yaml:"folder_path"`
}

// RunConfig bounds a single invocation.
type RunConfig struct {
	// PageSize is the number of messages fetched per source page.
	PageSize int64 `yaml:"page_size"`
	// MaxPerRun caps how many messages may be acted on in one run.
	// Zero means no cap.
	MaxPerRun int `yaml:"max_per_run"`
}

// RenderConfig controls snapshot rendering.
type RenderConfig struct {
	Format RenderFormat `yaml:"format"`
}

// Config is the full deployment configuration.
type Config struct {
	Gmail  GmailConfig  `yaml:"gmail"`
	Sheets SheetsConfig `yaml:"sheets"`
	Drive  DriveConfig  `yaml:"drive"`
	Run    RunConfig    `yaml:"run"`
	Render RenderConfig `yaml:"render"`
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Sheets.SalesSheet == "" {
		c.Sheets.SalesSheet = "Sales"
	}
	if c.Sheets.LedgerSheet == "" {
		c.Sheets.LedgerSheet = "RenderedEmails"
	}
	if c.Run.PageSize <= 0 {
		c.Run.PageSize = 50
	}
	if c.Render.Format == "" {
		c.Render.Format = FormatPDF
	}
}

// Validate reports the first configuration fault. A fault here aborts the
// run before any message is touched.
func (c *Config) Validate() error {
	if c.Gmail.Label == "" {
		return fmt.Errorf("config: gmail.label is required")
	}
	if c.Sheets.SpreadsheetID == "" {
		return fmt.Errorf("config: sheets.spreadsheet_id is required")
	}
	if c.Drive.FolderPath == "" {
		return fmt.Errorf("config: drive.folder_path is required")
	}
	if c.Run.MaxPerRun < 0 {
		return fmt.Errorf("config: run.max_per_run must not be negative")
	}
	switch c.Render.Format {
	case FormatHTML, FormatPDF:
	default:
		return fmt.Errorf("config: render.format must be %q or %q, got %q", FormatHTML, FormatPDF, c.Render.Format)
	}
	return nil
}
