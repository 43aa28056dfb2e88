// Package sheetstore adapts the Sheets API to the tabular-store interface:
// append-only sale rows, column-range reads for the derived ledger, and
// full-replace writes for the persisted one.
package sheetstore

import (
	"context"
	"fmt"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Client wraps one spreadsheet.
type Client struct {
	svc           *sheets.Service
	spreadsheetID string
}

// NewClient creates a Sheets client bound to spreadsheetID and verifies the
// spreadsheet exists; a missing spreadsheet is a configuration fault.
func NewClient(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*Client, error) {
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheetstore: create service: %w", err)
	}
	c := &Client{svc: svc, spreadsheetID: spreadsheetID}
	if _, err := svc.Spreadsheets.Get(spreadsheetID).Fields("spreadsheetId").Context(ctx).Do(); err != nil {
		if apiErr, ok := err.(*googleapi.Error); ok && apiErr.Code == 404 {
			return nil, fmt.Errorf("sheetstore: spreadsheet %q not found", spreadsheetID)
		}
		return nil, fmt.Errorf("sheetstore: probe spreadsheet: %w", err)
	}
	return c, nil
}

// AppendRow appends one row at the bottom of sheetName in fixed column
// order. Values go through USER_ENTERED so dates and numbers keep their
// native cell types.
func (c *Client) AppendRow(ctx context.Context, sheetName string, row []interface{}) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{row}}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, sheetName, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheetstore: append row to %s: %w", sheetName, err)
	}
	return nil
}

// ReadColumn reads a single-column A1 range, returning one string per
// non-empty row.
func (c *Client) ReadColumn(ctx context.Context, rangeA1 string) ([]string, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rangeA1).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheetstore: read %s: %w", rangeA1, err)
	}
	values := make([]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		s := fmt.Sprint(row[0])
		if s == "" {
			continue
		}
		values = append(values, s)
	}
	return values, nil
}

// OverwriteColumn clears sheetName entirely and rewrites column A from
// values. Callers must pass the complete desired contents, header included;
// this is a full replace, never an append.
func (c *Client) OverwriteColumn(ctx context.Context, sheetName string, values []string) error {
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, sheetName, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("sheetstore: clear %s: %w", sheetName, err)
	}
	rows := make([][]interface{}, len(values))
	for i, v := range values {
		rows[i] = []interface{}{v}
	}
	vr := &sheets.ValueRange{Values: rows}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, sheetName+"!A1", vr).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheetstore: overwrite %s: %w", sheetName, err)
	}
	return nil
}

// EnsureSheet creates the named sheet if it does not exist yet, optionally
// hidden from the spreadsheet's tab bar.
func (c *Client) EnsureSheet(ctx context.Context, title string, hidden bool) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheetstore: list sheets: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return nil
		}
	}
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: title, Hidden: hidden},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("sheetstore: add sheet %s: %w", title, err)
	}
	return nil
}
