// Package sheets implements store.RecordStore on top of one sheet of a
// Google Sheets spreadsheet. One Table instance is constructed per logical
// table (transactions, category mappings) and passed explicitly to the
// components that need it.
package sheets

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/dvloznov/finance-bot/internal/store"
)

// Table is a RecordStore backed by a single sheet. Row indexes are absolute
// sheet row numbers (1-based, header included), so they can be fed straight
// back into overwrite and delete calls.
type Table struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	sheetName     string
	sheetID       int64
	headerRows    int
}

// Config identifies one sheet within a spreadsheet.
type Config struct {
	SpreadsheetID string
	SheetName     string
	// HeaderRows is the number of leading rows to skip on reads. Defaults
	// to 1 when zero.
	HeaderRows int
}

// NewService creates a Sheets API client using application default
// credentials, or an explicit credentials file when path is non-empty.
func NewService(ctx context.Context, credentialsFile string) (*sheetsapi.Service, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	svc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewService: creating sheets client: %w", err)
	}
	return svc, nil
}

// NewTable binds a RecordStore to one sheet. It resolves the sheet's numeric
// id up front; row deletion needs it.
func NewTable(ctx context.Context, svc *sheetsapi.Service, cfg Config) (*Table, error) {
	meta, err := svc.Spreadsheets.Get(cfg.SpreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("NewTable: fetching spreadsheet metadata: %w", err)
	}

	var sheetID int64 = -1
	for _, sh := range meta.Sheets {
		if sh.Properties != nil && sh.Properties.Title == cfg.SheetName {
			sheetID = sh.Properties.SheetId
			break
		}
	}
	if sheetID < 0 {
		return nil, fmt.Errorf("NewTable: sheet %q not found in spreadsheet", cfg.SheetName)
	}

	headerRows := cfg.HeaderRows
	if headerRows == 0 {
		headerRows = 1
	}

	return &Table{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
		sheetID:       sheetID,
		headerRows:    headerRows,
	}, nil
}

func (t *Table) readAll(ctx context.Context) ([]store.Row, error) {
	resp, err := t.svc.Spreadsheets.Values.Get(t.spreadsheetID, t.sheetName).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("readAll: fetching values: %w", err)
	}

	var rows []store.Row
	for i, raw := range resp.Values {
		if i < t.headerRows {
			continue
		}
		cells := make([]string, len(raw))
		for j, v := range raw {
			cells[j] = fmt.Sprint(v)
		}
		rows = append(rows, store.Row{Index: i + 1, Cells: cells})
	}
	return rows, nil
}

// LookupByKey implements store.RecordStore.
func (t *Table) LookupByKey(ctx context.Context, key string) (*store.Row, error) {
	rows, err := t.readAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("LookupByKey: %w", err)
	}
	for _, r := range rows {
		if r.Cell(0) == key {
			row := r
			return &row, nil
		}
	}
	return nil, nil
}

// SearchByColumn implements store.RecordStore.
func (t *Table) SearchByColumn(ctx context.Context, column int, value string) ([]store.Row, error) {
	rows, err := t.readAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("SearchByColumn: %w", err)
	}
	var out []store.Row
	for _, r := range rows {
		if r.Cell(column) == value {
			out = append(out, r)
		}
	}
	return out, nil
}

// ListAll implements store.RecordStore.
func (t *Table) ListAll(ctx context.Context) ([]store.Row, error) {
	rows, err := t.readAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListAll: %w", err)
	}
	return rows, nil
}

// Append implements store.RecordStore.
func (t *Table) Append(ctx context.Context, cells []string) error {
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}

	vr := &sheetsapi.ValueRange{Values: [][]interface{}{values}}
	_, err := t.svc.Spreadsheets.Values.
		Append(t.spreadsheetID, t.sheetName, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("Append: appending row: %w", err)
	}
	return nil
}

// OverwriteCell implements store.RecordStore.
func (t *Table) OverwriteCell(ctx context.Context, rowIndex, column int, value string) error {
	rangeRef := fmt.Sprintf("%s!%s%d", t.sheetName, columnLetter(column), rowIndex)
	vr := &sheetsapi.ValueRange{Values: [][]interface{}{{value}}}

	_, err := t.svc.Spreadsheets.Values.
		Update(t.spreadsheetID, rangeRef, vr).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("OverwriteCell: updating %s: %w", rangeRef, err)
	}
	return nil
}

// DeleteRow implements store.RecordStore.
func (t *Table) DeleteRow(ctx context.Context, rowIndex int) error {
	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			DeleteDimension: &sheetsapi.DeleteDimensionRequest{
				Range: &sheetsapi.DimensionRange{
					SheetId:    t.sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(rowIndex - 1),
					EndIndex:   int64(rowIndex),
				},
			},
		}},
	}

	_, err := t.svc.Spreadsheets.BatchUpdate(t.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("DeleteRow: deleting row %d: %w", rowIndex, err)
	}
	return nil
}

// Flush implements store.RecordStore. Sheets API mutations are applied
// synchronously server-side; a metadata read forces a round trip so a
// subsequent verification read observes the mutation.
func (t *Table) Flush(ctx context.Context) error {
	_, err := t.svc.Spreadsheets.Get(t.spreadsheetID).Fields("spreadsheetId").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("Flush: %w", err)
	}
	return nil
}

// columnLetter converts a 0-based column index to its A1 letter form.
func columnLetter(column int) string {
	s := ""
	n := column
	for {
		s = string(rune('A'+n%26)) + s
		n = n/26 - 1
		if n < 0 {
			break
		}
	}
	return s
}
