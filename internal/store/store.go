// Package store defines the row-oriented table contract the rest of the
// system persists through. Two implementations exist: store/sheets backed by
// a Google Sheets spreadsheet, and store/inmemory for tests and local runs.
package store

import "context"

// Row is one table row as returned by a read. Index is the implementation's
// own address for the row; callers must pass back the Index they got from a
// read when overwriting or deleting, never compute one.
type Row struct {
	Index int
	Cells []string
}

// Cell returns the cell at column i, or "" when the row is shorter.
func (r Row) Cell(i int) string {
	if i < 0 || i >= len(r.Cells) {
		return ""
	}
	return r.Cells[i]
}

// RecordStore is a row-oriented key-value table. The key lives in the first
// column of every row. Reads always go to the backing table; nothing is
// cached between calls.
type RecordStore interface {
	// LookupByKey returns the row whose key column equals key, or nil when
	// no such row exists.
	LookupByKey(ctx context.Context, key string) (*Row, error)

	// SearchByColumn returns every row whose given column equals value.
	SearchByColumn(ctx context.Context, column int, value string) ([]Row, error)

	// ListAll returns every data row in table order.
	ListAll(ctx context.Context) ([]Row, error)

	// Append adds one row after the last data row.
	Append(ctx context.Context, cells []string) error

	// OverwriteCell replaces a single cell in place, leaving the rest of the
	// row untouched.
	OverwriteCell(ctx context.Context, rowIndex, column int, value string) error

	// DeleteRow removes the row at rowIndex.
	DeleteRow(ctx context.Context, rowIndex int) error

	// Flush forces any deferred writes through to durable storage. Callers
	// invoke it after a delete before re-verifying the row is gone.
	Flush(ctx context.Context) error
}
