// Package inmemory is a RecordStore kept entirely in process memory. It is
// used by tests and by local development runs without Sheets credentials.
// Data is lost on restart.
package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dvloznov/finance-bot/internal/store"
)

// Store is an in-memory implementation of store.RecordStore.
// It is safe for concurrent use. Row indexes are 1-based positions in the
// table and shift down when an earlier row is deleted, matching how
// spreadsheet rows behave.
type Store struct {
	mu   sync.RWMutex
	rows [][]string
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{}
}

// Seed replaces the store contents with the given rows. Test helper.
func (s *Store) Seed(rows [][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = nil
	for _, r := range rows {
		s.rows = append(s.rows, append([]string(nil), r...))
	}
}

// Len returns the current row count.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// LookupByKey implements store.RecordStore.
func (s *Store) LookupByKey(ctx context.Context, key string) (*store.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i, r := range s.rows {
		if len(r) > 0 && r[0] == key {
			row := store.Row{Index: i + 1, Cells: append([]string(nil), r...)}
			return &row, nil
		}
	}
	return nil, nil
}

// SearchByColumn implements store.RecordStore.
func (s *Store) SearchByColumn(ctx context.Context, column int, value string) ([]store.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.Row
	for i, r := range s.rows {
		if column < len(r) && r[column] == value {
			out = append(out, store.Row{Index: i + 1, Cells: append([]string(nil), r...)})
		}
	}
	return out, nil
}

// ListAll implements store.RecordStore.
func (s *Store) ListAll(ctx context.Context) ([]store.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Row, 0, len(s.rows))
	for i, r := range s.rows {
		out = append(out, store.Row{Index: i + 1, Cells: append([]string(nil), r...)})
	}
	return out, nil
}

// Append implements store.RecordStore.
func (s *Store) Append(ctx context.Context, cells []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows = append(s.rows, append([]string(nil), cells...))
	return nil
}

// OverwriteCell implements store.RecordStore.
func (s *Store) OverwriteCell(ctx context.Context, rowIndex, column int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := rowIndex - 1
	if i < 0 || i >= len(s.rows) {
		return fmt.Errorf("OverwriteCell: row %d out of range", rowIndex)
	}
	row := s.rows[i]
	for len(row) <= column {
		row = append(row, "")
	}
	row[column] = value
	s.rows[i] = row
	return nil
}

// DeleteRow implements store.RecordStore.
func (s *Store) DeleteRow(ctx context.Context, rowIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := rowIndex - 1
	if i < 0 || i >= len(s.rows) {
		return fmt.Errorf("DeleteRow: row %d out of range", rowIndex)
	}
	s.rows = append(s.rows[:i], s.rows[i+1:]...)
	return nil
}

// Flush implements store.RecordStore. Writes are immediate, so there is
// nothing to force.
func (s *Store) Flush(ctx context.Context) error {
	return nil
}
