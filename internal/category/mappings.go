package category

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/finance-bot/internal/domain"
	"github.com/dvloznov/finance-bot/internal/store"
)

// Column layout of the category mapping table.
const (
	colDescription = 0
	colCategory    = 1
	colTag         = 2
	colUpdatedAt   = 3
)

const updatedAtFormat = "2006-01-02 15:04:05"

// MappingTable reads and writes description → category/tag mappings on a
// RecordStore table.
type MappingTable struct {
	store store.RecordStore
}

// NewMappingTable wraps the given store table.
func NewMappingTable(st store.RecordStore) *MappingTable {
	return &MappingTable{store: st}
}

func mappingFromRow(r store.Row) domain.CategoryMapping {
	return domain.CategoryMapping{
		Description: r.Cell(colDescription),
		Category:    r.Cell(colCategory),
		Tag:         r.Cell(colTag),
		UpdatedAt:   r.Cell(colUpdatedAt),
	}
}

// Lookup returns the mapping whose description matches exactly, or nil.
func (t *MappingTable) Lookup(ctx context.Context, description string) (*domain.CategoryMapping, error) {
	row, err := t.store.LookupByKey(ctx, description)
	if err != nil {
		return nil, fmt.Errorf("Lookup: %w", err)
	}
	if row == nil {
		return nil, nil
	}
	m := mappingFromRow(*row)
	return &m, nil
}

// All returns every stored mapping in table order.
func (t *MappingTable) All(ctx context.Context) ([]domain.CategoryMapping, error) {
	rows, err := t.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("All: %w", err)
	}
	out := make([]domain.CategoryMapping, 0, len(rows))
	for _, r := range rows {
		out = append(out, mappingFromRow(r))
	}
	return out, nil
}

// Save upserts a mapping. An existing row for the same description is
// overwritten in place; otherwise a new row is appended. This is the only
// write path into the mapping table; the resolver never persists its
// inferences.
func (t *MappingTable) Save(ctx context.Context, description, categoryName, tag string) error {
	now := time.Now().In(domain.Location).Format(updatedAtFormat)

	existing, err := t.store.LookupByKey(ctx, description)
	if err != nil {
		return fmt.Errorf("Save: looking up existing mapping: %w", err)
	}

	if existing != nil {
		for col, value := range map[int]string{
			colCategory:  categoryName,
			colTag:       tag,
			colUpdatedAt: now,
		} {
			if err := t.store.OverwriteCell(ctx, existing.Index, col, value); err != nil {
				return fmt.Errorf("Save: overwriting mapping: %w", err)
			}
		}
		return nil
	}

	if err := t.store.Append(ctx, []string{description, categoryName, tag, now}); err != nil {
		return fmt.Errorf("Save: appending mapping: %w", err)
	}
	return nil
}
