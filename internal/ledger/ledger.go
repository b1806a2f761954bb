// Package ledger is the single write path for transactions: add, per-field
// update, delete with verification, and date-range queries. All semantic
// validation lives in internal/validate; the ledger wires it to the store.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-bot/internal/domain"
	"github.com/dvloznov/finance-bot/internal/store"
	"github.com/dvloznov/finance-bot/internal/txid"
	"github.com/dvloznov/finance-bot/internal/validate"
)

// ErrNotFound is returned when an id does not resolve to a live record.
var ErrNotFound = errors.New("transaction not found")

// ErrDeleteVerificationFailed marks a data-integrity anomaly: the store
// reported the row deleted but a re-check still finds it. Never retried
// silently; the caller surfaces it.
var ErrDeleteVerificationFailed = errors.New("transaction was not actually deleted")

// Column layout of the transactions table.
const (
	colID = iota
	colDate
	colDescription
	colKind
	colCategory
	colAmount
	colTag
	colAccount
	colNote
	columnCount
)

// CategoryResolver infers {category, tag} for a description.
// Implemented by category.Resolver.
type CategoryResolver interface {
	Resolve(ctx context.Context, description string) (category, tag string)
}

// Ledger owns all writes to the transactions table.
type Ledger struct {
	store    store.RecordStore
	ids      *txid.Generator
	resolver CategoryResolver // nil leaves absent categories Uncategorized
	log      zerolog.Logger
	now      func() time.Time
}

// New creates a Ledger over the given transactions table.
func New(st store.RecordStore, ids *txid.Generator, resolver CategoryResolver, log zerolog.Logger) *Ledger {
	return &Ledger{store: st, ids: ids, resolver: resolver, log: log, now: time.Now}
}

// WithClock overrides the time source. Test helper.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

func (l *Ledger) today() string {
	return l.now().In(domain.Location).Format(domain.DateFormat)
}

func transactionFromRow(r store.Row) (domain.Transaction, error) {
	amount, err := strconv.ParseInt(r.Cell(colAmount), 10, 64)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("transactionFromRow: parsing amount %q: %w", r.Cell(colAmount), err)
	}
	return domain.Transaction{
		ID:          r.Cell(colID),
		Date:        r.Cell(colDate),
		Description: r.Cell(colDescription),
		Kind:        domain.Kind(r.Cell(colKind)),
		Category:    r.Cell(colCategory),
		Amount:      amount,
		Tag:         r.Cell(colTag),
		Account:     r.Cell(colAccount),
		Note:        r.Cell(colNote),
	}, nil
}

func rowCells(tx domain.Transaction) []string {
	cells := make([]string, columnCount)
	cells[colID] = tx.ID
	cells[colDate] = tx.Date
	cells[colDescription] = tx.Description
	cells[colKind] = string(tx.Kind)
	cells[colCategory] = tx.Category
	cells[colAmount] = strconv.FormatInt(tx.Amount, 10)
	cells[colTag] = tx.Tag
	cells[colAccount] = tx.Account
	cells[colNote] = tx.Note
	return cells
}

// Add validates, resolves a missing category, generates an id and appends
// one record. Strictly all-or-nothing: a validation failure returns before
// any store mutation.
func (l *Ledger) Add(ctx context.Context, kind domain.Kind, in validate.RecordInput) (*domain.Transaction, error) {
	categoryAbsent := in.Category == ""

	normalized, err := validate.Record(in)
	if err != nil {
		return nil, err
	}

	// Category inference runs only when the caller supplied none; an
	// explicit category was already checked against the closed set.
	if categoryAbsent && l.resolver != nil {
		cat, tag := l.resolver.Resolve(ctx, normalized.Description)
		normalized.Category = cat
		if normalized.Tag == "" {
			normalized.Tag = tag
		}
	}

	if normalized.Date == "" {
		normalized.Date = l.today()
	}

	id, err := l.ids.Generate(ctx)
	if err != nil {
		return nil, fmt.Errorf("Add: %w", err)
	}

	tx := domain.Transaction{
		ID:          id,
		Date:        normalized.Date,
		Description: normalized.Description,
		Kind:        kind,
		Category:    normalized.Category,
		Amount:      normalized.Amount,
		Tag:         normalized.Tag,
		Account:     normalized.Account,
		Note:        normalized.Note,
	}

	if err := l.store.Append(ctx, rowCells(tx)); err != nil {
		return nil, fmt.Errorf("Add: appending record: %w", err)
	}

	l.log.Info().
		Str("id", tx.ID).
		Str("kind", string(tx.Kind)).
		Str("description", tx.Description).
		Int64("amount", tx.Amount).
		Str("category", tx.Category).
		Msg("Transaction recorded")

	return &tx, nil
}

// Get returns the live record with the given id, or ErrNotFound.
func (l *Ledger) Get(ctx context.Context, id string) (*domain.Transaction, error) {
	row, err := l.store.LookupByKey(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	if row == nil {
		return nil, ErrNotFound
	}
	tx, err := transactionFromRow(*row)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &tx, nil
}

// UpdateField validates newValue against the field's own validator, locates
// the record and overwrites exactly that field's cell, leaving every other
// field untouched.
func (l *Ledger) UpdateField(ctx context.Context, id string, field Field, newValue string) error {
	stored, column, err := validateFieldValue(field, newValue)
	if err != nil {
		return err
	}

	row, err := l.store.LookupByKey(ctx, id)
	if err != nil {
		return fmt.Errorf("UpdateField: %w", err)
	}
	if row == nil {
		return ErrNotFound
	}

	if err := l.store.OverwriteCell(ctx, row.Index, column, stored); err != nil {
		return fmt.Errorf("UpdateField: overwriting %s: %w", field, err)
	}

	l.log.Info().Str("id", id).Str("field", string(field)).Msg("Transaction updated")
	return nil
}

// Delete removes the record with the given id. After the store reports the
// row removed, pending writes are flushed and the record is looked up again;
// finding it still present is surfaced as ErrDeleteVerificationFailed, never
// retried.
func (l *Ledger) Delete(ctx context.Context, id string) error {
	row, err := l.store.LookupByKey(ctx, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if row == nil {
		return ErrNotFound
	}

	if err := l.store.DeleteRow(ctx, row.Index); err != nil {
		return fmt.Errorf("Delete: deleting row %d: %w", row.Index, err)
	}

	if err := l.store.Flush(ctx); err != nil {
		return fmt.Errorf("Delete: flushing store: %w", err)
	}

	verify, err := l.store.LookupByKey(ctx, id)
	if err != nil {
		return fmt.Errorf("Delete: verification lookup: %w", err)
	}
	if verify != nil {
		l.log.Error().Str("id", id).Int("row", verify.Index).Msg("Delete verification failed: record still present")
		return ErrDeleteVerificationFailed
	}

	l.log.Info().Str("id", id).Msg("Transaction deleted")
	return nil
}

// Recent returns the n most recently appended live records, oldest first.
func (l *Ledger) Recent(ctx context.Context, n int) ([]domain.Transaction, error) {
	rows, err := l.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("Recent: %w", err)
	}
	if len(rows) > n {
		rows = rows[len(rows)-n:]
	}

	out := make([]domain.Transaction, 0, len(rows))
	for _, r := range rows {
		tx, err := transactionFromRow(r)
		if err != nil {
			l.log.Warn().Err(err).Int("row", r.Index).Msg("Skipping malformed row")
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

// RangeQuery is an inclusive day-granularity date window.
type RangeQuery struct {
	Start string // YYYY-MM-DD
	End   string // YYYY-MM-DD
	// IsToday marks a query that meant "today" specifically, so the caller
	// can pick the short empty-state message.
	IsToday bool
}

// LastNDays builds the window covering the n most recent days up to today
// in the fixed UTC+7 calendar. n==1 is today only.
func (l *Ledger) LastNDays(n int) RangeQuery {
	if n < 1 {
		n = 1
	}
	today := l.now().In(domain.Location)
	start := today.AddDate(0, 0, -(n - 1))
	return RangeQuery{
		Start:   start.Format(domain.DateFormat),
		End:     today.Format(domain.DateFormat),
		IsToday: n == 1,
	}
}

// RangeResult holds the matching records sorted ascending by date and their
// running total. Empty is an explicit result, not an error.
type RangeResult struct {
	Transactions []domain.Transaction
	Total        int64
}

// Empty reports whether no records matched the window.
func (r *RangeResult) Empty() bool {
	return len(r.Transactions) == 0
}

// QueryRange filters live records whose date falls inside the window.
// Stored date strings compare lexicographically, so no parsing is needed
// for the filter itself.
func (l *Ledger) QueryRange(ctx context.Context, q RangeQuery) (*RangeResult, error) {
	if q.Start > q.End {
		return nil, &validate.FieldError{Field: "date", Message: "The start date cannot be later than the end date"}
	}

	rows, err := l.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryRange: %w", err)
	}

	result := &RangeResult{}
	for _, r := range rows {
		date := r.Cell(colDate)
		if date < q.Start || date > q.End {
			continue
		}
		tx, err := transactionFromRow(r)
		if err != nil {
			// A malformed row is skipped, not fatal for the report.
			l.log.Warn().Err(err).Int("row", r.Index).Msg("Skipping malformed row")
			continue
		}
		result.Transactions = append(result.Transactions, tx)
		result.Total += tx.Amount
	}

	sort.SliceStable(result.Transactions, func(i, j int) bool {
		return result.Transactions[i].Date < result.Transactions[j].Date
	})

	return result, nil
}
