// Package validate holds the field-level checks every transaction passes
// before it reaches the store. All functions are pure: no store access, no
// randomness, identical input always yields identical output.
package validate

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dvloznov/finance-bot/internal/domain"
)

// MaxAmount is the upper bound on a single transaction amount.
const MaxAmount = 1_000_000_000

// Length limits for the free-form string fields.
const (
	MaxDescriptionLen = 255
	MaxTagLen         = 100
	MaxAccountLen     = 100
	MaxNoteLen        = 500
)

// FieldError is a validation failure on one named field. The message is
// user-facing and names only the field and the constraint violated.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Message
}

func fieldErrorf(field, format string, args ...interface{}) *FieldError {
	return &FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Amount coerces raw into a positive integer amount. String input is
// accepted because amounts arrive as message text as often as numbers.
func Amount(raw string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fieldErrorf("amount", "Amount must be a valid number")
	}
	return AmountValue(n)
}

// AmountValue validates an already-numeric amount.
func AmountValue(n int64) (int64, error) {
	if n <= 0 {
		return 0, fieldErrorf("amount", "Amount must be greater than 0")
	}
	if n > MaxAmount {
		return 0, fieldErrorf("amount", "Amount exceeds maximum allowed value")
	}
	return n, nil
}

// Description validates the user-facing transaction label.
func Description(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fieldErrorf("description", "Expense name cannot be empty")
	}
	if len(trimmed) > MaxDescriptionLen {
		return "", fieldErrorf("description", "Expense name too long (max %d characters)", MaxDescriptionLen)
	}
	return trimmed, nil
}

// Category validates a category label against the closed set. Empty input is
// valid and normalizes to Uncategorized; anything else must match exactly.
func Category(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return domain.CategoryUncategorized, nil
	}
	if !domain.IsValidCategory(trimmed) {
		return "", fieldErrorf("category", "Invalid category. Allowed: %s", strings.Join(domain.Categories, ", "))
	}
	return trimmed, nil
}

// DateFormat validates a YYYY-MM-DD date string. The parse also rejects
// well-formed strings that are not real calendar dates.
func DateFormat(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) != len(domain.DateFormat) {
		return "", fieldErrorf("date", "Date must be in YYYY-MM-DD format")
	}
	if _, err := time.ParseInLocation(domain.DateFormat, trimmed, domain.Location); err != nil {
		return "", fieldErrorf("date", "Invalid date value")
	}
	return trimmed, nil
}

// Tag validates the optional tag field.
func Tag(raw string) (string, error) {
	return optionalString("tag", "Tag", raw, MaxTagLen)
}

// Note validates the optional note field.
func Note(raw string) (string, error) {
	return optionalString("note", "Note", raw, MaxNoteLen)
}

// Account validates the optional account field.
func Account(raw string) (string, error) {
	return optionalString("account", "Account name", raw, MaxAccountLen)
}

func optionalString(field, label, raw string, maxLen int) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil
	}
	if len(trimmed) > maxLen {
		return "", fieldErrorf(field, "%s too long (max %d characters)", label, maxLen)
	}
	return trimmed, nil
}

// RecordInput is a raw, possibly partially populated transaction as it
// arrives from a wizard draft, the AI layer, or a command match.
type RecordInput struct {
	Description string
	Amount      int64
	Category    string
	Tag         string
	Note        string
	Account     string
	Date        string // empty means "today", filled in by the ledger
}

// Record runs every field validator in a fixed order (description, amount,
// category, tag, note, account, date), short-circuiting on the first
// failure, and returns the normalized input.
func Record(in RecordInput) (RecordInput, error) {
	var out RecordInput
	var err error

	if out.Description, err = Description(in.Description); err != nil {
		return RecordInput{}, err
	}
	if out.Amount, err = AmountValue(in.Amount); err != nil {
		return RecordInput{}, err
	}
	if out.Category, err = Category(in.Category); err != nil {
		return RecordInput{}, err
	}
	if out.Tag, err = Tag(in.Tag); err != nil {
		return RecordInput{}, err
	}
	if out.Note, err = Note(in.Note); err != nil {
		return RecordInput{}, err
	}
	if out.Account, err = Account(in.Account); err != nil {
		return RecordInput{}, err
	}
	if in.Date != "" {
		if out.Date, err = DateFormat(in.Date); err != nil {
			return RecordInput{}, err
		}
	}
	return out, nil
}
