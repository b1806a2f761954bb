package ledger

import (
	"strconv"
	"strings"

	"github.com/dvloznov/finance-bot/internal/validate"
)

// Field names one mutable transaction field. Update dispatch is a closed
// tagged switch over this set, never pattern-driven.
type Field string

const (
	FieldCategory    Field = "category"
	FieldTag         Field = "tag"
	FieldAmount      Field = "amount"
	FieldNote        Field = "note"
	FieldDescription Field = "description"
	FieldAccount     Field = "account"
)

// ParseField maps a user- or model-supplied field name onto the closed set.
// "expenseName" is the wire-contract alias for description.
func ParseField(s string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "category":
		return FieldCategory, nil
	case "tag":
		return FieldTag, nil
	case "amount":
		return FieldAmount, nil
	case "note":
		return FieldNote, nil
	case "description", "expensename", "name":
		return FieldDescription, nil
	case "account":
		return FieldAccount, nil
	}
	return "", &validate.FieldError{
		Field:   "field",
		Message: "Unknown field: " + s + ". Allowed: category, tag, amount, note, expenseName, account",
	}
}

// validateFieldValue runs the field's own validator and returns the value in
// its stored form together with the target column.
func validateFieldValue(field Field, raw string) (string, int, error) {
	switch field {
	case FieldCategory:
		v, err := validate.Category(raw)
		return v, colCategory, err
	case FieldTag:
		v, err := validate.Tag(raw)
		return v, colTag, err
	case FieldAmount:
		n, err := validate.Amount(raw)
		if err != nil {
			return "", 0, err
		}
		return strconv.FormatInt(n, 10), colAmount, nil
	case FieldNote:
		v, err := validate.Note(raw)
		return v, colNote, err
	case FieldDescription:
		v, err := validate.Description(raw)
		return v, colDescription, err
	case FieldAccount:
		v, err := validate.Account(raw)
		return v, colAccount, err
	}
	return "", 0, &validate.FieldError{Field: "field", Message: "Unknown field: " + string(field)}
}
