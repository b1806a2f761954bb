package domain

import "time"

// Kind distinguishes money going out from money coming in.
// It is fixed at creation and never mutated afterwards.
type Kind string

const (
	KindSpending Kind = "spending"
	KindIncome   Kind = "income"
)

// Category sentinels. CategoryUncategorized is the default for records the
// user never classified; CategoryNotFound marks records the resolver and the
// model both failed to classify.
const (
	CategoryUncategorized = "Uncategorized"
	CategoryNotFound      = "Not Found"
)

// DateFormat is the storage format for transaction dates.
const DateFormat = "2006-01-02"

// Location is the fixed UTC+7 calendar every date in the system is local to.
// Dates are stored as formatted strings, so the offset never changes with DST.
var Location = time.FixedZone("WIB", 7*60*60)

// Today returns the current date string in the fixed UTC+7 calendar.
func Today() string {
	return time.Now().In(Location).Format(DateFormat)
}

// Transaction is one recorded spending or income entry.
// ID is a 4-character lowercase alphanumeric string, unique among live
// records and immutable once assigned.
type Transaction struct {
	ID          string
	Date        string // YYYY-MM-DD in the fixed UTC+7 calendar
	Description string
	Kind        Kind
	Category    string
	Amount      int64 // positive, currency-agnostic magnitude
	Tag         string
	Account     string
	Note        string
}

// CategoryMapping is one stored description → category/tag association,
// keyed by the description text. Written only through the category wizard;
// read on every transaction add to pre-fill category and tag.
type CategoryMapping struct {
	Description string
	Category    string
	Tag         string
	UpdatedAt   string // YYYY-MM-DD HH:mm:ss, fixed UTC+7
}
