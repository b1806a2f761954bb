// Package intent defines the closed set of actions the language model may
// propose and the dispatcher that executes them against the ledger.
package intent

// Intent is one of the actions the model is allowed to propose. Anything
// outside this set is treated as Unknown.
type Intent string

const (
	AddSpending       Intent = "ADD_SPENDING"
	AddIncome         Intent = "ADD_INCOME"
	GetReport         Intent = "GET_REPORT"
	DeleteTransaction Intent = "DELETE_TRANSACTION"
	UpdateTransaction Intent = "UPDATE_TRANSACTION"
	Unknown           Intent = "UNKNOWN"
)

// known is the allow list Dispatch checks against. The model prompt already
// restricts output to these values; the check here guards against prompt
// drift and malformed model output.
var known = map[Intent]bool{
	AddSpending:       true,
	AddIncome:         true,
	GetReport:         true,
	DeleteTransaction: true,
	UpdateTransaction: true,
}

// Payload is the union of every intent's fields as they appear on the wire.
// Which fields are required depends on the intent; Dispatch checks presence
// before acting.
type Payload struct {
	// ADD_SPENDING / ADD_INCOME
	ExpenseName string `json:"expenseName,omitempty"`
	IncomeName  string `json:"incomeName,omitempty"`
	Amount      int64  `json:"amount,omitempty"`
	Category    string `json:"category,omitempty"`
	Tag         string `json:"tag,omitempty"`
	// DateOffset is a signed day count from today: 0 is today, -1 is yesterday.
	DateOffset int `json:"dateOffset,omitempty"`

	// GET_REPORT
	StartDate     string `json:"startDate,omitempty"`
	EndDate       string `json:"endDate,omitempty"`
	ReportMessage string `json:"reportMessage,omitempty"`

	// DELETE_TRANSACTION / UPDATE_TRANSACTION
	TransactionID string `json:"transactionId,omitempty"`
	Field         string `json:"field,omitempty"`
	NewValue      string `json:"newValue,omitempty"`
}

// Parsed is a classified free-text message: the intent plus its payload.
type Parsed struct {
	Intent  Intent  `json:"intent"`
	Payload Payload `json:"payload"`
}

// Result is what the user sees. Failures are results too, never panics;
// Message is always safe to send back verbatim.
type Result struct {
	Success bool
	Message string
}

func failure(message string) Result {
	return Result{Success: false, Message: message}
}

func success(message string) Result {
	return Result{Success: true, Message: message}
}
