package intent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-bot/internal/domain"
	"github.com/dvloznov/finance-bot/internal/ledger"
	"github.com/dvloznov/finance-bot/internal/txid"
	"github.com/dvloznov/finance-bot/internal/validate"
)

// TransactionLedger is the slice of ledger behavior the dispatcher needs.
type TransactionLedger interface {
	Add(ctx context.Context, kind domain.Kind, in validate.RecordInput) (*domain.Transaction, error)
	Delete(ctx context.Context, id string) error
	UpdateField(ctx context.Context, id string, field ledger.Field, newValue string) error
	QueryRange(ctx context.Context, q ledger.RangeQuery) (*ledger.RangeResult, error)
}

// Authorizer decides whether an actor may run commands at all.
type Authorizer interface {
	Allowed(actorID string) bool
}

// Dispatcher executes classified intents. The router has already checked
// access once; Dispatch checks again so the ledger is unreachable for
// unauthorized actors no matter which path a request took.
type Dispatcher struct {
	ledger TransactionLedger
	auth   Authorizer
	locale ledger.Locale
	log    zerolog.Logger
	now    func() time.Time
}

// NewDispatcher wires a Dispatcher. A nil auth allows every actor.
func NewDispatcher(l TransactionLedger, auth Authorizer, locale ledger.Locale, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{ledger: l, auth: auth, locale: locale, log: log, now: time.Now}
}

// WithClock overrides the time source. Test helper.
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

func (d *Dispatcher) today() time.Time {
	return d.now().In(domain.Location)
}

// offsetDate resolves a signed day offset against today's calendar date,
// -1 meaning yesterday. Offset 0 returns "" so the ledger applies its own
// today default.
func (d *Dispatcher) offsetDate(offset int) string {
	if offset == 0 {
		return ""
	}
	return d.today().AddDate(0, 0, offset).Format(domain.DateFormat)
}

// Dispatch runs one classified intent for actorID and returns the reply to
// send. Every failure mode comes back as a Result; Dispatch never returns an
// error.
func (d *Dispatcher) Dispatch(ctx context.Context, actorID string, it Intent, p Payload) Result {
	if d.auth != nil && !d.auth.Allowed(actorID) {
		d.log.Warn().Str("actor", actorID).Str("intent", string(it)).Msg("Access denied")
		return failure("Access denied.")
	}

	if !known[it] {
		return failure("Sorry, I could not understand that request. Try #Spending, #Income or #Transactions.")
	}

	d.log.Info().Str("actor", actorID).Str("intent", string(it)).Msg("Dispatching intent")

	switch it {
	case AddSpending:
		return d.addRecord(ctx, domain.KindSpending, p.ExpenseName, p)
	case AddIncome:
		return d.addRecord(ctx, domain.KindIncome, p.IncomeName, p)
	case GetReport:
		return d.report(ctx, p)
	case DeleteTransaction:
		return d.delete(ctx, p)
	case UpdateTransaction:
		return d.update(ctx, p)
	}
	return failure("Sorry, I could not understand that request.")
}

func (d *Dispatcher) addRecord(ctx context.Context, kind domain.Kind, name string, p Payload) Result {
	if name == "" {
		return failure("I could not tell what this transaction was for.")
	}
	if p.Amount == 0 {
		return failure("I could not tell the amount. Please include it, e.g. \"kopi 25000\".")
	}

	tx, err := d.ledger.Add(ctx, kind, validate.RecordInput{
		Description: name,
		Amount:      p.Amount,
		Category:    p.Category,
		Tag:         p.Tag,
		Date:        d.offsetDate(p.DateOffset),
	})
	if err != nil {
		return failure(err.Error())
	}

	label := "Spending"
	if kind == domain.KindIncome {
		label = "Income"
	}
	return success(fmt.Sprintf("%s recorded: %s %s (%s) [%s]",
		label, tx.Description, ledger.FormatRupiah(tx.Amount), tx.Category, tx.ID))
}

func (d *Dispatcher) report(ctx context.Context, p Payload) Result {
	if p.StartDate == "" || p.EndDate == "" {
		return failure("I could not tell which dates you want a report for.")
	}

	today := d.today().Format(domain.DateFormat)
	q := ledger.RangeQuery{
		Start:   p.StartDate,
		End:     p.EndDate,
		IsToday: p.StartDate == today && p.EndDate == today,
	}

	result, err := d.ledger.QueryRange(ctx, q)
	if err != nil {
		return failure(err.Error())
	}
	if result.Empty() {
		return success(ledger.EmptyMessage(q, d.locale))
	}

	table := ledger.FormatTable(result)
	if p.ReportMessage != "" {
		return success(p.ReportMessage + "\n" + table)
	}
	return success(table)
}

func (d *Dispatcher) delete(ctx context.Context, p Payload) Result {
	if !txid.IsValid(p.TransactionID) {
		return failure("That does not look like a transaction id. Ids are 4 characters, e.g. a1b2.")
	}

	err := d.ledger.Delete(ctx, p.TransactionID)
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return failure(fmt.Sprintf("Transaction %s not found.", p.TransactionID))
	case errors.Is(err, ledger.ErrDeleteVerificationFailed):
		return failure(fmt.Sprintf("Transaction %s could not be deleted. Please check the sheet manually.", p.TransactionID))
	case err != nil:
		return failure(err.Error())
	}
	return success(fmt.Sprintf("Transaction %s deleted.", p.TransactionID))
}

func (d *Dispatcher) update(ctx context.Context, p Payload) Result {
	if !txid.IsValid(p.TransactionID) {
		return failure("That does not look like a transaction id. Ids are 4 characters, e.g. a1b2.")
	}
	if p.NewValue == "" {
		return failure("I could not tell the new value for the update.")
	}

	field, err := ledger.ParseField(p.Field)
	if err != nil {
		return failure(err.Error())
	}

	err = d.ledger.UpdateField(ctx, p.TransactionID, field, p.NewValue)
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return failure(fmt.Sprintf("Transaction %s not found.", p.TransactionID))
	case err != nil:
		return failure(err.Error())
	}
	return success(fmt.Sprintf("Updated %s of transaction %s.", field, p.TransactionID))
}
