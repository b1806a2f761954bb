package wizard

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/dvloznov/finance-bot/internal/domain"
	"github.com/dvloznov/finance-bot/internal/ledger"
	"github.com/dvloznov/finance-bot/internal/validate"
)

// Recorder is the slice of ledger behavior the flows need.
type Recorder interface {
	Add(ctx context.Context, kind domain.Kind, in validate.RecordInput) (*domain.Transaction, error)
	Recent(ctx context.Context, n int) ([]domain.Transaction, error)
	QueryRange(ctx context.Context, q ledger.RangeQuery) (*ledger.RangeResult, error)
	LastNDays(n int) ledger.RangeQuery
}

// StorePredictor predicts {category, tag} from saved mappings only, with no
// model call. Implemented by category.Resolver.
type StorePredictor interface {
	ResolveFromStore(ctx context.Context, description string) (category, tag string, matched bool)
}

// MappingSaver persists one description-to-category mapping.
// Implemented by category.MappingTable.
type MappingSaver interface {
	Save(ctx context.Context, description, category, tag string) error
}

var amountPattern = regexp.MustCompile(`\d+`)

// extractAmount pulls the first run of digits out of free text, so "25000",
// "Rp 25000" and "25000 rupiah" all work.
func extractAmount(raw string) (int64, bool) {
	digits := amountPattern.FindString(raw)
	if digits == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// AddSpendingFlow asks for a name and an amount, shows a draft with a
// store-only category prediction, and records on confirmation.
func AddSpendingFlow(rec Recorder, predictor StorePredictor) *Flow {
	return addFlow("add_spending", domain.KindSpending, rec, predictor,
		"What did you spend on? 🛒\n\nExample: Coffee, Lunch, Gasoline\nOr type Cancel.",
		"Please enter the expense name or type Cancel.",
		"✅ All set! Your spending has been saved.")
}

// AddIncomeFlow is the income twin of AddSpendingFlow.
func AddIncomeFlow(rec Recorder, predictor StorePredictor) *Flow {
	return addFlow("add_income", domain.KindIncome, rec, predictor,
		"Where did the money come from? 💵\n\nExample: Salary, Freelance project\nOr type Cancel.",
		"Please enter the income name or type Cancel.",
		"✅ All set! Your income has been saved.")
}

func addFlow(name string, kind domain.Kind, rec Recorder, predictor StorePredictor, entryPrompt, namePrompt, savedMessage string) *Flow {
	return &Flow{
		Name: name,
		Steps: []Step{
			func(ctx context.Context, s *Session, input string) (Outcome, string) {
				return Advance, entryPrompt
			},

			func(ctx context.Context, s *Session, input string) (Outcome, string) {
				if input == "" {
					return Stay, namePrompt
				}
				if isCancel(input) {
					return Cancel, "❌ Cancelled."
				}
				name, err := validate.Description(input)
				if err != nil {
					return Stay, err.Error()
				}
				s.Data["name"] = name
				return Advance, "How much did it cost? 💰\n\nExample: 25000\nOr type Cancel."
			},

			func(ctx context.Context, s *Session, input string) (Outcome, string) {
				if input == "" || isCancel(input) {
					return Cancel, "❌ Cancelled."
				}

				// Failing to read an amount ends the session; the user
				// starts over rather than getting stuck on this step.
				raw, ok := extractAmount(input)
				if !ok {
					return Cancel, "I couldn't find the amount. Example: 25000"
				}
				amount, err := validate.AmountValue(raw)
				if err != nil {
					return Cancel, err.Error()
				}
				s.Data["amount"] = strconv.FormatInt(amount, 10)

				category := domain.CategoryUncategorized
				tag := ""
				if predictor != nil {
					if cat, t, matched := predictor.ResolveFromStore(ctx, s.Data["name"]); matched {
						category, tag = cat, t
					}
				}
				s.Data["category"] = category
				s.Data["tag"] = tag

				draft := fmt.Sprintf(
					"🧾 Draft\n\nHere is what I am about to record:\n\n"+
						"• Name: %s\n• Amount: %s\n• Category: %s\n\n"+
						"If everything looks good, type Saved. Otherwise type Cancel.",
					s.Data["name"], ledger.FormatRupiah(amount), category)
				return Advance, draft
			},

			func(ctx context.Context, s *Session, input string) (Outcome, string) {
				if isCancel(input) {
					return Cancel, "❌ Okay, nothing was recorded."
				}
				if !containsFold(input, "saved") {
					return Stay, "Please choose Saved or Cancel."
				}

				amount, _ := strconv.ParseInt(s.Data["amount"], 10, 64)
				tx, err := rec.Add(ctx, kind, validate.RecordInput{
					Description: s.Data["name"],
					Amount:      amount,
					Category:    s.Data["category"],
					Tag:         s.Data["tag"],
				})
				if err != nil {
					return Complete, "❌ Failed to save: " + err.Error()
				}
				return Complete, fmt.Sprintf("%s\n\n• %s %s (%s) [%s]",
					savedMessage, tx.Description, ledger.FormatRupiah(tx.Amount), tx.Category, tx.ID)
			},
		},
	}
}

// DefaultCategoryFlow saves a description-to-category mapping used by later
// category predictions.
func DefaultCategoryFlow(saver MappingSaver) *Flow {
	return &Flow{
		Name: "add_default_category",
		Steps: []Step{
			func(ctx context.Context, s *Session, input string) (Outcome, string) {
				return Advance, "Enter the expense name 📝\n\nExample: Kopi, Nasi Kuning\nOr type Cancel."
			},

			func(ctx context.Context, s *Session, input string) (Outcome, string) {
				if input == "" {
					return Stay, "Please enter the expense name."
				}
				if isCancel(input) {
					return Cancel, "❌ Cancelled."
				}
				name, err := validate.Description(input)
				if err != nil {
					return Stay, err.Error()
				}
				s.Data["name"] = name
				return Advance, "Enter the category 📂\n\nExample: Food and Drink"
			},

			func(ctx context.Context, s *Session, input string) (Outcome, string) {
				if input == "" || isCancel(input) {
					return Cancel, "❌ Cancelled."
				}
				if !domain.IsValidCategory(input) {
					return Stay, "Invalid category. Example: Food and Drink"
				}
				if err := saver.Save(ctx, s.Data["name"], input, ""); err != nil {
					return Complete, "❌ Failed to save the default category."
				}
				return Complete, fmt.Sprintf("✅ Default category for %q saved: %s", s.Data["name"], input)
			},
		},
	}
}

// ViewSpendingFlow shows the most recent expenses, then offers a by-days
// report.
func ViewSpendingFlow(rec Recorder) *Flow {
	const recentCount = 10

	return &Flow{
		Name: "view_spending",
		Steps: []Step{
			func(ctx context.Context, s *Session, input string) (Outcome, string) {
				var intro string
				recent, err := rec.Recent(ctx, recentCount)
				switch {
				case err != nil:
					intro = "⚠️ Couldn't load recent expenses. You can still view by days."
				case len(recent) == 0:
					intro = "No expenses found yet.\n\nAdd a spending first to see your transactions."
				default:
					result := &ledger.RangeResult{Transactions: recent}
					for _, tx := range recent {
						result.Total += tx.Amount
					}
					intro = fmt.Sprintf("Here are your last %d expenses:\n\n%s", len(recent), ledger.FormatTable(result))
				}

				return Advance, intro + "\n\nWant to view spending by days?\nType the number of days (example: 7) or type Cancel."
			},

			func(ctx context.Context, s *Session, input string) (Outcome, string) {
				if input == "" {
					return Stay, "Please choose a number of days or type Cancel."
				}
				if isCancel(input) {
					return Cancel, "Cancelled."
				}

				raw, ok := extractAmount(input)
				if !ok || raw <= 0 {
					return Stay, "Please enter a valid number.\nExample: 7"
				}
				days := int(raw)

				result, err := rec.QueryRange(ctx, rec.LastNDays(days))
				if err != nil {
					return Complete, "❌ Failed to load the spending report."
				}
				if result.Empty() {
					return Complete, fmt.Sprintf("No expenses found for the last %d day(s).\n\nTry a larger range.", days)
				}
				return Complete, ledger.FormatTable(result)
			},
		},
	}
}
