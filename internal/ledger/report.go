package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/finance-bot/internal/domain"
)

// Locale selects the language of user-facing report text.
type Locale string

const (
	LocaleID Locale = "id"
	LocaleEN Locale = "en"
)

const displayDateFormat = "02/01/06"

// FormatTable renders a range result as the fixed-width table the bot
// replies with, wrapped in a Markdown code fence, with a currency total.
func FormatTable(result *RangeResult) string {
	var b strings.Builder
	b.WriteString("```\n")
	b.WriteString("Date     | Expense        | Amount    \n")
	b.WriteString("---------|----------------|-----------\n")

	for _, tx := range result.Transactions {
		b.WriteString(fmt.Sprintf("%-8s | %-14s | %10s\n",
			displayDate(tx.Date),
			truncate(tx.Description, 14),
			groupThousands(tx.Amount, ','),
		))
	}

	b.WriteString(fmt.Sprintf("\nTotal Spending: %s\n", FormatRupiah(result.Total)))
	b.WriteString("```")
	return b.String()
}

// EmptyMessage picks the localized empty-state text for a range query.
// A query that meant "today" gets the short form; other windows name their
// range so the user can tell what was searched.
func EmptyMessage(q RangeQuery, locale Locale) string {
	if q.IsToday && q.Start == q.End {
		if locale == LocaleID {
			return "Belum ada transaksi hari ini."
		}
		return "No transactions for today."
	}

	if locale == LocaleID {
		if q.Start == q.End {
			return fmt.Sprintf("Tidak ada transaksi pada %s.", q.Start)
		}
		return fmt.Sprintf("Tidak ada transaksi pada %s s/d %s.", q.Start, q.End)
	}

	if q.Start == q.End {
		return fmt.Sprintf("No transactions on %s.", q.Start)
	}
	return fmt.Sprintf("No transactions between %s and %s.", q.Start, q.End)
}

// FormatRupiah renders an amount the id-ID way: "Rp" prefix, dots between
// thousands groups, no decimals.
func FormatRupiah(amount int64) string {
	return "Rp" + groupThousands(amount, '.')
}

func groupThousands(n int64, sep byte) string {
	s := fmt.Sprintf("%d", n)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	var b strings.Builder
	for i, d := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(sep)
		}
		b.WriteRune(d)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func displayDate(date string) string {
	t, err := time.ParseInLocation(domain.DateFormat, date, domain.Location)
	if err != nil {
		return date
	}
	return t.Format(displayDateFormat)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
