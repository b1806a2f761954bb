package ledger

import (
	"strings"
	"testing"

	"github.com/dvloznov/finance-bot/internal/domain"
)

func TestFormatRupiah(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{0, "Rp0"},
		{500, "Rp500"},
		{25000, "Rp25.000"},
		{1500000, "Rp1.500.000"},
		{1000000000, "Rp1.000.000.000"},
	}
	for _, tt := range tests {
		if got := FormatRupiah(tt.amount); got != tt.want {
			t.Errorf("FormatRupiah(%d) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestFormatTable(t *testing.T) {
	result := &RangeResult{
		Transactions: []domain.Transaction{
			{Date: "2025-01-15", Description: "Kopi Kenangan", Amount: 25000},
			{Date: "2025-01-16", Description: "A very long expense name", Amount: 1500000},
		},
		Total: 1525000,
	}

	out := FormatTable(result)

	if !strings.HasPrefix(out, "```\n") || !strings.HasSuffix(out, "```") {
		t.Error("table is not wrapped in a code fence")
	}
	if !strings.Contains(out, "15/01/25") {
		t.Error("dates are not rendered as dd/MM/yy")
	}
	if !strings.Contains(out, "25,000") {
		t.Error("amounts are not comma grouped")
	}
	if !strings.Contains(out, "A very long ex") {
		t.Error("long descriptions are not truncated to the column width")
	}
	if strings.Contains(out, "A very long expense name") {
		t.Error("description exceeds the column width")
	}
	if !strings.Contains(out, "Total Spending: Rp1.525.000") {
		t.Errorf("missing or wrong total line:\n%s", out)
	}
}

func TestEmptyMessage(t *testing.T) {
	tests := []struct {
		name   string
		q      RangeQuery
		locale Locale
		want   string
	}{
		{
			name:   "today id",
			q:      RangeQuery{Start: "2025-01-17", End: "2025-01-17", IsToday: true},
			locale: LocaleID,
			want:   "Belum ada transaksi hari ini.",
		},
		{
			name:   "today en",
			q:      RangeQuery{Start: "2025-01-17", End: "2025-01-17", IsToday: true},
			locale: LocaleEN,
			want:   "No transactions for today.",
		},
		{
			name:   "single day id",
			q:      RangeQuery{Start: "2025-01-15", End: "2025-01-15"},
			locale: LocaleID,
			want:   "Tidak ada transaksi pada 2025-01-15.",
		},
		{
			name:   "range en",
			q:      RangeQuery{Start: "2025-01-10", End: "2025-01-17"},
			locale: LocaleEN,
			want:   "No transactions between 2025-01-10 and 2025-01-17.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EmptyMessage(tt.q, tt.locale); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
