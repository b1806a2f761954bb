package sheets

import "testing"

func TestColumnLetter(t *testing.T) {
	tests := []struct {
		column int
		want   string
	}{
		{0, "A"},
		{1, "B"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
		{51, "AZ"},
		{52, "BA"},
	}

	for _, tt := range tests {
		if got := columnLetter(tt.column); got != tt.want {
			t.Errorf("columnLetter(%d) = %q, want %q", tt.column, got, tt.want)
		}
	}
}
