package ai

import (
	"testing"

	"github.com/dvloznov/finance-bot/internal/intent"
)

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "bare object untouched",
			raw:  `{"intent":"UNKNOWN"}`,
			want: `{"intent":"UNKNOWN"}`,
		},
		{
			name: "json fence",
			raw:  "```json\n{\"a\":1}\n```",
			want: `{"a":1}`,
		},
		{
			name: "plain fence",
			raw:  "```\n{\"a\":1}\n```",
			want: `{"a":1}`,
		},
		{
			name: "prose around object",
			raw:  "Sure, here you go:\n{\"a\":1}\nHope that helps!",
			want: `{"a":1}`,
		},
		{
			name: "whitespace",
			raw:  "  \n {\"a\":1} \n ",
			want: `{"a":1}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanModelJSON(tt.raw); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeParsed(t *testing.T) {
	t.Run("valid add spending", func(t *testing.T) {
		raw := "```json\n" + `{
			"intent": "ADD_SPENDING",
			"payload": {"expenseName": "kopi", "amount": 18000, "dateOffset": 1}
		}` + "\n```"

		parsed := decodeParsed(raw)
		if parsed.Intent != intent.AddSpending {
			t.Fatalf("Intent = %q", parsed.Intent)
		}
		p := parsed.Payload
		if p.ExpenseName != "kopi" || p.Amount != 18000 || p.DateOffset != 1 {
			t.Errorf("payload = %+v", p)
		}
	})

	t.Run("valid report", func(t *testing.T) {
		parsed := decodeParsed(`{"intent":"GET_REPORT","payload":{"startDate":"2025-01-11","endDate":"2025-01-17","reportMessage":"Here is your week."}}`)
		if parsed.Intent != intent.GetReport {
			t.Fatalf("Intent = %q", parsed.Intent)
		}
		if parsed.Payload.StartDate != "2025-01-11" || parsed.Payload.EndDate != "2025-01-17" {
			t.Errorf("payload = %+v", parsed.Payload)
		}
	})

	t.Run("malformed output degrades to unknown", func(t *testing.T) {
		for _, raw := range []string{
			"not json at all",
			`{"intent": "ADD_SPENDING"`,
			"",
		} {
			if got := decodeParsed(raw); got.Intent != intent.Unknown {
				t.Errorf("decodeParsed(%q).Intent = %q, want UNKNOWN", raw, got.Intent)
			}
		}
	})

	t.Run("intents outside the closed set degrade to unknown", func(t *testing.T) {
		for _, raw := range []string{
			`{"intent":"UNKNOWN","payload":{}}`,
			`{"intent":"DROP_TABLE","payload":{}}`,
			`{"intent":"","payload":{}}`,
		} {
			if got := decodeParsed(raw); got.Intent != intent.Unknown {
				t.Errorf("decodeParsed(%q).Intent = %q, want UNKNOWN", raw, got.Intent)
			}
		}
	})
}
