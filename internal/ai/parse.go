package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/dvloznov/finance-bot/internal/intent"
)

const parsePromptTemplate = `You are a command interpreter for a personal finance chat bot.

Today's date is %s (GMT+7, Western Indonesia Time).
Assume the user means local time, not UTC.

Your job: convert the user's message into one intent with a payload.

Respond ONLY in valid JSON, no Markdown, no code fences:
{
  "intent": "ADD_SPENDING" | "ADD_INCOME" | "GET_REPORT" | "DELETE_TRANSACTION" | "UPDATE_TRANSACTION" | "UNKNOWN",
  "payload": {
    // ADD_SPENDING: "expenseName" (string), "amount" (number),
    //   optional "category", "tag", "dateOffset" (signed days: 0 today, -1 yesterday)
    // ADD_INCOME: "incomeName" (string), "amount" (number),
    //   optional "category", "tag", "dateOffset"
    // GET_REPORT: "startDate", "endDate" (YYYY-MM-DD), optional "reportMessage"
    //   (a short natural opening sentence to introduce the report)
    // DELETE_TRANSACTION: "transactionId" (4 characters)
    // UPDATE_TRANSACTION: "transactionId", "field" (category|tag|amount|note|expenseName),
    //   "newValue" (string)
  }
}

Rules:
- "today" means startDate = endDate = today.
- "yesterday" means today minus 1 day.
- "last X days" means startDate = today minus (X - 1) days, endDate = today.
- Dates must be YYYY-MM-DD.
- Amounts are plain numbers, no separators or currency symbols.
- If the user says something like "catat kopi 18000", that is ADD_SPENDING
  with expenseName "kopi" and amount 18000.
- If the message does not clearly map to one intent, respond with intent
  "UNKNOWN" and an empty payload.

User message: %q`

// ParseMessage classifies one free-text message into an intent and payload.
// Malformed model output degrades to Unknown; an error means the model was
// unreachable.
func (c *Client) ParseMessage(ctx context.Context, text string) (intent.Parsed, error) {
	prompt := fmt.Sprintf(parsePromptTemplate, c.today(), text)

	raw, err := c.generate(ctx, []*genai.Part{{Text: prompt}})
	if err != nil {
		return intent.Parsed{Intent: intent.Unknown}, fmt.Errorf("ParseMessage: %w", err)
	}

	parsed := decodeParsed(raw)
	if parsed.Intent == intent.Unknown {
		c.log.Debug().Str("raw", truncateForLog(raw)).Msg("Message did not map to an intent")
	}
	return parsed, nil
}

// decodeParsed turns raw model text into a Parsed, falling back to Unknown
// for anything it cannot decode or any intent outside the closed set.
func decodeParsed(raw string) intent.Parsed {
	var parsed intent.Parsed
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &parsed); err != nil {
		return intent.Parsed{Intent: intent.Unknown}
	}

	switch parsed.Intent {
	case intent.AddSpending, intent.AddIncome, intent.GetReport,
		intent.DeleteTransaction, intent.UpdateTransaction:
		return parsed
	}
	return intent.Parsed{Intent: intent.Unknown}
}

func truncateForLog(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > 200 {
		return s[:200]
	}
	return s
}
