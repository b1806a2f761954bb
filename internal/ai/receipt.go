package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"
)

// fallbackReceiptCommand is returned when the image is unreadable, so the
// downstream command path still has something well-formed to reject.
const fallbackReceiptCommand = "#Spending Struk 0"

const receiptPromptTemplate = `You generate a SINGLE text command for a finance chat bot from a receipt image.

Today's date is %s (GMT+7).

Return ONLY valid JSON, no Markdown, no code fences:
{
  "text": "#Spending <expenseName> <amount>",
  "confidence": 0-1
}

Rules:
- text must be a single line.
- amount must be a number, no separators or currency symbols.
- expenseName should be short, the merchant name or a brief description.
- If unsure, set confidence below 0.6 and still return a best-effort text.
- If the receipt cannot be read, return confidence 0 with text "#Spending Struk 0".`

// ReceiptCommand is the OCR result: a bot command line plus the model's own
// confidence in it.
type ReceiptCommand struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// ParseReceipt reads a receipt photo and produces the equivalent #Spending
// command. An unreadable image yields the zero-confidence placeholder rather
// than an error.
func (c *Client) ParseReceipt(ctx context.Context, image []byte, mimeType string) (ReceiptCommand, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	parts := []*genai.Part{
		{Text: fmt.Sprintf(receiptPromptTemplate, c.today())},
		{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
	}

	raw, err := c.generate(ctx, parts)
	if err != nil {
		return ReceiptCommand{}, fmt.Errorf("ParseReceipt: %w", err)
	}

	var cmd ReceiptCommand
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &cmd); err != nil {
		c.log.Warn().Str("raw", truncateForLog(raw)).Msg("Receipt output was not valid JSON")
		return ReceiptCommand{Text: fallbackReceiptCommand, Confidence: 0}, nil
	}
	if cmd.Text == "" {
		cmd.Text = fallbackReceiptCommand
		cmd.Confidence = 0
	}

	c.log.Info().Float64("confidence", cmd.Confidence).Str("command", cmd.Text).Msg("Receipt parsed")
	return cmd, nil
}
