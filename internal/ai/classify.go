package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/dvloznov/finance-bot/internal/domain"
)

const classifyPromptTemplate = `You are a financial transaction categorization system.
Use only the following categories, never create new ones:

%s

Special rules:
- If the transaction involves giving food, drinks or money to someone else,
  categorize it as "Donation" even if it sounds like "Food and Drink".
- If the transaction mentions Atika, Affan, Dad or Mom, always assign "Family".
- If the category is food related, add a tag such as "Lunch", "Breakfast" or
  "Snack", estimated from the type of food.

Transaction: %q

Respond only in valid JSON, no Markdown, no code fences:
{
  "category": "...",
  "tag": "..."
}`

// ClassifyDescription asks the model for a {category, tag} pair. The caller
// checks the category against the closed set; this function only reports
// what the model said.
func (c *Client) ClassifyDescription(ctx context.Context, description string) (string, string, error) {
	prompt := fmt.Sprintf(classifyPromptTemplate, strings.Join(domain.Categories, ", "), description)

	raw, err := c.generate(ctx, []*genai.Part{{Text: prompt}})
	if err != nil {
		return "", "", fmt.Errorf("ClassifyDescription: %w", err)
	}

	var out struct {
		Category string `json:"category"`
		Tag      string `json:"tag"`
	}
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &out); err != nil {
		return "", "", fmt.Errorf("ClassifyDescription: decoding model output: %w", err)
	}
	return out.Category, out.Tag, nil
}
