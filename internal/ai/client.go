// Package ai talks to Gemini: free-text intent parsing, receipt OCR and
// category classification. Every call demands strict JSON output and cleans
// up Markdown fences when the model ignores that.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/dvloznov/finance-bot/internal/domain"
)

// DefaultModelName is used unless the config overrides it.
const DefaultModelName = "gemini-2.0-flash"

const (
	callTimeout = 30 * time.Second
	// One retry only. The bot answers a chat message; a slow model is worse
	// than a degraded answer.
	maxCallAttempts = 2
)

// Client wraps a genai client with the bot's model and retry policy.
type Client struct {
	genai *genai.Client
	model string
	log   zerolog.Logger
}

// NewClient creates the Gemini client. Credentials come from the
// environment, same as the rest of the Google stack.
func NewClient(ctx context.Context, model string, log zerolog.Logger) (*Client, error) {
	if model == "" {
		model = DefaultModelName
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewClient: create genai client: %w", err)
	}
	return &Client{genai: gc, model: model, log: log}, nil
}

// generate runs one prompt and returns the raw model text. A failed or empty
// call is retried once with a fresh timeout.
func (c *Client) generate(ctx context.Context, parts []*genai.Part) (string, error) {
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	var lastErr error
	for attempt := 1; attempt <= maxCallAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, callTimeout)
		resp, err := c.genai.Models.GenerateContent(callCtx, c.model, contents, nil)
		cancel()

		if err != nil {
			lastErr = err
			c.log.Warn().Err(err).Int("attempt", attempt).Msg("Model call failed")
			continue
		}
		text := resp.Text()
		if text == "" {
			lastErr = errors.New("empty response from model")
			c.log.Warn().Int("attempt", attempt).Msg("Model returned empty response")
			continue
		}
		return text, nil
	}
	return "", fmt.Errorf("generate: %w", lastErr)
}

func (c *Client) today() string {
	return time.Now().In(domain.Location).Format(domain.DateFormat)
}
