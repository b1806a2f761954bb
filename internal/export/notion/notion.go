// Package notion exports recorded transactions to a Notion database, one
// page per transaction.
package notion

import (
	"context"
	"fmt"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-bot/internal/domain"
)

// PageCreator is the slice of the Notion SDK the exporter needs.
type PageCreator interface {
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)
}

// Client wraps the Notion SDK behind PageCreator.
type Client struct {
	client *notionapi.Client
}

// NewClient creates a Notion client with the given API token.
func NewClient(token string) *Client {
	return &Client{client: notionapi.NewClient(notionapi.Token(token))}
}

// CreatePage creates a new page in a Notion database with the given properties.
func (c *Client) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: properties,
	}

	page, err := c.client.Page.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("CreatePage: %w", err)
	}
	return page, nil
}

// Exporter writes transactions into one Notion database.
type Exporter struct {
	notion     PageCreator
	databaseID string
	log        zerolog.Logger
}

// NewExporter wires an Exporter.
func NewExporter(notion PageCreator, databaseID string, log zerolog.Logger) *Exporter {
	return &Exporter{notion: notion, databaseID: databaseID, log: log}
}

// Export creates one page per transaction. The first failure stops the run
// and reports how many pages made it.
func (e *Exporter) Export(ctx context.Context, transactions []domain.Transaction) (int, error) {
	for i, tx := range transactions {
		if _, err := e.notion.CreatePage(ctx, e.databaseID, transactionProperties(tx)); err != nil {
			return i, fmt.Errorf("Export: transaction %s: %w", tx.ID, err)
		}
		e.log.Debug().Str("id", tx.ID).Msg("Transaction exported")
	}

	e.log.Info().Int("count", len(transactions)).Msg("Notion export finished")
	return len(transactions), nil
}

// transactionProperties maps a transaction onto the Notion database schema.
func transactionProperties(tx domain.Transaction) notionapi.Properties {
	props := notionapi.Properties{
		"ID": notionapi.TitleProperty{
			Title: richText(tx.ID),
		},
		"Description": notionapi.RichTextProperty{
			RichText: richText(tx.Description),
		},
		"Amount": notionapi.NumberProperty{
			Number: float64(tx.Amount),
		},
		"Kind": notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(tx.Kind)},
		},
		"Category": notionapi.SelectProperty{
			Select: notionapi.Option{Name: tx.Category},
		},
	}

	if date, err := notionDate(tx.Date); err == nil {
		props["Date"] = notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: date},
		}
	}
	if tx.Tag != "" {
		props["Tag"] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: tx.Tag},
		}
	}
	if tx.Note != "" {
		props["Note"] = notionapi.RichTextProperty{
			RichText: richText(tx.Note),
		}
	}
	return props
}

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: content},
		},
	}
}

func notionDate(date string) (*notionapi.Date, error) {
	t, err := time.ParseInLocation(domain.DateFormat, date, domain.Location)
	if err != nil {
		return nil, err
	}
	d := notionapi.Date(t)
	return &d, nil
}
