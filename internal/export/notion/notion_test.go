package notion

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-bot/internal/domain"
)

type mockPageCreator struct {
	CreatePageFunc func(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)
	calls          int
}

func (m *mockPageCreator) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	m.calls++
	if m.CreatePageFunc != nil {
		return m.CreatePageFunc(ctx, databaseID, properties)
	}
	return &notionapi.Page{}, nil
}

func sampleTransactions() []domain.Transaction {
	return []domain.Transaction{
		{ID: "a1b2", Date: "2025-01-17", Description: "Kopi", Kind: domain.KindSpending, Category: "Food and Drink", Amount: 25000, Tag: "Coffee"},
		{ID: "c3d4", Date: "2025-01-17", Description: "Salary", Kind: domain.KindIncome, Category: "Uncategorized", Amount: 5000000, Note: "January"},
	}
}

func TestExport(t *testing.T) {
	mock := &mockPageCreator{}
	e := NewExporter(mock, "db-1", zerolog.New(&bytes.Buffer{}))

	n, err := e.Export(context.Background(), sampleTransactions())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if n != 2 || mock.calls != 2 {
		t.Errorf("exported %d, calls %d", n, mock.calls)
	}
}

func TestExportStopsOnFirstFailure(t *testing.T) {
	mock := &mockPageCreator{
		CreatePageFunc: func(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
			return nil, errors.New("rate limited")
		},
	}
	e := NewExporter(mock, "db-1", zerolog.New(&bytes.Buffer{}))

	n, err := e.Export(context.Background(), sampleTransactions())
	if err == nil {
		t.Fatal("expected error")
	}
	if n != 0 || mock.calls != 1 {
		t.Errorf("exported %d, calls %d", n, mock.calls)
	}
}

func TestTransactionProperties(t *testing.T) {
	tx := sampleTransactions()[0]
	props := transactionProperties(tx)

	title, ok := props["ID"].(notionapi.TitleProperty)
	if !ok || title.Title[0].Text.Content != "a1b2" {
		t.Errorf("ID property: %+v", props["ID"])
	}
	amount, ok := props["Amount"].(notionapi.NumberProperty)
	if !ok || amount.Number != 25000 {
		t.Errorf("Amount property: %+v", props["Amount"])
	}
	if _, ok := props["Date"]; !ok {
		t.Error("Date property missing")
	}
	if _, ok := props["Note"]; ok {
		t.Error("empty Note should be omitted")
	}
}
