package wizard

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-bot/internal/domain"
	"github.com/dvloznov/finance-bot/internal/ledger"
	"github.com/dvloznov/finance-bot/internal/store/inmemory"
	"github.com/dvloznov/finance-bot/internal/txid"
)

type stubPredictor struct {
	category string
	tag      string
	matched  bool
}

func (p *stubPredictor) ResolveFromStore(ctx context.Context, description string) (string, string, bool) {
	return p.category, p.tag, p.matched
}

func testManager() *Manager {
	return NewManager(zerolog.New(&bytes.Buffer{}))
}

func testRecorder(t *testing.T) (*ledger.Ledger, *inmemory.Store) {
	t.Helper()
	st := inmemory.New()
	l := ledger.New(st, txid.New(st), nil, zerolog.New(&bytes.Buffer{}))
	return l, st
}

func TestAddSpendingFlowEndToEnd(t *testing.T) {
	rec, st := testRecorder(t)
	predictor := &stubPredictor{category: "Food and Drink", tag: "Coffee", matched: true}
	m := testManager()
	ctx := context.Background()

	prompt := m.Start(ctx, "chat-1", AddSpendingFlow(rec, predictor))
	if !strings.Contains(prompt, "What did you spend on") {
		t.Errorf("entry prompt = %q", prompt)
	}

	reply, live := m.Handle(ctx, "chat-1", "Kopi Kenangan")
	if !live || !strings.Contains(reply, "How much") {
		t.Fatalf("name step: (%q, %v)", reply, live)
	}

	reply, _ = m.Handle(ctx, "chat-1", "25000")
	if !strings.Contains(reply, "Draft") {
		t.Fatalf("amount step: %q", reply)
	}
	if !strings.Contains(reply, "Rp25.000") || !strings.Contains(reply, "Food and Drink") {
		t.Errorf("draft is missing the predicted category or amount:\n%s", reply)
	}

	// Off-script input stays on the confirmation step.
	reply, _ = m.Handle(ctx, "chat-1", "what?")
	if !strings.Contains(reply, "Saved or Cancel") {
		t.Errorf("confirmation step: %q", reply)
	}

	reply, _ = m.Handle(ctx, "chat-1", "Saved")
	if !strings.Contains(reply, "has been saved") {
		t.Fatalf("save step: %q", reply)
	}
	if st.Len() != 1 {
		t.Fatalf("store rows = %d, want 1", st.Len())
	}
	if m.Active("chat-1") {
		t.Error("session still live after completion")
	}

	recent, err := rec.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if recent[0].Description != "Kopi Kenangan" || recent[0].Amount != 25000 || recent[0].Category != "Food and Drink" {
		t.Errorf("saved record: %+v", recent[0])
	}
	if recent[0].Kind != domain.KindSpending {
		t.Errorf("Kind = %q", recent[0].Kind)
	}
}

func TestAddSpendingFlowUnreadableAmountCancels(t *testing.T) {
	rec, st := testRecorder(t)
	m := testManager()
	ctx := context.Background()

	m.Start(ctx, "chat-1", AddSpendingFlow(rec, nil))
	m.Handle(ctx, "chat-1", "Kopi")

	reply, _ := m.Handle(ctx, "chat-1", "a lot of money")
	if !strings.Contains(reply, "couldn't find the amount") {
		t.Errorf("reply = %q", reply)
	}
	if m.Active("chat-1") {
		t.Error("session survived an unreadable amount")
	}
	if st.Len() != 0 {
		t.Error("store mutated")
	}
}

func TestCancelKeywordEndsSession(t *testing.T) {
	rec, _ := testRecorder(t)
	m := testManager()
	ctx := context.Background()

	m.Start(ctx, "chat-1", AddSpendingFlow(rec, nil))

	for _, word := range []string{"cancel", "Cancel", "❌ Cancel"} {
		m.Start(ctx, "chat-1", AddSpendingFlow(rec, nil))
		reply, live := m.Handle(ctx, "chat-1", word)
		if !live || !strings.Contains(reply, "Cancelled") {
			t.Errorf("%q: (%q, %v)", word, reply, live)
		}
		if m.Active("chat-1") {
			t.Errorf("%q: session still live", word)
		}
	}
}

func TestStartReplacesRunningSession(t *testing.T) {
	rec, _ := testRecorder(t)
	m := testManager()
	ctx := context.Background()

	m.Start(ctx, "chat-1", AddSpendingFlow(rec, nil))
	m.Handle(ctx, "chat-1", "Kopi")

	// Entering another flow discards the half-finished spending session.
	prompt := m.Start(ctx, "chat-1", AddIncomeFlow(rec, nil))
	if !strings.Contains(prompt, "Where did the money come from") {
		t.Errorf("prompt = %q", prompt)
	}

	reply, _ := m.Handle(ctx, "chat-1", "Salary")
	if !strings.Contains(reply, "How much") {
		t.Errorf("the new session did not take over: %q", reply)
	}
}

func TestSessionExpiry(t *testing.T) {
	rec, _ := testRecorder(t)
	m := testManager()
	ctx := context.Background()

	current := time.Now()
	m.WithClock(func() time.Time { return current })

	m.Start(ctx, "chat-1", AddSpendingFlow(rec, nil))
	if !m.Active("chat-1") {
		t.Fatal("session not live after Start")
	}

	current = current.Add(SessionTTL + time.Minute)

	if _, live := m.Handle(ctx, "chat-1", "Kopi"); live {
		t.Error("expired session still handled input")
	}
	if m.Active("chat-1") {
		t.Error("expired session still reported live")
	}
}

func TestDefaultCategoryFlow(t *testing.T) {
	m := testManager()
	ctx := context.Background()

	saver := &recordingSaver{}
	m.Start(ctx, "chat-1", DefaultCategoryFlow(saver))
	m.Handle(ctx, "chat-1", "Nasi uduk")

	// An unknown category keeps asking instead of saving garbage.
	reply, _ := m.Handle(ctx, "chat-1", "Groceries")
	if !strings.Contains(reply, "Invalid category") {
		t.Fatalf("reply = %q", reply)
	}

	reply, _ = m.Handle(ctx, "chat-1", "Food and Drink")
	if !strings.Contains(reply, "saved") {
		t.Fatalf("reply = %q", reply)
	}
	if saver.description != "Nasi uduk" || saver.category != "Food and Drink" {
		t.Errorf("saved mapping: %+v", saver)
	}
}

type recordingSaver struct {
	description, category, tag string
}

func (r *recordingSaver) Save(ctx context.Context, description, category, tag string) error {
	r.description = description
	r.category = category
	r.tag = tag
	return nil
}

func TestViewSpendingFlow(t *testing.T) {
	rec, _ := testRecorder(t)
	m := testManager()
	ctx := context.Background()

	t.Run("no data yet", func(t *testing.T) {
		prompt := m.Start(ctx, "chat-1", ViewSpendingFlow(rec))
		if !strings.Contains(prompt, "No expenses found yet") {
			t.Errorf("prompt = %q", prompt)
		}
		reply, _ := m.Handle(ctx, "chat-1", "7")
		if !strings.Contains(reply, "No expenses found for the last 7 day(s)") {
			t.Errorf("reply = %q", reply)
		}
	})
}
