package bot

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-bot/internal/ai"
	"github.com/dvloznov/finance-bot/internal/domain"
	"github.com/dvloznov/finance-bot/internal/intent"
	"github.com/dvloznov/finance-bot/internal/ledger"
	"github.com/dvloznov/finance-bot/internal/store/inmemory"
	"github.com/dvloznov/finance-bot/internal/txid"
	"github.com/dvloznov/finance-bot/internal/wizard"
)

type mockParser struct {
	ParseMessageFunc func(ctx context.Context, text string) (intent.Parsed, error)
	ParseReceiptFunc func(ctx context.Context, image []byte, mimeType string) (ai.ReceiptCommand, error)
}

func (m *mockParser) ParseMessage(ctx context.Context, text string) (intent.Parsed, error) {
	if m.ParseMessageFunc != nil {
		return m.ParseMessageFunc(ctx, text)
	}
	return intent.Parsed{Intent: intent.Unknown}, nil
}

func (m *mockParser) ParseReceipt(ctx context.Context, image []byte, mimeType string) (ai.ReceiptCommand, error) {
	if m.ParseReceiptFunc != nil {
		return m.ParseReceiptFunc(ctx, image, mimeType)
	}
	return ai.ReceiptCommand{}, errors.New("not configured")
}

type recordingArchiver struct {
	chatID string
	size   int
	err    error
}

func (a *recordingArchiver) Store(ctx context.Context, chatID string, image []byte, mimeType string) (string, error) {
	a.chatID = chatID
	a.size = len(image)
	return "gs://receipts/test-object", a.err
}

type saverStub struct{}

func (saverStub) Save(ctx context.Context, description, category, tag string) error { return nil }

type testEnv struct {
	router *Router
	store  *inmemory.Store
	ledger *ledger.Ledger
	parser *mockParser
}

func fixedClock(date string) func() time.Time {
	t, _ := time.ParseInLocation(domain.DateFormat, date, domain.Location)
	return func() time.Time { return t }
}

func newTestEnv(t *testing.T, allow Allowlist, parser *mockParser, archive Archiver) *testEnv {
	t.Helper()
	log := zerolog.New(&bytes.Buffer{})
	st := inmemory.New()
	l := ledger.New(st, txid.New(st), nil, log).WithClock(fixedClock("2025-01-17"))
	d := intent.NewDispatcher(l, allow, ledger.LocaleEN, log).WithClock(fixedClock("2025-01-17"))

	var p Parser
	if parser != nil {
		p = parser
	}

	r := NewRouter(Config{
		Allowlist:  allow,
		Wizards:    wizard.NewManager(log),
		Ledger:     l,
		Predictor:  nil,
		Mappings:   saverStub{},
		Dispatcher: d,
		Parser:     p,
		Archive:    archive,
		Log:        log,
	})
	return &testEnv{router: r, store: st, ledger: l, parser: parser}
}

func TestRouterAccessControl(t *testing.T) {
	env := newTestEnv(t, ParseAllowlist("100"), nil, nil)
	ctx := context.Background()

	if got := env.router.HandleText(ctx, "999", "#Spending Kopi 25000"); got != rejectMessage {
		t.Errorf("reply = %q", got)
	}
	if env.store.Len() != 0 {
		t.Error("unauthorized chat reached the ledger")
	}

	if got := env.router.HandlePhoto(ctx, "999", []byte{1}, "image/jpeg"); got != rejectMessage {
		t.Errorf("photo reply = %q", got)
	}
}

func TestRouterHashtagSpending(t *testing.T) {
	env := newTestEnv(t, nil, nil, nil)
	ctx := context.Background()

	reply := env.router.HandleText(ctx, "100", "#Spending Kopi Kenangan 25000")
	if !strings.Contains(reply, "Spending recorded") {
		t.Fatalf("reply = %q", reply)
	}
	if env.store.Len() != 1 {
		t.Fatalf("store rows = %d", env.store.Len())
	}

	recent, _ := env.ledger.Recent(ctx, 1)
	if recent[0].Description != "Kopi Kenangan" || recent[0].Amount != 25000 || recent[0].Date != "2025-01-17" {
		t.Errorf("record: %+v", recent[0])
	}
}

func TestRouterHashtagBackdate(t *testing.T) {
	env := newTestEnv(t, nil, nil, nil)
	ctx := context.Background()

	reply := env.router.HandleText(ctx, "100", "#Spending Dinner Backdate 80000")
	if !strings.Contains(reply, "Dinner") {
		t.Fatalf("reply = %q", reply)
	}

	recent, _ := env.ledger.Recent(ctx, 1)
	if recent[0].Date != "2025-01-16" {
		t.Errorf("Date = %q, want yesterday", recent[0].Date)
	}
	if recent[0].Description != "Dinner" {
		t.Errorf("Description = %q, backdate flag not stripped", recent[0].Description)
	}
}

func TestRouterHashtagDeleteAndTransactions(t *testing.T) {
	env := newTestEnv(t, nil, nil, nil)
	ctx := context.Background()

	env.router.HandleText(ctx, "100", "#Income Salary 5000000")
	recent, _ := env.ledger.Recent(ctx, 1)
	id := recent[0].ID

	reply := env.router.HandleText(ctx, "100", "#Transactions 1")
	if !strings.Contains(reply, "Salary") || !strings.Contains(reply, "Total Spending") {
		t.Errorf("report reply = %q", reply)
	}

	reply = env.router.HandleText(ctx, "100", "#Delete "+id)
	if !strings.Contains(reply, "deleted") {
		t.Fatalf("delete reply = %q", reply)
	}

	reply = env.router.HandleText(ctx, "100", "#Transactions 1")
	if !strings.Contains(reply, "No transactions for today.") {
		t.Errorf("empty report reply = %q", reply)
	}
}

func TestRouterHashtagUpdate(t *testing.T) {
	env := newTestEnv(t, nil, nil, nil)
	ctx := context.Background()

	env.router.HandleText(ctx, "100", "#Spending Kopi 25000")
	recent, _ := env.ledger.Recent(ctx, 1)
	id := recent[0].ID

	reply := env.router.HandleText(ctx, "100", "#Update "+id+" tag Coffee")
	if !strings.Contains(reply, "Updated") {
		t.Fatalf("reply = %q", reply)
	}

	got, _ := env.ledger.Get(ctx, id)
	if got.Tag != "Coffee" {
		t.Errorf("Tag = %q", got.Tag)
	}
}

func TestRouterWizardEntryAndInterception(t *testing.T) {
	env := newTestEnv(t, nil, nil, nil)
	ctx := context.Background()

	reply := env.router.HandleText(ctx, "100", "Add Spending")
	if !strings.Contains(reply, "What did you spend on") {
		t.Fatalf("entry reply = %q", reply)
	}

	// While the wizard is live, even hashtag-looking text goes to it.
	reply = env.router.HandleText(ctx, "100", "Kopi")
	if !strings.Contains(reply, "How much") {
		t.Fatalf("interception reply = %q", reply)
	}

	reply = env.router.HandleText(ctx, "100", "25000")
	if !strings.Contains(reply, "Draft") {
		t.Fatalf("draft reply = %q", reply)
	}

	env.router.HandleText(ctx, "100", "Saved")
	if env.store.Len() != 1 {
		t.Errorf("store rows = %d", env.store.Len())
	}
}

func TestRouterSlashCommands(t *testing.T) {
	env := newTestEnv(t, nil, nil, nil)
	ctx := context.Background()

	if got := env.router.HandleText(ctx, "100", "/ping"); got != "pong 🏓" {
		t.Errorf("/ping = %q", got)
	}
	if got := env.router.HandleText(ctx, "100", "/help"); !strings.Contains(got, "#Spending") {
		t.Errorf("/help = %q", got)
	}

	// /exit aborts a live wizard.
	env.router.HandleText(ctx, "100", "add income")
	if got := env.router.HandleText(ctx, "100", "/exit"); !strings.Contains(got, "stopped") {
		t.Errorf("/exit = %q", got)
	}
	if got := env.router.HandleText(ctx, "100", "/exit"); got != "Nothing to exit." {
		t.Errorf("second /exit = %q", got)
	}
}

func TestRouterFreeText(t *testing.T) {
	parser := &mockParser{}
	env := newTestEnv(t, nil, parser, nil)
	ctx := context.Background()

	t.Run("parsed intent is dispatched", func(t *testing.T) {
		parser.ParseMessageFunc = func(ctx context.Context, text string) (intent.Parsed, error) {
			return intent.Parsed{
				Intent:  intent.AddSpending,
				Payload: intent.Payload{ExpenseName: "kopi", Amount: 18000},
			}, nil
		}
		reply := env.router.HandleText(ctx, "100", "catat kopi 18000")
		if !strings.Contains(reply, "Spending recorded") {
			t.Errorf("reply = %q", reply)
		}
		if env.store.Len() != 1 {
			t.Errorf("store rows = %d", env.store.Len())
		}
	})

	t.Run("unknown intent apologizes", func(t *testing.T) {
		parser.ParseMessageFunc = nil
		reply := env.router.HandleText(ctx, "100", "what is the meaning of life")
		if !strings.Contains(reply, "couldn't understand") {
			t.Errorf("reply = %q", reply)
		}
	})

	t.Run("model failure is a soft error", func(t *testing.T) {
		parser.ParseMessageFunc = func(ctx context.Context, text string) (intent.Parsed, error) {
			return intent.Parsed{Intent: intent.Unknown}, errors.New("model unavailable")
		}
		reply := env.router.HandleText(ctx, "100", "anything")
		if !strings.Contains(reply, "error occurred") {
			t.Errorf("reply = %q", reply)
		}
	})
}

func TestRouterPhoto(t *testing.T) {
	parser := &mockParser{
		ParseReceiptFunc: func(ctx context.Context, image []byte, mimeType string) (ai.ReceiptCommand, error) {
			return ai.ReceiptCommand{Text: "#Spending Indomaret 52000", Confidence: 0.93}, nil
		},
	}
	archive := &recordingArchiver{}
	env := newTestEnv(t, nil, parser, archive)
	ctx := context.Background()

	reply := env.router.HandlePhoto(ctx, "100", []byte("fake-jpeg"), "image/jpeg")
	if !strings.Contains(reply, "Spending recorded") || !strings.Contains(reply, "Indomaret") {
		t.Fatalf("reply = %q", reply)
	}
	if env.store.Len() != 1 {
		t.Errorf("store rows = %d", env.store.Len())
	}
	if archive.chatID != "100" || archive.size == 0 {
		t.Errorf("archiver not called: %+v", archive)
	}
}

func TestRouterPhotoLowAndZeroConfidence(t *testing.T) {
	parser := &mockParser{}
	env := newTestEnv(t, nil, parser, nil)
	ctx := context.Background()

	t.Run("zero confidence never records", func(t *testing.T) {
		parser.ParseReceiptFunc = func(ctx context.Context, image []byte, mimeType string) (ai.ReceiptCommand, error) {
			return ai.ReceiptCommand{Text: "#Spending Struk 0", Confidence: 0}, nil
		}
		reply := env.router.HandlePhoto(ctx, "100", []byte("blurry"), "image/jpeg")
		if !strings.Contains(reply, "Couldn't read the receipt") {
			t.Errorf("reply = %q", reply)
		}
		if env.store.Len() != 0 {
			t.Errorf("store rows = %d", env.store.Len())
		}
	})

	t.Run("low confidence records with a warning", func(t *testing.T) {
		parser.ParseReceiptFunc = func(ctx context.Context, image []byte, mimeType string) (ai.ReceiptCommand, error) {
			return ai.ReceiptCommand{Text: "#Spending Warung 15000", Confidence: 0.4}, nil
		}
		reply := env.router.HandlePhoto(ctx, "100", []byte("dim"), "image/jpeg")
		if !strings.Contains(reply, "not fully sure") {
			t.Errorf("reply = %q", reply)
		}
		if env.store.Len() != 1 {
			t.Errorf("store rows = %d", env.store.Len())
		}
	})
}
