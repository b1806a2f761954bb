// Package bot is the single message router: it registers the slash commands,
// hashtag shortcuts, wizard entry phrases, photo handling and the free-text
// fallback, and owns no business logic of its own.
package bot

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-bot/internal/ai"
	"github.com/dvloznov/finance-bot/internal/intent"
	"github.com/dvloznov/finance-bot/internal/wizard"
)

const (
	rejectMessage = "❌ Access denied."

	helpMessage = "Here is what I can do:\n\n" +
		"#Spending <name> <amount> - record an expense\n" +
		"#Income <name> <amount> - record an income\n" +
		"#Delete <id> - delete a transaction\n" +
		"#Update <id> <field> <value> - change one field\n" +
		"#Transactions <days> - spending report\n\n" +
		"Or say \"add spending\", \"add income\", \"view spending\",\n" +
		"\"add default category\" for a guided flow,\n" +
		"send a receipt photo, or just tell me what you spent."

	updateSyntaxMessage = "Valid update commands:\n\n" +
		"#Update <id> category <value>\n" +
		"#Update <id> tag <value>\n" +
		"#Update <id> amount <value>\n" +
		"#Update <id> note <value>\n" +
		"#Update <id> expenseName <value>"
)

// Hashtag shortcuts run without the model.
var (
	spendingPattern     = regexp.MustCompile(`^#Spending (.+) (\d+)$`)
	incomePattern       = regexp.MustCompile(`^#Income (.+) (\d+)$`)
	deletePattern       = regexp.MustCompile(`^#Delete ([0-9A-Za-z]{4})$`)
	updatePattern       = regexp.MustCompile(`^#Update ([0-9A-Za-z]{4}) (\w+) (.+)$`)
	transactionsPattern = regexp.MustCompile(`^#Transactions (\d+)$`)

	backdatePattern = regexp.MustCompile(`(?i)\s*backdate\s*`)
)

// Parser classifies free text and receipt photos. Implemented by ai.Client.
type Parser interface {
	ParseMessage(ctx context.Context, text string) (intent.Parsed, error)
	ParseReceipt(ctx context.Context, image []byte, mimeType string) (ai.ReceiptCommand, error)
}

// Archiver stores a copy of every received receipt photo.
type Archiver interface {
	Store(ctx context.Context, chatID string, image []byte, mimeType string) (string, error)
}

// IntentDispatcher executes a classified intent. Implemented by
// intent.Dispatcher.
type IntentDispatcher interface {
	Dispatch(ctx context.Context, actorID string, it intent.Intent, p intent.Payload) intent.Result
}

// Router routes one incoming update to the right handler.
type Router struct {
	allow      Allowlist
	wizards    *wizard.Manager
	ledger     wizard.Recorder
	predictor  wizard.StorePredictor
	mappings   wizard.MappingSaver
	dispatcher IntentDispatcher
	parser     Parser   // nil disables free-text and receipt handling
	archive    Archiver // nil disables photo archiving
	log        zerolog.Logger
}

// Config carries the router's collaborators.
type Config struct {
	Allowlist  Allowlist
	Wizards    *wizard.Manager
	Ledger     wizard.Recorder
	Predictor  wizard.StorePredictor
	Mappings   wizard.MappingSaver
	Dispatcher IntentDispatcher
	Parser     Parser
	Archive    Archiver
	Log        zerolog.Logger
}

// NewRouter wires a Router.
func NewRouter(cfg Config) *Router {
	return &Router{
		allow:      cfg.Allowlist,
		wizards:    cfg.Wizards,
		ledger:     cfg.Ledger,
		predictor:  cfg.Predictor,
		mappings:   cfg.Mappings,
		dispatcher: cfg.Dispatcher,
		parser:     cfg.Parser,
		archive:    cfg.Archive,
		log:        cfg.Log,
	}
}

// HandleText routes one text message and returns the reply.
// Routing order: access check, slash commands, active wizard session,
// hashtag shortcuts, wizard entry phrases, free-text fallback.
func (r *Router) HandleText(ctx context.Context, chatID, text string) string {
	if !r.allow.Allowed(chatID) {
		r.log.Warn().Str("chat", chatID).Msg("Rejected unauthorized chat")
		return rejectMessage
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "Say something and I'll try to help. Type /help for the commands."
	}

	if strings.HasPrefix(text, "/") {
		return r.slashCommand(chatID, text)
	}

	if r.wizards.Active(chatID) {
		if reply, live := r.wizards.Handle(ctx, chatID, text); live {
			return reply
		}
	}

	if reply, ok := r.hashtagCommand(ctx, chatID, text); ok {
		return reply
	}

	if reply, ok := r.wizardEntry(ctx, chatID, text); ok {
		return reply
	}

	return r.freeText(ctx, chatID, text)
}

// HandlePhoto archives the photo, runs receipt OCR and re-routes the
// resulting command as if the user had typed it.
func (r *Router) HandlePhoto(ctx context.Context, chatID string, image []byte, mimeType string) string {
	if !r.allow.Allowed(chatID) {
		r.log.Warn().Str("chat", chatID).Msg("Rejected unauthorized chat")
		return rejectMessage
	}
	if len(image) == 0 {
		return "❌ Couldn't read the photo. Please send it again."
	}
	if r.parser == nil {
		return "Receipt photos are not enabled on this bot."
	}

	// Archiving is best effort; a failed upload never blocks the record.
	if r.archive != nil {
		if uri, err := r.archive.Store(ctx, chatID, image, mimeType); err != nil {
			r.log.Warn().Err(err).Str("chat", chatID).Msg("Receipt archive failed")
		} else {
			r.log.Info().Str("chat", chatID).Str("uri", uri).Msg("Receipt archived")
		}
	}

	cmd, err := r.parser.ParseReceipt(ctx, image, mimeType)
	if err != nil {
		r.log.Error().Err(err).Str("chat", chatID).Msg("Receipt OCR failed")
		return "❌ Failed to process the receipt. Try sending a clearer photo."
	}
	if cmd.Confidence == 0 {
		return "❌ Couldn't read the receipt. Try sending a clearer photo."
	}

	reply := r.HandleText(ctx, chatID, cmd.Text)
	if cmd.Confidence < 0.6 {
		return "⚠️ I'm not fully sure I read the receipt right, please double check.\n\n" + reply
	}
	return reply
}

func (r *Router) slashCommand(chatID, text string) string {
	cmd := strings.ToLower(strings.Fields(text)[0])
	switch cmd {
	case "/start":
		return "Hi! I'm your finance bot. I track spending and income.\n\n" + helpMessage
	case "/help":
		return helpMessage
	case "/ping":
		return "pong 🏓"
	case "/update":
		return updateSyntaxMessage
	case "/exit":
		if r.wizards.Abort(chatID) {
			return "✅ Okay, I stopped what we were doing."
		}
		return "Nothing to exit."
	}
	return "Unknown command. Type /help for the list."
}

func (r *Router) hashtagCommand(ctx context.Context, chatID, text string) (string, bool) {
	if m := spendingPattern.FindStringSubmatch(text); m != nil {
		return r.reply(r.dispatcher.Dispatch(ctx, chatID, intent.AddSpending, recordPayload(m[1], m[2], false))), true
	}
	if m := incomePattern.FindStringSubmatch(text); m != nil {
		return r.reply(r.dispatcher.Dispatch(ctx, chatID, intent.AddIncome, recordPayload(m[1], m[2], true))), true
	}
	if m := deletePattern.FindStringSubmatch(text); m != nil {
		return r.reply(r.dispatcher.Dispatch(ctx, chatID, intent.DeleteTransaction, intent.Payload{
			TransactionID: strings.ToLower(m[1]),
		})), true
	}
	if m := updatePattern.FindStringSubmatch(text); m != nil {
		return r.reply(r.dispatcher.Dispatch(ctx, chatID, intent.UpdateTransaction, intent.Payload{
			TransactionID: strings.ToLower(m[1]),
			Field:         m[2],
			NewValue:      strings.TrimSpace(m[3]),
		})), true
	}
	if m := transactionsPattern.FindStringSubmatch(text); m != nil {
		days, _ := strconv.Atoi(m[1])
		q := r.ledger.LastNDays(days)
		return r.reply(r.dispatcher.Dispatch(ctx, chatID, intent.GetReport, intent.Payload{
			StartDate: q.Start,
			EndDate:   q.End,
		})), true
	}
	return "", false
}

// recordPayload builds an add payload from a hashtag match. A "Backdate"
// flag inside the name dates the record yesterday.
func recordPayload(name, amount string, income bool) intent.Payload {
	p := intent.Payload{}
	if backdatePattern.MatchString(name) {
		name = strings.TrimSpace(backdatePattern.ReplaceAllString(name, " "))
		p.DateOffset = -1
	}
	p.Amount, _ = strconv.ParseInt(amount, 10, 64)
	if income {
		p.IncomeName = name
	} else {
		p.ExpenseName = name
	}
	return p
}

func (r *Router) wizardEntry(ctx context.Context, chatID, text string) (string, bool) {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "add default category"):
		return r.wizards.Start(ctx, chatID, wizard.DefaultCategoryFlow(r.mappings)), true
	case strings.Contains(lower, "add spending"):
		return r.wizards.Start(ctx, chatID, wizard.AddSpendingFlow(r.ledger, r.predictor)), true
	case strings.Contains(lower, "add income"):
		return r.wizards.Start(ctx, chatID, wizard.AddIncomeFlow(r.ledger, r.predictor)), true
	case strings.Contains(lower, "view spending"):
		return r.wizards.Start(ctx, chatID, wizard.ViewSpendingFlow(r.ledger)), true
	}
	return "", false
}

func (r *Router) freeText(ctx context.Context, chatID, text string) string {
	if r.parser == nil {
		return "I didn't recognize that command. Type /help for what I understand."
	}

	parsed, err := r.parser.ParseMessage(ctx, text)
	if err != nil {
		r.log.Error().Err(err).Str("chat", chatID).Msg("Intent parse failed")
		return "🤖 An error occurred while processing your request. Please try again."
	}
	if parsed.Intent == intent.Unknown {
		return "Sorry, I couldn't understand your request. Try rephrasing it or type /help."
	}

	return r.reply(r.dispatcher.Dispatch(ctx, chatID, parsed.Intent, parsed.Payload))
}

func (r *Router) reply(res intent.Result) string {
	if res.Success {
		return res.Message
	}
	return "⚠️ " + res.Message
}
