package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-bot/internal/category"
	"github.com/dvloznov/finance-bot/internal/domain"
	"github.com/dvloznov/finance-bot/internal/export/notion"
	"github.com/dvloznov/finance-bot/internal/ledger"
	"github.com/dvloznov/finance-bot/internal/logger"
	"github.com/dvloznov/finance-bot/internal/store/sheets"
	"github.com/dvloznov/finance-bot/internal/txid"
	"github.com/dvloznov/finance-bot/internal/validate"
)

func main() {
	_ = godotenv.Load()
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add":
		runAdd(log)
	case "report":
		runReport(log)
	case "delete":
		runDelete(log)
	case "update":
		runUpdate(log)
	case "export":
		runExport(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Finance Bot CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  add       Record a spending or income transaction")
	fmt.Println("  report    Print a spending report for a date range")
	fmt.Println("  delete    Delete a transaction by id")
	fmt.Println("  update    Change one field of a transaction")
	fmt.Println("  export    Export transactions to a Notion database")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// openLedger builds a sheets-backed ledger from the environment. The CLI is
// an operator tool, so it has no in-memory fallback: a missing spreadsheet
// is an error, not a silent no-op.
func openLedger(ctx context.Context, log zerolog.Logger) *ledger.Ledger {
	spreadsheetID := os.Getenv("SPREADSHEET_ID")
	if spreadsheetID == "" {
		log.Fatal().Msg("SPREADSHEET_ID is required")
	}

	svc, err := sheets.NewService(ctx, os.Getenv("GOOGLE_CREDENTIALS_FILE"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create sheets client")
	}

	txStore, err := sheets.NewTable(ctx, svc, sheets.Config{
		SpreadsheetID: spreadsheetID,
		SheetName:     envOr("TRANSACTIONS_SHEET", "Transactions"),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open transactions sheet")
	}

	mappingStore, err := sheets.NewTable(ctx, svc, sheets.Config{
		SpreadsheetID: spreadsheetID,
		SheetName:     envOr("MAPPINGS_SHEET", "Categories"),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open category mappings sheet")
	}

	// No model on the CLI path; category prediction uses stored mappings only.
	resolver := category.NewResolver(category.NewMappingTable(mappingStore), nil, log)
	return ledger.New(txStore, txid.New(txStore), resolver, log)
}

func runAdd(log zerolog.Logger) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	name := fs.String("name", "", "transaction description")
	amount := fs.Int64("amount", 0, "amount in whole rupiah")
	kind := fs.String("kind", "spending", "spending or income")
	cat := fs.String("category", "", "category (empty lets the resolver decide)")
	tag := fs.String("tag", "", "optional tag")
	note := fs.String("note", "", "optional note")
	date := fs.String("date", "", "YYYY-MM-DD (empty means today)")
	fs.Parse(os.Args[2:])

	if *name == "" || *amount == 0 {
		log.Fatal().Msg("Usage: cli add -name NAME -amount AMOUNT [-kind spending|income]")
	}
	k := domain.Kind(*kind)
	if k != domain.KindSpending && k != domain.KindIncome {
		log.Fatal().Str("kind", *kind).Msg("Kind must be spending or income")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	tx, err := openLedger(ctx, log).Add(ctx, k, validate.RecordInput{
		Description: *name,
		Amount:      *amount,
		Category:    *cat,
		Tag:         *tag,
		Note:        *note,
		Date:        *date,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Add failed")
	}

	fmt.Printf("Recorded %s: %s %s (%s) [%s]\n",
		tx.Kind, tx.Description, ledger.FormatRupiah(tx.Amount), tx.Category, tx.ID)
}

func runReport(log zerolog.Logger) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	days := fs.Int("days", 7, "report the last N days")
	start := fs.String("start", "", "explicit start date YYYY-MM-DD")
	end := fs.String("end", "", "explicit end date YYYY-MM-DD")
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	led := openLedger(ctx, log)

	q := led.LastNDays(*days)
	if *start != "" && *end != "" {
		q = ledger.RangeQuery{Start: *start, End: *end}
	}

	result, err := led.QueryRange(ctx, q)
	if err != nil {
		log.Fatal().Err(err).Msg("Report failed")
	}
	if result.Empty() {
		fmt.Println(ledger.EmptyMessage(q, ledger.LocaleEN))
		return
	}
	fmt.Println(ledger.FormatTable(result))
}

func runDelete(log zerolog.Logger) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	id := fs.String("id", "", "transaction id")
	fs.Parse(os.Args[2:])

	if !txid.IsValid(*id) {
		log.Fatal().Str("id", *id).Msg("A 4-character transaction id is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := openLedger(ctx, log).Delete(ctx, *id); err != nil {
		log.Fatal().Err(err).Msg("Delete failed")
	}
	fmt.Printf("Transaction %s deleted.\n", *id)
}

func runUpdate(log zerolog.Logger) {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	id := fs.String("id", "", "transaction id")
	fieldName := fs.String("field", "", "category, tag, amount, note, expenseName or account")
	value := fs.String("value", "", "new value")
	fs.Parse(os.Args[2:])

	if !txid.IsValid(*id) || *fieldName == "" || *value == "" {
		log.Fatal().Msg("Usage: cli update -id ID -field FIELD -value VALUE")
	}

	field, err := ledger.ParseField(*fieldName)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid field")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := openLedger(ctx, log).UpdateField(ctx, *id, field, *value); err != nil {
		log.Fatal().Err(err).Msg("Update failed")
	}
	fmt.Printf("Updated %s of transaction %s.\n", field, *id)
}

func runExport(log zerolog.Logger) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	days := fs.Int("days", 30, "export the last N days")
	token := fs.String("token", os.Getenv("NOTION_TOKEN"), "Notion API token")
	databaseID := fs.String("database", os.Getenv("NOTION_DATABASE_ID"), "Notion database id")
	fs.Parse(os.Args[2:])

	if *token == "" || *databaseID == "" {
		log.Fatal().Msg("Usage: cli export -token TOKEN -database DATABASE_ID [-days N]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	led := openLedger(ctx, log)

	result, err := led.QueryRange(ctx, led.LastNDays(*days))
	if err != nil {
		log.Fatal().Err(err).Msg("Loading transactions failed")
	}
	if result.Empty() {
		fmt.Println("Nothing to export.")
		return
	}

	exporter := notion.NewExporter(notion.NewClient(*token), *databaseID, log)
	n, err := exporter.Export(ctx, result.Transactions)
	if err != nil {
		log.Fatal().Err(err).Int("exported", n).Msg("Export failed")
	}
	fmt.Printf("Exported %d transactions to Notion.\n", n)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
