package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-bot/internal/ai"
	"github.com/dvloznov/finance-bot/internal/archive"
	"github.com/dvloznov/finance-bot/internal/bot"
	"github.com/dvloznov/finance-bot/internal/category"
	"github.com/dvloznov/finance-bot/internal/intent"
	"github.com/dvloznov/finance-bot/internal/ledger"
	"github.com/dvloznov/finance-bot/internal/logger"
	"github.com/dvloznov/finance-bot/internal/store"
	"github.com/dvloznov/finance-bot/internal/store/inmemory"
	"github.com/dvloznov/finance-bot/internal/store/sheets"
	"github.com/dvloznov/finance-bot/internal/txid"
	"github.com/dvloznov/finance-bot/internal/wizard"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	var (
		port            = flag.String("port", envOr("PORT", "8080"), "HTTP server port")
		spreadsheetID   = flag.String("spreadsheet", os.Getenv("SPREADSHEET_ID"), "Google Sheets spreadsheet id (empty runs the in-memory store)")
		credentialsFile = flag.String("credentials", os.Getenv("GOOGLE_CREDENTIALS_FILE"), "Google credentials file (empty uses application default credentials)")
		txSheet         = flag.String("transactions-sheet", envOr("TRANSACTIONS_SHEET", "Transactions"), "sheet name of the transactions table")
		mappingSheet    = flag.String("mappings-sheet", envOr("MAPPINGS_SHEET", "Categories"), "sheet name of the category mappings table")
		allowedChats    = flag.String("allowed-chats", os.Getenv("ALLOWED_CHAT_IDS"), "comma-separated chat ids allowed to use the bot (empty allows all)")
		model           = flag.String("model", os.Getenv("GEMINI_MODEL"), "Gemini model name")
		bucket          = flag.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket for receipt archiving (empty disables archiving)")
		locale          = flag.String("locale", envOr("BOT_LOCALE", "id"), "empty-report message locale (id or en)")
		disableAI       = flag.Bool("disable-ai", os.Getenv("DISABLE_AI") != "", "run without the Gemini classifier")
	)
	flag.Parse()

	log := logger.New()
	ctx := context.Background()

	txStore, mappingStore := buildStores(ctx, log, *spreadsheetID, *credentialsFile, *txSheet, *mappingSheet)

	var classifier category.Classifier
	var parser bot.Parser
	if !*disableAI {
		client, err := ai.NewClient(ctx, *model, log)
		if err != nil {
			log.Warn().Err(err).Msg("Gemini client unavailable, free text and receipts disabled")
		} else {
			classifier = client
			parser = client
		}
	}

	mappings := category.NewMappingTable(mappingStore)
	resolver := category.NewResolver(mappings, classifier, log)
	led := ledger.New(txStore, txid.New(txStore), resolver, log)

	allow := bot.ParseAllowlist(*allowedChats)
	dispatcher := intent.NewDispatcher(led, allow, parseLocale(*locale), log)

	var receiptArchive bot.Archiver
	if *bucket != "" {
		arch, err := archive.New(ctx, *bucket, log)
		if err != nil {
			log.Warn().Err(err).Msg("Receipt archive unavailable")
		} else {
			defer arch.Close()
			receiptArchive = arch
		}
	} else {
		log.Warn().Msg("No GCS bucket configured - receipt archiving disabled")
	}

	router := bot.NewRouter(bot.Config{
		Allowlist:  allow,
		Wizards:    wizard.NewManager(log),
		Ledger:     led,
		Predictor:  resolver,
		Mappings:   mappings,
		Dispatcher: dispatcher,
		Parser:     parser,
		Archive:    receiptArchive,
		Log:        log,
	})

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      bot.NewServer(router, log).Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", *port).Msg("Starting bot server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func buildStores(ctx context.Context, log zerolog.Logger, spreadsheetID, credentialsFile, txSheet, mappingSheet string) (store.RecordStore, store.RecordStore) {
	if spreadsheetID == "" {
		log.Warn().Msg("No spreadsheet configured - using the in-memory store, data will not survive restarts")
		return inmemory.New(), inmemory.New()
	}

	svc, err := sheets.NewService(ctx, credentialsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create sheets client")
	}

	txStore, err := sheets.NewTable(ctx, svc, sheets.Config{
		SpreadsheetID: spreadsheetID,
		SheetName:     txSheet,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open transactions sheet")
	}

	mappingStore, err := sheets.NewTable(ctx, svc, sheets.Config{
		SpreadsheetID: spreadsheetID,
		SheetName:     mappingSheet,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open category mappings sheet")
	}

	return txStore, mappingStore
}

func parseLocale(raw string) ledger.Locale {
	if raw == "en" {
		return ledger.LocaleEN
	}
	return ledger.LocaleID
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
