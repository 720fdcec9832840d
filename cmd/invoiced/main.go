package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/invoice-inbox/internal/common"
	"github.com/joseph-ayodele/invoice-inbox/internal/llm/openai"
	"github.com/joseph-ayodele/invoice-inbox/internal/pipeline"
	"github.com/joseph-ayodele/invoice-inbox/internal/repository"
	"github.com/joseph-ayodele/invoice-inbox/internal/retry"
	"github.com/joseph-ayodele/invoice-inbox/internal/server"
	"github.com/joseph-ayodele/invoice-inbox/internal/sheets"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Record store: Postgres when DB_URL is set, single-file sqlite otherwise.
	var repo repository.InvoiceRepository
	if cfg.Database.DSN != "" {
		pool, err := repository.Open(ctx, repository.Config{
			DSN:             cfg.Database.DSN,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
			DialTimeout:     cfg.Database.DialTimeout,
		}, logger)
		if err != nil {
			logger.Error("opening database", "error", err)
			os.Exit(1)
		}
		defer repository.Close(pool, logger)

		if err := repository.HealthCheck(ctx, pool, cfg.Database.DialTimeout, logger); err != nil {
			logger.Error("database health check failed", "error", err)
			os.Exit(1)
		}
		repo = repository.NewPostgresInvoiceRepository(pool, logger)
	} else {
		db, err := repository.OpenSQLite(ctx, cfg.Database.SQLitePath, logger)
		if err != nil {
			logger.Error("opening sqlite store", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := db.Close(); err != nil {
				logger.Error("closing sqlite store", "error", err)
			}
		}()
		repo = repository.NewSQLiteInvoiceRepository(db, logger)
	}

	extractor := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	workbook := sheets.NewWorkbook(cfg.Sheets.WorkbookPath, cfg.Sheets.SheetName, logger)
	syncer := sheets.NewSyncer(workbook, retry.Policy{
		MaxAttempts: cfg.Sheets.MaxAttempts,
		Backoff:     retry.ExpBackoff(cfg.Sheets.BackoffBase, cfg.Sheets.BackoffCap),
	}, logger)
	if !syncer.TestConnection(ctx) {
		// Appends retry on their own; the service still starts.
		logger.Warn("spreadsheet mirror unavailable at startup", "path", cfg.Sheets.WorkbookPath)
	}

	processor := pipeline.NewProcessor(logger, repo, extractor, syncer, cfg.Pipeline.DuplicateWindow)
	svc := server.New(logger, processor, repo, extractor)

	httpServer := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: svc.Router(server.RouterOptions{
			RequestTimeout: cfg.Server.RequestTimeout,
			AllowedOrigins: cfg.Server.AllowedOrigins,
		}),
	}

	go func() {
		logger.Info("http server listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	logger.Info("stopped")
}
