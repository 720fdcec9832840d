package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/invoice-inbox/internal/common"
	"github.com/joseph-ayodele/invoice-inbox/internal/entity"
	"github.com/joseph-ayodele/invoice-inbox/internal/llm/openai"
)

// Smoke-test the extraction client against a raw email body read from a file
// or stdin, without touching the store or the spreadsheet mirror.
func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	if os.Getenv("OPENAI_API_KEY") == "" {
		logger.Error("OPENAI_API_KEY env var is required")
		os.Exit(2)
	}

	var content []byte
	var err error
	if len(os.Args) >= 2 {
		content, err = os.ReadFile(os.Args[1])
		if err != nil {
			logger.Error("reading input file", "path", os.Args[1], "error", err)
			os.Exit(2)
		}
	} else {
		content, err = io.ReadAll(os.Stdin)
		if err != nil {
			logger.Error("reading stdin", "error", err)
			os.Exit(2)
		}
	}
	if len(content) == 0 {
		logger.Error("usage: extract [email.txt]  (or pipe the email body on stdin)")
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	client := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	email := entity.EmailData{
		ID:         fmt.Sprintf("extract-cli-%d", time.Now().UnixMilli()),
		Subject:    "Tech Invoice",
		Content:    string(content),
		From:       "extract-cli@localhost",
		ReceivedAt: time.Now().UTC(),
	}

	fields, raw, err := client.ExtractFields(ctx, email)
	if err != nil {
		logger.Error("extraction failed", "error", err)
		if len(raw) > 0 {
			fmt.Fprintln(os.Stderr, string(raw))
		}
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(fields, "", "  ")
	fmt.Println(string(out))
}
