// Package server is the HTTP boundary: a thin chi router over the pipeline
// and the record store. Handlers translate pipeline results into status
// codes and JSON bodies; no business logic lives here.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/joseph-ayodele/invoice-inbox/internal/llm"
	"github.com/joseph-ayodele/invoice-inbox/internal/pipeline"
	"github.com/joseph-ayodele/invoice-inbox/internal/repository"
)

type Server struct {
	logger    *slog.Logger
	processor *pipeline.Processor
	repo      repository.InvoiceRepository
	extractor llm.FieldExtractor
}

func New(logger *slog.Logger, processor *pipeline.Processor, repo repository.InvoiceRepository, extractor llm.FieldExtractor) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{logger: logger, processor: processor, repo: repo, extractor: extractor}
}

// RouterOptions tunes the middleware stack.
type RouterOptions struct {
	RequestTimeout time.Duration
	AllowedOrigins []string
}

func (s *Server) Router(opts RouterOptions) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opts.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/webhook/email", s.handleWebhookHealth)
		r.Post("/webhook/email", s.handleWebhookEmail)
		r.Get("/invoices", s.handleInvoices)
		r.Get("/process/{id}", s.handleGetInvoice)
		r.Post("/process/{id}", s.handleReprocess)
		r.Post("/test-extraction", s.handleTestExtraction)
	})
	return r
}
