package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-inbox/internal/common"
)

// handleInvoices serves the dashboard listing: ?action=stats for aggregate
// counts, ?action=recent for the newest records, default for a paginated
// list.
func (s *Server) handleInvoices(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("action") {
	case "stats":
		stats, err := s.processor.GetProcessingStats(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal server error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, stats)

	case "recent":
		limit := queryInt(r, "limit", 10)
		invoices, err := s.repo.List(r.Context(), limit, 0)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal server error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, invoices)

	default:
		limit := queryInt(r, "limit", 50)
		offset := queryInt(r, "offset", 0)
		invoices, err := s.repo.List(r.Context(), limit, offset)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal server error", err.Error())
			return
		}
		stats, err := s.repo.Stats(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal server error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"invoices": invoices,
			"pagination": map[string]any{
				"limit":   limit,
				"offset":  offset,
				"total":   stats.Total,
				"hasMore": offset+limit < stats.Total,
			},
		})
	}
}

// handleGetInvoice returns one record by id.
func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := invoiceID(w, r)
	if !ok {
		return
	}
	inv, err := s.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			writeError(w, http.StatusNotFound, "invoice not found", "")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// handleReprocess pushes an existing record back through the pipeline.
func (s *Server) handleReprocess(w http.ResponseWriter, r *http.Request) {
	id, ok := invoiceID(w, r)
	if !ok {
		return
	}

	s.logger.Info("invoices.reprocess.requested", "invoice_id", id)
	res := s.processor.ReprocessInvoice(r.Context(), id)
	if !res.Success {
		if errors.Is(res.Err, common.ErrNotFound) {
			writeError(w, http.StatusNotFound, "invoice not found", "")
			return
		}
		details := ""
		if res.Err != nil {
			details = res.Err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":     "failed to reprocess invoice",
			"details":   details,
			"invoiceId": id,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "invoice reprocessed successfully",
		"invoiceId": res.InvoiceID,
	})
}

func invoiceID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid invoice id", raw)
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}
