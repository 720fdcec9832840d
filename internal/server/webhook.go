package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/joseph-ayodele/invoice-inbox/internal/entity"
)

type webhookPayload struct {
	ID         string `json:"id"`
	Subject    string `json:"subject"`
	Content    string `json:"content"`
	From       string `json:"from"`
	ReceivedAt string `json:"receivedAt,omitempty"` // RFC 3339, defaults to now
}

// handleWebhookEmail accepts an inbound email from the mail webhook, runs the
// eligibility gate, and pushes eligible emails through the pipeline.
// Ineligible emails are acknowledged with 200 so the webhook does not retry.
func (s *Server) handleWebhookEmail(w http.ResponseWriter, r *http.Request) {
	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", err.Error())
		return
	}
	if payload.ID == "" || payload.Subject == "" || payload.Content == "" || payload.From == "" {
		writeError(w, http.StatusBadRequest, "missing required fields: id, subject, content, from", "")
		return
	}

	receivedAt := time.Now().UTC()
	if payload.ReceivedAt != "" {
		t, err := time.Parse(time.RFC3339, payload.ReceivedAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid receivedAt timestamp", err.Error())
			return
		}
		receivedAt = t
	}

	email := entity.EmailData{
		ID:         payload.ID,
		Subject:    payload.Subject,
		Content:    payload.Content,
		From:       payload.From,
		ReceivedAt: receivedAt,
	}

	eligibility, err := s.processor.ValidateEmail(r.Context(), email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error", err.Error())
		return
	}
	if !eligibility.Eligible {
		s.logger.Info("webhook.email.skipped", "email_id", email.ID, "reason", eligibility.Reason)
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "email not processed",
			"reason":  eligibility.Reason,
		})
		return
	}

	s.logger.Info("webhook.email.accepted", "email_id", email.ID)
	res := s.processor.ProcessEmailInvoice(r.Context(), email)
	if !res.Success {
		details := ""
		if res.Err != nil {
			details = res.Err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":     "failed to process invoice",
			"details":   details,
			"invoiceId": res.InvoiceID,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "invoice processed successfully",
		"invoiceId": res.InvoiceID,
	})
}

func (s *Server) handleWebhookHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "email webhook endpoint is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
