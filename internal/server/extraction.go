package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/joseph-ayodele/invoice-inbox/internal/entity"
)

type testExtractionPayload struct {
	Subject string `json:"subject"`
	Content string `json:"content"`
	From    string `json:"from"`
}

// handleTestExtraction runs the extractor over an ad-hoc email without
// persisting anything. Useful for prompt tuning against live mail samples.
func (s *Server) handleTestExtraction(w http.ResponseWriter, r *http.Request) {
	var payload testExtractionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", err.Error())
		return
	}
	if payload.Subject == "" || payload.Content == "" || payload.From == "" {
		writeError(w, http.StatusBadRequest, "missing required fields: subject, content, from", "")
		return
	}

	email := entity.EmailData{
		ID:         fmt.Sprintf("test-%d", time.Now().UnixMilli()),
		Subject:    payload.Subject,
		Content:    payload.Content,
		From:       payload.From,
		ReceivedAt: time.Now().UTC(),
	}

	fields, _, err := s.extractor.ExtractFields(r.Context(), email)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "failed to extract invoice data",
			"details": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"extractedData": fields,
		"originalEmail": map[string]any{
			"subject": email.Subject,
			"from":    email.From,
			"content": truncate(email.Content, 200),
		},
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
