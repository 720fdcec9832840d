package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-inbox/constants"
)

// Invoice represents an invoice record for data transfer between layers.
type Invoice struct {
	ID           uuid.UUID               `json:"id"`
	EmailID      string                  `json:"email_id"`
	Sender       string                  `json:"sender"`
	InvoiceDate  time.Time               `json:"invoice_date"`
	Amount       float64                 `json:"amount"`
	Status       constants.InvoiceStatus `json:"status"`
	ErrorMessage *string                 `json:"error_message,omitempty"`
	CreatedAt    time.Time               `json:"created_at"`
	ProcessedAt  *time.Time              `json:"processed_at,omitempty"`
}

// Stats aggregates invoice counts by status.
type Stats struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
	Pending   int `json:"pending"`
}
