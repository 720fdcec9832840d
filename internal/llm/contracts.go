package llm

import (
	"context"

	"github.com/joseph-ayodele/invoice-inbox/internal/entity"
)

// InvoiceFields is the normalized shape we want from the LLM. Zero values
// mean the field was absent or unusable in the raw model output: sender and
// invoice_date empty, amount 0.
type InvoiceFields struct {
	Sender      string  `json:"sender"`
	InvoiceDate string  `json:"invoiceDate"` // YYYY-MM-DD
	Amount      float64 `json:"amount"`
}

// FieldExtractor is the interface the pipeline depends on. It never retries
// internally; retry policy, if any, belongs to the caller. The raw JSON is
// returned alongside for logging and failure forensics.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, email entity.EmailData) (InvoiceFields, []byte /*rawJSON*/, error)
}
