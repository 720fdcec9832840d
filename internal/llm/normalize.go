package llm

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"
)

var reISODate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type rawFields struct {
	Sender      *string  `json:"sender"`
	InvoiceDate *string  `json:"invoiceDate"`
	Amount      *float64 `json:"amount"`
}

// NormalizeFields decodes validated model output into InvoiceFields,
// collapsing vendor nulls and unusable values into absence: a non-finite
// amount is discarded, and an invoice date that is not strict YYYY-MM-DD is
// discarded.
func NormalizeFields(doc []byte) (InvoiceFields, error) {
	var raw rawFields
	if err := json.Unmarshal(doc, &raw); err != nil {
		return InvoiceFields{}, err
	}

	var out InvoiceFields
	if raw.Sender != nil {
		out.Sender = strings.TrimSpace(*raw.Sender)
	}
	if raw.InvoiceDate != nil {
		d := strings.TrimSpace(*raw.InvoiceDate)
		if reISODate.MatchString(d) {
			out.InvoiceDate = d
		}
	}
	if raw.Amount != nil && !math.IsNaN(*raw.Amount) && !math.IsInf(*raw.Amount, 0) {
		out.Amount = *raw.Amount
	}
	return out, nil
}
