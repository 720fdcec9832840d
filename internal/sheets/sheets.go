// Package sheets mirrors finalized invoice records into an external
// spreadsheet for human consumption. Delivery is at-least-once: a retried
// append can duplicate a row if an earlier attempt partially succeeded
// upstream; there is no dedup key.
package sheets

import "context"

// InvoiceRow is one spreadsheet row for a finalized invoice record.
type InvoiceRow struct {
	Sender      string
	InvoiceDate string // YYYY-MM-DD
	Amount      float64
	ProcessedAt string // RFC 3339
	Status      string
}

// Header labels, in column order.
var headers = []string{"Sender", "Invoice Date", "Amount", "Processed At", "Status"}

// RowAppender appends one row to the external tabular store, creating a
// header row on first use if the target sheet is empty.
type RowAppender interface {
	AppendInvoiceRow(ctx context.Context, row InvoiceRow) error
}
