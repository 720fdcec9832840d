package constants

// InvoiceStatus is the canonical status for rows in invoices.
type InvoiceStatus string

// Stable values (store these exact strings in DB).
const (
	StatusPending   InvoiceStatus = "PENDING"   // record created, extraction not finished
	StatusProcessed InvoiceStatus = "PROCESSED" // extraction succeeded, fields are final
	StatusFailed    InvoiceStatus = "FAILED"    // terminal failure, error_message set
)

// AllStatuses lists every status in display order.
func AllStatuses() []InvoiceStatus {
	return []InvoiceStatus{StatusPending, StatusProcessed, StatusFailed}
}

// IsValid reports whether s is one of the known statuses.
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessed, StatusFailed:
		return true
	}
	return false
}
