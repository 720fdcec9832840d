package sheets

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/invoice-inbox/internal/common"
	"github.com/joseph-ayodele/invoice-inbox/internal/entity"
	"github.com/joseph-ayodele/invoice-inbox/internal/retry"
)

// Syncer wraps a RowAppender with the mirror retry policy.
type Syncer struct {
	appender RowAppender
	policy   retry.Policy
	logger   *slog.Logger
}

// DefaultPolicy is 3 attempts with 1s, 2s waits capped at 5s.
func DefaultPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: 3,
		Backoff:     retry.ExpBackoff(time.Second, 5*time.Second),
	}
}

func NewSyncer(appender RowAppender, policy retry.Policy, logger *slog.Logger) *Syncer {
	if policy.MaxAttempts < 1 {
		policy = DefaultPolicy()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{appender: appender, policy: policy, logger: logger}
}

// SyncInvoice appends one row for inv, retrying per the policy. On
// exhaustion it returns a SyncError carrying the last observed error.
func (s *Syncer) SyncInvoice(ctx context.Context, inv *entity.Invoice) error {
	row := InvoiceRow{
		Sender:      inv.Sender,
		InvoiceDate: inv.InvoiceDate.Format("2006-01-02"),
		Amount:      inv.Amount,
		Status:      string(inv.Status),
	}
	if inv.ProcessedAt != nil {
		row.ProcessedAt = inv.ProcessedAt.UTC().Format(time.RFC3339)
	} else {
		row.ProcessedAt = time.Now().UTC().Format(time.RFC3339)
	}

	err := retry.Do(ctx, s.policy, s.logger, "sheets.append", func(ctx context.Context) error {
		return s.appender.AppendInvoiceRow(ctx, row)
	})
	if err != nil {
		s.logger.Error("sheets.sync.failed", "invoice_id", inv.ID, "error", err)
		return &common.SyncError{Attempts: s.policy.MaxAttempts, Cause: err}
	}
	s.logger.Info("sheets.sync.ok", "invoice_id", inv.ID)
	return nil
}

// TestConnection opens the backing document without appending anything.
// Useful as a startup or health probe. Backends that do not need setup
// may report success unconditionally.
func (s *Syncer) TestConnection(ctx context.Context) bool {
	if err := ctx.Err(); err != nil {
		return false
	}
	if w, ok := s.appender.(*Workbook); ok {
		if _, err := w.document(); err != nil {
			s.logger.Warn("sheets.connection_test.failed", "error", err)
			return false
		}
	}
	return true
}
