package sheets

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-inbox/constants"
	"github.com/joseph-ayodele/invoice-inbox/internal/common"
	"github.com/joseph-ayodele/invoice-inbox/internal/entity"
	"github.com/joseph-ayodele/invoice-inbox/internal/retry"
)

type flakyAppender struct {
	failures int
	calls    int
	rows     []InvoiceRow
}

func (f *flakyAppender) AppendInvoiceRow(_ context.Context, row InvoiceRow) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("sheet unreachable")
	}
	f.rows = append(f.rows, row)
	return nil
}

func fastPolicy(attempts int) retry.Policy {
	return retry.Policy{MaxAttempts: attempts, Backoff: retry.ExpBackoff(time.Millisecond, 5*time.Millisecond)}
}

func processedInvoice() *entity.Invoice {
	procAt := time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)
	return &entity.Invoice{
		Sender:      "Acme Corp",
		InvoiceDate: time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC),
		Amount:      100,
		Status:      constants.StatusProcessed,
		ProcessedAt: &procAt,
	}
}

func TestSyncInvoiceRecoversAfterTwoFailures(t *testing.T) {
	app := &flakyAppender{failures: 2}
	s := NewSyncer(app, fastPolicy(3), nil)

	err := s.SyncInvoice(context.Background(), processedInvoice())
	require.NoError(t, err)
	assert.Equal(t, 3, app.calls)
	require.Len(t, app.rows, 1)
	assert.Equal(t, "2024-01-30", app.rows[0].InvoiceDate)
	assert.Equal(t, "2024-01-31T12:00:00Z", app.rows[0].ProcessedAt)
	assert.Equal(t, "PROCESSED", app.rows[0].Status)
}

func TestSyncInvoiceExhaustionReturnsSyncError(t *testing.T) {
	app := &flakyAppender{failures: 10}
	s := NewSyncer(app, fastPolicy(3), nil)

	err := s.SyncInvoice(context.Background(), processedInvoice())
	require.Error(t, err)
	assert.Equal(t, 3, app.calls)

	var syncErr *common.SyncError
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, 3, syncErr.Attempts)
	assert.ErrorContains(t, err, "sheet sync failed after 3 attempts")
}

func TestSyncInvoiceDefaultsProcessedAt(t *testing.T) {
	app := &flakyAppender{}
	s := NewSyncer(app, fastPolicy(1), nil)

	inv := processedInvoice()
	inv.ProcessedAt = nil
	require.NoError(t, s.SyncInvoice(context.Background(), inv))
	require.Len(t, app.rows, 1)
	assert.NotEmpty(t, app.rows[0].ProcessedAt)
}

func TestTestConnection(t *testing.T) {
	s := NewSyncer(&flakyAppender{}, fastPolicy(1), nil)
	assert.True(t, s.TestConnection(context.Background()),
		"appenders without setup report success")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, s.TestConnection(ctx))

	wb := NewWorkbook(filepath.Join(t.TempDir(), "mirror.xlsx"), "", nil)
	assert.True(t, NewSyncer(wb, fastPolicy(1), nil).TestConnection(context.Background()))
}
