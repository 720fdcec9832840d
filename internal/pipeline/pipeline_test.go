package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-inbox/constants"
	"github.com/joseph-ayodele/invoice-inbox/internal/common"
	"github.com/joseph-ayodele/invoice-inbox/internal/entity"
	"github.com/joseph-ayodele/invoice-inbox/internal/llm"
	"github.com/joseph-ayodele/invoice-inbox/internal/repository"
)

// memRepo is an in-memory InvoiceRepository for pipeline tests.
type memRepo struct {
	mu         sync.Mutex
	invoices   []*entity.Invoice // insertion order; List returns newest first
	createErr  error
	updateErr  error
	updateErrs int // fail this many updates, then succeed
}

func (m *memRepo) Create(_ context.Context, in repository.CreateInvoiceInput) (*entity.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	status := in.Status
	if status == "" {
		status = constants.StatusPending
	}
	inv := &entity.Invoice{
		ID:          uuid.New(),
		EmailID:     in.EmailID,
		Sender:      in.Sender,
		InvoiceDate: in.InvoiceDate,
		Amount:      in.Amount,
		Status:      status,
		CreatedAt:   time.Now().UTC(),
	}
	m.invoices = append(m.invoices, inv)
	out := *inv
	return &out, nil
}

func (m *memRepo) Update(_ context.Context, id uuid.UUID, in repository.UpdateInvoiceInput) (*entity.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil && m.updateErrs != 0 {
		if m.updateErrs > 0 {
			m.updateErrs--
		}
		return nil, m.updateErr
	}
	for _, inv := range m.invoices {
		if inv.ID != id {
			continue
		}
		if in.Sender != nil {
			inv.Sender = *in.Sender
		}
		if in.InvoiceDate != nil {
			inv.InvoiceDate = *in.InvoiceDate
		}
		if in.Amount != nil {
			inv.Amount = *in.Amount
		}
		if in.Status != nil {
			inv.Status = *in.Status
		}
		if in.ClearError {
			inv.ErrorMessage = nil
		} else if in.ErrorMessage != nil {
			msg := *in.ErrorMessage
			inv.ErrorMessage = &msg
		}
		if in.ClearProcessed {
			inv.ProcessedAt = nil
		} else if in.ProcessedAt != nil {
			t := *in.ProcessedAt
			inv.ProcessedAt = &t
		}
		out := *inv
		return &out, nil
	}
	return nil, common.ErrNotFound
}

func (m *memRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.invoices {
		if inv.ID == id {
			out := *inv
			return &out, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *memRepo) List(_ context.Context, limit, offset int) ([]*entity.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Invoice
	for i := len(m.invoices) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		cp := *m.invoices[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memRepo) CountByStatus(_ context.Context, status constants.InvoiceStatus) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, inv := range m.invoices {
		if inv.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *memRepo) Stats(ctx context.Context) (*entity.Stats, error) {
	processed, _ := m.CountByStatus(ctx, constants.StatusProcessed)
	failed, _ := m.CountByStatus(ctx, constants.StatusFailed)
	pending, _ := m.CountByStatus(ctx, constants.StatusPending)
	m.mu.Lock()
	defer m.mu.Unlock()
	return &entity.Stats{
		Total:     len(m.invoices),
		Processed: processed,
		Failed:    failed,
		Pending:   pending,
	}, nil
}

// stubExtractor returns canned fields or an error.
type stubExtractor struct {
	fields llm.InvoiceFields
	err    error
	calls  int
}

func (s *stubExtractor) ExtractFields(context.Context, entity.EmailData) (llm.InvoiceFields, []byte, error) {
	s.calls++
	if s.err != nil {
		return llm.InvoiceFields{}, nil, s.err
	}
	return s.fields, []byte(`{}`), nil
}

// stubSyncer records synced invoices and optionally fails.
type stubSyncer struct {
	err    error
	synced []*entity.Invoice
}

func (s *stubSyncer) SyncInvoice(_ context.Context, inv *entity.Invoice) error {
	if s.err != nil {
		return s.err
	}
	cp := *inv
	s.synced = append(s.synced, &cp)
	return nil
}

func validEmail() entity.EmailData {
	return entity.EmailData{
		ID:         "email-1",
		Subject:    "Tech Invoice - Acme",
		Content:    "Invoice attached: $100 due 2024-01-30",
		From:       "billing@acme.test",
		ReceivedAt: time.Date(2024, 1, 29, 8, 0, 0, 0, time.UTC),
	}
}

func newTestProcessor(repo *memRepo, ex *stubExtractor, sy *stubSyncer) *Processor {
	return NewProcessor(nil, repo, ex, sy, 50)
}
