package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-inbox/constants"
	"github.com/joseph-ayodele/invoice-inbox/internal/entity"
)

// CreateInvoiceInput wraps parameters for creating an invoice record.
// The store assigns the id and created_at.
type CreateInvoiceInput struct {
	EmailID     string
	Sender      string
	InvoiceDate time.Time
	Amount      float64
	Status      constants.InvoiceStatus
}

// UpdateInvoiceInput is a partial update; nil fields are left untouched.
// ClearError / ClearProcessed null out the corresponding columns, which a nil
// pointer alone cannot express.
type UpdateInvoiceInput struct {
	Sender       *string
	InvoiceDate  *time.Time
	Amount       *float64
	Status       *constants.InvoiceStatus
	ErrorMessage *string
	ProcessedAt  *time.Time

	ClearError     bool
	ClearProcessed bool
}

type InvoiceRepository interface {
	Create(ctx context.Context, in CreateInvoiceInput) (*entity.Invoice, error)
	// Update fails with common.ErrNotFound when id is absent.
	Update(ctx context.Context, id uuid.UUID, in UpdateInvoiceInput) (*entity.Invoice, error)
	// GetByID fails with common.ErrNotFound when id is absent.
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)
	// List returns records ordered by created_at descending.
	List(ctx context.Context, limit, offset int) ([]*entity.Invoice, error)
	CountByStatus(ctx context.Context, status constants.InvoiceStatus) (int, error)
	Stats(ctx context.Context) (*entity.Stats, error)
}
