package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/invoice-inbox/constants"
	"github.com/joseph-ayodele/invoice-inbox/internal/common"
	"github.com/joseph-ayodele/invoice-inbox/internal/entity"
)

const invoiceColumns = "id, email_id, sender, invoice_date, amount, status, error_message, created_at, processed_at"

type postgresInvoiceRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresInvoiceRepository(pool *pgxpool.Pool, logger *slog.Logger) InvoiceRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &postgresInvoiceRepository{pool: pool, logger: logger}
}

func (r *postgresInvoiceRepository) Create(ctx context.Context, in CreateInvoiceInput) (*entity.Invoice, error) {
	inv := &entity.Invoice{
		ID:          uuid.New(),
		EmailID:     in.EmailID,
		Sender:      in.Sender,
		InvoiceDate: in.InvoiceDate.UTC(),
		Amount:      in.Amount,
		Status:      in.Status,
		CreatedAt:   time.Now().UTC(),
	}
	if inv.Status == "" {
		inv.Status = constants.StatusPending
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO invoices (id, email_id, sender, invoice_date, amount, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		inv.ID, inv.EmailID, inv.Sender, inv.InvoiceDate, inv.Amount, string(inv.Status), inv.CreatedAt,
	)
	if err != nil {
		r.logger.Error("repo.invoice.create_failed", "email_id", in.EmailID, "error", err)
		return nil, common.WrapError(err, "insert invoice")
	}
	return inv, nil
}

func (r *postgresInvoiceRepository) Update(ctx context.Context, id uuid.UUID, in UpdateInvoiceInput) (*entity.Invoice, error) {
	set := make([]string, 0, 8)
	args := make([]any, 0, 8)
	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if in.Sender != nil {
		add("sender", *in.Sender)
	}
	if in.InvoiceDate != nil {
		add("invoice_date", in.InvoiceDate.UTC())
	}
	if in.Amount != nil {
		add("amount", *in.Amount)
	}
	if in.Status != nil {
		add("status", string(*in.Status))
	}
	if in.ClearError {
		set = append(set, "error_message = NULL")
	} else if in.ErrorMessage != nil {
		add("error_message", *in.ErrorMessage)
	}
	if in.ClearProcessed {
		set = append(set, "processed_at = NULL")
	} else if in.ProcessedAt != nil {
		add("processed_at", in.ProcessedAt.UTC())
	}
	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(
		"UPDATE invoices SET %s WHERE id = $%d RETURNING %s",
		strings.Join(set, ", "), len(args), invoiceColumns,
	)

	inv, err := scanInvoice(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		r.logger.Error("repo.invoice.update_failed", "invoice_id", id, "error", err)
		return nil, common.WrapError(err, "update invoice")
	}
	return inv, nil
}

func (r *postgresInvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+invoiceColumns+" FROM invoices WHERE id = $1", id)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, common.WrapError(err, "get invoice")
	}
	return inv, nil
}

func (r *postgresInvoiceRepository) List(ctx context.Context, limit, offset int) ([]*entity.Invoice, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+invoiceColumns+" FROM invoices ORDER BY created_at DESC, id LIMIT $1 OFFSET $2",
		limit, offset)
	if err != nil {
		return nil, common.WrapError(err, "list invoices")
	}
	defer rows.Close()

	var out []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, common.WrapError(err, "scan invoice")
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *postgresInvoiceRepository) CountByStatus(ctx context.Context, status constants.InvoiceStatus) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		"SELECT count(*) FROM invoices WHERE status = $1", string(status)).Scan(&n)
	if err != nil {
		return 0, common.WrapError(err, "count invoices")
	}
	return n, nil
}

func (r *postgresInvoiceRepository) Stats(ctx context.Context) (*entity.Stats, error) {
	var s entity.Stats
	err := r.pool.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE status = $1),
		       count(*) FILTER (WHERE status = $2),
		       count(*) FILTER (WHERE status = $3)
		FROM invoices`,
		string(constants.StatusProcessed), string(constants.StatusFailed), string(constants.StatusPending),
	).Scan(&s.Total, &s.Processed, &s.Failed, &s.Pending)
	if err != nil {
		return nil, common.WrapError(err, "invoice stats")
	}
	return &s, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*entity.Invoice, error) {
	var (
		inv    entity.Invoice
		status string
		errMsg *string
		procAt *time.Time
	)
	if err := row.Scan(&inv.ID, &inv.EmailID, &inv.Sender, &inv.InvoiceDate,
		&inv.Amount, &status, &errMsg, &inv.CreatedAt, &procAt); err != nil {
		return nil, err
	}
	inv.Status = constants.InvoiceStatus(status)
	inv.ErrorMessage = errMsg
	inv.ProcessedAt = procAt
	return &inv, nil
}
