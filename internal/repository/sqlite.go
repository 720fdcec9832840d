package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/invoice-inbox/constants"
	"github.com/joseph-ayodele/invoice-inbox/internal/common"
	"github.com/joseph-ayodele/invoice-inbox/internal/entity"
)

// Fixed-width UTC layout so lexicographic order matches chronological order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS invoices (
	id            TEXT PRIMARY KEY,
	email_id      TEXT NOT NULL,
	sender        TEXT NOT NULL,
	invoice_date  TEXT NOT NULL,
	amount        REAL NOT NULL,
	status        TEXT NOT NULL,
	error_message TEXT,
	created_at    TEXT NOT NULL,
	processed_at  TEXT
);
CREATE INDEX IF NOT EXISTS idx_invoices_created_at ON invoices (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_invoices_status ON invoices (status);
`

// OpenSQLite opens (creating if needed) a single-file store and bootstraps
// the schema. Suitable for local mode and tests; Postgres is the server mode.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		logger.Error("failed to open sqlite store", "path", path, "error", err)
		return nil, common.WrapError(err, "open sqlite")
	}
	// modernc sqlite is single-writer; avoid SQLITE_BUSY under concurrent use.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		logger.Error("failed to bootstrap sqlite schema", "path", path, "error", err)
		return nil, common.WrapError(err, "bootstrap sqlite schema")
	}
	logger.Info("sqlite store ready", "path", path)
	return db, nil
}

type sqliteInvoiceRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteInvoiceRepository(db *sql.DB, logger *slog.Logger) InvoiceRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &sqliteInvoiceRepository{db: db, logger: logger}
}

func (r *sqliteInvoiceRepository) Create(ctx context.Context, in CreateInvoiceInput) (*entity.Invoice, error) {
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

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO invoices (id, email_id, sender, invoice_date, amount, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		inv.ID.String(), inv.EmailID, inv.Sender, formatTime(inv.InvoiceDate),
		inv.Amount, string(inv.Status), formatTime(inv.CreatedAt),
	)
	if err != nil {
		r.logger.Error("repo.invoice.create_failed", "email_id", in.EmailID, "error", err)
		return nil, common.WrapError(err, "insert invoice")
	}
	return inv, nil
}

func (r *sqliteInvoiceRepository) Update(ctx context.Context, id uuid.UUID, in UpdateInvoiceInput) (*entity.Invoice, error) {
	set := make([]string, 0, 8)
	args := make([]any, 0, 8)
	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, col+" = ?")
	}

	if in.Sender != nil {
		add("sender", *in.Sender)
	}
	if in.InvoiceDate != nil {
		add("invoice_date", formatTime(*in.InvoiceDate))
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
		add("processed_at", formatTime(*in.ProcessedAt))
	}
	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	args = append(args, id.String())
	query := fmt.Sprintf("UPDATE invoices SET %s WHERE id = ?", strings.Join(set, ", "))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("repo.invoice.update_failed", "invoice_id", id, "error", err)
		return nil, common.WrapError(err, "update invoice")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, common.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *sqliteInvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+invoiceColumns+" FROM invoices WHERE id = ?", id.String())
	inv, err := scanSQLiteInvoice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, common.WrapError(err, "get invoice")
	}
	return inv, nil
}

func (r *sqliteInvoiceRepository) List(ctx context.Context, limit, offset int) ([]*entity.Invoice, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+invoiceColumns+" FROM invoices ORDER BY created_at DESC, id LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, common.WrapError(err, "list invoices")
	}
	defer rows.Close()

	var out []*entity.Invoice
	for rows.Next() {
		inv, err := scanSQLiteInvoice(rows)
		if err != nil {
			return nil, common.WrapError(err, "scan invoice")
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *sqliteInvoiceRepository) CountByStatus(ctx context.Context, status constants.InvoiceStatus) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT count(*) FROM invoices WHERE status = ?", string(status)).Scan(&n)
	if err != nil {
		return 0, common.WrapError(err, "count invoices")
	}
	return n, nil
}

func (r *sqliteInvoiceRepository) Stats(ctx context.Context) (*entity.Stats, error) {
	var s entity.Stats
	err := r.db.QueryRowContext(ctx, `
		SELECT count(*),
		       coalesce(sum(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
		       coalesce(sum(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
		       coalesce(sum(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
		FROM invoices`,
		string(constants.StatusProcessed), string(constants.StatusFailed), string(constants.StatusPending),
	).Scan(&s.Total, &s.Processed, &s.Failed, &s.Pending)
	if err != nil {
		return nil, common.WrapError(err, "invoice stats")
	}
	return &s, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func scanSQLiteInvoice(row rowScanner) (*entity.Invoice, error) {
	var (
		inv     entity.Invoice
		rawID   string
		rawDate string
		status  string
		errMsg  sql.NullString
		created string
		procAt  sql.NullString
	)
	if err := row.Scan(&rawID, &inv.EmailID, &inv.Sender, &rawDate,
		&inv.Amount, &status, &errMsg, &created, &procAt); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse invoice id %q: %w", rawID, err)
	}
	inv.ID = id
	inv.Status = constants.InvoiceStatus(status)
	if inv.InvoiceDate, err = time.Parse(sqliteTimeLayout, rawDate); err != nil {
		return nil, fmt.Errorf("parse invoice_date %q: %w", rawDate, err)
	}
	if inv.CreatedAt, err = time.Parse(sqliteTimeLayout, created); err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	if errMsg.Valid {
		inv.ErrorMessage = &errMsg.String
	}
	if procAt.Valid {
		t, err := time.Parse(sqliteTimeLayout, procAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse processed_at %q: %w", procAt.String, err)
		}
		inv.ProcessedAt = &t
	}
	return &inv, nil
}
