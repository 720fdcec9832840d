package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/singleflight"
)

// Workbook is a RowAppender backed by an xlsx workbook on disk. The open
// workbook handle is memoized: the first append pays the setup cost and
// later appends reuse it. Initialization failures are not cached, so the
// next use retries the open.
type Workbook struct {
	path   string
	sheet  string
	logger *slog.Logger

	group singleflight.Group
	mu    sync.Mutex // guards doc and all writes through it
	doc   *excelize.File
}

func NewWorkbook(path, sheet string, logger *slog.Logger) *Workbook {
	if sheet == "" {
		sheet = "Invoices"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Workbook{path: path, sheet: sheet, logger: logger}
}

// AppendInvoiceRow appends one row, writing the header row first when the
// sheet is empty, and persists the workbook to disk.
func (w *Workbook) AppendInvoiceRow(ctx context.Context, row InvoiceRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()

	doc, err := w.document()
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	rows, err := doc.GetRows(w.sheet)
	if err != nil {
		return fmt.Errorf("read sheet %q: %w", w.sheet, err)
	}

	next := len(rows) + 1
	if len(rows) == 0 {
		if err := w.writeRow(doc, 1, headerCells()); err != nil {
			return fmt.Errorf("write header row: %w", err)
		}
		next = 2
	}

	cells := []any{row.Sender, row.InvoiceDate, row.Amount, row.ProcessedAt, row.Status}
	if err := w.writeRow(doc, next, cells); err != nil {
		return fmt.Errorf("write row: %w", err)
	}

	if err := doc.SaveAs(w.path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	w.logger.Info("sheets.append.ok",
		"sheet", w.sheet,
		"row", next,
		"sender", row.Sender,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// document returns the memoized handle, opening it at most once across
// concurrent callers.
func (w *Workbook) document() (*excelize.File, error) {
	w.mu.Lock()
	doc := w.doc
	w.mu.Unlock()
	if doc != nil {
		return doc, nil
	}

	v, err, _ := w.group.Do("open", func() (any, error) {
		f, err := w.open()
		if err != nil {
			w.logger.Error("sheets.open.failed", "path", w.path, "error", err)
			return nil, err
		}
		w.mu.Lock()
		w.doc = f
		w.mu.Unlock()
		w.logger.Info("sheets.open.ok", "path", w.path, "sheet", w.sheet)
		return f, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*excelize.File), nil
}

func (w *Workbook) open() (*excelize.File, error) {
	if _, err := os.Stat(w.path); err == nil {
		f, err := excelize.OpenFile(w.path)
		if err != nil {
			return nil, err
		}
		if idx, _ := f.GetSheetIndex(w.sheet); idx == -1 {
			if _, err := f.NewSheet(w.sheet); err != nil {
				return nil, err
			}
		}
		return f, nil
	}

	f := excelize.NewFile()
	// Reuse the default sheet rather than leaving an empty Sheet1 behind.
	if err := f.SetSheetName(f.GetSheetName(0), w.sheet); err != nil {
		return nil, err
	}
	return f, nil
}

func (w *Workbook) writeRow(doc *excelize.File, rowNum int, cells []any) error {
	for i, v := range cells {
		cell, err := excelize.CoordinatesToCellName(i+1, rowNum)
		if err != nil {
			return err
		}
		if err := doc.SetCellValue(w.sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func headerCells() []any {
	out := make([]any, len(headers))
	for i, h := range headers {
		out[i] = h
	}
	return out
}
