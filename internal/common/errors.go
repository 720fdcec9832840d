package common

import (
	"errors"
	"fmt"
	"strings"
)

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
)

// ExtractionError means the upstream model call errored, returned no usable
// content, or returned output that failed structural validation.
type ExtractionError struct {
	Cause error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract invoice data: %v", e.Cause)
}

func (e *ExtractionError) Unwrap() error { return e.Cause }

func NewExtractionError(cause error) *ExtractionError {
	return &ExtractionError{Cause: cause}
}

// DataIncompleteError means extraction ran but returned partial or unusable
// fields. Missing lists the offending field names.
type DataIncompleteError struct {
	Missing []string
}

func (e *DataIncompleteError) Error() string {
	return "incomplete extraction: missing " + strings.Join(e.Missing, ", ")
}

// SyncError means the external spreadsheet mirror stayed unreachable after
// the retry budget was spent.
type SyncError struct {
	Attempts int
	Cause    error
}

func (e *SyncError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("sheet sync failed after %d attempts: %v", e.Attempts, e.Cause)
	}
	return fmt.Sprintf("sheet sync failed after %d attempts", e.Attempts)
}

func (e *SyncError) Unwrap() error { return e.Cause }

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
