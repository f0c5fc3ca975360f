package csvimport

import (
	"errors"
	"fmt"
	"strings"
)

// Upload error codes
const (
	ErrCodeUploadInvalidFile     = "ERR_UPLOAD_INVALID_FILE"
	ErrCodeUploadEmptyFile       = "ERR_UPLOAD_EMPTY_FILE"
	ErrCodeUploadInvalidEncoding = "ERR_UPLOAD_INVALID_ENCODING"
	ErrCodeUploadFileTooLarge    = "ERR_UPLOAD_FILE_TOO_LARGE"
	ErrCodeUploadMissingColumn   = "ERR_UPLOAD_MISSING_COLUMN"
	ErrCodeUploadMalformedRow    = "ERR_UPLOAD_MALFORMED_ROW"
	ErrCodeUploadRequiredField   = "ERR_UPLOAD_REQUIRED_FIELD"
	ErrCodeUploadInvalidType     = "ERR_UPLOAD_INVALID_TYPE"
	ErrCodeUploadInvalidRange    = "ERR_UPLOAD_INVALID_RANGE"
	ErrCodeUploadInvalidLength   = "ERR_UPLOAD_INVALID_LENGTH"
)

// File-level upload errors. These abort parsing; row problems are collected instead.
var (
	ErrEmptyFile       = errors.New("csvimport: upload file is empty")
	ErrInvalidEncoding = errors.New("csvimport: upload file is not valid UTF-8")
	ErrMissingHeader   = errors.New("csvimport: upload file has no header row")
	ErrMissingColumns  = errors.New("csvimport: upload file is missing required columns")
	ErrNoDataRows      = errors.New("csvimport: upload file has no data rows")
	ErrFileTooLarge    = errors.New("csvimport: upload file exceeds the row limit")
)

// RowError describes a problem with one cell or row of an upload
type RowError struct {
	Row     int
	Column  string
	Code    string
	Message string
	Value   string
}

// Error implements the error interface
func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column '%s': %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// ErrorCollection accumulates row errors up to a limit while still counting the overflow
type ErrorCollection struct {
	errors    []RowError
	maxErrors int
	total     int
}

// NewErrorCollection creates a collection keeping at most maxErrors entries
func NewErrorCollection(maxErrors int) *ErrorCollection {
	if maxErrors <= 0 {
		maxErrors = 100
	}
	return &ErrorCollection{maxErrors: maxErrors}
}

// Add records err
func (ec *ErrorCollection) Add(err RowError) {
	ec.total++
	if len(ec.errors) < ec.maxErrors {
		ec.errors = append(ec.errors, err)
	}
}

// AddRequired records a missing value
func (ec *ErrorCollection) AddRequired(row int, column string) {
	ec.Add(RowError{Row: row, Column: column, Code: ErrCodeUploadRequiredField,
		Message: fmt.Sprintf("%s is required", column)})
}

// AddType records a value that is not of the expected type
func (ec *ErrorCollection) AddType(row int, column, expected, value string) {
	ec.Add(RowError{Row: row, Column: column, Code: ErrCodeUploadInvalidType,
		Message: "expected " + expected, Value: value})
}

// AddRange records a value outside its allowed range
func (ec *ErrorCollection) AddRange(row int, column, constraint, value string) {
	ec.Add(RowError{Row: row, Column: column, Code: ErrCodeUploadInvalidRange,
		Message: "must be " + constraint, Value: value})
}

// Errors returns the kept errors in insertion order
func (ec *ErrorCollection) Errors() []RowError {
	return ec.errors
}

// Count returns the number of kept errors
func (ec *ErrorCollection) Count() int {
	return len(ec.errors)
}

// TotalCount returns the number of errors recorded, kept or not
func (ec *ErrorCollection) TotalCount() int {
	return ec.total
}

// HasErrors reports whether anything was recorded
func (ec *ErrorCollection) HasErrors() bool {
	return ec.total > 0
}

// IsTruncated reports whether errors were dropped at the limit
func (ec *ErrorCollection) IsTruncated() bool {
	return ec.total > ec.maxErrors
}

// Messages returns the kept errors formatted for display
func (ec *ErrorCollection) Messages() []string {
	out := make([]string, len(ec.errors))
	for i, e := range ec.errors {
		out[i] = e.Error()
	}
	return out
}

// String summarizes the collection
func (ec *ErrorCollection) String() string {
	if !ec.HasErrors() {
		return "no errors"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d error(s) found", ec.total)
	if ec.IsTruncated() {
		fmt.Fprintf(&sb, " (showing first %d)", ec.maxErrors)
	}
	sb.WriteString(":\n")
	for _, e := range ec.errors {
		fmt.Fprintf(&sb, "  - %s\n", e.Error())
	}
	return sb.String()
}
