package sheetsql

import (
	"errors"
	"fmt"
	"strings"
)

// Standard error values. They are grouped into the error kinds surfaced by the CLI:
// IO (input cannot be read), format (input is not a workbook),
// schema (a sheet cannot become a table) and query (user SQL failed).
var (
	// ErrFileNotFound indicates the workbook does not exist
	ErrFileNotFound = errors.New("sheetsql: file not found")

	// ErrPermissionDenied indicates the workbook cannot be read
	ErrPermissionDenied = errors.New("sheetsql: permission denied")

	// ErrUnsupportedFormat indicates an unsupported file extension
	ErrUnsupportedFormat = errors.New("sheetsql: unsupported file format")

	// ErrInvalidWorkbook indicates the file is not a readable XLSX workbook
	ErrInvalidWorkbook = errors.New("sheetsql: invalid workbook")

	// ErrEmptySheet indicates a sheet has no data rows
	ErrEmptySheet = errors.New("sheetsql: empty sheet")

	// ErrNoValidColumns indicates a sheet has no named columns
	ErrNoValidColumns = errors.New("sheetsql: no valid columns")

	// ErrDuplicateColumnName is returned when a sheet has two columns with the same sanitized name
	ErrDuplicateColumnName = errors.New("sheetsql: duplicate column name")

	// ErrDuplicateTableName is returned when two sheets sanitize to the same table name
	ErrDuplicateTableName = errors.New("sheetsql: duplicate table name")

	// ErrInvalidIdentifier is returned when a table or column name cannot be used as an SQL identifier
	ErrInvalidIdentifier = errors.New("sheetsql: invalid identifier")

	// ErrNoTables indicates no tables found in database
	ErrNoTables = errors.New("sheetsql: no tables found in database")
)

// QueryError wraps a failure of a statement typed into the console.
// Error returns the storage engine's native message untouched.
type QueryError struct {
	Query string
	Err   error
}

// Error implements error.
func (e *QueryError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the engine error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// IsIOError reports whether err means the input could not be read.
func IsIOError(err error) bool {
	return errors.Is(err, ErrFileNotFound) || errors.Is(err, ErrPermissionDenied)
}

// IsFormatError reports whether err means the input is not a usable workbook.
func IsFormatError(err error) bool {
	return errors.Is(err, ErrInvalidWorkbook) || errors.Is(err, ErrUnsupportedFormat)
}

// IsSchemaError reports whether err is a per-sheet problem that is skipped rather than fatal.
func IsSchemaError(err error) bool {
	return errors.Is(err, ErrEmptySheet) ||
		errors.Is(err, ErrNoValidColumns) ||
		errors.Is(err, ErrDuplicateColumnName) ||
		errors.Is(err, ErrDuplicateTableName) ||
		errors.Is(err, ErrInvalidIdentifier)
}

// IsQueryError reports whether err came from a console statement.
func IsQueryError(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe)
}

// ErrorContext provides context for where an error occurred
type ErrorContext struct {
	Operation string
	FilePath  string
	TableName string
	Details   string
}

// NewErrorContext creates a new error context
func NewErrorContext(operation, filePath string) *ErrorContext {
	return &ErrorContext{
		Operation: operation,
		FilePath:  filePath,
	}
}

// WithTable adds table context to the error
func (ec *ErrorContext) WithTable(tableName string) *ErrorContext {
	ec.TableName = tableName
	return ec
}

// WithDetails adds details to the error context
func (ec *ErrorContext) WithDetails(details string) *ErrorContext {
	ec.Details = details
	return ec
}

// Error creates a formatted error with context
func (ec *ErrorContext) Error(baseErr error) error {
	var parts []string
	parts = append(parts, fmt.Sprintf("sheetsql: %s failed", ec.Operation))

	if ec.FilePath != "" {
		parts = append(parts, "file: "+ec.FilePath)
	}

	if ec.TableName != "" {
		parts = append(parts, "table: "+ec.TableName)
	}

	if ec.Details != "" {
		parts = append(parts, "details: "+ec.Details)
	}

	context := strings.Join(parts, ", ")
	if baseErr != nil {
		return fmt.Errorf("%s: %w", context, baseErr)
	}
	return fmt.Errorf("%s", context)
}
