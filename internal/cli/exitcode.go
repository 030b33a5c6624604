package cli

import (
	"errors"
	"strings"

	"github.com/nao1215/sheetsql"
	"github.com/nao1215/sheetsql/internal/config"
)

// Exit codes returned by the sheetsql binary.
const (
	ExitSuccess      = 0  // Conversion (and console session) completed
	ExitGeneralError = 1  // Unknown or unclassified error
	ExitUsageError   = 2  // CLI usage error (unknown flags, unexpected arguments)
	ExitPanic        = 3  // Internal panic (unexpected crash)
	ExitConfigError  = 10 // Invalid configuration file, environment or flag values
	ExitInputError   = 11 // Workbook or database missing, unreadable or malformed
	ExitQueryError   = 13 // A console statement was rejected by the engine
)

var (
	// ErrUsage marks errors caused by how the command was invoked.
	ErrUsage = errors.New("usage error")

	// ErrInvalidConfig indicates the resolved configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrUsage):
		return ExitUsageError
	case errors.Is(err, ErrInvalidConfig), errors.Is(err, config.ErrConfigNotFound):
		return ExitConfigError
	case sheetsql.IsQueryError(err):
		return ExitQueryError
	case sheetsql.IsIOError(err), sheetsql.IsFormatError(err), sheetsql.IsSchemaError(err),
		errors.Is(err, sheetsql.ErrNoTables):
		return ExitInputError
	}

	// cobra reports argument validation failures as plain errors
	errStr := err.Error()
	if strings.Contains(errStr, "unknown command") ||
		strings.Contains(errStr, "accepts ") ||
		strings.Contains(errStr, "unknown flag") {
		return ExitUsageError
	}

	return ExitGeneralError
}
