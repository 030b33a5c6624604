package sheetsql

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Naming constants
const (
	// unnamedColumnPrefix marks header cells that carry no name
	unnamedColumnPrefix = "Unnamed"
	// databaseSuffix is appended to the workbook path to derive the database path
	databaseSuffix = "_.db"
)

// identifierReplacer replaces the characters that are not allowed in table and column names
var identifierReplacer = strings.NewReplacer(" ", "_", ":", "_", ";", "_")

// SanitizeName replaces spaces, colons and semicolons with underscores.
// Used for both table names (from sheet names) and column names (from header cells).
func SanitizeName(name string) string {
	return identifierReplacer.Replace(name)
}

// DefaultDatabasePath returns the database path derived from a workbook path.
func DefaultDatabasePath(sourcePath string) string {
	return sourcePath + databaseSuffix
}

// validateIdentifier checks a sanitized name against the identifier allow-list:
// non-empty, valid UTF-8 without control characters.
func validateIdentifier(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidIdentifier)
	}
	for _, r := range name {
		if r == unicode.ReplacementChar || unicode.IsControl(r) {
			return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
		}
	}
	if strings.HasPrefix(strings.ToLower(name), "sqlite_") {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidIdentifier, name)
	}
	return nil
}

// quoteIdentifier quotes an SQL identifier, doubling embedded double quotes
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteLiteral renders a value as an SQL literal. Strings are single-quoted with
// embedded single quotes doubled. Only used for human-readable output; statements
// always bind values as parameters.
func QuoteLiteral(value any) string {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return "'" + strings.ReplaceAll(fmt.Sprint(v), "'", "''") + "'"
	}
}

// isUnnamedColumn reports whether a header names a column that is dropped
func isUnnamedColumn(name string) bool {
	return strings.HasPrefix(name, unnamedColumnPrefix)
}

// unnamedColumnName names a blank header cell at the given zero-based index
func unnamedColumnName(index int) string {
	return fmt.Sprintf("%s: %d", unnamedColumnPrefix, index)
}

// header holds the trimmed first-row cells of a sheet, blanks already named
type header []string

// Record represents one sheet row as the stored cell values rendered as text.
type Record []string

// isBlank reports whether every cell of the record is empty
func (r Record) isBlank() bool {
	for _, v := range r {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// columnType represents the SQL column type
type columnType int

const (
	// columnTypeText represents TEXT column type
	columnTypeText columnType = iota
	// columnTypeInteger represents INTEGER column type
	columnTypeInteger
	// columnTypeReal represents REAL column type
	columnTypeReal
	// columnTypeDatetime represents datetime stored as TEXT in ISO8601 format
	columnTypeDatetime
)

const (
	// sqlTypeText is the SQL TEXT type string
	sqlTypeText = "TEXT"
	// sqlTypeInteger is the SQL INTEGER type string
	sqlTypeInteger = "INTEGER"
	// sqlTypeReal is the SQL REAL type string
	sqlTypeReal = "REAL"
)

// String returns the SQL storage type of the column
func (ct columnType) String() string {
	switch ct {
	case columnTypeInteger:
		return sqlTypeInteger
	case columnTypeReal:
		return sqlTypeReal
	default:
		// datetime is kept as TEXT
		return sqlTypeText
	}
}

// convert turns a stored cell value into the value bound for this column type.
// Blank cells become NULL. Cells that do not parse as the column type are kept as text.
func (ct columnType) convert(raw string) any {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}
	switch ct {
	case columnTypeInteger:
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	case columnTypeReal:
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return raw
}

// validateColumnNames checks for duplicate column names and returns error if found.
// SQLite compares identifiers case-insensitively, so "ID" and "id" collide.
func validateColumnNames(columns []string) error {
	columnsSeen := make(map[string]bool)
	for _, col := range columns {
		key := strings.ToLower(col)
		if columnsSeen[key] {
			return fmt.Errorf("%w: %s", ErrDuplicateColumnName, col)
		}
		columnsSeen[key] = true
	}
	return nil
}

// columnInfo represents column information with name and inferred type
type columnInfo struct {
	Name string
	Type columnType
}
