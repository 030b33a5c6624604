package sheetsql

import (
	"fmt"
	"strings"
)

// ExportFormat represents the output file format of an export
type ExportFormat int

const (
	// ExportFormatCSV represents CSV output format
	ExportFormatCSV ExportFormat = iota
	// ExportFormatTSV represents TSV output format
	ExportFormatTSV
	// ExportFormatLTSV represents LTSV output format
	ExportFormatLTSV
	// ExportFormatXLSX represents Excel XLSX output format
	ExportFormatXLSX
	// ExportFormatParquet represents Parquet output format
	ExportFormatParquet
)

// String returns the string representation of ExportFormat
func (f ExportFormat) String() string {
	switch f {
	case ExportFormatTSV:
		return "tsv"
	case ExportFormatLTSV:
		return "ltsv"
	case ExportFormatXLSX:
		return "xlsx"
	case ExportFormatParquet:
		return "parquet"
	default:
		return "csv"
	}
}

// Extension returns the file extension for the format
func (f ExportFormat) Extension() string {
	return "." + f.String()
}

// ParseExportFormat parses the format names accepted on the command line.
func ParseExportFormat(name string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "csv":
		return ExportFormatCSV, nil
	case "tsv":
		return ExportFormatTSV, nil
	case "ltsv":
		return ExportFormatLTSV, nil
	case "xlsx":
		return ExportFormatXLSX, nil
	case "parquet":
		return ExportFormatParquet, nil
	default:
		return ExportFormatCSV, fmt.Errorf("%w: export format %s", ErrUnsupportedFormat, name)
	}
}

// ExportOptions configures how database tables are exported to files.
//
// Example:
//
//	options := NewExportOptions().
//		WithFormat(ExportFormatTSV).
//		WithCompression(CompressionGZ)
//
//	paths, err := Export(ctx, "db/db.xlsx_.db", "./output", options)
type ExportOptions struct {
	// Format specifies the output file format
	Format ExportFormat
	// Compression specifies the compression type
	Compression CompressionType
	// Logger receives one line per written file
	Logger Logger
}

// NewExportOptions creates default export options (CSV, no compression).
func NewExportOptions() ExportOptions {
	return ExportOptions{
		Format:      ExportFormatCSV,
		Compression: CompressionNone,
		Logger:      nopLogger{},
	}
}

// WithFormat sets the output file format.
func (o ExportOptions) WithFormat(format ExportFormat) ExportOptions {
	o.Format = format
	return o
}

// WithCompression adds compression to output files.
//
// Options:
//   - CompressionNone: No compression (default)
//   - CompressionGZ: Gzip compression (.gz)
//   - CompressionXZ: XZ compression (.xz)
//   - CompressionZSTD: Zstandard compression (.zst)
//
// Bzip2 can be read but not written.
func (o ExportOptions) WithCompression(compression CompressionType) ExportOptions {
	o.Compression = compression
	return o
}

// WithLogger sets the logger that reports written files.
func (o ExportOptions) WithLogger(logger Logger) ExportOptions {
	if logger != nil {
		o.Logger = logger
	}
	return o
}

// FileExtension returns the complete file extension including compression
func (o ExportOptions) FileExtension() string {
	return o.Format.Extension() + o.Compression.Extension()
}
