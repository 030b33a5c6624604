package sheetsql

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/xuri/excelize/v2"
)

// maxSheetNameLength is the longest sheet name Excel accepts
const maxSheetNameLength = 31

// exportedTable is one table read back from the database
type exportedTable struct {
	name    string
	columns []ColumnInfo
	rows    [][]any
}

// Export writes every user table of the database to outputDir, one file per
// table named after it, and returns the written paths in table order.
func Export(ctx context.Context, databasePath, outputDir string, opts ExportOptions) (paths []string, err error) {
	ec := NewErrorContext("export", databasePath)
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}
	if opts.Compression == CompressionBZ2 {
		return nil, ec.WithDetails("bzip2 cannot be written").Error(ErrUnsupportedFormat)
	}

	exists, err := DatabaseExists(databasePath)
	if err != nil {
		return nil, ec.Error(err)
	}
	if !exists {
		return nil, ec.Error(ErrFileNotFound)
	}

	if err := newValidator().validateOutputDirectory(outputDir); err != nil {
		return nil, ec.Error(err)
	}
	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return nil, ec.WithDetails("failed to create output directory").Error(err)
	}

	store, err := OpenStore(ctx, databasePath)
	if err != nil {
		return nil, ec.Error(err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close database: %w", closeErr))
		}
	}()

	names, err := store.TableNames(ctx)
	if err != nil {
		return nil, ec.Error(err)
	}
	if len(names) == 0 {
		return nil, ec.Error(ErrNoTables)
	}

	for _, name := range names {
		table, err := readTable(ctx, store, name)
		if err != nil {
			return paths, ec.WithTable(name).Error(err)
		}

		path := filepath.Join(outputDir, name+opts.FileExtension())
		if err := writeExportFile(path, table, opts); err != nil {
			return paths, ec.WithTable(name).Error(err)
		}
		opts.Logger.Verbose("Exported table %s to %s", name, path)
		paths = append(paths, path)
	}
	return paths, nil
}

// readTable loads the columns and rows of one table
func readTable(ctx context.Context, store *Store, name string) (*exportedTable, error) {
	columns, err := store.TableColumns(ctx, name)
	if err != nil {
		return nil, err
	}

	rows, err := store.DB().QueryContext(ctx, "SELECT * FROM "+quoteIdentifier(name))
	if err != nil {
		return nil, fmt.Errorf("failed to read table: %w", err)
	}
	defer rows.Close()

	table := &exportedTable{name: name, columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		table.rows = append(table.rows, values)
	}
	return table, rows.Err()
}

// writeExportFile writes the table to path in the configured format and compression
func writeExportFile(path string, table *exportedTable, opts ExportOptions) (err error) {
	w, cleanup, err := createCompressedFile(path, opts.Compression)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := cleanup(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close %s: %w", path, closeErr))
		}
	}()

	switch opts.Format {
	case ExportFormatCSV:
		return writeDelimited(w, ',', table)
	case ExportFormatTSV:
		return writeDelimited(w, '\t', table)
	case ExportFormatLTSV:
		return writeLTSV(w, table)
	case ExportFormatXLSX:
		return writeXLSX(w, table)
	case ExportFormatParquet:
		return writeParquet(w, table)
	default:
		return fmt.Errorf("%w: export format %v", ErrUnsupportedFormat, opts.Format)
	}
}

// exportText renders a stored value as text. NULL becomes the empty string.
func exportText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []byte:
		return string(v)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func columnNames(columns []ColumnInfo) []string {
	names := make([]string, len(columns))
	for i, col := range columns {
		names[i] = col.Name
	}
	return names
}

// writeDelimited writes a header line followed by one record per row
func writeDelimited(w io.Writer, delimiter rune, table *exportedTable) error {
	writer := csv.NewWriter(w)
	writer.Comma = delimiter

	if err := writer.Write(columnNames(table.columns)); err != nil {
		return err
	}
	record := make([]string, len(table.columns))
	for _, row := range table.rows {
		for i, v := range row {
			record[i] = exportText(v)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ltsvEscaper keeps LTSV values on one line
var ltsvEscaper = strings.NewReplacer("\t", " ", "\r", " ", "\n", " ")

// writeLTSV writes one label:value line per row
func writeLTSV(w io.Writer, table *exportedTable) error {
	fields := make([]string, len(table.columns))
	for _, row := range table.rows {
		for i, col := range table.columns {
			fields[i] = ltsvEscaper.Replace(col.Name) + ":" + ltsvEscaper.Replace(exportText(row[i]))
		}
		if _, err := io.WriteString(w, strings.Join(fields, "\t")+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// writeXLSX writes the table as the only sheet of a new workbook
func writeXLSX(w io.Writer, table *exportedTable) (err error) {
	f := excelize.NewFile()
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	sheet := table.name
	if len(sheet) > maxSheetNameLength {
		sheet = sheet[:maxSheetNameLength]
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]any, len(table.columns))
	for i, col := range table.columns {
		header[i] = col.Name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range table.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for j, v := range row {
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// arrowType maps a declared SQLite column type to an arrow type
func arrowType(declared string) arrow.DataType {
	switch strings.ToUpper(declared) {
	case columnTypeInteger.String():
		return arrow.PrimitiveTypes.Int64
	case columnTypeReal.String():
		return arrow.PrimitiveTypes.Float64
	default:
		return arrow.BinaryTypes.String
	}
}

// writerOnly hides Close from the parquet writer, which would otherwise
// close the sink before the compressor is flushed
type writerOnly struct {
	io.Writer
}

// writeParquet writes the table as a single parquet row group
func writeParquet(w io.Writer, table *exportedTable) error {
	fields := make([]arrow.Field, len(table.columns))
	for i, col := range table.columns {
		fields[i] = arrow.Field{Name: col.Name, Type: arrowType(col.Type), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	builder := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer builder.Release()

	for r, row := range table.rows {
		for i, v := range row {
			if err := appendArrowValue(builder.Field(i), v); err != nil {
				return fmt.Errorf("row %d column %s: %w", r+1, table.columns[i].Name, err)
			}
		}
	}

	record := builder.NewRecord()
	defer record.Release()

	writer, err := pqarrow.NewFileWriter(schema, writerOnly{w}, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps())
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	if err := writer.Write(record); err != nil {
		return errors.Join(fmt.Errorf("failed to write parquet record: %w", err), writer.Close())
	}
	return writer.Close()
}

// appendArrowValue appends a stored value to a column builder, coercing
// between SQLite storage classes where the value allows it
func appendArrowValue(b array.Builder, value any) error {
	if value == nil {
		b.AppendNull()
		return nil
	}

	switch builder := b.(type) {
	case *array.Int64Builder:
		switch v := value.(type) {
		case int64:
			builder.Append(v)
		case float64:
			builder.Append(int64(v))
		default:
			n, err := strconv.ParseInt(exportText(v), 10, 64)
			if err != nil {
				return fmt.Errorf("not an integer: %q", exportText(v))
			}
			builder.Append(n)
		}
	case *array.Float64Builder:
		switch v := value.(type) {
		case float64:
			builder.Append(v)
		case int64:
			builder.Append(float64(v))
		default:
			f, err := strconv.ParseFloat(exportText(v), 64)
			if err != nil {
				return fmt.Errorf("not a number: %q", exportText(v))
			}
			builder.Append(f)
		}
	case *array.StringBuilder:
		builder.Append(exportText(value))
	default:
		return fmt.Errorf("unsupported arrow builder %T", b)
	}
	return nil
}
