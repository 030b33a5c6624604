package sheetsql

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Workbook extensions understood by the loader
const (
	// extXLSX is the Excel XLSX file extension
	extXLSX = ".xlsx"
	// extXLSM is the macro-enabled Excel workbook extension
	extXLSM = ".xlsm"
)

// Workbook is an ordered list of sheets read from a spreadsheet file.
type Workbook struct {
	// Path is the file the workbook was loaded from.
	Path string
	// Sheets keeps the order of the sheet tabs.
	Sheets []*Sheet
}

// Sheet is one named tabular unit of a workbook.
// The first spreadsheet row is the header, the rest are records.
type Sheet struct {
	Name    string
	header  header
	records []Record
	// textColumns marks columns holding at least one text-typed data cell
	textColumns []bool
}

// NewSheet builds a sheet from raw rows, as returned by a spreadsheet reader.
// The first row is the header; blank header cells become "Unnamed: <index>" and
// fully blank rows are dropped. Short rows are padded with empty cells.
func NewSheet(name string, rows [][]string) *Sheet {
	sheet := &Sheet{Name: name}
	if len(rows) == 0 {
		return sheet
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}

	h := make(header, width)
	for i := range h {
		if i < len(rows[0]) && strings.TrimSpace(rows[0][i]) != "" {
			h[i] = strings.TrimSpace(rows[0][i])
		} else {
			h[i] = unnamedColumnName(i)
		}
	}
	sheet.header = h

	for _, row := range rows[1:] {
		record := make(Record, width)
		copy(record, row)
		if record.isBlank() {
			continue
		}
		sheet.records = append(sheet.records, record)
	}
	return sheet
}

// Header returns the column names as they appear in the sheet.
func (s *Sheet) Header() []string {
	return s.header
}

// Records returns the data rows of the sheet.
func (s *Sheet) Records() []Record {
	return s.records
}

// isTextColumn reports whether the column at index i was stored as text in the workbook
func (s *Sheet) isTextColumn(i int) bool {
	return i < len(s.textColumns) && s.textColumns[i]
}

// isSupportedWorkbook reports whether the path names a workbook, compressed or not
func isSupportedWorkbook(path string) bool {
	ext := strings.ToLower(filepath.Ext(trimCompressionExtension(path)))
	return ext == extXLSX || ext == extXLSM
}

// LoadWorkbook reads every sheet of the workbook at path.
//
// The whole workbook is loaded or an error is returned: ErrFileNotFound or
// ErrPermissionDenied when the file cannot be read, ErrUnsupportedFormat or
// ErrInvalidWorkbook when it is not a spreadsheet. Compressed workbooks
// (.xlsx.gz, .xlsx.bz2, .xlsx.xz, .xlsx.zst) are decompressed on the fly.
func LoadWorkbook(ctx context.Context, path string) (*Workbook, error) {
	ec := NewErrorContext("load workbook", path)

	if !isSupportedWorkbook(path) {
		return nil, ec.Error(ErrUnsupportedFormat)
	}

	file, err := os.Open(path) //nolint:gosec // the workbook path is operator supplied
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, ec.Error(ErrFileNotFound)
		case errors.Is(err, fs.ErrPermission):
			return nil, ec.Error(ErrPermissionDenied)
		default:
			return nil, ec.Error(err)
		}
	}
	defer file.Close()

	if info, err := file.Stat(); err != nil {
		return nil, ec.Error(err)
	} else if info.IsDir() {
		return nil, ec.WithDetails("path is a directory").Error(ErrInvalidWorkbook)
	}

	reader, closeReader, err := newDecompressReader(detectCompressionType(path), file)
	if err != nil {
		return nil, ec.Error(fmt.Errorf("%w: %w", ErrInvalidWorkbook, err))
	}
	defer func() {
		_ = closeReader() // nothing left to flush on the read side
	}()

	xlsxFile, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, ec.Error(fmt.Errorf("%w: %w", ErrInvalidWorkbook, err))
	}
	defer func() {
		_ = xlsxFile.Close() // Ignore close error
	}()

	sheetNames := xlsxFile.GetSheetList()
	if len(sheetNames) == 0 {
		return nil, ec.WithDetails("no sheets").Error(ErrInvalidWorkbook)
	}

	reader := newCellReader(xlsxFile)
	workbook := &Workbook{
		Path:   path,
		Sheets: make([]*Sheet, 0, len(sheetNames)),
	}
	for _, sheetName := range sheetNames {
		if err := ctx.Err(); err != nil {
			return nil, ec.Error(err)
		}

		sheet, err := reader.readSheet(sheetName)
		if err != nil {
			return nil, ec.WithDetails("sheet "+sheetName).Error(fmt.Errorf("%w: %w", ErrInvalidWorkbook, err))
		}
		workbook.Sheets = append(workbook.Sheets, sheet)
	}

	return workbook, nil
}

// Date rendering of date-styled numeric cells
const (
	dateTimeLayout = "2006-01-02 15:04:05"
	timeLayout     = "15:04:05"
)

// cellReader reads the stored value of every cell rather than its displayed text
type cellReader struct {
	file     *excelize.File
	date1904 bool
	// dateStyles caches whether a style index carries a date or time number format
	dateStyles map[int]bool
}

func newCellReader(f *excelize.File) *cellReader {
	r := &cellReader{file: f, dateStyles: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		r.date1904 = *props.Date1904
	}
	return r
}

// readSheet loads a sheet with raw cell values. Numbers keep their full
// precision whatever their number format, date-styled numbers become
// "2006-01-02 15:04:05" text and columns with text-typed data cells are
// marked so that "007" stays text.
func (r *cellReader) readSheet(name string) (*Sheet, error) {
	rows, err := r.file.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	var textColumns []bool
	for y, row := range rows {
		for x, value := range row {
			if strings.TrimSpace(value) == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(x+1, y+1)
			if err != nil {
				return nil, err
			}
			cellType, err := r.file.GetCellType(name, cell)
			if err != nil {
				return nil, err
			}

			switch cellType {
			case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
				if y == 0 {
					continue
				}
				for len(textColumns) <= x {
					textColumns = append(textColumns, false)
				}
				textColumns[x] = true
			case excelize.CellTypeUnset, excelize.CellTypeNumber:
				isDate, err := r.isDateCell(name, cell)
				if err != nil {
					return nil, err
				}
				if isDate {
					row[x] = r.dateText(value)
				}
			}
		}
	}

	sheet := NewSheet(name, rows)
	sheet.textColumns = textColumns
	return sheet, nil
}

// isDateCell reports whether the number format of the cell renders a date or a time
func (r *cellReader) isDateCell(sheet, cell string) (bool, error) {
	styleID, err := r.file.GetCellStyle(sheet, cell)
	if err != nil || styleID == 0 {
		return false, err
	}
	if isDate, ok := r.dateStyles[styleID]; ok {
		return isDate, nil
	}

	style, err := r.file.GetStyle(styleID)
	if err != nil {
		return false, err
	}
	isDate := isDateNumFmt(style.NumFmt)
	if style.CustomNumFmt != nil {
		isDate = isDateFormatCode(*style.CustomNumFmt)
	}
	r.dateStyles[styleID] = isDate
	return isDate, nil
}

// dateText renders a date serial number. Values below one day are times of day.
func (r *cellReader) dateText(raw string) string {
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	t, err := excelize.ExcelDateToTime(serial, r.date1904)
	if err != nil {
		return raw
	}
	t = t.Round(time.Millisecond)
	if serial < 1 {
		return t.Format(timeLayout)
	}
	return t.Format(dateTimeLayout)
}

// isDateNumFmt reports whether a built-in number format id is a date or time format
func isDateNumFmt(id int) bool {
	switch {
	case id >= 14 && id <= 22, id >= 27 && id <= 36, id >= 45 && id <= 47, id >= 50 && id <= 58:
		return true
	default:
		return false
	}
}

// formatCodeLiterals strips the parts of a format code that never hold date tokens
var formatCodeLiterals = regexp.MustCompile(`"[^"]*"|\[[^\]]*\]|\\.`)

// isDateFormatCode reports whether a custom number format code renders a date or a time
func isDateFormatCode(code string) bool {
	code = strings.ToLower(formatCodeLiterals.ReplaceAllString(code, ""))
	if code == "" || strings.Contains(code, "general") {
		return false
	}
	return strings.ContainsAny(code, "ydhs")
}
