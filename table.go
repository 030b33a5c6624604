package sheetsql

import (
	"fmt"
	"strings"
)

// Column is one column of a derived table.
type Column struct {
	// Name is the sanitized column name used in the database.
	Name string
	// Source is the header cell the column came from.
	Source string
	kind   columnType
}

// SQLType returns TEXT, INTEGER or REAL.
func (c Column) SQLType() string {
	return c.kind.String()
}

// Row is one table row. Values are nil, int64, float64 or string.
type Row []any

// Table is the relational form of a sheet.
type Table struct {
	// Name is the sanitized sheet name.
	Name string
	// Sheet is the name of the sheet the table was derived from.
	Sheet   string
	Columns []Column
	Rows    []Row
}

// NewTable derives a table from a sheet.
//
// Columns whose header starts with "Unnamed" are dropped. Sheet and column names
// are sanitized. A column holding text-typed cells stays TEXT even when every
// value looks numeric. A sheet without named columns yields ErrNoValidColumns and a sheet
// without data rows yields ErrEmptySheet; callers skip such sheets.
func NewTable(sheet *Sheet) (*Table, error) {
	name := SanitizeName(sheet.Name)
	ec := NewErrorContext("derive table", "").WithTable(name)

	if err := validateIdentifier(name); err != nil {
		return nil, ec.Error(err)
	}

	kept := make([]int, 0, len(sheet.header))
	for i, h := range sheet.header {
		if !isUnnamedColumn(h) {
			kept = append(kept, i)
		}
	}
	if len(kept) == 0 {
		return nil, ec.Error(ErrNoValidColumns)
	}
	if len(sheet.records) == 0 {
		return nil, ec.Error(ErrEmptySheet)
	}

	filteredHeader := make(header, len(kept))
	sanitized := make([]string, len(kept))
	for j, i := range kept {
		filteredHeader[j] = sheet.header[i]
		sanitized[j] = SanitizeName(sheet.header[i])
		if err := validateIdentifier(sanitized[j]); err != nil {
			return nil, ec.Error(err)
		}
	}
	if err := validateColumnNames(sanitized); err != nil {
		return nil, ec.Error(err)
	}

	filteredRecords := make([]Record, len(sheet.records))
	for r, record := range sheet.records {
		filtered := make(Record, len(kept))
		for j, i := range kept {
			filtered[j] = record[i]
		}
		filteredRecords[r] = filtered
	}

	infos := inferColumnsInfo(filteredHeader, filteredRecords)
	columns := make([]Column, len(infos))
	for j, info := range infos {
		kind := info.Type
		if sheet.isTextColumn(kept[j]) {
			kind = columnTypeText
		}
		columns[j] = Column{
			Name:   sanitized[j],
			Source: info.Name,
			kind:   kind,
		}
	}

	rows := make([]Row, len(filteredRecords))
	for r, record := range filteredRecords {
		row := make(Row, len(columns))
		for j, col := range columns {
			row[j] = col.kind.convert(record[j])
		}
		rows[r] = row
	}

	return &Table{
		Name:    name,
		Sheet:   sheet.Name,
		Columns: columns,
		Rows:    rows,
	}, nil
}

// ColumnNames returns the sanitized column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// columnIndexes maps column names to positions, failing on unknown names
func (t *Table) columnIndexes(names []string) ([]int, error) {
	positions := make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		positions[c.Name] = i
	}

	indexes := make([]int, 0, len(names))
	for _, name := range names {
		i, ok := positions[name]
		if !ok {
			return nil, fmt.Errorf("%w: table %s has no column %q", ErrInvalidIdentifier, t.Name, name)
		}
		indexes = append(indexes, i)
	}
	return indexes, nil
}

// Tables derives a table from every sheet of the workbook.
// Sheets that cannot become a table are reported through skip and left out;
// two sheets that sanitize to the same table name (SQLite compares names
// case-insensitively) keep the first one.
func (w *Workbook) Tables(skip func(sheet string, err error)) []*Table {
	tables := make([]*Table, 0, len(w.Sheets))
	seen := make(map[string]string, len(w.Sheets))

	for _, sheet := range w.Sheets {
		table, err := NewTable(sheet)
		if err != nil {
			skip(sheet.Name, err)
			continue
		}
		key := strings.ToLower(table.Name)
		if first, ok := seen[key]; ok {
			skip(sheet.Name, fmt.Errorf("%w: %s (already used by sheet %q)", ErrDuplicateTableName, table.Name, first))
			continue
		}
		seen[key] = sheet.Name
		tables = append(tables, table)
	}
	return tables
}
