package sheetsql

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// testSheet is a sheet written into a generated workbook
type testSheet struct {
	name string
	rows [][]any
}

// writeTestWorkbook saves an xlsx file holding the sheets in order
func writeTestWorkbook(t *testing.T, path string, sheets ...testSheet) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", sheet.name))
		} else {
			_, err := f.NewSheet(sheet.name)
			require.NoError(t, err)
		}
		for r, row := range sheet.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			values := row
			require.NoError(t, f.SetSheetRow(sheet.name, cell, &values))
		}
	}
	require.NoError(t, f.SaveAs(path))
}

// ordersSheet is the reference Orders sheet: two columns, two rows
func ordersSheet() testSheet {
	return testSheet{
		name: "Orders",
		rows: [][]any{
			{"ID", "Name"},
			{1, "A"},
			{2, "B"},
		},
	}
}

// newTestWorkbook writes the sheets to a fresh directory and returns the workbook path
func newTestWorkbook(t *testing.T, sheets ...testSheet) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "book.xlsx")
	writeTestWorkbook(t, path, sheets...)
	return path
}

// openTestStore opens a store and closes it when the test ends
func openTestStore(t *testing.T, path string) *Store {
	t.Helper()

	store, err := OpenStore(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// queryRows returns every row of query as scanned values
func queryRows(t *testing.T, store *Store, query string, args ...any) [][]any {
	t.Helper()

	rows, err := store.DB().QueryContext(context.Background(), query, args...)
	require.NoError(t, err)
	defer rows.Close()

	columns, err := rows.Columns()
	require.NoError(t, err)

	var result [][]any
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		require.NoError(t, rows.Scan(dest...))
		result = append(result, values)
	}
	require.NoError(t, rows.Err())
	return result
}

// mustTable derives a table from raw rows
func mustTable(t *testing.T, name string, rows [][]string) *Table {
	t.Helper()

	table, err := NewTable(NewSheet(name, rows))
	require.NoError(t, err)
	return table
}
