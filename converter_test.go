package sheetsql

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConverter_Defaults(t *testing.T) {
	t.Parallel()

	c := NewConverter(Options{})
	assert.Equal(t, DefaultSourcePath, c.SourcePath())
	assert.Equal(t, "db/db.xlsx_.db", c.DatabasePath())

	c = NewConverter(Options{SourcePath: "data/book.xlsx"})
	assert.Equal(t, "data/book.xlsx_.db", c.DatabasePath())

	c = NewConverter(Options{SourcePath: "data/book.xlsx", DatabasePath: "out.db"})
	assert.Equal(t, "out.db", c.DatabasePath())
}

func TestConverter_Run(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	source := newTestWorkbook(t,
		ordersSheet(),
		testSheet{name: "Empty"},
		testSheet{name: "Headers Only", rows: [][]any{{"A", "B"}}},
		testSheet{name: "Order Lines", rows: [][]any{
			{"Order ID", "Qty", nil},
			{1, 2.5, "dropped"},
		}},
	)
	logger := &recordingLogger{}
	progress := &countingProgress{}

	report, err := NewConverter(Options{SourcePath: source, Logger: logger, Progress: progress}).Run(ctx)
	require.NoError(t, err)

	assert.True(t, report.Built)
	assert.Equal(t, map[string]int{"Orders": 2, "Order_Lines": 1}, report.Created)
	require.Len(t, report.Skipped, 2)
	assert.Equal(t, "Empty", report.Skipped[0].Sheet)
	assert.True(t, errors.Is(report.Skipped[0].Reason, ErrNoValidColumns))
	assert.Equal(t, "Headers Only", report.Skipped[1].Sheet)
	assert.True(t, errors.Is(report.Skipped[1].Reason, ErrEmptySheet))

	// the sync right after the build finds every row already present
	require.Len(t, report.Synced, 2)
	for _, synced := range report.Synced {
		assert.Zero(t, synced.Inserted, synced.Table)
	}

	for _, msg := range []string{
		"INFO Load init",
		"INFO Skipping empty sheet 'Empty'",
		"INFO Skipping empty sheet 'Headers Only'",
		"INFO db created in path " + source + "_.db",
		"INFO Preparing for table creation",
		"INFO Inserted data in tables",
	} {
		assert.True(t, logger.contains(msg), msg)
	}
	assert.Contains(t, progress.starts, "Creating tables")

	store := openTestStore(t, source+"_.db")
	names, err := store.TableNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Orders", "Order_Lines"}, names)

	assert.Equal(t, [][]any{{int64(1), "A"}, {int64(2), "B"}}, queryRows(t, store, `SELECT * FROM Orders ORDER BY ID`))
	assert.Equal(t, [][]any{{int64(1), 2.5}}, queryRows(t, store, `SELECT * FROM Order_Lines`))
}

func TestConverter_RunIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	source := newTestWorkbook(t, ordersSheet())
	converter := NewConverter(Options{SourcePath: source})

	_, err := converter.Run(ctx)
	require.NoError(t, err)

	report, err := converter.Run(ctx)
	require.NoError(t, err)
	assert.False(t, report.Built)
	require.Len(t, report.Synced, 1)
	assert.Equal(t, SyncResult{Table: "Orders", Inserted: 0, Skipped: 2}, report.Synced[0])

	store := openTestStore(t, converter.DatabasePath())
	count, err := store.CountRows(ctx, "Orders")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestConverter_RunAppendsNewRows(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	source := newTestWorkbook(t, ordersSheet())
	converter := NewConverter(Options{SourcePath: source})

	_, err := converter.Run(ctx)
	require.NoError(t, err)

	grown := ordersSheet()
	grown.rows = append(grown.rows, []any{3, "C"})
	writeTestWorkbook(t, source, grown)

	report, err := converter.Run(ctx)
	require.NoError(t, err)
	assert.False(t, report.Built)
	assert.Equal(t, SyncResult{Table: "Orders", Inserted: 1, Skipped: 2}, report.Synced[0])

	store := openTestStore(t, converter.DatabasePath())
	assert.Equal(t, [][]any{{int64(1), "A"}, {int64(2), "B"}, {int64(3), "C"}},
		queryRows(t, store, `SELECT * FROM Orders ORDER BY ID`))
}

func TestConverter_RunKeepsExistingDatabase(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	source := newTestWorkbook(t, ordersSheet())
	database := filepath.Join(t.TempDir(), "existing.db")

	// an existing file is never rebuilt, whatever it contains
	require.NoError(t, os.WriteFile(database, nil, 0o600))

	logger := &recordingLogger{}
	report, err := NewConverter(Options{SourcePath: source, DatabasePath: database, Logger: logger}).Run(ctx)
	require.NoError(t, err)

	assert.False(t, report.Built)
	assert.Empty(t, report.Created)
	assert.Empty(t, report.Synced, "tables missing from the database are not synced")
	assert.True(t, logger.contains("File '"+database+"' exists. Ignoring DB Creation.."))

	store := openTestStore(t, database)
	names, err := store.TableNames(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestConverter_RunNullPolicy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sheet := testSheet{name: "Contacts", rows: [][]any{
		{"Name", "Phone"},
		{"Ann", nil},
	}}

	for _, policy := range []NullPolicy{NullEqual, NullDistinct} {
		t.Run(policy.String(), func(t *testing.T) {
			t.Parallel()

			source := newTestWorkbook(t, sheet)
			converter := NewConverter(Options{SourcePath: source, NullPolicy: policy})
			for range 2 {
				_, err := converter.Run(ctx)
				require.NoError(t, err)
			}

			store := openTestStore(t, converter.DatabasePath())
			count, err := store.CountRows(ctx, "Contacts")
			require.NoError(t, err)
			if policy == NullEqual {
				assert.Equal(t, int64(1), count)
			} else {
				// the build, then one duplicate per sync
				assert.Equal(t, int64(3), count)
			}
		})
	}
}

func TestConverter_RunErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	source := newTestWorkbook(t, ordersSheet())

	tests := []struct {
		name  string
		opts  Options
		check func(t *testing.T, err error)
	}{
		{
			name: "missing workbook",
			opts: Options{SourcePath: filepath.Join(dir, "missing.xlsx")},
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, ErrFileNotFound))
			},
		},
		{
			name: "unsupported workbook",
			opts: Options{SourcePath: filepath.Join(dir, "book.ods")},
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, ErrUnsupportedFormat))
			},
		},
		{
			name: "database is the workbook",
			opts: Options{SourcePath: source, DatabasePath: source},
			check: func(t *testing.T, err error) {
				assert.Error(t, err)
			},
		},
		{
			name: "database is a directory",
			opts: Options{SourcePath: source, DatabasePath: dir},
			check: func(t *testing.T, err error) {
				assert.Error(t, err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewConverter(tt.opts).Run(ctx)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}
