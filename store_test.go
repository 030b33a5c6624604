package sheetsql

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStore_CreatesParentDirectories(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "book.db")
	store := openTestStore(t, path)
	assert.Equal(t, path, store.Path())

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestDatabaseExists(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "book.db")

	exists, err := DatabaseExists(path)
	require.NoError(t, err)
	assert.False(t, exists)

	// existence is all that matters, not the content
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	exists, err = DatabaseExists(path)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStoreIntrospection(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTestStore(t, filepath.Join(t.TempDir(), "book.db"))

	_, err := store.DB().ExecContext(ctx, `CREATE TABLE "Orders" ("ID" INTEGER, "Name" TEXT)`)
	require.NoError(t, err)
	_, err = store.DB().ExecContext(ctx, `CREATE TABLE "Lines" ("Qty" REAL)`)
	require.NoError(t, err)
	_, err = store.DB().ExecContext(ctx, `INSERT INTO "Orders" VALUES (1, 'A'), (2, 'B')`)
	require.NoError(t, err)

	names, err := store.TableNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Orders", "Lines"}, names)

	exists, err := store.TableExists(ctx, "orders")
	require.NoError(t, err)
	assert.True(t, exists, "table lookup ignores case")

	exists, err = store.TableExists(ctx, "Missing")
	require.NoError(t, err)
	assert.False(t, exists)

	columns, err := store.TableColumns(ctx, "Orders")
	require.NoError(t, err)
	assert.Equal(t, []ColumnInfo{{Name: "ID", Type: "INTEGER"}, {Name: "Name", Type: "TEXT"}}, columns)

	count, err := store.CountRows(ctx, "Orders")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	_, err = store.CountRows(ctx, "Missing")
	assert.Error(t, err)
}

func TestStoreClose_Nil(t *testing.T) {
	t.Parallel()

	var store *Store
	assert.NoError(t, store.Close())
}
