package sheetsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// NullPolicy decides whether NULL cells match each other when syncing rows.
type NullPolicy int

const (
	// NullEqual treats NULL as equal to NULL, so rows with blank cells are not duplicated on re-sync.
	NullEqual NullPolicy = iota
	// NullDistinct uses plain SQL equality: a row holding any NULL never matches and is inserted again.
	NullDistinct
)

// String returns the configuration name of the policy.
func (p NullPolicy) String() string {
	if p == NullDistinct {
		return "distinct"
	}
	return "equal"
}

// ParseNullPolicy parses "equal" or "distinct".
func ParseNullPolicy(name string) (NullPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "equal":
		return NullEqual, nil
	case "distinct":
		return NullDistinct, nil
	default:
		return NullEqual, fmt.Errorf("unknown null policy: %s (must be equal or distinct)", name)
	}
}

// operator returns the comparison operator used in match predicates
func (p NullPolicy) operator() string {
	if p == NullDistinct {
		return "="
	}
	return "IS"
}

// SyncResult reports what SyncRows did for one table.
type SyncResult struct {
	Table    string
	Inserted int
	Skipped  int
}

// TableBuilder creates tables and loads rows into an open store.
type TableBuilder struct {
	db         *sql.DB
	logger     Logger
	progress   Progress
	nullPolicy NullPolicy
	// keys maps table names to the natural key used to match rows on sync
	keys map[string][]string
}

// BuilderOption configures a TableBuilder.
type BuilderOption func(*TableBuilder)

// WithLogger sets the logger for diagnostics.
func WithLogger(logger Logger) BuilderOption {
	return func(b *TableBuilder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithProgress reports per-row progress while syncing.
func WithProgress(progress Progress) BuilderOption {
	return func(b *TableBuilder) {
		if progress != nil {
			b.progress = progress
		}
	}
}

// WithNullPolicy sets how NULL cells are compared on sync.
func WithNullPolicy(policy NullPolicy) BuilderOption {
	return func(b *TableBuilder) {
		b.nullPolicy = policy
	}
}

// WithKeyColumns sets the natural key columns per table. Tables without an entry
// are matched on every column.
func WithKeyColumns(keys map[string][]string) BuilderOption {
	return func(b *TableBuilder) {
		b.keys = keys
	}
}

// NewTableBuilder creates a builder working on the store.
func NewTableBuilder(store *Store, opts ...BuilderOption) *TableBuilder {
	b := &TableBuilder{
		db:       store.DB(),
		logger:   nopLogger{},
		progress: NopProgress{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// createTableQuery builds the CREATE TABLE statement for a table
func createTableQuery(table *Table) string {
	columns := make([]string, 0, len(table.Columns))
	for _, col := range table.Columns {
		columns = append(columns, quoteIdentifier(col.Name)+" "+col.SQLType())
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdentifier(table.Name), strings.Join(columns, ", "))
}

// insertQuery builds the positional INSERT statement for a table
func insertQuery(table *Table) string {
	columns := make([]string, len(table.Columns))
	placeholders := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		columns[i] = quoteIdentifier(col.Name)
		placeholders[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdentifier(table.Name),
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)
}

// BuildSchema drops any table with the same name and creates it with the
// table's columns in original order.
func (b *TableBuilder) BuildSchema(ctx context.Context, table *Table) error {
	ec := NewErrorContext("build schema", "").WithTable(table.Name)
	if len(table.Columns) == 0 {
		b.logger.Error("No valid columns for table '%s', skipping creation.", table.Name)
		return ec.Error(ErrNoValidColumns)
	}

	query := createTableQuery(table)
	b.logger.Verbose("Executing SQL: %s", query)

	if _, err := b.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdentifier(table.Name)); err != nil {
		return ec.Error(err)
	}
	if _, err := b.db.ExecContext(ctx, query); err != nil {
		return ec.Error(err)
	}
	return nil
}

// BulkLoad replaces the content of the table with all of its rows in one transaction.
// A table without rows is skipped with a diagnostic.
func (b *TableBuilder) BulkLoad(ctx context.Context, table *Table) (int, error) {
	if len(table.Rows) == 0 {
		b.logger.Info("No data to insert for table %s", table.Name)
		return 0, nil
	}
	b.logger.Info("Inserting data into table %s", table.Name)

	ec := NewErrorContext("bulk load", "").WithTable(table.Name)
	err := b.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+quoteIdentifier(table.Name)); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, insertQuery(table))
		if err != nil {
			return fmt.Errorf("failed to prepare insert statement: %w", err)
		}
		defer stmt.Close()

		for _, row := range table.Rows {
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				return fmt.Errorf("failed to insert record: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, ec.Error(err)
	}
	return len(table.Rows), nil
}

// matchColumns returns the columns used to decide whether a row already exists
func (b *TableBuilder) matchColumns(table *Table) ([]int, error) {
	if key, ok := b.keys[table.Name]; ok && len(key) > 0 {
		return table.columnIndexes(key)
	}
	all := make([]int, len(table.Columns))
	for i := range all {
		all[i] = i
	}
	return all, nil
}

// existsQuery builds the parameterized existence check over the match columns
func (b *TableBuilder) existsQuery(table *Table, match []int) string {
	predicates := make([]string, len(match))
	for i, idx := range match {
		predicates[i] = fmt.Sprintf("%s %s ?", quoteIdentifier(table.Columns[idx].Name), b.nullPolicy.operator())
	}
	return fmt.Sprintf("SELECT 1 FROM %s WHERE %s LIMIT 1",
		quoteIdentifier(table.Name), strings.Join(predicates, " AND "))
}

// SyncRows inserts every row of the table that is not present yet.
//
// A row is present when a stored row matches it on all columns, or on the
// configured key columns of the table. The whole table is synced inside one
// transaction with two prepared statements.
func (b *TableBuilder) SyncRows(ctx context.Context, table *Table) (SyncResult, error) {
	result := SyncResult{Table: table.Name}
	ec := NewErrorContext("sync rows", "").WithTable(table.Name)

	match, err := b.matchColumns(table)
	if err != nil {
		return result, ec.Error(err)
	}

	b.progress.Start("Inserting into "+table.Name, len(table.Rows))
	defer b.progress.Done()

	err = b.inTx(ctx, func(tx *sql.Tx) error {
		existsStmt, err := tx.PrepareContext(ctx, b.existsQuery(table, match))
		if err != nil {
			return fmt.Errorf("failed to prepare existence check: %w", err)
		}
		defer existsStmt.Close()

		insertStmt, err := tx.PrepareContext(ctx, insertQuery(table))
		if err != nil {
			return fmt.Errorf("failed to prepare insert statement: %w", err)
		}
		defer insertStmt.Close()

		args := make([]any, len(match))
		for _, row := range table.Rows {
			for i, idx := range match {
				args[i] = row[idx]
			}

			b.progress.Increment()

			var one int
			err := existsStmt.QueryRowContext(ctx, args...).Scan(&one)
			switch {
			case err == nil:
				result.Skipped++
				continue
			case !errors.Is(err, sql.ErrNoRows):
				return fmt.Errorf("failed to check row: %w", err)
			}

			if _, err := insertStmt.ExecContext(ctx, row...); err != nil {
				return fmt.Errorf("failed to insert record: %w", err)
			}
			result.Inserted++
		}
		return nil
	})
	if err != nil {
		return SyncResult{Table: table.Name}, ec.Error(err)
	}

	b.logger.Verbose("Synced table %s: %d inserted, %d already present", table.Name, result.Inserted, result.Skipped)
	return result, nil
}

// inTx runs fn in a transaction, committing on success and rolling back otherwise
func (b *TableBuilder) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback failed: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}
