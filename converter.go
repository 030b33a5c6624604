package sheetsql

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DefaultSourcePath is the workbook used when none is configured.
const DefaultSourcePath = "db/db.xlsx"

// Options configures a Converter.
type Options struct {
	// SourcePath is the workbook to read. Defaults to DefaultSourcePath.
	SourcePath string
	// DatabasePath is the SQLite file to write. Defaults to SourcePath + "_.db".
	DatabasePath string
	// NullPolicy decides how NULL cells compare during sync.
	NullPolicy NullPolicy
	// Keys holds natural key columns per table for sync matching.
	Keys map[string][]string
	// Logger receives diagnostics. Defaults to a no-op logger.
	Logger Logger
	// Progress receives per-table progress. Defaults to NopProgress.
	Progress Progress
}

// SkippedSheet is a sheet that produced no table.
type SkippedSheet struct {
	Sheet  string
	Reason error
}

// Report summarises a conversion run.
type Report struct {
	// Built is false when the database already existed and creation was skipped.
	Built bool
	// Created lists the tables created by the build phase with their row counts.
	Created map[string]int
	// Skipped lists sheets that could not become tables.
	Skipped []SkippedSheet
	// Synced holds one result per table visited by the sync phase.
	Synced []SyncResult
}

// Converter turns a workbook into a SQLite database.
type Converter struct {
	opts Options
}

// NewConverter creates a converter, filling in defaults.
func NewConverter(opts Options) *Converter {
	if strings.TrimSpace(opts.SourcePath) == "" {
		opts.SourcePath = DefaultSourcePath
	}
	if strings.TrimSpace(opts.DatabasePath) == "" {
		opts.DatabasePath = DefaultDatabasePath(opts.SourcePath)
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}
	if opts.Progress == nil {
		opts.Progress = NopProgress{}
	}
	return &Converter{opts: opts}
}

// SourcePath returns the workbook path in use.
func (c *Converter) SourcePath() string {
	return c.opts.SourcePath
}

// DatabasePath returns the database path in use.
func (c *Converter) DatabasePath() string {
	return c.opts.DatabasePath
}

// Run loads the workbook, creates the database when it does not exist yet and
// then syncs every table. An existing database file is never rebuilt, even if
// the workbook changed.
func (c *Converter) Run(ctx context.Context) (*Report, error) {
	log := c.opts.Logger
	log.Info("Load init")

	v := newValidator()
	if err := v.validateSourcePath(c.opts.SourcePath); err != nil {
		return nil, NewErrorContext("load", c.opts.SourcePath).Error(err)
	}
	if err := v.validateDatabasePath(c.opts.SourcePath, c.opts.DatabasePath); err != nil {
		return nil, NewErrorContext("open database", c.opts.DatabasePath).Error(err)
	}

	workbook, err := LoadWorkbook(ctx, c.opts.SourcePath)
	if err != nil {
		return nil, err
	}

	report := &Report{Created: map[string]int{}}
	tables := workbook.Tables(func(sheet string, err error) {
		report.Skipped = append(report.Skipped, SkippedSheet{Sheet: sheet, Reason: err})
		switch {
		case errors.Is(err, ErrEmptySheet), errors.Is(err, ErrNoValidColumns):
			log.Info("Skipping empty sheet '%s'", sheet)
		default:
			log.Error("Skipping sheet '%s': %v", sheet, err)
		}
	})

	exists, err := DatabaseExists(c.opts.DatabasePath)
	if err != nil {
		return nil, err
	}
	if exists {
		log.Info("File '%s' exists. Ignoring DB Creation..", c.opts.DatabasePath)
	} else {
		log.Info("db created in path %s", c.opts.DatabasePath)
		if err := c.build(ctx, tables, report); err != nil {
			return nil, err
		}
		report.Built = true
	}

	if err := c.sync(ctx, tables, report); err != nil {
		return nil, err
	}
	log.Info("Inserted data in tables")
	return report, nil
}

// build creates and fills every table with its own connection
func (c *Converter) build(ctx context.Context, tables []*Table, report *Report) (err error) {
	c.opts.Logger.Info("Preparing for table creation")

	store, err := OpenStore(ctx, c.opts.DatabasePath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close database: %w", closeErr))
		}
	}()

	builder := c.newBuilder(store, NopProgress{})

	c.opts.Progress.Start("Creating tables", len(tables))
	defer c.opts.Progress.Done()

	for _, table := range tables {
		if err := builder.BuildSchema(ctx, table); err != nil {
			return err
		}
		n, err := builder.BulkLoad(ctx, table)
		if err != nil {
			return err
		}
		report.Created[table.Name] = n
		c.opts.Progress.Increment()
	}
	return nil
}

// sync appends missing rows to every table already present in the database
func (c *Converter) sync(ctx context.Context, tables []*Table, report *Report) (err error) {
	store, err := OpenStore(ctx, c.opts.DatabasePath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close database: %w", closeErr))
		}
	}()

	builder := c.newBuilder(store, c.opts.Progress)

	for _, table := range tables {
		exists, err := store.TableExists(ctx, table.Name)
		if err != nil {
			return err
		}
		if !exists {
			c.opts.Logger.Verbose("Table %s does not exist in %s, skipping sync", table.Name, store.Path())
			continue
		}

		result, err := builder.SyncRows(ctx, table)
		if err != nil {
			return err
		}
		report.Synced = append(report.Synced, result)
	}
	return nil
}

func (c *Converter) newBuilder(store *Store, progress Progress) *TableBuilder {
	return NewTableBuilder(store,
		WithLogger(c.opts.Logger),
		WithProgress(progress),
		WithNullPolicy(c.opts.NullPolicy),
		WithKeyColumns(c.opts.Keys),
	)
}
