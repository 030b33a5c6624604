// Package sheetsql turns a spreadsheet workbook into a SQLite database and
// lets an operator query it from an interactive console.
//
// Every sheet of the workbook becomes one table. The first row of a sheet is
// its header; columns whose header is blank are dropped, and spaces, colons
// and semicolons in sheet and column names become underscores.
//
// # Conversion
//
// A Converter loads the workbook and creates the database the first time it
// runs. The database file is never rebuilt while it exists: later runs only
// append the workbook rows that are not yet present in each table.
//
//	report, err := sheetsql.NewConverter(sheetsql.Options{
//	    SourcePath: "db/db.xlsx",
//	}).Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// The database defaults to the workbook path with "_.db" appended, so
// "db/db.xlsx" produces "db/db.xlsx_.db".
//
// # Row Matching
//
// A workbook row is considered present when a stored row has the same value
// in every column, or in the key columns configured for its table. Under
// NullEqual (the default) a blank cell matches a stored NULL; under
// NullDistinct it never does, which reproduces plain SQL equality.
//
// # Console
//
// A Console reads one statement per line, executes it verbatim and prints
// every result row as a tuple such as (1, 'A'). Typing Q quits. The first
// failing statement ends the session with a *QueryError.
//
// # Export
//
// Export writes every table back out as CSV, TSV, LTSV, XLSX or Parquet,
// optionally compressed with gzip, xz or zstandard.
//
// # Compressed Workbooks
//
// Workbooks ending in .gz, .bz2, .xz or .zst are decompressed on the fly.
//
// For SQL syntax, see: https://www.sqlite.org/lang.html
package sheetsql
