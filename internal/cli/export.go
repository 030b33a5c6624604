package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/sheetsql"
	"github.com/nao1215/sheetsql/internal/logging"
	"github.com/nao1215/sheetsql/internal/tui"
)

// exportOptions holds the flags of the export command
type exportOptions struct {
	format   string
	compress string
	out      string
}

func newExportCmd(global *globalOptions) *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every table of the database to files",
		Long: `Export writes each table of the SQLite database to <out>/<table>.<format>,
optionally compressed. The database must exist: run sheetsql first.

Formats: csv, tsv, ltsv, xlsx, parquet
Compression: none, gz, xz, zstd`,
		Example: `  sheetsql export --format parquet --out ./dump
  sheetsql export -s book.xlsx --format tsv --compress zstd`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, global, opts)
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", "csv", "Output format: csv, tsv, ltsv, xlsx or parquet")
	cmd.Flags().StringVar(&opts.compress, "compress", "none", "Compression: none, gz, xz or zstd")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "export", "Output directory")
	return cmd
}

func runExport(cmd *cobra.Command, global *globalOptions, opts *exportOptions) error {
	cfg, err := resolveConfig(cmd, global)
	if err != nil {
		return err
	}

	format, err := sheetsql.ParseExportFormat(opts.format)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	compression, err := sheetsql.ParseCompressionType(opts.compress)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}

	logger := logging.NewWriterLogger(cmd.ErrOrStderr(), cfg.Verbose)
	exportOpts := sheetsql.NewExportOptions().
		WithFormat(format).
		WithCompression(compression).
		WithLogger(logger)

	paths, err := sheetsql.Export(commandContext(cmd), databasePath(cfg), opts.out, exportOpts)
	if err != nil {
		return err
	}

	for _, path := range paths {
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	logger.Info("%s exported %d tables to %s", tui.SymbolCheck, len(paths), opts.out)
	return nil
}
