package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/nao1215/sheetsql"
	"github.com/nao1215/sheetsql/internal/config"
	"github.com/nao1215/sheetsql/internal/logging"
	"github.com/nao1215/sheetsql/internal/tui"
)

// globalOptions holds the flags shared by every command
type globalOptions struct {
	source     string
	database   string
	configPath string
	nullPolicy string
	verbose    bool
}

// rootOptions holds the flags of the root command only
type rootOptions struct {
	noConsole bool
}

const rootLong = `sheetsql converts every sheet of an Excel workbook into a table of a
SQLite database file, then opens a console for ad-hoc SQL.

The database is created only when the file does not exist yet; rows of the
workbook that are missing from an existing database are appended on every run.

Configuration (later wins): defaults, sheetsql.yaml (or --config), .env and
SHEETSQL_SOURCE / SHEETSQL_DATABASE / SHEETSQL_NULL_POLICY, then flags.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration
  11 - Workbook or database missing, unreadable or malformed
  13 - SQL statement failed in the console`

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	global := &globalOptions{}
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "sheetsql",
		Short:        "Turn an Excel workbook into a SQLite database and query it",
		Long:         rootLong,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRoot(cmd, global, opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&global.source, "source", "s", "", "Workbook to convert (default "+sheetsql.DefaultSourcePath+")")
	flags.StringVarP(&global.database, "database", "d", "", "SQLite database file (default <source>_.db)")
	flags.StringVarP(&global.configPath, "config", "c", "", "Config file (default ./"+config.ConfigFileName+" when present)")
	flags.StringVar(&global.nullPolicy, "null-policy", "", "How blank cells match on sync: equal or distinct")
	flags.BoolVarP(&global.verbose, "verbose", "v", false, "Enable verbose output for all commands")
	cmd.Flags().BoolVar(&opts.noConsole, "no-console", false, "Stop after building and syncing the database")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	})

	cmd.AddCommand(newExportCmd(global), newVersionCmd())
	return cmd
}

// commandContext returns the command's context, falling back to Background when run outside Execute
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// resolveConfig layers flag values over the config file and environment
func resolveConfig(cmd *cobra.Command, global *globalOptions) (*config.Config, error) {
	cfg, err := config.Resolve(global.configPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	flags := cmd.Flags()
	if flags.Changed("source") {
		cfg.SourcePath = global.source
	}
	if flags.Changed("database") {
		cfg.DatabasePath = global.database
	}
	if flags.Changed("null-policy") {
		cfg.NullPolicy = global.nullPolicy
	}
	if global.verbose {
		cfg.Verbose = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// databasePath returns the configured database or the path derived from the workbook
func databasePath(cfg *config.Config) string {
	if cfg.DatabasePath != "" {
		return cfg.DatabasePath
	}
	return sheetsql.DefaultDatabasePath(cfg.SourcePath)
}

// newProgress draws bars on stderr when it is a terminal
func newProgress(errOut io.Writer) sheetsql.Progress {
	if f, ok := errOut.(*os.File); ok && tui.IsTerminal(f) && tui.IsInteractive() {
		return tui.NewProgressBar(errOut)
	}
	return sheetsql.NopProgress{}
}

func runRoot(cmd *cobra.Command, global *globalOptions, opts *rootOptions) error {
	ctx := commandContext(cmd)

	cfg, err := resolveConfig(cmd, global)
	if err != nil {
		return err
	}
	policy, err := sheetsql.ParseNullPolicy(cfg.NullPolicy)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	logger := logging.NewWriterLogger(cmd.ErrOrStderr(), cfg.Verbose)
	converter := sheetsql.NewConverter(sheetsql.Options{
		SourcePath:   cfg.SourcePath,
		DatabasePath: databasePath(cfg),
		NullPolicy:   policy,
		Keys:         cfg.Keys,
		Logger:       logger,
		Progress:     newProgress(cmd.ErrOrStderr()),
	})

	report, err := converter.Run(ctx)
	if err != nil {
		return err
	}
	for _, synced := range report.Synced {
		logger.Verbose("%s: %d rows inserted, %d already present", synced.Table, synced.Inserted, synced.Skipped)
	}

	if opts.noConsole {
		return nil
	}

	var consoleOpts []sheetsql.ConsoleOption
	if tui.IsInteractive() {
		consoleOpts = append(consoleOpts,
			sheetsql.WithPromptStyle(tui.Render(tui.PromptStyle)),
			sheetsql.WithDividerStyle(tui.Render(tui.DividerStyle)),
		)
	}
	console := sheetsql.NewConsole(converter.DatabasePath(), cmd.InOrStdin(), cmd.OutOrStdout(), consoleOpts...)
	return console.Run(ctx)
}
