package sheetsql

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// Console protocol strings
const (
	// Prompt is printed before every line read from the operator
	Prompt = "### "
	// consoleBanner is printed once when the console starts
	consoleBanner = "Enter SQL queries to execute on the database (type 'Q' to quit):"
	// consoleGoodbye is printed when the operator quits
	consoleGoodbye = "Exiting..."
	// quitCommand ends the session, compared case-insensitively
	quitCommand = "Q"
	// maxQueryLength bounds a single input line
	maxQueryLength = 1 << 20
)

// divider separates result rows
var divider = strings.Repeat("- ", 64)

// Console reads statements line by line and prints their result rows.
// The text typed by the operator is executed verbatim: the console is a
// local tool for a trusted operator.
type Console struct {
	databasePath string
	in           io.Reader
	out          io.Writer
	promptStyle  func(string) string
	dividerStyle func(string) string
}

// ConsoleOption configures a Console.
type ConsoleOption func(*Console)

// WithPromptStyle decorates the prompt, e.g. with terminal colors.
func WithPromptStyle(style func(string) string) ConsoleOption {
	return func(c *Console) {
		c.promptStyle = style
	}
}

// WithDividerStyle decorates the row divider.
func WithDividerStyle(style func(string) string) ConsoleOption {
	return func(c *Console) {
		c.dividerStyle = style
	}
}

func plain(s string) string { return s }

// NewConsole creates a console over the database at databasePath.
func NewConsole(databasePath string, in io.Reader, out io.Writer, opts ...ConsoleOption) *Console {
	c := &Console{
		databasePath: databasePath,
		in:           in,
		out:          out,
		promptStyle:  plain,
		dividerStyle: plain,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run loops until the operator types Q (any case) or input ends.
// A failing statement ends the session with a *QueryError carrying the
// engine's message; there is no retry.
func (c *Console) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(c.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxQueryLength)

	fmt.Fprintln(c.out, consoleBanner)
	for {
		fmt.Fprint(c.out, c.promptStyle(Prompt))
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			fmt.Fprintln(c.out)
			fmt.Fprintln(c.out, consoleGoodbye)
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(line, quitCommand) {
			fmt.Fprintln(c.out, consoleGoodbye)
			return nil
		}
		if line == "" {
			continue
		}

		if err := c.Execute(ctx, line); err != nil {
			return err
		}
	}
}

// Execute runs one statement on its own connection and prints every result row.
func (c *Console) Execute(ctx context.Context, query string) (err error) {
	fmt.Fprint(c.out, "\n\n")

	store, err := OpenStore(ctx, c.databasePath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close database: %w", closeErr))
		}
	}()

	rows, err := store.DB().QueryContext(ctx, query)
	if err != nil {
		return &QueryError{Query: query, Err: err}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return &QueryError{Query: query, Err: err}
	}

	values := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return &QueryError{Query: query, Err: err}
		}
		fmt.Fprintln(c.out, c.dividerStyle(divider))
		fmt.Fprintln(c.out, FormatRow(values))
	}
	if err := rows.Err(); err != nil {
		return &QueryError{Query: query, Err: err}
	}
	return nil
}

// FormatRow renders a result row as a tuple: (1, 'A'). A single value keeps
// its trailing comma, (1,), and NULL is printed as None.
func FormatRow(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatValue(v)
	}
	if len(parts) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// formatValue renders one scalar of a result row
func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "None"
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return formatReal(v)
	case bool:
		if v {
			return "1"
		}
		return "0"
	case []byte:
		return quoteText(string(v))
	case string:
		return quoteText(v)
	case time.Time:
		return quoteText(v.Format(time.RFC3339Nano))
	default:
		return fmt.Sprint(v)
	}
}

// formatReal prints a real positionally between 1e-4 and 1e16 and with an
// exponent outside that range. Positional reals always carry a decimal point.
func formatReal(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	if abs := math.Abs(v); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// quoteText single-quotes text, switching to double quotes when the text holds a single quote
func quoteText(s string) string {
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}
