package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nao1215/sheetsql"
	"github.com/nao1215/sheetsql/internal/config"
)

func TestExitCodeForError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitSuccess},
		{name: "usage", err: fmt.Errorf("%w: bad flag", ErrUsage), want: ExitUsageError},
		{name: "cobra unknown command", err: errors.New(`unknown command "x" for "sheetsql"`), want: ExitUsageError},
		{name: "invalid config", err: fmt.Errorf("%w: null_policy", ErrInvalidConfig), want: ExitConfigError},
		{name: "config not found", err: config.ErrConfigNotFound, want: ExitConfigError},
		{name: "query", err: &sheetsql.QueryError{Query: "SELEC", Err: errors.New("syntax error")}, want: ExitQueryError},
		{name: "file not found", err: fmt.Errorf("load: %w", sheetsql.ErrFileNotFound), want: ExitInputError},
		{name: "invalid workbook", err: sheetsql.ErrInvalidWorkbook, want: ExitInputError},
		{name: "no tables", err: sheetsql.ErrNoTables, want: ExitInputError},
		{name: "other", err: errors.New("disk full"), want: ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExitCodeForError(tt.err))
		})
	}
}
