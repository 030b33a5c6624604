package tui

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectMode(t *testing.T) {
	tests := []struct {
		name           string
		nonInteractive string
		ci             string
		noColor        string
	}{
		{name: "SHEETSQL_NON_INTERACTIVE", nonInteractive: "1"},
		{name: "CI", ci: "true"},
		{name: "NO_COLOR", noColor: "1"},
		{name: "no terminal in tests"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvNonInteractive, tt.nonInteractive)
			t.Setenv("CI", tt.ci)
			t.Setenv("NO_COLOR", tt.noColor)

			assert.Equal(t, ModeNonInteractive, DetectMode())
			assert.False(t, IsInteractive())
		})
	}
}

func TestIsTerminal(t *testing.T) {
	t.Parallel()

	assert.False(t, IsTerminal(nil))

	f, err := os.Create(filepath.Join(t.TempDir(), "out.txt"))
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, IsTerminal(f))
}
