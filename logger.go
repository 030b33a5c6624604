package sheetsql

// Logger receives the diagnostics emitted while building, syncing and exporting.
// Implementations live in internal/logging.
type Logger interface {
	// Verbose logs detailed diagnostic information, shown only in verbose mode.
	Verbose(format string, args ...any)
	// Info logs informational messages about normal operations.
	Info(format string, args ...any)
	// Error logs problems that were recovered from, such as skipped sheets.
	Error(format string, args ...any)
}

// Progress tracks a unit of work made of a known number of steps.
type Progress interface {
	// Start begins a new bar.
	Start(label string, total int)
	// Increment advances the current bar by one step.
	Increment()
	// Done finishes the current bar.
	Done()
}

type nopLogger struct{}

func (nopLogger) Verbose(string, ...any) {}
func (nopLogger) Info(string, ...any)    {}
func (nopLogger) Error(string, ...any)   {}

// NopProgress discards progress updates.
type NopProgress struct{}

// Start implements Progress.
func (NopProgress) Start(string, int) {}

// Increment implements Progress.
func (NopProgress) Increment() {}

// Done implements Progress.
func (NopProgress) Done() {}
