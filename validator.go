package sheetsql

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// validator checks the paths given to a conversion or an export before any file is touched
type validator struct{}

// newValidator creates a new validator instance
func newValidator() *validator {
	return &validator{}
}

// validateSourcePath checks that the workbook path names a supported workbook.
// Existence is left to LoadWorkbook so the error carries ErrFileNotFound.
func (v *validator) validateSourcePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("source path cannot be empty")
	}
	if !isSupportedWorkbook(path) {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return nil
}

// validateDatabasePath checks that the database path can hold a file and is not the workbook itself
func (v *validator) validateDatabasePath(sourcePath, databasePath string) error {
	if strings.TrimSpace(databasePath) == "" {
		return errors.New("database path cannot be empty")
	}
	if filepath.Clean(sourcePath) == filepath.Clean(databasePath) {
		return fmt.Errorf("database path must differ from the source workbook: %s", databasePath)
	}

	info, err := os.Stat(databasePath)
	if err == nil && info.IsDir() {
		return fmt.Errorf("database path is a directory: %s", databasePath)
	}
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat database path %s: %w", databasePath, err)
	}
	return nil
}

// validateOutputDirectory validates that the output directory can be created/accessed
func (v *validator) validateOutputDirectory(outputDir string) error {
	if strings.TrimSpace(outputDir) == "" {
		return errors.New("output directory cannot be empty")
	}

	if info, err := os.Stat(outputDir); err == nil {
		if !info.IsDir() {
			return fmt.Errorf("output path exists but is not a directory: %s", outputDir)
		}
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check output directory: %w", err)
	}

	// Directory doesn't exist, that's fine - it will be created later
	return nil
}
