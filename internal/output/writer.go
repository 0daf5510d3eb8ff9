// Package output serializes parsed statements for dry runs, where records
// are shown instead of persisted.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rumor-ml/commons.systems/bankimport/internal/domain"
)

// WriteOptions configures where the statement is written
type WriteOptions struct {
	FilePath string // Output path (empty = stdout)
}

// WriteStatement serializes a parsed statement to JSON with 2-space indentation
func WriteStatement(statement *domain.ParsedBankStatement, w io.Writer) error {
	if statement == nil {
		return fmt.Errorf("statement cannot be nil")
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(statement); err != nil {
		return fmt.Errorf("failed to encode statement as JSON: %w", err)
	}

	return nil
}

// WriteStatementToFile writes a statement to file or stdout based on options
func WriteStatementToFile(statement *domain.ParsedBankStatement, opts WriteOptions) (err error) {
	if statement == nil {
		return fmt.Errorf("statement cannot be nil")
	}

	if opts.FilePath == "" {
		return WriteStatement(statement, os.Stdout)
	}

	f, err := os.Create(opts.FilePath)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", opts.FilePath, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close output file %s: %w", opts.FilePath, closeErr)
		}
	}()

	if err = WriteStatement(statement, f); err != nil {
		return fmt.Errorf("failed to write statement to %s: %w", opts.FilePath, err)
	}

	return nil
}
