package parser

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rumor-ml/commons.systems/bankimport/internal/domain"
)

// Parser is the strategy interface for all statement format parsers
type Parser interface {
	// Name returns parser identifier (e.g., "ofx", "csv")
	Name() string

	// CanParse checks if parser can handle this file.
	// Returns true if this parser should be used for the file.
	CanParse(path string, header []byte) bool

	// Parse extracts a normalized statement from the file.
	//
	// A file that does not resemble a bank statement yields an empty
	// statement and a nil error; only unreadable input is an error.
	Parse(ctx context.Context, r io.Reader, meta *Metadata) (*domain.ParsedBankStatement, error)
}

// Metadata contains context about the file being imported.
//
// Create instances using NewMetadata. The target account is optional at
// parse time; it is required only when the statement is handed to the
// reconciler.
type Metadata struct {
	filePath   string
	accountID  string
	detectedAt time.Time
}

// NewMetadata creates a new Metadata instance with validated required fields
func NewMetadata(filePath string, detectedAt time.Time) (*Metadata, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}
	if detectedAt.IsZero() {
		return nil, fmt.Errorf("detected time cannot be zero")
	}
	return &Metadata{
		filePath:   filePath,
		detectedAt: detectedAt,
	}, nil
}

// FilePath returns the source file path
func (m *Metadata) FilePath() string {
	return m.filePath
}

// AccountID returns the target account for the import, if known
func (m *Metadata) AccountID() string {
	return m.accountID
}

// DetectedAt returns the timestamp when the file was detected
func (m *Metadata) DetectedAt() time.Time {
	return m.detectedAt
}

// SetAccountID sets the target account for the import
func (m *Metadata) SetAccountID(accountID string) {
	m.accountID = accountID
}
